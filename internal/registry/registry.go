// Package registry catalogues every addressable parameter of the
// downstream groovebox: its wire encoding, its value domain, and its
// default. The catalogue is built once at process startup and is
// immutable afterward, the same one-shot/read-only shape as the
// teacher's internal/midiconnector device table, just for parameters
// instead of MIDI ports.
package registry

import (
	"log"
	"strconv"
)

// Category tags a parameter descriptor for UI grouping. The core itself
// never branches on category; it is exposed for collaborators.
type Category int

const (
	CategoryScene Category = iota
	CategoryTempo
	CategoryTrack
	CategoryGroove
	CategoryTransport
)

// EncodingKind identifies which wire shape a descriptor encodes to.
type EncodingKind int

const (
	EncodingCC EncodingKind = iota
	EncodingPC
	EncodingNote
	EncodingNRPN
)

// Encoding is the wire address of a parameter: a channel plus one of
// CC number, program change, note number (with a default velocity), or
// an NRPN MSB/LSB pair.
type Encoding struct {
	Kind             EncodingKind
	Channel          int // 1-16
	CC               int // 0-127, EncodingCC only
	Note             int // 0-127, EncodingNote only
	DefaultVelocity  int // 0-127, EncodingNote only
	NRPNMSB, NRPNLSB int // 0-127, EncodingNRPN only
}

// Descriptor is one catalogue entry: a stable id, display metadata, wire
// encoding, and default value. Values are always 0-127 at the wire;
// semantic ranges (BPM, pan, volume %, mute) are mapped at the edges by
// the unit converters in units.go.
type Descriptor struct {
	ID       string
	Name     string
	Encoding Encoding
	Default  int
	Category Category
}

// Registry is the immutable parameter catalogue. Zero value is usable
// only via New; construct with New().
type Registry struct {
	byID []Descriptor
	idx  map[string]int
}

// New builds the fixed scene/tempo/groove parameters plus the generated
// 16-track x {volume, mute, pan} cross-product described in spec.md §6.
func New() *Registry {
	r := &Registry{idx: make(map[string]int)}

	r.add(Descriptor{ID: "delayed_scene", Name: "Delayed Scene", Category: CategoryScene,
		Encoding: Encoding{Kind: EncodingCC, Channel: 1, CC: 82}, Default: 0})
	r.add(Descriptor{ID: "prev_scene", Name: "Previous Scene", Category: CategoryScene,
		Encoding: Encoding{Kind: EncodingCC, Channel: 1, CC: 83}, Default: 0})
	r.add(Descriptor{ID: "next_scene", Name: "Next Scene", Category: CategoryScene,
		Encoding: Encoding{Kind: EncodingCC, Channel: 1, CC: 84}, Default: 0})
	r.add(Descriptor{ID: "scene_direct", Name: "Scene Direct", Category: CategoryScene,
		Encoding: Encoding{Kind: EncodingCC, Channel: 1, CC: 85}, Default: 0})
	r.add(Descriptor{ID: "tempo", Name: "Tempo", Category: CategoryTempo,
		Encoding: Encoding{Kind: EncodingCC, Channel: 1, CC: 80}, Default: 64})
	r.add(Descriptor{ID: "groove", Name: "Groove", Category: CategoryGroove,
		Encoding: Encoding{Kind: EncodingCC, Channel: 1, CC: 81}, Default: 64})

	for track := 1; track <= 16; track++ {
		r.addTrackFamily(track)
	}

	return r
}

func (r *Registry) addTrackFamily(track int) {
	volID, muteID, panID := TrackParameterIDs(track)
	r.add(Descriptor{ID: volID, Name: trackDisplayName(track, "Volume"), Category: CategoryTrack,
		Encoding: Encoding{Kind: EncodingCC, Channel: track, CC: 7}, Default: 100})
	r.add(Descriptor{ID: muteID, Name: trackDisplayName(track, "Mute"), Category: CategoryTrack,
		Encoding: Encoding{Kind: EncodingCC, Channel: track, CC: 9}, Default: 0})
	r.add(Descriptor{ID: panID, Name: trackDisplayName(track, "Pan"), Category: CategoryTrack,
		Encoding: Encoding{Kind: EncodingCC, Channel: track, CC: 10}, Default: 64})
}

// TrackParameterIDs returns the stable parameter ids generated for track
// i (1-16): volume, mute, pan - the "generated cross-product" of spec.md
// §3.
func TrackParameterIDs(track int) (vol, mute, pan string) {
	suffix := trackSuffix(track)
	return "track_" + suffix + "_volume", "track_" + suffix + "_mute", "track_" + suffix + "_pan"
}

func trackSuffix(track int) string {
	return strconv.Itoa(track)
}

func trackDisplayName(track int, what string) string {
	return "Track " + strconv.Itoa(track) + " " + what
}

func (r *Registry) add(d Descriptor) {
	if _, exists := r.idx[d.ID]; exists {
		log.Printf("[REGISTRY] duplicate parameter id %q ignored", d.ID)
		return
	}
	r.idx[d.ID] = len(r.byID)
	r.byID = append(r.byID, d)
}

// Get looks up a descriptor by stable id. Absent returns ok=false - the
// registry never raises, per spec.md §7.
func (r *Registry) Get(id string) (Descriptor, bool) {
	i, ok := r.idx[id]
	if !ok {
		return Descriptor{}, false
	}
	return r.byID[i], true
}

// ByChannelCC finds the descriptor addressed by (channel, cc), used when
// a higher layer needs to map an incoming tempo-style CC back to a
// parameter id.
func (r *Registry) ByChannelCC(channel, cc int) (Descriptor, bool) {
	for _, d := range r.byID {
		if d.Encoding.Kind == EncodingCC && d.Encoding.Channel == channel && d.Encoding.CC == cc {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ByCategory returns every descriptor tagged with the given category, in
// catalogue order.
func (r *Registry) ByCategory(c Category) []Descriptor {
	out := make([]Descriptor, 0)
	for _, d := range r.byID {
		if d.Category == c {
			out = append(out, d)
		}
	}
	return out
}

// All returns every descriptor in catalogue order. Callers must not
// mutate the returned slice's contents in place across goroutines; the
// registry is meant to be read from the single cooperative scheduler
// context described in spec.md §5.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.byID))
	copy(out, r.byID)
	return out
}
