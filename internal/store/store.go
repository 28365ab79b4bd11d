// Package store owns every snapshot record in the bank/slot grid and the
// current-value shadow that tracks the downstream device's assumed
// state, per spec.md §4.2. Grounded on the teacher's song grid
// (internal/model.Model.SongData [8][16]int, -1 sentinel for empty) for
// the 8x16 shape and on internal/storage.go's jsoniter save/load for
// the bulk export helpers in persist.go.
package store

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/snapgrid/internal/registry"
	"github.com/schollz/snapgrid/internal/wire"
)

// Store is the snapshot set plus the current-value shadow. Zero value is
// not usable; construct with New.
type Store struct {
	mu sync.Mutex

	reg *registry.Registry

	snapshots map[string]*Snapshot
	shadow    map[string]int
}

// New builds a Store against reg, initialising the shadow from the
// registry's defaults.
func New(reg *registry.Registry) *Store {
	s := &Store{
		reg:       reg,
		snapshots: make(map[string]*Snapshot),
		shadow:    make(map[string]int),
	}
	for _, d := range reg.All() {
		s.shadow[d.ID] = d.Default
	}
	return s
}

// CreateEmpty creates a snapshot with no parameters and no one-shot
// messages at (bank, slot).
func (s *Store) CreateEmpty(bank, slot int, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	id := uuid.NewString()
	s.snapshots[id] = &Snapshot{
		ID:         id,
		Name:       name,
		Bank:       bank,
		Slot:       slot,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	return id
}

// Capture creates a snapshot whose parameters list is the full current
// shadow, every entry enabled - the "capture current state" primitive.
func (s *Store) Capture(bank, slot int, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	id := uuid.NewString()
	params := make([]SnapshotParameter, 0, len(s.shadow))
	for _, d := range s.reg.All() {
		params = append(params, SnapshotParameter{
			ParameterID: d.ID,
			Value:       s.shadow[d.ID],
			Enabled:     true,
		})
	}
	s.snapshots[id] = &Snapshot{
		ID:         id,
		Name:       name,
		Bank:       bank,
		Slot:       slot,
		Parameters: params,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	return id
}

// Get returns a copy of the snapshot by id.
func (s *Store) Get(id string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snapshots[id]
	if !ok {
		return Snapshot{}, false
	}
	return cloneSnapshot(snap), true
}

// FindByPosition returns the first snapshot found at (bank, slot),
// scanning snapshots in ascending id order (not insertion order) -
// "first match" per spec.md §3's open question on uniqueness.
func (s *Store) FindByPosition(bank, slot int) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.sortedIDsLocked()
	for _, id := range ids {
		snap := s.snapshots[id]
		if snap.Bank == bank && snap.Slot == slot {
			return cloneSnapshot(snap), true
		}
	}
	return Snapshot{}, false
}

// ListAll returns every snapshot, ordered by id for determinism.
func (s *Store) ListAll() []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.sortedIDsLocked()
	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, cloneSnapshot(s.snapshots[id]))
	}
	return out
}

// ListByBank returns every snapshot in the given bank, ordered by slot
// then id.
func (s *Store) ListByBank(bank int) []Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.sortedIDsLocked()
	out := make([]Snapshot, 0)
	for _, id := range ids {
		snap := s.snapshots[id]
		if snap.Bank == bank {
			out = append(out, cloneSnapshot(snap))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out
}

func (s *Store) sortedIDsLocked() []string {
	ids := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Update merges the allowed field updates from patch and bumps modified
// time. Returns false if id is unknown.
func (s *Store) Update(id string, patch Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		log.Printf("[STORE] update: snapshot %s not found", id)
		return false
	}
	if patch.Name != nil {
		snap.Name = *patch.Name
	}
	if patch.Parameters != nil {
		snap.Parameters = clonedParameters(*patch.Parameters)
	}
	if patch.OneShotMessages != nil {
		snap.OneShotMessages = clonedMessages(*patch.OneShotMessages)
	}
	if patch.Colour != nil {
		snap.Colour = *patch.Colour
	}
	snap.ModifiedAt = time.Now()
	return true
}

// SetParameter upserts (parameterID, value, enabled) into the snapshot,
// clamping value to [0,127].
func (s *Store) SetParameter(id, parameterID string, value int, enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		log.Printf("[STORE] set_parameter: snapshot %s not found", id)
		return false
	}
	value = registry.Clamp127(value)
	for i := range snap.Parameters {
		if snap.Parameters[i].ParameterID == parameterID {
			snap.Parameters[i].Value = value
			snap.Parameters[i].Enabled = enabled
			snap.ModifiedAt = time.Now()
			return true
		}
	}
	snap.Parameters = append(snap.Parameters, SnapshotParameter{ParameterID: parameterID, Value: value, Enabled: enabled})
	snap.ModifiedAt = time.Now()
	return true
}

// RemoveParameter deletes parameterID from the snapshot's parameter
// list, if present.
func (s *Store) RemoveParameter(id, parameterID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return false
	}
	for i := range snap.Parameters {
		if snap.Parameters[i].ParameterID == parameterID {
			snap.Parameters = append(snap.Parameters[:i], snap.Parameters[i+1:]...)
			snap.ModifiedAt = time.Now()
			return true
		}
	}
	return false
}

// ToggleParameterEnabled flips the enabled flag for parameterID within
// the snapshot.
func (s *Store) ToggleParameterEnabled(id, parameterID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return false
	}
	for i := range snap.Parameters {
		if snap.Parameters[i].ParameterID == parameterID {
			snap.Parameters[i].Enabled = !snap.Parameters[i].Enabled
			snap.ModifiedAt = time.Now()
			return true
		}
	}
	return false
}

// Delete removes the snapshot by id.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[id]; !ok {
		return false
	}
	delete(s.snapshots, id)
	return true
}

// Copy duplicates src into (dstBank, dstSlot) with a fresh id, a
// "(copy)" name suffix, and fresh timestamps.
func (s *Store) Copy(srcID string, dstBank, dstSlot int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.snapshots[srcID]
	if !ok {
		return "", false
	}
	now := time.Now()
	id := uuid.NewString()
	s.snapshots[id] = &Snapshot{
		ID:              id,
		Name:            src.Name + " (copy)",
		Bank:            dstBank,
		Slot:            dstSlot,
		Parameters:      clonedParameters(src.Parameters),
		OneShotMessages: clonedMessages(src.OneShotMessages),
		Colour:          src.Colour,
		CreatedAt:       now,
		ModifiedAt:      now,
	}
	return id, true
}

// EmptyPositions scans (bank, slot) lexicographically and returns every
// position with no occupying snapshot.
func (s *Store) EmptyPositions(slotsPerBank int) [][2]int {
	s.mu.Lock()
	occupied := make(map[[2]int]bool, len(s.snapshots))
	for _, snap := range s.snapshots {
		occupied[[2]int{snap.Bank, snap.Slot}] = true
	}
	s.mu.Unlock()

	out := make([][2]int, 0)
	for b := 0; b < Banks; b++ {
		for sl := 0; sl < slotsPerBank; sl++ {
			if !occupied[[2]int{b, sl}] {
				out = append(out, [2]int{b, sl})
			}
		}
	}
	return out
}

// NextAvailable returns the first empty position found scanning
// lexicographically from (startBank, 0) across totalBanks banks of
// slotsPerBank slots each, wrapping around.
func (s *Store) NextAvailable(startBank, slotsPerBank, totalBanks int) (bank, slot int, ok bool) {
	empties := s.EmptyPositions(slotsPerBank)
	if len(empties) == 0 {
		return 0, 0, false
	}
	empty := make(map[[2]int]bool, len(empties))
	for _, e := range empties {
		empty[e] = true
	}
	for i := 0; i < totalBanks; i++ {
		b := (startBank + i) % totalBanks
		for sl := 0; sl < slotsPerBank; sl++ {
			if empty[[2]int{b, sl}] {
				return b, sl, true
			}
		}
	}
	return 0, 0, false
}

// GetCurrent returns the shadow value for parameterID, or the registry
// default if never emitted.
func (s *Store) GetCurrent(parameterID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shadow[parameterID]
}

// SetCurrent writes the shadow value for parameterID, clamped to
// [0,127].
func (s *Store) SetCurrent(parameterID string, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shadow[parameterID] = registry.Clamp127(value)
}

// ResetCurrent reinitialises the shadow from the registry defaults.
func (s *Store) ResetCurrent() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.reg.All() {
		s.shadow[d.ID] = d.Default
	}
}

// InterpolationTargets returns the enabled-parameter value map for a
// snapshot - the target map an interpolation moves toward.
func (s *Store) InterpolationTargets(id string) (map[string]int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return nil, false
	}
	out := make(map[string]int)
	for _, p := range snap.Parameters {
		if p.Enabled {
			out[p.ParameterID] = p.Value
		}
	}
	return out, true
}

// EnabledParameterOrder returns the ordered list of enabled parameter
// ids for a snapshot, preserving the snapshot's own parameter order -
// the iteration order Jump interpolation and Drop encoding must respect
// per spec.md §4.3 "Ordering guarantees".
func (s *Store) EnabledParameterOrder(id string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(snap.Parameters))
	for _, p := range snap.Parameters {
		if p.Enabled {
			out = append(out, p.ParameterID)
		}
	}
	return out, true
}

// OutboundMessages encodes every enabled parameter via the registry,
// then appends the snapshot's one-shot messages in order. Disabled
// parameters and unregistered parameter ids are skipped silently.
func (s *Store) OutboundMessages(id string) ([]wire.Message, bool) {
	s.mu.Lock()
	snap, ok := s.snapshots[id]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	params := clonedParameters(snap.Parameters)
	oneShots := clonedMessages(snap.OneShotMessages)
	s.mu.Unlock()

	out := make([]wire.Message, 0, len(params)+len(oneShots))
	for _, p := range params {
		if !p.Enabled {
			continue
		}
		d, ok := s.reg.Get(p.ParameterID)
		if !ok {
			log.Printf("[STORE] outbound_messages: skipping unregistered parameter %s", p.ParameterID)
			continue
		}
		out = append(out, registry.Encode(d, p.Value)...)
	}
	out = append(out, oneShots...)
	return out, true
}

// Load bulk-replaces the snapshot set.
func (s *Store) Load(list []Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = make(map[string]*Snapshot, len(list))
	for i := range list {
		cp := list[i]
		s.snapshots[cp.ID] = &cp
	}
}

// Export bulk-reads the snapshot set, ordered by id.
func (s *Store) Export() []Snapshot {
	return s.ListAll()
}
