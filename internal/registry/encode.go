package registry

import "github.com/schollz/snapgrid/internal/wire"

// Encode turns a descriptor and a clamped wire value (0-127) into the
// outbound message(s) it produces. NRPN always expands to its three
// underlying CC messages (MSB, LSB, value) in that fixed order, per
// spec.md §4.2 "Encoding".
func Encode(d Descriptor, value int) []wire.Message {
	value = Clamp127(value)
	switch d.Encoding.Kind {
	case EncodingCC:
		return []wire.Message{wire.CC{Channel: d.Encoding.Channel, CC: d.Encoding.CC, Value: value}}
	case EncodingPC:
		return []wire.Message{wire.PC{Channel: d.Encoding.Channel, Program: value}}
	case EncodingNote:
		if value > 0 {
			return []wire.Message{wire.Note{Channel: d.Encoding.Channel, Note: d.Encoding.Note, Velocity: value, On: true}}
		}
		return []wire.Message{wire.Note{Channel: d.Encoding.Channel, Note: d.Encoding.Note, Velocity: 0, On: false}}
	case EncodingNRPN:
		n := wire.NRPN{Channel: d.Encoding.Channel, MSB: d.Encoding.NRPNMSB, LSB: d.Encoding.NRPNLSB, Value: value}
		ccs := n.Expand()
		out := make([]wire.Message, len(ccs))
		for i, cc := range ccs {
			out[i] = cc
		}
		return out
	default:
		return nil
	}
}

// Clamp127 clamps a value to the wire domain [0, 127].
func Clamp127(v int) int {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return v
}
