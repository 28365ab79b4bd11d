// Package wire defines the abstract parameter messages and clock input
// events that cross the boundary between the core and its collaborators:
// the message sink (outbound) and the clock input port (inbound). The
// core never touches a raw MIDI byte; that lives one layer down, in
// internal/midiconnector.
package wire

// Message is one outbound wire message produced by the Snapshot Store or
// Transition Engine and delivered to a Sink.
type Message interface {
	isMessage()
}

// CC is a Control Change message: channel 1-16, cc 0-127, value 0-127.
type CC struct {
	Channel int
	CC      int
	Value   int
}

func (CC) isMessage() {}

// PC is a Program Change message: channel 1-16, program 0-127.
type PC struct {
	Channel int
	Program int
}

func (PC) isMessage() {}

// Note is a Note On/Off message: channel 1-16, note 0-127, velocity 0-127.
// On distinguishes Note On (true) from Note Off (false).
type Note struct {
	Channel  int
	Note     int
	Velocity int
	On       bool
}

func (Note) isMessage() {}

// NRPN is a non-registered parameter number, always emitted as the three
// underlying CC messages (99=MSB, 98=LSB, 6=value) in that order by the
// caller; a single NRPN value here represents the logical triplet.
type NRPN struct {
	Channel int
	MSB     int
	LSB     int
	Value   int
}

func (NRPN) isMessage() {}

// Sink accepts one wire message at a time, synchronously and without
// blocking. Backpressure is out of scope; an implementation that must
// queue does so internally.
type Sink func(Message)

// Expand returns the CC messages an NRPN message resolves to, in the
// fixed MSB, LSB, value order required by the spec.
func (n NRPN) Expand() []CC {
	return []CC{
		{Channel: n.Channel, CC: 99, Value: n.MSB},
		{Channel: n.Channel, CC: 98, Value: n.LSB},
		{Channel: n.Channel, CC: 6, Value: n.Value},
	}
}
