//go:build !windows

package midiconnector

import (
	"fmt"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/schollz/snapgrid/internal/wire"
)

// ClockInput listens on a real MIDI input port for realtime transport
// bytes (timing clock, start, stop, continue) and control change
// messages, translating each into a wire.ClockEvent for the core clock
// to ingest. Mirrors Device's single-port-per-name bookkeeping.
type ClockInput struct {
	name string
	in   drivers.In
	stop func()
}

// OpenClockInput opens the named input port (the first port whose name
// equals name or starts with it, case-sensitively; unlike filterName
// there is no truncation or substring match) and begins delivering wire.ClockEvent
// values to onEvent from a dedicated listener goroutine until Close is
// called.
func OpenClockInput(name string, onEvent func(wire.ClockEvent)) (*ClockInput, error) {
	ins := midi.GetInPorts()
	var matchNum int = -1
	var matchName string
	for i, in := range ins {
		if matchesInputName(in.String(), name) {
			matchNum = i
			matchName = in.String()
			break
		}
	}
	if matchNum == -1 {
		return nil, fmt.Errorf("could not find input device with name %s", name)
	}

	in, err := midi.FindInPort(matchName)
	if err != nil {
		return nil, err
	}

	var once sync.Once
	stopFn, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		translateRealtime(msg, onEvent)
	}, midi.UseSysEx())
	if err != nil {
		return nil, err
	}

	ci := &ClockInput{name: matchName, in: in}
	ci.stop = func() { once.Do(stopFn) }
	return ci, nil
}

func matchesInputName(candidate, want string) bool {
	if candidate == want {
		return true
	}
	return len(candidate) >= len(want) && candidate[:len(want)] == want
}

// translateRealtime decodes the subset of the MIDI byte stream the clock
// cares about: timing clock (0xF8), start (0xFA), continue (0xFB), stop
// (0xFC), and control change (0xBn) - the last needed so a slaved tempo
// CC (spec.md §7) can reach the clock from the same physical port.
func translateRealtime(msg midi.Message, onEvent func(wire.ClockEvent)) {
	raw := msg.Bytes()
	if len(raw) == 0 {
		return
	}
	switch raw[0] {
	case 0xF8:
		onEvent(wire.ClockEvent{Kind: wire.EventTick})
	case 0xFA:
		onEvent(wire.ClockEvent{Kind: wire.EventStart})
	case 0xFB:
		onEvent(wire.ClockEvent{Kind: wire.EventContinue})
	case 0xFC:
		onEvent(wire.ClockEvent{Kind: wire.EventStop})
	default:
		if len(raw) >= 3 && raw[0]&0xF0 == 0xB0 {
			onEvent(wire.ClockEvent{
				Kind:    wire.EventControlChange,
				Channel: int(raw[0]&0x0F) + 1,
				CC:      int(raw[1]),
				Value:   int(raw[2]),
			})
		}
	}
}

// Close stops the listener goroutine and closes the underlying port.
func (ci *ClockInput) Close() error {
	if ci.stop != nil {
		ci.stop()
	}
	if ci.in != nil {
		return ci.in.Close()
	}
	return nil
}

// InputDevices lists available MIDI input port names, the input-side
// counterpart to Devices.
func InputDevices() (devices []string) {
	for _, in := range midi.GetInPorts() {
		devices = append(devices, in.String())
	}
	return
}
