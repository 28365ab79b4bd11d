//go:build !windows

// Package midiconnector wires the core's abstract wire.Message sink and
// wire.ClockEvent input port onto a real gitlab.com/gomidi/midi/v2
// output/input port, adapted from the teacher's device-table approach:
// opened ports are kept in a package-level map keyed by port name, so
// Devices with the same name share one physical port the way the
// teacher's midiplayer shared it per instrument. There is no reference
// count: Close on any of them closes the port for all.
package midiconnector

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/schollz/snapgrid/internal/wire"
)

var mutex sync.Mutex

var devicesOpen map[string]drivers.Out

func init() {
	devicesOpen = make(map[string]drivers.Out)
}

type Device struct {
	name    string
	num     int
	notesOn map[uint8]uint8
}

func filterName(name string) (foundName string, foundNum int, err error) {
	foundNum = -1
	names := Devices()
	
	// Truncate name to first 3 words
	words := strings.Fields(name)
	if len(words) > 3 {
		words = words[:3]
	}
	truncatedName := strings.Join(words, " ")
	
	// First try exact match with truncated name
	for i, n := range names {
		if strings.EqualFold(n, truncatedName) {
			foundName = n
			foundNum = i
			return
		}
	}
	
	// Then try prefix match with truncated name
	for i, n := range names {
		if strings.HasPrefix(strings.ToLower(n), strings.ToLower(truncatedName)) {
			foundName = n
			foundNum = i
			return
		}
	}
	
	// Finally try contains match for backward compatibility
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), strings.ToLower(truncatedName)) {
			foundName = n
			foundNum = i
			return
		}
	}
	
	if foundNum == -1 {
		err = fmt.Errorf("could not find device with name %s", truncatedName)
	}
	return
}

func New(name string) (*Device, error) {
	var d Device
	var err error
	d.name, d.num, err = filterName(name)
	d.notesOn = make(map[uint8]uint8)
	return &d, err
}

func Close() {
	mutex.Lock()
	defer mutex.Unlock()
	for _, out := range devicesOpen {
		out.Close()
	}
}

func (d *Device) Open() (err error) {
	mutex.Lock()
	defer mutex.Unlock()
	if _, ok := devicesOpen[d.name]; ok {
		return
	}
	out, err := midi.FindOutPort(d.name)
	if err == nil {
		devicesOpen[d.name] = out
		err = out.Open()
	}
	if err == nil {
	} else {
	}
	return
}

func (d *Device) Close() (err error) {
	// send note off to every note
	for note, ch := range d.notesOn {
		d.NoteOff(ch, note)
	}
	mutex.Lock()
	defer mutex.Unlock()
	if out, ok := devicesOpen[d.name]; ok {
		err = out.Close()
		delete(devicesOpen, d.name)
	}
	return
}

func (d *Device) NoteOn(channel, note, velocity uint8) (err error) {
	mutex.Lock()
	defer mutex.Unlock()
	if out, ok := devicesOpen[d.name]; ok {
		err = out.Send([]byte{0x90 | channel, note, velocity})
		if err != nil {
			// Log MIDI errors instead of letting them print to stderr
			log.Printf("MIDI NoteOn error for device %s: %v", d.name, err)
		} else {
			d.notesOn[note] = channel
		}
	}
	return
}

func (d *Device) NoteOff(channel, note uint8) (err error) {
	mutex.Lock()
	defer mutex.Unlock()
	if out, ok := devicesOpen[d.name]; ok {
		err = out.Send([]byte{0x80 | channel, note, 0})
		if err != nil {
			// Log MIDI errors instead of letting them print to stderr
			log.Printf("MIDI NoteOff error for device %s: %v", d.name, err)
		} else {
			delete(d.notesOn, note)
		}
	}
	return
}

func (d *Device) controlChange(channel, cc, value uint8) (err error) {
	mutex.Lock()
	defer mutex.Unlock()
	if out, ok := devicesOpen[d.name]; ok {
		err = out.Send([]byte{0xB0 | channel, cc, value})
		if err != nil {
			log.Printf("MIDI ControlChange error for device %s: %v", d.name, err)
		}
	}
	return
}

func (d *Device) programChange(channel, program uint8) (err error) {
	mutex.Lock()
	defer mutex.Unlock()
	if out, ok := devicesOpen[d.name]; ok {
		err = out.Send([]byte{0xC0 | channel, program})
		if err != nil {
			log.Printf("MIDI ProgramChange error for device %s: %v", d.name, err)
		}
	}
	return
}

// Send dispatches an abstract wire.Message to the physical port, encoding
// NRPN as its three constituent CC messages (CC99/CC98/CC6, spec.md §3
// "NRPN") in order. It is shaped to be handed directly to engine.OnMessage
// and clock-side consumers as a wire.Sink.
func (d *Device) Send(msg wire.Message) {
	switch m := msg.(type) {
	case wire.CC:
		d.controlChange(uint8(m.Channel-1), uint8(m.CC), uint8(m.Value))
	case wire.PC:
		d.programChange(uint8(m.Channel-1), uint8(m.Program))
	case wire.Note:
		if m.On {
			d.NoteOn(uint8(m.Channel-1), uint8(m.Note), uint8(m.Velocity))
		} else {
			d.NoteOff(uint8(m.Channel-1), uint8(m.Note))
		}
	case wire.NRPN:
		for _, cc := range m.Expand() {
			d.controlChange(uint8(cc.Channel-1), uint8(cc.CC), uint8(cc.Value))
		}
	}
}

// Sink adapts Send to the wire.Sink function type for consumers (the
// demo command's engine wiring) that want a plain func(wire.Message).
func (d *Device) Sink() wire.Sink {
	return d.Send
}

func Devices() (devices []string) {
	outs := midi.GetOutPorts()
	for _, out := range outs {
		devices = append(devices, out.String())
	}
	return
}
