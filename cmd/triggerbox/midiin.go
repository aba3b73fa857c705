package main

import (
	"fmt"
	"log"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/steveobbayi/ardour/triggerbox"
)

// MIDIInput listens on one rtmidi input port and buffers note on/off
// messages in a ring queue, mirroring the pack's gomidi adapter: the
// driver's own callback runs on an arbitrary goroutine, so events only
// cross into the realtime path through a lock-free queue (see
// triggerbox.RingQueue), never by calling TriggerBox methods directly from
// handle.
type MIDIInput struct {
	driver *rtmididrv.Driver
	port   drivers.In
	queue  *triggerbox.RingQueue[triggerbox.MIDIEvent]
}

const midiQueueCapacity = 1024

// OpenMIDIInput opens the first input port whose name has the given
// prefix, or the first available port if prefix is empty.
func OpenMIDIInput(prefix string) (*MIDIInput, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("triggerbox: no MIDI driver available: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, err
	}
	var selected drivers.In
	for _, in := range ins {
		if prefix == "" || strings.HasPrefix(in.String(), prefix) {
			selected = in
			break
		}
	}
	if selected == nil {
		drv.Close()
		return nil, fmt.Errorf("triggerbox: no MIDI input port matches %q", prefix)
	}
	if err := selected.Open(); err != nil {
		drv.Close()
		return nil, err
	}

	m := &MIDIInput{
		driver: drv,
		port:   selected,
		queue:  triggerbox.NewRingQueue[triggerbox.MIDIEvent](midiQueueCapacity),
	}
	if _, err := midi.ListenTo(selected, m.handle); err != nil {
		selected.Close()
		drv.Close()
		return nil, err
	}
	return m, nil
}

func (m *MIDIInput) handle(msg midi.Message, timestampms int32) {
	var channel, key, velocity uint8
	if msg.GetNoteOn(&channel, &key, &velocity) {
		if m.queue.Write([]triggerbox.MIDIEvent{{Kind: triggerbox.NoteOn, Note: key, Velocity: velocity}}) == 0 {
			log.Printf("triggerbox: MIDI queue full, dropping note-on for note %d", key)
		}
		return
	}
	if msg.GetNoteOff(&channel, &key, &velocity) {
		if m.queue.Write([]triggerbox.MIDIEvent{{Kind: triggerbox.NoteOff, Note: key}}) == 0 {
			log.Printf("triggerbox: MIDI queue full, dropping note-off for note %d", key)
		}
	}
}

// Drain returns every event queued since the last call. nframes is unused
// today (events carry no sub-block timestamp) but kept in the signature so
// a future host can sub-divide a block around MIDI event boundaries
// without changing this call site.
func (m *MIDIInput) Drain(nframes int) []triggerbox.MIDIEvent {
	n := m.queue.ReadSpace()
	if n == 0 {
		return nil
	}
	buf := make([]triggerbox.MIDIEvent, n)
	m.queue.Read(buf)
	return buf
}

func (m *MIDIInput) Close() {
	m.port.Close()
	m.driver.Close()
}
