package main

import (
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/steveobbayi/ardour/triggerbox"
)

// localTransport is the minimal Transport a command-line host needs: it is
// never paused once rolling, so Rolling reports whether Start has been
// called, which TriggerBox.Run does the first time it has a trigger to
// play.
type localTransport struct {
	rolling atomic.Bool
}

func (t *localTransport) Rolling() bool { return t.rolling.Load() }
func (t *localTransport) Start()        { t.rolling.Store(true) }

// Host wires a TriggerBox to a live portaudio output stream, following the
// pack's Sink: a single stream callback driving zero-or-more sources once
// per hardware buffer. Here there is exactly one source, the TriggerBox
// itself, plus a MIDIInput feeding it note events each block.
type Host struct {
	stream *portaudio.Stream
	box    *triggerbox.TriggerBox
	tempo  triggerbox.TempoMap
	midi   *MIDIInput

	transport   *localTransport
	sampleIndex int64
	scratch     [][]float64
}

const (
	sampleRate = 48000
	bufferSize = 256
)

// NewHost opens the default output device with the given channel count.
func NewHost(box *triggerbox.TriggerBox, tempo triggerbox.TempoMap, midi *MIDIInput, channels int) (*Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	h := &Host{
		box:       box,
		tempo:     tempo,
		midi:      midi,
		transport: &localTransport{},
		scratch:   make([][]float64, channels),
	}
	for i := range h.scratch {
		h.scratch[i] = make([]float64, bufferSize)
	}
	stream, err := portaudio.OpenDefaultStream(0, channels, sampleRate, bufferSize, h.process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	h.stream = stream
	return h, nil
}

func (h *Host) Start() error { return h.stream.Start() }

func (h *Host) Stop() error {
	err := h.stream.Close()
	portaudio.Terminate()
	return err
}

// process is the portaudio callback: it drains pending MIDI, runs one block
// of the box's realtime path, and converts the internal float64 scratch
// buffers into the float32 frames portaudio expects.
func (h *Host) process(out [][]float32) {
	nframes := len(out[0])
	for _, ch := range h.scratch {
		for i := range ch {
			ch[i] = 0
		}
	}

	events := h.midi.Drain(nframes)
	h.box.Run(h.transport, h.tempo, h.sampleIndex, nframes, events, h.scratch)

	for ch := range out {
		src := h.scratch[ch%len(h.scratch)]
		for i := 0; i < nframes; i++ {
			out[ch][i] = float32(src[i])
		}
	}
	h.sampleIndex += int64(nframes)
}
