package triggerbox

import "testing"

type fakeTransport struct {
	rolling bool
	started bool
}

func (f *fakeTransport) Rolling() bool { return f.rolling }
func (f *fakeTransport) Start()        { f.started = true; f.rolling = true }

func TestRunStartsQueuedTriggerAndExhaustsClip(t *testing.T) {
	box := newTestBox()
	region := bindRegion(t, box, 0, 1000)
	at := box.Trigger(0)
	at.Bang()

	transport := &fakeTransport{}
	tempo := ConstantTempoMap{BPM: 120, SampleRate: 48000}
	out := [][]float64{make([]float64, 48000)}

	box.Run(transport, tempo, 0, 48000, nil, out)

	if !transport.started {
		t.Errorf("transport should have been started")
	}
	if want, got := region.samples[0][0], out[0][0]; want != got {
		t.Errorf("want first sample %v, got %v", want, got)
	}
	if want, got := region.samples[0][999], out[0][999]; want != got {
		t.Errorf("want last clip sample %v at 999, got %v", want, got)
	}
	if out[0][1000] != 0 {
		t.Errorf("want zero-fill past the clip's end, got %v", out[0][1000])
	}
	if box.currentlyPlaying != nil {
		t.Errorf("a one-shot with nothing queued should leave the box idle, got %v", box.currentlyPlaying)
	}
}

func TestRunLeavesRunningUntouchedWithinBlock(t *testing.T) {
	box := newTestBox()
	bindRegion(t, box, 0, 1_000_000)
	at := box.Trigger(0)
	at.state = Running
	box.currentlyPlaying = at

	transport := &fakeTransport{rolling: true}
	tempo := ConstantTempoMap{BPM: 120, SampleRate: 48000}
	out := [][]float64{make([]float64, 64)}

	box.Run(transport, tempo, 0, 64, nil, out)
	if want, got := Running, at.State(); want != got {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestRunStopAllTakesEffectOverTwoBlocks(t *testing.T) {
	box := newTestBox()
	bindRegion(t, box, 0, 1_000_000)
	at := box.Trigger(0)
	at.state = Running
	box.currentlyPlaying = at
	box.RequestStopAll()

	transport := &fakeTransport{rolling: true}
	tempo := ConstantTempoMap{BPM: 120, SampleRate: 48000}

	// First block: the stop is registered but the trigger is already
	// past its own processStateRequests for this block, so it keeps
	// running.
	out1 := [][]float64{make([]float64, 64)}
	box.Run(transport, tempo, 0, 64, nil, out1)
	if want, got := Running, at.State(); want != got {
		t.Fatalf("want %v after first block, got %v", want, got)
	}
	if box.explicitQueue.ReadSpace() != 0 || box.implicitQueue.ReadSpace() != 0 {
		t.Fatalf("stop_all should have cleared both queues")
	}

	// Second block: processStateRequests drains the pending stop and the
	// trigger ends, with enough samples in the block to clear the
	// minimum tail length.
	out2 := [][]float64{make([]float64, 10000)}
	box.Run(transport, tempo, 64, 10000, nil, out2)
	if box.currentlyPlaying != nil {
		t.Fatalf("want the box idle after the stop completes, got %v", box.currentlyPlaying)
	}
}

func TestRunIgnoresUnmappedMIDINotes(t *testing.T) {
	box := newTestBox()
	bindRegion(t, box, 0, 1000)

	transport := &fakeTransport{rolling: true}
	tempo := ConstantTempoMap{BPM: 120, SampleRate: 48000}
	out := [][]float64{make([]float64, 64)}
	midi := []MIDIEvent{{Kind: NoteOn, Note: 200}}

	box.Run(transport, tempo, 0, 64, midi, out)
	if box.currentlyPlaying != nil {
		t.Fatalf("an unmapped note should not start anything, got %v", box.currentlyPlaying)
	}
}

func TestRunMIDINoteOnBangsMappedSlot(t *testing.T) {
	box := newTestBox()
	bindRegion(t, box, 0, 1000)

	transport := &fakeTransport{rolling: true}
	tempo := ConstantTempoMap{BPM: 120, SampleRate: 48000}
	out := [][]float64{make([]float64, 64)}
	midi := []MIDIEvent{{Kind: NoteOn, Note: 60}} // maps to slot 0

	box.Run(transport, tempo, 0, 64, midi, out)
	if box.currentlyPlaying == nil || box.currentlyPlaying.index != 0 {
		t.Fatalf("want slot 0 to have started, got %v", box.currentlyPlaying)
	}
}

func TestCanSupportIOConfiguration(t *testing.T) {
	box := newTestBox()
	if _, ok := box.CanSupportIOConfiguration(0, 2); ok {
		t.Errorf("want failure with no MIDI input")
	}
	n, ok := box.CanSupportIOConfiguration(1, 1)
	if !ok || n != 2 {
		t.Errorf("want audio output widened to 2 channels, got %v, %v", n, ok)
	}
}
