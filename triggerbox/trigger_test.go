package triggerbox

import "testing"

func newTestBox() *TriggerBox {
	return NewTriggerBox(DataAudio, 1)
}

func bindRegion(t *testing.T, box *TriggerBox, slot int, length int64) *fakeRegion {
	t.Helper()
	r := newFakeRegion("region", length, 1)
	if err := box.SetRegion(slot, r); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestBangFromStoppedQueuesExplicitLaunch(t *testing.T) {
	box := newTestBox()
	tr := box.Trigger(0)
	bindRegion(t, box, 0, 1000)

	tr.Bang()
	tr.processStateRequests()
	if want, got := Stopped, tr.State(); want != got {
		t.Fatalf("state only changes once the queue is drained by Run: want %v, got %v", want, got)
	}
	if want, got := uint32(0), tr.bangCount.Load(); want != got {
		t.Errorf("bang counter not drained: %v", got)
	}
	if head, ok := box.explicitQueue.Peek(); !ok || head.index != 0 {
		t.Fatalf("want slot 0 queued for explicit launch, got %v, %v", head, ok)
	}
}

func TestGateUnbangWhileRunning(t *testing.T) {
	box := newTestBox()
	tr := box.Trigger(0)
	bindRegion(t, box, 0, 1000)
	tr.SetLaunchStyle(Gate)
	tr.state = Running

	tr.Unbang()
	tr.processStateRequests()
	if want, got := WaitingToStop, tr.State(); want != got {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestToggleIgnoresUnbang(t *testing.T) {
	box := newTestBox()
	tr := box.Trigger(0)
	bindRegion(t, box, 0, 1000)
	tr.SetLaunchStyle(Toggle)
	tr.state = Running

	tr.Unbang()
	tr.processStateRequests()
	if want, got := Running, tr.State(); want != got {
		t.Fatalf("toggle should ignore unbang: want %v, got %v", want, got)
	}
}

func TestBangRunningOneShotWaitsForRetrigger(t *testing.T) {
	box := newTestBox()
	tr := box.Trigger(0)
	bindRegion(t, box, 0, 1000)
	tr.SetLaunchStyle(OneShot)
	tr.state = Running

	tr.Bang()
	tr.processStateRequests()
	if want, got := WaitingForRetrigger, tr.State(); want != got {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestMaybeComputeNextTransitionUnboundSlotIsRunNone(t *testing.T) {
	box := newTestBox()
	tr := box.Trigger(0)
	tr.state = WaitingToStart // no region bound

	tempo := ConstantTempoMap{BPM: 120, SampleRate: 48000}
	run := tr.maybeComputeNextTransition(0, NewBeats(4), tempo)
	if run != RunNone {
		t.Fatalf("unbound slot should never produce RunNone != %v, got %v", RunNone, run)
	}
}

func TestMaybeComputeNextTransitionStartsOnGrid(t *testing.T) {
	box := newTestBox()
	tr := box.Trigger(0)
	bindRegion(t, box, 0, 1_000_000)
	tr.SetQuantization(BBTOffset{Beats: 1})
	tr.state = WaitingToStart

	tempo := ConstantTempoMap{BPM: 120, SampleRate: 48000}
	grid := BBTOffset{Beats: 1}.AsBeats()

	// Block before the grid point: no transition yet.
	run := tr.maybeComputeNextTransition(0, grid-1, tempo)
	if run != RunNone {
		t.Fatalf("want RunNone before the grid point, got %v", run)
	}
	if got := tr.State(); got != WaitingToStart {
		t.Fatalf("state should not have changed, got %v", got)
	}

	// Block straddling the grid point: starts.
	run = tr.maybeComputeNextTransition(grid-1, grid+10, tempo)
	if run != RunStart {
		t.Fatalf("want RunStart at the grid point, got %v", run)
	}
	if got := tr.State(); got != Running {
		t.Fatalf("want Running after start, got %v", got)
	}
	if want, got := tempo.SamplesAt(grid), tr.bangSamples; want != got {
		t.Errorf("want bangSamples %v, got %v", want, got)
	}
}

func TestRetriggerAppliesLegatoOffsetOnce(t *testing.T) {
	box := newTestBox()
	tr := box.Trigger(0)
	bindRegion(t, box, 0, 1000)
	tr.legatoOffset = 500

	tr.retrigger()
	if want, got := int64(500), tr.readIndex; want != got {
		t.Fatalf("want read index %v, got %v", want, got)
	}
	if tr.legatoOffset != 0 {
		t.Fatalf("legato offset should be cleared after one use, got %v", tr.legatoOffset)
	}

	tr.retrigger()
	if want, got := int64(0), tr.readIndex; want != got {
		t.Fatalf("second retrigger should start from the clip's top: want %v, got %v", want, got)
	}
}

func TestSetUsableLengthRepeatQuantizesToGridOnceTempoMapKnown(t *testing.T) {
	box := newTestBox()
	bindRegion(t, box, 0, 1_000_000)
	tr := box.Trigger(0)

	box.tempoMap.Store(ConstantTempoMap{BPM: 120, SampleRate: 48000})

	tr.SetLaunchStyle(Repeat)
	if err := tr.SetQuantization(BBTOffset{Beats: 1}); err != nil {
		t.Fatal(err)
	}

	if want, got := int64(24000), tr.clip.UsableLength; want != got {
		t.Fatalf("want usable length snapped to one beat at 120bpm/48khz (24000 samples), got %v", got)
	}
}
