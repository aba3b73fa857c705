package triggerbox

import "testing"

func TestStateRoundTripsThroughMarshalUnmarshal(t *testing.T) {
	box := newTestBox()
	region := newFakeRegion("kick", 1000, 1)
	if err := box.SetRegion(0, region); err != nil {
		t.Fatal(err)
	}
	tr := box.Trigger(0)
	tr.SetName("kick-loop")
	tr.SetLegato(true)
	tr.SetLaunchStyle(Gate)
	tr.SetFollowAction(0, FollowNextTrigger)
	tr.SetFollowAction(1, FollowStop)
	tr.SetFollowActionProbability(75)
	if err := tr.SetQuantization(BBTOffset{Beats: 2}); err != nil {
		t.Fatal(err)
	}
	tr.SetStart(10)

	data, err := box.Marshal()
	if err != nil {
		t.Fatal(err)
	}

	registry := NewRegionRegistry()
	registry.Put(region)

	box2 := newTestBox()
	if err := box2.Unmarshal(data, registry); err != nil {
		t.Fatal(err)
	}

	got := box2.Trigger(0)
	if want, have := "kick-loop", got.Name(); want != have {
		t.Errorf("want name %q, got %q", want, have)
	}
	if !got.Legato() {
		t.Errorf("want legato true")
	}
	if want, have := Gate, got.LaunchStyle(); want != have {
		t.Errorf("want launch style %v, got %v", want, have)
	}
	a0, a1, pct := got.FollowAction()
	if a0 != FollowNextTrigger || a1 != FollowStop || pct != 75 {
		t.Errorf("want (next, stop, 75), got (%v, %v, %v)", a0, a1, pct)
	}
	if want, have := (BBTOffset{Beats: 2}), got.Quantization(); want != have {
		t.Errorf("want quantization %v, got %v", want, have)
	}
	if got.Region() == nil || got.Region().ID() != "kick" {
		t.Errorf("want region \"kick\" resolved, got %v", got.Region())
	}
	if want, have := int64(10), got.startOffset; want != have {
		t.Errorf("want start offset %v, got %v", want, have)
	}
}

func TestLoadStateLeavesSlotUnboundWhenRegionMissing(t *testing.T) {
	box := newTestBox()
	state := box.State()
	state.Triggers = []TriggerState{{Index: 0, Name: "missing", Region: "does-not-exist"}}

	registry := NewRegionRegistry()
	if err := box.LoadState(state, registry); err != nil {
		t.Fatal(err)
	}
	if got := box.Trigger(0).Region(); got != nil {
		t.Errorf("want slot left unbound, got %v", got)
	}
	if want, have := "missing", box.Trigger(0).Name(); want != have {
		t.Errorf("want name applied despite unresolved region: want %q, got %q", want, have)
	}
}

func TestLoadStateGrowsTriggerSlots(t *testing.T) {
	box := newTestBox()
	state := TriggerBoxState{
		Triggers: []TriggerState{
			{Index: 9, Name: "extra"},
		},
	}
	if err := box.LoadState(state, nil); err != nil {
		t.Fatal(err)
	}
	if box.NumTriggers() < 10 {
		t.Fatalf("want at least 10 slots after loading index 9, got %v", box.NumTriggers())
	}
	if want, have := "extra", box.Trigger(9).Name(); want != have {
		t.Errorf("want name %q, got %q", want, have)
	}

	snapshot := box.triggersSnapshot()
	if len(snapshot) < 10 {
		t.Fatalf("want the realtime snapshot rebuilt to at least 10 slots, got %v", len(snapshot))
	}
	if want, have := "extra", snapshot[9].Name(); want != have {
		t.Errorf("want slot 9 visible to the realtime path, got %q", have)
	}
}
