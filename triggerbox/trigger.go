package triggerbox

import (
	"sync/atomic"
)

const (
	propLegato          = "legato"
	propLaunchStyle     = "launch-style"
	propFollowAction0   = "follow-action-0"
	propFollowAction1   = "follow-action-1"
	propFollowActionPct = "follow-action-probability"
	propQuantization    = "quantization"
	propName            = "name"
)

// regionBinding is the concrete type stored in Trigger.region's
// atomic.Value, since atomic.Value requires a consistent concrete type
// across Store calls and Region is an interface.
type regionBinding struct {
	region Region
}

// Trigger is a numbered launch slot. AudioTrigger is the only concrete
// clip type implemented; a MIDI clip trigger is declared in the data
// model but out of scope (spec §1 Non-goals).
type Trigger struct {
	box   *TriggerBox
	index int

	// state is mutated only by the audio thread, after construction, per
	// the concurrency model in spec §5.
	state State

	requestedState atomic.Int32 // holds a State, None when idle
	bangCount      atomic.Uint32
	unbangCount    atomic.Uint32

	region atomic.Value // *regionBinding

	props *Props

	bangSamples int64
	bangBeats   Beats

	// ops is the clip-type-specific behavior (retrigger, rendering, usable
	// length). Trigger alone is never constructed; NewAudioTrigger builds
	// one and points ops back at it, giving Go's lack of virtual-call-
	// through-embedding a place to dispatch through. See spec §9's note
	// on modeling the Trigger/AudioTrigger hierarchy as a tagged variant.
	ops clipOps

	UI any
}

// clipOps is the variant payload for a Trigger. AudioTrigger is the only
// implementation; a MIDI clip player would be a second one.
type clipOps interface {
	retrigger()
	hasRegion() bool
	setUsableLength()
	currentPos() int64
}

func newTrigger(box *TriggerBox, index int) *Trigger {
	t := &Trigger{box: box, index: index, state: Stopped}
	t.requestedState.Store(int32(None))
	t.region.Store(&regionBinding{})
	t.props = NewProps()
	t.props.MustRegister(propLegato, setBool, false)
	t.props.MustRegister(propLaunchStyle, setLaunchStyle, OneShot)
	t.props.MustRegister(propFollowAction0, setFollowAction, FollowStop)
	t.props.MustRegister(propFollowAction1, setFollowAction, FollowStop)
	t.props.MustRegister(propFollowActionPct, setIntRange(0, 100), 100)
	t.props.MustRegister(propQuantization, setQuantization, BBTOffset{})
	t.props.MustRegister(propName, setString, "")
	return t
}

// CurrentPos returns the clip-type-specific playback cursor, used by
// legato handover to seed the incoming trigger's starting position.
func (t *Trigger) CurrentPos() int64 { return t.ops.currentPos() }

func (t *Trigger) Index() int { return t.index }
func (t *Trigger) State() State { return t.state }
func (t *Trigger) Active() bool { return t.state.Active() }

func (t *Trigger) Region() Region {
	return t.region.Load().(*regionBinding).region
}

func (t *Trigger) setRegionInternal(r Region) {
	t.region.Store(&regionBinding{region: r})
}

func (t *Trigger) Name() string {
	v, _ := t.props.Get(propName)
	return v.(string)
}

func (t *Trigger) SetName(name string) { _ = t.props.Set(propName, name) }

func (t *Trigger) Legato() bool {
	v, _ := t.props.Get(propLegato)
	return v.(bool)
}

func (t *Trigger) SetLegato(yn bool) { _ = t.props.Set(propLegato, yn) }

func (t *Trigger) LaunchStyle() LaunchStyle {
	v, _ := t.props.Get(propLaunchStyle)
	return v.(LaunchStyle)
}

func (t *Trigger) SetLaunchStyle(l LaunchStyle) {
	_ = t.props.Set(propLaunchStyle, l)
	t.ops.setUsableLength()
}

// FollowAction returns the pair of follow-action tags and the probability
// (0-100) that selects index 0 (<= probability) over index 1.
func (t *Trigger) FollowAction() (a0, a1 FollowAction, probability int) {
	v0, _ := t.props.Get(propFollowAction0)
	v1, _ := t.props.Get(propFollowAction1)
	p, _ := t.props.Get(propFollowActionPct)
	return v0.(FollowAction), v1.(FollowAction), p.(int)
}

func (t *Trigger) SetFollowAction(index int, f FollowAction) {
	key := propFollowAction0
	if index == 1 {
		key = propFollowAction1
	}
	_ = t.props.Set(key, f)
}

func (t *Trigger) SetFollowActionProbability(p int) { _ = t.props.Set(propFollowActionPct, p) }

// Quantization returns the configured musical grid. Bars != 0 is recorded
// as-is (SetQuantization records the warning), but treated as "no
// quantization" by maybe_compute_next_transition, per ErrUnsupportedQuantization.
func (t *Trigger) Quantization() BBTOffset {
	v, _ := t.props.Get(propQuantization)
	return v.(BBTOffset)
}

// SetQuantization records q and returns ErrUnsupportedQuantization as a
// warning (not a hard failure) when q.Bars != 0.
func (t *Trigger) SetQuantization(q BBTOffset) error {
	_ = t.props.Set(propQuantization, q)
	t.ops.setUsableLength()
	if q.Bars != 0 {
		return ErrUnsupportedQuantization
	}
	return nil
}

func (t *Trigger) quantizationGrid() Beats {
	q := t.Quantization()
	if q.Bars != 0 {
		return 0
	}
	return BBTOffset{Beats: q.Beats, Ticks: q.Ticks}.AsBeats()
}

// Bang is called by the control thread on a note-on / mouse-down. It only
// increments a counter; processStateRequests folds it into the state
// machine on the audio thread.
func (t *Trigger) Bang() { t.bangCount.Add(1) }

// Unbang is called by the control thread on a note-off / mouse-up.
func (t *Trigger) Unbang() { t.unbangCount.Add(1) }

// RequestState asks the audio thread to move to s no later than the next
// block. Used for control-thread stop()/request_state().
func (t *Trigger) RequestState(s State) { t.requestedState.Store(int32(s)) }

// Stop requests a transition to Stopped. next is accepted for API parity
// with the source design's stop(int next) but is otherwise unused: this
// package always lets follow-action selection pick what plays next.
func (t *Trigger) Stop(next int) { t.RequestState(Stopped) }

// startup transitions a freshly-popped-from-queue trigger into
// WaitingToStart so the next call to maybe_compute_next_transition will
// schedule it against the quantization grid.
func (t *Trigger) startup() {
	t.state = WaitingToStart
}

// jumpStart is the legato half of an immediate handover: start running
// right now, bypassing quantization, from the read position retrigger
// derives from any pending legato offset.
func (t *Trigger) jumpStart() {
	t.ops.retrigger()
	t.state = Running
}

// jumpStop is the legato half of an immediate handover on the trigger
// being superseded. The source resets the read cursor here via retrigger,
// which is harmless because the trigger is about to go unused; this
// package preserves that behavior. See spec §9 design notes.
func (t *Trigger) jumpStop() {
	t.ops.retrigger()
	t.state = Stopped
}

// processStateRequests folds pending bangs, unbangs, and an explicit state
// request into the state machine. Called once per trigger per block,
// before any audio is dispatched, per spec §4.D.
func (t *Trigger) processStateRequests() {
	if newState := State(t.requestedState.Swap(int32(None))); newState != None {
		if newState == Stopped && t.state != WaitingToStop {
			t.state = WaitingToStop
		} else if newState == Running {
			t.box.queueExplicit(t)
		}
	}

	style := t.LaunchStyle()
	for t.bangCount.Load() > 0 {
		t.bangCount.Add(^uint32(0)) // fetch_sub(1)
		switch {
		case t.state == Running && style == OneShot:
			t.state = WaitingForRetrigger
		case t.state == Running && (style == Gate || style == Toggle || style == Repeat):
			t.state = WaitingToStop
			t.box.clearImplicit()
		case t.state == Stopped:
			t.box.queueExplicit(t)
		}
	}

	for t.unbangCount.Load() > 0 {
		t.unbangCount.Add(^uint32(0))
		switch style {
		case Gate, Repeat:
			switch {
			case t.state == Running:
				t.state = WaitingToStop
			case t.state == WaitingToStart || t.state == WaitingForRetrigger:
				t.state = Stopped
			}
		}
	}
}

// maybeComputeNextTransition computes whether a quantized state change
// falls inside [startBeats, endBeats), per spec §4.D.
func (t *Trigger) maybeComputeNextTransition(startBeats, endBeats Beats, tempoMap TempoMap) RunType {
	switch {
	case t.state == Stopped:
		return RunNone
	case !t.ops.hasRegion():
		// UnboundSlot: a slot without a region never produces audio,
		// regardless of how far along its state machine is.
		return RunNone
	case t.state == Running || t.state == Stopping:
		return RunAll
	}

	grid := t.quantizationGrid()
	evTime := SnapToGrid(startBeats, grid)
	if evTime >= startBeats && evTime < endBeats {
		t.bangBeats = evTime
		t.bangSamples = tempoMap.SamplesAt(evTime)
		switch t.state {
		case WaitingToStop:
			t.state = Stopping
			return RunEnd
		case WaitingToStart:
			t.ops.retrigger()
			t.state = Running
			t.box.prepareNext(t.index)
			return RunStart
		case WaitingForRetrigger:
			t.ops.retrigger()
			t.state = Running
			t.box.prepareNext(t.index)
			return RunAll
		}
	}

	switch t.state {
	case WaitingForRetrigger, WaitingToStop:
		return RunAll
	default: // WaitingToStart
		return RunNone
	}
}
