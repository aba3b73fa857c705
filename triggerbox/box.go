package triggerbox

import (
	"log"
	"sync"
	"sync/atomic"
)

const (
	defaultTriggerCount = 8
	explicitQueueCap    = 64
	implicitQueueCap    = 64
	reservedQueueCap    = 1024
)

// Transport is the host's global play state (spec §6 "host processor
// contract"). Triggers require it to be rolling.
type Transport interface {
	Rolling() bool
	Start()
}

// MIDIKind distinguishes note-on from note-off in the per-block MIDI
// input buffer TriggerBox.Run consumes.
type MIDIKind int

const (
	NoteOn MIDIKind = iota
	NoteOff
)

// MIDIEvent is the unit TriggerBox.Run reads from its MIDI input buffer.
// Non-note events are ignored (spec §6 MIDI surface); this package never
// constructs anything but note on/off, so there is nothing else to model.
type MIDIEvent struct {
	Kind     MIDIKind
	Note     uint8
	Velocity uint8
}

// TriggerBox owns an ordered collection of Triggers and the queues that
// arbitrate which one plays next. See spec §3 for the full invariant
// list; §5 for the concurrency contract this type implements.
type TriggerBox struct {
	mu       sync.RWMutex
	triggers []*AudioTrigger

	// snapshot holds the current []*Trigger view triggersSnapshot hands to
	// the realtime path. It is rebuilt only on structural changes
	// (AddTrigger, DropTriggers, LoadState growing the array, construction),
	// so Run and follow-action
	// selection can read it with a single atomic load: no lock, no
	// allocation, matching the hot-path contract in spec §5.
	snapshot atomic.Value // []*Trigger

	// tempoMap caches the TempoMap most recently handed to Run. The box
	// never constructs one itself (spec §6 treats it as an external
	// collaborator); AudioTrigger.setUsableLength reads it here to compute
	// a Repeat trigger's beat-quantized usable length from a control-thread
	// property change, long after the Run call that supplied it returned.
	tempoMap atomic.Value // TempoMap

	explicitQueue *RingQueue[*Trigger]
	implicitQueue *RingQueue[*Trigger]

	// bangQueue/unbangQueue are declared for parity with the source
	// design but unused: per-trigger atomic counters (Trigger.bangCount,
	// Trigger.unbangCount) carry that signal instead. See spec §4.A.
	bangQueue   *RingQueue[*Trigger]
	unbangQueue *RingQueue[*Trigger]

	currentlyPlaying *AudioTrigger
	stopAll          atomic.Bool

	midiTriggerMap map[uint8]int
	dataType       DataType

	pcg *PRNG
}

// NewTriggerBox creates a box with the default slot count (8) and the
// default MIDI mapping (notes 60-69 to slots 0-9).
func NewTriggerBox(dataType DataType, seed uint64) *TriggerBox {
	box := &TriggerBox{
		explicitQueue: NewRingQueue[*Trigger](explicitQueueCap),
		implicitQueue: NewRingQueue[*Trigger](implicitQueueCap),
		bangQueue:     NewRingQueue[*Trigger](reservedQueueCap),
		unbangQueue:   NewRingQueue[*Trigger](reservedQueueCap),
		dataType:      dataType,
		pcg:           NewPRNG(seed),
	}
	box.midiTriggerMap = defaultMIDIMap()
	for i := 0; i < defaultTriggerCount; i++ {
		box.triggers = append(box.triggers, NewAudioTrigger(box, i))
	}
	box.rebuildSnapshot()
	return box
}

func defaultMIDIMap() map[uint8]int {
	m := make(map[uint8]int, 10)
	for i := 0; i < 10; i++ {
		m[uint8(60+i)] = i
	}
	return m
}

// NumTriggers returns the current slot count.
func (box *TriggerBox) NumTriggers() int {
	box.mu.RLock()
	defer box.mu.RUnlock()
	return len(box.triggers)
}

// Trigger returns the slot at index n, or nil if n is out of range
// (ErrInvalidSlot).
func (box *TriggerBox) Trigger(n int) *AudioTrigger {
	box.mu.RLock()
	defer box.mu.RUnlock()
	if n < 0 || n >= len(box.triggers) {
		return nil
	}
	return box.triggers[n]
}

// AddTrigger appends a new, unbound slot and returns its index. This is a
// control-thread, structural operation: callers must only use it between
// playback sessions (spec §5).
func (box *TriggerBox) AddTrigger() int {
	box.mu.Lock()
	idx := len(box.triggers)
	box.triggers = append(box.triggers, NewAudioTrigger(box, idx))
	box.mu.Unlock()
	box.rebuildSnapshot()
	return idx
}

// DropTriggers truncates the slot array back to n slots.
func (box *TriggerBox) DropTriggers(n int) {
	box.mu.Lock()
	if n < len(box.triggers) {
		box.triggers = box.triggers[:n]
	}
	box.mu.Unlock()
	box.rebuildSnapshot()
}

// rebuildSnapshot recomputes the cached []*Trigger view after a structural
// change. Control-thread only; never called from Run.
func (box *TriggerBox) rebuildSnapshot() {
	box.mu.RLock()
	out := make([]*Trigger, len(box.triggers))
	for i, t := range box.triggers {
		out[i] = t.Trigger
	}
	box.mu.RUnlock()
	box.snapshot.Store(out)
}

// RequestStopAll marks every trigger for a stop at the next block
// boundary (spec §3 stop_all). Level-triggered, one-shot: TriggerBox.Run
// clears the flag once it has acted on it.
func (box *TriggerBox) RequestStopAll() { box.stopAll.Store(true) }

// SetRegion binds r to the trigger at index. Only valid when the box's
// DataType is Audio (ErrUnsupportedClipType otherwise).
func (box *TriggerBox) SetRegion(index int, r Region) error {
	if box.dataType != DataAudio {
		return ErrUnsupportedClipType
	}
	t := box.Trigger(index)
	if t == nil {
		return ErrInvalidSlot
	}
	return t.SetRegion(r)
}

// triggersSnapshot returns the base Trigger view of every slot, used by
// Run and follow-action selection. It is a single atomic load against the
// cache rebuildSnapshot maintains: no lock, no allocation, safe to call
// every block and again each time a trigger launches mid-block.
func (box *TriggerBox) triggersSnapshot() []*Trigger {
	v, _ := box.snapshot.Load().([]*Trigger)
	return v
}

// TempoMap returns the TempoMap most recently passed to Run, or nil before
// the first block.
func (box *TriggerBox) TempoMap() TempoMap {
	v, _ := box.tempoMap.Load().(TempoMap)
	return v
}

// queueExplicit pushes t onto the explicit launch queue, dropping (and
// logging) on QueueFull per spec §7.
func (box *TriggerBox) queueExplicit(t *Trigger) {
	if n := box.explicitQueue.Write([]*Trigger{t}); n == 0 {
		log.Printf("triggerbox: explicit queue full, dropping launch request for slot %d", t.index)
	}
}

// queueImplicit pushes t onto the implicit (follow-action) queue, but
// only if the explicit queue was empty at write time, per invariant I5.
func (box *TriggerBox) queueImplicit(t *Trigger) {
	if box.explicitQueue.ReadSpace() > 0 {
		return
	}
	if n := box.implicitQueue.Write([]*Trigger{t}); n == 0 {
		log.Printf("triggerbox: implicit queue full, dropping follow-action for slot %d", t.index)
	}
}

func (box *TriggerBox) clearImplicit() { box.implicitQueue.Reset() }

// popNext pops the next trigger to play: explicit queue first, then
// implicit, per spec §4.E step 3 / step 8.
func (box *TriggerBox) popNext() *AudioTrigger {
	if t, ok := box.explicitQueue.Pop(); ok {
		return box.triggers[t.index]
	}
	if t, ok := box.implicitQueue.Pop(); ok {
		return box.triggers[t.index]
	}
	return nil
}

// Run processes one realtime audio block spanning
// [startSample, startSample+nframes). midi is this block's note on/off
// events; out holds the destination channels, each nframes long and
// pre-zeroed by the caller's own output buffer management (this package
// only overwrites or accumulates, per AudioTrigger.Run's contract).
func (box *TriggerBox) Run(transport Transport, tempoMap TempoMap, startSample int64, nframes int, midi []MIDIEvent, out [][]float64) {
	if startSample < 0 {
		return
	}

	box.tempoMap.Store(tempoMap)

	triggers := box.triggersSnapshot()

	for _, ev := range midi {
		slot, ok := box.midiTriggerMap[ev.Note]
		if !ok || slot < 0 || slot >= len(triggers) {
			continue
		}
		t := triggers[slot]
		if ev.Kind == NoteOn {
			t.Bang()
		} else {
			t.Unbang()
		}
	}

	for _, t := range triggers {
		t.processStateRequests()
	}

	if box.currentlyPlaying == nil {
		next := box.popNext()
		if next == nil {
			return
		}
		next.startup()
		box.currentlyPlaying = next
	}

	if !transport.Rolling() {
		transport.Start()
	}

	startBeats := tempoMap.BeatsAt(startSample)
	endBeats := tempoMap.BeatsAt(startSample + int64(nframes))

	if head, ok := box.explicitQueue.Peek(); ok && head != box.currentlyPlaying.Trigger && head.Legato() {
		box.explicitQueue.Pop()
		headAT := box.triggers[head.index]
		headAT.legatoOffset = box.currentlyPlaying.CurrentPos()
		headAT.jumpStart()
		box.currentlyPlaying.jumpStop()
		box.prepareNext(headAT.index)
		box.currentlyPlaying = headAT
	}

	if box.stopAll.Swap(false) {
		for _, t := range triggers {
			t.Stop(-1)
		}
		box.explicitQueue.Reset()
		box.implicitQueue.Reset()
	}

	firstWrite := true
	for box.currentlyPlaying != nil {
		cur := box.currentlyPlaying
		run := cur.maybeComputeNextTransition(startBeats, endBeats, tempoMap)
		if run == RunNone {
			return
		}

		var destOffset, triggerSamples int
		switch run {
		case RunEnd:
			destOffset = 0
			triggerSamples = nframes - int(cur.bangSamples-startSample)
		case RunStart:
			destOffset = int(cur.bangSamples - startSample)
			if destOffset < 0 {
				destOffset = 0
			}
			triggerSamples = nframes - destOffset
		case RunAll:
			destOffset = 0
			triggerSamples = nframes
		}
		if triggerSamples < 0 {
			triggerSamples = 0
		}

		cur.Run(out, triggerSamples, destOffset, firstWrite)
		firstWrite = false

		if cur.state == Stopped {
			next := box.popNext()
			if next != nil {
				if next.Legato() {
					next.legatoOffset = cur.CurrentPos()
				}
				next.startup()
				box.currentlyPlaying = next
				continue
			}
			box.currentlyPlaying = nil
			return
		}
		return
	}
}

// CanSupportIOConfiguration reports whether the host processor contract
// (spec §6) is satisfiable for the given channel counts: at least one
// MIDI input and audio output widened to at least two channels.
func (box *TriggerBox) CanSupportIOConfiguration(midiIn, audioOut int) (int, bool) {
	if midiIn < 1 {
		return 0, false
	}
	if audioOut < 2 {
		audioOut = 2
	}
	return audioOut, true
}
