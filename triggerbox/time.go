package triggerbox

import "math"

// PPQN mirrors the resolution used to express a Beats value as an integer
// tick count, matching the sequencer's pulses-per-quarter-note convention.
const PPQN = 960

// Beats is a musical time position, expressed as an exact tick count so
// comparisons and snapping are deterministic (no floating point beat
// arithmetic near boundaries).
type Beats int64

// NewBeats builds a Beats value from a quarter-note count.
func NewBeats(quarters float64) Beats {
	return Beats(math.Round(quarters * PPQN))
}

func (b Beats) Quarters() float64 { return float64(b) / PPQN }

// BBTOffset is a musical offset expressed as bars/beats/ticks, matching
// the persisted quantization format. Bars greater than zero are accepted
// by the type and recorded by Trigger.SetQuantization, which reports them
// with ErrUnsupportedQuantization; such a grid is treated as no
// quantization because multi-bar quantization grids are out of scope.
type BBTOffset struct {
	Bars  int
	Beats int
	Ticks int
}

// AsBeats converts the offset to a Beats value, ignoring Bars (the caller is
// responsible for rejecting Bars != 0 before this is used as a grid step).
func (o BBTOffset) AsBeats() Beats {
	return Beats(o.Beats*PPQN + o.Ticks)
}

func (o BBTOffset) IsZero() bool {
	return o.Bars == 0 && o.Beats == 0 && o.Ticks == 0
}

// TempoMap converts between musical time and sample time. It is an
// external collaborator (see spec §6): the engine never constructs one on
// its own, and a TempoMap handed to TriggerBox.Run must stay stable for
// the duration of that call.
type TempoMap interface {
	BeatsAt(sample int64) Beats
	SamplesAt(beats Beats) int64
}

// SnapToGrid returns the smallest point on the given grid that is strictly
// greater than b. A zero-length grid (no quantization configured) snaps to
// b itself. A bang landing exactly on a grid line still waits for the next
// one: quantized launches and stops fire on the boundary ahead, never the
// boundary they happened to land on.
func SnapToGrid(b Beats, grid Beats) Beats {
	if grid <= 0 {
		return b
	}
	return (b/grid + 1) * grid
}

// ConstantTempoMap is a fixed-BPM TempoMap, useful for tests and as the
// default map in the command-line harness. Real hosts (DAW transport,
// tempo automation) provide their own implementation.
type ConstantTempoMap struct {
	BPM        float64
	SampleRate float64
}

func (m ConstantTempoMap) samplesPerBeat() float64 {
	return m.SampleRate * 60.0 / m.BPM
}

func (m ConstantTempoMap) BeatsAt(sample int64) Beats {
	quarters := float64(sample) / m.samplesPerBeat()
	return NewBeats(quarters)
}

func (m ConstantTempoMap) SamplesAt(beats Beats) int64 {
	return int64(math.Round(beats.Quarters() * m.samplesPerBeat()))
}
