package triggerbox

import "testing"

func TestConstantTempoMapRoundTrip(t *testing.T) {
	m := ConstantTempoMap{BPM: 120, SampleRate: 48000}
	// At 120 BPM / 48kHz, one quarter note is 24000 samples.
	if want, got := int64(24000), m.SamplesAt(NewBeats(1)); want != got {
		t.Errorf("want %v samples, got %v", want, got)
	}
	if want, got := NewBeats(1), m.BeatsAt(24000); want != got {
		t.Errorf("want %v beats, got %v", want, got)
	}
}

func TestSnapToGrid(t *testing.T) {
	grid := BBTOffset{Beats: 1}.AsBeats()
	cases := []struct {
		in, want Beats
	}{
		{0, grid},
		{1, grid},
		{grid, 2 * grid},
		{grid + 1, 2 * grid},
	}
	for _, c := range cases {
		if got := SnapToGrid(c.in, grid); got != c.want {
			t.Errorf("SnapToGrid(%v, %v) = %v, want %v", c.in, grid, got, c.want)
		}
	}
}

func TestSnapToGridNoQuantization(t *testing.T) {
	if got := SnapToGrid(1234, 0); got != 1234 {
		t.Errorf("want input unchanged when grid is zero, got %v", got)
	}
}
