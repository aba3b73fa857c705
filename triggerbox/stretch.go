package triggerbox

import (
	"math"
	"time"
)

// Stretcher is the offline time-stretch engine AudioClip.SetLength drives.
// It is an external collaborator (spec §6): study the whole input once,
// then process it, matching the two-pass contract real phase-vocoder
// libraries (e.g. Rubber Band) expose. None of the retrieved example
// repos vendor a stretch library, so this package carries a small
// overlap-add implementation of its own -- see DESIGN.md for why no
// third-party dependency could serve this concern.
type Stretcher interface {
	SetTimeRatio(ratio float64)
	SetMaxProcessSize(n int)
	SetExpectedInputDuration(n int64)
	Study(block []float64, isFinal bool)
	Process(block []float64, isFinal bool)
	// Available reports how many stretched samples are ready to retrieve.
	// A negative value means the engine is finished and will produce no
	// more output.
	Available() int
	Retrieve(dst []float64) int
}

const stretchMaxProcessSize = 16384

// PhaseVocoderStretcher is a minimal offline, fixed-pitch time stretcher
// using windowed overlap-add: Hann-windowed input frames are placed at
// positions scaled by the time ratio and summed. Despite the name, it does
// no spectral (FFT) or phase processing. It satisfies Stretcher and is the
// default engine AudioClip uses when no other is supplied.
type PhaseVocoderStretcher struct {
	ratio     float64
	maxBlock  int
	frameSize int
	hopIn     int
	hopOut    int

	window []float64

	studyBuf  []float64
	input     []float64
	output    []float64
	outReady  int
	outCursor int
	done      bool
}

func NewPhaseVocoderStretcher() *PhaseVocoderStretcher {
	const frame = 2048
	return &PhaseVocoderStretcher{
		ratio:     1,
		frameSize: frame,
		hopIn:     frame / 4,
		hopOut:    frame / 4,
		window:    hannWindow(frame),
	}
}

func (s *PhaseVocoderStretcher) SetTimeRatio(ratio float64) {
	s.ratio = ratio
	s.hopOut = int(math.Round(float64(s.hopIn) * ratio))
	if s.hopOut < 1 {
		s.hopOut = 1
	}
}

func (s *PhaseVocoderStretcher) SetMaxProcessSize(n int) { s.maxBlock = n }

func (s *PhaseVocoderStretcher) SetExpectedInputDuration(n int64) {
	s.input = make([]float64, 0, n)
}

// Study accumulates the input; this implementation only needs a single
// pass, but it keeps the two-call protocol so it is interchangeable with
// engines (like a real phase vocoder) that analyze transients in Study
// before the Process pass commits to output.
func (s *PhaseVocoderStretcher) Study(block []float64, isFinal bool) {
	s.studyBuf = append(s.studyBuf, block...)
}

func (s *PhaseVocoderStretcher) Process(block []float64, isFinal bool) {
	s.input = append(s.input, block...)
	if !isFinal {
		return
	}
	s.render()
}

func (s *PhaseVocoderStretcher) render() {
	n := len(s.input)
	if n == 0 {
		s.done = true
		return
	}
	outLen := int(math.Ceil(float64(n)*s.ratio)) + s.frameSize
	out := make([]float64, outLen)
	weight := make([]float64, outLen)

	for pos := 0; pos+s.frameSize <= n || pos == 0; pos += s.hopIn {
		end := pos + s.frameSize
		if end > n {
			end = n
		}
		frame := make([]float64, s.frameSize)
		copy(frame, s.input[pos:end])
		for i := range frame {
			frame[i] *= s.window[i]
		}
		outPos := int(math.Round(float64(pos) * s.ratio))
		for i, v := range frame {
			if outPos+i >= outLen {
				break
			}
			out[outPos+i] += v
			weight[outPos+i] += s.window[i]
		}
		if end >= n {
			break
		}
	}
	for i := range out {
		if weight[i] > 1e-9 {
			out[i] /= weight[i]
		}
	}
	s.output = out
	s.outReady = len(out)
	s.done = true
}

// Available follows the protocol in spec §4.C: positive means samples are
// ready, 0 means not yet (in this synchronous implementation that is only
// before the final Process call, since render() runs eagerly inside it),
// negative means finished.
func (s *PhaseVocoderStretcher) Available() int {
	if s.outCursor >= s.outReady {
		if s.done {
			return -1
		}
		return 0
	}
	return s.outReady - s.outCursor
}

func (s *PhaseVocoderStretcher) Retrieve(dst []float64) int {
	n := copy(dst, s.output[s.outCursor:s.outReady])
	s.outCursor += n
	return n
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// drainStretcher pulls every available sample out of a Stretcher into dst,
// following the final-drain loop from spec §4.C: poll Available(), sleep
// briefly while it's zero, stop once it goes negative.
func drainStretcher(s Stretcher, dst []float64) []float64 {
	for {
		avail := s.Available()
		if avail < 0 {
			return dst
		}
		if avail == 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		buf := make([]float64, avail)
		n := s.Retrieve(buf)
		dst = append(dst, buf[:n]...)
	}
}
