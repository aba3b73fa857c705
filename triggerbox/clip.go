package triggerbox

import (
	"fmt"
	"math"
)

// AudioClip owns the decoded per-channel PCM for one AudioTrigger and
// performs the offline time-stretch described in spec §4.C. An
// AudioTrigger holds one in its clip field.
type AudioClip struct {
	Data         [][]float64
	DataLength   int64
	UsableLength int64

	stretcher func() Stretcher
}

// NewAudioClip builds an empty clip. newStretcher lets callers (tests,
// mainly) substitute a fake Stretcher; the zero value uses
// NewPhaseVocoderStretcher.
func NewAudioClip(newStretcher func() Stretcher) *AudioClip {
	if newStretcher == nil {
		newStretcher = func() Stretcher { return NewPhaseVocoderStretcher() }
	}
	return &AudioClip{stretcher: newStretcher}
}

// LoadData reads the full clip into per-channel arrays, per spec §4.C.
func (c *AudioClip) LoadData(region Region) error {
	n := region.LengthSamples()
	chans := region.NumChannels()
	if chans <= 0 {
		return fmt.Errorf("%w: region %s reports %d channels", ErrRegionLoadFailed, region.Name(), chans)
	}
	data := make([][]float64, chans)
	for ch := 0; ch < chans; ch++ {
		buf := make([]float64, n)
		read, err := region.Read(buf, 0, int(n), ch)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRegionLoadFailed, err)
		}
		if int64(read) != n {
			return fmt.Errorf("%w: region %s channel %d reported %d samples but only read %d",
				ErrRegionLoadFailed, region.Name(), ch, n, read)
		}
		data[ch] = buf
	}
	c.Data = data
	c.DataLength = n
	if c.UsableLength == 0 || c.UsableLength > c.DataLength {
		c.UsableLength = c.DataLength
	}
	return nil
}

// SetLength stretches the clip to newLen samples without changing pitch,
// following the protocol in spec §4.C: study pass, process pass in
// stretchMaxProcessSize blocks, then drain. A no-op when newLen already
// equals the current DataLength. The length the region had when loaded is
// not kept: after one stretch, a later call compares against and stretches
// the already-stretched data, not the original.
func (c *AudioClip) SetLength(newLen int64) error {
	if c.DataLength == 0 || newLen == c.DataLength {
		return nil
	}
	ratio := float64(newLen) / float64(c.DataLength)
	outCap := int64(math.Ceil(float64(c.DataLength)*ratio)) + 16

	stretched := make([][]float64, len(c.Data))
	for ch, channel := range c.Data {
		s := c.stretcher()
		s.SetTimeRatio(ratio)
		s.SetMaxProcessSize(stretchMaxProcessSize)
		s.SetExpectedInputDuration(c.DataLength)

		for pos := 0; pos < len(channel); pos += stretchMaxProcessSize {
			end := pos + stretchMaxProcessSize
			if end > len(channel) {
				end = len(channel)
			}
			s.Study(channel[pos:end], end == len(channel))
		}
		out := make([]float64, 0, outCap)
		for pos := 0; pos < len(channel); pos += stretchMaxProcessSize {
			end := pos + stretchMaxProcessSize
			if end > len(channel) {
				end = len(channel)
			}
			isFinal := end == len(channel)
			s.Process(channel[pos:end], isFinal)
			if avail := s.Available(); avail > 0 {
				buf := make([]float64, avail)
				n := s.Retrieve(buf)
				out = append(out, buf[:n]...)
			}
		}
		out = drainStretcher(s, out)
		stretched[ch] = out
	}

	c.Data = stretched
	c.DataLength = newLen
	if c.UsableLength > c.DataLength {
		c.UsableLength = c.DataLength
	}
	return nil
}

// CurrentLength reports the clip's present length in samples (post-stretch
// if SetLength has been called).
func (c *AudioClip) CurrentLength() int64 { return c.DataLength }
