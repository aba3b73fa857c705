package triggerbox

import (
	"io"
	"os"
	"path/filepath"

	"github.com/youpy/go-wav"
)

// FileRegion is a Region backed by a fully-decoded WAV file, grounded on
// the pack's sampler.LoadSound. It is the only Region implementation
// this package provides; the real Region/Source/file-loading layer is
// explicitly out of scope (spec §1) and lives in the host application.
type FileRegion struct {
	id      string
	path    string
	samples [][]float64
	length  int64
	rate    float64
}

// LoadFileRegion decodes path fully into memory and gives the region the
// ID id (or path, if id is empty). It does not add the region to a
// RegionRegistry; callers do that with RegionRegistry.Put.
func LoadFileRegion(path string, id string) (*FileRegion, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := wav.NewReader(f)
	format, err := r.Format()
	if err != nil {
		return nil, err
	}
	chans := int(format.NumChannels)
	region := &FileRegion{
		id:   id,
		path: path,
		rate: float64(format.SampleRate),
	}
	if region.id == "" {
		region.id = path
	}
	region.samples = make([][]float64, chans)

	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, s := range samples {
			for ch := 0; ch < chans; ch++ {
				region.samples[ch] = append(region.samples[ch], r.FloatValue(s, uint(ch)))
			}
		}
	}
	if chans > 0 {
		region.length = int64(len(region.samples[0]))
	}
	return region, nil
}

func (r *FileRegion) LengthSamples() int64 { return r.length }

func (r *FileRegion) Length() Beats {
	if r.rate == 0 {
		return 0
	}
	// Treat the file's own duration as one quarter note per second at
	// 60 BPM; real hosts supply a proper tempo map instead (spec §6).
	seconds := float64(r.length) / r.rate
	return NewBeats(seconds)
}

func (r *FileRegion) NumChannels() int { return len(r.samples) }

func (r *FileRegion) Read(dst []float64, offset int64, nsamples int, channel int) (int, error) {
	if channel < 0 || channel >= len(r.samples) {
		return 0, nil
	}
	src := r.samples[channel]
	if offset >= int64(len(src)) {
		return 0, nil
	}
	n := copy(dst[:nsamples], src[offset:])
	return n, nil
}

func (r *FileRegion) ID() string   { return r.id }
func (r *FileRegion) Name() string { return filepath.Base(r.path) }
