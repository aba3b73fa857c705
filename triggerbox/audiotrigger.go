package triggerbox

// AudioTrigger is the only implemented clip type: a Trigger bound to an
// AudioClip's decoded PCM. A MIDI clip type is declared in the data model
// (spec §3) but left unimplemented (spec §1 Non-goals).
type AudioTrigger struct {
	*Trigger
	clip *AudioClip

	startOffset  int64
	legatoOffset int64
	readIndex    int64
	lastSample   int64
}

// NewAudioTrigger builds a slot bound to box at index, with no region.
func NewAudioTrigger(box *TriggerBox, index int) *AudioTrigger {
	base := newTrigger(box, index)
	at := &AudioTrigger{Trigger: base, clip: NewAudioClip(nil)}
	base.ops = at
	return at
}

// SetRegion assigns r, loading its PCM. On failure the trigger keeps
// whatever region it had. Only an audio DataType box may call this
// (ErrUnsupportedClipType otherwise is the caller's TriggerBox's job to
// enforce, via TriggerBox.SetRegion).
func (a *AudioTrigger) SetRegion(r Region) error {
	clip := NewAudioClip(a.clip.stretcher)
	if err := clip.LoadData(r); err != nil {
		return err
	}
	a.clip = clip
	a.startOffset = 0
	a.setUsableLength()
	a.setRegionInternal(r)
	return nil
}

// SetStart sets the read origin within the clip's decoded data, in
// samples, as used by the persisted "start" field (spec §6).
func (a *AudioTrigger) SetStart(offset int64) {
	a.startOffset = offset
	a.setUsableLength()
}

// SetLength stretches the underlying clip to newLen samples (spec §4.C)
// and recomputes the usable/last-sample bookkeeping.
func (a *AudioTrigger) SetLength(newLen int64) error {
	if err := a.clip.SetLength(newLen); err != nil {
		return err
	}
	a.setUsableLength()
	return nil
}

func (a *AudioTrigger) hasRegion() bool { return a.Region() != nil }

// setUsableLength implements spec §4.D's set_usable_length. Bar-level
// quantization for Repeat triggers is a known gap (spec §9) and falls
// back to the clip's full data length.
func (a *AudioTrigger) setUsableLength() {
	style := a.LaunchStyle()
	q := a.Quantization()
	switch {
	case style != Repeat:
		a.clip.UsableLength = a.clip.DataLength
	case q.IsZero():
		a.clip.UsableLength = a.clip.DataLength
	case q.Bars != 0:
		// Bar-level handling is out of scope; treat as unquantized.
		a.clip.UsableLength = a.clip.DataLength
	default:
		if tm := a.box.TempoMap(); tm != nil {
			grid := BBTOffset{Beats: q.Beats, Ticks: q.Ticks}.AsBeats()
			a.clip.UsableLength = tm.SamplesAt(grid)
		} else {
			a.clip.UsableLength = a.clip.DataLength
		}
	}
	a.lastSample = a.startOffset + a.clip.UsableLength
}

// retrigger resets the playback cursor to the clip's start, applying and
// clearing any one-shot legato offset (spec §4.D).
func (a *AudioTrigger) retrigger() {
	a.readIndex = a.startOffset + a.legatoOffset
	a.legatoOffset = 0
}

func (a *AudioTrigger) currentPos() int64 { return a.readIndex }

// Run fills nframes of audio into each output channel starting at
// destOffset. When first is true the destination is overwritten;
// otherwise it is summed onto (multiple triggers ending/starting within
// the same block mix together). Matches spec §4.D AudioTrigger.run.
func (a *AudioTrigger) Run(out [][]float64, nframes int, destOffset int, first bool) {
	numSrc := len(a.clip.Data)
	if numSrc == 0 || a.clip.UsableLength <= 0 {
		return
	}
	remaining := nframes
	pos := destOffset
	for remaining > 0 {
		avail := a.lastSample - a.readIndex
		if avail < 0 {
			avail = 0
		}
		n := remaining
		if int64(n) > avail {
			n = int(avail)
		}
		for chn := range out {
			src := a.clip.Data[chn%numSrc]
			dst := out[chn]
			for i := 0; i < n; i++ {
				v := src[a.readIndex+int64(i)]
				if first {
					dst[pos+i] = v
				} else {
					dst[pos+i] += v
				}
			}
		}
		a.readIndex += int64(n)
		pos += n
		remaining -= n

		if remaining == 0 {
			break
		}
		// n < what was asked for: the clip ended mid-call.
		if a.LaunchStyle() == Repeat || a.box.peekNextTrigger() == a.Trigger {
			a.retrigger()
			continue
		}
		if first {
			for chn := range out {
				dst := out[chn]
				for i := 0; i < remaining; i++ {
					dst[pos+i] = 0
				}
			}
		}
		a.state = Stopped
		return
	}

	if a.state == Stopping && nframes >= 64 {
		a.state = Stopped
	}
}
