package audio

// Resampler converts a pulled stereo stream to another rate by linear
// interpolation. State is per-frame so chunk boundaries in the underlying
// reader never cause seams.
type Resampler struct {
	ratio  float64 // input frames per output frame
	pos    float64 // fractional offset into [cur, nxt)
	cur    [2]float64
	nxt    [2]float64
	primed bool
	pull   func() (float64, float64, error)
}

func NewResampler(inputRate, outputRate int, pull func() (float64, float64, error)) *Resampler {
	return &Resampler{
		ratio: float64(inputRate) / float64(outputRate),
		pull:  pull,
	}
}

// Next returns one output frame at the target rate.
func (r *Resampler) Next() (float64, float64, error) {
	if !r.primed {
		var err error
		if r.cur[0], r.cur[1], err = r.pull(); err != nil {
			return 0, 0, err
		}
		if r.nxt[0], r.nxt[1], err = r.pull(); err != nil {
			return 0, 0, err
		}
		r.primed = true
	}
	for r.pos >= 1 {
		r.cur = r.nxt
		var err error
		if r.nxt[0], r.nxt[1], err = r.pull(); err != nil {
			return 0, 0, err
		}
		r.pos--
	}
	f := r.pos
	l := r.cur[0]*(1-f) + r.nxt[0]*f
	rr := r.cur[1]*(1-f) + r.nxt[1]*f
	r.pos += r.ratio
	return l, rr, nil
}
