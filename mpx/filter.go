package mpx

// FIR is a streaming direct-form FIR filter for one channel.
type FIR struct {
	taps  []float64
	delay []float64
	pos   int
}

func NewFIR(taps []float64) *FIR {
	return &FIR{taps: taps, delay: make([]float64, len(taps))}
}

// Filter pushes one input sample and returns one output sample.
func (f *FIR) Filter(x float64) float64 {
	f.delay[f.pos] = x
	var acc float64
	i := f.pos
	for _, t := range f.taps {
		acc += t * f.delay[i]
		i--
		if i < 0 {
			i = len(f.delay) - 1
		}
	}
	f.pos++
	if f.pos == len(f.delay) {
		f.pos = 0
	}
	return acc
}
