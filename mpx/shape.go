package mpx

import "math"

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// RaisedCosine returns FIR taps for a raised-cosine pulse with rolloff beta,
// sampled at sps samples per symbol, normalized to unit peak so a shaped
// impulse reaches full amplitude at the symbol center.
func RaisedCosine(numTaps int, beta, sps float64) []float64 {
	h := make([]float64, numTaps)
	center := float64(numTaps-1) / 2
	for i := range h {
		t := (float64(i) - center) / sps
		denom := 1 - (2*beta*t)*(2*beta*t)
		if math.Abs(denom) < 1e-8 {
			h[i] = math.Pi / 4 * sinc(1/(2*beta))
		} else {
			h[i] = sinc(t) * math.Cos(math.Pi*beta*t) / denom
		}
	}
	peak := h[(numTaps-1)/2]
	for i := range h {
		h[i] /= peak
	}
	return h
}

// LowpassTaps returns Hamming-windowed sinc taps with unit DC gain.
func LowpassTaps(numTaps int, cutoffHz, sampleRate float64) []float64 {
	h := make([]float64, numTaps)
	center := float64(numTaps-1) / 2
	fc := 2 * cutoffHz / sampleRate
	var sum float64
	for i := range h {
		t := float64(i) - center
		w := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(numTaps-1))
		h[i] = fc * sinc(fc*t) * w
		sum += h[i]
	}
	for i := range h {
		h[i] /= sum
	}
	return h
}
