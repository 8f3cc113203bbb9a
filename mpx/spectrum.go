package mpx

import (
	"math"
	"math/cmplx"

	"github.com/runningwild/go-fftw/fftw32"
)

// Spectrum measures average per-bin power of a real composite recording so
// the injection of each subcarrier can be checked after the fact.
type Spectrum struct {
	fs      int
	fftBins *fftw32.Array
	avg     []float64
	ffts    int
	win     []float64
}

func NewSpectrum(sampleRate, bins int) *Spectrum {
	win := make([]float64, bins)
	for i := range win {
		win[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(bins-1))
	}
	return &Spectrum{
		fs:      sampleRate,
		fftBins: fftw32.NewArray(bins),
		avg:     make([]float64, bins/2),
		win:     win,
	}
}

// Bins returns the analysis window length in samples.
func (s *Spectrum) Bins() int {
	return len(s.fftBins.Elems)
}

// Accumulate folds one window of exactly Bins samples into the average.
func (s *Spectrum) Accumulate(samples []float64) {
	arr := &fftw32.Array{Elems: make([]complex64, len(samples))}
	for i, v := range samples {
		arr.Elems[i] = complex(float32(v*s.win[i]), 0)
	}
	s.fftBins = fftw32.FFT(arr)
	// Real input: only the positive-frequency half is informative.
	for i := 0; i < len(s.avg); i++ {
		v := cmplx.Abs(complex128(s.fftBins.Elems[i]))
		s.avg[i] += v * v
	}
	s.ffts++
}

// BandDB reports the average power of [lowHz, highHz] in dB, relative to the
// strongest analyzed bin.
func (s *Spectrum) BandDB(lowHz, highHz float64) float64 {
	if s.ffts == 0 {
		return math.Inf(-1)
	}
	binHz := float64(s.fs) / float64(s.Bins())
	lo := int(lowHz / binHz)
	hi := int(highHz / binHz)
	if hi >= len(s.avg) {
		hi = len(s.avg) - 1
	}
	if lo < 0 {
		lo = 0
	}
	if lo > hi {
		return math.Inf(-1)
	}
	var sum, peak float64
	for _, v := range s.avg {
		if v > peak {
			peak = v
		}
	}
	for i := lo; i <= hi; i++ {
		sum += s.avg[i]
	}
	avg := sum / float64(hi-lo+1)
	if avg == 0 || peak == 0 {
		return math.Inf(-1)
	}
	return 10 * math.Log10(avg/peak)
}

// BandReport is one named slice of the composite plan.
type BandReport struct {
	Name   string
	LowHz  float64
	HighHz float64
	DB     float64
}

// Report measures the standard composite bands. Sideband entries are only
// meaningful if the recording was made with them enabled.
func (s *Spectrum) Report() []BandReport {
	bands := []BandReport{
		{Name: "audio", LowHz: 30, HighHz: 15000},
		{Name: "pilot", LowHz: 18800, HighHz: 19200},
		{Name: "stereo", LowHz: 23000, HighHz: 53000},
		{Name: "rds", LowHz: 54600, HighHz: 59400},
		{Name: "rds2-66.5k", LowHz: 64100, HighHz: 68900},
		{Name: "rds2-76k", LowHz: 73600, HighHz: 78400},
		{Name: "rds2-85.5k", LowHz: 83100, HighHz: 87900},
	}
	for i := range bands {
		bands[i].DB = s.BandDB(bands[i].LowHz, bands[i].HighHz)
	}
	return bands
}
