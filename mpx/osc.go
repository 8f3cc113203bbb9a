package mpx

import "math"

// All composite carriers are exact integer harmonics of a 9.5 kHz base
// oscillator: pilot 19k = 2x, stereo 38k = 4x, RDS 57k = 6x, and the
// experimental RDS2 sidebands 66.5/76/85.5 kHz = 7x/8x/9x. Running the master
// phase at the base frequency (half the pilot) is what lets the half-integer
// pilot multiples come out as integer harmonics.
const BaseHz = 9500

const (
	HarmonicPilot  = 2
	HarmonicStereo = 4
	HarmonicRDS    = 6
)

// RDS2Harmonics lists the sideband carriers in ascending frequency.
var RDS2Harmonics = [3]int{7, 8, 9}

// Osc is the shared master oscillator. One integer step per sample keeps the
// phase an exact rational multiple of the sample clock, so harmonic
// relationships hold bit-exactly over sessions of any length; there are no
// free-running per-carrier phases to drift apart.
type Osc struct {
	fs  int
	acc int // base-frequency phase, in units of cycles/fs, in [0, fs)
}

func NewOsc(sampleRate int) *Osc {
	if sampleRate <= 2*BaseHz {
		panic("mpx: sample rate below oscillator base")
	}
	return &Osc{fs: sampleRate}
}

// Step advances the master phase by one sample period.
func (o *Osc) Step() {
	o.acc += BaseHz
	if o.acc >= o.fs {
		o.acc -= o.fs
	}
}

// Phase returns the current phase of a harmonic in radians, in [0, 2pi).
func (o *Osc) Phase(harmonic int) float64 {
	return 2 * math.Pi * float64((harmonic*o.acc)%o.fs) / float64(o.fs)
}

func (o *Osc) Sin(harmonic int) float64 { return math.Sin(o.Phase(harmonic)) }
func (o *Osc) Cos(harmonic int) float64 { return math.Cos(o.Phase(harmonic)) }
