package mpx

// Audio program bandwidth. Anything above the pilot guard band would leak
// into the 19 kHz pilot region, so both channels are lowpassed before matrixing.
const (
	AudioCutoffHz   = 15000
	audioFilterTaps = 127
)

// Synth matrixes a stereo program into the baseband composite components:
// the mono sum on baseband and the difference signal on the 38 kHz
// suppressed-carrier subcarrier, phase locked to the pilot.
type Synth struct {
	osc   *Osc
	left  *FIR
	right *FIR
}

func NewSynth(osc *Osc) *Synth {
	taps := LowpassTaps(audioFilterTaps, AudioCutoffHz, float64(osc.fs))
	return &Synth{
		osc:   osc,
		left:  NewFIR(taps),
		right: NewFIR(taps),
	}
}

// Next consumes one stereo frame and returns the mono and stereo-difference
// composite components for the current oscillator phase.
func (s *Synth) Next(l, r float64) (mono, dsb float64) {
	l = s.left.Filter(l)
	r = s.right.Filter(r)
	mono = (l + r) / 2
	dsb = (l - r) / 2 * s.osc.Cos(HarmonicStereo)
	return mono, dsb
}

// Pilot returns the unscaled 19 kHz pilot tone at the current phase.
func (s *Synth) Pilot() float64 {
	return s.osc.Sin(HarmonicPilot)
}
