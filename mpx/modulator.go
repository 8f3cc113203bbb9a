package mpx

// RDS symbol timing. The nominal baud is 1187.5 = 19000/16, an exact half of
// HalfSymbolHz, which is what the integer clock below counts.
const (
	NominalBaud  = 1187.5
	HalfSymbolHz = 2375
)

// Pulse shaping parameters, matched to conventional RDS spectrum masks.
const (
	shapeBeta = 0.5
	shapeSpan = 6 // symbols covered by the shaping filter
)

// BitReader supplies the differentially-coded transmitted bitstream.
type BitReader interface {
	NextBit() uint8
}

// Modulator turns a bitstream into a shaped biphase waveform mixed onto one
// carrier harmonic of the shared oscillator. Each data bit emits an impulse
// pair of opposite signs, one at the symbol start and one at mid-symbol; the
// pair is smeared by a raised-cosine filter via streaming overlap-add.
//
// Symbol boundaries come from an integer accumulator (+HalfSymbolHz per
// sample against the sample rate), so the symbol-to-sample mapping is exact
// and cannot drift however long the session runs.
type Modulator struct {
	osc      *Osc
	harmonic int
	bits     BitReader

	fs       int
	acc      int
	half     int
	polarity float64
	symbols  uint64

	taps []float64
	ring []float64
	pos  int
}

func NewModulator(osc *Osc, harmonic int, bits BitReader) *Modulator {
	fs := osc.fs
	sps := float64(fs) / NominalBaud
	numTaps := int(shapeSpan*sps) | 1
	if numTaps < 41 {
		numTaps = 41
	}
	return &Modulator{
		osc:      osc,
		harmonic: harmonic,
		bits:     bits,
		fs:       fs,
		taps:     RaisedCosine(numTaps, shapeBeta, sps),
		ring:     make([]float64, numTaps),
	}
}

// Next produces one waveform sample and advances the symbol clock.
func (m *Modulator) Next() float64 {
	m.acc += HalfSymbolHz
	if m.acc >= m.fs {
		m.acc -= m.fs
		if m.half == 0 {
			if m.bits.NextBit() != 0 {
				m.polarity = 1
			} else {
				m.polarity = -1
			}
			m.stamp(m.polarity)
			m.half = 1
		} else {
			m.stamp(-m.polarity)
			m.half = 0
			m.symbols++
		}
	}

	v := m.ring[m.pos]
	m.ring[m.pos] = 0
	m.pos++
	if m.pos == len(m.ring) {
		m.pos = 0
	}
	return v * m.osc.Cos(m.harmonic)
}

// stamp overlap-adds one shaped impulse starting at the current sample.
func (m *Modulator) stamp(a float64) {
	i := m.pos
	for _, t := range m.taps {
		m.ring[i] += a * t
		i++
		if i == len(m.ring) {
			i = 0
		}
	}
}

// Symbols returns the count of completed symbol periods.
func (m *Modulator) Symbols() uint64 {
	return m.symbols
}
