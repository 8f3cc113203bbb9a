package rds

import "math"

// Alternative frequency coding, method A: the list opens with a count code
// (224+n) and continues with one channel code per frequency, 100 kHz steps
// from 87.6 MHz. Codes ride two per 0A group in block C.
const (
	afCountBase = 224
	afFiller    = 205
)

// afCode returns the channel code for a frequency in MHz, or false if the
// frequency is outside the codable band.
func afCode(mhz float64) (uint8, bool) {
	n := int(math.Round((mhz - 87.5) * 10))
	if n < 1 || n > 204 {
		return 0, false
	}
	return uint8(n), true
}

// afSequence flattens a validated AF list into the rotating code sequence,
// padded with a filler code to an even length. An empty list still announces
// itself as "no AF" so block C is never left unstructured.
func afSequence(af []float64) []uint8 {
	seq := make([]uint8, 0, len(af)+2)
	seq = append(seq, uint8(afCountBase+len(af)))
	for _, mhz := range af {
		code, ok := afCode(mhz)
		if !ok {
			// Validate rejected this already.
			code = afFiller
		}
		seq = append(seq, code)
	}
	if len(seq)%2 != 0 {
		seq = append(seq, afFiller)
	}
	return seq
}
