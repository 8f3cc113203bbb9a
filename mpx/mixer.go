package mpx

import (
	"math"
	"sync/atomic"
)

// Default injection levels, as fractions of full deviation.
const (
	DefaultPilotLevel = 0.08
	DefaultRDSLevel   = 0.03
	DefaultRDS2Level  = 0.01
)

// clipCeiling is just under full scale so the output stays representable in
// 16-bit audio without wrapping.
const clipCeiling = 0.999

// Levels sets the injection of each composite component. Audio injection is
// whatever headroom is left; GainDB scales the final mix.
type Levels struct {
	Pilot  float64
	RDS    float64
	RDS2   float64 // per sideband carrier
	GainDB float64
}

func DefaultLevels() Levels {
	return Levels{
		Pilot: DefaultPilotLevel,
		RDS:   DefaultRDSLevel,
		RDS2:  DefaultRDS2Level,
	}
}

// Mixer sums composite components, applies master gain, and hard-clips.
// Clip counting is atomic so a monitoring goroutine can read it while the
// audio callback writes.
type Mixer struct {
	levels Levels
	gain   float64
	clips  atomic.Uint64
}

func NewMixer(levels Levels) *Mixer {
	return &Mixer{
		levels: levels,
		gain:   math.Pow(10, levels.GainDB/20),
	}
}

// Mix combines one sample of each component into the composite output.
// rds2 is the pre-summed contribution of all active sidebands.
func (m *Mixer) Mix(mono, dsb, pilot, rds, rds2 float64) float64 {
	audio := 1 - m.levels.Pilot - m.levels.RDS
	v := audio*(mono+dsb) +
		m.levels.Pilot*pilot +
		m.levels.RDS*rds +
		m.levels.RDS2*rds2
	v *= m.gain
	if v > clipCeiling {
		m.clips.Add(1)
		return clipCeiling
	}
	if v < -clipCeiling {
		m.clips.Add(1)
		return -clipCeiling
	}
	return v
}

// Clips returns the number of samples hard-limited so far.
func (m *Mixer) Clips() uint64 {
	return m.clips.Load()
}
