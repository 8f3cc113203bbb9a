package mpx

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// Minimum sample rates with headroom above the highest occupied subcarrier:
// 57 kHz plus RDS bandwidth for the base composite, 85.5 kHz plus sideband
// bandwidth when the extra carriers are on.
const (
	MinSampleRate     = 128000
	MinSampleRateRDS2 = 176400
)

// Config describes one composite generator session.
type Config struct {
	SampleRate int
	Levels     Levels
	RDS2       bool
}

func (c *Config) Validate() error {
	min := MinSampleRate
	if c.RDS2 {
		min = MinSampleRateRDS2
	}
	if c.SampleRate < min {
		return errors.Errorf("sample rate %d below minimum %d", c.SampleRate, min)
	}
	if c.Levels.Pilot < 0 || c.Levels.RDS < 0 || c.Levels.RDS2 < 0 {
		return errors.New("negative injection level")
	}
	if c.Levels.Pilot+c.Levels.RDS >= 1 {
		return errors.New("pilot and data injection leave no audio headroom")
	}
	return nil
}

// Generator produces the composite baseband one sample at a time. It owns the
// master oscillator and all per-carrier modulators, so every subcarrier stays
// phase locked to the pilot for the life of the session.
type Generator struct {
	osc    *Osc
	synth  *Synth
	mixer  *Mixer
	rds    *Modulator
	rds2   []*Modulator
	frames atomic.Uint64
}

// NewGenerator builds a generator for the given session. rdsBits feeds the
// 57 kHz subcarrier; rds2Bits feeds the sideband carriers in ascending
// frequency order and is ignored unless cfg.RDS2 is set.
func NewGenerator(cfg Config, rdsBits BitReader, rds2Bits []BitReader) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	osc := NewOsc(cfg.SampleRate)
	g := &Generator{
		osc:   osc,
		synth: NewSynth(osc),
		mixer: NewMixer(cfg.Levels),
		rds:   NewModulator(osc, HarmonicRDS, rdsBits),
	}
	if cfg.RDS2 {
		if len(rds2Bits) != len(RDS2Harmonics) {
			return nil, errors.Errorf("need %d sideband streams, got %d",
				len(RDS2Harmonics), len(rds2Bits))
		}
		for i, h := range RDS2Harmonics {
			g.rds2 = append(g.rds2, NewModulator(osc, h, rds2Bits[i]))
		}
	}
	return g, nil
}

// Next consumes one stereo program frame and returns one composite sample.
func (g *Generator) Next(l, r float64) float32 {
	mono, dsb := g.synth.Next(l, r)
	pilot := g.synth.Pilot()
	rds := g.rds.Next()
	var rds2 float64
	for _, m := range g.rds2 {
		rds2 += m.Next()
	}
	v := g.mixer.Mix(mono, dsb, pilot, rds, rds2)
	g.osc.Step()
	g.frames.Add(1)
	return float32(v)
}

// Frames returns the number of composite samples generated.
func (g *Generator) Frames() uint64 {
	return g.frames.Load()
}

// Clips returns the number of samples hard-limited by the mixer.
func (g *Generator) Clips() uint64 {
	return g.mixer.Clips()
}

// SampleRate returns the session sample rate.
func (g *Generator) SampleRate() int {
	return g.osc.fs
}

// Symbols returns the 57 kHz data symbol count, for rate diagnostics.
func (g *Generator) Symbols() uint64 {
	return g.rds.Symbols()
}
