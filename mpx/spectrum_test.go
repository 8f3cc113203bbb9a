package mpx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpectrumFindsCarriers(t *testing.T) {
	cfg := Config{SampleRate: 192000, Levels: DefaultLevels()}
	g, err := NewGenerator(cfg, constBits(1), nil)
	require.NoError(t, err)

	sp := NewSpectrum(cfg.SampleRate, 8192)
	buf := make([]float64, sp.Bins())
	for w := 0; w < 20; w++ {
		for i := range buf {
			buf[i] = float64(g.Next(0, 0))
		}
		sp.Accumulate(buf)
	}

	pilot := sp.BandDB(18800, 19200)
	rds := sp.BandDB(54600, 59400)
	guard := sp.BandDB(20500, 21500)
	assert.Greater(t, pilot, guard+20, "pilot stands out of the guard band")
	assert.Greater(t, rds, guard+10, "data subcarrier present")

	rep := sp.Report()
	require.Len(t, rep, 7)
	assert.Equal(t, "pilot", rep[1].Name)
}
