package audio

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chzchzchz/mpxgen/audio/wav"
)

func TestToneLevel(t *testing.T) {
	src := NewToneSource(192000, DefaultToneHz, DefaultToneDB)
	l := make([]float64, 192000)
	r := make([]float64, 192000)
	n, err := src.ReadStereo(l, r)
	require.NoError(t, err)
	require.Equal(t, len(l), n)

	var sum float64
	for i := range l {
		assert.Equal(t, l[i], r[i])
		sum += l[i] * l[i]
	}
	rms := math.Sqrt(sum / float64(len(l)))
	want := math.Pow(10, float64(DefaultToneDB)/20) / math.Sqrt2
	assert.InDelta(t, want, rms, 1e-3)
}

func TestResamplerIdentity(t *testing.T) {
	i := 0.0
	rs := NewResampler(48000, 48000, func() (float64, float64, error) {
		i++
		return i, -i, nil
	})
	for want := 1.0; want < 100; want++ {
		l, r, err := rs.Next()
		require.NoError(t, err)
		assert.Equal(t, want, l)
		assert.Equal(t, -want, r)
	}
}

func TestResamplerUpsampleRamp(t *testing.T) {
	// A linear ramp survives linear interpolation exactly.
	i := -1.0
	rs := NewResampler(48000, 192000, func() (float64, float64, error) {
		i++
		return i, 0, nil
	})
	for k := 0; k < 400; k++ {
		l, _, err := rs.Next()
		require.NoError(t, err)
		assert.InDelta(t, float64(k)/4, l, 1e-9, "output frame %d", k)
	}
}

func TestResamplerEOF(t *testing.T) {
	left := 5
	rs := NewResampler(48000, 48000, func() (float64, float64, error) {
		if left == 0 {
			return 0, 0, io.EOF
		}
		left--
		return 1, 1, nil
	})
	n := 0
	for {
		if _, _, err := rs.Next(); err != nil {
			assert.Equal(t, io.EOF, err)
			break
		}
		n++
	}
	assert.Equal(t, 4, n, "tail frame is dropped at EOF")
}

func writeTestWAV(t *testing.T, rate, depth, channels, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := wav.NewWriter(f, rate, depth, channels)
	require.NoError(t, err)
	samples := make([]float64, frames*channels)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i/channels)/float64(rate))
	}
	require.NoError(t, w.WriteFloats(samples))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestWAVRoundTrip(t *testing.T) {
	for _, depth := range []int{16, 24} {
		path := writeTestWAV(t, 44100, depth, 2, 1000)
		f, err := os.Open(path)
		require.NoError(t, err)
		rd, err := wav.NewReader(f)
		require.NoError(t, err)
		assert.Equal(t, 44100, rd.SampleRate())
		assert.Equal(t, 2, rd.Channels())
		assert.Equal(t, depth, rd.BitDepth())

		buf := make([]float64, 2000)
		n, err := rd.ReadFloats(buf)
		require.NoError(t, err)
		require.Equal(t, 2000, n)
		assert.InDelta(t, 0.5*math.Sin(2*math.Pi*440/44100), buf[2], 1e-3)
		f.Close()
	}
}

func TestWAVSourceResamples(t *testing.T) {
	path := writeTestWAV(t, 44100, 16, 1, 44100)
	src, err := OpenWAV(path, 192000, false)
	require.NoError(t, err)
	defer src.Close()

	l := make([]float64, 4096)
	r := make([]float64, 4096)
	total := 0
	for {
		n, err := src.ReadStereo(l, r)
		total += n
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		for i := 0; i < n; i++ {
			assert.Equal(t, l[i], r[i], "mono duplicated to both channels")
		}
	}
	// One second of program at the output rate, within resampler tail slack.
	assert.InDelta(t, 192000, total, 16)
}

func TestWAVSourceLoops(t *testing.T) {
	path := writeTestWAV(t, 48000, 16, 2, 100)
	src, err := OpenWAV(path, 48000, true)
	require.NoError(t, err)
	defer src.Close()

	l := make([]float64, 1000)
	r := make([]float64, 1000)
	n, err := src.ReadStereo(l, r)
	require.NoError(t, err)
	assert.Equal(t, 1000, n)
}

func TestWAVRejectsBadFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFxxxxJUNK"), 0644))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	_, err = wav.NewReader(f)
	assert.Error(t, err)
}
