package stream

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chzchzchz/mpxgen/audio"
	"github.com/chzchzchz/mpxgen/audio/wav"
	"github.com/chzchzchz/mpxgen/mpx"
)

type zeroBits struct{}

func (zeroBits) NextBit() uint8 { return 0 }

type finiteSource struct{ left int }

func (s *finiteSource) ReadStereo(l, r []float64) (int, error) {
	n := len(l)
	if n > s.left {
		n = s.left
	}
	for i := 0; i < n; i++ {
		l[i], r[i] = 0.1, -0.1
	}
	s.left -= n
	if s.left == 0 {
		return n, io.EOF
	}
	return n, nil
}

func (s *finiteSource) Close() error { return nil }

func testGenerator(t *testing.T) *mpx.Generator {
	t.Helper()
	cfg := mpx.Config{SampleRate: 192000, Levels: mpx.DefaultLevels()}
	gen, err := mpx.NewGenerator(cfg, zeroBits{}, nil)
	require.NoError(t, err)
	return gen
}

func TestRingSPSC(t *testing.T) {
	r := NewRing(1000)
	require.Equal(t, 1024, r.Cap())

	const total = 100000
	go func() {
		for i := 0; i < total; i++ {
			for !r.Push(float32(i)) {
				time.Sleep(time.Microsecond)
			}
		}
	}()
	for i := 0; i < total; i++ {
		var v float32
		var ok bool
		for v, ok = r.Pop(); !ok; v, ok = r.Pop() {
			time.Sleep(time.Microsecond)
		}
		if v != float32(i) {
			t.Fatalf("popped %v at %d", v, i)
		}
	}
}

func TestRingBounds(t *testing.T) {
	r := NewRing(4)
	for i := 0; i < 4; i++ {
		require.True(t, r.Push(1))
	}
	assert.False(t, r.Push(1), "push on full")
	assert.Equal(t, 4, r.Len())
	for i := 0; i < 4; i++ {
		_, ok := r.Pop()
		require.True(t, ok)
	}
	_, ok := r.Pop()
	assert.False(t, ok, "pop on empty")
}

func TestEngineLifecycle(t *testing.T) {
	gen := testGenerator(t)
	src := audio.NewToneSource(192000, audio.DefaultToneHz, audio.DefaultToneDB)
	e := NewEngine(gen, src, func() bool { return true })

	out := make([]float32, 256)
	e.Pull(out)
	for _, v := range out {
		assert.Zero(t, v, "silence before start")
	}

	errc := make(chan error, 1)
	go func() { errc <- e.Run(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for e.State() != Running && time.Now().Before(deadline) {
		e.Pull(out)
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, Running, e.State())

	e.Stop()
	for e.State() != Stopped && time.Now().Before(deadline) {
		e.Pull(out)
		time.Sleep(time.Millisecond)
	}
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not stop")
	}
	assert.Equal(t, Stopped, e.State())
	assert.NotZero(t, gen.Frames())
}

func TestEngineUnderrunHoldsLastSample(t *testing.T) {
	gen := testGenerator(t)
	e := NewEngine(gen, audio.SilenceSource{}, func() bool { return true })
	e.state.Store(int32(Running))
	e.ring.Push(0.5)

	out := make([]float32, 4)
	e.Pull(out)
	assert.Equal(t, float32(0.5), out[0])
	assert.InDelta(t, 0.5*underrunDecay, out[1], 1e-6)
	assert.InDelta(t, 0.5*underrunDecay*underrunDecay, out[2], 1e-6)
	assert.EqualValues(t, 1, e.Underruns(), "one underrun event per gap")

	e.Pull(out)
	assert.EqualValues(t, 2, e.Underruns())
}

func TestRenderPadsToGroupBoundary(t *testing.T) {
	gen := testGenerator(t)
	const groupSamples = 1664
	boundary := func() bool { return gen.Frames()%groupSamples == 0 }
	e := NewEngine(gen, &finiteSource{left: 1000}, boundary)

	buf := make([]float32, 512)
	var total int
	for {
		n, err := e.Render(buf)
		total += n
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, groupSamples, total, "padded out to the next boundary")
}

func TestWAVSinkFrameCount(t *testing.T) {
	gen := testGenerator(t)
	src := audio.NewToneSource(192000, audio.DefaultToneHz, audio.DefaultToneDB)
	e := NewEngine(gen, src, func() bool { return true })

	path := filepath.Join(t.TempDir(), "out.wav")
	sink, err := CreateWAV(path, 192000, 16)
	require.NoError(t, err)

	const want = 19200 // 100 ms
	written, err := sink.Render(e, want)
	require.NoError(t, err)
	require.NoError(t, sink.Close())
	assert.EqualValues(t, want, written)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rd, err := wav.NewReader(f)
	require.NoError(t, err)
	assert.Equal(t, 192000, rd.SampleRate())

	total := 0
	buf := make([]float64, 4096)
	for {
		n, err := rd.ReadFloats(buf)
		total += n
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
	}
	assert.Equal(t, want, total)
}
