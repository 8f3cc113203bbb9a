package stream

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/chzchzchz/mpxgen/audio/wav"
)

// WAVSink renders the composite to a mono PCM file in lock step with the
// generator; there is no real-time deadline, so no ring is involved.
type WAVSink struct {
	f *os.File
	w *wav.Writer
}

func CreateWAV(path string, sampleRate, bitDepth int) (*WAVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, "create wav")
	}
	w, err := wav.NewWriter(f, sampleRate, bitDepth, 1)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &WAVSink{f: f, w: w}, nil
}

// Render drives the engine until the source ends or maxFrames is written.
// maxFrames 0 means unlimited.
func (s *WAVSink) Render(e *Engine, maxFrames uint64) (uint64, error) {
	buf := make([]float32, produceChunk)
	flt := make([]float64, produceChunk)
	var written uint64
	for maxFrames == 0 || written < maxFrames {
		want := len(buf)
		if maxFrames != 0 && maxFrames-written < uint64(want) {
			want = int(maxFrames - written)
		}
		n, err := e.Render(buf[:want])
		for i := 0; i < n; i++ {
			flt[i] = float64(buf[i])
		}
		if werr := s.w.WriteFloats(flt[:n]); werr != nil {
			return written, errors.Wrap(werr, "write wav")
		}
		written += uint64(n)
		if err == io.EOF {
			break
		}
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func (s *WAVSink) Close() error {
	if err := s.w.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
