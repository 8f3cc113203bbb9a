package audio

import (
	"io"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/chzchzchz/mpxgen/audio/wav"
)

// Source supplies the stereo program feeding the composite generator, already
// at the generator's sample rate.
type Source interface {
	// ReadStereo fills l and r with up to len(l) frames and returns the
	// count delivered; io.EOF once the program is exhausted.
	ReadStereo(l, r []float64) (int, error)
	Close() error
}

// Tone defaults. A quiet reference tone keeps plenty of headroom for the
// subcarriers while still being clearly audible on a receiver.
const (
	DefaultToneHz = 440
	DefaultToneDB = -12
)

const wavBufFrames = 4096

// ToneSource generates an endless stereo sine test tone.
type ToneSource struct {
	amp   float64
	step  float64
	phase float64
}

func NewToneSource(sampleRate int, freqHz, levelDB float64) *ToneSource {
	return &ToneSource{
		amp:  math.Pow(10, levelDB/20),
		step: 2 * math.Pi * freqHz / float64(sampleRate),
	}
}

func (t *ToneSource) ReadStereo(l, r []float64) (int, error) {
	for i := range l {
		v := t.amp * math.Sin(t.phase)
		l[i], r[i] = v, v
		t.phase += t.step
		if t.phase >= 2*math.Pi {
			t.phase -= 2 * math.Pi
		}
	}
	return len(l), nil
}

func (t *ToneSource) Close() error { return nil }

// SilenceSource plays nothing. Useful for data-only carriers.
type SilenceSource struct{}

func (SilenceSource) ReadStereo(l, r []float64) (int, error) {
	for i := range l {
		l[i], r[i] = 0, 0
	}
	return len(l), nil
}

func (SilenceSource) Close() error { return nil }

// WAVSource plays a PCM WAV file, resampled to the output rate. Mono files
// are duplicated onto both channels. With Loop set the file restarts on EOF.
type WAVSource struct {
	f    *os.File
	rd   *wav.Reader
	rs   *Resampler
	loop bool
	path string
	rate int

	buf []float64
	n   int
	pos int
}

func OpenWAV(path string, outputRate int, loop bool) (*WAVSource, error) {
	s := &WAVSource{loop: loop, path: path, rate: outputRate}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *WAVSource) open() error {
	f, err := os.Open(s.path)
	if err != nil {
		return errors.Wrap(err, "open wav")
	}
	rd, err := wav.NewReader(f)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, "read wav %q", s.path)
	}
	if c := rd.Channels(); c != 1 && c != 2 {
		f.Close()
		return errors.Errorf("wav %q has %d channels", s.path, c)
	}
	s.f, s.rd = f, rd
	s.buf = make([]float64, wavBufFrames*rd.Channels())
	s.n, s.pos = 0, 0
	s.rs = NewResampler(rd.SampleRate(), s.rate, s.pullFrame)
	return nil
}

// pullFrame returns the next source-rate frame, refilling from the decoder.
func (s *WAVSource) pullFrame() (float64, float64, error) {
	ch := s.rd.Channels()
	if s.pos >= s.n {
		n, err := s.rd.ReadFloats(s.buf)
		if n == 0 {
			if err == nil {
				err = io.EOF
			}
			return 0, 0, err
		}
		s.n, s.pos = n-n%ch, 0
	}
	l := s.buf[s.pos]
	r := l
	if ch == 2 {
		r = s.buf[s.pos+1]
	}
	s.pos += ch
	return l, r, nil
}

func (s *WAVSource) ReadStereo(l, r []float64) (int, error) {
	for i := range l {
		lf, rf, err := s.rs.Next()
		if err == io.EOF && s.loop {
			s.f.Close()
			if err = s.open(); err != nil {
				return i, err
			}
			lf, rf, err = s.rs.Next()
		}
		if err != nil {
			return i, err
		}
		l[i], r[i] = lf, rf
	}
	return len(l), nil
}

func (s *WAVSource) SampleRate() int { return s.rd.SampleRate() }

func (s *WAVSource) Close() error {
	return s.f.Close()
}
