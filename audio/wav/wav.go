package wav

import (
	"encoding/binary"
	"errors"
	"io"
)

var (
	ErrBadFormat = errors.New("bad format")
	ErrBitDepth  = errors.New("unsupported bit depth")
)

type riffHeader struct {
	ChunkId   [4]byte
	ChunkSize uint32
	Format    [4]byte
}

type fmtHeader struct {
	AudioFormat   uint16 /* 1 = PCM */
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

type chunkHeader struct {
	ChunkId   [4]byte
	ChunkSize uint32
}

type Reader struct {
	io.Reader
	fh   fmtHeader
	left uint32
}

// NewReader parses RIFF headers up to the data chunk. Chunks other than
// "fmt " and "data" (LIST, fact, cue) are skipped.
func NewReader(r io.Reader) (*Reader, error) {
	rr := &Reader{Reader: r}
	var rh riffHeader
	if err := binary.Read(r, binary.LittleEndian, &rh); err != nil {
		return nil, err
	}
	if string(rh.ChunkId[:]) != "RIFF" || string(rh.Format[:]) != "WAVE" {
		return nil, ErrBadFormat
	}
	sawFmt := false
	for {
		var ch chunkHeader
		if err := binary.Read(r, binary.LittleEndian, &ch); err != nil {
			return nil, err
		}
		switch string(ch.ChunkId[:]) {
		case "fmt ":
			if ch.ChunkSize < 16 {
				return nil, ErrBadFormat
			}
			if err := binary.Read(r, binary.LittleEndian, &rr.fh); err != nil {
				return nil, err
			}
			if err := skip(r, int64(ch.ChunkSize)-16); err != nil {
				return nil, err
			}
			if rr.fh.AudioFormat != 1 {
				return nil, ErrBadFormat
			}
			if rr.fh.BitsPerSample != 16 && rr.fh.BitsPerSample != 24 {
				return nil, ErrBitDepth
			}
			sawFmt = true
		case "data":
			if !sawFmt {
				return nil, ErrBadFormat
			}
			rr.left = ch.ChunkSize
			return rr, nil
		default:
			if err := skip(r, int64(ch.ChunkSize)); err != nil {
				return nil, err
			}
		}
	}
}

func skip(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, r, n)
	return err
}

func (r *Reader) Channels() int {
	return int(r.fh.NumChannels)
}

func (r *Reader) SampleRate() int {
	return int(r.fh.SampleRate)
}

func (r *Reader) BitDepth() int {
	return int(r.fh.BitsPerSample)
}

// ReadFloats fills out with interleaved samples scaled to [-1, 1). Returns
// the number of samples read; io.EOF when the data chunk is exhausted.
func (r *Reader) ReadFloats(out []float64) (int, error) {
	bytesPer := int(r.fh.BitsPerSample) / 8
	want := len(out) * bytesPer
	if max := int(r.left); want > max {
		want = max
	}
	if want == 0 {
		return 0, io.EOF
	}
	buf := make([]byte, want)
	m, err := io.ReadFull(r.Reader, buf)
	r.left -= uint32(m)
	n := m / bytesPer
	for i := 0; i < n; i++ {
		switch bytesPer {
		case 2:
			v := int16(binary.LittleEndian.Uint16(buf[2*i:]))
			out[i] = float64(v) / 32768
		case 3:
			v := int32(buf[3*i]) | int32(buf[3*i+1])<<8 | int32(buf[3*i+2])<<16
			v = v << 8 >> 8 // sign extend
			out[i] = float64(v) / 8388608
		}
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	if n > 0 && err == io.EOF {
		err = nil
	}
	return n, err
}

type Writer struct {
	w io.Writer

	SampleRate    uint32
	BitsPerSample uint16
	NumChannels   uint16

	dataLen uint32
}

func NewWriter(w io.Writer, rate, depth, channels int) (*Writer, error) {
	if rate == 0 || channels == 0 {
		return nil, ErrBadFormat
	}
	if depth != 16 && depth != 24 {
		return nil, ErrBitDepth
	}
	ww := &Writer{
		w:             w,
		SampleRate:    uint32(rate),
		BitsPerSample: uint16(depth),
		NumChannels:   uint16(channels),
	}
	if err := ww.writeHeader(0); err != nil {
		return nil, err
	}
	return ww, nil
}

func (w *Writer) Write(p []byte) (int, error) {
	w.dataLen += uint32(len(p))
	return w.w.Write(p)
}

// WriteFloats encodes interleaved [-1, 1] samples at the writer's bit depth.
func (w *Writer) WriteFloats(in []float64) error {
	bytesPer := int(w.BitsPerSample) / 8
	buf := make([]byte, len(in)*bytesPer)
	for i, v := range in {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		switch bytesPer {
		case 2:
			s := int16(v * 32767)
			binary.LittleEndian.PutUint16(buf[2*i:], uint16(s))
		case 3:
			s := int32(v * 8388607)
			buf[3*i] = byte(s)
			buf[3*i+1] = byte(s >> 8)
			buf[3*i+2] = byte(s >> 16)
		}
	}
	_, err := w.Write(buf)
	return err
}

// Close patches the chunk sizes if the destination is seekable.
func (w *Writer) Close() error {
	if ws, ok := w.w.(io.WriteSeeker); ok {
		if _, err := ws.Seek(0, 0); err != nil {
			return err
		}
		if err := w.writeHeader(w.dataLen); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeHeader(dataLen uint32) error {
	if dataLen == 0 {
		dataLen = 1 << 31
	}
	rh := &riffHeader{
		ChunkId:   [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize: dataLen + 36,
		Format:    [4]byte{'W', 'A', 'V', 'E'},
	}
	if err := binary.Write(w.w, binary.LittleEndian, rh); err != nil {
		return err
	}

	ch := &chunkHeader{
		ChunkId:   [4]byte{'f', 'm', 't', ' '},
		ChunkSize: 16,
	}
	if err := binary.Write(w.w, binary.LittleEndian, ch); err != nil {
		return err
	}
	fh := &fmtHeader{
		AudioFormat:   1,
		NumChannels:   w.NumChannels,
		SampleRate:    w.SampleRate,
		ByteRate:      w.SampleRate * uint32(w.NumChannels) * uint32(w.BitsPerSample) / 8,
		BlockAlign:    uint16((uint32(w.NumChannels) * uint32(w.BitsPerSample)) / 8),
		BitsPerSample: w.BitsPerSample,
	}
	if err := binary.Write(w.w, binary.LittleEndian, fh); err != nil {
		return err
	}

	dh := &chunkHeader{
		ChunkId:   [4]byte{'d', 'a', 't', 'a'},
		ChunkSize: dataLen,
	}
	return binary.Write(w.w, binary.LittleEndian, dh)
}
