package rds

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
)

// Experimental station-logo frame carried on the RDS2 sidebands:
//
//	8 bits  magic (0xA7)
//	7 bits  width  (1..64)
//	6 bits  height (1..32)
//	3 bits  reserved
//	w*h bits row-major, 1 = white
//	16 bits additive checksum over the payload bytes
const (
	LogoMagic     = 0xA7
	LogoMaxWidth  = 64
	LogoMaxHeight = 32
)

// LogoFrame is one complete framed monochrome logo, repeated in chunks on the
// RDS2 streams.
type LogoFrame struct {
	Bits []uint8
	pos  int
}

// LoadLogo reads a PNG or JPEG, scales it into the 64x32 budget and packs it
// into a frame. Thresholding is against the mean luminance.
func LoadLogo(path string) (*LogoFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "logo")
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrap(err, "logo")
	}
	return frameLogo(img), nil
}

func frameLogo(img image.Image) *LogoFrame {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > LogoMaxWidth {
		w = LogoMaxWidth
	}
	if h > LogoMaxHeight {
		h = LogoMaxHeight
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	// Nearest-sample downscale, then threshold on mean luminance.
	lum := make([]uint32, w*h)
	var sum uint64
	for y := 0; y < h; y++ {
		sy := bounds.Min.Y + y*bounds.Dy()/h
		for x := 0; x < w; x++ {
			sx := bounds.Min.X + x*bounds.Dx()/w
			r, g, b, _ := img.At(sx, sy).RGBA()
			v := (299*r + 587*g + 114*b) / 1000
			lum[y*w+x] = v
			sum += uint64(v)
		}
	}
	thr := uint32(sum / uint64(len(lum)))

	var bits []uint8
	put := func(v, n int) {
		for i := n - 1; i >= 0; i-- {
			bits = append(bits, uint8(v>>uint(i))&1)
		}
	}
	put(LogoMagic, 8)
	put(w, 7)
	put(h, 6)
	put(0, 3)

	payload := make([]uint8, 0, w*h)
	for _, v := range lum {
		if v >= thr {
			payload = append(payload, 1)
		} else {
			payload = append(payload, 0)
		}
	}
	bits = append(bits, payload...)
	put(logoChecksum(payload), 16)

	return &LogoFrame{Bits: bits}
}

// logoChecksum sums the payload packed into bytes, high bits first, with the
// final partial byte left-aligned.
func logoChecksum(payload []uint8) int {
	var sum, acc, cnt int
	for _, b := range payload {
		acc = acc<<1 | int(b)
		cnt++
		if cnt == 8 {
			sum += acc
			acc, cnt = 0, 0
		}
	}
	if cnt != 0 {
		sum += acc << uint(8-cnt)
	}
	return sum & 0xFFFF
}

// chunk returns the next n frame bits, wrapping to the frame start.
func (l *LogoFrame) chunk(n int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		if l.pos >= len(l.Bits) {
			l.pos = 0
		}
		out[i] = l.Bits[l.pos]
		l.pos++
	}
	return out
}
