package rds

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkerboard(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func TestLogoFrameHeader(t *testing.T) {
	frame := frameLogo(checkerboard(16, 8))
	require.Len(t, frame.Bits, 8+7+6+3+16*8+16)

	var magic int
	for _, b := range frame.Bits[:8] {
		magic = magic<<1 | int(b)
	}
	assert.Equal(t, LogoMagic, magic)

	var w int
	for _, b := range frame.Bits[8:15] {
		w = w<<1 | int(b)
	}
	assert.Equal(t, 16, w)
}

func TestLogoOversizeClamped(t *testing.T) {
	frame := frameLogo(checkerboard(200, 100))
	assert.Len(t, frame.Bits, 8+7+6+3+LogoMaxWidth*LogoMaxHeight+16)
}

func TestLogoChunkWraps(t *testing.T) {
	frame := frameLogo(checkerboard(8, 4))
	total := len(frame.Bits)

	var got []uint8
	for len(got) < 2*total {
		got = append(got, frame.chunk(GroupBits4)...)
	}
	for i := 0; i < total; i++ {
		assert.Equal(t, frame.Bits[i], got[total+i], "bit %d after wrap", i)
	}
}

func TestRDS2StreamsIndependent(t *testing.T) {
	st := testStation(t)
	a := NewRDS2Stream(st, nil, nil)
	b := NewRDS2Stream(st, nil, []StreamKind{ChunkText})

	// No logo: every slot degrades to a text group of the right size.
	for i := 0; i < 6; i++ {
		assert.Len(t, a.NextChunk(), GroupBits4)
		assert.Len(t, b.NextChunk(), GroupBits4)
	}
}

func TestRDS2ScheduleTable(t *testing.T) {
	st := testStation(t)
	logo := frameLogo(checkerboard(8, 4))
	s := NewRDS2Stream(st, logo, []StreamKind{ChunkLogo, ChunkText})

	first := s.NextChunk()
	var magic int
	for _, b := range first[:8] {
		magic = magic<<1 | int(b)
	}
	assert.Equal(t, LogoMagic, magic, "schedule starts with a logo chunk")

	second := s.NextChunk()
	assert.Len(t, second, GroupBits4)
}
