package rds

// Precoder applies the differential recurrence t[i] = s[i] XOR t[i-1].
// The carried bit seeds at zero on session start and then persists across
// every group boundary, so decoding is deterministic from any point once the
// receiver has one transmitted bit of history.
type Precoder struct {
	last uint8
}

// Encode transforms source bits into transmitted bits in place and returns
// the same slice.
func (p *Precoder) Encode(bits []uint8) []uint8 {
	for i, b := range bits {
		p.last ^= b & 1
		bits[i] = p.last
	}
	return bits
}

// Decode inverts Encode given the same starting carry: s[i] = t[i] XOR t[i-1].
func Decode(bits []uint8, seed uint8) []uint8 {
	out := make([]uint8, len(bits))
	prev := seed & 1
	for i, t := range bits {
		out[i] = (t ^ prev) & 1
		prev = t & 1
	}
	return out
}

// GroupBits flattens a group into its 104 source bits in transmission order:
// blocks A..D, each information word MSB first, then its checkword MSB first.
func GroupBits(g Group) []uint8 {
	bits := make([]uint8, 0, GroupBits4)
	for _, blk := range g.Blocks() {
		for i := BlockBits - 1; i >= 0; i-- {
			bits = append(bits, uint8(blk>>uint(i))&1)
		}
	}
	return bits
}

// ChunkSource yields successive bit chunks. A chunk is the atomic unit for
// reconfiguration and shutdown; on the primary stream it is one group.
type ChunkSource interface {
	NextChunk() []uint8
}

// GroupChunks adapts a group source into a chunk source.
type GroupChunks struct {
	Source GroupSource
}

func (g GroupChunks) NextChunk() []uint8 {
	return GroupBits(g.Source.NextGroup())
}

// BitSource turns a chunk source into the continuous differentially-coded
// bitstream fed to a subcarrier modulator. It only touches the chunk source
// at chunk boundaries.
type BitSource struct {
	src    ChunkSource
	pre    Precoder
	buf    []uint8
	pos    int
	chunks uint64
}

func NewBitSource(src ChunkSource) *BitSource {
	return &BitSource{src: src}
}

// NextBit returns the next transmitted bit, pulling and precoding a fresh
// chunk when the current one is exhausted.
func (s *BitSource) NextBit() uint8 {
	if s.pos >= len(s.buf) {
		s.buf = s.pre.Encode(s.src.NextChunk())
		s.pos = 0
		s.chunks++
	}
	b := s.buf[s.pos]
	s.pos++
	return b
}

// AtBoundary reports whether the stream sits exactly between two chunks.
// The engine polls this so shutdown never truncates a checkword.
func (s *BitSource) AtBoundary() bool {
	return s.pos >= len(s.buf)
}

// Chunks returns how many chunks have been emitted.
func (s *BitSource) Chunks() uint64 {
	return s.chunks
}
