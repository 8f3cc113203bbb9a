package rds

// Offset words for blocks A..D. The checkword of each on-air block is the
// CRC-10 of its information word XORed with the offset for its position, which
// is how receivers find block boundaries and ordering.
const (
	OffsetA = 0x0FC
	OffsetB = 0x198
	OffsetC = 0x168
	OffsetD = 0x1B4
)

// g(x) = x^10 + x^8 + x^7 + x^5 + x^4 + x^3 + 1
const crcPoly = 0x5B9

const (
	// BlockBits is the on-air size of one block: 16 information bits plus a
	// 10-bit checkword.
	BlockBits = 26
	// GroupBits4 is the on-air size of a whole group of four blocks.
	GroupBits4 = 4 * BlockBits
)

// Checkword computes the 10-bit CRC over a 16-bit information word: the
// remainder of word(x)·x^10 divided by g(x). The word is processed MSB first
// with 10 zero bits appended, exactly as transmitted.
func Checkword(word uint16) uint16 {
	var reg uint32
	data := uint32(word) << 10
	for mask := uint32(1) << 25; mask != 0; mask >>= 1 {
		reg <<= 1
		if data&mask != 0 {
			reg |= 1
		}
		if reg&(1<<10) != 0 {
			reg ^= crcPoly
		}
	}
	return uint16(reg & 0x3FF)
}

// EncodeBlock forms a 26-bit block: information word followed by its checkword
// XORed with the offset word. The offset lands only in the checkword, never in
// the information bits.
func EncodeBlock(word, offset uint16) uint32 {
	return uint32(word)<<10 | uint32((Checkword(word)^offset)&0x3FF)
}

// Syndrome re-derives the checkword of a received 26-bit block under the given
// offset. A zero result means the block is consistent.
func Syndrome(block uint32, offset uint16) uint16 {
	word := uint16(block >> 10)
	cw := uint16(block & 0x3FF)
	return Checkword(word) ^ offset ^ cw
}
