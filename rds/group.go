package rds

// Group is one RDS group: four 16-bit information words tagged with the group
// type that shaped them.
type Group struct {
	Words [4]uint16
	Type  string
}

// Blocks returns the four 26-bit on-air blocks with offsets applied.
func (g Group) Blocks() [4]uint32 {
	return [4]uint32{
		EncodeBlock(g.Words[0], OffsetA),
		EncodeBlock(g.Words[1], OffsetB),
		EncodeBlock(g.Words[2], OffsetC),
		EncodeBlock(g.Words[3], OffsetD),
	}
}

// GroupSource is anything that can emit the next group of a stream.
type GroupSource interface {
	NextGroup() Group
}

// GroupBuilder cycles the group schedule for a station: two 0A groups for
// every 2A group, so the PS name refreshes about every 1.5 s and a full
// radiotext within roughly 12 s at the nominal bit rate.
type GroupBuilder struct {
	station Station
	updater *Updater

	tick  int
	psSeg int // 0..3, PS character pair
	rtSeg int // 0..15, RT four-character segment
	rtAB  bool
	afSeq []uint8
	afIdx int
}

// NewGroupBuilder starts a builder from a validated station. The updater may
// be nil for fixed-configuration sessions.
func NewGroupBuilder(s Station, u *Updater) *GroupBuilder {
	return &GroupBuilder{
		station: s,
		updater: u,
		afSeq:   afSequence(s.AF),
	}
}

// NextGroup emits the next group in the schedule. Pending configuration
// updates are applied here, at the group boundary, and nowhere else.
func (b *GroupBuilder) NextGroup() Group {
	if b.updater != nil {
		if s := b.updater.take(); s != nil {
			if s.RT != b.station.RT {
				// The text A/B flag tells receivers to clear stale text.
				b.rtAB = !b.rtAB
				b.rtSeg = 0
			}
			b.station = *s
			b.afSeq = afSequence(s.AF)
			b.afIdx = 0
		}
	}
	tick := b.tick
	b.tick++
	if tick%3 != 2 {
		return b.group0A()
	}
	return b.group2A()
}

// blockB packs the fields common to every block B: group type, version,
// traffic program flag and program type.
func (b *GroupBuilder) blockB(groupType uint16) uint16 {
	w := groupType << 12
	if b.station.TP {
		w |= 1 << 10
	}
	w |= uint16(b.station.PTY&0x1F) << 5
	return w
}

// group0A carries basic tuning and switching information: one PS character
// pair per group plus a pair of AF codes.
func (b *GroupBuilder) group0A() Group {
	seg := uint16(b.psSeg & 0x3)
	b.psSeg = (b.psSeg + 1) % 4

	wb := b.blockB(0) | seg
	if b.station.TA {
		wb |= 1 << 4
	}
	if b.station.MS {
		wb |= 1 << 3
	}
	if b.station.DI {
		wb |= 1 << 2
	}

	wc := uint16(b.afSeq[b.afIdx])<<8 | uint16(b.afSeq[b.afIdx+1])
	b.afIdx += 2
	if b.afIdx >= len(b.afSeq) {
		b.afIdx = 0
	}

	ps := b.station.PS
	wd := uint16(ps[seg*2])<<8 | uint16(ps[seg*2+1])

	return Group{
		Words: [4]uint16{b.station.PI, wb, wc, wd},
		Type:  "0A",
	}
}

// group2A carries one four-character radiotext segment.
func (b *GroupBuilder) group2A() Group {
	seg := uint16(b.rtSeg & 0xF)
	b.rtSeg = (b.rtSeg + 1) % 16

	wb := b.blockB(2) | seg
	if b.rtAB {
		wb |= 1 << 4
	}

	text := pad(b.station.RT, RTMaxLength)
	i := int(seg) * 4
	wc := uint16(text[i])<<8 | uint16(text[i+1])
	wd := uint16(text[i+2])<<8 | uint16(text[i+3])

	return Group{
		Words: [4]uint16{b.station.PI, wb, wc, wd},
		Type:  "2A",
	}
}
