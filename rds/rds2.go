package rds

// The RDS2 sideband layout carries no compliance guarantee, so the per-stream
// schedule is a table rather than fixed behavior: each entry names what the
// next chunk carries. Every sideband gets its own RDS2Stream instance with its
// own group rotation, making the sideband bitstreams independent of the
// primary 57 kHz stream and of each other.
type StreamKind int

const (
	// ChunkText is a radiotext (2A) group built from the station config.
	ChunkText StreamKind = iota
	// ChunkLogo is one group-sized slice of the framed station logo.
	ChunkLogo
)

// DefaultRDS2Schedule favors the logo payload while keeping text present.
var DefaultRDS2Schedule = []StreamKind{ChunkLogo, ChunkLogo, ChunkText}

// RDS2Stream emits chunks for one sideband carrier.
type RDS2Stream struct {
	schedule []StreamKind
	logo     *LogoFrame
	builder  *GroupBuilder
	tick     int
}

// NewRDS2Stream builds a sideband stream. A nil logo degrades every logo slot
// to text so the carrier is never silent. The station snapshot is fixed for
// the session; sidebands do not track live updates.
func NewRDS2Stream(s Station, logo *LogoFrame, schedule []StreamKind) *RDS2Stream {
	if len(schedule) == 0 {
		schedule = DefaultRDS2Schedule
	}
	return &RDS2Stream{
		schedule: schedule,
		logo:     logo,
		builder:  NewGroupBuilder(s, nil),
	}
}

func (r *RDS2Stream) NextChunk() []uint8 {
	kind := r.schedule[r.tick%len(r.schedule)]
	r.tick++
	if kind == ChunkLogo && r.logo != nil {
		return r.logo.chunk(GroupBits4)
	}
	return GroupBits(r.builder.NextGroup())
}
