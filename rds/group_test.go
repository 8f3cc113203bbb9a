package rds

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStation(t *testing.T) Station {
	s := Station{PI: 0x1234, PS: "TESTFM", RT: "Now playing nothing"}
	require.NoError(t, s.Validate())
	return s
}

func TestScheduleCadence(t *testing.T) {
	b := NewGroupBuilder(testStation(t), nil)
	var types []string
	for i := 0; i < 9; i++ {
		types = append(types, b.NextGroup().Type)
	}
	assert.Equal(t, []string{"0A", "0A", "2A", "0A", "0A", "2A", "0A", "0A", "2A"}, types)
}

func TestFirstGroupCarriesPI(t *testing.T) {
	// PI=0x1234, PS="TESTFM  ": the first 0A group's block A must decode
	// straight back to the PI code.
	b := NewGroupBuilder(testStation(t), nil)
	g := b.NextGroup()
	require.Equal(t, "0A", g.Type)
	assert.Equal(t, uint16(0x1234), uint16(g.Blocks()[0]>>10))
	assert.Zero(t, Syndrome(g.Blocks()[0], OffsetA))
}

func TestPSPairsCoverName(t *testing.T) {
	b := NewGroupBuilder(testStation(t), nil)
	var ps []byte
	for len(ps) < PSLength {
		g := b.NextGroup()
		if g.Type != "0A" {
			continue
		}
		seg := g.Words[1] & 0x3
		require.Equal(t, len(ps)/2, int(seg), "segments must arrive in order")
		ps = append(ps, byte(g.Words[3]>>8), byte(g.Words[3]))
	}
	assert.Equal(t, "TESTFM  ", string(ps))
}

func TestRadiotextSegments(t *testing.T) {
	st := testStation(t)
	b := NewGroupBuilder(st, nil)
	text := make([]byte, 0, RTMaxLength)
	for len(text) < RTMaxLength {
		g := b.NextGroup()
		if g.Type != "2A" {
			continue
		}
		text = append(text,
			byte(g.Words[2]>>8), byte(g.Words[2]),
			byte(g.Words[3]>>8), byte(g.Words[3]))
	}
	assert.Equal(t, pad(st.RT, RTMaxLength), string(text))
}

func TestBlockBLayout(t *testing.T) {
	st := testStation(t)
	st.TP = true
	st.TA = true
	st.PTY = 10
	b := NewGroupBuilder(st, nil)

	g := b.NextGroup()
	wb := g.Words[1]
	assert.Equal(t, uint16(0), wb>>12, "group type")
	assert.Zero(t, wb&(1<<11), "version A")
	assert.NotZero(t, wb&(1<<10), "TP")
	assert.Equal(t, uint16(10), (wb>>5)&0x1F, "PTY")
	assert.NotZero(t, wb&(1<<4), "TA")

	b.NextGroup()
	wb = b.NextGroup().Words[1]
	assert.Equal(t, uint16(2), wb>>12, "third group is 2A")
}

func TestAFPairInBlockC(t *testing.T) {
	st := testStation(t)
	st.AF = []float64{98.5, 101.1}
	require.NoError(t, st.Validate())
	b := NewGroupBuilder(st, nil)

	g := b.NextGroup()
	// First pair: count code 224+2 then the 98.5 MHz channel code.
	assert.Equal(t, uint16(226), g.Words[2]>>8)
	assert.Equal(t, uint16(110), g.Words[2]&0xFF)
}

func TestUpdateAppliedAtGroupBoundaryOnly(t *testing.T) {
	st := testStation(t)
	var u Updater
	b := NewGroupBuilder(st, &u)

	b.NextGroup() // seg 0
	next := st
	next.PS = "NEWNAME"
	require.NoError(t, u.Post(next))

	g := b.NextGroup()
	require.Equal(t, "0A", g.Type)
	seg := g.Words[1] & 0x3
	// The new PS shows up whole at the next group; the pair index keeps
	// rotating so receivers never see a torn name at a fixed segment.
	assert.Equal(t, uint16(1), seg)
	assert.Equal(t, "WN", string([]byte{byte(g.Words[3] >> 8), byte(g.Words[3])}))
}

func TestRadiotextChangeFlipsABFlag(t *testing.T) {
	st := testStation(t)
	var u Updater
	b := NewGroupBuilder(st, &u)

	b.NextGroup()
	b.NextGroup()
	ab0 := b.NextGroup().Words[1] & (1 << 4)

	next := st
	next.RT = "Something new"
	require.NoError(t, u.Post(next))
	b.NextGroup()
	b.NextGroup()
	ab1 := b.NextGroup().Words[1] & (1 << 4)
	assert.NotEqual(t, ab0, ab1)
}

func TestBuilderDeterminism(t *testing.T) {
	a := NewGroupBuilder(testStation(t), nil)
	b := NewGroupBuilder(testStation(t), nil)
	for i := 0; i < 48; i++ {
		assert.Equal(t, a.NextGroup(), b.NextGroup())
	}
}
