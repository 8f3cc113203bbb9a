package stream

import "sync/atomic"

// Ring is a single-producer single-consumer sample queue. The generator
// goroutine pushes, the audio callback pops; neither side ever blocks or
// allocates, which is what a real-time callback needs.
type Ring struct {
	buf  []float32
	mask uint32
	head atomic.Uint32 // next write index
	tail atomic.Uint32 // next read index
}

// NewRing makes a ring holding at least n samples, rounded up to a power of
// two so index wrap is a mask.
func NewRing(n int) *Ring {
	size := 1
	for size < n {
		size <<= 1
	}
	return &Ring{buf: make([]float32, size), mask: uint32(size - 1)}
}

func (r *Ring) Cap() int {
	return len(r.buf)
}

func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Push appends one sample; false if the ring is full.
func (r *Ring) Push(v float32) bool {
	h := r.head.Load()
	if h-r.tail.Load() == uint32(len(r.buf)) {
		return false
	}
	r.buf[h&r.mask] = v
	r.head.Store(h + 1)
	return true
}

// Pop removes one sample; false if the ring is empty.
func (r *Ring) Pop() (float32, bool) {
	t := r.tail.Load()
	if t == r.head.Load() {
		return 0, false
	}
	v := r.buf[t&r.mask]
	r.tail.Store(t + 1)
	return v, true
}
