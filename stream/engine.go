package stream

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chzchzchz/mpxgen/audio"
	"github.com/chzchzchz/mpxgen/mpx"
)

// State tracks the engine through its lifecycle. Transitions only move
// forward: Idle, Priming, Running, Draining, Stopped.
type State int32

const (
	Idle State = iota
	Priming
	Running
	Draining
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Priming:
		return "priming"
	case Running:
		return "running"
	case Draining:
		return "draining"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// When the callback outruns the generator the last sample is held and decayed
// toward zero instead of snapping to silence, which would click.
const underrunDecay = 0.996

const produceChunk = 512

// Engine moves composite samples from the generator to a pull-style sink.
// The generator runs in its own goroutine feeding the ring; the sink's
// callback calls Pull. Stopping waits for the next data group boundary so a
// receiver never sees a truncated group.
type Engine struct {
	gen      *mpx.Generator
	src      audio.Source
	boundary func() bool

	ring      *Ring
	state     atomic.Int32
	underruns atomic.Uint64
	stopReq   atomic.Bool
	done      chan struct{}

	last float32
}

// NewEngine builds an engine buffered for about a quarter second at the
// generator's rate. boundary reports whether the data stream is between
// groups; stop requests take effect there.
func NewEngine(gen *mpx.Generator, src audio.Source, boundary func() bool) *Engine {
	return &Engine{
		gen:      gen,
		src:      src,
		boundary: boundary,
		ring:     NewRing(gen.SampleRate() / 4),
		done:     make(chan struct{}),
	}
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) Underruns() uint64 {
	return e.underruns.Load()
}

// Stop requests a stop at the next group boundary.
func (e *Engine) Stop() {
	e.stopReq.Store(true)
}

// Done is closed once the ring has fully drained after a stop.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Run generates samples until the source ends or a stop lands on a group
// boundary, then drains. It blocks; run it in a goroutine.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)
	e.state.Store(int32(Priming))
	log.Debug("engine priming", "ring", e.ring.Cap())
	go e.watch()

	l := make([]float64, produceChunk)
	r := make([]float64, produceChunk)
	var srcErr error
produce:
	for {
		n, err := e.src.ReadStereo(l, r)
		for i := 0; i < n; i++ {
			v := e.gen.Next(l[i], r[i])
			for !e.ring.Push(v) {
				if e.State() == Priming {
					e.state.Store(int32(Running))
					log.Debug("engine running")
				}
				select {
				case <-time.After(time.Millisecond):
				case <-ctx.Done():
					e.stopReq.Store(true)
				}
			}
			if e.stopReq.Load() && e.boundary() {
				break produce
			}
		}
		if err != nil {
			if err != io.EOF {
				srcErr = err
			}
			e.stopReq.Store(true)
		}
		select {
		case <-ctx.Done():
			e.stopReq.Store(true)
		default:
		}
		if e.stopReq.Load() {
			// Pad with silence until the group in flight completes.
			for !e.boundary() {
				v := e.gen.Next(0, 0)
				for !e.ring.Push(v) {
					time.Sleep(time.Millisecond)
				}
			}
			break
		}
	}

	e.state.Store(int32(Draining))
	log.Debug("engine draining", "buffered", e.ring.Len())
	for e.ring.Len() > 0 {
		time.Sleep(time.Millisecond)
	}
	e.state.Store(int32(Stopped))
	log.Info("engine stopped",
		"frames", e.gen.Frames(),
		"underruns", e.Underruns(),
		"clips", e.gen.Clips())
	return srcErr
}

// watch logs degradation totals while the session runs, not per event.
func (e *Engine) watch() {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()
	var lastU, lastC uint64
	for {
		select {
		case <-e.done:
			return
		case <-t.C:
			u, c := e.Underruns(), e.gen.Clips()
			if u != lastU || c != lastC {
				log.Warn("stream degraded", "underruns", u, "clips", c)
				lastU, lastC = u, c
			}
		}
	}
}

// Pull fills out from the ring. During priming it emits silence; on underrun
// it holds the last sample with decay and counts the event.
func (e *Engine) Pull(out []float32) {
	st := e.State()
	if st == Idle || st == Priming {
		for i := range out {
			out[i] = 0
		}
		return
	}
	gap := false
	for i := range out {
		if v, ok := e.ring.Pop(); ok {
			e.last = v
			out[i] = v
			continue
		}
		if st == Running && !gap {
			gap = true
			e.underruns.Add(1)
		}
		e.last *= underrunDecay
		out[i] = e.last
	}
}

// Render generates directly into out without the ring, for lock-step sinks
// like files. Returns the frame count; io.EOF after the source ends and the
// final group has been padded out.
func (e *Engine) Render(out []float32) (int, error) {
	e.state.Store(int32(Running))
	l := make([]float64, len(out))
	r := make([]float64, len(out))
	n, err := e.src.ReadStereo(l, r)
	for i := 0; i < n; i++ {
		out[i] = e.gen.Next(l[i], r[i])
	}
	if err == nil {
		return n, nil
	}
	if err != io.EOF {
		return n, err
	}
	for n < len(out) && !e.boundary() {
		out[n] = e.gen.Next(0, 0)
		n++
	}
	if e.boundary() {
		e.state.Store(int32(Stopped))
		return n, io.EOF
	}
	return n, nil
}
