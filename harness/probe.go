package harness

import (
	"math"
	"time"

	"github.com/loov/hrtime"
)

// Clock returns a monotonic reading. Only differences between two
// readings are meaningful.
type Clock func() time.Duration

// Probe times single membership tests. Both methods share one clock and
// the same body so that instrumentation overhead is common to both
// structures.
type Probe struct {
	now Clock

	// sink keeps the membership result observable so the compiler cannot
	// drop the call between the two clock reads.
	sink bool
}

// NewProbe returns a Probe reading now, or hrtime.Now when now is nil.
func NewProbe(now Clock) *Probe {
	if now == nil {
		now = hrtime.Now
	}

	return &Probe{now: now}
}

// Range returns the elapsed nanoseconds of one RangeSet lookup.
func (p *Probe) Range(r *RangeSet, v int) uint64 {
	start := p.now()
	p.sink = r.Contains(v)
	end := p.now()

	return elapsedNs(start, end)
}

// Map returns the elapsed nanoseconds of one MapSet lookup.
func (p *Probe) Map(m MapSet, v int) uint64 {
	start := p.now()
	p.sink = m.Contains(v)
	end := p.now()

	return elapsedNs(start, end)
}

// hit reports the result of the most recent lookup.
func (p *Probe) hit() bool {
	return p.sink
}

func elapsedNs(start, end time.Duration) uint64 {
	if end < start {
		return 0
	}

	return uint64(end - start)
}

// Clamp bounds a raw timing to the compact uint32 storage ceiling.
func Clamp(ns uint64) uint32 {
	if ns > math.MaxUint32 {
		return math.MaxUint32
	}

	return uint32(ns)
}
