// Package harness runs the range-versus-map membership benchmark: it
// builds both structures, times randomized lookups block by block and
// summarizes the latencies.
package harness

import (
	"time"

	"github.com/weiihann/lookupbench/stats"
)

// Sample is one representative observation with raw (unclamped) times.
type Sample struct {
	Value   int    `json:"value"`
	RangeNs uint64 `json:"range_ns"`
	MapNs   uint64 `json:"map_ns"`
}

// BlockStats summarizes one completed block.
type BlockStats struct {
	Block   int           `json:"block"`
	N       int           `json:"n"`
	Range   stats.Summary `json:"range"`
	Map     stats.Summary `json:"map"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Result holds everything a run produced.
type Result struct {
	Config    Config            `json:"config"`
	Seed      int64             `json:"seed"`
	StartedAt time.Time         `json:"started_at"`
	Elapsed   time.Duration     `json:"elapsed_ns"`
	Samples   []Sample          `json:"samples"`
	Blocks    []BlockStats      `json:"blocks"`
	Range     stats.Summary     `json:"range"`
	Map       stats.Summary     `json:"map"`
	Welch     stats.WelchResult `json:"welch"`

	// RangeTimes and MapTimes are the clamped timings of every executed
	// query, in execution order.
	RangeTimes []uint32 `json:"-"`
	MapTimes   []uint32 `json:"-"`
}

// Executed returns the number of queries run against each structure.
func (r *Result) Executed() int {
	return len(r.RangeTimes)
}
