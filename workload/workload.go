// Package workload generates deterministic query streams for membership
// benchmarks. Every query is drawn uniformly from [0, Elements).
package workload

import (
	"encoding/json"
	"fmt"
	"io"
	mrand "math/rand"
)

// Query is one line of an exported query stream.
type Query struct {
	Index int `json:"index"`
	Value int `json:"value"`
}

// Summary contains statistics about an exported stream.
type Summary struct {
	TotalQueries int
	MinValue     int
	MaxValue     int
}

// Config controls query generation.
type Config struct {
	Elements int
	Seed     int64
}

// Generator produces a deterministic query stream from a Config.
type Generator struct {
	cfg Config
	rng *mrand.Rand
}

// NewGenerator creates a Generator from the given Config. Elements must
// be positive.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		cfg: cfg,
		rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

// Next returns the next query value.
func (g *Generator) Next() int {
	return g.rng.Intn(g.cfg.Elements)
}

// Generate writes count queries to w as JSONL and returns a Summary.
func (g *Generator) Generate(w io.Writer, count int) (Summary, error) {
	if g.cfg.Elements <= 0 {
		return Summary{}, fmt.Errorf(
			"elements must be > 0, got %d", g.cfg.Elements,
		)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	var summary Summary

	for i := 0; i < count; i++ {
		v := g.Next()

		if err := enc.Encode(Query{Index: i, Value: v}); err != nil {
			return summary, fmt.Errorf("encode query %d: %w", i, err)
		}

		if summary.TotalQueries == 0 || v < summary.MinValue {
			summary.MinValue = v
		}
		if v > summary.MaxValue {
			summary.MaxValue = v
		}

		summary.TotalQueries++
	}

	return summary, nil
}
