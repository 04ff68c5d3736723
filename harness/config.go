package harness

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned for out-of-domain run parameters.
// It is always reported before any measurement starts.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Config holds the fixed parameters of one run.
type Config struct {
	// Elements is the size of both structures.
	Elements int `json:"elements"`
	// Queries is the total lookup budget per structure.
	Queries int `json:"queries"`
	// Blocks is the number of equal partitions of Queries. Any remainder
	// of Queries/Blocks is not executed.
	Blocks int `json:"blocks"`
	// SampleCap bounds the number of representative samples kept.
	SampleCap int `json:"sample_cap"`
	// Seed drives query generation; 0 picks a time-based seed.
	Seed int64 `json:"seed"`
	// ProgressEvery logs progress every that many iterations within a
	// block; 0 disables it.
	ProgressEvery int `json:"progress_every"`
}

// Validate checks every parameter and names the first offending one.
func (c Config) Validate() error {
	switch {
	case c.Elements <= 0:
		return fmt.Errorf("%w: elements must be > 0, got %d",
			ErrInvalidConfiguration, c.Elements)
	case c.Queries <= 0:
		return fmt.Errorf("%w: queries must be > 0, got %d",
			ErrInvalidConfiguration, c.Queries)
	case c.Blocks <= 0:
		return fmt.Errorf("%w: blocks must be > 0, got %d",
			ErrInvalidConfiguration, c.Blocks)
	case c.SampleCap < 0:
		return fmt.Errorf("%w: sample cap must be >= 0, got %d",
			ErrInvalidConfiguration, c.SampleCap)
	case c.ProgressEvery < 0:
		return fmt.Errorf("%w: progress interval must be >= 0, got %d",
			ErrInvalidConfiguration, c.ProgressEvery)
	}

	return nil
}

// BlockSize returns the number of queries executed per block.
func (c Config) BlockSize() int {
	if c.Blocks <= 0 {
		return 0
	}

	return c.Queries / c.Blocks
}
