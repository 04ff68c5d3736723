package harness

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/weiihann/lookupbench/stats"
	"github.com/weiihann/lookupbench/workload"
	"golang.org/x/sync/errgroup"
)

// BlockObserver is notified once per completed block, in block order.
type BlockObserver interface {
	ObserveBlock(BlockStats)
}

// Runner drives the block-partitioned measurement loop.
type Runner struct {
	Logger *slog.Logger

	// Clock overrides the probe clock; nil uses hrtime.Now.
	Clock Clock

	// Observer, if set, receives every block record as it is produced.
	Observer BlockObserver
}

// NewRunner creates a Runner logging to logger.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{
		Logger: logger.With(slog.String("component", "runner")),
	}
}

// Run executes the benchmark described by cfg. Validation failures are
// returned before any structure is built. The context is checked between
// blocks; a cancelled run returns no partial result.
func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rangeSet, mapSet, err := Build(cfg.Elements)
	if err != nil {
		return nil, fmt.Errorf("build structures: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	gen := workload.NewGenerator(workload.Config{
		Elements: cfg.Elements,
		Seed:     seed,
	})
	probe := NewProbe(r.Clock)

	blockSize := cfg.BlockSize()
	executed := blockSize * cfg.Blocks

	res := &Result{
		Config:     cfg,
		Seed:       seed,
		StartedAt:  time.Now(),
		Samples:    make([]Sample, 0, min(cfg.SampleCap, executed)),
		Blocks:     make([]BlockStats, 0, cfg.Blocks),
		RangeTimes: make([]uint32, 0, executed),
		MapTimes:   make([]uint32, 0, executed),
	}

	r.Logger.InfoContext(ctx, "starting run",
		slog.Int("elements", cfg.Elements),
		slog.Int("queries", cfg.Queries),
		slog.Int("blocks", cfg.Blocks),
		slog.Int("block_size", blockSize),
		slog.Int("sample_cap", cfg.SampleCap),
		slog.Int64("seed", seed),
	)

	for block := 1; block <= cfg.Blocks; block++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("block %d: %w", block, err)
		}

		logger := r.Logger.With(slog.Int("block", block))
		logger.DebugContext(ctx, "starting block")

		offset := len(res.RangeTimes)
		blockStart := time.Now()

		for i := 0; i < blockSize; i++ {
			v := gen.Next()

			rangeNs := probe.Range(rangeSet, v)
			mapNs := probe.Map(mapSet, v)

			res.RangeTimes = append(res.RangeTimes, Clamp(rangeNs))
			res.MapTimes = append(res.MapTimes, Clamp(mapNs))

			if len(res.Samples) < cfg.SampleCap {
				res.Samples = append(res.Samples, Sample{
					Value:   v,
					RangeNs: rangeNs,
					MapNs:   mapNs,
				})
			}

			if cfg.ProgressEvery > 0 && (i+1)%cfg.ProgressEvery == 0 {
				logger.InfoContext(ctx, "progress",
					slog.Int("done", i+1),
					slog.Int("block_size", blockSize),
					slog.Duration("elapsed", time.Since(blockStart)),
				)
			}
		}

		bs, err := summarizeBlock(
			ctx,
			block,
			res.RangeTimes[offset:],
			res.MapTimes[offset:],
		)
		if err != nil {
			return nil, err
		}

		bs.Elapsed = time.Since(blockStart)
		res.Blocks = append(res.Blocks, bs)

		logger.InfoContext(ctx, "block finished",
			slog.Int("n", bs.N),
			slog.Float64("range_mean_ns", bs.Range.Mean),
			slog.Float64("map_mean_ns", bs.Map.Mean),
			slog.Float64("range_median_ns", bs.Range.Median),
			slog.Float64("map_median_ns", bs.Map.Median),
			slog.Duration("elapsed", bs.Elapsed),
		)

		if r.Observer != nil {
			r.Observer.ObserveBlock(bs)
		}
	}

	res.Elapsed = time.Since(res.StartedAt)

	if err := r.summarizeGlobal(ctx, res); err != nil {
		return nil, err
	}

	r.Logger.InfoContext(ctx, "run finished",
		slog.Int("executed", res.Executed()),
		slog.Float64("t", res.Welch.T),
		slog.Float64("df", res.Welch.DF),
		slog.Float64("p_two_tailed", res.Welch.PTwoTailed),
		slog.Duration("elapsed", res.Elapsed),
	)

	return res, nil
}

// summarizeBlock computes the record of one block from its own timings
// only. Measurement is finished by the time this runs, so both
// structures are summarized concurrently.
func summarizeBlock(
	ctx context.Context,
	block int,
	rangeTimes, mapTimes []uint32,
) (BlockStats, error) {
	bs := BlockStats{Block: block, N: len(rangeTimes)}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := stats.Summarize(rangeTimes)
		if err != nil {
			return fmt.Errorf("block %d range summary: %w", block, err)
		}
		bs.Range = s

		return nil
	})
	g.Go(func() error {
		s, err := stats.Summarize(mapTimes)
		if err != nil {
			return fmt.Errorf("block %d map summary: %w", block, err)
		}
		bs.Map = s

		return nil
	})

	if err := g.Wait(); err != nil {
		return BlockStats{}, err
	}

	return bs, nil
}

func (r *Runner) summarizeGlobal(ctx context.Context, res *Result) error {
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := stats.Summarize(res.RangeTimes)
		if err != nil {
			return fmt.Errorf("global range summary: %w", err)
		}
		res.Range = s

		return nil
	})
	g.Go(func() error {
		s, err := stats.Summarize(res.MapTimes)
		if err != nil {
			return fmt.Errorf("global map summary: %w", err)
		}
		res.Map = s

		return nil
	})
	g.Go(func() error {
		w, err := stats.Welch(res.RangeTimes, res.MapTimes)
		if err != nil {
			return fmt.Errorf("welch test: %w", err)
		}
		res.Welch = w

		return nil
	})

	return g.Wait()
}
