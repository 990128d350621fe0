package harness

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/weiihann/flopper/kernel"
)

// ScenarioConfig holds parameters for a single scaling scenario.
type ScenarioConfig struct {
	// TotalIterations is the global budget split evenly across
	// workers.
	TotalIterations uint64

	// Threads is the number of concurrent workers; must be >= 1.
	Threads int

	// Precision is passed through to every kernel run.
	Precision kernel.Precision

	// Samples is how many times the whole scenario is repeated for
	// a mean/min/max summary. Zero means one sample.
	Samples int

	// ForcePortable pins the kernel's pure-Go path.
	ForcePortable bool
}

// Runner executes scaling scenarios.
type Runner struct {
	Logger *slog.Logger
}

// NewRunner creates a Runner that logs scenario progress to logger.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{Logger: logger}
}

// SplitIterations returns the per-thread share of a total budget.
// Integer division truncates: at most threads-1 iterations of the
// budget are dropped, an accepted approximation rather than a bug.
func SplitIterations(total uint64, threads int) uint64 {
	if threads < 1 {
		return 0
	}
	return total / uint64(threads)
}

// Run executes one scenario: it spawns cfg.Threads workers, each
// running the kernel once with its share of the budget, joins them,
// and sums their throughput. With Samples > 1 the pass repeats and the
// aggregate is summarized across passes. The context is only checked
// between samples; a running kernel pass is never interrupted.
func (r *Runner) Run(ctx context.Context, cfg ScenarioConfig) (*ScenarioResult, error) {
	if cfg.Threads < 1 {
		return nil, fmt.Errorf("scenario requires at least 1 thread, got %d", cfg.Threads)
	}

	samples := cfg.Samples
	if samples < 1 {
		samples = 1
	}

	share := SplitIterations(cfg.TotalIterations, cfg.Threads)

	result := &ScenarioResult{
		Threads:             cfg.Threads,
		Precision:           cfg.Precision,
		IterationsPerThread: share,
		Samples:             make([]Sample, 0, samples),
	}

	r.Logger.Info("running scenario",
		slog.Int("threads", cfg.Threads),
		slog.String("precision", cfg.Precision.String()),
		slog.Uint64("iterations_per_thread", share),
		slog.Int("samples", samples),
	)

	for i := 0; i < samples; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scenario cancelled after %d samples: %w", i, err)
		}

		sample, err := r.runSample(cfg, share)
		if err != nil {
			return nil, err
		}

		result.Samples = append(result.Samples, sample)
	}

	if err := summarize(result); err != nil {
		return nil, fmt.Errorf("summarize scenario: %w", err)
	}

	r.Logger.Info("scenario finished",
		slog.Int("threads", cfg.Threads),
		slog.String("precision", cfg.Precision.String()),
		slog.Float64("aggregate_gflops", result.AggregateFLOPS/1e9),
	)

	return result, nil
}

// runSample does one fan-out/join pass. Each worker owns its result
// slot, so the WaitGroup join is the only synchronization point.
func (r *Runner) runSample(cfg ScenarioConfig, share uint64) (Sample, error) {
	results := make([]kernel.Result, cfg.Threads)
	errs := make([]error, cfg.Threads)

	var wg sync.WaitGroup

	start := time.Now()

	for i := 0; i < cfg.Threads; i++ {
		wg.Add(1)

		go func(id int) {
			defer wg.Done()

			// Pin the worker to an OS thread so the scheduler
			// cannot migrate it mid-measurement.
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			results[id], errs[id] = kernel.Run(kernel.Config{
				Iterations:    share,
				Precision:     cfg.Precision,
				ForcePortable: cfg.ForcePortable,
			})
		}(i)
	}

	wg.Wait()

	wall := time.Since(start)

	for id, err := range errs {
		if err != nil {
			return Sample{}, fmt.Errorf("worker %d: %w", id, err)
		}
	}

	sample := Sample{
		PerThread: results,
		Wall:      wall,
	}
	for _, res := range results {
		sample.AggregateFLOPS += res.FLOPS
	}

	return sample, nil
}

func summarize(result *ScenarioResult) error {
	aggregates := make([]float64, len(result.Samples))
	for i, s := range result.Samples {
		aggregates[i] = s.AggregateFLOPS
	}

	mean, err := stats.Mean(aggregates)
	if err != nil {
		return fmt.Errorf("mean: %w", err)
	}

	min, err := stats.Min(aggregates)
	if err != nil {
		return fmt.Errorf("min: %w", err)
	}

	max, err := stats.Max(aggregates)
	if err != nil {
		return fmt.Errorf("max: %w", err)
	}

	result.AggregateFLOPS = mean
	result.MinFLOPS = min
	result.MaxFLOPS = max

	return nil
}
