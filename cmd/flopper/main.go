// Package main provides the CLI entry point for flopper, a CPU
// floating-point throughput benchmark built on a saturating FMA
// kernel.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/weiihann/flopper/harness"
	"github.com/weiihann/flopper/kernel"
	"github.com/weiihann/flopper/report"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Error("benchmark failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "flopper",
		Short: "CPU FMA throughput benchmark",
		Long: `Flopper measures sustained floating-point throughput of a CPU by
running saturating fused-multiply-add instruction streams, single-threaded and
scaled across multiple threads, and reports GFLOPS per scenario.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(logger))

	return root
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		iterations uint64
		threads    []int
		precisions []string
		samples    int
		portable   bool
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the FMA throughput benchmark",
		Long: `Run a single-threaded measurement at single and double precision,
then one scaling scenario per requested thread count, splitting the iteration
budget evenly across that many OS threads.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBenchmark(cmd.Context(), logger, runConfig{
				iterations: iterations,
				threads:    threads,
				precisions: precisions,
				samples:    samples,
				portable:   portable,
				outputJSON: outputJSON,
			})
		},
	}

	flags := cmd.Flags()
	flags.Uint64Var(&iterations, "iterations", 100_000_000,
		"Total FMA update cycles per scenario")
	flags.IntSliceVar(&threads, "threads", []int{4, 8, 16},
		"Thread counts for the scaling scenarios")
	flags.StringSliceVar(&precisions, "precision", []string{"single", "double"},
		"Precisions to measure (single, double)")
	flags.IntVar(&samples, "samples", 1,
		"Passes per scenario; >1 adds a min/max spread to the report")
	flags.BoolVar(&portable, "portable", false,
		"Force the pure-Go kernel instead of the vector path")
	flags.BoolVar(&outputJSON, "json", false,
		"Output the report as JSON instead of text")

	return cmd
}

type runConfig struct {
	iterations uint64
	threads    []int
	precisions []string
	samples    int
	portable   bool
	outputJSON bool
}

// parsePrecisions maps flag values to kernel precisions, rejecting
// unknown names and duplicates.
func parsePrecisions(names []string) ([]kernel.Precision, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one precision must be selected")
	}

	seen := make(map[kernel.Precision]bool, len(names))
	precisions := make([]kernel.Precision, 0, len(names))

	for _, name := range names {
		var p kernel.Precision

		switch name {
		case "single":
			p = kernel.Single
		case "double":
			p = kernel.Double
		default:
			return nil, fmt.Errorf(
				"unknown precision %q (want single or double)", name,
			)
		}

		if seen[p] {
			continue
		}
		seen[p] = true

		precisions = append(precisions, p)
	}

	return precisions, nil
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	cfg runConfig,
) error {
	for _, t := range cfg.threads {
		if t < 1 {
			return fmt.Errorf("invalid thread count %d", t)
		}
	}

	precisions, err := parsePrecisions(cfg.precisions)
	if err != nil {
		return err
	}

	path := kernel.DefaultPath()
	if cfg.portable {
		path = kernel.PortablePath()
	}

	features := kernel.CPUFeatures()

	logger.InfoContext(ctx, "starting benchmark",
		slog.Uint64("iterations", cfg.iterations),
		slog.Any("threads", cfg.threads),
		slog.String("path", path.Name),
		slog.String("cpu_features", features.Summary()),
	)

	if path.Name == "portable" && !cfg.portable {
		logger.WarnContext(ctx, "no vector FMA extension detected, "+
			"falling back to the pure-Go kernel; figures will not "+
			"reflect peak hardware throughput")
	}

	logger.InfoContext(ctx, "warming up")
	kernel.Warmup()

	runner := harness.NewRunner(logger)

	rep := report.Report{
		Iterations:      cfg.iterations,
		Unroll:          kernel.Unroll,
		Path:            path,
		CPUFeatures:     features.Summary(),
		HardwareThreads: report.NumHardwareThreads(),
		Samples:         cfg.samples,
	}

	// Single-thread baseline first, then each scaling scenario.
	pair, err := runPair(ctx, runner, cfg, precisions, 1)
	if err != nil {
		return err
	}

	rep.SingleThread = pair

	for _, t := range cfg.threads {
		pair, err := runPair(ctx, runner, cfg, precisions, t)
		if err != nil {
			return err
		}

		rep.Scaling = append(rep.Scaling, pair)
	}

	if cfg.outputJSON {
		if err := report.GenerateJSON(os.Stdout, rep); err != nil {
			return fmt.Errorf("generate JSON report: %w", err)
		}
	} else {
		if err := report.Generate(os.Stdout, rep); err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
	}

	logger.InfoContext(ctx, "benchmark complete")

	return nil
}

// runPair measures one thread count at each selected precision,
// sequentially, with the single-precision pass preceding the double
// one.
func runPair(
	ctx context.Context,
	runner *harness.Runner,
	cfg runConfig,
	precisions []kernel.Precision,
	threads int,
) (report.ScenarioPair, error) {
	pair := report.ScenarioPair{Threads: threads}

	for _, precision := range precisions {
		res, err := runner.Run(ctx, harness.ScenarioConfig{
			TotalIterations: cfg.iterations,
			Threads:         threads,
			Precision:       precision,
			Samples:         cfg.samples,
			ForcePortable:   cfg.portable,
		})
		if err != nil {
			return pair, fmt.Errorf(
				"%d-thread %s scenario: %w", threads, precision, err,
			)
		}

		switch precision {
		case kernel.Single:
			pair.Single = res
		case kernel.Double:
			pair.Double = res
		}
	}

	return pair, nil
}
