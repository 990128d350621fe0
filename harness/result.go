// Package harness fans a total iteration budget out across parallel
// worker threads, joins them, and aggregates per-thread throughput.
package harness

import (
	"time"

	"github.com/weiihann/flopper/kernel"
)

// Sample holds the outcome of one pass over all workers.
type Sample struct {
	// PerThread is indexed by worker id; each worker writes only
	// its own slot and the harness reads them after the join.
	PerThread []kernel.Result `json:"per_thread"`

	// AggregateFLOPS is the sum of per-thread throughput. The
	// workers run concurrently over the same wall-clock window, so
	// independent rates add without time weighting.
	AggregateFLOPS float64 `json:"aggregate_flops"`

	// Wall is the dispatch-to-join time of the whole pass.
	Wall time.Duration `json:"wall_ns"`
}

// ScenarioResult holds the outcome of one thread-count scenario.
type ScenarioResult struct {
	Threads   int              `json:"threads"`
	Precision kernel.Precision `json:"-"`

	// IterationsPerThread is the integer share of the budget each
	// worker received; see SplitIterations for the remainder rule.
	IterationsPerThread uint64 `json:"iterations_per_thread"`

	Samples []Sample `json:"samples"`

	// AggregateFLOPS is the mean aggregate across samples; with a
	// single sample it is that sample's aggregate.
	AggregateFLOPS float64 `json:"aggregate_flops"`
	MinFLOPS       float64 `json:"min_flops"`
	MaxFLOPS       float64 `json:"max_flops"`
}
