// Package report formats benchmark results for human and machine
// consumption.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/dustin/go-humanize"

	"github.com/weiihann/flopper/harness"
	"github.com/weiihann/flopper/kernel"
)

// ScenarioPair holds the single- and double-precision results for one
// thread count.
type ScenarioPair struct {
	Threads int                     `json:"threads"`
	Single  *harness.ScenarioResult `json:"single"`
	Double  *harness.ScenarioResult `json:"double"`
}

// Report is the full outcome of a benchmark invocation.
type Report struct {
	Iterations      uint64          `json:"iterations"`
	Unroll          int             `json:"unroll"`
	Path            kernel.PathInfo `json:"path"`
	CPUFeatures     string          `json:"cpu_features"`
	HardwareThreads int             `json:"hardware_threads"`
	Samples         int             `json:"samples"`

	SingleThread ScenarioPair   `json:"single_thread"`
	Scaling      []ScenarioPair `json:"scaling"`
}

// NumHardwareThreads reports the logical CPU count of the machine.
func NumHardwareThreads() int {
	return runtime.NumCPU()
}

// Generate writes the human-readable benchmark report to w, in order:
// parameter banner, single-thread results, hardware thread count, then
// one block per scaling scenario.
func Generate(w io.Writer, rep Report) error {
	if rep.SingleThread.Single == nil && rep.SingleThread.Double == nil {
		return fmt.Errorf("report is missing single-thread results")
	}

	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "   CPU FLOPS benchmark (FMA kernel)")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Parameters:")
	fmt.Fprintf(w, "  iterations: %s\n", humanize.Comma(int64(rep.Iterations)))
	fmt.Fprintf(w, "  unroll:     %dx\n", rep.Unroll)
	fmt.Fprintf(w, "  vector:     %d x float32 / %d x float64 (%s)\n",
		rep.Path.WidthSingle, rep.Path.WidthDouble, rep.Path.Name)
	fmt.Fprintln(w, "  FMA:        2 FLOPs/op (mul + add)")
	fmt.Fprintf(w, "  cpu:        %s\n", rep.CPUFeatures)
	if rep.Samples > 1 {
		fmt.Fprintf(w, "  samples:    %d per scenario\n", rep.Samples)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Single thread:")
	writePair(w, rep.SingleThread, rep.Samples)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Hardware threads: %d\n", rep.HardwareThreads)

	for _, pair := range rep.Scaling {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%d threads:\n", pair.Threads)
		writePair(w, pair, rep.Samples)
	}

	return nil
}

// GenerateJSON writes the report as indented JSON to w.
func GenerateJSON(w io.Writer, rep Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(rep)
}

func writePair(w io.Writer, pair ScenarioPair, samples int) {
	writeLine(w, "FP32", pair.Single, samples)
	writeLine(w, "FP64", pair.Double, samples)
}

func writeLine(w io.Writer, label string, res *harness.ScenarioResult, samples int) {
	if res == nil {
		return
	}

	if samples > 1 {
		fmt.Fprintf(w, "  %s: %s  (min %s, max %s)\n",
			label,
			formatGFLOPS(res.AggregateFLOPS),
			formatGFLOPS(res.MinFLOPS),
			formatGFLOPS(res.MaxFLOPS),
		)

		return
	}

	fmt.Fprintf(w, "  %s: %s\n", label, formatGFLOPS(res.AggregateFLOPS))
}

func formatGFLOPS(flops float64) string {
	return fmt.Sprintf("%.2f GFLOPS", flops/1e9)
}
