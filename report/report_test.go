package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/weiihann/flopper/harness"
	"github.com/weiihann/flopper/kernel"
)

func testReport() Report {
	scenario := func(threads int, flops float64) *harness.ScenarioResult {
		return &harness.ScenarioResult{
			Threads:             threads,
			IterationsPerThread: 100_000_000 / uint64(threads),
			Samples: []harness.Sample{{
				AggregateFLOPS: flops,
				Wall:           time.Second,
			}},
			AggregateFLOPS: flops,
			MinFLOPS:       flops,
			MaxFLOPS:       flops,
		}
	}

	return Report{
		Iterations:      100_000_000,
		Unroll:          kernel.Unroll,
		Path:            kernel.PathInfo{Name: "avx512", WidthSingle: 16, WidthDouble: 8},
		CPUFeatures:     "FMA, AVX2, AVX512F",
		HardwareThreads: 16,
		Samples:         1,
		SingleThread: ScenarioPair{
			Threads: 1,
			Single:  scenario(1, 120e9),
			Double:  scenario(1, 60e9),
		},
		Scaling: []ScenarioPair{
			{
				Threads: 4,
				Single:  scenario(4, 400e9),
				Double:  scenario(4, 200e9),
			},
			{
				Threads: 8,
				Single:  scenario(8, 700e9),
				Double:  scenario(8, 350e9),
			},
		},
	}
}

func TestGenerateOrdering(t *testing.T) {
	var buf bytes.Buffer
	if err := Generate(&buf, testReport()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	// Spec order: parameters, single-thread results, hardware
	// thread count, then the scaling blocks.
	sections := []string{
		"Parameters:",
		"iterations: 100,000,000",
		"unroll:     10x",
		"16 x float32 / 8 x float64 (avx512)",
		"Single thread:",
		"FP32: 120.00 GFLOPS",
		"FP64: 60.00 GFLOPS",
		"Hardware threads: 16",
		"4 threads:",
		"FP32: 400.00 GFLOPS",
		"8 threads:",
		"FP64: 350.00 GFLOPS",
	}

	pos := -1
	for _, section := range sections {
		idx := strings.Index(output, section)
		if idx < 0 {
			t.Fatalf("missing %q in output:\n%s", section, output)
		}
		if idx < pos {
			t.Errorf("%q appears out of order", section)
		}
		pos = idx
	}
}

func TestGenerateSampleSpread(t *testing.T) {
	rep := testReport()
	rep.Samples = 3
	rep.SingleThread.Single.MinFLOPS = 110e9
	rep.SingleThread.Single.MaxFLOPS = 130e9

	var buf bytes.Buffer
	if err := Generate(&buf, rep); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "samples:    3 per scenario") {
		t.Error("expected sample count in parameter banner")
	}
	if !strings.Contains(output, "(min 110.00 GFLOPS, max 130.00 GFLOPS)") {
		t.Errorf("expected min/max spread in output:\n%s", output)
	}
}

func TestGenerateMissingSingleThread(t *testing.T) {
	rep := testReport()
	rep.SingleThread.Single = nil
	rep.SingleThread.Double = nil

	var buf bytes.Buffer
	if err := Generate(&buf, rep); err == nil {
		t.Error("expected error for missing single-thread results")
	}
}

// A run restricted to one precision still produces a full report; the
// absent precision's lines are simply omitted.
func TestGenerateSinglePrecisionOnly(t *testing.T) {
	rep := testReport()
	rep.SingleThread.Double = nil
	for i := range rep.Scaling {
		rep.Scaling[i].Double = nil
	}

	var buf bytes.Buffer
	if err := Generate(&buf, rep); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "FP32: 120.00 GFLOPS") {
		t.Error("expected FP32 line in output")
	}
	if strings.Contains(output, "FP64") {
		t.Errorf("unexpected FP64 line in output:\n%s", output)
	}
}

func TestGenerateJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := GenerateJSON(&buf, testReport()); err != nil {
		t.Fatalf("GenerateJSON failed: %v", err)
	}

	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if decoded.Iterations != 100_000_000 {
		t.Errorf("iterations = %d, want 100000000", decoded.Iterations)
	}
	if len(decoded.Scaling) != 2 {
		t.Errorf("scaling scenarios = %d, want 2", len(decoded.Scaling))
	}
	if decoded.SingleThread.Single.AggregateFLOPS != 120e9 {
		t.Errorf("single-thread FP32 = %v, want 1.2e11",
			decoded.SingleThread.Single.AggregateFLOPS)
	}
}

func TestNumHardwareThreads(t *testing.T) {
	if n := NumHardwareThreads(); n < 1 {
		t.Errorf("hardware threads = %d, want >= 1", n)
	}
}
