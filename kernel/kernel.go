// Package kernel measures sustained floating-point throughput of a
// single CPU thread by running a saturating stream of fused
// multiply-add operations across independent accumulator chains.
package kernel

import (
	"errors"
	"runtime"
	"time"
)

// Unroll is the number of independent accumulator chains updated per
// loop iteration. A single chain would serialize on FMA latency; ten
// chains keep the execution ports busy, which requires Unroll to be at
// least as deep as the hardware FMA pipeline.
const Unroll = 10

// flopsPerFMA counts one multiply plus one add per fused operation.
const flopsPerFMA = 2

// The multiplier sits just above 1 and the addend just above 0 so the
// accumulators drift slowly without overflowing or converging to a
// fixed point over any realistic iteration budget.
const (
	mulSingle float32 = 1.0000001
	addSingle float32 = 0.0000001

	mulDouble float64 = 1.0000001
	addDouble float64 = 0.0000001
)

// laneSeeds initializes each chain to a distinct value near 1.0,
// keeping them out of denormal range for the duration of a run.
var laneSeeds = [Unroll]float64{
	1.0, 0.9999, 0.9998, 0.9997, 0.9996,
	0.9995, 0.9994, 0.9993, 0.9992, 0.9991,
}

// ErrTooShort reports a run whose timed region was below clock
// resolution, leaving no meaningful throughput to compute.
var ErrTooShort = errors.New("measurement too short to compute throughput")

// Precision selects the element type of the accumulator vectors.
type Precision int

const (
	Single Precision = iota // float32 elements
	Double                  // float64 elements
)

func (p Precision) String() string {
	switch p {
	case Single:
		return "single"
	case Double:
		return "double"
	default:
		return "unknown"
	}
}

// Config controls a single kernel run.
type Config struct {
	// Iterations is the number of update cycles; each cycle issues
	// one FMA per accumulator chain. Zero is valid and yields a
	// zero Result.
	Iterations uint64

	// Precision selects float32 or float64 accumulators.
	Precision Precision

	// ForcePortable pins the pure-Go path regardless of detected
	// CPU features. Used by tests that need deterministic vector
	// widths.
	ForcePortable bool
}

// Result holds the measurement from one kernel run.
type Result struct {
	// Elapsed is the wall-clock time of the FMA loop only. Lane
	// initialization and the anti-elimination reduction happen
	// outside this window.
	Elapsed time.Duration `json:"elapsed_ns"`

	// FLOPS is Iterations * Unroll * VectorWidth * 2 divided by
	// Elapsed in seconds.
	FLOPS float64 `json:"flops"`

	// Path names the instruction path that ran: "avx512", "avx2"
	// or "portable".
	Path string `json:"path"`

	// VectorWidth is the number of scalar elements each chain
	// carries on the path that ran.
	VectorWidth int `json:"vector_width"`

	// Sink is the horizontal sum of all accumulator chains,
	// reduced after the clock stops. Escaping the reduction
	// through the Result keeps the compiler from discarding the
	// loop as dead code, and each run owns its own sink so
	// concurrent runs share no mutable state.
	Sink float64 `json:"-"`
}

// Run executes one measurement with the given configuration.
func Run(cfg Config) (Result, error) {
	impl := active
	if cfg.ForcePortable {
		impl = portableImpl
	}

	res := Result{Path: impl.name}

	switch cfg.Precision {
	case Single:
		res.VectorWidth = impl.widthSingle
	case Double:
		res.VectorWidth = impl.widthDouble
	default:
		return Result{}, errors.New("kernel: unknown precision")
	}

	if cfg.Iterations == 0 {
		return res, nil
	}

	var elapsed time.Duration

	switch cfg.Precision {
	case Single:
		var lanes [Unroll * maxWidthSingle]float32
		buf := lanes[:Unroll*res.VectorWidth]
		seedSingle(buf, res.VectorWidth)

		start := time.Now()
		impl.loopSingle(buf, cfg.Iterations, mulSingle, addSingle)
		elapsed = time.Since(start)

		res.Sink = reduceSingle(buf)
		runtime.KeepAlive(&lanes)

	case Double:
		var lanes [Unroll * maxWidthDouble]float64
		buf := lanes[:Unroll*res.VectorWidth]
		seedDouble(buf, res.VectorWidth)

		start := time.Now()
		impl.loopDouble(buf, cfg.Iterations, mulDouble, addDouble)
		elapsed = time.Since(start)

		res.Sink = reduceDouble(buf)
		runtime.KeepAlive(&lanes)
	}

	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return Result{}, ErrTooShort
	}

	res.Elapsed = elapsed
	res.FLOPS = TotalOps(cfg.Iterations, res.VectorWidth) / seconds

	return res, nil
}

// TotalOps returns the raw floating-point operation count of a run:
// one FMA per chain per iteration, each FMA counted as two operations.
func TotalOps(iterations uint64, vectorWidth int) float64 {
	return float64(iterations) * Unroll * float64(vectorWidth) * flopsPerFMA
}

// warmupIterations is enough work (~100ms on most cores) to lift the
// CPU out of idle power states before the timed runs.
const warmupIterations = 8_000_000

// Warmup runs short untimed passes at both precisions so the first
// measured run does not pay for frequency ramp-up.
func Warmup() {
	for _, p := range []Precision{Single, Double} {
		_, _ = Run(Config{Iterations: warmupIterations, Precision: p})
	}
}

func seedSingle(lanes []float32, width int) {
	for chain := 0; chain < Unroll; chain++ {
		seed := float32(laneSeeds[chain])
		for i := 0; i < width; i++ {
			lanes[chain*width+i] = seed
		}
	}
}

func seedDouble(lanes []float64, width int) {
	for chain := 0; chain < Unroll; chain++ {
		for i := 0; i < width; i++ {
			lanes[chain*width+i] = laneSeeds[chain]
		}
	}
}

func reduceSingle(lanes []float32) float64 {
	var sum float64
	for _, v := range lanes {
		sum += float64(v)
	}
	return sum
}

func reduceDouble(lanes []float64) float64 {
	var sum float64
	for _, v := range lanes {
		sum += v
	}
	return sum
}
