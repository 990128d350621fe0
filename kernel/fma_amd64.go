//go:build amd64 && !noasm

package kernel

// Assembly loop bodies defined in fma_amd64.s. Each keeps all ten
// accumulator chains resident in vector registers for the full
// iteration count and stores them back on exit.

//go:noescape
func fmaLoopSingleAVX512(lanes []float32, iters uint64, mul, add float32)

//go:noescape
func fmaLoopDoubleAVX512(lanes []float64, iters uint64, mul, add float64)

//go:noescape
func fmaLoopSingleAVX2(lanes []float32, iters uint64, mul, add float32)

//go:noescape
func fmaLoopDoubleAVX2(lanes []float64, iters uint64, mul, add float64)

var avx512Impl = implementation{
	name:        "avx512",
	widthSingle: 16,
	widthDouble: 8,
	loopSingle:  fmaLoopSingleAVX512,
	loopDouble:  fmaLoopDoubleAVX512,
}

var avx2Impl = implementation{
	name:        "avx2",
	widthSingle: 8,
	widthDouble: 4,
	loopSingle:  fmaLoopSingleAVX2,
	loopDouble:  fmaLoopDoubleAVX2,
}

// pickImplementation selects the widest FMA path the CPU supports,
// falling back to pure Go rather than faulting on an unsupported
// instruction.
func pickImplementation() implementation {
	switch {
	case features.HasAVX512F:
		return avx512Impl
	case features.HasAVX2 && features.HasFMA:
		return avx2Impl
	default:
		return portableImpl
	}
}
