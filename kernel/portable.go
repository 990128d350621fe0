package kernel

// The portable path updates the same 10 chains x 16/8 element layout
// as the 512-bit vector path, one scalar at a time, so a run performs
// the same number of floating-point operations on every architecture.

var portableImpl = implementation{
	name:        "portable",
	widthSingle: maxWidthSingle,
	widthDouble: maxWidthDouble,
	loopSingle:  fmaLoopSinglePortable,
	loopDouble:  fmaLoopDoublePortable,
}

func fmaLoopSinglePortable(lanes []float32, iters uint64, mul, add float32) {
	for ; iters > 0; iters-- {
		for i := range lanes {
			lanes[i] = lanes[i]*mul + add
		}
	}
}

func fmaLoopDoublePortable(lanes []float64, iters uint64, mul, add float64) {
	for ; iters > 0; iters-- {
		for i := range lanes {
			lanes[i] = lanes[i]*mul + add
		}
	}
}
