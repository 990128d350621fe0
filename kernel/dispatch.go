package kernel

// A 512-bit register holds 16 float32 or 8 float64 elements; these are
// also the widths the portable path emulates so the FLOPS accounting
// stays identical across paths.
const (
	maxWidthSingle = 16
	maxWidthDouble = 8
)

// implementation binds one instruction path to its loop bodies and the
// vector widths those bodies actually process.
type implementation struct {
	name        string
	widthSingle int
	widthDouble int
	loopSingle  func(lanes []float32, iters uint64, mul, add float32)
	loopDouble  func(lanes []float64, iters uint64, mul, add float64)
}

// active is the best implementation the running CPU supports, chosen
// once at startup.
var active = pickImplementation()

// PathInfo describes an instruction path without running it.
type PathInfo struct {
	Name        string `json:"name"`
	WidthSingle int    `json:"width_single"`
	WidthDouble int    `json:"width_double"`
}

// DefaultPath reports the path Run selects when ForcePortable is off.
func DefaultPath() PathInfo {
	return PathInfo{
		Name:        active.name,
		WidthSingle: active.widthSingle,
		WidthDouble: active.widthDouble,
	}
}

// PortablePath reports the pure-Go fallback path.
func PortablePath() PathInfo {
	return PathInfo{
		Name:        portableImpl.name,
		WidthSingle: portableImpl.widthSingle,
		WidthDouble: portableImpl.widthDouble,
	}
}
