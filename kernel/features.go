package kernel

import (
	"strings"

	"golang.org/x/sys/cpu"
)

// Features holds the instruction set extensions relevant to the FMA
// kernel, probed once at startup.
type Features struct {
	HasFMA     bool
	HasAVX2    bool
	HasAVX512F bool
}

var features = detectFeatures()

func detectFeatures() Features {
	return Features{
		HasFMA:     cpu.X86.HasFMA,
		HasAVX2:    cpu.X86.HasAVX2,
		HasAVX512F: cpu.X86.HasAVX512F,
	}
}

// CPUFeatures returns the probed feature set.
func CPUFeatures() Features {
	return features
}

// Summary lists the detected extensions for the report banner.
func (f Features) Summary() string {
	var names []string
	if f.HasFMA {
		names = append(names, "FMA")
	}
	if f.HasAVX2 {
		names = append(names, "AVX2")
	}
	if f.HasAVX512F {
		names = append(names, "AVX512F")
	}
	if len(names) == 0 {
		return "no vector FMA extensions detected"
	}
	return strings.Join(names, ", ")
}
