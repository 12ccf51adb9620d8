package keccak

import (
	"encoding/binary"
	"sync"
)

// OptimizationLevel selects a permutation strategy. Levels are totally
// ordered: Reference < Basic < Advanced < Maximum. Every level produces
// bit-identical output; only performance differs.
type OptimizationLevel int

const (
	// Reference selects the canonical loop-form implementation.
	Reference OptimizationLevel = iota
	// Basic selects scalar-tuned kernels and pairwise batch grouping.
	Basic
	// Advanced selects scalar-tuned kernels and 4-way batch grouping.
	Advanced
	// Maximum selects scalar-tuned kernels and 8-way batch grouping.
	Maximum
)

func (l OptimizationLevel) String() string {
	switch l {
	case Reference:
		return "reference"
	case Basic:
		return "basic"
	case Advanced:
		return "advanced"
	case Maximum:
		return "maximum"
	default:
		return "unknown"
	}
}

// Available reports whether the detected hardware supports this level. It is
// a pure function of the capability snapshot; Reference is always available.
func (l OptimizationLevel) Available() bool {
	return l >= Reference && l <= DetectFeatures().RecommendedLevel()
}

// BestAvailable returns the highest usable optimization level for this
// process.
func BestAvailable() OptimizationLevel {
	return DetectFeatures().RecommendedLevel()
}

// kernels is the capability table mapping each level to its 24-round
// single-state kernel. It is populated once from the hardware probe; levels
// the platform cannot support fall back to the reference kernel.
var kernels = sync.OnceValue(func() [Maximum + 1]func(*[25]uint64) {
	reference := func(a *[25]uint64) { permuteGeneric(a, RoundCount) }

	var table [Maximum + 1]func(*[25]uint64)
	table[Reference] = reference
	for level := Basic; level <= Maximum; level++ {
		if level.Available() {
			table[level] = permuteUnrolled
		} else {
			table[level] = reference
		}
	}
	return table
})

// P1600Optimized applies the full 24-round permutation to a using the kernel
// registered for level. Output is bit-identical to Permute(a, RoundCount)
// for every level.
func P1600Optimized(a *[25]uint64, level OptimizationLevel) {
	if level < Reference || level > Maximum {
		panic("keccak: invalid optimization level")
	}
	kernels()[level](a)
}

// P1600 applies the full 24-round permutation using the process-wide feature
// configuration.
func P1600(a *[25]uint64) {
	P1600Optimized(a, CurrentConfig().EffectiveLevel())
}

// FastLoopAbsorb streams data through the permutation at an 8-byte-per-step
// granularity: each step XORs the next 8 little-endian bytes into lane 0 and
// applies the full permutation at the given level. It returns the number of
// bytes consumed; a trailing fragment shorter than 8 bytes is left for the
// caller.
func FastLoopAbsorb(a *[25]uint64, data []byte, level OptimizationLevel) int {
	if level < Reference || level > Maximum {
		panic("keccak: invalid optimization level")
	}
	kernel := kernels()[level]

	var off int
	for off+8 <= len(data) {
		a[0] ^= binary.LittleEndian.Uint64(data[off:])
		kernel(a)
		off += 8
	}
	return off
}

// GroupWidth returns the batch grouping width for a level: the number of
// independent states advanced per batch step by the keccakx package.
func GroupWidth(level OptimizationLevel) int {
	switch level {
	case Basic:
		return 2
	case Advanced:
		return 4
	case Maximum:
		return 8
	default:
		return 1
	}
}
