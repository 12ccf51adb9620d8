// Package keccakx applies the Keccak-p[1600] round function to batches of
// independent states in lock-step.
//
// States are interleaved by lane position: for a batch width of n, the word
// for lane position j of state i lives at a[n*j+i]. One pass over the round
// function advances all n states simultaneously, matching the layout used by
// hardware lane-parallel implementations. The scalar-unrolled kernel here is
// the reference for that layout; it produces output bit-identical to
// applying keccak.Permute to each state separately.
//
// Unlike the single-state path, invalid round counts on this path never
// panic: under side-channel protection they are a defined no-op, because
// failing visibly here would leak batch structure through timing and control
// flow.
package keccakx

import (
	"encoding/binary"
	"errors"
	"math/bits"

	"github.com/codahale/p1600/hazmat/keccak"
)

var (
	// ErrLaneWidth is returned when the batch width is not 2, 4, or 8.
	ErrLaneWidth = errors.New("keccakx: lane width must be 2, 4, or 8")
	// ErrLayout is returned when an interleaved buffer is not 25 times the
	// batch width.
	ErrLayout = errors.New("keccakx: interleaved buffer length must be 25*n")
	// ErrRoundCount is returned under bounds checking for round counts
	// outside [1, 24].
	ErrRoundCount = errors.New("keccakx: round count out of range")
	// ErrShortData is returned under bounds checking when the input cannot
	// fill one chunk per lane.
	ErrShortData = errors.New("keccakx: data shorter than one batch step")
)

// SimdConfig tunes batch processing. Construct via a preset or
// DefaultSimdConfig; the zero value disables grouping entirely.
type SimdConfig struct {
	// MaxWidth is the widest batch grouping PermuteBatch may use.
	MaxWidth int
	// BoundsCheck reports invalid parameters as errors.
	BoundsCheck bool
	// CacheOptimized reuses one scratch buffer across batch groups.
	CacheOptimized bool
	// SideChannelProtection turns invalid round counts into silent no-ops
	// instead of visible failures.
	SideChannelProtection bool
}

// DefaultSimdConfig returns a conservative 4-wide configuration with all
// checks enabled.
func DefaultSimdConfig() SimdConfig {
	return SimdConfig{
		MaxWidth:              4,
		BoundsCheck:           true,
		CacheOptimized:        true,
		SideChannelProtection: true,
	}
}

// SecurityOptimized returns a 2-wide configuration with every check
// enabled.
func SecurityOptimized() SimdConfig {
	return SimdConfig{
		MaxWidth:              2,
		BoundsCheck:           true,
		CacheOptimized:        true,
		SideChannelProtection: true,
	}
}

// PerformanceOptimized returns an 8-wide configuration with checks
// disabled.
func PerformanceOptimized() SimdConfig {
	return SimdConfig{
		MaxWidth:       8,
		CacheOptimized: true,
	}
}

// rho rotation offsets and pi destination mapping, indexed 5*y+x.
var (
	rhoOffsets = [25]int{
		0, 1, 62, 28, 27,
		36, 44, 6, 55, 20,
		3, 10, 43, 25, 39,
		41, 45, 15, 21, 8,
		18, 2, 61, 56, 14,
	}
	piLane = [25]int{
		0, 10, 20, 5, 15,
		16, 1, 11, 21, 6,
		7, 17, 2, 12, 22,
		23, 8, 18, 3, 13,
		14, 24, 9, 19, 4,
	}
)

// Interleave packs states into dst so that lane position j of state i lands
// at dst[len(states)*j+i]. dst must hold 25*len(states) words.
func Interleave(dst []uint64, states [][25]uint64) {
	n := len(states)
	for i, s := range states {
		for j, w := range s {
			dst[n*j+i] = w
		}
	}
}

// Deinterleave unpacks src, written by Interleave, back into states.
func Deinterleave(states [][25]uint64, src []uint64) {
	n := len(states)
	for i := range states {
		for j := range states[i] {
			states[i][j] = src[n*j+i]
		}
	}
}

// ParallelKeccakP applies rounds rounds of the round function to the n
// interleaved states in a.
//
// Round counts outside [1, 24] are reported as ErrRoundCount when
// cfg.BoundsCheck is set; otherwise the call returns nil without modifying
// a. The no-op return is load-bearing for side-channel protection and must
// not be turned into a panic.
func ParallelKeccakP(a []uint64, n, rounds int, cfg SimdConfig) error {
	if n != 2 && n != 4 && n != 8 {
		return ErrLaneWidth
	}
	if len(a) != 25*n {
		return ErrLayout
	}
	if rounds < 1 || rounds > keccak.RoundCount {
		if cfg.BoundsCheck {
			return ErrRoundCount
		}
		return nil
	}
	parallelRounds(a, n, rounds)
	return nil
}

// parallelRounds advances all n interleaved states through the round
// function. Control flow depends only on n and rounds, never on lane
// values.
func parallelRounds(a []uint64, n, rounds int) {
	for _, rc := range keccak.RC[keccak.RoundCount-rounds:] {
		// theta
		var c, d [5][8]uint64
		for x := 0; x < 5; x++ {
			for y := 0; y < 25; y += 5 {
				base := n * (y + x)
				for i := 0; i < n; i++ {
					c[x][i] ^= a[base+i]
				}
			}
		}
		for x := 0; x < 5; x++ {
			for i := 0; i < n; i++ {
				d[x][i] = c[(x+4)%5][i] ^ bits.RotateLeft64(c[(x+1)%5][i], 1)
			}
		}
		for j := 0; j < 25; j++ {
			base := n * j
			for i := 0; i < n; i++ {
				a[base+i] ^= d[j%5][i]
			}
		}

		// rho and pi
		var b [25][8]uint64
		for j := 0; j < 25; j++ {
			dst, rot := piLane[j], rhoOffsets[j]
			base := n * j
			for i := 0; i < n; i++ {
				b[dst][i] = bits.RotateLeft64(a[base+i], rot)
			}
		}

		// chi
		for y := 0; y < 25; y += 5 {
			for x := 0; x < 5; x++ {
				x1, x2 := y+(x+1)%5, y+(x+2)%5
				base := n * (y + x)
				for i := 0; i < n; i++ {
					a[base+i] = b[y+x][i] ^ (^b[x1][i] & b[x2][i])
				}
			}
		}

		// iota
		for i := 0; i < n; i++ {
			a[i] ^= rc
		}
	}
}

// FastParallelAbsorb absorbs data into the n interleaved states in a: each
// step XORs one 8-byte little-endian chunk into lane 0 of every state (n
// chunks per step, chunk i to state i) and applies the full 24-round
// permutation. It returns the number of bytes consumed.
func FastParallelAbsorb(a []uint64, n int, data []byte, cfg SimdConfig) (int, error) {
	if n != 2 && n != 4 && n != 8 {
		return 0, ErrLaneWidth
	}
	if len(a) != 25*n {
		return 0, ErrLayout
	}
	step := 8 * n
	if cfg.BoundsCheck && len(data) < step {
		return 0, ErrShortData
	}

	var off int
	for off+step <= len(data) {
		for i := 0; i < n; i++ {
			a[i] ^= binary.LittleEndian.Uint64(data[off+8*i:])
		}
		parallelRounds(a, n, keccak.RoundCount)
		off += step
	}
	return off, nil
}

// PermuteBatch applies rounds rounds to every state, grouping states
// cfg.MaxWidth at a time through the interleaved kernel and advancing any
// remainder one state at a time. Results are written in place;
// states[i] depends only on its own prior value regardless of grouping.
func PermuteBatch(states [][25]uint64, rounds int, cfg SimdConfig) error {
	if rounds < 1 || rounds > keccak.RoundCount {
		if cfg.BoundsCheck {
			return ErrRoundCount
		}
		return nil
	}

	width := cfg.MaxWidth
	if width != 2 && width != 4 && width != 8 {
		width = 1
	}

	var scratch []uint64
	if cfg.CacheOptimized && width > 1 && len(states) >= width {
		scratch = make([]uint64, 25*width)
	}

	rest := states
	for width > 1 && len(rest) >= width {
		group := rest[:width]
		buf := scratch
		if buf == nil {
			buf = make([]uint64, 25*width)
		}
		Interleave(buf, group)
		parallelRounds(buf, width, rounds)
		Deinterleave(group, buf)
		rest = rest[width:]
	}
	for i := range rest {
		keccak.Permute(&rest[i], rounds)
	}
	return nil
}
