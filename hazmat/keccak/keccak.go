// Package keccak implements the Keccak-p[1600] permutation with runtime
// optimization dispatch.
//
// The permutation state is 25 lanes of 64 bits, conceptually a 5×5 matrix
// with lane (x, y) at index 5*y+x. Reduced-round variants apply a suffix of
// the 24-entry round constant schedule, so Permute(a, 12) matches the
// Keccak-p[1600, 12] permutation used by TurboSHAKE and KangarooTwelve.
//
// Round counts on this path are library-internal constants, never
// attacker-controlled input: out-of-range values panic.
package keccak

import "math/bits"

// RoundCount is the full Keccak-f[1600] round count.
const RoundCount = 24

// RC is the iota step round constant schedule. Reduced-round variants use a
// suffix of this table, not a prefix.
var RC = [RoundCount]uint64{
	0x0000000000000001, 0x0000000000008082,
	0x800000000000808a, 0x8000000080008000,
	0x000000000000808b, 0x0000000080000001,
	0x8000000080008081, 0x8000000000008009,
	0x000000000000008a, 0x0000000000000088,
	0x0000000080008009, 0x000000008000000a,
	0x000000008000808b, 0x800000000000008b,
	0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080,
	0x000000000000800a, 0x800000008000000a,
	0x8000000080008081, 0x8000000000008080,
	0x0000000080000001, 0x8000000080008008,
}

// rhoOffsets is the rho step rotation offset for each lane, indexed 5*y+x.
var rhoOffsets = [25]int{
	0, 1, 62, 28, 27,
	36, 44, 6, 55, 20,
	3, 10, 43, 25, 39,
	41, 45, 15, 21, 8,
	18, 2, 61, 56, 14,
}

// piLane maps each lane index to its destination under the pi step:
// lane (x, y) moves to (y, 2x+3y mod 5).
var piLane = [25]int{
	0, 10, 20, 5, 15,
	16, 1, 11, 21, 6,
	7, 17, 2, 12, 22,
	23, 8, 18, 3, 13,
	14, 24, 9, 19, 4,
}

// Permute applies rounds rounds of the Keccak-p[1600] round function to a
// using the reference implementation. rounds must be in [1, RoundCount];
// anything else is a programmer error and panics.
func Permute(a *[25]uint64, rounds int) {
	if rounds < 1 || rounds > RoundCount {
		panic("keccak: round count out of range")
	}
	permuteGeneric(a, rounds)
}

// permuteGeneric is the canonical loop-form round function. All control flow
// is independent of lane values.
func permuteGeneric(a *[25]uint64, rounds int) {
	for _, rc := range RC[RoundCount-rounds:] {
		// theta
		var c, d [5]uint64
		for x := 0; x < 5; x++ {
			c[x] = a[x] ^ a[x+5] ^ a[x+10] ^ a[x+15] ^ a[x+20]
		}
		for x := 0; x < 5; x++ {
			d[x] = c[(x+4)%5] ^ bits.RotateLeft64(c[(x+1)%5], 1)
		}
		for j := 0; j < 25; j++ {
			a[j] ^= d[j%5]
		}

		// rho and pi
		var b [25]uint64
		for j := 0; j < 25; j++ {
			b[piLane[j]] = bits.RotateLeft64(a[j], rhoOffsets[j])
		}

		// chi
		for y := 0; y < 25; y += 5 {
			for x := 0; x < 5; x++ {
				a[y+x] = b[y+x] ^ (^b[y+(x+1)%5] & b[y+(x+2)%5])
			}
		}

		// iota
		a[0] ^= rc
	}
}
