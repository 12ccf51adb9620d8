// Package ascon implements the Ascon permutation over a 320-bit state of
// five 64-bit words.
//
// Reduced-round variants apply a suffix of the 12-entry round constant
// schedule: P8 uses the last 8 constants, P6 the last 6. Round counts are
// library-internal constants; out-of-range values panic.
package ascon

import "math/bits"

// RoundCount is the full Ascon permutation round count.
const RoundCount = 12

// roundConstants is the constant-addition schedule. Reduced-round variants
// use a suffix of this table.
var roundConstants = [RoundCount]uint64{
	0xf0, 0xe1, 0xd2, 0xc3, 0xb4, 0xa5,
	0x96, 0x87, 0x78, 0x69, 0x5a, 0x4b,
}

// Permute applies rounds rounds of the Ascon round function to s. rounds
// must be in [1, RoundCount].
func Permute(s *[5]uint64, rounds int) {
	if rounds < 1 || rounds > RoundCount {
		panic("ascon: round count out of range")
	}

	x0, x1, x2, x3, x4 := s[0], s[1], s[2], s[3], s[4]
	for _, rc := range roundConstants[RoundCount-rounds:] {
		// constant addition
		x2 ^= rc

		// substitution layer
		x0 ^= x4
		x4 ^= x3
		x2 ^= x1
		t0 := ^x0 & x1
		t1 := ^x1 & x2
		t2 := ^x2 & x3
		t3 := ^x3 & x4
		t4 := ^x4 & x0
		x0 ^= t1
		x1 ^= t2
		x2 ^= t3
		x3 ^= t4
		x4 ^= t0
		x1 ^= x0
		x0 ^= x4
		x3 ^= x2
		x2 = ^x2

		// linear diffusion layer
		x0 ^= bits.RotateLeft64(x0, -19) ^ bits.RotateLeft64(x0, -28)
		x1 ^= bits.RotateLeft64(x1, -61) ^ bits.RotateLeft64(x1, -39)
		x2 ^= bits.RotateLeft64(x2, -1) ^ bits.RotateLeft64(x2, -6)
		x3 ^= bits.RotateLeft64(x3, -10) ^ bits.RotateLeft64(x3, -17)
		x4 ^= bits.RotateLeft64(x4, -7) ^ bits.RotateLeft64(x4, -41)
	}
	s[0], s[1], s[2], s[3], s[4] = x0, x1, x2, x3, x4
}

// P12 applies the full 12-round permutation.
func P12(s *[5]uint64) { Permute(s, 12) }

// P8 applies the 8-round permutation used by Ascon-128a.
func P8(s *[5]uint64) { Permute(s, 8) }

// P6 applies the 6-round permutation used by Ascon-80pq.
func P6(s *[5]uint64) { Permute(s, 6) }
