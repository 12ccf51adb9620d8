package keccak

import "math/bits"

// permuteUnrolled applies the full 24-round permutation with the round
// function flattened into straight-line code. It is the scalar-tuned kernel
// behind the Basic and higher optimization levels and must produce the same
// output as permuteGeneric(a, 24) for every input.
func permuteUnrolled(a *[25]uint64) {
	var c, d [5]uint64
	var b [25]uint64

	for _, rc := range RC {
		// theta
		c[0] = a[0] ^ a[5] ^ a[10] ^ a[15] ^ a[20]
		c[1] = a[1] ^ a[6] ^ a[11] ^ a[16] ^ a[21]
		c[2] = a[2] ^ a[7] ^ a[12] ^ a[17] ^ a[22]
		c[3] = a[3] ^ a[8] ^ a[13] ^ a[18] ^ a[23]
		c[4] = a[4] ^ a[9] ^ a[14] ^ a[19] ^ a[24]

		d[0] = c[4] ^ bits.RotateLeft64(c[1], 1)
		d[1] = c[0] ^ bits.RotateLeft64(c[2], 1)
		d[2] = c[1] ^ bits.RotateLeft64(c[3], 1)
		d[3] = c[2] ^ bits.RotateLeft64(c[4], 1)
		d[4] = c[3] ^ bits.RotateLeft64(c[0], 1)

		a[0] ^= d[0]
		a[1] ^= d[1]
		a[2] ^= d[2]
		a[3] ^= d[3]
		a[4] ^= d[4]
		a[5] ^= d[0]
		a[6] ^= d[1]
		a[7] ^= d[2]
		a[8] ^= d[3]
		a[9] ^= d[4]
		a[10] ^= d[0]
		a[11] ^= d[1]
		a[12] ^= d[2]
		a[13] ^= d[3]
		a[14] ^= d[4]
		a[15] ^= d[0]
		a[16] ^= d[1]
		a[17] ^= d[2]
		a[18] ^= d[3]
		a[19] ^= d[4]
		a[20] ^= d[0]
		a[21] ^= d[1]
		a[22] ^= d[2]
		a[23] ^= d[3]
		a[24] ^= d[4]

		// rho and pi
		b[0] = a[0]
		b[1] = bits.RotateLeft64(a[6], 44)
		b[2] = bits.RotateLeft64(a[12], 43)
		b[3] = bits.RotateLeft64(a[18], 21)
		b[4] = bits.RotateLeft64(a[24], 14)
		b[5] = bits.RotateLeft64(a[3], 28)
		b[6] = bits.RotateLeft64(a[9], 20)
		b[7] = bits.RotateLeft64(a[10], 3)
		b[8] = bits.RotateLeft64(a[16], 45)
		b[9] = bits.RotateLeft64(a[22], 61)
		b[10] = bits.RotateLeft64(a[1], 1)
		b[11] = bits.RotateLeft64(a[7], 6)
		b[12] = bits.RotateLeft64(a[13], 25)
		b[13] = bits.RotateLeft64(a[19], 8)
		b[14] = bits.RotateLeft64(a[20], 18)
		b[15] = bits.RotateLeft64(a[4], 27)
		b[16] = bits.RotateLeft64(a[5], 36)
		b[17] = bits.RotateLeft64(a[11], 10)
		b[18] = bits.RotateLeft64(a[17], 15)
		b[19] = bits.RotateLeft64(a[23], 56)
		b[20] = bits.RotateLeft64(a[2], 62)
		b[21] = bits.RotateLeft64(a[8], 55)
		b[22] = bits.RotateLeft64(a[14], 39)
		b[23] = bits.RotateLeft64(a[15], 41)
		b[24] = bits.RotateLeft64(a[21], 2)

		// chi
		a[0] = b[0] ^ (^b[1] & b[2])
		a[1] = b[1] ^ (^b[2] & b[3])
		a[2] = b[2] ^ (^b[3] & b[4])
		a[3] = b[3] ^ (^b[4] & b[0])
		a[4] = b[4] ^ (^b[0] & b[1])
		a[5] = b[5] ^ (^b[6] & b[7])
		a[6] = b[6] ^ (^b[7] & b[8])
		a[7] = b[7] ^ (^b[8] & b[9])
		a[8] = b[8] ^ (^b[9] & b[5])
		a[9] = b[9] ^ (^b[5] & b[6])
		a[10] = b[10] ^ (^b[11] & b[12])
		a[11] = b[11] ^ (^b[12] & b[13])
		a[12] = b[12] ^ (^b[13] & b[14])
		a[13] = b[13] ^ (^b[14] & b[10])
		a[14] = b[14] ^ (^b[10] & b[11])
		a[15] = b[15] ^ (^b[16] & b[17])
		a[16] = b[16] ^ (^b[17] & b[18])
		a[17] = b[17] ^ (^b[18] & b[19])
		a[18] = b[18] ^ (^b[19] & b[15])
		a[19] = b[19] ^ (^b[15] & b[16])
		a[20] = b[20] ^ (^b[21] & b[22])
		a[21] = b[21] ^ (^b[22] & b[23])
		a[22] = b[22] ^ (^b[23] & b[24])
		a[23] = b[23] ^ (^b[24] & b[20])
		a[24] = b[24] ^ (^b[20] & b[21])

		// iota
		a[0] ^= rc
	}
}
