// Package mem provides byte-level access to lane-oriented permutation
// states.
//
// Lanes are treated as a contiguous little-endian byte string: byte offset
// off lives in bits 8*(off%8) of lanes[off/8].
package mem

import "encoding/binary"

// XORIn XORs p into the byte view of lanes starting at byte offset off.
func XORIn(lanes []uint64, off int, p []byte) {
	for len(p) > 0 && off%8 != 0 {
		lanes[off/8] ^= uint64(p[0]) << ((off % 8) * 8)
		off++
		p = p[1:]
	}
	for len(p) >= 8 {
		lanes[off/8] ^= binary.LittleEndian.Uint64(p)
		off += 8
		p = p[8:]
	}
	for i, b := range p {
		lanes[off/8] ^= uint64(b) << (8 * i)
	}
}

// XORByte XORs b into the byte view of lanes at byte offset off.
func XORByte(lanes []uint64, off int, b byte) {
	lanes[off/8] ^= uint64(b) << ((off % 8) * 8)
}

// CopyOut copies from the byte view of lanes starting at byte offset off
// into dst.
func CopyOut(dst []byte, lanes []uint64, off int) {
	for len(dst) > 0 && off%8 != 0 {
		dst[0] = byte(lanes[off/8] >> ((off % 8) * 8))
		off++
		dst = dst[1:]
	}
	for len(dst) >= 8 {
		binary.LittleEndian.PutUint64(dst, lanes[off/8])
		off += 8
		dst = dst[8:]
	}
	for i := range dst {
		dst[i] = byte(lanes[off/8] >> (8 * i))
	}
}
