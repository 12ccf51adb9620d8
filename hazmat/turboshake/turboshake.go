// Package turboshake implements TurboSHAKE128 as specified in RFC 9861.
//
// TurboSHAKE128 is an eXtendable-Output Function (XOF) based on the
// Keccak-p[1600,12] permutation with a rate of 168 bytes. It is the minimal
// upward consumer of the permutation engine: all rate, padding, and domain
// separation live here, not in the engine.
package turboshake

import (
	"github.com/codahale/p1600/hazmat/keccak"
	"github.com/codahale/p1600/hazmat/keccakx"
	"github.com/codahale/p1600/internal/mem"
)

// Rate is the TurboSHAKE128 rate in bytes (200 - 32).
const Rate = 168

// rounds is the reduced round count of the underlying permutation.
const rounds = 12

// Hasher is an incremental TurboSHAKE128 instance that implements
// io.ReadWriter. Writes absorb data into the sponge and reads squeeze output
// from it. Once Read is called, no further writes are permitted.
type Hasher struct {
	s         [25]uint64
	pos       int
	ds        byte
	squeezing bool
}

// New returns a new Hasher with the given domain separation byte.
func New(ds byte) (h Hasher) {
	h.ds = ds
	return h
}

// Reset zeros the hasher and reinitializes it with the given domain
// separation byte.
func (h *Hasher) Reset(ds byte) {
	h.s = [25]uint64{}
	h.pos = 0
	h.ds = ds
	h.squeezing = false
}

// Write absorbs p into the sponge state. It must not be called after Read.
func (h *Hasher) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		w := min(Rate-h.pos, len(p))
		mem.XORIn(h.s[:], h.pos, p[:w])
		h.pos += w
		p = p[w:]
		if h.pos == Rate {
			keccak.Permute(&h.s, rounds)
			h.pos = 0
		}
	}
	return n, nil
}

// Read squeezes output from the sponge state into p. On the first call, it
// finalizes absorption by applying padding and permuting. Subsequent calls
// continue squeezing.
func (h *Hasher) Read(p []byte) (int, error) {
	if !h.squeezing {
		mem.XORByte(h.s[:], h.pos, h.ds)
		mem.XORByte(h.s[:], Rate-1, 0x80)
		keccak.Permute(&h.s, rounds)
		h.pos = 0
		h.squeezing = true
	}
	n := len(p)
	for len(p) > 0 {
		if h.pos == Rate {
			keccak.Permute(&h.s, rounds)
			h.pos = 0
		}
		r := min(Rate-h.pos, len(p))
		mem.CopyOut(p[:r], h.s[:], h.pos)
		h.pos += r
		p = p[r:]
	}
	return n, nil
}

// Sum computes TurboSHAKE128(msg, ds, outLen) and returns the result. The
// domain separation byte ds must be in the range [0x01, 0x7F].
func Sum(msg []byte, ds byte, outLen int) []byte {
	h := New(ds)
	_, _ = h.Write(msg)
	out := make([]byte, outLen)
	_, _ = h.Read(out)
	return out
}

// Chain clones a into b, updates b with the given domain separation byte,
// and finalizes both through the two-wide batch kernel. After Chain returns,
// both a and b are in squeezing mode and ready for Read.
func Chain(a, b *Hasher, ds byte) {
	if a.squeezing {
		panic("turboshake: parallel finalization with finalized state")
	}

	*b = *a
	mem.XORByte(a.s[:], a.pos, a.ds)
	mem.XORByte(a.s[:], Rate-1, 0x80)
	mem.XORByte(b.s[:], b.pos, ds)
	mem.XORByte(b.s[:], Rate-1, 0x80)
	b.ds = ds

	var buf [50]uint64
	pair := [][25]uint64{a.s, b.s}
	keccakx.Interleave(buf[:], pair)
	if err := keccakx.ParallelKeccakP(buf[:], 2, rounds, keccakx.SecurityOptimized()); err != nil {
		panic("turboshake: " + err.Error())
	}
	keccakx.Deinterleave(pair, buf[:])
	a.s, b.s = pair[0], pair[1]

	a.pos, b.pos = 0, 0
	a.squeezing, b.squeezing = true, true
}
