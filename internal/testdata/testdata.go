// Package testdata provides a deterministic random bit generator for testing.
package testdata

import (
	"io"

	"golang.org/x/crypto/sha3"
)

// DRBG is a deterministic random bit generator based on SHAKE128.
type DRBG struct {
	h sha3.ShakeHash
}

// New returns a new DRBG instance initialized with the given customization string.
func New(customization string) *DRBG {
	h := sha3.NewShake128()
	_, _ = h.Write([]byte(customization))
	return &DRBG{h}
}

// Data returns n bytes of deterministic data from the DRBG.
func (d *DRBG) Data(n int) []byte {
	b := make([]byte, n)
	_, _ = d.h.Read(b)
	return b
}

// State returns a deterministic 25-lane permutation state from the DRBG.
func (d *DRBG) State() (a [25]uint64) {
	b := d.Data(200)
	for j := range a {
		for i := 0; i < 8; i++ {
			a[j] |= uint64(b[8*j+i]) << (8 * i)
		}
	}
	return a
}

// Reader returns a pseudorandom reader seeded with a value from this DRBG.
func (d *DRBG) Reader() io.Reader {
	h := sha3.NewShake128()
	_, _ = h.Write(d.Data(32))
	return h
}
