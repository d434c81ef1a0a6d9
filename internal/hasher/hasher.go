// Package hasher provides the digest used for content addressing: a
// streaming accumulator for the whole-stream hash and a one-shot helper
// for per-chunk hashes, both SHA-1 so the two always agree with the
// server's bookkeeping.
package hasher

import (
	"crypto/sha1"
	"encoding/hex"
	"hash"
)

type Hasher struct {
	h hash.Hash
}

func New() *Hasher {
	return &Hasher{h: sha1.New()}
}

func (h *Hasher) Reset() {
	h.h.Reset()
}

func (h *Hasher) Update(data []byte) {
	h.h.Write(data)
}

// SumHex finalizes the accumulated digest to its hex form. The internal
// state is not reset; call Reset before reuse.
func (h *Hasher) SumHex() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

// HashBytes returns the hex digest of a single byte slice.
func HashBytes(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
