// Package hash provides deterministic xxh3 helpers for fingerprints and seeding.
package hash

import (
	"math"

	"github.com/zeebo/xxh3"
)

// Fold hashes parts in order, seeding each part with the hash of the previous ones.
//
// The result depends on both the content and the order of parts. Fold with no
// parts returns seed unchanged.
//
// Parameters:
//   - seed: Initial seed (0 for none)
//   - parts: Strings to fold into the hash
//
// Returns:
//   - uint64: Folded hash value
func Fold(seed uint64, parts ...string) uint64 {
	h := seed
	for _, p := range parts {
		h = xxh3.HashStringSeed(p, h)
	}

	return h
}

// Float hashes a float64 by its IEEE-754 bits.
func Float(seed uint64, v float64) uint64 {
	var buf [8]byte
	bits := math.Float64bits(v)
	for i := range buf {
		buf[i] = byte(bits >> (8 * i))
	}

	return xxh3.HashSeed(buf[:], seed)
}

// SeedFor derives a per-key seed from a base seed.
//
// Equal (base, key) pairs always yield equal seeds; different keys yield
// independent streams.
func SeedFor(base uint64, key string) uint64 {
	return xxh3.HashStringSeed(key, base)
}
