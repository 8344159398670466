// Package sampler draws unique field points from a seeded, non-cryptographic
// PRNG. The PRNG exists only to scatter state identifiers
// across the field so the artifact can't be read as a plain state graph; it
// is never used as a security primitive.
package sampler

import (
	"math/big"
	"math/rand"

	"github.com/ajiang-xyz/ZekaEngine/internal/invariant"
)

// Sampler draws unique points below a modulus, tracking every point it has
// ever returned across all three field layers.
type Sampler struct {
	rng  *rand.Rand
	seen map[string]struct{}
}

// New builds a Sampler seeded from the author-chosen seed.
func New(seed int64) *Sampler {
	return &Sampler{
		rng:  rand.New(rand.NewSource(seed)),
		seen: make(map[string]struct{}),
	}
}

// Sample draws a point in [0, p) that has never been returned by this
// Sampler before, across any layer.
func (s *Sampler) Sample(p *big.Int) *big.Int {
	for attempts := 0; ; attempts++ {
		invariant.Invariant(attempts < 1_000_000, "sampler: exhausted modulus %s without finding a unique point", p)
		pt := new(big.Int).Rand(s.rng, p)
		if s.insert(pt) {
			return pt
		}
	}
}

// SampleFlagless draws a unique point with the top bit of p's bit-width
// always clear — used wherever the sampled point will later be packed as a
// linked-list head, since that top bit is reserved as the "has next" flag.
func (s *Sampler) SampleFlagless(p *big.Int) *big.Int {
	topBit := p.BitLen() - 1
	mask := new(big.Int).Lsh(big.NewInt(1), uint(topBit))
	clearMask := new(big.Int).Not(mask)

	for attempts := 0; ; attempts++ {
		invariant.Invariant(attempts < 1_000_000, "sampler: exhausted modulus %s without finding a unique flagless point", p)
		pt := new(big.Int).Rand(s.rng, p)
		pt.And(pt, clearMask)
		if s.insert(pt) {
			return pt
		}
	}
}

func (s *Sampler) insert(pt *big.Int) bool {
	key := pt.Text(16)
	if _, exists := s.seen[key]; exists {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Seen reports how many distinct points this Sampler has produced so far,
// across all layers — useful for diagnostics and for sizing the state set.
func (s *Sampler) Seen() int {
	return len(s.seen)
}
