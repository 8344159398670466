// Package fieldgeo implements the bit-width partitioning helpers that let a
// single field element hide several smaller "parts" packed side by side
// the vuln record and expr bundle packing both build
// on this.
package fieldgeo

import (
	"fmt"
	"math/big"

	"github.com/ajiang-xyz/ZekaEngine/internal/invariant"
)

// EligibleBitsOfNthSize returns ⌊bits(p)/n⌋, decremented by one iff bits(p)
// is divisible by n AND the all-ones mask of that size exceeds p — this is
// exactly the overflow guard needed: concatenating n parts
// of that many bits back together must never produce a value ≥ p... more
// precisely it must never overflow when decoded against p's own bit width.
func EligibleBitsOfNthSize(n int, p *big.Int) int {
	invariant.Precondition(n > 0, "n must be positive, got %d", n)
	bits := p.BitLen()
	eligible := bits / n
	if bits%n == 0 {
		top := topMaskOfSize(eligible)
		if top.Cmp(p) > 0 {
			eligible--
		}
	}
	return eligible
}

// topMaskOfSize returns 2^bits - 1.
func topMaskOfSize(bits int) *big.Int {
	if bits <= 0 {
		return big.NewInt(0)
	}
	m := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	return m.Sub(m, big.NewInt(1))
}

// MthMaskOfNthSize returns the all-ones mask covering one of the n parts a
// value of modulus p is partitioned into (VAR_MAX =
// mth_mask(4,4,P_L1), EXPR_MAX = mth_mask(4,4,VAR_MAX)).
func MthMaskOfNthSize(n int, p *big.Int) *big.Int {
	return topMaskOfSize(EligibleBitsOfNthSize(n, p))
}

// PackNthParts concatenates n field elements MSB-first, each shifted by
// EligibleBitsOfNthSize(n, p) bits, verifying every part fits in that many
// bits first.
func PackNthParts(parts []*big.Int, n int, p *big.Int) (*big.Int, error) {
	invariant.Precondition(len(parts) == n, "pack_nth_parts: expected %d parts, got %d", n, len(parts))
	eligible := EligibleBitsOfNthSize(n, p)

	result := new(big.Int)
	for _, part := range parts {
		if part.BitLen() > eligible {
			return nil, fmt.Errorf("fieldgeo: part %s exceeds %d eligible bits for n=%d modulus %s", part, eligible, n, p)
		}
		result.Lsh(result, uint(eligible))
		result.Or(result, part)
	}
	return result, nil
}

// SplitIntoNthParts is the exact inverse of PackNthParts: it returns the
// same n-element vector, in the same MSB-first order.
func SplitIntoNthParts(packed *big.Int, n int, p *big.Int) []*big.Int {
	eligible := EligibleBitsOfNthSize(n, p)
	mask := topMaskOfSize(eligible)

	parts := make([]*big.Int, n)
	work := new(big.Int).Set(packed)
	for i := n - 1; i >= 0; i-- {
		part := new(big.Int).And(work, mask)
		parts[i] = part
		work.Rsh(work, uint(eligible))
	}
	return parts
}

// TopBitMask returns the single-bit mask at p's most significant bit
// position — the "has next" flag bit reserved across every linked-list head
// and link value, across every linked-list head and link.
func TopBitMask(p *big.Int) *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(p.BitLen()-1))
}

// HasTopBit reports whether v's bit at p's top-bit position is set.
func HasTopBit(v, p *big.Int) bool {
	return new(big.Int).And(v, TopBitMask(p)).Sign() != 0
}

// SetTopBit returns a copy of v with p's top-bit position forced to 1.
func SetTopBit(v, p *big.Int) *big.Int {
	return new(big.Int).Or(v, TopBitMask(p))
}

// ClearTopBit returns a copy of v with p's top-bit position forced to 0.
func ClearTopBit(v, p *big.Int) *big.Int {
	mask := new(big.Int).Not(TopBitMask(p))
	return new(big.Int).And(v, mask)
}

// PartTopBitMask returns the top-bit mask within one of the n parts a value
// of modulus p is packed into — the position PackNthParts/SplitIntoNthParts
// treat each part as occupying, not p's own bit length. Linked-list "has
// next" flags live at this part-local position (the packed vuln record's
// field 1, §4.9 step b: "next_var_ptr has a significant-bit count equal to
// bits(VAR_MAX)"), since the flagged field is itself one packed sub-field,
// not the full packed integer.
func PartTopBitMask(n int, p *big.Int) *big.Int {
	eligible := EligibleBitsOfNthSize(n, p)
	return new(big.Int).Lsh(big.NewInt(1), uint(eligible-1))
}

// HasPartTopBit reports whether v (read as one of the n parts packed
// against modulus p) has its part-local top bit set.
func HasPartTopBit(v *big.Int, n int, p *big.Int) bool {
	return new(big.Int).And(v, PartTopBitMask(n, p)).Sign() != 0
}

// SetPartTopBit returns a copy of v with its part-local top bit forced to 1.
func SetPartTopBit(v *big.Int, n int, p *big.Int) *big.Int {
	return new(big.Int).Or(v, PartTopBitMask(n, p))
}

// ClearPartTopBit returns a copy of v with its part-local top bit forced to 0.
func ClearPartTopBit(v *big.Int, n int, p *big.Int) *big.Int {
	mask := new(big.Int).Not(PartTopBitMask(n, p))
	return new(big.Int).And(v, mask)
}

// CantorPairingMod computes the Cantor pairing function reduced mod p:
//
//	(½·(a+b)·(a+b+1) + b) mod p, where ½ = inv(2, p).
//
// The expression and regex DFA extractors use this to fold a state and consumed symbol into
// a single field point for a transition lookup.
func CantorPairingMod(a, b, p *big.Int) (*big.Int, error) {
	two := big.NewInt(2)
	if new(big.Int).GCD(nil, nil, two, p).Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("fieldgeo: cantor_pairing_mod requires gcd(2,p)=1, got p=%s", p)
	}
	half := new(big.Int).ModInverse(two, p)
	invariant.Invariant(half != nil, "cantor_pairing_mod: inv(2,p) must exist once gcd check passed")

	sum := new(big.Int).Add(a, b)
	sumPlus1 := new(big.Int).Add(sum, big.NewInt(1))

	t := new(big.Int).Mul(sum, sumPlus1)
	t.Mul(t, half)
	t.Add(t, b)
	return t.Mod(t, p), nil
}
