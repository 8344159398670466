// Package params declares ZekaEngine's three field moduli: the
// author-modifiable constants every other layer is built against.
package params

import (
	"math/big"

	"github.com/ajiang-xyz/ZekaEngine/internal/fieldgeo"
	"github.com/ajiang-xyz/ZekaEngine/internal/invariant"
)

// Moduli bundles the three field sizes plus their derived part-width masks.
type Moduli struct {
	L1, L2, L3      *big.Int
	VarMax, ExprMax *big.Int
}

// New validates l1/l2/l3 against the data model's invariants (each probably
// prime, P_L1 > P_L2 ≥ P_L3) and derives VAR_MAX/EXPR_MAX. A failing check
// here means the author supplied a bad modulus, not a recoverable input
// error, so it panics via internal/invariant exactly as compile-time failure handling calls
// for at compile time.
func New(l1, l2, l3 *big.Int) Moduli {
	invariant.Precondition(l1.ProbablyPrime(30), "P_L1 must be probably prime, got %s", l1)
	invariant.Precondition(l2.ProbablyPrime(30), "P_L2 must be probably prime, got %s", l2)
	invariant.Precondition(l3.ProbablyPrime(30), "P_L3 must be probably prime, got %s", l3)
	invariant.Precondition(l1.Cmp(l2) > 0, "P_L1 must exceed P_L2")
	invariant.Precondition(l2.Cmp(l3) >= 0, "P_L2 must be at least P_L3")

	varMax := fieldgeo.MthMaskOfNthSize(4, l1)
	exprMax := fieldgeo.MthMaskOfNthSize(4, varMax)
	return Moduli{L1: l1, L2: l2, L3: l3, VarMax: varMax, ExprMax: exprMax}
}

// l1Prime is the 14th Mersenne prime, 2^607 - 1 (Robinson, 1952): a 607-bit
// prime in the expected ≈592-bit range, chosen over a hand-copied decimal
// literal specifically because its primality is a well-known mathematical
// fact rather than something this module would otherwise have to trust
// blindly.
func l1Prime() *big.Int {
	v := new(big.Int).Lsh(big.NewInt(1), 607)
	return v.Sub(v, big.NewInt(1))
}

// l2Prime is the secp256k1 field prime, 2^256 - 2^32 - 977 — a 256-bit prime
// with a long public track record of primality review (Bitcoin/Ethereum's
// curve field).
func l2Prime() *big.Int {
	v := new(big.Int).Lsh(big.NewInt(1), 256)
	v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 32))
	return v.Sub(v, big.NewInt(977))
}

// l3Prime is the NIST P-256 field prime, 2^256 - 2^224 + 2^192 + 2^96 - 1,
// smaller than l2Prime as P_L2 ≥ P_L3 requires.
func l3Prime() *big.Int {
	v := new(big.Int).Lsh(big.NewInt(1), 256)
	v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 224))
	v.Add(v, new(big.Int).Lsh(big.NewInt(1), 192))
	v.Add(v, new(big.Int).Lsh(big.NewInt(1), 96))
	return v.Sub(v, big.NewInt(1))
}

// Default returns the built-in moduli used when a configuration document
// does not override them.
func Default() Moduli {
	return New(l1Prime(), l2Prime(), l3Prime())
}
