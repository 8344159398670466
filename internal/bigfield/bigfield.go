// Package bigfield implements arbitrary-precision modular arithmetic over a
// prime field, plus the little-endian minimal-length byte encoding the
// compiler and runtime hash to derive each rule's AES-GCM key.
package bigfield

import (
	"fmt"
	"math/big"
)

// ModAdd returns (a + b) mod p.
func ModAdd(a, b, p *big.Int) *big.Int {
	r := new(big.Int).Add(a, b)
	return r.Mod(r, p)
}

// ModMul returns (a * b) mod p.
func ModMul(a, b, p *big.Int) *big.Int {
	r := new(big.Int).Mul(a, b)
	return r.Mod(r, p)
}

// ModInv returns a⁻¹ mod p. Fails if a and p are not coprime — this
// treats this as signaling a non-prime modulus, a fatal compile-time error.
func ModInv(a, p *big.Int) (*big.Int, error) {
	r := new(big.Int).ModInverse(a, p)
	if r == nil {
		return nil, fmt.Errorf("bigfield: mod_inv(%s, %s) has no inverse: modulus is not prime or input shares a factor with it", a, p)
	}
	return r, nil
}

// ModPow returns a^e mod p.
func ModPow(a, e, p *big.Int) *big.Int {
	return new(big.Int).Exp(a, e, p)
}

// EncodeLE encodes v as little-endian bytes with no trailing zero bytes
// (little-endian, minimal length: no trailing zero bytes).
func EncodeLE(v *big.Int) []byte {
	be := v.Bytes() // big-endian, minimal length, no leading zeros
	n := len(be)
	le := make([]byte, n)
	for i, b := range be {
		le[n-1-i] = b
	}
	return le
}

// DecodeLE is the exact inverse of EncodeLE.
func DecodeLE(b []byte) *big.Int {
	n := len(b)
	be := make([]byte, n)
	for i, v := range b {
		be[n-1-i] = v
	}
	return new(big.Int).SetBytes(be)
}

// BitLen returns the number of bits required to represent v (0 for v == 0).
func BitLen(v *big.Int) int {
	return v.BitLen()
}
