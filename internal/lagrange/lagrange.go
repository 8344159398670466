// Package lagrange interpolates the unique degree-(k−1) polynomial through
// k points over a prime field, and evaluates such polynomials. This
// §4.3). This is the step that turns a compiler's transition lists into the
// opaque polynomials the artifact actually ships.
package lagrange

import (
	"math/big"

	"github.com/ajiang-xyz/ZekaEngine/internal/bigfield"
)

// Point is one (x, y) sample over 𝔽_p.
type Point struct {
	X, Y *big.Int
}

// Polynomial holds coefficients low-degree first: f(x) = Σ Coeffs[i]·x^i.
type Polynomial struct {
	Coeffs []*big.Int
	P      *big.Int
}

// Interpolate produces the unique polynomial of degree len(points)-1 that
// passes through every point, via the classic sum-of-basis-polynomials
// (Lagrange) construction. All xᵢ must be distinct — the sampler guarantees
// this upstream and Interpolate does not re-check it.
func Interpolate(points []Point, p *big.Int) (*Polynomial, error) {
	k := len(points)
	coeffs := make([]*big.Int, k)
	for i := range coeffs {
		coeffs[i] = big.NewInt(0)
	}

	for i := 0; i < k; i++ {
		basis, err := basisPolynomial(points, i, p)
		if err != nil {
			return nil, err
		}
		scaled := scalePolynomial(basis, points[i].Y, p)
		addInPlace(coeffs, scaled, p)
	}

	return &Polynomial{Coeffs: coeffs, P: new(big.Int).Set(p)}, nil
}

// basisPolynomial returns the coefficients (low-degree first) of the i-th
// Lagrange basis polynomial ℓᵢ(x) = Π_{j≠i} (x - xⱼ)/(xᵢ - xⱼ).
func basisPolynomial(points []Point, i int, p *big.Int) ([]*big.Int, error) {
	num := []*big.Int{big.NewInt(1)} // polynomial "1"
	denom := big.NewInt(1)

	xi := points[i].X
	for j, pt := range points {
		if j == i {
			continue
		}
		// multiply num by (x - xj)
		num = polyMulLinear(num, pt.X, p)

		diff := new(big.Int).Sub(xi, pt.X)
		diff.Mod(diff, p)
		denom = bigfield.ModMul(denom, diff, p)
	}

	invDenom, err := bigfield.ModInv(denom, p)
	if err != nil {
		return nil, err
	}
	for idx := range num {
		num[idx] = bigfield.ModMul(num[idx], invDenom, p)
	}
	return num, nil
}

// polyMulLinear multiplies polynomial coeffs (low-degree first) by (x - c).
func polyMulLinear(coeffs []*big.Int, c *big.Int, p *big.Int) []*big.Int {
	out := make([]*big.Int, len(coeffs)+1)
	for i := range out {
		out[i] = big.NewInt(0)
	}
	negC := new(big.Int).Neg(c)
	negC.Mod(negC, p)

	for i, coeff := range coeffs {
		// x * coeffs[i] contributes to out[i+1]
		out[i+1] = bigfield.ModAdd(out[i+1], coeff, p)
		// -c * coeffs[i] contributes to out[i]
		term := bigfield.ModMul(coeff, negC, p)
		out[i] = bigfield.ModAdd(out[i], term, p)
	}
	return out
}

func scalePolynomial(coeffs []*big.Int, scalar *big.Int, p *big.Int) []*big.Int {
	out := make([]*big.Int, len(coeffs))
	for i, c := range coeffs {
		out[i] = bigfield.ModMul(c, scalar, p)
	}
	return out
}

func addInPlace(dst []*big.Int, src []*big.Int, p *big.Int) {
	for i, c := range src {
		dst[i] = bigfield.ModAdd(dst[i], c, p)
	}
}

// Eval evaluates the polynomial at x mod p: result = a₀ + Σᵢ≥₁ aᵢ·xⁱ.
func (poly *Polynomial) Eval(x *big.Int) *big.Int {
	return Eval(poly.Coeffs, x, poly.P)
}

// Eval evaluates coefficients (low-degree first) at x mod p using the
// explicit power-sum form rather than Horner's method; a Horner-form
// substitute would agree bit-exactly and is an equally valid choice.
func Eval(coeffs []*big.Int, x *big.Int, p *big.Int) *big.Int {
	result := big.NewInt(0)
	if len(coeffs) > 0 {
		result.Set(coeffs[0])
		result.Mod(result, p)
	}
	xPow := big.NewInt(1)
	for i := 1; i < len(coeffs); i++ {
		xPow = bigfield.ModMul(xPow, x, p)
		term := bigfield.ModMul(coeffs[i], xPow, p)
		result = bigfield.ModAdd(result, term, p)
	}
	return result
}
