package lagrange

import (
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPrime() *big.Int {
	p, _ := new(big.Int).SetString("340282366920938463463374607431768211507", 10) // 2^128 + 51, a probable 129-bit prime
	return p
}

func TestInterpolationPassesThroughAllPoints(t *testing.T) {
	p := testPrime()
	rng := rand.New(rand.NewSource(99))

	xs := map[string]bool{}
	var points []Point
	for len(points) < 6 {
		x := new(big.Int).Rand(rng, p)
		if xs[x.String()] {
			continue
		}
		xs[x.String()] = true
		y := new(big.Int).Rand(rng, p)
		points = append(points, Point{X: x, Y: y})
	}

	poly, err := Interpolate(points, p)
	require.NoError(t, err)
	require.Len(t, poly.Coeffs, len(points))

	for _, pt := range points {
		got := poly.Eval(pt.X)
		require.Zero(t, got.Cmp(pt.Y), "expected f(%s)=%s, got %s", pt.X, pt.Y, got)
	}
}

func TestEvalMatchesExplicitPowerSum(t *testing.T) {
	p := big.NewInt(101)
	coeffs := []*big.Int{big.NewInt(3), big.NewInt(5), big.NewInt(7)} // 3 + 5x + 7x^2
	x := big.NewInt(4)
	got := Eval(coeffs, x, p)
	want := big.NewInt((3 + 5*4 + 7*16) % 101)
	require.Zero(t, got.Cmp(want))
}

func TestSinglePointDegreeZero(t *testing.T) {
	p := testPrime()
	pt := Point{X: big.NewInt(5), Y: big.NewInt(42)}
	poly, err := Interpolate([]Point{pt}, p)
	require.NoError(t, err)
	require.Len(t, poly.Coeffs, 1)
	require.Zero(t, poly.Eval(big.NewInt(999)).Cmp(big.NewInt(42)))
}
