package sampler

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleUnique(t *testing.T) {
	s := New(42)
	p := big.NewInt(97)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		pt := s.Sample(p)
		require.True(t, pt.Cmp(p) < 0)
		require.False(t, seen[pt.String()], "duplicate point %s", pt)
		seen[pt.String()] = true
	}
	require.Equal(t, 50, s.Seen())
}

func TestSampleFlaglessClearsTopBit(t *testing.T) {
	s := New(7)
	// p just above a power of two so the top bit is meaningful.
	p := new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 8), big.NewInt(1)) // 257
	topBit := p.BitLen() - 1
	mask := new(big.Int).Lsh(big.NewInt(1), uint(topBit))

	for i := 0; i < 100; i++ {
		pt := s.SampleFlagless(p)
		require.Zero(t, new(big.Int).And(pt, mask).Sign(), "top bit must be clear on %s", pt)
	}
}

func TestSampleAndFlaglessShareUniquenessDomain(t *testing.T) {
	s := New(1)
	p := big.NewInt(1000003)
	pts := map[string]bool{}
	for i := 0; i < 500; i++ {
		var pt *big.Int
		if i%2 == 0 {
			pt = s.Sample(p)
		} else {
			pt = s.SampleFlagless(p)
		}
		require.False(t, pts[pt.String()])
		pts[pt.String()] = true
	}
}
