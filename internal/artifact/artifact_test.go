package artifact

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/ajiang-xyz/ZekaEngine/internal/lagrange"
	"github.com/ajiang-xyz/ZekaEngine/internal/params"
	"github.com/stretchr/testify/require"
)

// bigIntComparer lets cmp.Diff compare *big.Int by value instead of
// recursing into its unexported internal representation.
var bigIntComparer = cmp.Comparer(func(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
})

func samplePoly(p *big.Int) *lagrange.Polynomial {
	points := []lagrange.Point{
		{X: big.NewInt(1), Y: big.NewInt(10)},
		{X: big.NewInt(2), Y: big.NewInt(20)},
		{X: big.NewInt(3), Y: big.NewInt(30)},
	}
	poly, err := lagrange.Interpolate(points, p)
	if err != nil {
		panic(err)
	}
	return poly
}

func TestWriteReadRoundTrip(t *testing.T) {
	mod := params.Default()
	a := &Artifact{
		Title:  "sample policy",
		Aead:   "zeka",
		Moduli: mod,
		L1:     samplePoly(mod.L1),
		L2:     samplePoly(mod.L2),
		L3:     samplePoly(mod.L3),
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, a))

	got, err := Read(&buf)
	require.NoError(t, err)
	require.Equal(t, a.Title, got.Title)
	require.Equal(t, a.Aead, got.Aead)

	if diff := cmp.Diff(a.Moduli, got.Moduli, bigIntComparer); diff != "" {
		t.Errorf("moduli mismatch after round trip (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(a.L1, got.L1, bigIntComparer); diff != "" {
		t.Errorf("L1 polynomial mismatch after round trip (-want +got):\n%s", diff)
	}

	require.Equal(t, big.NewInt(10), got.L1.Eval(big.NewInt(1)))
}

func TestReadRejectsIncompatibleMajorVersion(t *testing.T) {
	mod := params.Default()
	a := &Artifact{Title: "t", Aead: "zeka", Moduli: mod, L1: samplePoly(mod.L1), L2: samplePoly(mod.L2), L3: samplePoly(mod.L3)}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, a))

	// Re-encode through the wire struct directly with a bumped major
	// version, simulating an artifact from a future incompatible format.
	var buf2 bytes.Buffer
	wire := wireArtifact{
		FormatVersion: "v2.0.0",
		Title:         a.Title,
		Aead:          a.Aead,
		Moduli:        toWireModuli(a.Moduli),
		L1:            toWirePolynomial(a.L1),
		L2:            toWirePolynomial(a.L2),
		L3:            toWirePolynomial(a.L3),
	}
	require.NoError(t, cbor.NewEncoder(&buf2).Encode(wire))

	_, err := Read(&buf2)
	require.Error(t, err)
}
