// Package artifact serializes and deserializes the compiled scoring
// artifact: metadata plus the three interpolated Lagrange
// polynomials and their moduli/masks, CBOR-encoded for a stable,
// human-legible wire format.
package artifact

import (
	"fmt"
	"io"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/mod/semver"

	"github.com/ajiang-xyz/ZekaEngine/internal/lagrange"
	"github.com/ajiang-xyz/ZekaEngine/internal/params"
)

// FormatVersion is the current artifact wire format's version, an additive
// field layered on top as a forward-compatibility guard rather than a
// change to any other field's meaning.
const FormatVersion = "v1.0.0"

// polynomial is cbor.Marshal's view of a lagrange.Polynomial: big.Int
// doesn't implement cbor.Marshaler, so coefficients and the modulus travel
// as their canonical minimal-length byte form and get rehydrated on Read.
type polynomial struct {
	Coeffs [][]byte
	P      []byte
}

func toWirePolynomial(p *lagrange.Polynomial) polynomial {
	w := polynomial{Coeffs: make([][]byte, len(p.Coeffs)), P: p.P.Bytes()}
	for i, c := range p.Coeffs {
		w.Coeffs[i] = c.Bytes()
	}
	return w
}

func (w polynomial) toPolynomial() *lagrange.Polynomial {
	p := &lagrange.Polynomial{Coeffs: make([]*big.Int, len(w.Coeffs)), P: new(big.Int).SetBytes(w.P)}
	for i, c := range w.Coeffs {
		p.Coeffs[i] = new(big.Int).SetBytes(c)
	}
	return p
}

// wireModuli mirrors params.Moduli in byte form.
type wireModuli struct {
	L1, L2, L3      []byte
	VarMax, ExprMax []byte
}

func toWireModuli(m params.Moduli) wireModuli {
	return wireModuli{
		L1: m.L1.Bytes(), L2: m.L2.Bytes(), L3: m.L3.Bytes(),
		VarMax: m.VarMax.Bytes(), ExprMax: m.ExprMax.Bytes(),
	}
}

func (w wireModuli) toModuli() params.Moduli {
	return params.Moduli{
		L1: new(big.Int).SetBytes(w.L1), L2: new(big.Int).SetBytes(w.L2), L3: new(big.Int).SetBytes(w.L3),
		VarMax: new(big.Int).SetBytes(w.VarMax), ExprMax: new(big.Int).SetBytes(w.ExprMax),
	}
}

// wireArtifact is the CBOR wire shape. Exported field names keep the
// encoding stable and human-legible when inspected with a generic CBOR
// viewer.
type wireArtifact struct {
	FormatVersion string
	Title         string
	Aead          string
	Moduli        wireModuli
	L1, L2, L3    polynomial
}

// Artifact is the in-memory form the compiler produces and the engine
// consumes: the three interpolated polynomials plus the moduli and AEAD
// associated-data string every rule was sealed against.
type Artifact struct {
	Title  string
	Aead   string
	Moduli params.Moduli
	L1     *lagrange.Polynomial
	L2     *lagrange.Polynomial
	L3     *lagrange.Polynomial
}

// Write CBOR-encodes a to w.
func Write(w io.Writer, a *Artifact) error {
	wire := wireArtifact{
		FormatVersion: FormatVersion,
		Title:         a.Title,
		Aead:          a.Aead,
		Moduli:        toWireModuli(a.Moduli),
		L1:            toWirePolynomial(a.L1),
		L2:            toWirePolynomial(a.L2),
		L3:            toWirePolynomial(a.L3),
	}
	enc := cbor.NewEncoder(w)
	if err := enc.Encode(wire); err != nil {
		return fmt.Errorf("artifact: encoding failed: %w", err)
	}
	return nil
}

// Read decodes an Artifact from r, rejecting any format version whose
// semver major component differs from FormatVersion's, older or newer
// (minor/patch bumps are assumed additive and forward-readable).
func Read(r io.Reader) (*Artifact, error) {
	var wire wireArtifact
	dec := cbor.NewDecoder(r)
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("artifact: decoding failed: %w", err)
	}

	if semver.Major(wire.FormatVersion) != semver.Major(FormatVersion) {
		return nil, fmt.Errorf("artifact: format version %s is incompatible with engine version %s",
			wire.FormatVersion, FormatVersion)
	}

	return &Artifact{
		Title:  wire.Title,
		Aead:   wire.Aead,
		Moduli: wire.Moduli.toModuli(),
		L1:     wire.L1.toPolynomial(),
		L2:     wire.L2.toPolynomial(),
		L3:     wire.L3.toPolynomial(),
	}, nil
}
