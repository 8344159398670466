// Package vulncompile lowers a parsed configuration document's vulnerability
// rules into the L1/L2/L3 transition lists the artifact's three polynomials
// are interpolated from. Each rule's boolean check tree is
// assembled first (internal/exprasm), then its leaves' regex DFAs are
// extracted (internal/dfa), sealed behind AES-256-GCM, and packed into
// linked vuln records keyed by file path.
package vulncompile

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ajiang-xyz/ZekaEngine/internal/bigfield"
	"github.com/ajiang-xyz/ZekaEngine/internal/category"
	"github.com/ajiang-xyz/ZekaEngine/internal/config"
	"github.com/ajiang-xyz/ZekaEngine/internal/dfa"
	"github.com/ajiang-xyz/ZekaEngine/internal/diag"
	"github.com/ajiang-xyz/ZekaEngine/internal/exprasm"
	"github.com/ajiang-xyz/ZekaEngine/internal/fieldgeo"
	"github.com/ajiang-xyz/ZekaEngine/internal/invariant"
	"github.com/ajiang-xyz/ZekaEngine/internal/lagrange"
	"github.com/ajiang-xyz/ZekaEngine/internal/params"
	"github.com/ajiang-xyz/ZekaEngine/internal/regexnorm"
	"github.com/ajiang-xyz/ZekaEngine/internal/sampler"
)

// Result collects every layer's transition list across all compiled rules,
// the raw input to internal/lagrange.Interpolate for each of the three
// artifact polynomials.
type Result struct {
	L1 []lagrange.Point
	L3 []lagrange.Point
	L2 []lagrange.Point
}

// zeroNonce is the all-zero AES-GCM nonce every rule seals under — safe only
// because each rule's key is derived from that rule's own unique expression
// halting state, so the (key, nonce) pair is never reused; see sealPlaintext.
var zeroNonce = make([]byte, 12)

// leafVarRecord holds one leaf's var_1 sub-fields unpacked, so the
// linked-list "has next" flag can be applied to next_var_ptr at its correct
// part-local bit position before the final pack happens in
// chainVarRecordsByPath.
type leafVarRecord struct {
	path             string
	nextVarPtr       *big.Int
	expr1            *big.Int
	varIdentPtr      *big.Int
	checkDFAStartPtr *big.Int
}

// Compile lowers every rule in doc into transitions, returning a best-effort
// Result even when bag accumulates diagnostics — the decision to refuse
// artifact emission on non-empty diagnostics belongs to the caller
// (internal/compiler), not to this package.
func Compile(doc *config.Document, mod params.Moduli, samp *sampler.Sampler, bag *diag.Bag) *Result {
	res := &Result{}
	var allLeafRecords []leafVarRecord

	maxPlaintextLen := mod.L1.BitLen()/8 - 8

	for _, rule := range doc.Rules {
		catIdx := category.Index(rule.Category)
		if catIdx < 0 {
			// load.go already reported the unknown-category diagnostic;
			// skip compiling a rule vulncompile can't seal correctly.
			continue
		}

		plaintext := formatPlaintext(byte(catIdx), rule.Message, rule.Points)
		if len(plaintext) > maxPlaintextLen {
			bag.Add(rule.Span, "rule %q plaintext (%d bytes) exceeds the %d-byte budget for this modulus",
				rule.Message, len(plaintext), maxPlaintextLen)
			continue
		}

		expr := exprasm.Assemble(rule.Pass, samp, mod.L2, bag)
		res.L2 = append(res.L2, expr.SelfLoops...)

		key := sha256.Sum256(bigfield.EncodeLE(expr.End))
		ciphertext, tag, err := sealPlaintext(key[:], plaintext, []byte(doc.Metadata.Aead))
		if err != nil {
			bag.Add(rule.Span, "failed to seal rule %q: %v", rule.Message, err)
			continue
		}

		// vuln_text_ptr/tag_ptr/expr_dfa_start_ptr/next_test_ident_ptr are
		// each one of expr_1's four EXPR_MAX-sized sub-fields (the
		// Expr bundle), so they're drawn from ExprMax's range, not their
		// target layer's full modulus — the "L1"/"L2" in their names names
		// which layer resolves them, not the range they were sampled from.
		vulnTextPtr := samp.Sample(mod.ExprMax)
		tagPtr := samp.Sample(mod.ExprMax)
		exprDfaStartPtr := samp.Sample(mod.ExprMax)
		res.L1 = append(res.L1,
			lagrange.Point{X: vulnTextPtr, Y: new(big.Int).SetBytes(ciphertext)},
			// The tag is stored byte-reversed before conversion — see
			// reverseBytes and internal/engine's matching unreversal on read.
			lagrange.Point{X: tagPtr, Y: new(big.Int).SetBytes(reverseBytes(tag))},
		)
		res.L2 = append(res.L2, lagrange.Point{X: exprDfaStartPtr, Y: expr.Start})

		nextTestIdentPtr := samp.Sample(mod.ExprMax)

		expr1, err := fieldgeo.PackNthParts(
			[]*big.Int{vulnTextPtr, tagPtr, nextTestIdentPtr, exprDfaStartPtr}, 4, mod.VarMax)
		if err != nil {
			bag.Add(rule.Span, "failed to pack expr_1 for rule %q: %v", rule.Message, err)
			continue
		}

		chainTestIdents(expr, nextTestIdentPtr, mod, res)

		for _, leaf := range expr.Leaves {
			rec, ok := compileLeaf(leaf, expr1, mod, samp, bag, res)
			if ok {
				allLeafRecords = append(allLeafRecords, rec)
			}
		}
	}

	chainVarRecordsByPath(allLeafRecords, mod, res)
	return res
}

// formatPlaintext builds "<msg> - <pts> pts" ASCII-prefixed with the
// one-byte category index.
func formatPlaintext(catIdx byte, message string, points float64) []byte {
	var ptsStr string
	if points == float64(int64(points)) {
		ptsStr = strconv.FormatInt(int64(points), 10)
	} else {
		ptsStr = strconv.FormatFloat(points, 'g', -1, 64)
	}
	body := fmt.Sprintf("%s - %s pts", message, ptsStr)
	return append([]byte{catIdx}, []byte(body)...)
}

// sealPlaintext AES-256-GCM-seals plaintext under key with the zero nonce
// and aad as associated data, returning ciphertext and its 16-byte tag
// separately.
func sealPlaintext(key, plaintext, aad []byte) (ciphertext, tag []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("vulncompile: building AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("vulncompile: building GCM mode: %w", err)
	}
	sealed := gcm.Seal(nil, zeroNonce, plaintext, aad)
	n := len(sealed)
	return sealed[:n-gcm.Overhead()], sealed[n-gcm.Overhead():], nil
}

// reverseBytes returns a reversed copy of b. The tag is stored reversed so
// that its big-integer encoding and the engine's matching reversal on
// read (internal/engine) are forced to agree explicitly rather than
// silently relying on big.Int.SetBytes's big-endian convention matching
// AES-GCM's own tag byte order by coincidence.
func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, c := range b {
		out[len(b)-1-i] = c
	}
	return out
}

// chainTestIdents links expr's leaves' var_idents into the L2 chain rooted
// at nextTestIdentPtr (the "next_test_ident_list"): each
// non-last entry has its top bit set to signal "more idents follow"; the
// lookup key for entry i+1 is always leaf i's own (flagless) var_ident,
// matching how the runtime re-evaluates L2 at the cleared identifier to
// step to the next link.
func chainTestIdents(expr *exprasm.Expression, nextTestIdentPtr *big.Int, mod params.Moduli, res *Result) {
	prevKey := nextTestIdentPtr
	for i, leaf := range expr.Leaves {
		val := leaf.VarIdent
		if i != len(expr.Leaves)-1 {
			val = fieldgeo.SetTopBit(leaf.VarIdent, mod.L2)
		}
		res.L2 = append(res.L2, lagrange.Point{X: prevKey, Y: val})
		prevKey = leaf.VarIdent
	}
}

// compileLeaf extracts one regex check's DFA into L3, wires its L2
// membership transition, and packs its var_1 record.
func compileLeaf(leaf exprasm.LeafRef, expr1 *big.Int, mod params.Moduli, samp *sampler.Sampler, bag *diag.Bag, res *Result) (leafVarRecord, bool) {
	normalized := regexnorm.Normalize(leaf.Pattern)
	d, err := dfa.Extract(normalized, samp, mod.L3)
	if err != nil {
		bag.Add(leaf.Span, "failed to extract regex DFA for %q: %v", leaf.Pattern, err)
		return leafVarRecord{}, false
	}

	for _, t := range d.Transitions {
		if t.Class.Eoi {
			res.L3 = append(res.L3, lagrange.Point{X: t.From, Y: t.To})
			continue
		}
		x, err := fieldgeo.CantorPairingMod(t.From, big.NewInt(int64(t.Class.Byte)), mod.L3)
		if err != nil {
			bag.Add(leaf.Span, "failed to build byte transition for %q: %v", leaf.Pattern, err)
			return leafVarRecord{}, false
		}
		res.L3 = append(res.L3, lagrange.Point{X: x, Y: t.To})
	}

	membershipX, err := fieldgeo.CantorPairingMod(leaf.Start, d.Accept, mod.L2)
	if err != nil {
		bag.Add(leaf.Span, "failed to build expression membership transition for %q: %v", leaf.Pattern, err)
		return leafVarRecord{}, false
	}
	res.L2 = append(res.L2, lagrange.Point{X: membershipX, Y: leaf.End})

	// next_var_ptr/check_dfa_start_ptr/var_ident_ptr are three of var_1's
	// four VAR_MAX-sized sub-fields of the vuln record, so they're
	// drawn from VarMax's range — the layer each resolves through is a
	// property of which transition list they're pushed into below, not of
	// the range they were sampled from.
	nextVarPtr := samp.SampleFlagless(mod.VarMax)
	checkDfaStartPtr := samp.Sample(mod.VarMax)
	varIdentPtr := samp.Sample(mod.VarMax)

	res.L2 = append(res.L2, lagrange.Point{X: varIdentPtr, Y: leaf.VarIdent})
	res.L3 = append(res.L3, lagrange.Point{X: checkDfaStartPtr, Y: d.Start})

	return leafVarRecord{
		path:             leaf.Path,
		nextVarPtr:       nextVarPtr,
		expr1:            expr1,
		varIdentPtr:      varIdentPtr,
		checkDFAStartPtr: checkDfaStartPtr,
	}, true
}

// chainVarRecordsByPath groups every leaf's var_1 record by file path and
// chains them: the chain is seeded with the path's
// raw byte value so a runtime lookup of from_bytes(path) in L1 finds the
// first record directly. The "has next" flag lives on next_var_ptr's own
// part-local top bit (the field occupying var_1's most significant quarter),
// applied before that quarter is packed — matching how the runtime
// re-reads it after splitting var_1 back apart at runtime.
func chainVarRecordsByPath(records []leafVarRecord, mod params.Moduli, res *Result) {
	order := []string{}
	byPath := map[string][]leafVarRecord{}
	for _, rec := range records {
		if _, ok := byPath[rec.path]; !ok {
			order = append(order, rec.path)
		}
		byPath[rec.path] = append(byPath[rec.path], rec)
	}

	for _, path := range order {
		group := byPath[path]
		previous := new(big.Int).SetBytes([]byte(path))
		for i, rec := range group {
			nextVarPtrField := rec.nextVarPtr
			hasNext := i != len(group)-1
			if hasNext {
				nextVarPtrField = fieldgeo.SetPartTopBit(rec.nextVarPtr, 4, mod.L1)
			}

			packed, err := fieldgeo.PackNthParts(
				[]*big.Int{nextVarPtrField, rec.expr1, rec.varIdentPtr, rec.checkDFAStartPtr}, 4, mod.L1)
			invariant.ExpectNoError(err, fmt.Sprintf("packing var_1 for path %q", path))

			res.L1 = append(res.L1, lagrange.Point{X: previous, Y: packed})
			if hasNext {
				previous = nextVarPtrField
			}
		}
	}
}
