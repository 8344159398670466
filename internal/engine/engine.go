// Package engine is the runtime scoring evaluator: it drives the three
// field-layer polynomials an artifact carries against live filesystem
// events, reconstructing the per-vulnerability AES-256-GCM key at the
// moment the observed file content actually satisfies a rule's expression.
package engine

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"

	"github.com/ajiang-xyz/ZekaEngine/internal/artifact"
	"github.com/ajiang-xyz/ZekaEngine/internal/bigfield"
	"github.com/ajiang-xyz/ZekaEngine/internal/events"
	"github.com/ajiang-xyz/ZekaEngine/internal/fieldgeo"
	"github.com/ajiang-xyz/ZekaEngine/internal/invariant"
	"github.com/ajiang-xyz/ZekaEngine/internal/params"
)

// zeroNonce mirrors internal/vulncompile's sealing nonce — every candidate
// key is only ever tried against a zero nonce, since the compiler never
// used any other.
var zeroNonce = make([]byte, 12)

// Evaluator holds one artifact's polynomials and the per-tick variable
// bindings accumulated while walking regex DFAs over observed file content.
type Evaluator struct {
	Artifact *artifact.Artifact

	// savedVars maps a leaf's var_ident (decimal string) to the set of L3
	// states reached by that leaf's regex over every distinct line of the
	// most recently observed file, plus the zero state for "line did not
	// match". Reset per path on every tick that touches it.
	savedVars map[string]map[string]struct{}

	scoredHash string
}

// New builds an Evaluator for a freshly loaded artifact.
func New(a *artifact.Artifact) *Evaluator {
	return &Evaluator{Artifact: a, savedVars: make(map[string]map[string]struct{})}
}

// identTuple is one path's (ciphertext, tag, expr_dfa_state, head_ident)
// bundle, resolved once per var_1 record visited during the path walk.
type identTuple struct {
	ciphertext []byte
	tag        []byte
	exprState  *big.Int
	headIdent  *big.Int
}

// Tick runs one scoring pass over the accumulated event map (path →
// metadata, latest write wins, already deduplicated by the collector),
// returning every currently scored vulnerability message, whether the
// scored set changed since the prior tick, and an error only on a
// disconnected/unrecoverable condition.
func (e *Evaluator) Tick(eventMap map[string]events.Metadata) ([]string, bool, error) {
	mod := e.Artifact.Moduli
	var idents []identTuple

	for path, meta := range eventMap {
		if meta.Origin != events.OriginEtw && meta.Origin != events.OriginFanotify {
			continue
		}
		tuples, err := e.walkPath(path, mod)
		if err != nil {
			return nil, false, err
		}
		idents = append(idents, tuples...)
	}

	scored := e.scoreIdents(idents, mod)

	hash := scoredSetHash(scored)
	changed := hash != e.scoredHash
	e.scoredHash = hash
	return scored, changed, nil
}

// walkPath drives the L1 chain rooted at from_bytes(path), resolving every
// var_1 record's expr bundle into one identTuple and rebuilding
// savedVars for every leaf the path's records reference.
func (e *Evaluator) walkPath(path string, mod params.Moduli) ([]identTuple, error) {
	var tuples []identTuple

	stack := []*big.Int{e.Artifact.L1.Eval(new(big.Int).SetBytes([]byte(path)))}
	for len(stack) > 0 {
		var1 := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		parts := fieldgeo.SplitIntoNthParts(var1, 4, mod.L1)
		nextVarPtr, expr1, varIdentPtr, checkDFAStartPtr := parts[0], parts[1], parts[2], parts[3]

		// next_var_ptr carries its own "has next" flag baked into the exact
		// value used as the next record's L1 lookup key — no separate
		// clearing step, since the compiler chained on the flagged value
		// itself (see internal/vulncompile.chainVarRecordsByPath).
		if fieldgeo.HasPartTopBit(nextVarPtr, 4, mod.L1) {
			stack = append(stack, e.Artifact.L1.Eval(nextVarPtr))
		}

		exprParts := fieldgeo.SplitIntoNthParts(expr1, 4, mod.VarMax)
		vulnTextPtr, tagPtr, nextTestIdentPtr, exprDFAStartPtr := exprParts[0], exprParts[1], exprParts[2], exprParts[3]

		ciphertext := e.Artifact.L1.Eval(vulnTextPtr).Bytes()
		tagField := e.Artifact.L1.Eval(tagPtr)
		exprState := e.Artifact.L2.Eval(exprDFAStartPtr)
		headIdent := e.Artifact.L2.Eval(nextTestIdentPtr)

		tuples = append(tuples, identTuple{
			ciphertext: ciphertext,
			tag:        unreverseTag(tagField),
			exprState:  exprState,
			headIdent:  headIdent,
		})

		varIdent := e.Artifact.L2.Eval(varIdentPtr)
		checkDFAState := e.Artifact.L3.Eval(checkDFAStartPtr)
		key := varIdent.String()
		e.savedVars[key] = map[string]struct{}{"0": {}}

		content := readFileBestEffort(path)
		for _, line := range distinctCollapsedLines(content) {
			state := checkDFAState
			for _, c := range []byte(line) {
				x, err := fieldgeo.CantorPairingMod(state, big.NewInt(int64(c)), mod.L3)
				invariant.ExpectNoError(err, "walking regex DFA: cantor pairing over a byte")
				state = e.Artifact.L3.Eval(x)
			}
			state = e.Artifact.L3.Eval(state) // end-of-input transition
			e.savedVars[key][state.String()] = struct{}{}
		}
	}

	return tuples, nil
}

// scoreIdents unrolls each identTuple's variable-binding chain, enumerates
// every binding combination through the expression DFA, and attempts
// decryption at each resulting candidate key.
func (e *Evaluator) scoreIdents(idents []identTuple, mod params.Moduli) []string {
	seen := map[string]struct{}{}
	var scored []string

	for _, it := range idents {
		bindingSets := e.unrollIdentChain(it.headIdent, mod.L2)
		for _, combo := range cartesianProduct(bindingSets) {
			state := it.exprState
			for _, binding := range combo {
				x, err := fieldgeo.CantorPairingMod(state, binding, mod.L2)
				invariant.ExpectNoError(err, "walking expression DFA: cantor pairing over a binding")
				state = e.Artifact.L2.Eval(x)
			}

			key := sha256.Sum256(bigfield.EncodeLE(state))
			plaintext, err := openSealed(key[:], it.ciphertext, it.tag, []byte(e.Artifact.Aead))
			if err != nil {
				continue // wrong candidate key: normal control flow, not an error
			}
			if len(plaintext) == 0 {
				continue
			}
			text := string(plaintext[1:]) // strip the leading category byte
			if _, ok := seen[text]; !ok {
				seen[text] = struct{}{}
				scored = append(scored, text)
			}
		}
	}

	sort.Strings(scored)
	return scored
}

// unrollIdentChain walks the next_test_ident linked list starting at
// headIdent, returning one set of bound L3 states per leaf in the
// expression, in chain order.
func (e *Evaluator) unrollIdentChain(headIdent *big.Int, p2 *big.Int) [][]*big.Int {
	var sets [][]*big.Int
	current := headIdent
	for {
		hasMore := fieldgeo.HasTopBit(current, p2)
		cleared := current
		if hasMore {
			cleared = fieldgeo.ClearTopBit(current, p2)
		}

		bound := e.savedVars[cleared.String()]
		if bound == nil {
			bound = map[string]struct{}{"0": {}}
		}
		sets = append(sets, setToSlice(bound))

		if !hasMore {
			break
		}
		current = e.Artifact.L2.Eval(cleared)
	}
	return sets
}

func setToSlice(set map[string]struct{}) []*big.Int {
	out := make([]*big.Int, 0, len(set))
	for s := range set {
		n, ok := new(big.Int).SetString(s, 10)
		invariant.Invariant(ok, "saved_vars key %q is not a valid integer", s)
		out = append(out, n)
	}
	return out
}

// cartesianProduct enumerates every combination across sets, one element
// from each, in stable order.
func cartesianProduct(sets [][]*big.Int) [][]*big.Int {
	if len(sets) == 0 {
		return nil
	}
	combos := [][]*big.Int{{}}
	for _, set := range sets {
		var next [][]*big.Int
		for _, combo := range combos {
			for _, v := range set {
				extended := make([]*big.Int, len(combo), len(combo)+1)
				copy(extended, combo)
				next = append(next, append(extended, v))
			}
		}
		combos = next
	}
	return combos
}

// scoredSetHash hashes the (already-sorted) scored set's content, so Tick
// can detect whether anything changed since the prior tick without
// re-rendering the report on every idle pass.
func scoredSetHash(scored []string) string {
	h := sha256.New()
	for _, s := range scored {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// readFileBestEffort reads path, returning "" on any error (spec: missing
// files during evaluation degrade to empty content, never a crash).
func readFileBestEffort(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(b)
}

// distinctCollapsedLines splits content into lines, trims each, collapses
// internal whitespace runs to a single space, and returns the distinct
// results (order doesn't matter — saved_vars is a set).
func distinctCollapsedLines(content string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, line := range strings.Split(content, "\n") {
		collapsed := strings.Join(strings.Fields(line), " ")
		if _, ok := seen[collapsed]; ok {
			continue
		}
		seen[collapsed] = struct{}{}
		out = append(out, collapsed)
	}
	return out
}

// unreverseTag recovers the original 16-byte GCM tag from its field
// encoding: internal/vulncompile.Compile stores the tag byte-reversed
// (reverseBytes) before converting to a big integer, so Bytes() must be
// left-padded to 16 bytes and then reversed again to undo it.
func unreverseTag(tagField *big.Int) []byte {
	raw := tagField.Bytes()
	padded := make([]byte, 16)
	copy(padded[16-len(raw):], raw)

	out := make([]byte, 16)
	for i, c := range padded {
		out[15-i] = c
	}
	return out
}

// openSealed attempts AES-256-GCM decryption of ciphertext under key with
// the zero nonce and aad, reassembling the GCM-expected ciphertext||tag
// layout crypto/cipher.AEAD.Open requires.
func openSealed(key, ciphertext, tag, aad []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("engine: building AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("engine: building GCM mode: %w", err)
	}
	sealed := append(append([]byte{}, ciphertext...), tag...)
	return gcm.Open(nil, zeroNonce, sealed, aad)
}
