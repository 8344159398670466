// Package dfa extracts a deterministic, byte-driven finite automaton from a
// compiled regex: it materializes the state-transition table
// including an explicit end-of-input class, prunes unreachable states by
// construction (subset construction only ever visits reachable sets),
// expands every equivalence class to one transition per concrete byte, and
// relabels every surviving state with a fresh random field point.
package dfa

import (
	"fmt"
	"math/big"
	"regexp/syntax"
	"sort"
	"strconv"
	"strings"

	"github.com/ajiang-xyz/ZekaEngine/internal/sampler"
)

// Class identifies what a transition consumes: a concrete byte, or the
// distinguished end-of-input symbol applied once after the last character
// of a line.
type Class struct {
	Eoi  bool
	Byte byte
}

// Transition is one already-relabeled L3 edge.
type Transition struct {
	From  *big.Int
	To    *big.Int
	Class Class
}

// DFA is the output of Extract: the start and accepting points in L3 field
// coordinates, plus the full expanded transition list.
type DFA struct {
	Start       *big.Int
	Accept      *big.Int
	Transitions []Transition
}

// Extract compiles pattern (already normalized by internal/regexnorm) into a
// byte-level DFA and relabels every state to a fresh flagless point in 𝔽_p.
// No label is itself packed into a record: the packed check_dfa_start_ptr
// is sampled separately by internal/vulncompile and resolves to Start
// through L3.
func Extract(pattern string, samp *sampler.Sampler, p *big.Int) (*DFA, error) {
	re, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, fmt.Errorf("dfa: failed to parse regex %q: %w", pattern, err)
	}
	re = re.Simplify()

	b := newNFABuilder()
	f := b.build(re)

	det := newDeterminizer(b.states, f.start, f.accept)
	det.run()

	acceptIDs := det.acceptingStateIDs()
	if len(acceptIDs) == 0 {
		return nil, fmt.Errorf("dfa: pattern %q has no reachable accepting state", pattern)
	}
	// Every accepting id collapses onto the same canonical representative,
	// so every state whose underlying NFA set contains nfaAccept — not just
	// the bare singleton closure of {nfaAccept} — labels to one shared
	// field point. A top-level alternation (or anything else that
	// epsilon-wires a branch's own accept into the shared outer accept) can
	// make the state actually reached after a match a strict superset of
	// {nfaAccept}; without this collapse that state would get its own
	// distinct label and Run/the membership transition below would never
	// recognize it as accepting.
	canonicalAccept := acceptIDs[0]

	labels := make(map[int]*big.Int, len(det.states))
	labelOf := func(id int) *big.Int {
		if det.isAccepting(id) {
			id = canonicalAccept
		}
		if pt, ok := labels[id]; ok {
			return pt
		}
		pt := samp.SampleFlagless(p)
		labels[id] = pt
		return pt
	}

	result := &DFA{}
	result.Start = labelOf(det.startID)
	result.Accept = labelOf(canonicalAccept)

	for id := 0; id < len(det.states); id++ {
		from := labelOf(id)
		if det.isAccepting(id) {
			// A match, once complete, stays complete: these DFAs answer "does
			// a match begin at the start of this line", not "does the match
			// span the whole remaining input", so every accepting state is a
			// sink — any further byte, and the trailing Eoi transition, loop
			// back onto the same canonical accept point. Without this, an id
			// that reaches nfaAccept mid-string (e.g. one unanchored branch of
			// a top-level alternation) would fall through to its own real
			// byteTo/eoiTo table and could walk back out of acceptance on
			// the bytes that follow, even though the regex already matched.
			// Every accepting id shares one label, so the sink transitions
			// are emitted once, for the canonical id only; repeating them
			// would put the same x twice into the L3 transition list.
			if id != canonicalAccept {
				continue
			}
			for byt := 0; byt < 256; byt++ {
				result.Transitions = append(result.Transitions, Transition{From: from, To: from, Class: Class{Byte: byte(byt)}})
			}
			result.Transitions = append(result.Transitions, Transition{From: from, To: from, Class: Class{Eoi: true}})
			continue
		}
		st := det.states[id]
		for byt := 0; byt < 256; byt++ {
			to := labelOf(st.byteTo[byt])
			result.Transitions = append(result.Transitions, Transition{From: from, To: to, Class: Class{Byte: byte(byt)}})
		}
		to := labelOf(st.eoiTo)
		result.Transitions = append(result.Transitions, Transition{From: from, To: to, Class: Class{Eoi: true}})
	}

	return result, nil
}

// Run walks s through the DFA byte-by-byte then applies one Eoi transition,
// returning whether the final state is the accepting state. Used for
// the DFA-equivalence property test against Go's own
// regexp engine.
func Run(d *DFA, s string) (accepted bool) {
	byTransition := make(map[string]*big.Int, len(d.Transitions))
	key := func(from *big.Int, c Class) string {
		if c.Eoi {
			return from.String() + ":eoi"
		}
		return from.String() + ":" + strconv.Itoa(int(c.Byte))
	}
	for _, t := range d.Transitions {
		byTransition[key(t.From, t.Class)] = t.To
	}

	state := d.Start
	for i := 0; i < len(s); i++ {
		state = byTransition[key(state, Class{Byte: s[i]})]
	}
	state = byTransition[key(state, Class{Eoi: true})]
	return state.Cmp(d.Accept) == 0
}

// determinizer performs subset construction over the byte alphabet plus the
// Eoi pseudo-symbol.
type determinizer struct {
	nfa        []nfaState
	nfaAccept  int
	startID    int
	states     []detState
	index      map[string]int
	worklist   []int
}

type detState struct {
	set    []int // sorted NFA state ids, this DFA state's identity
	byteTo [256]int
	eoiTo  int
}

func newDeterminizer(nfa []nfaState, nfaStart, nfaAccept int) *determinizer {
	d := &determinizer{nfa: nfa, nfaAccept: nfaAccept, index: map[string]int{}}
	startSet := d.epsilonClosure([]int{nfaStart})
	d.startID = d.getOrCreate(startSet)
	return d
}

func (d *determinizer) run() {
	d.drainWorklist()
}

func (d *determinizer) drainWorklist() {
	for len(d.worklist) > 0 {
		id := d.worklist[0]
		d.worklist = d.worklist[1:]
		set := d.states[id].set

		for b := 0; b < 256; b++ {
			moved := d.moveByte(set, byte(b))
			closed := d.epsilonClosure(moved)
			d.states[id].byteTo[b] = d.getOrCreate(closed)
		}
		movedEoi := d.moveEoi(set)
		closedEoi := d.epsilonClosure(movedEoi)
		d.states[id].eoiTo = d.getOrCreate(closedEoi)
	}
}

func (d *determinizer) epsilonClosure(start []int) []int {
	seen := map[int]bool{}
	var stack []int
	for _, s := range start {
		if !seen[s] {
			seen[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range d.nfa[s].edges {
			if e.kind == edgeEpsilon && !seen[e.to] {
				seen[e.to] = true
				stack = append(stack, e.to)
			}
		}
	}
	out := make([]int, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Ints(out)
	return out
}

func (d *determinizer) moveByte(set []int, b byte) []int {
	var out []int
	for _, s := range set {
		for _, e := range d.nfa[s].edges {
			if e.kind == edgeByte && b >= e.lo && b <= e.hi {
				out = append(out, e.to)
			}
		}
	}
	return out
}

func (d *determinizer) moveEoi(set []int) []int {
	var out []int
	for _, s := range set {
		for _, e := range d.nfa[s].edges {
			if e.kind == edgeEoi {
				out = append(out, e.to)
			}
		}
	}
	return out
}

func (d *determinizer) getOrCreate(set []int) int {
	key := setKey(set)
	if id, ok := d.index[key]; ok {
		return id
	}
	id := len(d.states)
	d.states = append(d.states, detState{set: set})
	d.index[key] = id
	d.worklist = append(d.worklist, id)
	return id
}

func setKey(set []int) string {
	strs := make([]string, len(set))
	for i, s := range set {
		strs[i] = strconv.Itoa(s)
	}
	return strings.Join(strs, ",")
}

// isAccepting reports whether id's underlying NFA subset contains the
// overall accept state — true for the canonical singleton closure, but
// also for any superset an alternation or other shared epsilon-wiring
// produces (e.g. {innerAccept, nfaAccept}).
func (d *determinizer) isAccepting(id int) bool {
	for _, s := range d.states[id].set {
		if s == d.nfaAccept {
			return true
		}
	}
	return false
}

// acceptingStateIDs returns every reachable DFA state id whose underlying
// NFA subset contains nfaAccept, in ascending id order.
func (d *determinizer) acceptingStateIDs() []int {
	var ids []int
	for id := range d.states {
		if d.isAccepting(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

