// Package exprasm assembles a vulnerability rule's and/or/regex-leaf tree
// into an expression DFA over L2 field points: every node
// consumes a (start, end) pair of L2 points, AND-children chain through
// fresh interior points, OR-children share the same endpoints and gain two
// self-loop transitions so the expression DFA can idle on a "no match" token.
package exprasm

import (
	"math/big"

	"github.com/ajiang-xyz/ZekaEngine/internal/config"
	"github.com/ajiang-xyz/ZekaEngine/internal/diag"
	"github.com/ajiang-xyz/ZekaEngine/internal/fieldgeo"
	"github.com/ajiang-xyz/ZekaEngine/internal/lagrange"
	"github.com/ajiang-xyz/ZekaEngine/internal/sampler"
)

// LeafRef is a regex check registered against the expression transition
// list, still missing the (start, end, var_ident) → concrete L2 transition
// that internal/vulncompile adds once the leaf's regex DFA has been
// extracted and its halting state is known.
type LeafRef struct {
	Start, End *big.Int
	VarIdent   *big.Int
	Path       string
	Pattern    string
	Span       diag.Span
}

// Expression is one vulnerability rule's fully assembled and/or tree.
type Expression struct {
	Start, End *big.Int
	Leaves     []LeafRef
	SelfLoops  []lagrange.Point // from OR nodes, already concrete L2 (x, y) pairs
}

// Assemble walks the top-level pass sequence (implicit AND)
// and every nested and/or/regex node beneath it, sampling fresh L2 points as
// it goes. Diagnostics (empty child lists, malformed leaves) are collected
// into bag rather than aborting the walk.
func Assemble(nodes []config.CheckNode, samp *sampler.Sampler, p2 *big.Int, bag *diag.Bag) *Expression {
	expr := &Expression{
		Start: samp.Sample(p2),
		End:   samp.Sample(p2),
	}
	chainAnd(nodes, expr.Start, expr.End, expr, samp, p2, bag)
	return expr
}

func assembleNode(node config.CheckNode, start, end *big.Int, expr *Expression, samp *sampler.Sampler, p2 *big.Int, bag *diag.Bag) {
	switch node.Kind {
	case config.KindRegex:
		assembleLeaf(node, start, end, expr, samp, p2, bag)
	case config.KindAnd:
		if len(node.Children) == 0 {
			bag.Add(node.Span, "and requires at least one child check")
			return
		}
		chainAnd(node.Children, start, end, expr, samp, p2, bag)
	case config.KindOr:
		if len(node.Children) == 0 {
			bag.Add(node.Span, "or requires at least one child check")
			return
		}
		for _, child := range node.Children {
			assembleNode(child, start, end, expr, samp, p2, bag)
		}
		addOrSelfLoops(start, end, expr, p2, bag)
	default:
		bag.Add(node.Span, "check node has no recognized kind")
	}
}

// chainAnd wires children so child i runs start_i → end_i, with
// start_1 = start, end_n = end, and every interior end_i = start_{i+1}
// drawn fresh. It also backs Assemble's top-level
// implicit-AND sequence.
func chainAnd(children []config.CheckNode, start, end *big.Int, expr *Expression, samp *sampler.Sampler, p2 *big.Int, bag *diag.Bag) {
	cur := start
	for i, child := range children {
		childEnd := end
		if i != len(children)-1 {
			childEnd = samp.Sample(p2)
		}
		assembleNode(child, cur, childEnd, expr, samp, p2, bag)
		cur = childEnd
	}
}

func assembleLeaf(node config.CheckNode, start, end *big.Int, expr *Expression, samp *sampler.Sampler, p2 *big.Int, bag *diag.Bag) {
	if node.Path == "" || node.Pattern == "" {
		bag.Add(node.Span, "regex check requires a [path, pattern] argument pair")
		return
	}
	varIdent := samp.SampleFlagless(p2)
	expr.Leaves = append(expr.Leaves, LeafRef{
		Start:    start,
		End:      end,
		VarIdent: varIdent,
		Path:     node.Path,
		Pattern:  node.Pattern,
		Span:     node.Span,
	})
}

// addOrSelfLoops emits the two zero-token self-loops an OR node needs so the
// expression DFA can consume a "no-match" token on every tick without
// forcing a transition.
func addOrSelfLoops(start, end *big.Int, expr *Expression, p2 *big.Int, bag *diag.Bag) {
	endLoop, err := fieldgeo.CantorPairingMod(end, big.NewInt(0), p2)
	if err != nil {
		bag.Add(diag.Span{}, "failed to build or self-loop: %v", err)
		return
	}
	startLoop, err := fieldgeo.CantorPairingMod(start, big.NewInt(0), p2)
	if err != nil {
		bag.Add(diag.Span{}, "failed to build or self-loop: %v", err)
		return
	}
	expr.SelfLoops = append(expr.SelfLoops,
		lagrange.Point{X: endLoop, Y: end},
		lagrange.Point{X: startLoop, Y: start},
	)
}
