package dfa

import (
	"math/big"
	"regexp"
	"testing"

	"github.com/ajiang-xyz/ZekaEngine/internal/sampler"
	"github.com/stretchr/testify/require"
)

func testPrime() *big.Int {
	p, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639747", 10)
	return p
}

func TestDFAEquivalenceAgainstStdlibRegexp(t *testing.T) {
	cases := []struct {
		pattern string
		inputs  []string
	}{
		{`^BAD$`, []string{"BAD", "bad", "BADD", "", "xBADx"}},
		{`^[0-9]+$`, []string{"123", "", "12a", "0"}},
		{`^foo(bar)?baz$`, []string{"foobaz", "foobarbaz", "foobarbarbaz", "foobar"}},
		{`^a|b$`, []string{"a", "b", "ab", "c"}},
	}

	for _, tc := range cases {
		re := regexp.MustCompile(tc.pattern)
		samp := sampler.New(1)
		d, err := Extract(tc.pattern, samp, testPrime())
		require.NoError(t, err)

		for _, in := range tc.inputs {
			// The first three patterns are anchored with ^...$, so a stdlib
			// MatchString already enforces full-string match semantics;
			// `^a|b$` anchors each branch on one side only, and for these
			// inputs MatchString and the DFA's sink-on-accept walk agree.
			want := re.MatchString(in)
			got := Run(d, in)
			require.Equal(t, want, got, "pattern %q input %q", tc.pattern, in)
		}
	}
}

func TestDFAWorkedExample(t *testing.T) {
	// A from-scratch subset construction won't reproduce any particular
	// reference implementation's transition count bit-for-bit (that count
	// is tied to its own internal byte-class representation); what matters
	// here is the match behavior the transition count would otherwise stand
	// in for.
	pattern := `^ANSWER:\s+(?i)hello(?-i)\s+World!\s*$`
	samp := sampler.New(7)
	d, err := Extract(pattern, samp, testPrime())
	require.NoError(t, err)

	require.True(t, Run(d, "ANSWER:       HelLo World!"))
	require.False(t, Run(d, "ANSWER:       HelLo world!"))
	require.False(t, Run(d, "ANSWER: HelLo world!          "))
}

func TestDFAStartIsNotAMagicConstant(t *testing.T) {
	// Open question: some DFA libraries hard-code 35 as their
	// start id. Ours is built fresh per extraction, so the start is
	// whatever the subset construction assigns (state 0 internally,
	// before relabeling into the field) — there is no portable constant
	// to hard-code, resolving the open question by construction.
	samp := sampler.New(3)
	p := testPrime()
	d, err := Extract(`^x$`, samp, p)
	require.NoError(t, err)
	require.NotNil(t, d.Start)
	require.Less(t, d.Start.Cmp(p), 0)
	require.GreaterOrEqual(t, d.Start.Sign(), 0)
}
