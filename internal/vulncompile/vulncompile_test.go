package vulncompile

import (
	"testing"

	"github.com/ajiang-xyz/ZekaEngine/internal/config"
	"github.com/ajiang-xyz/ZekaEngine/internal/diag"
	"github.com/ajiang-xyz/ZekaEngine/internal/params"
	"github.com/ajiang-xyz/ZekaEngine/internal/sampler"
	"github.com/stretchr/testify/require"
)

func sampleDoc(t *testing.T) *config.Document {
	t.Helper()
	src := []byte(`
metadata:
  aead: zeka
rules:
  - "guest account disabled": 5
    category: account_policy
    pass:
      - regex: ["/etc/passwd", "^guest:.*:0:0:$"]
  - "no telnet service": 10
    category: service_auditing
    pass:
      - or:
          - regex: ["/etc/passwd", "telnet"]
          - regex: ["/etc/passwd", "rlogin"]
`)
	doc, bag, err := config.Parse(src)
	require.NoError(t, err)
	require.False(t, bag.HasErrors(), bag.Render(string(src)))
	return doc
}

func TestCompileProducesNonEmptyTransitionsPerLayer(t *testing.T) {
	doc := sampleDoc(t)
	mod := params.Default()
	samp := sampler.New(11)
	bag := &diag.Bag{}

	res := Compile(doc, mod, samp, bag)
	require.False(t, bag.HasErrors())
	require.NotEmpty(t, res.L1)
	require.NotEmpty(t, res.L2)
	require.NotEmpty(t, res.L3)
}

func TestCompileChainsMultipleChecksOnTheSamePath(t *testing.T) {
	doc := sampleDoc(t)
	mod := params.Default()
	samp := sampler.New(12)
	bag := &diag.Bag{}

	res := Compile(doc, mod, samp, bag)
	require.False(t, bag.HasErrors())

	// Every rule above checks /etc/passwd (3 leaves total across both
	// rules): 1 from rule one plus 2 from rule two's OR node, so the L1
	// chain for that path contributes at least 3 links on top of the two
	// vuln_text_ptr/tag_ptr transitions each rule also adds to L1.
	require.GreaterOrEqual(t, len(res.L1), 3+2*2)
}

func TestCompileFlagsOversizePlaintext(t *testing.T) {
	mod := params.Default()
	samp := sampler.New(13)
	bag := &diag.Bag{}

	huge := make([]byte, 0, 1200)
	for i := 0; i < 1200; i++ {
		huge = append(huge, 'x')
	}
	doc := &config.Document{
		Metadata: config.Metadata{Aead: "zeka"},
		Rules: []config.Rule{{
			Message:  string(huge),
			Points:   1,
			Category: "appsec",
			Pass: []config.CheckNode{
				{Kind: config.KindRegex, Path: "/tmp/x", Pattern: "y"},
			},
		}},
	}

	Compile(doc, mod, samp, bag)
	require.True(t, bag.HasErrors())
}
