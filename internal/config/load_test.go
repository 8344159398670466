package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWellFormedDocument(t *testing.T) {
	src := []byte(`
metadata:
  title: sample policy
  seed: 42
rules:
  - "guest account disabled": 5
    category: account_policy
    pass:
      - regex: ["/etc/passwd", "^guest:.*:0:0:"]
  - "no telnet service": 10
    category: service_auditing
    pass:
      - or:
          - regex: ["/etc/inetd.conf", "telnet"]
          - regex: ["/etc/xinetd.d/telnet", "disable\\s*=\\s*yes"]
`)
	doc, bag, err := Parse(src)
	require.NoError(t, err)
	require.False(t, bag.HasErrors(), bag.Render(string(src)))
	require.Equal(t, "sample policy", doc.Metadata.Title)
	require.Equal(t, int64(42), doc.Metadata.Seed)
	require.Len(t, doc.Rules, 2)

	r0 := doc.Rules[0]
	require.Equal(t, "guest account disabled", r0.Message)
	require.Equal(t, 5.0, r0.Points)
	require.Equal(t, "account_policy", r0.Category)
	require.Len(t, r0.Pass, 1)
	require.Equal(t, KindRegex, r0.Pass[0].Kind)
	require.Equal(t, "/etc/passwd", r0.Pass[0].Path)

	r1 := doc.Rules[1]
	require.Len(t, r1.Pass, 1)
	require.Equal(t, KindOr, r1.Pass[0].Kind)
	require.Len(t, r1.Pass[0].Children, 2)
}

func TestParseUnknownCategorySuggestsClosest(t *testing.T) {
	src := []byte(`
rules:
  - "bad rule": 1
    category: mallware
    pass:
      - regex: ["/tmp/x", "y"]
`)
	_, bag, err := Parse(src)
	require.NoError(t, err)
	require.True(t, bag.HasErrors())
	found := false
	for _, d := range bag.Items() {
		if d.Suggestion != "" {
			found = true
			require.Contains(t, d.Suggestion, "malware")
		}
	}
	require.True(t, found, "expected a fuzzy suggestion for the misspelled category")
}

func TestParseRejectsMultipleMessageKeys(t *testing.T) {
	src := []byte(`
rules:
  - "rule one": 1
    "rule two": 2
    category: appsec
    pass:
      - regex: ["/tmp/x", "y"]
`)
	_, bag, err := Parse(src)
	require.NoError(t, err)
	require.True(t, bag.HasErrors())
}

func TestParseRejectsRawRegexInSource(t *testing.T) {
	src := []byte(`
rules:
  - "rule": 1
    category: appsec
    pass:
      - raw_regex: ["/tmp/x", "y"]
`)
	_, bag, err := Parse(src)
	require.NoError(t, err)
	require.True(t, bag.HasErrors())
}

func TestParseEmptyRulesIsAnError(t *testing.T) {
	src := []byte(`rules: []`)
	_, bag, err := Parse(src)
	require.NoError(t, err)
	require.True(t, bag.HasErrors())
}

func TestParseInvalidYAMLReturnsError(t *testing.T) {
	_, _, err := Parse([]byte("rules: [ this is not closed"))
	require.Error(t, err)
}
