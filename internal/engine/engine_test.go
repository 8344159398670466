package engine

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajiang-xyz/ZekaEngine/internal/artifact"
	"github.com/ajiang-xyz/ZekaEngine/internal/config"
	"github.com/ajiang-xyz/ZekaEngine/internal/events"
	"github.com/ajiang-xyz/ZekaEngine/internal/lagrange"
	"github.com/ajiang-xyz/ZekaEngine/internal/params"
	"github.com/ajiang-xyz/ZekaEngine/internal/sampler"
	"github.com/ajiang-xyz/ZekaEngine/internal/vulncompile"
)

func compileSampleArtifact(t *testing.T, src string) *artifact.Artifact {
	t.Helper()
	doc, bag, err := config.Parse([]byte(src))
	require.NoError(t, err)
	require.False(t, bag.HasErrors(), bag.Render(src))

	mod := params.Default()
	samp := sampler.New(42)
	res := vulncompile.Compile(doc, mod, samp, bag)
	require.False(t, bag.HasErrors())

	l1, err := lagrange.Interpolate(res.L1, mod.L1)
	require.NoError(t, err)
	l2, err := lagrange.Interpolate(res.L2, mod.L2)
	require.NoError(t, err)
	l3, err := lagrange.Interpolate(res.L3, mod.L3)
	require.NoError(t, err)

	return &artifact.Artifact{
		Title:  doc.Metadata.Title,
		Aead:   doc.Metadata.Aead,
		Moduli: mod,
		L1:     l1,
		L2:     l2,
		L3:     l3,
	}
}

// singleRuleDoc is formatted with the path the test writes to, so the
// rule's L1 chain is keyed on the same path the tick's event names.
const singleRuleDoc = `
metadata:
  aead: zeka
rules:
  - "Bad line": 5
    category: uncategorized
    pass:
      - regex: ["%s", "^BAD$"]
`

func TestTickScoresMatchingContent(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/x.txt"
	require.NoError(t, writeFile(path, "BAD\n"))

	a := compileSampleArtifact(t, fmt.Sprintf(singleRuleDoc, path))
	ev := New(a)

	scored, changed, err := ev.Tick(map[string]events.Metadata{
		path: {Origin: events.OriginFanotify, Type: events.TypeWrite},
	})
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, []string{"Bad line - 5 pts"}, scored)
}

func TestTickDoesNotScoreNonMatchingContent(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/x.txt"
	require.NoError(t, writeFile(path, "GOOD\n"))

	a := compileSampleArtifact(t, fmt.Sprintf(singleRuleDoc, path))
	ev := New(a)

	scored, _, err := ev.Tick(map[string]events.Metadata{
		path: {Origin: events.OriginFanotify, Type: events.TypeWrite},
	})
	require.NoError(t, err)
	require.Empty(t, scored)
}

func TestTickIsIdempotentAcrossRepeatedTicks(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/x.txt"
	require.NoError(t, writeFile(path, "BAD\n"))

	a := compileSampleArtifact(t, fmt.Sprintf(singleRuleDoc, path))
	ev := New(a)

	evMap := map[string]events.Metadata{path: {Origin: events.OriginFanotify, Type: events.TypeWrite}}

	first, changed1, err := ev.Tick(evMap)
	require.NoError(t, err)
	require.True(t, changed1)

	second, changed2, err := ev.Tick(evMap)
	require.NoError(t, err)
	require.False(t, changed2)
	require.Equal(t, first, second)
}

func TestTickIgnoresNonFilesystemOrigins(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/x.txt"
	require.NoError(t, writeFile(path, "BAD\n"))

	a := compileSampleArtifact(t, fmt.Sprintf(singleRuleDoc, path))
	ev := New(a)

	scored, _, err := ev.Tick(map[string]events.Metadata{
		path: {Origin: events.OriginRegistry, Type: events.TypeWrite},
	})
	require.NoError(t, err)
	require.Empty(t, scored)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}
