package compiler

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajiang-xyz/ZekaEngine/internal/artifact"
)

const validDoc = `
metadata:
  title: sample
  aead: zeka
  seed: 7
rules:
  - "Bad line": 5
    category: uncategorized
    pass:
      - regex: ["/tmp/x.txt", "^BAD$"]
`

const invalidDoc = `
metadata:
  aead: zeka
rules:
  - "Bad line": 5
    category: not_a_real_category
    pass:
      - regex: ["/tmp/x.txt", "^BAD$"]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCompileFileWritesAReadableArtifact(t *testing.T) {
	path := writeConfig(t, validDoc)

	var buf bytes.Buffer
	bag, err := CompileFile(path, &buf, Options{})
	require.NoError(t, err)
	require.False(t, bag.HasErrors())
	require.NotZero(t, buf.Len())

	a, err := artifact.Read(&buf)
	require.NoError(t, err)
	require.Equal(t, "sample", a.Title)
	require.Equal(t, "zeka", a.Aead)
}

func TestCompileFileRefusesToWriteOnDiagnostics(t *testing.T) {
	path := writeConfig(t, invalidDoc)

	var buf bytes.Buffer
	bag, err := CompileFile(path, &buf, Options{})
	require.NoError(t, err)
	require.True(t, bag.HasErrors())
	require.Zero(t, buf.Len())
}
