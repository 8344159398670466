package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderListsScoredMessages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, []string{"Bad line - 5 pts", "Worse line - 10 pts"}))

	out := buf.String()
	require.True(t, strings.Contains(out, "Bad line - 5 pts"))
	require.True(t, strings.Contains(out, "Worse line - 10 pts"))
}

func TestRenderHandlesEmptyScoredSet(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil))
	require.True(t, strings.Contains(buf.String(), "No vulnerabilities currently scored."))
}
