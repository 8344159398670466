package regexnorm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeWorkedExample(t *testing.T) {
	in := `  \s*  the[\t ]*\tright\s*answer  has\s+many\s*\s+whitespaces    `
	got := Normalize(in)
	require.Equal(t, `^the right( )?answer has many whitespaces$`, got)
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		`  \s*  the[\t ]*\tright\s*answer  has\s+many\s*\s+whitespaces    `,
		`^BAD$`,
		`ANSWER:\s+(?i)hello(?-i)\s+World!\s*`,
		`no whitespace here`,
		`   leading and trailing   `,
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		require.Equal(t, once, twice, "normalize not idempotent for %q", in)
	}
}

func TestNormalizeStripsAnchors(t *testing.T) {
	got := Normalize("^BAD$")
	require.Equal(t, "^BAD$", got)
}
