// Package diag collects compile-time diagnostics with source spans, the way
// runtime/parser collects ParseError values with token positions — except
// the configuration document has no lexer of its own, so spans here are the
// line/column a yaml.Node reports, not byte offsets.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Span is a line/column source location within the configuration document.
type Span struct {
	Line   int
	Column int
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// Diagnostic is a single compile-time problem. The compiler collects these
// instead of aborting on the first one: any
// non-empty diagnostics vector suppresses artifact emission.
type Diagnostic struct {
	Span       Span
	Message    string
	Suggestion string // e.g. "did you mean 'regex'?" — empty when none applies
}

func (d Diagnostic) Error() string {
	if d.Suggestion != "" {
		return fmt.Sprintf("%s: %s (%s)", d.Span, d.Message, d.Suggestion)
	}
	return fmt.Sprintf("%s: %s", d.Span, d.Message)
}

// Bag accumulates diagnostics across a compile run.
type Bag struct {
	items []Diagnostic
}

// Add records a diagnostic with no fuzzy suggestion.
func (b *Bag) Add(span Span, format string, args ...interface{}) {
	b.items = append(b.items, Diagnostic{Span: span, Message: fmt.Sprintf(format, args...)})
}

// AddWithSuggestion records a diagnostic and attaches the closest match from
// candidates (by Levenshtein-ish fuzzy rank) if one is close enough to be
// useful, mirroring the CLI's "unknown flag, did you mean...?" UX.
func (b *Bag) AddWithSuggestion(span Span, got string, candidates []string, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	d := Diagnostic{Span: span, Message: msg}
	if s := closest(got, candidates); s != "" {
		d.Suggestion = fmt.Sprintf("did you mean %q?", s)
	}
	b.items = append(b.items, d)
}

// HasErrors reports whether any diagnostic has been recorded.
func (b *Bag) HasErrors() bool {
	return len(b.items) > 0
}

// Items returns all recorded diagnostics sorted by source position.
func (b *Bag) Items() []Diagnostic {
	out := make([]Diagnostic, len(b.items))
	copy(out, b.items)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Span.Line != out[j].Span.Line {
			return out[i].Span.Line < out[j].Span.Line
		}
		return out[i].Span.Column < out[j].Span.Column
	})
	return out
}

// Render formats all diagnostics as annotated snippets against src,
// matching the "annotated source snippets with byte-accurate spans" style
// annotated source snippets require for compile-time reporting.
func (b *Bag) Render(src string) string {
	lines := strings.Split(src, "\n")
	var sb strings.Builder
	for _, d := range b.Items() {
		fmt.Fprintf(&sb, "error: %s\n", d.Message)
		fmt.Fprintf(&sb, "  --> %s\n", d.Span)
		if d.Span.Line >= 1 && d.Span.Line <= len(lines) {
			fmt.Fprintf(&sb, "   |\n")
			fmt.Fprintf(&sb, "%2d | %s\n", d.Span.Line, lines[d.Span.Line-1])
			fmt.Fprintf(&sb, "   | %s^\n", strings.Repeat(" ", max(0, d.Span.Column-1)))
		}
		if d.Suggestion != "" {
			fmt.Fprintf(&sb, "   = %s\n", d.Suggestion)
		}
	}
	return sb.String()
}

func closest(got string, candidates []string) string {
	best, bestDist := -1, 0
	for i, c := range candidates {
		d := fuzzy.LevenshteinDistance(strings.ToLower(got), strings.ToLower(c))
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || bestDist > len(got)+2 {
		return ""
	}
	return candidates[best]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
