// Package regexnorm canonicalizes author-supplied regexes before DFA
// extraction, so that whitespace in a rule's pattern is
// matched the way an author typing it would expect: one or more spaces
// where they wrote a required run, optionally one space where they wrote an
// optional run.
package regexnorm

import (
	"regexp"
	"strings"
)

// whitespace-class run, optionally `*`-quantified: `\s*`, `\t*`, ` *`,
// `[\t ]*`, `\s+`, literal runs of spaces/tabs, etc. The bracket-class
// alternative matches the literal escape-sequence spelling an author's
// source text actually contains (the two characters `\` `t`, not a real
// tab byte), alongside literal space/tab bytes for a class like `[ \t]`.
var wsRunPattern = regexp.MustCompile(`(?:\\s|\\t|\[(?:\\t|\\s|[\t ])+\]|[\t ]+)(\*|\+)?`)

type tokenKind int

const (
	tokLiteral tokenKind = iota
	tokReqWS
	tokOptWS
)

type token struct {
	kind tokenKind
	text string // only meaningful for tokLiteral
}

// Normalize collapses whitespace handling into a canonical form, per
// Rules:
//
//  1. Strip one leading ^ and one trailing $ if present.
//  2. Strip leading/trailing whitespace-class runs.
//  3. Tokenize the remainder into {REQ_WS, OPT_WS, literal}.
//  4. Reduce adjacent whitespace markers (REQ absorbs OPT; OPT·OPT->OPT).
//  5. Emit REQ as a literal space, OPT as "( )?"; re-wrap in ^...$.
func Normalize(src string) string {
	body := strings.TrimPrefix(src, "^")
	body = strings.TrimSuffix(body, "$")

	body = trimLeadingWS(body)
	body = trimTrailingWS(body)

	toks := tokenize(body)
	toks = reduceAdjacentWS(toks)

	var sb strings.Builder
	sb.WriteString("^")
	for _, tk := range toks {
		switch tk.kind {
		case tokLiteral:
			sb.WriteString(tk.text)
		case tokReqWS:
			sb.WriteString(" ")
		case tokOptWS:
			sb.WriteString("( )?")
		}
	}
	sb.WriteString("$")
	return sb.String()
}

func trimLeadingWS(s string) string {
	for {
		loc := wsRunPattern.FindStringIndex(s)
		if loc == nil || loc[0] != 0 {
			return s
		}
		s = s[loc[1]:]
	}
}

func trimTrailingWS(s string) string {
	for {
		matches := wsRunPattern.FindAllStringIndex(s, -1)
		if len(matches) == 0 {
			return s
		}
		last := matches[len(matches)-1]
		if last[1] != len(s) {
			return s
		}
		s = s[:last[0]]
	}
}

// tokenize splits the remainder by whitespace-class runs into markers:
// `*`-quantified classes become OPT_WS, everything else matching the
// whitespace-run pattern becomes REQ_WS, and all other text is literal.
func tokenize(s string) []token {
	var toks []token
	pos := 0
	for pos < len(s) {
		loc := wsRunPattern.FindStringIndex(s[pos:])
		if loc == nil {
			toks = append(toks, token{kind: tokLiteral, text: s[pos:]})
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if start > pos {
			toks = append(toks, token{kind: tokLiteral, text: s[pos:start]})
		}
		match := s[start:end]
		if strings.HasSuffix(match, "*") {
			toks = append(toks, token{kind: tokOptWS})
		} else {
			toks = append(toks, token{kind: tokReqWS})
		}
		pos = end
	}
	return toks
}

// reduceAdjacentWS applies: REQ·REQ->REQ, REQ·OPT->REQ, OPT·REQ->REQ,
// OPT·OPT->OPT.
func reduceAdjacentWS(toks []token) []token {
	var out []token
	for _, tk := range toks {
		if len(out) > 0 && isWS(tk.kind) && isWS(out[len(out)-1].kind) {
			prev := out[len(out)-1].kind
			if prev == tokReqWS || tk.kind == tokReqWS {
				out[len(out)-1] = token{kind: tokReqWS}
			} else {
				out[len(out)-1] = token{kind: tokOptWS}
			}
			continue
		}
		out = append(out, tk)
	}
	return out
}

func isWS(k tokenKind) bool {
	return k == tokReqWS || k == tokOptWS
}
