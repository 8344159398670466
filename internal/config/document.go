// Package config loads and validates the rule-authoring document: an
// optional metadata section plus a mandatory sequence of vulnerability
// rules, each carrying a message/points pair, a category, and a boolean
// check tree.
package config

import "github.com/ajiang-xyz/ZekaEngine/internal/diag"

// Metadata is the optional first section of the document.
type Metadata struct {
	Title          string
	Aead           string // AEAD associated data; defaults to "zeka"
	Seed           int64  // reseeds the PRNG; 0 if unset
	RemoteURL      string
	RemotePassword string
	IsLocal        bool   // defaults to true; only an explicit false fetches remote_url
}

// CheckKind tags a CheckNode's shape.
type CheckKind int

const (
	KindAnd CheckKind = iota
	KindOr
	KindRegex
)

// CheckNode is one node of a rule's `pass` boolean-expression tree
// an and:/or: list, or a regex leaf.
type CheckNode struct {
	Kind     CheckKind
	Children []CheckNode // KindAnd, KindOr
	Path     string      // KindRegex
	Pattern  string      // KindRegex, pre-normalization
	Span     diag.Span
}

// Rule is one vulnerability rule.
type Rule struct {
	Message  string
	Points   float64
	Category string
	Pass     []CheckNode // top-level sequence, interpreted as implicit AND
	Span     diag.Span
}

// Document is the fully parsed, semantically validated configuration.
type Document struct {
	Metadata Metadata
	Rules    []Rule
}
