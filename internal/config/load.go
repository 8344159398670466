package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ajiang-xyz/ZekaEngine/internal/category"
	"github.com/ajiang-xyz/ZekaEngine/internal/diag"
	"gopkg.in/yaml.v3"
)

// Load reads and parses the configuration document at path. It returns the
// parsed Document alongside any diagnostics collected during validation;
// a non-empty diagnostics bag means the document must
// not be compiled into an artifact, but Load itself only returns a non-nil
// error for I/O or YAML-syntax failures — semantic problems are reported as
// diagnostics instead so the caller can render all of them at once.
func Load(path string) (*Document, *diag.Bag, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse is Load's in-memory counterpart, used directly by tests and by the
// remote-fetch path (internal/config/remote.go) once a document body has
// already been retrieved.
func Parse(src []byte) (*Document, *diag.Bag, error) {
	var generic interface{}
	if err := yaml.Unmarshal(src, &generic); err != nil {
		return nil, nil, fmt.Errorf("config: invalid YAML: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, nil, fmt.Errorf("config: invalid YAML: %w", err)
	}

	bag := &diag.Bag{}
	if err := validateShape(generic); err != nil {
		bag.Add(diag.Span{Line: 1, Column: 1}, "document does not match the expected shape: %v", err)
		return nil, bag, nil
	}

	if len(root.Content) == 0 {
		bag.Add(diag.Span{Line: 1, Column: 1}, "empty configuration document")
		return nil, bag, nil
	}
	docNode := root.Content[0]

	doc := &Document{Metadata: Metadata{Aead: "zeka", IsLocal: true}}
	var rulesNode *yaml.Node

	for i := 0; i+1 < len(docNode.Content); i += 2 {
		key := docNode.Content[i]
		val := docNode.Content[i+1]
		switch key.Value {
		case "metadata":
			parseMetadata(val, &doc.Metadata, bag)
		case "rules":
			rulesNode = val
		default:
			bag.AddWithSuggestion(spanOf(key), key.Value, []string{"metadata", "rules"},
				"unknown top-level key %q", key.Value)
		}
	}

	if rulesNode == nil {
		bag.Add(spanOf(docNode), "document has no rules section")
		return doc, bag, nil
	}
	if len(rulesNode.Content) == 0 {
		bag.Add(spanOf(rulesNode), "rules must not be empty")
		return doc, bag, nil
	}

	for _, ruleNode := range rulesNode.Content {
		rule := parseRule(ruleNode, bag)
		doc.Rules = append(doc.Rules, rule)
	}

	return doc, bag, nil
}

func spanOf(n *yaml.Node) diag.Span {
	return diag.Span{Line: n.Line, Column: n.Column}
}

func parseMetadata(node *yaml.Node, m *Metadata, bag *diag.Bag) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "title":
			m.Title = val.Value
		case "aead":
			m.Aead = val.Value
		case "seed":
			n, err := strconv.ParseInt(val.Value, 10, 64)
			if err != nil {
				bag.Add(spanOf(val), "metadata.seed must be an integer, got %q", val.Value)
				continue
			}
			m.Seed = n
		case "remote_url":
			m.RemoteURL = val.Value
		case "remote_password":
			m.RemotePassword = val.Value
		case "is_local":
			b, err := strconv.ParseBool(val.Value)
			if err != nil {
				bag.Add(spanOf(val), "metadata.is_local must be a boolean, got %q", val.Value)
				continue
			}
			m.IsLocal = b
		default:
			bag.AddWithSuggestion(spanOf(key), key.Value,
				[]string{"title", "aead", "seed", "remote_url", "remote_password", "is_local"},
				"unknown metadata key %q", key.Value)
		}
	}
}

// parseRule validates shape: exactly one
// "<message>: <points>" entry besides category/pass/fail.
func parseRule(node *yaml.Node, bag *diag.Bag) Rule {
	rule := Rule{Span: spanOf(node)}
	var messageKey *yaml.Node
	var passNode, failNode *yaml.Node

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "category":
			rule.Category = val.Value
			if category.Index(val.Value) < 0 {
				bag.AddWithSuggestion(spanOf(val), val.Value, category.Names,
					"unknown category %q", val.Value)
			}
		case "pass":
			passNode = val
		case "fail":
			failNode = val
		default:
			if messageKey != nil {
				bag.Add(spanOf(key), "rule has more than one message key (%q and %q)", messageKey.Value, key.Value)
				continue
			}
			messageKey = key
			rule.Message = key.Value
			points, err := strconv.ParseFloat(val.Value, 64)
			if err != nil {
				bag.Add(spanOf(val), "points for %q must be numeric, got %q", key.Value, val.Value)
				continue
			}
			rule.Points = points
		}
	}

	if messageKey == nil {
		bag.Add(spanOf(node), "rule is missing its <message>: <points> entry")
	}
	if rule.Category == "" {
		bag.Add(spanOf(node), "rule %q is missing a category", rule.Message)
	}
	if failNode != nil && len(failNode.Content) != 0 {
		bag.Add(spanOf(failNode), "fail is reserved and must be empty")
	}
	if passNode == nil {
		bag.Add(spanOf(node), "rule %q is missing a pass expression", rule.Message)
		return rule
	}

	rule.Pass = parseTopLevelPass(passNode, bag)
	return rule
}

// parseTopLevelPass parses `pass`'s sequence as implicit-AND.
func parseTopLevelPass(node *yaml.Node, bag *diag.Bag) []CheckNode {
	if node.Kind != yaml.SequenceNode {
		bag.Add(spanOf(node), "pass must be a sequence of checks")
		return nil
	}
	if len(node.Content) == 0 {
		bag.Add(spanOf(node), "pass must not be empty")
		return nil
	}
	var out []CheckNode
	for _, child := range node.Content {
		out = append(out, parseCheckNode(child, bag))
	}
	return out
}

var knownCheckKeys = []string{"and", "or", "regex"}

func parseCheckNode(node *yaml.Node, bag *diag.Bag) CheckNode {
	span := spanOf(node)

	if node.Kind == yaml.SequenceNode {
		// A bare nested sequence is treated the same as an explicit
		// `and:` list (only the top level
		// way, but nothing forbids the same shorthand one level deeper).
		return CheckNode{Kind: KindAnd, Children: parseTopLevelPass(node, bag), Span: span}
	}

	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		bag.Add(span, "check must be a single-key mapping naming its kind")
		return CheckNode{Span: span}
	}

	key, val := node.Content[0], node.Content[1]
	switch key.Value {
	case "and":
		return CheckNode{Kind: KindAnd, Children: parseChildList(val, bag), Span: span}
	case "or":
		return CheckNode{Kind: KindOr, Children: parseChildList(val, bag), Span: span}
	case "regex":
		return parseRegexLeaf(val, bag, span)
	case "raw_regex":
		bag.Add(spanOf(key), "raw_regex is an internal kind produced by normalization and must not appear in source")
		return CheckNode{Span: span}
	default:
		bag.AddWithSuggestion(spanOf(key), key.Value, knownCheckKeys, "unknown check kind %q", key.Value)
		return CheckNode{Span: span}
	}
}

func parseChildList(node *yaml.Node, bag *diag.Bag) []CheckNode {
	if node.Kind != yaml.SequenceNode {
		bag.Add(spanOf(node), "and/or expects a sequence of checks")
		return nil
	}
	if len(node.Content) == 0 {
		bag.Add(spanOf(node), "and/or must not be empty")
		return nil
	}
	var out []CheckNode
	for _, child := range node.Content {
		out = append(out, parseCheckNode(child, bag))
	}
	return out
}

func parseRegexLeaf(val *yaml.Node, bag *diag.Bag, span diag.Span) CheckNode {
	if val.Kind != yaml.SequenceNode || len(val.Content) != 2 {
		bag.Add(span, "regex expects exactly [path, pattern], got %d argument(s)", len(val.Content))
		return CheckNode{Kind: KindRegex, Span: span}
	}
	return CheckNode{
		Kind:    KindRegex,
		Path:    val.Content[0].Value,
		Pattern: val.Content[1].Value,
		Span:    span,
	}
}
