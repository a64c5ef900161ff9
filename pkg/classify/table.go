package classify

import (
	"strings"
	"sync"

	"vaani-labs/drishti/pkg/config"
)

// Rule maps a path prefix to a ServiceKind. Shape optionally gates the rule
// so one prefix can serve different kinds depending on what the payload
// carries.
type Rule struct {
	Prefix  string
	Service ServiceKind
	Shape   Shape
}

// Match is a successful classification: the kind plus the table pattern
// that produced it. The pattern, not the raw request path, becomes the
// route label, which keeps route cardinality bounded by the table size.
type Match struct {
	Service ServiceKind
	Pattern string
}

// Table classifies request paths against a compiled prefix trie. The
// deepest matching prefix wins; among rules declared at the same depth the
// first declared rule whose shape gate admits the payload wins. Lookup cost
// is proportional to the path's segment count, not the table size.
//
// Classification never errors: an unmatched path yields Unknown with an
// empty pattern.
type Table struct {
	mu   sync.RWMutex
	root *trieNode
}

type trieNode struct {
	children map[string]*trieNode
	rules    []compiledRule // declaration order
}

type compiledRule struct {
	service ServiceKind
	pattern string
	shape   Shape
}

// NewTable compiles the given rules. Empty input compiles an empty table
// that classifies everything as Unknown.
func NewTable(rules []Rule) *Table {
	t := &Table{}
	t.Reload(rules)
	return t
}

// FromConfig builds a table from configured route rules, falling back to
// the built-in defaults when the configuration declares none.
func FromConfig(routes []config.RouteRule) *Table {
	return NewTable(RulesFromConfig(routes))
}

// RulesFromConfig converts configured route rules, falling back to the
// built-in defaults when the configuration declares none.
func RulesFromConfig(routes []config.RouteRule) []Rule {
	if len(routes) == 0 {
		return DefaultRules()
	}
	rules := make([]Rule, 0, len(routes))
	for _, r := range routes {
		rules = append(rules, Rule{
			Prefix:  r.Prefix,
			Service: KindFromString(r.Service),
			Shape:   Shape(r.Shape),
		})
	}
	return rules
}

// Reload atomically replaces the compiled table. In-flight classifications
// finish against the old table.
func (t *Table) Reload(rules []Rule) {
	root := &trieNode{}
	for _, r := range rules {
		node := root
		for _, seg := range splitPath(r.Prefix) {
			if node.children == nil {
				node.children = make(map[string]*trieNode)
			}
			child, ok := node.children[seg]
			if !ok {
				child = &trieNode{}
				node.children[seg] = child
			}
			node = child
		}
		node.rules = append(node.rules, compiledRule{
			service: r.Service,
			pattern: r.Prefix,
			shape:   r.Shape,
		})
	}

	t.mu.Lock()
	t.root = root
	t.mu.Unlock()
}

// Classify resolves a request path and payload shape to a Match. The path's
// query string is ignored; matching is per path segment, so "/translated"
// does not match a "/translate" rule.
func (t *Table) Classify(path string, shape Shape) Match {
	t.mu.RLock()
	root := t.root
	t.mu.RUnlock()

	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}

	// Walk as deep as the path allows, remembering every node with rules.
	var matched []*trieNode
	node := root
	if len(node.rules) > 0 {
		matched = append(matched, node)
	}
	for _, seg := range splitPath(path) {
		child, ok := node.children[seg]
		if !ok {
			break
		}
		node = child
		if len(node.rules) > 0 {
			matched = append(matched, node)
		}
	}

	// Deepest node first; within a node, declaration order.
	for i := len(matched) - 1; i >= 0; i-- {
		for _, rule := range matched[i].rules {
			if rule.shape == ShapeNone || rule.shape == shape {
				return Match{Service: rule.service, Pattern: rule.pattern}
			}
		}
	}
	return Match{Service: Unknown}
}

// splitPath splits a URL path into its non-empty segments.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}
