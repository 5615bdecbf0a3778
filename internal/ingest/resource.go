package ingest

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/agentic-research/sitemap/internal/graph"
)

const resourcePrefix = "$resources:"

// ParseResourceText recognizes "$resources:<class>,<key>[,<fallback>]".
// It returns the literal text to keep (the fallback, or "" when none is
// given), the resource reference, and whether the syntax was present.
// Text that does not use the syntax is returned unchanged.
func ParseResourceText(text string) (string, graph.ResourceRef, bool, error) {
	trimmed := strings.TrimLeft(text, " ")
	if len(trimmed) <= len(resourcePrefix)-1 || !strings.HasPrefix(strings.ToLower(trimmed), resourcePrefix) {
		return text, graph.ResourceRef{}, false, nil
	}
	rest := trimmed[len(resourcePrefix):]
	class, remainder, ok := strings.Cut(rest, ",")
	if !ok {
		return text, graph.ResourceRef{}, true, errors.Mark(
			errors.Newf("resource expression %q has no key", text), graph.ErrInvalidDeclaration)
	}
	key, literal, hasLiteral := strings.Cut(remainder, ",")
	if !hasLiteral {
		literal = ""
	}
	return literal, graph.ResourceRef{Class: strings.TrimSpace(class), Key: strings.TrimSpace(key)}, true, nil
}

// applyResource rewrites *text in place and records the reference on n
// under attr when the resource syntax is used.
func applyResource(n *graph.Node, attr string, text *string) error {
	if *text == "" {
		return nil
	}
	literal, ref, ok, err := ParseResourceText(*text)
	if err != nil || !ok {
		return err
	}
	*text = literal
	if n.ResourceKeys == nil {
		n.ResourceKeys = make(map[string]graph.ResourceRef)
	}
	n.ResourceKeys[attr] = ref
	return nil
}
