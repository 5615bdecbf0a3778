// Package serve exposes a cached site map over HTTP and MCP. Both surfaces
// are read-only apart from cache invalidation.
package serve

import (
	"context"

	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/sitemap"
)

var jsonOpts = &oj.Options{Sort: true, Indent: 2}

func toJSON(v any) string { return oj.JSON(v, jsonOpts) }

// summary is the short form of a node used in listings.
func summary(ctx context.Context, sm *sitemap.Provider, n *graph.Node) map[string]any {
	m := map[string]any{"key": n.Key, "title": n.Title}
	if u := resolvedURL(ctx, sm, n); u != "" {
		m["url"] = u
	}
	return m
}

// detail exports n without its subtree, adding the resolved URL, the
// parent key and the child summaries.
func detail(ctx context.Context, sm *sitemap.Provider, n *graph.Node) map[string]any {
	shallow := *n
	shallow.Children = nil
	m := graph.Export(&shallow)
	if u := resolvedURL(ctx, sm, n); u != "" {
		m["url"] = u
	}
	if n.Parent != nil {
		m["parent"] = n.Parent.Key
	}
	if len(n.Children) > 0 {
		children := make([]any, 0, len(n.Children))
		for _, c := range n.Children {
			children = append(children, summary(ctx, sm, c))
		}
		m["children"] = children
	}
	return m
}

func resolvedURL(ctx context.Context, sm *sitemap.Provider, n *graph.Node) string {
	if !n.Clickable {
		return ""
	}
	u, err := sm.ResolveURL(ctx, n)
	if err != nil {
		return n.URL
	}
	return u
}

// inRole lists the visible nodes granted to role.
func inRole(ctx context.Context, sm *sitemap.Provider, t *graph.Tree, role string) []any {
	out := []any{}
	for _, n := range t.NodesInRole(role) {
		if sm.IsVisible(ctx, n) {
			out = append(out, summary(ctx, sm, n))
		}
	}
	return out
}
