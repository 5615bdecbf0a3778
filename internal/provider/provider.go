// Package provider defines the pluggable capabilities a site map build
// consults at runtime, and the registry that resolves them by name.
package provider

import (
	"context"
	"iter"

	"github.com/agentic-research/sitemap/internal/graph"
)

// DynamicNodeProvider expands a placeholder into concrete nodes.
//
// The template is a detached copy of the placeholder whose Parent points at
// the node the results will be attached to. The returned sequence is lazy
// and finite; ranging over it again re-runs the underlying fetch.
type DynamicNodeProvider interface {
	DynamicNodes(ctx context.Context, template *graph.Node) iter.Seq2[*graph.Node, error]
}

// DynamicFunc adapts a function to DynamicNodeProvider.
type DynamicFunc func(ctx context.Context, template *graph.Node) iter.Seq2[*graph.Node, error]

func (fn DynamicFunc) DynamicNodes(ctx context.Context, template *graph.Node) iter.Seq2[*graph.Node, error] {
	return fn(ctx, template)
}

// URLResolver computes the URL of a route-bearing node.
type URLResolver interface {
	ResolveURL(ctx context.Context, n *graph.Node) (string, error)
}

// URLResolverFunc adapts a function to URLResolver.
type URLResolverFunc func(ctx context.Context, n *graph.Node) (string, error)

func (fn URLResolverFunc) ResolveURL(ctx context.Context, n *graph.Node) (string, error) {
	return fn(ctx, n)
}

// VisibilityProvider decides whether a node is shown in a given request.
type VisibilityProvider interface {
	IsVisible(ctx context.Context, n *graph.Node) bool
}

// VisibilityFunc adapts a function to VisibilityProvider.
type VisibilityFunc func(ctx context.Context, n *graph.Node) bool

func (fn VisibilityFunc) IsVisible(ctx context.Context, n *graph.Node) bool { return fn(ctx, n) }

// AlwaysVisible is the default visibility provider.
var AlwaysVisible = VisibilityFunc(func(context.Context, *graph.Node) bool { return true })

// NewDynamicNode derives a fresh node from a provider template: a deep copy
// without key or children whose Parent is the template's parent. Callers
// fill in the per-record fields.
func NewDynamicNode(template *graph.Node) *graph.Node {
	n := template.Clone()
	n.Key = ""
	n.Children = nil
	n.Parent = template.Parent
	return n
}

// Static is a DynamicNodeProvider that yields copies of fixed nodes,
// re-parented to the template's parent.
func Static(nodes ...*graph.Node) DynamicNodeProvider {
	return DynamicFunc(func(_ context.Context, template *graph.Node) iter.Seq2[*graph.Node, error] {
		return func(yield func(*graph.Node, error) bool) {
			for _, src := range nodes {
				n := src.Clone()
				n.Parent = template.Parent
				if !yield(n, nil) {
					return
				}
			}
		}
	})
}
