// Package optimize rewrites a freshly built site map tree before it is
// published. Optimizers run once per build, never per request.
package optimize

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/agentic-research/sitemap/internal/ctxlog"
	"github.com/agentic-research/sitemap/internal/graph"
)

// Optimizer post-processes the base tree.
type Optimizer interface {
	Optimize(ctx context.Context, root *graph.Node) error
}

// Func adapts a function to Optimizer.
type Func func(ctx context.Context, root *graph.Node) error

func (fn Func) Optimize(ctx context.Context, root *graph.Node) error { return fn(ctx, root) }

// Pass is one traversal of the tree. Visit is called once per facet of
// every node, pre-order.
type Pass interface {
	Name() string
	Visit(ctx context.Context, n *graph.Node, f graph.Facet) error
}

// Chain runs its passes in order, each over the whole tree.
type Chain struct {
	passes []Pass
}

// New returns a chain of passes. An empty chain leaves the tree unchanged.
func New(passes ...Pass) *Chain {
	return &Chain{passes: passes}
}

// Passes returns the passes in run order.
func (c *Chain) Passes() []Pass { return c.passes }

// Optimize implements Optimizer.
func (c *Chain) Optimize(ctx context.Context, root *graph.Node) error {
	logger := ctxlog.FromContext(ctx)
	for _, p := range c.passes {
		visits := 0
		err := graph.Walk(root, graph.VisitorFunc(func(n *graph.Node, f graph.Facet) error {
			visits++
			return p.Visit(ctx, n, f)
		}))
		if err != nil {
			return errors.Wrapf(err, "optimizer pass %s", p.Name())
		}
		logger.Debug("optimizer pass done", "pass", p.Name(), "visits", visits)
	}
	return nil
}
