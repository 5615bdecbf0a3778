package ingest

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/agentic-research/sitemap/internal/ctxlog"
	"github.com/agentic-research/sitemap/internal/graph"
)

// AggregateSource folds its members left to right, feeding each member the
// tree returned by the previous one. A member failing with
// graph.ErrMissingSource is skipped; any other failure aborts the fold.
type AggregateSource struct {
	name    string
	sources []Source
}

// NewAggregateSource returns an aggregate over sources, in order.
func NewAggregateSource(name string, sources ...Source) *AggregateSource {
	return &AggregateSource{name: name, sources: sources}
}

// Add appends a member.
func (a *AggregateSource) Add(s Source) { a.sources = append(a.sources, s) }

// Sources returns the members in fold order.
func (a *AggregateSource) Sources() []Source { return a.sources }

// HasDataFor reports whether any member serves name.
func (a *AggregateSource) HasDataFor(name string) bool {
	for _, s := range a.sources {
		if s.HasDataFor(name) {
			return true
		}
	}
	return false
}

// ProvideBaseData implements Source.
func (a *AggregateSource) ProvideBaseData(ctx context.Context, root *graph.Node) (*graph.Node, error) {
	logger := ctxlog.FromContext(ctx)
	for i, s := range a.sources {
		next, err := s.ProvideBaseData(ctx, root)
		if err != nil {
			if errors.Is(err, graph.ErrMissingSource) {
				logger.Warn("skipping missing source", "index", i, "err", err)
				continue
			}
			return nil, err
		}
		root = next
	}
	return root, nil
}
