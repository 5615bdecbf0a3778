package optimize

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/provider"
)

type urlPass struct {
	resolvers *provider.Lookup[provider.URLResolver]
}

// URLPass pre-resolves URLs at build time. It applies to route nodes that
// name a URL resolver and have no action facet, no preserved route
// parameters and no URL of their own. The resolved URL is stored on the
// node and its resolver name cleared so it is not resolved again per
// request. Nodes without a named resolver are left to request time.
func URLPass(resolvers *provider.Lookup[provider.URLResolver]) Pass {
	return &urlPass{resolvers: resolvers}
}

func (p *urlPass) Name() string { return "url" }

func (p *urlPass) Visit(ctx context.Context, n *graph.Node, f graph.Facet) error {
	if f != graph.FacetRoute || n.Action != nil || n.URL != "" || len(n.Route.Preserved) > 0 ||
		n.Route.URLResolver == "" {
		return nil
	}
	r, err := p.resolvers.Resolve(n.Route.URLResolver)
	if err != nil {
		return err
	}
	u, err := r.ResolveURL(ctx, n)
	if err != nil {
		return errors.Wrapf(err, "resolve url of %s", n)
	}
	n.URL = u
	n.Route.URLResolver = ""
	return nil
}

type providerCheckPass struct {
	registry *provider.Registry
}

// ProviderCheckPass fails the build when a node names a URL resolver or
// visibility provider that is not registered. Fallbacks do not count.
func ProviderCheckPass(registry *provider.Registry) Pass {
	return &providerCheckPass{registry: registry}
}

func (p *providerCheckPass) Name() string { return "provider-check" }

func (p *providerCheckPass) Visit(_ context.Context, n *graph.Node, f graph.Facet) error {
	switch f {
	case graph.FacetBase:
		if n.VisibilityProvider != "" {
			if err := p.registry.Visibility.Check(n.VisibilityProvider); err != nil {
				return errors.Wrapf(err, "node %s", n)
			}
		}
	case graph.FacetRoute:
		if n.Route.URLResolver != "" {
			if err := p.registry.URL.Check(n.Route.URLResolver); err != nil {
				return errors.Wrapf(err, "node %s", n)
			}
		}
	}
	return nil
}
