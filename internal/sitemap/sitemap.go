// Package sitemap builds the base tree from the configured sources, caches
// it, and hands it out to concurrent readers.
//
// A Provider moves through Empty → Building → Ready. Only one build runs
// per invalidation cycle; callers arriving while it runs block and share
// its outcome. A failed build publishes nothing: the Provider reports
// Failed and the next access starts a full rebuild.
package sitemap

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/agentic-research/sitemap/internal/ctxlog"
	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/ingest"
	"github.com/agentic-research/sitemap/internal/keygen"
	"github.com/agentic-research/sitemap/internal/optimize"
	"github.com/agentic-research/sitemap/internal/provider"
)

// State of the cached base tree.
type State int

const (
	Empty State = iota
	Building
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "empty"
	}
}

// Capabilities is everything a Provider consults. Source is required; the
// rest default when nil.
type Capabilities struct {
	Source ingest.Source
	// Keys is the generator sources were configured with. It is exposed to
	// callers that create nodes outside a build.
	Keys      keygen.Generator
	Optimizer optimize.Optimizer
	// URLResolver resolves nodes that name no registered resolver.
	URLResolver provider.URLResolver
	Registry    *provider.Registry
	Hooks       Hooks

	EnableLocalization bool
}

// Provider caches the base tree of one named site map.
type Provider struct {
	name string
	caps Capabilities

	mu    sync.Mutex
	cond  *sync.Cond
	state State
	tree  *graph.Tree
	err   error
	// cycle counts build attempts; gen changes whenever the published
	// tree does (publish or invalidate) and is never 0.
	cycle uint64
	gen   uint64
	stale bool
	// waiting counts callers blocked on an in-flight build.
	waiting int
}

// New returns a Provider in the Empty state.
func New(name string, caps Capabilities) (*Provider, error) {
	if caps.Source == nil {
		return nil, errors.Newf("site map %q: no source configured", name)
	}
	if caps.Keys == nil {
		caps.Keys = keygen.Default{}
	}
	if caps.Optimizer == nil {
		caps.Optimizer = optimize.New()
	}
	if caps.Registry == nil {
		caps.Registry = provider.NewRegistry(nil)
	}
	if caps.Hooks == nil {
		caps.Hooks = NopHooks{}
	}
	p := &Provider{name: name, caps: caps, gen: 1}
	p.cond = sync.NewCond(&p.mu)
	return p, nil
}

// Name returns the site map name.
func (p *Provider) Name() string { return p.name }

// Keys returns the key generator.
func (p *Provider) Keys() keygen.Generator { return p.caps.Keys }

// LocalizationEnabled reports whether resource keys should be honored.
func (p *Provider) LocalizationEnabled() bool { return p.caps.EnableLocalization }

// HasDataFor reports whether the configured source serves name.
func (p *Provider) HasDataFor(name string) bool { return p.caps.Source.HasDataFor(name) }

// State returns the current cache state.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// BaseTree returns the shared tree, building it on first access.
func (p *Provider) BaseTree(ctx context.Context) (*graph.Tree, error) {
	t, _, err := p.baseTree(ctx)
	return t, err
}

// baseTree also returns the generation the tree was published in, or 0
// for a tree that was built but invalidated before it could be published.
func (p *Provider) baseTree(ctx context.Context) (*graph.Tree, uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		switch p.state {
		case Ready:
			return p.tree, p.gen, nil
		case Building:
			cycle := p.cycle
			p.waiting++
			for p.state == Building && p.cycle == cycle {
				p.cond.Wait()
			}
			p.waiting--
			if p.state == Failed && p.cycle == cycle {
				return nil, 0, p.err
			}
		default:
			p.state = Building
			p.cycle++
			p.stale = false
			p.mu.Unlock()
			t, err := p.build(ctx)
			p.mu.Lock()
			gen := uint64(0)
			switch {
			case err != nil:
				p.state, p.tree, p.err = Failed, nil, err
			case p.stale:
				p.state, p.tree, p.err = Empty, nil, nil
			default:
				p.state, p.tree, p.err = Ready, t, nil
				p.gen++
				gen = p.gen
			}
			p.cond.Broadcast()
			return t, gen, err
		}
	}
}

// Tree returns the tree pinned to the scope carried by ctx, pinning the
// shared tree on first access. Without a scope it is BaseTree.
func (p *Provider) Tree(ctx context.Context) (*graph.Tree, error) {
	s := ScopeFrom(ctx)
	if s == nil {
		return p.BaseTree(ctx)
	}
	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()
	if t, ok := s.get(p.name, gen); ok {
		p.caps.Hooks.ScopeLookup(p.name, true)
		return t, nil
	}
	p.caps.Hooks.ScopeLookup(p.name, false)
	t, gen, err := p.baseTree(ctx)
	if err != nil {
		return nil, err
	}
	if gen != 0 {
		s.put(p.name, t, gen)
	}
	return t, nil
}

// Invalidate drops the shared tree and every scope's pinned copy. A build
// in progress completes for its callers but is not published.
func (p *Provider) Invalidate(ctx context.Context) {
	p.mu.Lock()
	switch p.state {
	case Building:
		p.stale = true
	default:
		p.state, p.tree, p.err = Empty, nil, nil
	}
	p.gen++
	p.mu.Unlock()

	p.caps.Hooks.Invalidated(p.name)
	ctxlog.FromContext(ctx).Info("site map invalidated", "sitemap", p.name)
}

func (p *Provider) build(ctx context.Context) (t *graph.Tree, err error) {
	logger := ctxlog.FromContext(ctx).With("sitemap", p.name)
	p.caps.Hooks.BuildStarted(p.name)
	logger.Info("building site map")
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			t, err = nil, errors.Newf("site map %q: build panicked: %v", p.name, r)
		}
		elapsed := time.Since(start)
		if err != nil {
			p.caps.Hooks.BuildFinished(p.name, elapsed, 0, err)
			logger.Error("site map build failed", "err", err, "elapsed", elapsed.Round(time.Millisecond))
			return
		}
		p.caps.Hooks.BuildFinished(p.name, elapsed, t.Len(), nil)
		logger.Info("site map ready", "nodes", t.Len(), "elapsed", elapsed.Round(time.Millisecond))
	}()

	root, err := p.caps.Source.ProvideBaseData(ctx, nil)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, errors.Mark(errors.Newf("site map %q: sources produced no root node", p.name), graph.ErrNoRoot)
	}
	if err := p.caps.Optimizer.Optimize(ctx, root); err != nil {
		return nil, err
	}
	t = graph.NewTree(root)
	for _, key := range t.Duplicates() {
		logger.Warn("duplicate node key", "key", key)
	}
	return t, nil
}

// ResolveURL returns the URL of n. A resolver named on the node and
// registered wins; otherwise the default resolver applies.
func (p *Provider) ResolveURL(ctx context.Context, n *graph.Node) (string, error) {
	if n.Route != nil && n.Route.URLResolver != "" && p.caps.Registry.URL.Has(n.Route.URLResolver) {
		r, err := p.caps.Registry.URL.Resolve(n.Route.URLResolver)
		if err != nil {
			return "", err
		}
		return r.ResolveURL(ctx, n)
	}
	if p.caps.URLResolver != nil {
		return p.caps.URLResolver.ResolveURL(ctx, n)
	}
	r, err := p.caps.Registry.URL.Resolve("")
	if err != nil {
		return "", err
	}
	return r.ResolveURL(ctx, n)
}

// IsVisible consults the visibility provider named on n.
func (p *Provider) IsVisible(ctx context.Context, n *graph.Node) bool {
	v, err := p.caps.Registry.Visibility.Resolve(n.VisibilityProvider)
	if err != nil {
		ctxlog.FromContext(ctx).Warn("visibility provider unavailable", "node", n.Key, "err", err)
		return false
	}
	return v.IsVisible(ctx, n)
}
