package sitemap

import (
	"context"
	"sync"

	"github.com/agentic-research/sitemap/internal/graph"
)

type scopeKey struct{}

// Scope holds per-access tree slots, one per site map name. The first
// lookup within a scope pins the published tree; later lookups return it
// without touching the shared cache until the site map is invalidated,
// which voids every pinned slot.
type Scope struct {
	mu    sync.Mutex
	slots map[string]slot
}

type slot struct {
	tree *graph.Tree
	gen  uint64
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{slots: make(map[string]slot)}
}

// WithScope returns a context carrying a fresh scope.
func WithScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, NewScope())
}

// ScopeFrom returns the scope carried by ctx, or nil.
func ScopeFrom(ctx context.Context) *Scope {
	s, _ := ctx.Value(scopeKey{}).(*Scope)
	return s
}

// get returns the slot for name if it was filled in generation gen.
func (s *Scope) get(name string, gen uint64) (*graph.Tree, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.slots[name]
	if !ok || sl.gen != gen {
		return nil, false
	}
	return sl.tree, true
}

func (s *Scope) put(name string, t *graph.Tree, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[name] = slot{tree: t, gen: gen}
}
