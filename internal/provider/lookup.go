package provider

import (
	"fmt"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/agentic-research/sitemap/internal/graph"
)

// Capability kinds, as reported in ResolutionError.
const (
	KindDynamicNodeProvider = "dynamic node provider"
	KindURLResolver         = "url resolver"
	KindVisibilityProvider  = "visibility provider"
)

// ResolutionError names a capability that could not be resolved.
// It is marked with graph.ErrProviderResolution.
type ResolutionError struct {
	Kind  string
	Name  string
	Cause error
}

func (e *ResolutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("cannot resolve %s %q: %v", e.Kind, e.Name, e.Cause)
	}
	return fmt.Sprintf("cannot resolve %s %q", e.Kind, e.Name)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

func newResolutionError(kind, name string, cause error) error {
	return errors.Mark(&ResolutionError{Kind: kind, Name: name, Cause: cause}, graph.ErrProviderResolution)
}

// Factory constructs a capability on demand.
type Factory[T any] func() (T, error)

// Lookup resolves a capability by symbolic name. Resolution tries, in
// order: a registered instance, a registered factory, the fallback.
type Lookup[T any] struct {
	kind string

	mu          sync.RWMutex
	instances   map[string]T
	factories   map[string]Factory[T]
	fallback    T
	hasFallback bool
}

// NewLookup returns an empty lookup for the given capability kind.
func NewLookup[T any](kind string) *Lookup[T] {
	return &Lookup[T]{
		kind:      kind,
		instances: make(map[string]T),
		factories: make(map[string]Factory[T]),
	}
}

// Register binds name to a ready instance.
func (l *Lookup[T]) Register(name string, v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.instances[name] = v
}

// RegisterFactory binds name to a constructor run on every resolution.
func (l *Lookup[T]) RegisterFactory(name string, f Factory[T]) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.factories[name] = f
}

// SetFallback sets the capability returned for names nothing else matches.
func (l *Lookup[T]) SetFallback(v T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fallback = v
	l.hasFallback = true
}

// Resolve returns the capability for name.
func (l *Lookup[T]) Resolve(name string) (T, error) {
	l.mu.RLock()
	inst, okInst := l.instances[name]
	factory, okFactory := l.factories[name]
	fallback, hasFallback := l.fallback, l.hasFallback
	l.mu.RUnlock()

	if okInst {
		return inst, nil
	}
	if okFactory {
		v, err := factory()
		if err == nil {
			return v, nil
		}
		if !hasFallback {
			var zero T
			return zero, newResolutionError(l.kind, name, err)
		}
	}
	if hasFallback {
		return fallback, nil
	}
	var zero T
	return zero, newResolutionError(l.kind, name, nil)
}

// Has reports whether name resolves without consulting the fallback.
func (l *Lookup[T]) Has(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, okInst := l.instances[name]
	_, okFactory := l.factories[name]
	return okInst || okFactory
}

// Check fails with a resolution error unless name is registered. Unlike
// Resolve it never consults the fallback.
func (l *Lookup[T]) Check(name string) error {
	if l.Has(name) {
		return nil
	}
	return newResolutionError(l.kind, name, nil)
}

// Names lists registered names, sorted.
func (l *Lookup[T]) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.instances)+len(l.factories))
	for n := range l.instances {
		out = append(out, n)
	}
	for n := range l.factories {
		if _, dup := l.instances[n]; !dup {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out
}
