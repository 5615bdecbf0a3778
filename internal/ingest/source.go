// Package ingest turns site map sources into a node tree: structured files
// (XML, JSON, HCL), Go source declarations, and aggregates of both.
package ingest

import (
	"context"
	"strings"

	"github.com/agentic-research/sitemap/api"
	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/keygen"
)

// Source contributes to the base tree. ProvideBaseData receives the tree
// built so far (nil for the first source) and returns the enriched root.
type Source interface {
	ProvideBaseData(ctx context.Context, root *graph.Node) (*graph.Node, error)
	// HasDataFor reports whether the source serves the named site map.
	HasDataFor(name string) bool
}

// HasDynamicNodes reports whether n is a placeholder awaiting expansion.
func HasDynamicNodes(n *graph.Node) bool {
	return n != nil && n.Attributes[api.AttrDynamicNodeProvider] != ""
}

// Option configures a source.
type Option func(*options)

type options struct {
	name     string
	keys     keygen.Generator
	expander *Expander
	include  []string
	exclude  []string
}

func newOptions(opts []Option) options {
	o := options{keys: keygen.Default{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.expander == nil {
		o.expander = NewExpander(nil, o.keys, RandomKeys)
	}
	return o
}

// WithName sets the site map name the source answers HasDataFor for.
func WithName(name string) Option { return func(o *options) { o.name = name } }

// WithKeyGenerator replaces the default key generator.
func WithKeyGenerator(g keygen.Generator) Option { return func(o *options) { o.keys = g } }

// WithExpander sets the expander used for placeholder nodes.
func WithExpander(e *Expander) Option { return func(o *options) { o.expander = e } }

// WithIncludeModules restricts scanning to the given import paths.
// A trailing "/..." matches the path and everything below it.
func WithIncludeModules(paths ...string) Option {
	return func(o *options) { o.include = append(o.include, paths...) }
}

// WithExcludeModules skips the given import paths in addition to the
// default deny list. Ignored when an include list is set.
func WithExcludeModules(paths ...string) Option {
	return func(o *options) { o.exclude = append(o.exclude, paths...) }
}

func servesName(own, name string) bool {
	return name == "" || own == "" || strings.EqualFold(own, name)
}

// splitList splits on ',' and ';', dropping empty entries.
func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
