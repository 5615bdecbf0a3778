// Package jsonprovider expands placeholders from the matches of a JSONPath
// selector over a JSON document.
package jsonprovider

import (
	"context"
	"iter"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/provider"
)

// Config describes one JSON-backed provider.
type Config struct {
	Name     string `toml:"name"`
	Path     string `toml:"path"`
	Selector string `toml:"selector"`
	provider.NodeTemplate
}

// Provider re-reads its document on every expansion.
type Provider struct {
	name     string
	fs       billy.Filesystem
	path     string
	selector jp.Expr
	render   *provider.Renderer
}

// New compiles the selector and node template.
func New(fs billy.Filesystem, cfg Config) (*Provider, error) {
	x, err := jp.ParseString(cfg.Selector)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid jsonpath '%s'", cfg.Selector)
	}
	r, err := cfg.NodeTemplate.Compile()
	if err != nil {
		return nil, errors.Wrapf(err, "json provider %q", cfg.Name)
	}
	return &Provider{name: cfg.Name, fs: fs, path: cfg.Path, selector: x, render: r}, nil
}

// DynamicNodes implements provider.DynamicNodeProvider. Object matches are
// used as template values directly; scalars are exposed as .value.
func (p *Provider) DynamicNodes(_ context.Context, tmpl *graph.Node) iter.Seq2[*graph.Node, error] {
	return func(yield func(*graph.Node, error) bool) {
		data, err := util.ReadFile(p.fs, p.path)
		if err != nil {
			yield(nil, errors.Wrapf(err, "json provider %q: read %s", p.name, p.path))
			return
		}
		doc, err := oj.Parse(data)
		if err != nil {
			yield(nil, errors.Wrapf(err, "json provider %q: parse %s", p.name, p.path))
			return
		}
		for _, match := range p.selector.Get(doc) {
			rec, ok := match.(map[string]any)
			if !ok {
				rec = map[string]any{"value": match}
			}
			n, err := p.render.Render(tmpl, rec)
			if err != nil {
				yield(nil, errors.Wrapf(err, "json provider %q", p.name))
				return
			}
			if !yield(n, nil) {
				return
			}
		}
	}
}
