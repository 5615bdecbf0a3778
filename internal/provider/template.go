package provider

import (
	"bytes"
	"maps"
	"slices"
	"text/template"

	"github.com/cockroachdb/errors"
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/sitemap/internal/graph"
)

// NodeTemplate describes how a record becomes a dynamic node. Every field
// is a text/template executed against the record.
type NodeTemplate struct {
	Key         string            `toml:"key"`
	Title       string            `toml:"title"`
	Description string            `toml:"description"`
	URL         string            `toml:"url"`
	RouteValues map[string]string `toml:"routeValues"`
	Attributes  map[string]string `toml:"attributes"`
}

var tmplFuncs = template.FuncMap{
	"json": func(v any) string {
		return oj.JSON(v, &oj.Options{Sort: true})
	},
	"first": func(v any) any {
		switch s := v.(type) {
		case []any:
			if len(s) > 0 {
				return s[0]
			}
		}
		return nil
	},
}

// Renderer is a compiled NodeTemplate.
type Renderer struct {
	key, title, description, url *template.Template
	routeValues                  map[string]*template.Template
	attributes                   map[string]*template.Template
}

// Compile parses every template once.
func (nt NodeTemplate) Compile() (*Renderer, error) {
	r := &Renderer{
		routeValues: make(map[string]*template.Template, len(nt.RouteValues)),
		attributes:  make(map[string]*template.Template, len(nt.Attributes)),
	}
	var err error
	parse := func(name, text string) *template.Template {
		if err != nil || text == "" {
			return nil
		}
		var t *template.Template
		t, err = template.New(name).Funcs(tmplFuncs).Parse(text)
		if err != nil {
			err = errors.Wrapf(err, "parse %s template", name)
		}
		return t
	}
	r.key = parse("key", nt.Key)
	r.title = parse("title", nt.Title)
	r.description = parse("description", nt.Description)
	r.url = parse("url", nt.URL)
	for _, k := range slices.Sorted(maps.Keys(nt.RouteValues)) {
		if t := parse("routeValues."+k, nt.RouteValues[k]); t != nil {
			r.routeValues[k] = t
		}
	}
	for _, k := range slices.Sorted(maps.Keys(nt.Attributes)) {
		if t := parse("attributes."+k, nt.Attributes[k]); t != nil {
			r.attributes[k] = t
		}
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Render derives a node from the provider template and fills it from the
// record. Empty templates leave the template's value in place, except the
// key, which stays empty so the expander synthesizes one.
func (r *Renderer) Render(tmpl *graph.Node, record map[string]any) (*graph.Node, error) {
	n := NewDynamicNode(tmpl)
	var err error
	exec := func(t *template.Template, dst *string) {
		if err != nil || t == nil {
			return
		}
		var buf bytes.Buffer
		if e := t.Execute(&buf, record); e != nil {
			err = errors.Wrapf(e, "render %s", t.Name())
			return
		}
		*dst = buf.String()
	}
	exec(r.key, &n.Key)
	exec(r.title, &n.Title)
	exec(r.description, &n.Description)
	exec(r.url, &n.URL)
	if len(r.routeValues) > 0 {
		route := n.EnsureRoute()
		for k, t := range r.routeValues {
			var v string
			exec(t, &v)
			route.Values[k] = v
		}
	}
	for k, t := range r.attributes {
		var v string
		exec(t, &v)
		n.SetAttr(k, v)
	}
	if err != nil {
		return nil, err
	}
	if !n.Clickable {
		n.URL = ""
	}
	return n, nil
}
