package ingest

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/agentic-research/sitemap/api"
	"github.com/agentic-research/sitemap/internal/ctxlog"
	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/keygen"
	"github.com/agentic-research/sitemap/internal/provider"
)

// KeyMode selects how keys are synthesized for keyless dynamic nodes.
type KeyMode int

const (
	// RandomKeys seeds every synthesized key with a fresh random token.
	// Keys are unique within a build but differ across rebuilds.
	RandomKeys KeyMode = iota
	// DeterministicKeys derives the key from the parent key and the node's
	// own URL (or route values), title and facets.
	DeterministicKeys
)

func (m KeyMode) String() string {
	if m == DeterministicKeys {
		return "deterministic"
	}
	return "random"
}

// ParseKeyMode accepts "random" (or "") and "deterministic".
func ParseKeyMode(s string) (KeyMode, error) {
	switch strings.ToLower(s) {
	case "", "random":
		return RandomKeys, nil
	case "deterministic":
		return DeterministicKeys, nil
	}
	return RandomKeys, errors.Newf("unknown dynamic key mode %q", s)
}

// Expander materializes placeholder nodes through dynamic node providers.
type Expander struct {
	providers *provider.Lookup[provider.DynamicNodeProvider]
	keys      keygen.Generator
	mode      KeyMode
	token     func() string
}

// NewExpander returns an expander resolving providers through lookup.
// A nil lookup resolves nothing; a nil generator uses keygen.Default.
func NewExpander(lookup *provider.Lookup[provider.DynamicNodeProvider], keys keygen.Generator, mode KeyMode) *Expander {
	if lookup == nil {
		lookup = provider.NewLookup[provider.DynamicNodeProvider](provider.KindDynamicNodeProvider)
	}
	if keys == nil {
		keys = keygen.Default{}
	}
	return &Expander{providers: lookup, keys: keys, mode: mode, token: uuid.NewString}
}

// Expand resolves the provider named by tmpl's marker, removes the marker,
// and runs the provider on a copy of tmpl re-parented to parent. Produced
// nodes whose Parent is parent are attached to it unless already present.
// All produced nodes are returned, attached or not. A template without the
// marker yields nothing.
func (e *Expander) Expand(ctx context.Context, tmpl, parent *graph.Node) ([]*graph.Node, error) {
	name := tmpl.Attributes[api.AttrDynamicNodeProvider]
	if name == "" {
		return nil, nil
	}
	p, err := e.providers.Resolve(name)
	if err != nil {
		return nil, errors.Wrapf(err, "expand %s", tmpl)
	}
	delete(tmpl.Attributes, api.AttrDynamicNodeProvider)

	current := tmpl.Clone()
	current.Parent = parent

	logger := ctxlog.FromContext(ctx)
	var out []*graph.Node
	for dn, err := range p.DynamicNodes(ctx, current) {
		if err != nil {
			return nil, errors.Wrapf(err, "dynamic node provider %q", name)
		}
		if dn == nil {
			continue
		}
		if dn.Key == "" {
			dn.Key = e.synthesizeKey(dn, parent)
		}
		if dn.Parent == parent && parent != nil && !parent.HasChild(dn) {
			parent.AddChild(dn)
		} else if dn.Parent != parent {
			logger.Debug("dynamic node not attached", "provider", name, "node", dn.Key)
		}
		out = append(out, dn)
	}
	logger.Debug("expanded placeholder", "provider", name, "template", tmpl.Key, "nodes", len(out))
	return out, nil
}

func (e *Expander) synthesizeKey(dn, parent *graph.Node) string {
	in := keygen.Input{
		URL:        dn.URL,
		Title:      dn.Title,
		HTTPMethod: dn.HTTPMethod,
		Clickable:  dn.Clickable,
	}
	if parent != nil {
		in.ParentKey = parent.Key
	}
	if a := dn.Action; a != nil {
		in.Area, in.Controller, in.Action = a.Area, a.Controller, a.Action
	}
	switch e.mode {
	case DeterministicKeys:
		if in.URL == "" && dn.Route != nil && len(dn.Route.Values) > 0 {
			q := url.Values{}
			for k, v := range dn.Route.Values {
				q.Set(k, fmt.Sprint(v))
			}
			in.URL = "?" + q.Encode()
		}
	default:
		in.Key = e.token()
	}
	return e.keys.GenerateKey(in)
}
