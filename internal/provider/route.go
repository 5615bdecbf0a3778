package provider

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/agentic-research/sitemap/internal/graph"
)

// DefaultPattern is used for action nodes that name no route.
const DefaultPattern = "{area}/{controller}/{action}/{id}"

// Route is a named URL pattern such as "Store/Browse/{genre}".
type Route struct {
	Name    string `toml:"name"`
	Pattern string `toml:"pattern"`
}

// RouteTable resolves URLs by expanding route patterns with a node's
// route values. It is the default URLResolver.
type RouteTable struct {
	routes map[string]string
}

// NewRouteTable builds a table from named routes.
func NewRouteTable(routes ...Route) *RouteTable {
	t := &RouteTable{routes: make(map[string]string, len(routes))}
	for _, r := range routes {
		t.routes[r.Name] = r.Pattern
	}
	return t
}

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// ResolveURL implements URLResolver. Nodes without a route facet keep
// their declared URL.
func (t *RouteTable) ResolveURL(_ context.Context, n *graph.Node) (string, error) {
	if n.Route == nil {
		return n.URL, nil
	}
	pattern := DefaultPattern
	if n.Route.Name != "" {
		p, ok := t.routes[n.Route.Name]
		if !ok {
			return "", errors.Newf("unknown route %q for node %s", n.Route.Name, n.Key)
		}
		pattern = p
	} else if n.Action == nil {
		return n.URL, nil
	}
	return expand(pattern, routeValues(n)), nil
}

func routeValues(n *graph.Node) map[string]string {
	vals := make(map[string]string, len(n.Route.Values)+3)
	for k, v := range n.Route.Values {
		vals[k] = fmt.Sprint(v)
	}
	if a := n.Action; a != nil {
		for k, v := range map[string]string{"area": a.Area, "controller": a.Controller, "action": a.Action} {
			if v != "" {
				vals[k] = v
			}
		}
	}
	return vals
}

// expand substitutes placeholders segment by segment and drops segments
// that end up empty.
func expand(pattern string, vals map[string]string) string {
	var segs []string
	for _, seg := range strings.Split(pattern, "/") {
		out := placeholder.ReplaceAllStringFunc(seg, func(m string) string {
			return vals[m[1:len(m)-1]]
		})
		if out != "" {
			segs = append(segs, out)
		}
	}
	return "/" + strings.Join(segs, "/")
}
