package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/sitemap/internal/graph"
)

func TestRouteTable_NamedRoute(t *testing.T) {
	rt := NewRouteTable(Route{Name: "Browse", Pattern: "Store/Browse/{genre}"})
	n := graph.NewNode("rock")
	r := n.EnsureRoute()
	r.Name = "Browse"
	r.Values["genre"] = "Rock"

	url, err := rt.ResolveURL(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "/Store/Browse/Rock", url)
}

func TestRouteTable_DefaultPattern(t *testing.T) {
	rt := NewRouteTable()
	n := graph.NewNode("details")
	a := n.EnsureAction()
	a.Controller, a.Action = "Store", "Details"
	n.Route.Values["id"] = 42

	url, err := rt.ResolveURL(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "/Store/Details/42", url)

	a.Area = "Admin"
	delete(n.Route.Values, "id")
	url, err = rt.ResolveURL(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "/Admin/Store/Details", url)
}

func TestRouteTable_Passthrough(t *testing.T) {
	rt := NewRouteTable()
	n := graph.NewNode("plain")
	n.URL = "/about"
	url, err := rt.ResolveURL(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, "/about", url)

	n.EnsureRoute().Name = "Missing"
	_, err = rt.ResolveURL(context.Background(), n)
	assert.Error(t, err)
}

func TestRenderer(t *testing.T) {
	r, err := NodeTemplate{
		Title:       "{{.name}}",
		RouteValues: map[string]string{"genre": "{{.name}}"},
		Attributes:  map[string]string{"tags": "{{json .tags}}"},
	}.Compile()
	require.NoError(t, err)

	parent := graph.NewNode("store")
	tmpl := graph.NewNode("placeholder")
	tmpl.Parent = parent

	n, err := r.Render(tmpl, map[string]any{"name": "Jazz", "tags": []any{"a"}})
	require.NoError(t, err)
	assert.Empty(t, n.Key)
	assert.Equal(t, "Jazz", n.Title)
	assert.Equal(t, "Jazz", n.Route.Values["genre"])
	assert.Equal(t, `["a"]`, n.Attributes["tags"])
	assert.Same(t, parent, n.Parent)

	_, err = NodeTemplate{Title: "{{.broken"}.Compile()
	assert.Error(t, err)
}
