package jsonprovider

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/provider"
)

func TestProvider_DynamicNodes(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "albums.json", []byte(`{
		"albums": [
			{"id": 1, "title": "Kind of Blue", "genre": "Jazz"},
			{"id": 2, "title": "Paranoid", "genre": "Rock"}
		]
	}`), 0o644))

	p, err := New(fs, Config{
		Name:     "Albums",
		Path:     "albums.json",
		Selector: "$.albums[*]",
		NodeTemplate: provider.NodeTemplate{
			Title:       "{{.title}}",
			RouteValues: map[string]string{"id": "{{.id}}"},
		},
	})
	require.NoError(t, err)

	parent := graph.NewNode("details")
	tmpl := graph.NewNode("tmpl")
	tmpl.Parent = parent

	var titles []string
	for n, err := range p.DynamicNodes(context.Background(), tmpl) {
		require.NoError(t, err)
		titles = append(titles, n.Title)
		assert.NotEmpty(t, n.Route.Values["id"])
	}
	assert.Equal(t, []string{"Kind of Blue", "Paranoid"}, titles)
}

func TestProvider_ScalarMatches(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "g.json", []byte(`{"genres":["Rock","Jazz"]}`), 0o644))

	p, err := New(fs, Config{Name: "G", Path: "g.json", Selector: "$.genres[*]",
		NodeTemplate: provider.NodeTemplate{Title: "{{.value}}"}})
	require.NoError(t, err)

	var titles []string
	for n, err := range p.DynamicNodes(context.Background(), graph.NewNode("t")) {
		require.NoError(t, err)
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"Rock", "Jazz"}, titles)
}

func TestProvider_MissingFile(t *testing.T) {
	p, err := New(memfs.New(), Config{Name: "G", Path: "nope.json", Selector: "$.x"})
	require.NoError(t, err)
	var gotErr error
	for _, err := range p.DynamicNodes(context.Background(), graph.NewNode("t")) {
		gotErr = err
	}
	assert.Error(t, gotErr)
}

func TestNew_InvalidSelector(t *testing.T) {
	_, err := New(memfs.New(), Config{Selector: "$.albums["})
	assert.Error(t, err)
}
