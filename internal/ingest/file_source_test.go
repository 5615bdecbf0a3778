package ingest

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/provider"
)

const storeXML = `<?xml version="1.0" encoding="utf-8" ?>
<siteMap xmlns="http://schemas.agentic-research.dev/sitemap/1.0" xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <siteMapNode title="Home" controller="Home" action="Index" key="Home">
    <siteMapNode title="Browse" controller="Store" action="Browse" key="Browse" genre="Rock" data-icon="guitar" roles="admin; editor,*">
      <siteMapNode title="Details" action="Details" inheritedRouteParameters="genre" key="Details"/>
    </siteMapNode>
    <siteMapNode title="About" url="/about" key="About" httpMethod="get" description="All about us"/>
    <siteMapNode title="Hidden" url="/hidden" clickable="false" key="Hidden" changeFrequency="Weekly" updatePriority="Absolute_050" lastModifiedDate="2024-01-02"/>
    <siteMapNode route="Browse" genre="Jazz" title="Jazz" key="Jazz"/>
  </siteMapNode>
</siteMap>`

func TestFileSource_XMLStructure(t *testing.T) {
	fs := newFS(t, map[string]string{"Mvc.sitemap": storeXML})
	root, err := NewFileSource(fs, "Mvc.sitemap").ProvideBaseData(context.Background(), nil)
	require.NoError(t, err)

	all := collect(root)
	require.Len(t, all, 6, "root plus five declared nodes")
	for _, n := range all[1:] {
		require.NotNil(t, n.Parent, n.Key)
		assert.True(t, n.Parent.HasChild(n), "%s is a child of its parent", n.Key)
	}
	assert.Nil(t, root.Parent)
	assert.Equal(t, []string{"Browse", "About", "Hidden", "Jazz"}, childKeys(root))
	assert.Equal(t, []string{"Details"}, childKeys(root.FindForKey("Browse")))
}

func TestFileSource_Facets(t *testing.T) {
	fs := newFS(t, map[string]string{"Mvc.sitemap": storeXML})
	root, err := NewFileSource(fs, "Mvc.sitemap").ProvideBaseData(context.Background(), nil)
	require.NoError(t, err)

	require.NotNil(t, root.Action)
	assert.Equal(t, "", root.Route.Values["area"])
	assert.Equal(t, "Home", root.Route.Values["controller"])

	browse := root.FindForKey("Browse")
	assert.Equal(t, "Rock", browse.Route.Values["genre"])
	assert.NotContains(t, browse.Route.Values, "data-icon")
	assert.NotContains(t, browse.Route.Values, "roles")
	assert.Equal(t, "guitar", browse.Attributes["data-icon"])
	assert.NotContains(t, browse.Attributes, "title")
	assert.Equal(t, []string{"admin", "editor", "*"}, browse.Roles)
	assert.Equal(t, "Browse", browse.Description, "description defaults to title")
	assert.Empty(t, browse.URL)

	details := root.FindForKey("Details")
	assert.Equal(t, "Store", details.Action.Controller, "controller inherited from parent")
	assert.Equal(t, "Details", details.Action.Action)
	assert.Equal(t, "Rock", details.Route.Values["genre"], "inherited route parameter")

	about := root.FindForKey("About")
	assert.Nil(t, about.Route)
	assert.Equal(t, "GET", about.HTTPMethod)
	assert.Equal(t, "/about", about.URL)
	assert.Equal(t, "All about us", about.Description)

	hidden := root.FindForKey("Hidden")
	assert.False(t, hidden.Clickable)
	assert.Empty(t, hidden.URL)
	assert.Equal(t, graph.FrequencyWeekly, hidden.ChangeFrequency)
	assert.Equal(t, graph.PriorityAbsolute050, hidden.UpdatePriority)
	assert.Equal(t, 2024, hidden.LastModified.Year())

	jazz := root.FindForKey("Jazz")
	require.NotNil(t, jazz.Route)
	assert.Nil(t, jazz.Action)
	assert.Equal(t, "Browse", jazz.Route.Name)
	assert.Equal(t, "Jazz", jazz.Route.Values["genre"])
}

func TestFileSource_NoNamespace(t *testing.T) {
	fs := newFS(t, map[string]string{"a.xml": `<siteMap><siteMapNode title="Home" url="/"/></siteMap>`})
	root, err := NewFileSource(fs, "a.xml").ProvideBaseData(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Home", root.Title)
	assert.NotEmpty(t, root.Key, "key is derived when not declared")
}

func TestFileSource_InvalidElement(t *testing.T) {
	fs := newFS(t, map[string]string{"a.xml": `<siteMap>
  <siteMapNode title="Home">
    <menuItem title="nope"/>
  </siteMapNode>
</siteMap>`})
	_, err := NewFileSource(fs, "a.xml").ProvideBaseData(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrInvalidDeclaration))
	assert.Contains(t, err.Error(), "menuItem")
}

func TestFileSource_BadValues(t *testing.T) {
	for name, doc := range map[string]string{
		"clickable": `<siteMap><siteMapNode title="x" clickable="maybe"/></siteMap>`,
		"frequency": `<siteMap><siteMapNode title="x" changeFrequency="Fortnightly"/></siteMap>`,
		"resources": `<siteMap><siteMapNode title="$resources:NoKey"/></siteMap>`,
		"two roots": `<siteMap><siteMapNode title="a"/><siteMapNode title="b"/></siteMap>`,
		"wrong root": `<menu><siteMapNode title="a"/></menu>`,
	} {
		t.Run(name, func(t *testing.T) {
			fs := newFS(t, map[string]string{"a.xml": doc})
			_, err := NewFileSource(fs, "a.xml").ProvideBaseData(context.Background(), nil)
			assert.True(t, errors.Is(err, graph.ErrInvalidDeclaration), "got %v", err)
		})
	}
}

func TestFileSource_Missing(t *testing.T) {
	_, err := NewFileSource(newFS(t, nil), "nope.sitemap").ProvideBaseData(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrMissingSource))
}

func TestFileSource_Resources(t *testing.T) {
	fs := newFS(t, map[string]string{"a.xml": `<siteMap>
  <siteMapNode key="Home" title="$resources:SiteMapLocalizations,HomeTitle" description="$resources:SiteMapLocalizations,HomeDescription,Welcome">
    <siteMapNode key="Implicit" title="About" resourceKey="AboutNode"/>
  </siteMapNode>
</siteMap>`})
	root, err := NewFileSource(fs, "a.xml").ProvideBaseData(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, root.Title)
	assert.Equal(t, "Welcome", root.Description)
	assert.Equal(t, graph.ResourceRef{Class: "SiteMapLocalizations", Key: "HomeTitle"}, root.ResourceKeys["title"])
	assert.Equal(t, graph.ResourceRef{Class: "SiteMapLocalizations", Key: "HomeDescription"}, root.ResourceKeys["description"])

	implicit := root.FindForKey("Implicit")
	assert.Equal(t, "AboutNode", implicit.ResourceKey)
	assert.Empty(t, implicit.Title)
	assert.Empty(t, implicit.Description)
}

func TestFileSource_JSONAndHCL(t *testing.T) {
	fs := newFS(t, map[string]string{
		"site.json": `{"siteMap": {"nodes": [
			{"siteMapNode": {"key": "Home", "title": "Home", "url": "/", "nodes": [
				{"siteMapNode": {"key": "About", "title": "About", "url": "/about", "clickable": true, "roles": ["admin", "editor"]}},
				{"siteMapNode": {"key": "Contact", "title": "Contact", "url": "/contact", "order": 3}}
			]}}
		]}}`,
		"site.hcl": `
siteMapNode "Home" {
  title = "Home"
  url   = "/"

  siteMapNode "About" {
    title     = "About"
    url       = "/about"
    clickable = true
    roles     = ["admin", "editor"]
  }

  siteMapNode {
    key   = "Contact"
    title = "Contact"
    url   = "/contact"
    order = 3
  }
}
`,
	})

	for _, path := range []string{"site.json", "site.hcl"} {
		t.Run(path, func(t *testing.T) {
			root, err := NewFileSource(fs, path).ProvideBaseData(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, "Home", root.Key)
			assert.Equal(t, []string{"About", "Contact"}, childKeys(root))

			about := root.FindForKey("About")
			assert.Equal(t, []string{"admin", "editor"}, about.Roles)
			assert.True(t, about.Clickable)
			assert.Equal(t, "/about", about.URL)
			assert.Equal(t, "3", root.FindForKey("Contact").Attributes["order"])
		})
	}
}

func TestFileSource_UnsupportedFormat(t *testing.T) {
	fs := newFS(t, map[string]string{"site.yaml": "siteMap: {}"})
	_, err := NewFileSource(fs, "site.yaml").ProvideBaseData(context.Background(), nil)
	assert.True(t, errors.Is(err, graph.ErrInvalidDeclaration))
}

func TestFileSource_DynamicCrossProduct(t *testing.T) {
	fs := newFS(t, map[string]string{"a.xml": `<siteMap>
  <siteMapNode key="Home" title="Home">
    <siteMapNode title="Genre" dynamicNodeProvider="Genres" controller="Store" action="Browse">
      <siteMapNode title="Top sellers" action="Top"/>
      <siteMapNode title="New releases" action="New"/>
    </siteMapNode>
  </siteMapNode>
</siteMap>`})

	lookup := provider.NewLookup[provider.DynamicNodeProvider](provider.KindDynamicNodeProvider)
	lookup.Register("Genres", provider.DynamicFunc(genres("Rock", "Jazz", "Disco")))
	src := NewFileSource(fs, "a.xml", WithExpander(NewExpander(lookup, nil, RandomKeys)))

	root, err := src.ProvideBaseData(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, root.Children, 3)

	seen := map[string]bool{}
	for _, g := range root.Children {
		assert.NotContains(t, g.Attributes, "dynamicNodeProvider")
		assert.Same(t, root, g.Parent)
		assert.False(t, seen[g.Key], "keys are distinct")
		seen[g.Key] = true

		require.Len(t, g.Children, 2, "static children repeated under %s", g.Title)
		for _, c := range g.Children {
			assert.Same(t, g, c.Parent)
			assert.Equal(t, "Store", c.Action.Controller)
		}
	}
	assert.Len(t, collect(root), 1+3+3*2)
}

func TestFileSource_DynamicUnresolved(t *testing.T) {
	fs := newFS(t, map[string]string{"a.xml": `<siteMap><siteMapNode key="Home">
  <siteMapNode dynamicNodeProvider="Missing"/>
</siteMapNode></siteMap>`})
	_, err := NewFileSource(fs, "a.xml").ProvideBaseData(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, graph.ErrProviderResolution))
	var re *provider.ResolutionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "Missing", re.Name)
}
