package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Node {
	root := NewNode("home")
	root.Title = "Home"
	store := NewNode("store")
	store.EnsureAction().Controller = "Store"
	store.Route.Values["genre"] = "Rock"
	store.Roles = []string{"admin"}
	root.AddChild(store)
	browse := NewNode("browse")
	store.AddChild(browse)
	about := NewNode("about")
	root.AddChild(about)
	return root
}

func TestNode_AddChildSetsParent(t *testing.T) {
	root := sampleTree()
	for _, c := range root.Children {
		if c.Parent != root {
			t.Fatalf("child %s has parent %v, want root", c.Key, c.Parent)
		}
	}
	if got := root.FindForKey("browse").Root(); got != root {
		t.Errorf("Root() = %v, want home", got)
	}
}

func TestNode_CloneIsDeep(t *testing.T) {
	root := sampleTree()
	store := root.FindForKey("store")

	c := store.Clone()
	require.Nil(t, c.Parent)
	require.Len(t, c.Children, 1)
	assert.Same(t, c, c.Children[0].Parent)
	assert.NotSame(t, store.Children[0], c.Children[0])

	c.Route.Values["genre"] = "Jazz"
	c.Roles[0] = "guest"
	c.Action.Controller = "Other"
	c.SetAttr("x", "y")

	assert.Equal(t, "Rock", store.Route.Values["genre"])
	assert.Equal(t, "admin", store.Roles[0])
	assert.Equal(t, "Store", store.Action.Controller)
	_, ok := store.Attr("x")
	assert.False(t, ok)
}

func TestNode_FindClosestParent(t *testing.T) {
	root := sampleTree()
	browse := root.FindForKey("browse")

	assert.Equal(t, "about", browse.FindClosestParent("about").Key)
	assert.Equal(t, "store", browse.FindClosestParent("store").Key)
	assert.Nil(t, browse.FindClosestParent("missing"))
}

func TestNode_RemoveChild(t *testing.T) {
	root := sampleTree()
	about := root.FindForKey("about")
	require.True(t, root.RemoveChild(about))
	assert.Nil(t, about.Parent)
	assert.False(t, root.HasChild(about))
	assert.False(t, root.RemoveChild(about))
}

func TestNode_EnsureActionAddsRoute(t *testing.T) {
	n := NewNode("k")
	n.EnsureAction()
	require.NotNil(t, n.Route)
	assert.Equal(t, []Facet{FacetBase, FacetRoute, FacetAction}, n.Facets())
}

func TestParseEnums(t *testing.T) {
	f, err := ParseChangeFrequency("weekly")
	require.NoError(t, err)
	assert.Equal(t, FrequencyWeekly, f)

	p, err := ParseUpdatePriority("Absolute_050")
	require.NoError(t, err)
	assert.Equal(t, PriorityAbsolute050, p)

	_, err = ParseChangeFrequency("fortnightly")
	assert.ErrorIs(t, err, ErrInvalidDeclaration)

	d, err := ParseDate("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())
}
