package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTree_Index(t *testing.T) {
	root := sampleTree()
	root.FindForKey("about").Roles = []string{AllRoles}
	tree := NewTree(root)

	assert.Equal(t, 4, tree.Len())
	n, err := tree.FindByKey("browse")
	require.NoError(t, err)
	assert.Equal(t, "browse", n.Key)

	_, err = tree.FindByKey("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	var keys []string
	for _, n := range tree.NodesInRole("admin") {
		keys = append(keys, n.Key)
	}
	assert.Equal(t, []string{"store", "about"}, keys)
	assert.Len(t, tree.NodesInRole("guest"), 1)
	assert.Equal(t, []string{"*", "admin"}, tree.Roles())
}

func TestTree_Duplicates(t *testing.T) {
	root := NewNode("a")
	first := NewNode("dup")
	root.AddChild(first)
	root.AddChild(NewNode("dup"))

	tree := NewTree(root)
	assert.Equal(t, []string{"dup"}, tree.Duplicates())
	n, err := tree.FindByKey("dup")
	require.NoError(t, err)
	assert.Same(t, first, n)
}

func TestExport(t *testing.T) {
	m := Export(sampleTree())
	assert.Equal(t, "home", m["key"])
	children := m["children"].([]any)
	require.Len(t, children, 2)
	store := children[0].(map[string]any)
	assert.Equal(t, "Store", store["action"].(map[string]any)["controller"])
	assert.Equal(t, "Rock", store["route"].(map[string]any)["values"].(map[string]any)["genre"])
}
