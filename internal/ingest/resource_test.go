package ingest

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/sitemap/internal/graph"
)

func TestParseResourceText(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		literal string
		ref     graph.ResourceRef
		ok      bool
	}{
		{"plain", "Home", "Home", graph.ResourceRef{}, false},
		{"class and key", "$resources:MyClass,MyKey", "", graph.ResourceRef{Class: "MyClass", Key: "MyKey"}, true},
		// A third token is always the literal fallback, never a key after
		// an assembly qualifier.
		{"third token is fallback", "$resources:MyAssembly,MyClass,MyKey", "MyKey", graph.ResourceRef{Class: "MyAssembly", Key: "MyClass"}, true},
		{"leading spaces and case", "  $Resources:Site, Title ", "", graph.ResourceRef{Class: "Site", Key: "Title"}, true},
		{"fallback keeps commas", "$resources:C,K,Hello, world", "Hello, world", graph.ResourceRef{Class: "C", Key: "K"}, true},
		{"too short", "$resources", "$resources", graph.ResourceRef{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			literal, ref, ok, err := ParseResourceText(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.literal, literal)
			assert.Equal(t, tt.ref, ref)
		})
	}
}

func TestParseResourceText_MissingKey(t *testing.T) {
	_, _, ok, err := ParseResourceText("$resources:OnlyClass")
	assert.True(t, ok)
	assert.True(t, errors.Is(err, graph.ErrInvalidDeclaration))
}

func TestApplyResource(t *testing.T) {
	n := graph.NewNode("k")
	title := "$resources:SiteMapLocalizations,HomeTitle"
	require.NoError(t, applyResource(n, "title", &title))
	assert.Empty(t, title)
	assert.Equal(t, graph.ResourceRef{Class: "SiteMapLocalizations", Key: "HomeTitle"}, n.ResourceKeys["title"])
}
