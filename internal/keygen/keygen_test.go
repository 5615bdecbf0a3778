package keygen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault_ExplicitKeyWins(t *testing.T) {
	k := Default{}.GenerateKey(Input{Key: "Home", Title: "ignored"})
	assert.Equal(t, "Home", k)
}

func TestDefault_Pure(t *testing.T) {
	in := Input{
		ParentKey:  "root",
		URL:        "/store",
		Title:      "Store",
		Area:       "",
		Controller: "Store",
		Action:     "Index",
		HTTPMethod: "*",
		Clickable:  true,
	}
	a := Default{}.GenerateKey(in)
	b := Default{}.GenerateKey(in)
	assert.Equal(t, a, b)
	assert.Equal(t, Derive(in), a)
	assert.Len(t, a, 17)
}

func TestDerive_FieldsAreSignificant(t *testing.T) {
	base := Input{ParentKey: "p", Title: "t", HTTPMethod: "*", Clickable: true}
	seen := map[string]string{Derive(base): "base"}

	variants := map[string]Input{}
	v := base
	v.ParentKey = "q"
	variants["parent"] = v
	v = base
	v.Clickable = false
	variants["clickable"] = v
	v = base
	v.HTTPMethod = "GET"
	variants["method"] = v
	v = base
	v.ParentKey, v.Title = "pt", ""
	variants["boundary"] = v

	for name, in := range variants {
		k := Derive(in)
		_, dup := seen[k]
		assert.False(t, dup, "variant %s collides", name)
		seen[k] = name
	}
}

// Keys persist in links and bookmarks, so the derivation must not drift
// between releases.
func TestDerive_Golden(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want string
	}{
		{"store", Input{ParentKey: "root", URL: "/store", Title: "Store", Controller: "Store", Action: "Index", HTTPMethod: "*", Clickable: true}, "nc2577af0db0e8b75"},
		{"zero", Input{}, "n5ad9bad88bda7ca0"},
		{"browse", Input{ParentKey: "Home", Title: "Jazz", Controller: "Store", Action: "Browse", HTTPMethod: "GET"}, "naf45d24b988b0f5a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Derive(tt.in))
			assert.Equal(t, tt.want, Default{}.GenerateKey(tt.in))
		})
	}
}
