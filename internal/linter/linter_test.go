package linter

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const controllers = `package shop

//sitemap:node key=Home title=Home
type HomeController struct{}

//sitemap:node key=About parentKey=Home order=second
func (HomeController) About() {}

//sitemap:frobnicate
func (HomeController) Contact() {}

//sitemap:node key=Hidden parentKey=Home
type hiddenController struct{}

//sitemap:action Browse
type StoreController struct{}

//sitemap:node key=Helper parentKey=Home
func Helper() {}

//sitemap:node key=Floating parentKey=Home

var x = 1
`

func messages(diags []Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.String()
	}
	return out
}

func TestLint(t *testing.T) {
	diags, err := Lint(context.Background(), "shop/home.go", []byte(controllers))
	require.NoError(t, err)

	msgs := messages(diags)
	require.Len(t, msgs, 6, "%v", msgs)
	assert.Contains(t, msgs[0], "shop/home.go:6:")
	assert.Contains(t, msgs[0], `order "second" is not an integer`)
	assert.Contains(t, msgs[1], "unknown directive")
	assert.Contains(t, msgs[2], "unexported hiddenController")
	assert.Contains(t, msgs[3], "applies to methods only")
	assert.Contains(t, msgs[4], "on function Helper")
	assert.Contains(t, msgs[5], "not attached")
}

func TestLint_Clean(t *testing.T) {
	diags, err := Lint(context.Background(), "ok.go", []byte(`package ok

// HomeController is documented.
//
//sitemap:node key=Home
type HomeController struct{}

//sitemap:verbs GET
//sitemap:action List
func (HomeController) Index() {}
`))
	require.NoError(t, err)
	assert.Empty(t, diags)

	diags, err = Lint(context.Background(), "README.md", []byte("//sitemap:bogus"))
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestLintFS(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "go.mod", []byte("module example.com/shop\n"), 0o644))
	require.NoError(t, util.WriteFile(fs, "shop/home.go", []byte(controllers), 0o644))
	require.NoError(t, util.WriteFile(fs, "vendor/x/x.go", []byte("package x\n\n//sitemap:bogus\ntype X struct{}\n"), 0o644))

	diags, err := LintFS(context.Background(), fs)
	require.NoError(t, err)
	assert.Len(t, diags, 6)
	for _, d := range diags {
		assert.Equal(t, "shop/home.go", d.Path)
	}
}
