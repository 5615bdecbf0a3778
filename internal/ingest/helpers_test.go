package ingest

import (
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/sitemap/internal/graph"
)

func newFS(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func collect(root *graph.Node) []*graph.Node {
	var out []*graph.Node
	_ = graph.Walk(root, graph.VisitorFunc(func(n *graph.Node, f graph.Facet) error {
		if f == graph.FacetBase {
			out = append(out, n)
		}
		return nil
	}))
	return out
}

func childKeys(n *graph.Node) []string {
	keys := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		keys = append(keys, c.Key)
	}
	return keys
}
