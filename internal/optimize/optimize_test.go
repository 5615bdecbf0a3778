package optimize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/sitemap/internal/graph"
)

type recordPass struct {
	name string
	log  *[]string
}

func (p recordPass) Name() string { return p.name }

func (p recordPass) Visit(_ context.Context, n *graph.Node, f graph.Facet) error {
	*p.log = append(*p.log, p.name+":"+n.Key+":"+f.String())
	return nil
}

func TestChain_RunsPassesInOrder(t *testing.T) {
	root := graph.NewNode("root")
	child := graph.NewNode("child")
	child.EnsureRoute()
	root.AddChild(child)

	var log []string
	c := New(recordPass{"a", &log}, recordPass{"b", &log})
	require.NoError(t, c.Optimize(context.Background(), root))
	assert.Equal(t, []string{
		"a:root:base", "a:child:base", "a:child:route",
		"b:root:base", "b:child:base", "b:child:route",
	}, log)
}

func TestChain_Empty(t *testing.T) {
	assert.NoError(t, New().Optimize(context.Background(), graph.NewNode("root")))
}

func TestFunc(t *testing.T) {
	called := false
	var o Optimizer = Func(func(context.Context, *graph.Node) error { called = true; return nil })
	require.NoError(t, o.Optimize(context.Background(), nil))
	assert.True(t, called)
}
