package graph

import (
	"slices"

	"github.com/RoaringBitmap/roaring"
	"github.com/cockroachdb/errors"
)

// AllRoles is the role entry that makes a node visible to every role.
const AllRoles = "*"

// Tree is a published, read-only site map. It indexes nodes by key and by
// role at construction; the nodes must not be mutated afterwards.
type Tree struct {
	root  *Node
	nodes []*Node // pre-order; index is the node's ordinal
	byKey map[string]*Node

	// Roaring bitmap index: role → set of node ordinals.
	roles map[string]*roaring.Bitmap

	duplicates []string
}

// NewTree indexes the subtree rooted at root. When two nodes share a key,
// the first in pre-order wins and the key is reported by Duplicates.
func NewTree(root *Node) *Tree {
	t := &Tree{
		root:  root,
		byKey: make(map[string]*Node),
		roles: make(map[string]*roaring.Bitmap),
	}
	_ = Walk(root, VisitorFunc(func(n *Node, f Facet) error {
		if f != FacetBase {
			return nil
		}
		t.index(n)
		return nil
	}))
	return t
}

func (t *Tree) index(n *Node) {
	ord := uint32(len(t.nodes))
	t.nodes = append(t.nodes, n)

	if _, dup := t.byKey[n.Key]; dup {
		if !slices.Contains(t.duplicates, n.Key) {
			t.duplicates = append(t.duplicates, n.Key)
		}
	} else {
		t.byKey[n.Key] = n
	}

	for _, role := range n.Roles {
		bm, ok := t.roles[role]
		if !ok {
			bm = roaring.New()
			t.roles[role] = bm
		}
		bm.Add(ord)
	}
}

// Root returns the root node, nil for an empty tree.
func (t *Tree) Root() *Node { return t.root }

// Len returns the number of indexed nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// FindByKey returns the node with the given key or ErrNotFound.
func (t *Tree) FindByKey(key string) (*Node, error) {
	n, ok := t.byKey[key]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "node %q", key)
	}
	return n, nil
}

// NodesInRole returns, in tree order, the nodes that list role or AllRoles.
func (t *Tree) NodesInRole(role string) []*Node {
	bm := roaring.New()
	if r, ok := t.roles[role]; ok {
		bm.Or(r)
	}
	if r, ok := t.roles[AllRoles]; ok {
		bm.Or(r)
	}
	out := make([]*Node, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, t.nodes[it.Next()])
	}
	return out
}

// Roles returns every role mentioned in the tree, sorted.
func (t *Tree) Roles() []string {
	out := make([]string, 0, len(t.roles))
	for r := range t.roles {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Duplicates returns the keys that occur more than once.
func (t *Tree) Duplicates() []string {
	return slices.Clone(t.duplicates)
}

// Walk visits the published tree.
func (t *Tree) Walk(v Visitor) error {
	return Walk(t.root, v)
}
