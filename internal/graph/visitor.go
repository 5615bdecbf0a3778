package graph

// Facet identifies one level of a node's shape.
type Facet int

const (
	FacetBase Facet = iota
	FacetRoute
	FacetAction
)

func (f Facet) String() string {
	switch f {
	case FacetRoute:
		return "route"
	case FacetAction:
		return "action"
	default:
		return "base"
	}
}

// Facets lists the levels n satisfies, base first.
func (n *Node) Facets() []Facet {
	fs := []Facet{FacetBase}
	if n.Route != nil {
		fs = append(fs, FacetRoute)
	}
	if n.Action != nil {
		fs = append(fs, FacetAction)
	}
	return fs
}

// Visitor is called once per facet level of every node.
type Visitor interface {
	VisitNode(n *Node, f Facet) error
}

// VisitorFunc adapts a function to Visitor.
type VisitorFunc func(n *Node, f Facet) error

func (fn VisitorFunc) VisitNode(n *Node, f Facet) error { return fn(n, f) }

// Walk traverses depth-first, pre-order. Each node is dispatched once per
// facet (base, route, action) before its children are visited. The first
// error stops the walk.
func Walk(n *Node, v Visitor) error {
	if n == nil {
		return nil
	}
	for _, f := range n.Facets() {
		if err := v.VisitNode(n, f); err != nil {
			return err
		}
	}
	for i := 0; i < len(n.Children); i++ {
		if err := Walk(n.Children[i], v); err != nil {
			return err
		}
	}
	return nil
}
