package graph

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Node is the single site map entity. Base fields are always present; the
// route and action facets are optional and, once assigned, never removed.
type Node struct {
	Key         string
	Title       string
	Description string
	URL         string
	HTTPMethod  string
	Clickable   bool
	Roles       []string
	Attributes  map[string]string

	ImageURL    string
	TargetFrame string

	// ResourceKey is the implicit localization key. When set, Title and
	// Description are resolved externally.
	ResourceKey string
	// ResourceKeys holds explicit "$resources:" references per attribute.
	ResourceKeys map[string]ResourceRef

	LastModified       time.Time
	ChangeFrequency    ChangeFrequency
	UpdatePriority     UpdatePriority
	VisibilityProvider string

	Route  *RouteFacet
	Action *ActionFacet

	Children []*Node
	// Parent is a non-owning back-reference used only for traversal.
	Parent *Node
}

// RouteFacet carries routing information.
type RouteFacet struct {
	Name        string
	Values      map[string]any
	Preserved   []string
	URLResolver string
}

// ActionFacet extends the route facet with area/controller/action.
type ActionFacet struct {
	Area       string
	Controller string
	Action     string
}

// ResourceRef is an explicit localization reference.
type ResourceRef struct {
	Class string
	Key   string
}

// NewNode returns a clickable node with the default "*" HTTP method.
func NewNode(key string) *Node {
	return &Node{
		Key:        key,
		HTTPMethod: "*",
		Clickable:  true,
		Attributes: make(map[string]string),
	}
}

// EnsureRoute assigns the route facet if the node does not carry one yet.
func (n *Node) EnsureRoute() *RouteFacet {
	if n.Route == nil {
		n.Route = &RouteFacet{Values: make(map[string]any)}
	}
	if n.Route.Values == nil {
		n.Route.Values = make(map[string]any)
	}
	return n.Route
}

// EnsureAction assigns the action facet, and the route facet it extends.
func (n *Node) EnsureAction() *ActionFacet {
	n.EnsureRoute()
	if n.Action == nil {
		n.Action = &ActionFacet{}
	}
	return n.Action
}

// Attr returns a generic attribute value.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attributes[name]
	return v, ok
}

// SetAttr sets a generic attribute, allocating the map on first use.
func (n *Node) SetAttr(name, value string) {
	if n.Attributes == nil {
		n.Attributes = make(map[string]string)
	}
	n.Attributes[name] = value
}

// AddChild appends c and points its back-reference at n.
func (n *Node) AddChild(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// HasChild reports whether c is a direct child of n, by identity.
func (n *Node) HasChild(c *Node) bool {
	return slices.Contains(n.Children, c)
}

// RemoveChild detaches c from n. It reports whether c was a child.
func (n *Node) RemoveChild(c *Node) bool {
	i := slices.Index(n.Children, c)
	if i < 0 {
		return false
	}
	n.Children = slices.Delete(n.Children, i, i+1)
	c.Parent = nil
	return true
}

// Root returns the top of n's parent chain.
func (n *Node) Root() *Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// FindForKey searches n and its descendants pre-order.
func (n *Node) FindForKey(key string) *Node {
	if n.Key == key {
		return n
	}
	for _, c := range n.Children {
		if found := c.FindForKey(key); found != nil {
			return found
		}
	}
	return nil
}

// FindClosestParent walks up from n and returns the nearest node with the
// given key found in an ancestor's subtree.
func (n *Node) FindClosestParent(key string) *Node {
	for a := n.Parent; a != nil; a = a.Parent {
		if found := a.FindForKey(key); found != nil {
			return found
		}
	}
	return nil
}

// Clone deep-copies n and its subtree. The copy is detached (nil Parent);
// children of the copy point at their copied parents.
func (n *Node) Clone() *Node {
	c := *n
	c.Parent = nil
	c.Roles = slices.Clone(n.Roles)
	c.Attributes = maps.Clone(n.Attributes)
	if c.Attributes == nil {
		c.Attributes = make(map[string]string)
	}
	c.ResourceKeys = maps.Clone(n.ResourceKeys)
	if n.Route != nil {
		r := *n.Route
		r.Values = maps.Clone(n.Route.Values)
		if r.Values == nil {
			r.Values = make(map[string]any)
		}
		r.Preserved = slices.Clone(n.Route.Preserved)
		c.Route = &r
	}
	if n.Action != nil {
		a := *n.Action
		c.Action = &a
	}
	c.Children = nil
	for _, child := range n.Children {
		c.AddChild(child.Clone())
	}
	return &c
}

// String renders a short identification for logs.
func (n *Node) String() string {
	var b strings.Builder
	b.WriteString(n.Key)
	if n.Title != "" {
		b.WriteString(" (")
		b.WriteString(n.Title)
		b.WriteString(")")
	}
	return b.String()
}

// ChangeFrequency is how often the target page is expected to change.
type ChangeFrequency int

const (
	FrequencyUndefined ChangeFrequency = iota
	FrequencyAlways
	FrequencyHourly
	FrequencyDaily
	FrequencyWeekly
	FrequencyMonthly
	FrequencyYearly
	FrequencyNever
)

var frequencyNames = []string{"Undefined", "Always", "Hourly", "Daily", "Weekly", "Monthly", "Yearly", "Never"}

func (f ChangeFrequency) String() string {
	if int(f) < 0 || int(f) >= len(frequencyNames) {
		return "Undefined"
	}
	return frequencyNames[f]
}

// ParseChangeFrequency parses a frequency name case-insensitively.
// The empty string yields FrequencyUndefined.
func ParseChangeFrequency(s string) (ChangeFrequency, error) {
	if s == "" {
		return FrequencyUndefined, nil
	}
	for i, name := range frequencyNames {
		if strings.EqualFold(name, s) {
			return ChangeFrequency(i), nil
		}
	}
	return FrequencyUndefined, errors.Mark(errors.Newf("unknown change frequency %q", s), ErrInvalidDeclaration)
}

// UpdatePriority is the relative crawl priority of a node.
type UpdatePriority int

const (
	PriorityUndefined UpdatePriority = iota
	PriorityAutomatic
	PriorityAbsolute000
	PriorityAbsolute010
	PriorityAbsolute020
	PriorityAbsolute030
	PriorityAbsolute040
	PriorityAbsolute050
	PriorityAbsolute060
	PriorityAbsolute070
	PriorityAbsolute080
	PriorityAbsolute090
	PriorityAbsolute100
)

var priorityNames = []string{
	"Undefined", "Automatic",
	"Absolute_000", "Absolute_010", "Absolute_020", "Absolute_030", "Absolute_040", "Absolute_050",
	"Absolute_060", "Absolute_070", "Absolute_080", "Absolute_090", "Absolute_100",
}

func (p UpdatePriority) String() string {
	if int(p) < 0 || int(p) >= len(priorityNames) {
		return "Undefined"
	}
	return priorityNames[p]
}

// ParseUpdatePriority parses a priority name case-insensitively.
// The empty string yields PriorityUndefined.
func ParseUpdatePriority(s string) (UpdatePriority, error) {
	if s == "" {
		return PriorityUndefined, nil
	}
	for i, name := range priorityNames {
		if strings.EqualFold(name, s) {
			return UpdatePriority(i), nil
		}
	}
	return PriorityUndefined, errors.Mark(errors.Newf("unknown update priority %q", s), ErrInvalidDeclaration)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses a lastModifiedDate value. The empty string yields the
// zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Mark(errors.Newf("unparseable date %q", s), ErrInvalidDeclaration)
}
