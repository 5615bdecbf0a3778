package api

// Namespace is the XML namespace of site map documents.
// Element names are matched on their local part, so documents that declare
// no namespace (or a foreign one) are read the same way.
const Namespace = "http://schemas.agentic-research.dev/sitemap/1.0"

// Element names recognized in a site map document.
const (
	// RootElement is the container for the top-level node declaration.
	RootElement = "siteMap"
	// NodeElement declares a single navigation node.
	NodeElement = "siteMapNode"
)

// Recognized node attributes. Any other attribute becomes a generic
// attribute or a route value depending on the node variant.
const (
	AttrKey                      = "key"
	AttrURL                      = "url"
	AttrTitle                    = "title"
	AttrDescription              = "description"
	AttrResourceKey              = "resourceKey"
	AttrRoles                    = "roles"
	AttrRoute                    = "route"
	AttrArea                     = "area"
	AttrController               = "controller"
	AttrAction                   = "action"
	AttrHTTPMethod               = "httpMethod"
	AttrClickable                = "clickable"
	AttrVisibilityProvider       = "visibilityProvider"
	AttrURLResolver              = "urlResolver"
	AttrLastModifiedDate         = "lastModifiedDate"
	AttrChangeFrequency          = "changeFrequency"
	AttrUpdatePriority           = "updatePriority"
	AttrTargetFrame              = "targetFrame"
	AttrImageURL                 = "imageUrl"
	AttrInheritedRouteParameters = "inheritedRouteParameters"
	AttrPreservedRouteParameters = "preservedRouteParameters"
	AttrDynamicNodeProvider      = "dynamicNodeProvider"

	// AttrParentKey links reflective declarations to their parent.
	AttrParentKey = "parentKey"
	// AttrOrder sorts reflective declarations before linking.
	AttrOrder = "order"
)

// PassthroughPrefix marks attributes that are always generic, never route values.
const PassthroughPrefix = "data-"

// Document is a decoded site map file, independent of the format it was
// written in (XML, JSON or HCL).
type Document struct {
	// Path the document was read from.
	Path string
	// Root is the container element.
	Root *Element
}

// Element is one structural declaration in a document.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
	// Line is the 1-based source line, 0 when the format does not track it.
	Line int
}

// Attr is a single name/value pair in declaration order.
type Attr struct {
	Name  string
	Value string
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute, or fallback when it is absent.
func (e *Element) AttrOr(name, fallback string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return fallback
}

// Value returns the named attribute or "" when absent.
func (e *Element) Value(name string) string {
	v, _ := e.Attr(name)
	return v
}
