package ingest

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/sitemap/api"
	"github.com/agentic-research/sitemap/internal/ctxlog"
	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/keygen"
)

// routeReserved lists attributes that never become route values.
var routeReserved = map[string]bool{
	api.AttrTitle:                    true,
	api.AttrDescription:              true,
	api.AttrResourceKey:              true,
	api.AttrKey:                      true,
	api.AttrRoles:                    true,
	api.AttrRoute:                    true,
	api.AttrURL:                      true,
	api.AttrClickable:                true,
	api.AttrHTTPMethod:               true,
	api.AttrURLResolver:              true,
	api.AttrVisibilityProvider:       true,
	api.AttrLastModifiedDate:         true,
	api.AttrChangeFrequency:          true,
	api.AttrUpdatePriority:           true,
	api.AttrTargetFrame:              true,
	api.AttrImageURL:                 true,
	api.AttrInheritedRouteParameters: true,
	api.AttrPreservedRouteParameters: true,
	api.AttrDynamicNodeProvider:      true,
}

// IsRouteAttribute reports whether an attribute of a route node becomes a
// route value.
func IsRouteAttribute(name string) bool {
	return !routeReserved[name] && !strings.HasPrefix(name, api.PassthroughPrefix)
}

// isRegularAttribute reports whether an attribute is copied into the
// node's generic attributes.
func isRegularAttribute(name string) bool {
	return name != api.AttrTitle && name != api.AttrDescription
}

// FileSource reads a structured site map document.
type FileSource struct {
	fs   billy.Filesystem
	path string
	opts options
}

// NewFileSource returns a source reading path from fs. The file is read on
// every ProvideBaseData call.
func NewFileSource(fs billy.Filesystem, path string, opts ...Option) *FileSource {
	return &FileSource{fs: fs, path: path, opts: newOptions(opts)}
}

// Path returns the document path.
func (s *FileSource) Path() string { return s.path }

// HasDataFor implements Source.
func (s *FileSource) HasDataFor(name string) bool { return servesName(s.opts.name, name) }

// ProvideBaseData implements Source. The document's root node replaces
// any root passed in.
func (s *FileSource) ProvideBaseData(ctx context.Context, prev *graph.Node) (*graph.Node, error) {
	logger := ctxlog.FromContext(ctx)
	data, err := util.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
			return nil, errors.Mark(errors.Wrapf(err, "site map file %s not found", s.path), graph.ErrMissingSource)
		}
		return nil, errors.Wrapf(err, "read %s", s.path)
	}
	doc, err := Decode(s.path, data)
	if err != nil {
		return nil, err
	}
	rootEl, err := rootDeclaration(doc)
	if err != nil {
		return nil, err
	}
	root, err := s.nodeFromElement(rootEl, nil)
	if err != nil {
		return nil, err
	}
	if err := s.process(ctx, rootEl, root); err != nil {
		return nil, err
	}
	if prev != nil {
		logger.Warn("file source replaces existing root", "path", s.path, "replaced", prev.Key)
	}
	logger.Debug("parsed site map file", "path", s.path, "root", root.Key)
	return root, nil
}

func rootDeclaration(doc *api.Document) (*api.Element, error) {
	if doc.Root.Name != api.RootElement {
		return nil, invalidf("%s: root element is %q, want %q", doc.Path, doc.Root.Name, api.RootElement)
	}
	var found *api.Element
	for _, c := range doc.Root.Children {
		if c.Name != api.NodeElement {
			return nil, invalidElement(doc.Path, c)
		}
		if found != nil {
			return nil, invalidf("%s:%d: more than one root %s", doc.Path, c.Line, api.NodeElement)
		}
		found = c
	}
	if found == nil {
		return nil, invalidf("%s: no %s declared", doc.Path, api.NodeElement)
	}
	return found, nil
}

func invalidElement(path string, el *api.Element) error {
	return invalidf("%s:%d: unsupported element %q", path, el.Line, el.Name)
}

// process attaches the declarations nested in el beneath parent. A
// placeholder is expanded and its nested declarations are processed once
// for every produced node.
func (s *FileSource) process(ctx context.Context, el *api.Element, parent *graph.Node) error {
	for _, childEl := range el.Children {
		if childEl.Name != api.NodeElement {
			return invalidElement(s.path, childEl)
		}
		child, err := s.nodeFromElement(childEl, parent)
		if err != nil {
			return err
		}
		child.Parent = parent

		if HasDynamicNodes(child) {
			produced, err := s.opts.expander.Expand(ctx, child, parent)
			if err != nil {
				return err
			}
			for _, dn := range produced {
				if err := s.process(ctx, childEl, dn); err != nil {
					return err
				}
			}
			continue
		}

		parent.AddChild(child)
		if err := s.process(ctx, childEl, child); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileSource) nodeFromElement(el *api.Element, parent *graph.Node) (*graph.Node, error) {
	area := el.Value(api.AttrArea)
	controller := el.Value(api.AttrController)
	action := el.Value(api.AttrAction)
	route := el.Value(api.AttrRoute)
	httpMethod := strings.ToUpper(el.AttrOr(api.AttrHTTPMethod, "*"))

	parentKey := ""
	if parent != nil {
		parentKey = parent.Key
	}
	key := s.opts.keys.GenerateKey(keygen.Input{
		ParentKey:  parentKey,
		Key:        el.Value(api.AttrKey),
		URL:        el.Value(api.AttrURL),
		Title:      el.Value(api.AttrTitle),
		Area:       area,
		Controller: controller,
		Action:     action,
		HTTPMethod: httpMethod,
		Clickable:  el.Value(api.AttrClickable) != "false",
	})

	n := graph.NewNode(key)
	title := el.Value(api.AttrTitle)
	description := el.AttrOr(api.AttrDescription, title)
	if err := applyResource(n, api.AttrTitle, &title); err != nil {
		return nil, s.at(el, err)
	}
	if err := applyResource(n, api.AttrDescription, &description); err != nil {
		return nil, s.at(el, err)
	}
	if rk := el.Value(api.AttrResourceKey); rk != "" {
		n.ResourceKey = rk
		title, description = "", ""
	}
	n.Title, n.Description = title, description

	for _, a := range el.Attrs {
		if isRegularAttribute(a.Name) {
			n.Attributes[a.Name] = a.Value
		}
	}
	n.Roles = splitList(el.Value(api.AttrRoles))

	clickable, err := strconv.ParseBool(el.AttrOr(api.AttrClickable, "true"))
	if err != nil {
		return nil, s.at(el, invalidf("clickable %q is not a boolean", el.Value(api.AttrClickable)))
	}
	n.Clickable = clickable
	n.VisibilityProvider = el.Value(api.AttrVisibilityProvider)
	n.ImageURL = el.Value(api.AttrImageURL)
	n.TargetFrame = el.Value(api.AttrTargetFrame)
	n.HTTPMethod = httpMethod
	if clickable {
		n.URL = el.Value(api.AttrURL)
	}

	if n.ChangeFrequency, err = graph.ParseChangeFrequency(el.Value(api.AttrChangeFrequency)); err != nil {
		return nil, s.at(el, err)
	}
	if n.UpdatePriority, err = graph.ParseUpdatePriority(el.Value(api.AttrUpdatePriority)); err != nil {
		return nil, s.at(el, err)
	}
	if n.LastModified, err = graph.ParseDate(el.Value(api.AttrLastModifiedDate)); err != nil {
		return nil, s.at(el, err)
	}

	isAction := area != "" || controller != "" || action != ""
	if !isAction && route == "" {
		return n, nil
	}

	r := n.EnsureRoute()
	r.Name = route
	for _, a := range el.Attrs {
		if IsRouteAttribute(a.Name) {
			r.Values[a.Name] = a.Value
		}
	}
	r.Preserved = splitList(el.Value(api.AttrPreservedRouteParameters))
	r.URLResolver = el.Value(api.AttrURLResolver)
	n.URL = ""
	if parent != nil && parent.Route != nil {
		for _, p := range splitList(el.Value(api.AttrInheritedRouteParameters)) {
			if v, ok := parent.Route.Values[p]; ok {
				r.Values[p] = v
			}
		}
	}

	if !isAction {
		return n, nil
	}
	a := n.EnsureAction()
	a.Area, a.Controller, a.Action = area, controller, action
	if parent != nil && parent.Action != nil {
		if a.Area == "" {
			a.Area = parent.Action.Area
		}
		if a.Controller == "" {
			a.Controller = parent.Action.Controller
		}
	}
	if _, ok := r.Values[api.AttrArea]; !ok {
		r.Values[api.AttrArea] = ""
	}
	return n, nil
}

func (s *FileSource) at(el *api.Element, err error) error {
	return errors.Wrapf(err, "%s:%d", s.path, el.Line)
}
