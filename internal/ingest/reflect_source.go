package ingest

import (
	"context"
	"os"
	"path"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/sitemap/api"
	"github.com/agentic-research/sitemap/internal/ctxlog"
	"github.com/agentic-research/sitemap/internal/graph"
	"github.com/agentic-research/sitemap/internal/keygen"
)

// DefaultDenyList is applied when no include list is configured. Patterns
// match import paths; a leading "*/" matches the segment anywhere.
var DefaultDenyList = []string{
	"*/vendor/...",
	"*/testdata/...",
	"*/third_party/...",
	"golang.org/...",
	"google.golang.org/...",
}

// goPackage is a scanned Go package directory.
type goPackage struct {
	ImportPath string
	Dir        string   // relative to the filesystem root
	Files      []string // non-test .go files
}

// ReflectiveSource builds nodes from //sitemap: directives on Go types and
// methods, linking them through their parentKey attributes.
type ReflectiveSource struct {
	fs   billy.Filesystem
	opts options
}

// NewReflectiveSource scans the Go module rooted at fs.
func NewReflectiveSource(fs billy.Filesystem, opts ...Option) *ReflectiveSource {
	return &ReflectiveSource{fs: fs, opts: newOptions(opts)}
}

// HasDataFor implements Source.
func (s *ReflectiveSource) HasDataFor(name string) bool { return servesName(s.opts.name, name) }

// ProvideBaseData implements Source.
func (s *ReflectiveSource) ProvideBaseData(ctx context.Context, root *graph.Node) (*graph.Node, error) {
	logger := ctxlog.FromContext(ctx)
	decls, err := s.declarations(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(decls, func(a, b *declaration) int { return a.order - b.order })

	// Phase 1: promote the single parentless declaration to root.
	var candidates []*declaration
	for _, d := range decls {
		if d.parentKey() == "" {
			candidates = append(candidates, d)
		}
	}
	var promoted *declaration
	if len(candidates) == 1 && root == nil {
		promoted = candidates[0]
		n, err := s.nodeFromDeclaration(promoted)
		if err != nil {
			return nil, err
		}
		delete(n.Attributes, api.AttrParentKey)
		root = n
	}

	// Phase 2: attach what resolves now, defer the rest.
	type pendingNode struct {
		node      *graph.Node
		parentKey string
		decl      *declaration
	}
	var pending []pendingNode
	for _, d := range decls {
		if d == promoted {
			continue
		}
		pk := d.parentKey()
		if pk == "" {
			return nil, errors.Wrapf(graph.ErrUnresolvableParent, "%s (%s:%d)", d, d.file, d.line)
		}
		n, err := s.nodeFromDeclaration(d)
		if err != nil {
			return nil, err
		}
		if root != nil {
			if p := root.FindForKey(pk); p != nil {
				if err := s.attach(ctx, n, p); err != nil {
					return nil, err
				}
				continue
			}
		}
		logger.Debug("deferring declaration", "node", n.Key, "parentKey", pk)
		pending = append(pending, pendingNode{node: n, parentKey: pk, decl: d})
	}

	// Phase 3: retry against the tree, then against other pending nodes.
	for i, pn := range pending {
		if root != nil {
			if p := root.FindForKey(pn.parentKey); p != nil {
				if err := s.attach(ctx, pn.node, p); err != nil {
					return nil, err
				}
				continue
			}
		}
		var surrogate *graph.Node
		for j, other := range pending {
			if j != i && other.node.Key == pn.parentKey && !isAncestor(pn.node, other.node) {
				surrogate = other.node
				break
			}
		}
		if surrogate == nil {
			logger.Warn("dropping declaration with unresolvable parent", "node", pn.node.Key, "parentKey", pn.parentKey, "decl", pn.decl.String())
			continue
		}
		if err := s.attach(ctx, pn.node, surrogate); err != nil {
			return nil, err
		}
	}
	return root, nil
}

// isAncestor reports whether a is n or one of n's ancestors.
func isAncestor(a, n *graph.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == a {
			return true
		}
	}
	return false
}

func (s *ReflectiveSource) attach(ctx context.Context, n, parent *graph.Node) error {
	if HasDynamicNodes(n) {
		n.Parent = parent
		_, err := s.opts.expander.Expand(ctx, n, parent)
		return err
	}
	parent.AddChild(n)
	return nil
}

func (s *ReflectiveSource) nodeFromDeclaration(d *declaration) (*graph.Node, error) {
	el := d.el
	area := el.Value(api.AttrArea)
	if area == "" {
		area = inferArea(d.pkg)
	}
	controller := d.typeName
	if i := strings.Index(controller, "Controller"); i > 0 {
		controller = controller[:i]
	}
	action := d.method
	if action == "" {
		action = "Index"
	}
	if d.actionName != "" {
		action = d.actionName
	}
	httpMethod := "*"
	if len(d.verbs) > 0 {
		httpMethod = strings.Join(d.verbs, ",")
	}
	clickable, err := strconv.ParseBool(el.AttrOr(api.AttrClickable, "true"))
	if err != nil {
		return nil, invalidf("%s:%d: clickable %q is not a boolean", d.file, el.Line, el.Value(api.AttrClickable))
	}

	title := el.Value(api.AttrTitle)
	description := el.Value(api.AttrDescription)
	key := s.opts.keys.GenerateKey(keygen.Input{
		Key:        el.Value(api.AttrKey),
		Title:      title,
		Area:       area,
		Controller: controller,
		Action:     action,
		HTTPMethod: httpMethod,
		Clickable:  clickable,
	})

	n := graph.NewNode(key)
	if err := applyResource(n, api.AttrTitle, &title); err != nil {
		return nil, errors.Wrapf(err, "%s:%d", d.file, el.Line)
	}
	if err := applyResource(n, api.AttrDescription, &description); err != nil {
		return nil, errors.Wrapf(err, "%s:%d", d.file, el.Line)
	}
	if rk := el.Value(api.AttrResourceKey); rk != "" {
		n.ResourceKey = rk
		title, description = "", ""
	}
	n.Title, n.Description = title, description
	n.Roles = splitList(el.Value(api.AttrRoles))
	n.Clickable = clickable
	n.VisibilityProvider = el.Value(api.AttrVisibilityProvider)
	n.ImageURL = el.Value(api.AttrImageURL)
	n.TargetFrame = el.Value(api.AttrTargetFrame)
	n.HTTPMethod = httpMethod

	if n.ChangeFrequency, err = graph.ParseChangeFrequency(el.Value(api.AttrChangeFrequency)); err != nil {
		return nil, errors.Wrapf(err, "%s:%d", d.file, el.Line)
	}
	if n.UpdatePriority, err = graph.ParseUpdatePriority(el.Value(api.AttrUpdatePriority)); err != nil {
		return nil, errors.Wrapf(err, "%s:%d", d.file, el.Line)
	}
	if n.LastModified, err = graph.ParseDate(el.Value(api.AttrLastModifiedDate)); err != nil {
		return nil, errors.Wrapf(err, "%s:%d", d.file, el.Line)
	}

	for _, a := range el.Attrs {
		if !reflectiveField[a.Name] {
			n.Attributes[a.Name] = a.Value
		}
	}

	a := n.EnsureAction()
	a.Area, a.Controller, a.Action = area, controller, action
	r := n.Route
	r.Name = el.Value(api.AttrRoute)
	r.Values[api.AttrArea] = area
	r.Values[api.AttrController] = controller
	r.Values[api.AttrAction] = action
	r.Preserved = splitList(el.Value(api.AttrPreservedRouteParameters))
	r.URLResolver = el.Value(api.AttrURLResolver)
	return n, nil
}

// reflectiveField lists directive keys consumed into node fields; every
// other key, parentKey included, is kept as a generic attribute.
var reflectiveField = map[string]bool{
	api.AttrKey:                      true,
	api.AttrTitle:                    true,
	api.AttrDescription:              true,
	api.AttrResourceKey:              true,
	api.AttrRoles:                    true,
	api.AttrRoute:                    true,
	api.AttrArea:                     true,
	api.AttrClickable:                true,
	api.AttrVisibilityProvider:       true,
	api.AttrURLResolver:              true,
	api.AttrImageURL:                 true,
	api.AttrTargetFrame:              true,
	api.AttrLastModifiedDate:         true,
	api.AttrChangeFrequency:          true,
	api.AttrUpdatePriority:           true,
	api.AttrPreservedRouteParameters: true,
	api.AttrOrder:                    true,
}

// inferArea takes the second-to-last segment of the package directory
// relative to the module root ("admin/controllers" → "admin"). Packages at
// the module root or one level below belong to the default area.
func inferArea(pkg *goPackage) string {
	segs := strings.Split(pkg.Dir, "/")
	if pkg.Dir == "" || len(segs) < 2 {
		return ""
	}
	return segs[len(segs)-2]
}

// declarations scans every selected package. Files are parsed in
// parallel; results keep package, file and line order.
func (s *ReflectiveSource) declarations(ctx context.Context) ([]*declaration, error) {
	logger := ctxlog.FromContext(ctx)
	pkgs, err := s.Packages()
	if err != nil {
		return nil, err
	}

	type job struct {
		pkg  int
		path string
	}
	var jobs []job
	for i, p := range pkgs {
		for _, f := range p.Files {
			jobs = append(jobs, job{pkg: i, path: f})
		}
	}
	results := make([]*fileFacts, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, j := range jobs {
		g.Go(func() error {
			src, err := util.ReadFile(s.fs, j.path)
			if err != nil {
				return errors.Wrapf(err, "read %s", j.path)
			}
			facts, err := scanFile(gctx, j.path, src)
			if err != nil {
				var syn *SyntaxError
				if errors.As(err, &syn) {
					logger.Warn("skipping file with syntax errors", "err", err)
					return nil
				}
				return err
			}
			results[i] = facts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var decls []*declaration
	for i := range pkgs {
		var files []*fileFacts
		for k, j := range jobs {
			if j.pkg == i && results[k] != nil {
				files = append(files, results[k])
			}
		}
		pd, err := packageDeclarations(&pkgs[i], files)
		if err != nil {
			return nil, err
		}
		if len(pd) > 0 {
			logger.Debug("scanned package", "import", pkgs[i].ImportPath, "declarations", len(pd))
		}
		decls = append(decls, pd...)
	}
	return decls, nil
}

// Packages lists the Go packages selected for scanning, sorted by
// import path.
func (s *ReflectiveSource) Packages() ([]goPackage, error) {
	modPath := ""
	if data, err := util.ReadFile(s.fs, "go.mod"); err == nil {
		modPath = modfile.ModulePath(data)
	} else if !os.IsNotExist(err) && !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(err, "read go.mod")
	}

	var pkgs []goPackage
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := s.fs.ReadDir(dir)
		if err != nil {
			return errors.Wrapf(err, "read dir %q", dir)
		}
		var files []string
		for _, e := range entries {
			name := e.Name()
			full := s.fs.Join(dir, name)
			if e.IsDir() {
				if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
					continue
				}
				if err := walk(full); err != nil {
					return err
				}
				continue
			}
			if strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
				files = append(files, full)
			}
		}
		if len(files) == 0 {
			return nil
		}
		slices.Sort(files)
		rel := path.Clean("/" + strings.ReplaceAll(dir, "\\", "/"))[1:]
		pkg := goPackage{ImportPath: joinImport(modPath, rel), Dir: rel, Files: files}
		if s.selected(pkg) {
			pkgs = append(pkgs, pkg)
		}
		return nil
	}
	if err := walk(""); err != nil {
		return nil, err
	}
	slices.SortFunc(pkgs, func(a, b goPackage) int { return strings.Compare(a.ImportPath, b.ImportPath) })
	return pkgs, nil
}

func joinImport(modPath, rel string) string {
	switch {
	case modPath == "":
		if rel == "" {
			return "."
		}
		return rel
	case rel == "":
		return modPath
	default:
		return modPath + "/" + rel
	}
}

func (s *ReflectiveSource) selected(pkg goPackage) bool {
	if len(s.opts.include) > 0 {
		return matchAny(s.opts.include, pkg)
	}
	return !matchAny(DefaultDenyList, pkg) && !matchAny(s.opts.exclude, pkg)
}

func matchAny(patterns []string, pkg goPackage) bool {
	for _, p := range patterns {
		if matchPattern(p, pkg.ImportPath) || (pkg.Dir != "" && matchPattern(p, pkg.Dir)) {
			return true
		}
	}
	return false
}

// matchPattern matches an import path against a pattern. "x/..." matches x
// and everything below it; a leading "*/" lets the pattern start at any
// segment.
func matchPattern(pattern, importPath string) bool {
	if rest, ok := strings.CutPrefix(pattern, "*/"); ok {
		segs := strings.Split(importPath, "/")
		for i := range segs {
			if matchPattern(rest, strings.Join(segs[i:], "/")) {
				return true
			}
		}
		return false
	}
	if prefix, ok := strings.CutSuffix(pattern, "/..."); ok {
		return importPath == prefix || strings.HasPrefix(importPath, prefix+"/")
	}
	return importPath == pattern
}
