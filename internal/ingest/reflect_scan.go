package ingest

import (
	"context"
	"go/token"
	"slices"
	"strconv"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/agentic-research/sitemap/api"
)

const (
	typeQuery   = `(type_spec name: (type_identifier) @name) @spec`
	methodQuery = `(method_declaration name: (field_identifier) @name) @decl`
)

// declaration is a node directive together with the Go type (and method)
// it is attached to.
type declaration struct {
	pkg      *goPackage
	typeName string
	method   string // empty for type-level declarations
	el       *api.Element
	order    int

	actionName string
	verbs      []string

	file string
	line int
}

func (d *declaration) parentKey() string { return d.el.Value(api.AttrParentKey) }

func (d *declaration) String() string {
	s := d.pkg.ImportPath + "." + d.typeName
	if d.method != "" {
		s += "." + d.method
	}
	return s
}

type typeFacts struct {
	name string
	node *Directive
	line int
}

type methodFacts struct {
	receiver   string
	name       string
	zeroArg    bool
	nodes      []Directive
	actionName string
	verbs      []string
	line       int
}

type fileFacts struct {
	path    string
	types   []typeFacts
	methods []methodFacts
}

// scanFile parses one Go file and collects directive-bearing declarations.
func scanFile(ctx context.Context, path string, src []byte) (*fileFacts, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Wrapf(err, "tree-sitter parse failed for %s", path)
	}
	root := tree.RootNode()
	if err := checkSyntax(root, path); err != nil {
		return nil, err
	}

	facts := &fileFacts{path: path}
	err = eachMatch(typeQuery, root, func(caps map[string]*sitter.Node) error {
		name := caps["name"].Content(src)
		if !token.IsExported(name) {
			return nil
		}
		spec := caps["spec"]
		comments := leadingComments(spec, src)
		if p := spec.Parent(); p != nil && p.Type() == "type_declaration" {
			comments = append(leadingComments(p, src), comments...)
		}
		dirs, err := parseDirectives(path, comments)
		if err != nil {
			return err
		}
		tf := typeFacts{name: name, line: int(spec.StartPoint().Row) + 1}
		for i := range dirs {
			if dirs[i].Verb == VerbNode {
				tf.node = &dirs[i]
				break
			}
		}
		if tf.node != nil {
			facts.types = append(facts.types, tf)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachMatch(methodQuery, root, func(caps map[string]*sitter.Node) error {
		name := caps["name"].Content(src)
		decl := caps["decl"]
		recv := receiverType(decl, src)
		if !token.IsExported(name) || recv == "" {
			return nil
		}
		dirs, err := parseDirectives(path, leadingComments(decl, src))
		if err != nil {
			return err
		}
		mf := methodFacts{
			receiver: recv,
			name:     name,
			zeroArg:  paramCount(decl) == 0,
			line:     int(decl.StartPoint().Row) + 1,
		}
		for _, d := range dirs {
			switch d.Verb {
			case VerbNode:
				mf.nodes = append(mf.nodes, d)
			case VerbAction:
				mf.actionName = d.Args
			case VerbVerbs:
				mf.verbs = d.Verbs
			}
		}
		facts.methods = append(facts.methods, mf)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return facts, nil
}

// eachMatch runs a Go tree-sitter query and hands each match's captures to fn.
func eachMatch(query string, root *sitter.Node, fn func(map[string]*sitter.Node) error) error {
	q, err := sitter.NewQuery([]byte(query), golang.GetLanguage())
	if err != nil {
		return errors.Wrapf(err, "invalid query '%s'", query)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	for {
		m, ok := qc.NextMatch()
		if !ok {
			return nil
		}
		caps := make(map[string]*sitter.Node, len(m.Captures))
		for _, c := range m.Captures {
			caps[q.CaptureNameForId(c.Index)] = c.Node
		}
		if err := fn(caps); err != nil {
			return err
		}
	}
}

type comment struct {
	text string
	line int
}

// leadingComments returns the comment lines directly above n, with no
// blank line in between, in source order.
func leadingComments(n *sitter.Node, src []byte) []comment {
	var out []comment
	next := n.StartPoint().Row
	for c := n.PrevNamedSibling(); c != nil && c.Type() == "comment"; c = c.PrevNamedSibling() {
		if c.EndPoint().Row+1 != next {
			break
		}
		out = append(out, comment{text: c.Content(src), line: int(c.StartPoint().Row) + 1})
		next = c.StartPoint().Row
	}
	slices.Reverse(out)
	return out
}

func parseDirectives(path string, comments []comment) ([]Directive, error) {
	var out []Directive
	for _, c := range comments {
		d, ok, err := ParseDirective(c.text)
		if !ok {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", path, c.line)
		}
		d.Line = c.line
		out = append(out, d)
	}
	return out, nil
}

func receiverType(decl *sitter.Node, src []byte) string {
	recv := decl.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	return firstOfType(recv, "type_identifier", src)
}

func firstOfType(n *sitter.Node, typ string, src []byte) string {
	if n.Type() == typ {
		return n.Content(src)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if s := firstOfType(n.NamedChild(i), typ, src); s != "" {
			return s
		}
	}
	return ""
}

func paramCount(decl *sitter.Node) int {
	params := decl.ChildByFieldName("parameters")
	if params == nil {
		return 0
	}
	count := 0
	for i := 0; i < int(params.NamedChildCount()); i++ {
		if params.NamedChild(i).Type() != "comment" {
			count++
		}
	}
	return count
}

// packageDeclarations turns the facts of every file in pkg into
// declarations, in file then line order.
func packageDeclarations(pkg *goPackage, files []*fileFacts) ([]*declaration, error) {
	byType := make(map[string][]methodFacts)
	for _, f := range files {
		for _, m := range f.methods {
			byType[m.receiver] = append(byType[m.receiver], m)
		}
	}

	var out []*declaration
	add := func(d *declaration, dir *Directive) error {
		d.el = &api.Element{Name: api.NodeElement, Attrs: dir.Attrs, Line: dir.Line}
		if s := d.el.Value(api.AttrOrder); s != "" {
			o, err := strconv.Atoi(s)
			if err != nil {
				return invalidf("%s:%d: order %q is not an integer", d.file, dir.Line, s)
			}
			d.order = o
		}
		out = append(out, d)
		return nil
	}

	for _, f := range files {
		for _, tf := range f.types {
			d := &declaration{pkg: pkg, typeName: tf.name, file: f.path, line: tf.line}
			for _, m := range byType[tf.name] {
				if m.name == "Index" && m.zeroArg {
					d.actionName = m.actionName
					d.verbs = m.verbs
					break
				}
			}
			if err := add(d, tf.node); err != nil {
				return nil, err
			}
		}
		for _, mf := range f.methods {
			for i := range mf.nodes {
				d := &declaration{
					pkg:        pkg,
					typeName:   mf.receiver,
					method:     mf.name,
					actionName: mf.actionName,
					verbs:      mf.verbs,
					file:       f.path,
					line:       mf.line,
				}
				if err := add(d, &mf.nodes[i]); err != nil {
					return nil, err
				}
			}
		}
	}
	return out, nil
}
