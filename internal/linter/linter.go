// Package linter reports malformed or misplaced //sitemap: directives.
package linter

import (
	"context"
	"fmt"
	"go/token"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/agentic-research/sitemap/api"
	"github.com/agentic-research/sitemap/internal/ingest"
)

type Diagnostic struct {
	Path    string
	Message string
	Line    uint32
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s", d.Path, d.Line+1, d.Message)
}

// Lint checks the directives in one Go file.
func Lint(ctx context.Context, path string, content []byte) ([]Diagnostic, error) {
	if !strings.HasSuffix(path, ".go") {
		return nil, nil
	}

	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}

	q, err := sitter.NewQuery([]byte(`(comment) @c`), golang.GetLanguage())
	if err != nil {
		return nil, err
	}
	defer q.Close()
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, tree.RootNode())

	var diags []Diagnostic
	report := func(n *sitter.Node, format string, args ...any) {
		diags = append(diags, Diagnostic{Path: path, Message: fmt.Sprintf(format, args...), Line: n.StartPoint().Row})
	}
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			d, isDirective, err := ingest.ParseDirective(c.Node.Content(content))
			if !isDirective {
				continue
			}
			if err != nil {
				report(c.Node, "%v", err)
				continue
			}
			if d.Verb == ingest.VerbNode {
				for _, a := range d.Attrs {
					if a.Name == api.AttrOrder {
						if _, err := strconv.Atoi(a.Value); err != nil {
							report(c.Node, "order %q is not an integer", a.Value)
						}
					}
				}
			}
			kind, name := target(c.Node, content)
			switch {
			case kind == "":
				report(c.Node, "%s%s is not attached to a declaration", ingest.DirectivePrefix, d.Verb)
			case kind == "function_declaration":
				report(c.Node, "%s%s on function %s: directives apply to types and methods", ingest.DirectivePrefix, d.Verb, name)
			case !token.IsExported(name):
				report(c.Node, "%s%s on unexported %s is ignored", ingest.DirectivePrefix, d.Verb, name)
			case kind == "type_declaration" && d.Verb != ingest.VerbNode:
				report(c.Node, "%s%s applies to methods only", ingest.DirectivePrefix, d.Verb)
			}
		}
	}
	return diags, nil
}

// target finds the declaration a comment documents: the first non-comment
// sibling, provided no blank line separates them.
func target(c *sitter.Node, src []byte) (kind, name string) {
	prevEnd := c.EndPoint().Row
	for n := c.NextNamedSibling(); n != nil; n = n.NextNamedSibling() {
		if n.StartPoint().Row > prevEnd+1 {
			return "", ""
		}
		switch n.Type() {
		case "comment":
			prevEnd = n.EndPoint().Row
			continue
		case "type_declaration":
			for i := 0; i < int(n.NamedChildCount()); i++ {
				if spec := n.NamedChild(i); spec.Type() == "type_spec" {
					if id := spec.ChildByFieldName("name"); id != nil {
						return n.Type(), id.Content(src)
					}
				}
			}
			return "", ""
		case "method_declaration", "function_declaration":
			if id := n.ChildByFieldName("name"); id != nil {
				return n.Type(), id.Content(src)
			}
		}
		return "", ""
	}
	return "", ""
}

// LintFS lints every package the reflective source would scan.
func LintFS(ctx context.Context, fs billy.Filesystem, opts ...ingest.Option) ([]Diagnostic, error) {
	pkgs, err := ingest.NewReflectiveSource(fs, opts...).Packages()
	if err != nil {
		return nil, err
	}
	var diags []Diagnostic
	for _, p := range pkgs {
		for _, f := range p.Files {
			src, err := util.ReadFile(fs, f)
			if err != nil {
				return nil, errors.Wrapf(err, "read %s", f)
			}
			d, err := Lint(ctx, f, src)
			if err != nil {
				return nil, err
			}
			diags = append(diags, d...)
		}
	}
	return diags, nil
}
