package ingest

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// SyntaxError locates the first parse error in a Go file.
type SyntaxError struct {
	Path   string
	Line   uint32 // 0-indexed
	Column uint32 // 0-indexed
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error", e.Path, e.Line+1, e.Column+1)
}

// checkSyntax returns a *SyntaxError when the tree contains ERROR or
// MISSING nodes.
func checkSyntax(root *sitter.Node, path string) error {
	if root == nil || !root.HasError() {
		return nil
	}
	if n := findFirstError(root); n != nil {
		return &SyntaxError{Path: path, Line: n.StartPoint().Row, Column: n.StartPoint().Column}
	}
	return &SyntaxError{Path: path}
}

// findFirstError does a depth-first search for the first ERROR node.
func findFirstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			if found := findFirstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}
