package varfile

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ScanPython returns the module-level "name = expression" assignments of a
// Python source file in order. Values are the verbatim expression text.
// Chained assignments ("a = b = 1") yield one entry per name; annotated,
// augmented and tuple-target assignments are ignored. A file with syntax
// errors yields an error and no entries.
func ScanPython(ctx context.Context, src []byte) ([]Entry, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("varfile: parse python: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("varfile: python source has syntax errors")
	}
	var entries []Entry
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "expression_statement" || stmt.NamedChildCount() == 0 {
			continue
		}
		node := stmt.NamedChild(0)
		if node.Type() != "assignment" {
			continue
		}
		entries = append(entries, assignmentEntries(node, src)...)
	}
	return entries, nil
}

// assignmentEntries flattens a (possibly chained) assignment. The value of
// every target is the right-most expression.
func assignmentEntries(node *sitter.Node, src []byte) []Entry {
	var targets []*sitter.Node
	value := node
	for value != nil && value.Type() == "assignment" {
		if value.ChildByFieldName("type") != nil {
			return nil
		}
		targets = append(targets, value.ChildByFieldName("left"))
		value = value.ChildByFieldName("right")
	}
	if value == nil {
		return nil
	}
	text := value.Content(src)

	var entries []Entry
	for _, target := range targets {
		if target == nil || target.Type() != "identifier" {
			continue
		}
		name := target.Content(src)
		start := target.StartPoint()
		entries = append(entries, Entry{
			Name:   name,
			Value:  text,
			Line:   int(start.Row),
			Col:    int(start.Column),
			EndCol: int(start.Column) + len(name),
		})
	}
	return entries
}
