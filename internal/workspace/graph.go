package workspace

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"

	"github.com/jward/rfscope/internal/ctxlog"
	"github.com/jward/rfscope/internal/robot"
)

// Edge is one import. Doc is nil when the import target could not be
// resolved to an existing file; Target then holds the best-effort path or
// the unresolved expression.
type Edge struct {
	From   *Document
	Node   robot.Node // *robot.ResourceImport or *robot.VariablesImport
	Doc    *Document
	Target string
}

// Graph is the import closure of a root document. Resource edges are listed
// breadth-first from the root; each document is expanded once, so cycles
// terminate.
type Graph struct {
	Root      *Document
	resources []Edge
	variables []Edge
}

// Resources yields every resource import reachable from the root.
func (g *Graph) Resources() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		for _, e := range g.resources {
			if !yield(e) {
				return
			}
		}
	}
}

// VariableFiles yields every variables import reachable from the root.
func (g *Graph) VariableFiles() iter.Seq[Edge] {
	return func(yield func(Edge) bool) {
		for _, e := range g.variables {
			if !yield(e) {
				return
			}
		}
	}
}

// BuildGraph follows resource and variables imports from root. vars supplies
// values for variables used in import paths, keyed by bare or decorated name
// ("NAME" or "${NAME}"); ${CURDIR}, ${/} and ${EXECDIR} are always known.
// A document that fails to read is kept as a leaf and logged.
func BuildGraph(ctx context.Context, cache *Cache, root *Document, vars map[string]string) (*Graph, error) {
	log := ctxlog.FromContext(ctx)
	g := &Graph{Root: root}
	lookup := Lookup(vars)

	visited := map[*Document]bool{root: true}
	queue := []*Document{root}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("workspace: build graph: %w", err)
		}
		doc := queue[0]
		queue = queue[1:]

		tree, err := doc.Tree()
		if err != nil {
			log.Warn("workspace: skipping unreadable document", "path", doc.Path(), "error", err)
			continue
		}
		for _, sec := range tree.Sections {
			if sec.Kind != robot.SettingsSection {
				continue
			}
			for _, n := range sec.Body {
				var stmt *robot.Statement
				var isResource bool
				switch imp := n.(type) {
				case *robot.ResourceImport:
					stmt, isResource = &imp.Statement, true
				case *robot.VariablesImport:
					stmt = &imp.Statement
				default:
					continue
				}

				e := resolveImport(cache, doc, n, stmt, lookup)
				if e.Doc == nil {
					log.Debug("workspace: unresolved import", "from", doc.Path(), "target", e.Target)
				}
				if !isResource {
					g.variables = append(g.variables, e)
					continue
				}
				g.resources = append(g.resources, e)
				if e.Doc != nil && !visited[e.Doc] {
					visited[e.Doc] = true
					queue = append(queue, e.Doc)
				}
			}
		}
	}
	return g, nil
}

func resolveImport(cache *Cache, from *Document, n robot.Node, stmt *robot.Statement, lookup func(string, string) (string, bool)) Edge {
	e := Edge{From: from, Node: n}
	name, ok := stmt.Get(robot.Name)
	if !ok {
		return e
	}
	dir := filepath.Dir(from.Path())
	target, unresolved := robot.ReplaceVariables(name.Value, func(v string) (string, bool) {
		return lookup(dir, v)
	})
	e.Target = target
	if len(unresolved) > 0 {
		return e
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	e.Target = target
	if doc, err := cache.Get(target); err == nil {
		e.Doc = doc
	}
	return e
}

// Lookup returns the resolver used for variables in import paths: the
// built-in path variables first, then vars. dir is the importing
// document's directory.
func Lookup(vars map[string]string) func(dir, name string) (string, bool) {
	normalized := make(map[string]string, len(vars))
	for k, v := range vars {
		normalized[robot.Normalize(robot.VariableBase(k))] = v
	}
	return func(dir, name string) (string, bool) {
		switch base := robot.Normalize(robot.VariableBase(name)); base {
		case "curdir":
			return dir, true
		case "/":
			return string(filepath.Separator), true
		case "execdir":
			if v, ok := normalized[base]; ok {
				return v, true
			}
			wd, err := os.Getwd()
			return wd, err == nil
		default:
			v, ok := normalized[base]
			return v, ok
		}
	}
}
