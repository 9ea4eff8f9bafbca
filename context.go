package rfscope

import (
	"iter"

	"github.com/jward/rfscope/internal/robot"
	"github.com/jward/rfscope/internal/workspace"
)

// Document is a file the resolver reads. Implementations must be pointer
// types: the resolver keys its visited set on Document identity.
type Document interface {
	Path() string
	Source() ([]byte, error)
	Tree() (*robot.File, error)
}

// ImportEdge is one import of the dependency graph. Doc is nil when the
// import could not be resolved to a document.
type ImportEdge struct {
	From Document
	Node robot.Node
	Doc  Document
}

// DependencyGraph is the import closure of the document being analyzed,
// already flattened by its owner. It may contain cycles.
type DependencyGraph interface {
	ResourceImports() iter.Seq[ImportEdge]
	VariableImports() iter.Seq[ImportEdge]
}

// CompletionContext is the input of one resolution call. It is read, never
// modified.
type CompletionContext struct {
	Doc      Document
	Position Position
	// Graph may be nil, in which case no imports are followed.
	Graph DependencyGraph
	// Variables is the project configuration table. Keys may be bare names
	// ("HOST") or variable syntax ("${HOST}").
	Variables map[string]string
	// InitDocs are suite initialization files walked alongside resources.
	InitDocs []Document
}

// WorkspaceGraph adapts a workspace import graph.
func WorkspaceGraph(g *workspace.Graph) DependencyGraph {
	return workspaceGraph{g}
}

type workspaceGraph struct{ g *workspace.Graph }

func (w workspaceGraph) ResourceImports() iter.Seq[ImportEdge] { return adaptEdges(w.g.Resources()) }
func (w workspaceGraph) VariableImports() iter.Seq[ImportEdge] { return adaptEdges(w.g.VariableFiles()) }

func adaptEdges(edges iter.Seq[workspace.Edge]) iter.Seq[ImportEdge] {
	return func(yield func(ImportEdge) bool) {
		for e := range edges {
			ie := ImportEdge{From: e.From, Node: e.Node}
			// A nil *workspace.Document must stay a nil interface.
			if e.Doc != nil {
				ie.Doc = e.Doc
			}
			if !yield(ie) {
				return
			}
		}
	}
}

// Documents converts workspace documents, e.g. suite init files.
func Documents(docs []*workspace.Document) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out
}
