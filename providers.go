package rfscope

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jward/rfscope/internal/robot"
	"github.com/jward/rfscope/internal/varfile"
	"github.com/jward/rfscope/internal/workspace"
)

// setVariableKeywords are the normalized names of the keywords that define
// a variable from their first two arguments.
var setVariableKeywords = map[string]bool{
	"settaskvariable":   true,
	"settestvariable":   true,
	"setsuitevariable":  true,
	"setglobalvariable": true,
}

// walker carries the state of one Collect call.
type walker struct {
	ctx      context.Context
	log      *slog.Logger
	c        Collector
	cc       *CompletionContext
	builtins []Builtin

	// visited is keyed by document identity so aliased paths and import
	// cycles contribute once.
	visited map[Document]bool
	// reported holds import nodes already sent to OnUnresolvedImport.
	reported map[robot.Node]bool
}

func (w *walker) run(reach Reach) error {
	if err := checkCancelled(w.ctx); err != nil {
		return err
	}
	if tree, err := w.cc.Doc.Tree(); err != nil {
		w.log.Warn("rfscope: skipping current document", "path", w.cc.Doc.Path(), "error", err)
	} else {
		if err := w.localScope(tree); err != nil {
			return err
		}
		w.documentScope(w.cc.Doc.Path(), tree, ProvenanceModule)
	}
	if reach == ReachCurrentDocument {
		return nil
	}

	if err := w.resources(); err != nil {
		return err
	}
	if err := w.variableFiles(); err != nil {
		return err
	}
	if err := checkCancelled(w.ctx); err != nil {
		return err
	}
	w.config()
	w.builtinTable()
	return nil
}

// localScope reports the assignments, loop variables, EXCEPT bindings and
// arguments of the test or keyword enclosing the cursor, or of the whole
// section when the cursor is outside of one.
func (w *walker) localScope(tree *robot.File) error {
	stack := robot.StackAt(tree, w.cc.Position.Line+1)
	if len(stack) == 0 {
		return nil
	}
	scope := stack[0]
	for _, n := range slices.Backward(stack) {
		if _, ok := n.(*robot.Keyword); ok {
			scope = n
			break
		}
		if _, ok := n.(*robot.TestCase); ok {
			scope = n
			break
		}
	}

	path := w.cc.Doc.Path()
	assigns := []iter.Seq[robot.AssignInfo]{
		robot.VariableAssigns(scope),
		robot.ForAssigns(scope),
		robot.ExceptAssigns(scope),
	}
	for _, seq := range assigns {
		for info := range seq {
			if err := checkCancelled(w.ctx); err != nil {
				return err
			}
			w.emitToken(info.Token, info.Token.Value, statementText(info.Node), path, ProvenanceLocal)
		}
	}
	for _, tok := range robot.KeywordArguments(scope) {
		w.emitToken(tok, tok.Value, "", path, ProvenanceLocal)
	}
	return nil
}

// documentScope reports the Variables section entries of a document and its
// calls to the Set Test/Task/Suite/Global Variable keywords.
func (w *walker) documentScope(path string, tree *robot.File, p Provenance) {
	for _, sec := range tree.Sections {
		if sec.Kind != robot.VariablesSection {
			continue
		}
		for _, n := range sec.Body {
			v, ok := n.(*robot.VariableEntry)
			if !ok {
				continue
			}
			tok, ok := v.Get(robot.Variable)
			if !ok {
				continue
			}
			name := strings.TrimSpace(tok.Value)
			name = strings.TrimRightFunc(strings.TrimSuffix(name, "="), isSpace)
			w.emitToken(tok, name, valuePreview(v.Values(robot.Argument)), path, p)
		}
	}

	for u := range robot.KeywordUsages(tree) {
		if !setVariableKeywords[robot.Normalize(u.Name.Value)] || len(u.Args) == 0 {
			continue
		}
		var value string
		if len(u.Args) > 1 {
			value = u.Args[1].Value
		}
		w.emitToken(u.Args[0], strings.TrimSpace(u.Args[0].Value), value, path, p)
	}
}

// resources reports the document scope of every imported resource and
// suite init file once.
func (w *walker) resources() error {
	if w.cc.Graph != nil {
		for e := range w.cc.Graph.ResourceImports() {
			if err := checkCancelled(w.ctx); err != nil {
				return err
			}
			if e.Doc == nil {
				w.unresolved(e)
				continue
			}
			w.importedDocument(e.Doc)
		}
	}
	for _, doc := range w.cc.InitDocs {
		if err := checkCancelled(w.ctx); err != nil {
			return err
		}
		if doc != nil {
			w.importedDocument(doc)
		}
	}
	return nil
}

func (w *walker) importedDocument(doc Document) {
	if w.visited[doc] {
		return
	}
	w.visited[doc] = true
	tree, err := doc.Tree()
	if err != nil {
		w.log.Warn("rfscope: skipping resource", "path", doc.Path(), "error", err)
		return
	}
	w.documentScope(doc.Path(), tree, ProvenanceImport)
}

// variableFiles reports the top-level names of imported Python and YAML
// variable files. A file that fails is logged and skipped.
func (w *walker) variableFiles() error {
	if w.cc.Graph == nil {
		return nil
	}
	for e := range w.cc.Graph.VariableImports() {
		if err := checkCancelled(w.ctx); err != nil {
			return err
		}
		if e.Doc == nil {
			w.unresolved(e)
			continue
		}
		if w.visited[e.Doc] {
			continue
		}
		w.visited[e.Doc] = true
		if err := w.variableFile(e.Doc); err != nil {
			w.log.Warn("rfscope: skipping variable file", "path", e.Doc.Path(), "error", err)
		}
	}
	return nil
}

func (w *walker) variableFile(doc Document) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rfscope: variable file: panic: %v", r)
		}
	}()

	kind, ok := varfile.KindOf(doc.Path())
	if !ok {
		w.log.Debug("rfscope: unsupported variable file", "path", doc.Path())
		return nil
	}
	src, err := doc.Source()
	if err != nil {
		return fmt.Errorf("rfscope: read variable file: %w", err)
	}

	switch kind {
	case varfile.KindPython:
		entries, err := varfile.ScanPython(w.ctx, src)
		if err != nil {
			return err
		}
		for _, e := range entries {
			name := "${" + e.Name + "}"
			if w.c.Accepts(name) {
				w.c.OnVariable(&PythonVariable{
					name:   name,
					value:  e.Value,
					source: doc.Path(),
					rng:    lineRange(e.Line, e.Col, e.EndCol),
				})
			}
		}
	case varfile.KindYAML:
		entries, err := varfile.LoadYAML(src)
		if err != nil {
			return err
		}
		for _, e := range entries {
			name := "${" + e.Name + "}"
			if w.c.Accepts(name) {
				w.c.OnVariable(&YAMLVariable{name: name, value: e.Value, source: doc.Path(), line: e.Line})
			}
		}
	}
	return nil
}

// config reports the project configuration table in key order.
func (w *walker) config() {
	keys := make([]string, 0, len(w.cc.Variables))
	for k := range w.cc.Variables {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		name := asVariable(k)
		if w.c.Accepts(name) {
			w.c.OnVariable(&StaticVariable{name: name, value: w.cc.Variables[k], provenance: ProvenanceConfig})
		}
	}
}

func (w *walker) builtinTable() {
	for _, b := range w.builtins {
		name := asVariable(b.Name)
		if w.c.Accepts(name) {
			w.c.OnVariable(&StaticVariable{name: name, value: b.Value, provenance: ProvenanceBuiltin})
		}
	}
}

// unresolved reports an import whose document is unknown, once per node.
func (w *walker) unresolved(e ImportEdge) {
	if e.Node == nil || w.reported[e.Node] {
		return
	}
	w.reported[e.Node] = true

	source := w.cc.Doc.Path()
	if e.From != nil {
		source = e.From.Path()
	}
	u := UnresolvedImport{Source: source}

	toks := e.Node.Tokens()
	name, ok := importName(toks)
	if !ok {
		if start, end, ok := robot.Span(e.Node); ok {
			u.Range = Range{Start: Position{Line: start - 1}, End: Position{Line: end - 1}}
		}
		u.Message = "Import has no target."
		w.c.OnUnresolvedImport(u)
		return
	}
	u.Name = name.Value
	u.Range = lineRange(name.Line-1, name.Col, name.EndCol())

	dir := filepath.Dir(source)
	lookup := workspace.Lookup(w.cc.Variables)
	target, missing := robot.ReplaceVariables(name.Value, func(v string) (string, bool) {
		return lookup(dir, v)
	})
	if len(missing) == 0 {
		if !filepath.IsAbs(target) {
			target = filepath.Join(dir, target)
		}
		u.Message = fmt.Sprintf("File not found: %s", target)
		w.c.OnUnresolvedImport(u)
		return
	}
	lines := make([]string, len(missing))
	for i, m := range missing {
		lines[i] = fmt.Sprintf("Unable to statically resolve variable: %s. Please set the `%s` value in `robot.variables`.", m.Name, m.Base())
	}
	u.Message = strings.Join(lines, "\n")
	w.c.OnUnresolvedImport(u)
}

// emitToken reports a variable defined by tok and, for list and dict
// variables, the scalar alias the language also accepts.
func (w *walker) emitToken(tok robot.Token, name, value, source string, p Provenance) {
	if name == "" {
		return
	}
	if name[0] == '@' || name[0] == '&' {
		alias := "$" + name[1:]
		if w.c.Accepts(alias) {
			w.c.OnVariable(newTokenVariable(tok, alias, value, source, p))
		}
	}
	if w.c.Accepts(name) {
		w.c.OnVariable(newTokenVariable(tok, name, value, source, p))
	}
}

func importName(toks []robot.Token) (robot.Token, bool) {
	for _, t := range toks {
		if t.Type == robot.Name {
			return t, true
		}
	}
	return robot.Token{}, false
}

// statementText joins the values of a node's own tokens.
func statementText(n robot.Node) string {
	toks := n.Tokens()
	vals := make([]string, len(toks))
	for i, t := range toks {
		vals[i] = t.Value
	}
	return strings.Join(vals, " ")
}

// valuePreview renders the value cells of a Variables section entry: a
// single cell as written, several as a list.
func valuePreview(vals []string) string {
	switch len(vals) {
	case 0:
		return ""
	case 1:
		return vals[0]
	}
	return "[" + strings.Join(vals, ", ") + "]"
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' }
