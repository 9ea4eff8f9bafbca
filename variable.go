package rfscope

import (
	"fmt"

	"github.com/jward/rfscope/internal/robot"
)

// Position is a 0-based line and byte column.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a span between two positions, End exclusive.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func lineRange(line, col, endCol int) Range {
	return Range{Start: Position{line, col}, End: Position{line, endCol}}
}

// Provenance is the source category of a variable.
type Provenance string

const (
	ProvenanceLocal    Provenance = "local"    // enclosing test or keyword
	ProvenanceModule   Provenance = "module"   // the current document
	ProvenanceImport   Provenance = "import"   // an imported resource
	ProvenanceExternal Provenance = "external" // a Python or YAML variable file
	ProvenanceConfig   Provenance = "config"   // project configuration
	ProvenanceBuiltin  Provenance = "builtin"  // language built-ins
)

// VariableFound is a variable visible at the cursor. The set of
// implementations is closed: *TokenVariable, *StaticVariable,
// *YAMLVariable and *PythonVariable.
type VariableFound interface {
	// Name includes sigil and braces, e.g. "${x}".
	Name() string
	// Value is a preview of the value as written in the source.
	Value() string
	// Source is the path of the defining file, empty for synthetic entries.
	Source() string
	Range() Range
	Provenance() Provenance

	isVariableFound()
}

// TokenVariable is defined by a token of a parsed robot document.
type TokenVariable struct {
	name       string
	value      string
	source     string
	token      robot.Token
	provenance Provenance
}

func newTokenVariable(tok robot.Token, name, value, source string, p Provenance) *TokenVariable {
	return &TokenVariable{name: name, value: value, source: source, token: tok, provenance: p}
}

func (v *TokenVariable) Name() string           { return v.name }
func (v *TokenVariable) Value() string          { return v.value }
func (v *TokenVariable) Source() string         { return v.source }
func (v *TokenVariable) Provenance() Provenance { return v.provenance }
func (v *TokenVariable) isVariableFound()       {}

// Token returns the defining token.
func (v *TokenVariable) Token() robot.Token { return v.token }

func (v *TokenVariable) Range() Range {
	return lineRange(v.token.Line-1, v.token.Col, v.token.EndCol())
}

// StaticVariable comes from the project configuration or the built-in
// table. Its position is the origin.
type StaticVariable struct {
	name       string
	value      string
	provenance Provenance
}

func (v *StaticVariable) Name() string           { return v.name }
func (v *StaticVariable) Value() string          { return v.value }
func (v *StaticVariable) Source() string         { return "" }
func (v *StaticVariable) Range() Range           { return Range{} }
func (v *StaticVariable) Provenance() Provenance { return v.provenance }
func (v *StaticVariable) isVariableFound()       {}

// YAMLVariable is a top-level key of a YAML variable file. The line is a
// best-effort position; the column is always 0.
type YAMLVariable struct {
	name   string
	value  string
	source string
	line   int
}

func (v *YAMLVariable) Name() string           { return v.name }
func (v *YAMLVariable) Value() string          { return v.value }
func (v *YAMLVariable) Source() string         { return v.source }
func (v *YAMLVariable) Range() Range           { return lineRange(v.line, 0, 0) }
func (v *YAMLVariable) Provenance() Provenance { return ProvenanceExternal }
func (v *YAMLVariable) isVariableFound()       {}

// PythonVariable is a module-level assignment of a Python variable file.
// Value is the expression's source text; Range covers the target name.
type PythonVariable struct {
	name   string
	value  string
	source string
	rng    Range
}

func (v *PythonVariable) Name() string           { return v.name }
func (v *PythonVariable) Value() string          { return v.value }
func (v *PythonVariable) Source() string         { return v.source }
func (v *PythonVariable) Range() Range           { return v.rng }
func (v *PythonVariable) Provenance() Provenance { return ProvenanceExternal }
func (v *PythonVariable) isVariableFound()       {}

// Describe renders v for logs and text output.
func Describe(v VariableFound) string {
	r := v.Range()
	if v.Source() == "" {
		return fmt.Sprintf("%s = %q (%s)", v.Name(), v.Value(), v.Provenance())
	}
	return fmt.Sprintf("%s = %q (%s %s:%d:%d)", v.Name(), v.Value(), v.Provenance(), v.Source(), r.Start.Line+1, r.Start.Character)
}
