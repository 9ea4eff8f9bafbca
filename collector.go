package rfscope

// UnresolvedImport reports an import whose target document could not be
// determined statically.
type UnresolvedImport struct {
	// Source is the importing document's path.
	Source string `json:"source"`
	// Name is the import target as written, e.g. "${ENV}/vars.yaml".
	Name    string `json:"name"`
	Range   Range  `json:"range"`
	Message string `json:"message"`
}

// Collector receives the variables a resolution call finds. Accepts is
// asked before a variable is built; OnVariable is only called for accepted
// names. Unresolved imports are always reported.
type Collector interface {
	Accepts(name string) bool
	OnVariable(v VariableFound)
	OnUnresolvedImport(u UnresolvedImport)
}

// Results is a Collector that keeps everything in order.
type Results struct {
	Matcher    Matcher
	Variables  []VariableFound
	Unresolved []UnresolvedImport
}

// NewResults returns a Results filtering with m; nil accepts everything.
func NewResults(m Matcher) *Results {
	if m == nil {
		m = AcceptAll
	}
	return &Results{Matcher: m}
}

func (r *Results) Accepts(name string) bool              { return r.Matcher.Accepts(name) }
func (r *Results) OnVariable(v VariableFound)            { r.Variables = append(r.Variables, v) }
func (r *Results) OnUnresolvedImport(u UnresolvedImport) { r.Unresolved = append(r.Unresolved, u) }
