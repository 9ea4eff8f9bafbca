package robot

import "iter"

// Node is an element of the parse tree. Tokens returns the tokens owned
// directly by the node (for blocks: the header and END rows), Children the
// nested nodes in source order.
type Node interface {
	Tokens() []Token
	Children() []Node
}

// Statement is a single logical row.
type Statement struct {
	Toks []Token
}

func (s *Statement) Tokens() []Token  { return s.Toks }
func (s *Statement) Children() []Node { return nil }

// Get returns the first token of type t.
func (s *Statement) Get(t TokenType) (Token, bool) {
	for _, tok := range s.Toks {
		if tok.Type == t {
			return tok, true
		}
	}
	return Token{}, false
}

// All returns every token of type t, in order.
func (s *Statement) All(t TokenType) []Token {
	var out []Token
	for _, tok := range s.Toks {
		if tok.Type == t {
			out = append(out, tok)
		}
	}
	return out
}

// Values returns the values of every token of type t.
func (s *Statement) Values(t TokenType) []string {
	var out []string
	for _, tok := range s.Toks {
		if tok.Type == t {
			out = append(out, tok.Value)
		}
	}
	return out
}

// KeywordCall is a keyword invocation, optionally assigning its result.
type KeywordCall struct{ Statement }

// Keyword returns the invoked keyword's name token.
func (k *KeywordCall) Keyword() (Token, bool) { return k.Get(KeywordToken) }

// Args returns the argument tokens.
func (k *KeywordCall) Args() []Token { return k.All(Argument) }

// Var is an inline VAR statement.
type Var struct{ Statement }

// VariableEntry is an entry of a Variables section.
type VariableEntry struct{ Statement }

// Arguments is the [Arguments] setting of a user keyword.
type Arguments struct{ Statement }

// ResourceImport, LibraryImport and VariablesImport are Settings section
// imports. Their NAME token is the (possibly variable-bearing) target.
type (
	ResourceImport  struct{ Statement }
	LibraryImport   struct{ Statement }
	VariablesImport struct{ Statement }
)

// File is the root of a parsed document.
type File struct {
	Path     string
	Sections []*Section
}

func (f *File) Tokens() []Token { return nil }
func (f *File) Children() []Node {
	out := make([]Node, len(f.Sections))
	for i, s := range f.Sections {
		out[i] = s
	}
	return out
}

// SectionKind names a section by its normalized header.
type SectionKind string

const (
	SettingsSection  SectionKind = "settings"
	VariablesSection SectionKind = "variables"
	TestCasesSection SectionKind = "test cases"
	TasksSection     SectionKind = "tasks"
	KeywordsSection  SectionKind = "keywords"
	CommentsSection  SectionKind = "comments"
	// ImplicitSection holds rows that precede the first header.
	ImplicitSection SectionKind = "implicit"
)

type Section struct {
	Kind   SectionKind
	Header Statement
	Body   []Node
}

func (s *Section) Tokens() []Token  { return s.Header.Toks }
func (s *Section) Children() []Node { return s.Body }

// TestCase is a test or task.
type TestCase struct {
	Header Statement
	Body   []Node
}

func (t *TestCase) Tokens() []Token  { return t.Header.Toks }
func (t *TestCase) Children() []Node { return t.Body }
func (t *TestCase) add(n Node)       { t.Body = append(t.Body, n) }

// Name returns the test name.
func (t *TestCase) Name() string {
	tok, _ := t.Header.Get(TestCaseName)
	return tok.Value
}

// Keyword is a user keyword definition.
type Keyword struct {
	Header Statement
	Body   []Node
}

func (k *Keyword) Tokens() []Token  { return k.Header.Toks }
func (k *Keyword) Children() []Node { return k.Body }
func (k *Keyword) add(n Node)       { k.Body = append(k.Body, n) }

// Name returns the keyword name token.
func (k *Keyword) Name() (Token, bool) { return k.Header.Get(KeywordName) }

// block is shared by FOR and WHILE loops.
type block struct {
	Header Statement
	Body   []Node
	End    *Statement
}

func (b *block) Tokens() []Token {
	if b.End == nil {
		return b.Header.Toks
	}
	return append(append([]Token(nil), b.Header.Toks...), b.End.Toks...)
}

func (b *block) Children() []Node { return b.Body }

func (b *block) add(n Node)          { b.Body = append(b.Body, n) }
func (b *block) setEnd(s *Statement) { b.End = s }

type For struct{ block }

// Variables returns the loop variables declared in the header.
func (f *For) Variables() []Token { return f.Header.All(Variable) }

type While struct{ block }

// Branch is one arm of an IF or TRY block.
type Branch struct {
	Header Statement
	Body   []Node
}

func (b *Branch) Tokens() []Token  { return b.Header.Toks }
func (b *Branch) Children() []Node { return b.Body }

// Kind is the branch marker (IF, ELSE IF, ELSE, TRY, EXCEPT, FINALLY).
func (b *Branch) Kind() TokenType {
	if len(b.Header.Toks) == 0 {
		return ""
	}
	return b.Header.Toks[0].Type
}

// AsVariable returns the variable bound by "EXCEPT ... AS ${err}".
func (b *Branch) AsVariable() (Token, bool) {
	if b.Kind() != ExceptHeader {
		return Token{}, false
	}
	return b.Header.Get(Variable)
}

// branched is shared by IF and TRY blocks.
type branched struct {
	Branches []*Branch
	End      *Statement
}

func (b *branched) Tokens() []Token {
	if b.End == nil {
		return nil
	}
	return b.End.Toks
}

func (b *branched) Children() []Node {
	out := make([]Node, len(b.Branches))
	for i, br := range b.Branches {
		out[i] = br
	}
	return out
}

func (b *branched) add(n Node) {
	last := b.Branches[len(b.Branches)-1]
	last.Body = append(last.Body, n)
}

func (b *branched) addBranch(br *Branch) { b.Branches = append(b.Branches, br) }
func (b *branched) setEnd(s *Statement)  { b.End = s }

type If struct{ branched }

type Try struct{ branched }

// Walk yields every node below n in depth-first pre-order, paired with its
// ancestors (outermost first, starting at n). The stack slice is reused
// between iterations; copy it to retain it.
func Walk(n Node) iter.Seq2[Node, []Node] {
	return func(yield func(Node, []Node) bool) {
		var stack []Node
		var visit func(Node) bool
		visit = func(cur Node) bool {
			stack = append(stack, cur)
			defer func() { stack = stack[:len(stack)-1] }()
			for _, child := range cur.Children() {
				if !yield(child, stack) {
					return false
				}
				if !visit(child) {
					return false
				}
			}
			return true
		}
		visit(n)
	}
}

// Span returns the first and last line covered by n and its descendants;
// ok is false for a node without tokens.
func Span(n Node) (start, end int, ok bool) {
	for _, tok := range n.Tokens() {
		start, end, ok = widen(start, end, ok, tok.Line)
	}
	for _, child := range n.Children() {
		if s, e, cok := Span(child); cok {
			start, end, ok = widen(start, end, ok, s)
			start, end, ok = widen(start, end, ok, e)
		}
	}
	return start, end, ok
}

func widen(start, end int, ok bool, line int) (int, int, bool) {
	if !ok {
		return line, line, true
	}
	return min(start, line), max(end, line), true
}
