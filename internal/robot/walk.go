package robot

import (
	"iter"
	"regexp"
	"strings"
)

// AssignInfo pairs a variable-binding token with the statement or block
// that binds it.
type AssignInfo struct {
	Node  Node
	Token Token
}

// withSelf yields n itself before its descendants.
func withSelf(n Node) iter.Seq[Node] {
	return func(yield func(Node) bool) {
		if !yield(n) {
			return
		}
		for child := range Walk(n) {
			if !yield(child) {
				return
			}
		}
	}
}

// VariableAssigns yields "${x} =  Keyword" targets and VAR declarations at
// or below n. Assignment tokens have their trailing "=" removed.
func VariableAssigns(n Node) iter.Seq[AssignInfo] {
	return func(yield func(AssignInfo) bool) {
		for node := range withSelf(n) {
			switch v := node.(type) {
			case *KeywordCall:
				for _, tok := range v.All(Assign) {
					tok.Value = assignName(tok.Value)
					if !yield(AssignInfo{Node: v, Token: tok}) {
						return
					}
				}
			case *Var:
				if tok, ok := v.Get(Variable); ok {
					tok.Value = assignName(tok.Value)
					if !yield(AssignInfo{Node: v, Token: tok}) {
						return
					}
				}
			}
		}
	}
}

// ForAssigns yields FOR loop variables at or below n.
func ForAssigns(n Node) iter.Seq[AssignInfo] {
	return func(yield func(AssignInfo) bool) {
		for node := range withSelf(n) {
			f, ok := node.(*For)
			if !ok {
				continue
			}
			for _, tok := range f.Variables() {
				if !yield(AssignInfo{Node: f, Token: tok}) {
					return
				}
			}
		}
	}
}

// ExceptAssigns yields "EXCEPT ... AS ${err}" variables at or below n.
func ExceptAssigns(n Node) iter.Seq[AssignInfo] {
	return func(yield func(AssignInfo) bool) {
		for node := range withSelf(n) {
			b, ok := node.(*Branch)
			if !ok {
				continue
			}
			if tok, ok := b.AsVariable(); ok {
				if !yield(AssignInfo{Node: b, Token: tok}) {
					return
				}
			}
		}
	}
}

// embeddedPattern matches the ":regexp" suffix of an embedded argument.
var embeddedPattern = regexp.MustCompile(`^([$@&]\{[^:}]+):.*\}$`)

// KeywordArguments returns the arguments a user keyword declares: embedded
// "${x}" references in its name and the [Arguments] setting. Defaults and
// embedded patterns are stripped. Nodes other than *Keyword have none.
func KeywordArguments(n Node) []Token {
	kw, ok := n.(*Keyword)
	if !ok {
		return nil
	}
	var out []Token
	if name, ok := kw.Name(); ok {
		for _, m := range FindVariables(name.Value) {
			value := m.Name
			if sub := embeddedPattern.FindStringSubmatch(value); sub != nil {
				value = sub[1] + "}"
			}
			out = append(out, Token{Type: Argument, Value: value, Line: name.Line, Col: name.Col + m.Start})
		}
	}
	for _, child := range kw.Body {
		args, ok := child.(*Arguments)
		if !ok {
			continue
		}
		for _, tok := range args.All(Argument) {
			if i := strings.Index(tok.Value, "}"); i > 0 {
				tok.Value = tok.Value[:i+1]
			}
			out = append(out, tok)
		}
	}
	return out
}

// KeywordUsage is one keyword invocation. For "Run Keyword" style wrappers
// the wrapped keyword is reported as a usage of its own, with Node still
// pointing at the wrapping call.
type KeywordUsage struct {
	Node *KeywordCall
	Name Token
	Args []Token
}

// runKeywordArgs maps normalized "Run Keyword" variants to the number of
// arguments that precede the wrapped keyword name.
var runKeywordArgs = map[string]int{
	"runkeyword":                     0,
	"runkeywordandcontinueonfailure": 0,
	"runkeywordandignoreerror":       0,
	"runkeywordandreturn":            0,
	"runkeywordandreturnstatus":      0,
	"runkeywordandwarnonfailure":     0,
	"runkeywordiftestfailed":         0,
	"runkeywordiftestpassed":         0,
	"runkeywordiftimeoutoccurred":    0,
	"runkeywordifalltestspassed":     0,
	"runkeywordifanytestsfailed":     0,
	"runkeywordandexpecterror":       1,
	"runkeywordandreturnif":          1,
	"runkeywordunless":               1,
	"repeatkeyword":                  1,
	"waituntilkeywordsucceeds":       2,
	"runkeywordif":                   1,
	"runkeywords":                    0,
}

// KeywordUsages yields every keyword call at or below n, unwrapping the
// "Run Keyword" family.
func KeywordUsages(n Node) iter.Seq[KeywordUsage] {
	return func(yield func(KeywordUsage) bool) {
		for node := range withSelf(n) {
			call, ok := node.(*KeywordCall)
			if !ok {
				continue
			}
			name, ok := call.Keyword()
			if !ok {
				continue
			}
			if !yieldUsage(yield, KeywordUsage{Node: call, Name: name, Args: call.Args()}) {
				return
			}
		}
	}
}

func yieldUsage(yield func(KeywordUsage) bool, u KeywordUsage) bool {
	if !yield(u) {
		return false
	}
	for _, inner := range unwrap(u) {
		if !yieldUsage(yield, inner) {
			return false
		}
	}
	return true
}

func unwrap(u KeywordUsage) []KeywordUsage {
	name := Normalize(u.Name.Value)
	name = strings.TrimPrefix(name, "builtin.")
	skip, ok := runKeywordArgs[name]
	if !ok || len(u.Args) <= skip {
		return nil
	}
	switch name {
	case "runkeywords":
		return runKeywords(u)
	case "runkeywordif":
		return runKeywordIf(u)
	}
	return []KeywordUsage{{Node: u.Node, Name: u.Args[skip], Args: u.Args[skip+1:]}}
}

// runKeywords handles "Run Keywords  A  arg  AND  B". Without AND every
// argument is a keyword of its own.
func runKeywords(u KeywordUsage) []KeywordUsage {
	hasAnd := false
	for _, a := range u.Args {
		if a.Value == "AND" {
			hasAnd = true
			break
		}
	}
	var out []KeywordUsage
	if !hasAnd {
		for _, a := range u.Args {
			out = append(out, KeywordUsage{Node: u.Node, Name: a})
		}
		return out
	}
	start := 0
	for i := 0; i <= len(u.Args); i++ {
		if i < len(u.Args) && u.Args[i].Value != "AND" {
			continue
		}
		if i > start {
			out = append(out, KeywordUsage{Node: u.Node, Name: u.Args[start], Args: u.Args[start+1 : i]})
		}
		start = i + 1
	}
	return out
}

// runKeywordIf handles "Run Keyword If  cond  A  ELSE IF  cond  B  ELSE  C".
func runKeywordIf(u KeywordUsage) []KeywordUsage {
	var out []KeywordUsage
	args := u.Args[1:]
	for len(args) > 0 {
		j := 0
		for j < len(args) && args[j].Value != "ELSE IF" && args[j].Value != "ELSE" {
			j++
		}
		if j > 0 {
			out = append(out, KeywordUsage{Node: u.Node, Name: args[0], Args: args[1:j]})
		}
		if j >= len(args) {
			break
		}
		if args[j].Value == "ELSE IF" {
			j++ // condition
		}
		if j+1 > len(args) {
			break
		}
		args = args[j+1:]
	}
	return out
}

// StackAt returns the ancestors enclosing the 1-based line, outermost
// first: the section, then the test or keyword, then any open blocks. A
// test or keyword extends until the next one starts. Empty when the line
// precedes every section.
func StackAt(f *File, line int) []Node {
	var stack []Node
	var children []Node
	for _, sec := range f.Sections {
		if s, _, ok := Span(sec); ok && s <= line {
			stack = []Node{sec}
			children = sec.Body
		}
	}
	if len(stack) == 0 {
		return nil
	}

	var owner Node
	for _, child := range children {
		switch child.(type) {
		case *TestCase, *Keyword:
			if s, _, ok := Span(child); ok && s <= line {
				owner = child
			}
		}
	}
	if owner == nil {
		return stack
	}
	stack = append(stack, owner)

	for cur := owner; ; {
		next := enclosingBlock(cur.Children(), line)
		if next == nil {
			return stack
		}
		stack = append(stack, next)
		cur = next
	}
}

func enclosingBlock(children []Node, line int) Node {
	for _, child := range children {
		switch child.(type) {
		case *For, *While, *If, *Try, *Branch:
		default:
			continue
		}
		if s, e, ok := Span(child); ok && s <= line && line <= e {
			return child
		}
	}
	return nil
}

// VariableAt finds the variable reference under the cursor. line is 1-based
// and col a 0-based byte offset. The returned token spans from the sigil to
// the closing brace, or to the cursor when the reference is still open.
// The stack is StackAt for the line.
func VariableAt(f *File, line, col int) (Token, []Node, bool) {
	for node := range Walk(f) {
		if len(node.Children()) > 0 && !isBlockHeader(node) {
			continue
		}
		for _, tok := range node.Tokens() {
			if tok.Type == Comment || tok.Type == Header || !tok.Contains(line, col) {
				continue
			}
			if v, ok := variableIn(tok, col-tok.Col); ok {
				return v, StackAt(f, line), true
			}
		}
	}
	return Token{}, nil, false
}

// isBlockHeader reports nodes whose own tokens hold user text.
func isBlockHeader(n Node) bool {
	switch n.(type) {
	case *For, *While, *Branch, *TestCase, *Keyword:
		return true
	}
	return false
}

// variableIn returns the innermost variable of tok that the byte offset
// falls in.
func variableIn(tok Token, offset int) (Token, bool) {
	s := tok.Value
	for i := min(offset, len(s)) - 1; i >= 0; i-- {
		if i+1 >= len(s) || !isSigil(s[i]) || s[i+1] != '{' {
			continue
		}
		end := closingBrace(s, i+1)
		var value string
		switch {
		case end == -1:
			value = s[i:offset]
		case offset <= end:
			value = s[i : end+1]
		default:
			continue
		}
		return Token{Type: Variable, Value: value, Line: tok.Line, Col: tok.Col + i}, true
	}
	return Token{}, false
}
