// Package robot holds the parse-tree model of a Robot Framework file that the
// variable resolver walks, plus a minimal reader that builds it from the
// space separated file format.
package robot

import "fmt"

// TokenType classifies a token.
type TokenType string

const (
	Header        TokenType = "HEADER"
	Name          TokenType = "NAME"
	TestCaseName  TokenType = "TESTCASE NAME"
	KeywordName   TokenType = "KEYWORD NAME"
	Setting       TokenType = "SETTING"
	Variable      TokenType = "VARIABLE"
	Argument      TokenType = "ARGUMENT"
	Assign        TokenType = "ASSIGN"
	KeywordToken  TokenType = "KEYWORD"
	Option        TokenType = "OPTION"
	ForHeader     TokenType = "FOR"
	ForSeparator  TokenType = "FOR SEPARATOR"
	WhileHeader   TokenType = "WHILE"
	IfHeader      TokenType = "IF"
	ElseIfHeader  TokenType = "ELSE IF"
	ElseHeader    TokenType = "ELSE"
	TryHeader     TokenType = "TRY"
	ExceptHeader  TokenType = "EXCEPT"
	FinallyHeader TokenType = "FINALLY"
	As            TokenType = "AS"
	End           TokenType = "END"
	VarHeader     TokenType = "VAR"
	Control       TokenType = "CONTROL" // RETURN, BREAK, CONTINUE
	Resource      TokenType = "RESOURCE"
	Library       TokenType = "LIBRARY"
	Variables     TokenType = "VARIABLES"
	Comment       TokenType = "COMMENT"
)

// Token is one cell of a statement. Line is 1-based, Col is a 0-based byte
// offset into the line.
type Token struct {
	Type  TokenType
	Value string
	Line  int
	Col   int
}

// EndCol is the byte offset just past the token.
func (t Token) EndCol() int { return t.Col + len(t.Value) }

// Contains reports whether the 1-based line and 0-based col fall on the
// token, counting the position just past its last byte.
func (t Token) Contains(line, col int) bool {
	return t.Line == line && col >= t.Col && col <= t.EndCol()
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q @%d:%d)", t.Type, t.Value, t.Line, t.Col)
}
