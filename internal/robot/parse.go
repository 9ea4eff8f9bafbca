package robot

import (
	"strings"
)

// cell is one separated value of a physical line.
type cell struct {
	text string
	line int
	col  int
}

func (c cell) token(t TokenType) Token {
	return Token{Type: t, Value: c.text, Line: c.line, Col: c.col}
}

// row is a logical row: a physical line plus its "..." continuations.
type row struct {
	indented bool
	cells    []cell
}

// Parse reads a space separated Robot Framework file. Cells are separated by
// a tab or by two or more spaces; "#" starts a comment; a row whose first
// cell is "..." continues the previous row. Parse is lenient: rows it does
// not understand are kept as plain statements or dropped, never reported.
func Parse(path string, src []byte) *File {
	f := &File{Path: path}
	var cur *sectionReader
	for _, r := range splitRows(string(src)) {
		if !r.indented && strings.HasPrefix(r.cells[0].text, "*") {
			sec := &Section{
				Kind:   sectionKind(r.cells[0].text),
				Header: Statement{Toks: []Token{r.cells[0].token(Header)}},
			}
			f.Sections = append(f.Sections, sec)
			cur = &sectionReader{sec: sec}
			continue
		}
		if cur == nil {
			sec := &Section{Kind: ImplicitSection}
			f.Sections = append(f.Sections, sec)
			cur = &sectionReader{sec: sec}
		}
		cur.read(r)
	}
	return f
}

func splitRows(src string) []row {
	var rows []row
	for i, line := range strings.Split(src, "\n") {
		line = strings.TrimSuffix(line, "\r")
		cells := splitCells(line, i+1)
		if len(cells) == 0 {
			continue
		}
		if cells[0].text == "..." && len(rows) > 0 {
			last := &rows[len(rows)-1]
			last.cells = append(last.cells, cells[1:]...)
			continue
		}
		rows = append(rows, row{
			indented: line[0] == ' ' || line[0] == '\t',
			cells:    cells,
		})
	}
	return rows
}

func splitCells(line string, lineno int) []cell {
	var cells []cell
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= len(line) {
			break
		}
		start := i
		for i < len(line) && !atSeparator(line, i) {
			i++
		}
		text := line[start:i]
		if strings.HasPrefix(text, "#") {
			break
		}
		cells = append(cells, cell{text: text, line: lineno, col: start})
	}
	return cells
}

// atSeparator reports whether a cell ends at i: a tab, two spaces, or a
// trailing space.
func atSeparator(line string, i int) bool {
	switch line[i] {
	case '\t':
		return true
	case ' ':
		return i+1 == len(line) || line[i+1] == ' ' || line[i+1] == '\t'
	}
	return false
}

func sectionKind(header string) SectionKind {
	name := strings.ToLower(strings.TrimSpace(strings.Trim(header, "* ")))
	name = strings.TrimSuffix(name, "s")
	switch name {
	case "setting":
		return SettingsSection
	case "variable":
		return VariablesSection
	case "test case":
		return TestCasesSection
	case "task":
		return TasksSection
	case "keyword":
		return KeywordsSection
	}
	return CommentsSection
}

type container interface {
	Node
	add(Node)
}

type sectionReader struct {
	sec *Section
	// stack of open containers inside the current test or keyword
	stack []container
}

func (s *sectionReader) read(r row) {
	switch s.sec.Kind {
	case SettingsSection:
		s.sec.Body = append(s.sec.Body, settingRow(r.cells))
	case VariablesSection:
		toks := []Token{r.cells[0].token(Variable)}
		for _, c := range r.cells[1:] {
			toks = append(toks, c.token(Argument))
		}
		s.sec.Body = append(s.sec.Body, &VariableEntry{Statement{Toks: toks}})
	case TestCasesSection, TasksSection, KeywordsSection:
		s.readBody(r)
	}
}

func settingRow(cells []cell) Node {
	stmt := Statement{}
	kind := Normalize(cells[0].text)
	var t TokenType
	switch kind {
	case "resource":
		t = Resource
	case "library":
		t = Library
	case "variables":
		t = Variables
	default:
		t = Setting
	}
	stmt.Toks = append(stmt.Toks, cells[0].token(t))
	for i, c := range cells[1:] {
		if i == 0 && t != Setting {
			stmt.Toks = append(stmt.Toks, c.token(Name))
			continue
		}
		stmt.Toks = append(stmt.Toks, c.token(Argument))
	}
	switch t {
	case Resource:
		return &ResourceImport{stmt}
	case Library:
		return &LibraryImport{stmt}
	case Variables:
		return &VariablesImport{stmt}
	}
	return &stmt
}

func (s *sectionReader) readBody(r row) {
	if !r.indented {
		var owner container
		if s.sec.Kind == KeywordsSection {
			owner = &Keyword{Header: Statement{Toks: []Token{r.cells[0].token(KeywordName)}}}
		} else {
			owner = &TestCase{Header: Statement{Toks: []Token{r.cells[0].token(TestCaseName)}}}
		}
		s.sec.Body = append(s.sec.Body, owner)
		s.stack = []container{owner}
		if len(r.cells) > 1 {
			s.bodyRow(r.cells[1:])
		}
		return
	}
	if len(s.stack) == 0 {
		return
	}
	s.bodyRow(r.cells)
}

func (s *sectionReader) top() container { return s.stack[len(s.stack)-1] }

func (s *sectionReader) push(c container) {
	s.top().add(c)
	s.stack = append(s.stack, c)
}

func (s *sectionReader) bodyRow(cells []cell) {
	switch first := cells[0].text; {
	case first == "FOR":
		s.push(&For{block{Header: forHeader(cells)}})
	case first == "WHILE":
		s.push(&While{block{Header: headerRow(WhileHeader, cells)}})
	case first == "IF" && len(cells) > 2:
		s.top().add(inlineIf(cells))
	case first == "IF":
		n := &If{}
		n.addBranch(&Branch{Header: headerRow(IfHeader, cells)})
		s.push(n)
	case first == "TRY":
		n := &Try{}
		n.addBranch(&Branch{Header: headerRow(TryHeader, cells)})
		s.push(n)
	case first == "ELSE IF" || first == "ELSE" || first == "EXCEPT" || first == "FINALLY":
		b, ok := s.top().(interface{ addBranch(*Branch) })
		if !ok {
			s.top().add(&Statement{Toks: tokens(Argument, cells)})
			return
		}
		var hdr Statement
		switch first {
		case "EXCEPT":
			hdr = exceptHeader(cells)
		case "ELSE IF":
			hdr = headerRow(ElseIfHeader, cells)
		case "ELSE":
			hdr = headerRow(ElseHeader, cells)
		default:
			hdr = headerRow(FinallyHeader, cells)
		}
		b.addBranch(&Branch{Header: hdr})
	case first == "END":
		end := &Statement{Toks: []Token{cells[0].token(End)}}
		if e, ok := s.top().(interface{ setEnd(*Statement) }); ok && len(s.stack) > 1 {
			e.setEnd(end)
			s.stack = s.stack[:len(s.stack)-1]
			return
		}
		s.top().add(end)
	case first == "VAR":
		s.top().add(varRow(cells))
	case first == "RETURN" || first == "BREAK" || first == "CONTINUE":
		s.top().add(&Statement{Toks: headerRow(Control, cells).Toks})
	case strings.HasPrefix(first, "[") && strings.HasSuffix(first, "]"):
		stmt := headerRow(Setting, cells)
		if Normalize(first) == "[arguments]" {
			s.top().add(&Arguments{stmt})
			return
		}
		s.top().add(&stmt)
	default:
		s.top().add(keywordCall(cells))
	}
}

// headerRow types the first cell as t and the rest as arguments.
func headerRow(t TokenType, cells []cell) Statement {
	toks := []Token{cells[0].token(t)}
	for _, c := range cells[1:] {
		toks = append(toks, c.token(Argument))
	}
	return Statement{Toks: toks}
}

func tokens(t TokenType, cells []cell) []Token {
	toks := make([]Token, len(cells))
	for i, c := range cells {
		toks[i] = c.token(t)
	}
	return toks
}

// forHeader types "FOR ${a} ${b} IN RANGE 10".
func forHeader(cells []cell) Statement {
	toks := []Token{cells[0].token(ForHeader)}
	seenSep := false
	for _, c := range cells[1:] {
		switch {
		case !seenSep && strings.HasPrefix(c.text, "IN"):
			seenSep = true
			toks = append(toks, c.token(ForSeparator))
		case !seenSep:
			toks = append(toks, c.token(Variable))
		default:
			toks = append(toks, c.token(Argument))
		}
	}
	return Statement{Toks: toks}
}

// exceptHeader types "EXCEPT pattern AS ${err}".
func exceptHeader(cells []cell) Statement {
	toks := []Token{cells[0].token(ExceptHeader)}
	afterAs := false
	for _, c := range cells[1:] {
		switch {
		case c.text == "AS":
			afterAs = true
			toks = append(toks, c.token(As))
		case afterAs:
			toks = append(toks, c.token(Variable))
		default:
			toks = append(toks, c.token(Argument))
		}
	}
	return Statement{Toks: toks}
}

// varRow types "VAR ${name} value ... scope=SUITE".
func varRow(cells []cell) *Var {
	toks := []Token{cells[0].token(VarHeader)}
	for i, c := range cells[1:] {
		switch {
		case i == 0:
			toks = append(toks, c.token(Variable))
		case strings.HasPrefix(c.text, "scope=") || strings.HasPrefix(c.text, "separator="):
			toks = append(toks, c.token(Option))
		default:
			toks = append(toks, c.token(Argument))
		}
	}
	return &Var{Statement{Toks: toks}}
}

func keywordCall(cells []cell) *KeywordCall {
	var toks []Token
	i := 0
	for ; i < len(cells) && isAssign(cells[i].text); i++ {
		toks = append(toks, cells[i].token(Assign))
	}
	if i < len(cells) {
		toks = append(toks, cells[i].token(KeywordToken))
		for _, c := range cells[i+1:] {
			toks = append(toks, c.token(Argument))
		}
	}
	return &KeywordCall{Statement{Toks: toks}}
}

// inlineIf reads "IF cond Keyword args ELSE IF cond Keyword ELSE Keyword".
func inlineIf(cells []cell) *If {
	n := &If{}
	hdr := IfHeader
	for len(cells) > 0 {
		marker := cells[0]
		cells = cells[1:]
		toks := []Token{marker.token(hdr)}
		if hdr != ElseHeader && len(cells) > 0 {
			toks = append(toks, cells[0].token(Argument))
			cells = cells[1:]
		}
		br := &Branch{Header: Statement{Toks: toks}}
		n.addBranch(br)

		j := 0
		for j < len(cells) && cells[j].text != "ELSE IF" && cells[j].text != "ELSE" {
			j++
		}
		if j > 0 {
			br.Body = append(br.Body, keywordCall(cells[:j]))
		}
		cells = cells[j:]
		if len(cells) > 0 {
			if cells[0].text == "ELSE IF" {
				hdr = ElseIfHeader
			} else {
				hdr = ElseHeader
			}
		}
	}
	return n
}

// isAssign reports whether s is a "${x}", "@{x} =" style assignment target.
func isAssign(s string) bool {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "="))
	if len(s) < 3 || !strings.HasSuffix(s, "}") {
		return false
	}
	return (s[0] == '$' || s[0] == '@' || s[0] == '&') && s[1] == '{'
}
