package robot

import "strings"

// Normalize lower-cases name and drops spaces and underscores, the way
// keyword and variable names are compared.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if r == ' ' || r == '_' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// VarMatch locates a variable inside a string. Start and End are byte
// offsets, End exclusive.
type VarMatch struct {
	Start int
	End   int
	Name  string // including sigil and braces, e.g. "${x}"
}

// Base returns the variable's inner text.
func (m VarMatch) Base() string { return VariableBase(m.Name) }

func isSigil(b byte) bool { return b == '$' || b == '@' || b == '&' || b == '%' }

// FindVariables returns the outermost closed variables in s, in order.
// Nested references such as "${a${b}}" are returned as one match and
// backslash-escaped sigils are skipped.
func FindVariables(s string) []VarMatch {
	var out []VarMatch
	for i := 0; i+1 < len(s); i++ {
		if !isSigil(s[i]) || s[i+1] != '{' || escaped(s, i) {
			continue
		}
		end := closingBrace(s, i+1)
		if end == -1 {
			continue
		}
		out = append(out, VarMatch{Start: i, End: end + 1, Name: s[i : end+1]})
		i = end
	}
	return out
}

// closingBrace returns the index of the brace closing the one at open, or -1.
func closingBrace(s string, open int) int {
	depth := 0
	for j := open; j < len(s); j++ {
		switch s[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func escaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// VariableBase strips the sigil and braces: "${x}" and "${x" both give "x".
// Strings that are not variables are returned unchanged.
func VariableBase(name string) string {
	if len(name) < 2 || !isSigil(name[0]) || name[1] != '{' {
		return name
	}
	return strings.TrimSuffix(name[2:], "}")
}

// ReplaceVariables substitutes every variable in s found by lookup. The
// unresolved variables are returned with offsets into the original s.
func ReplaceVariables(s string, lookup func(name string) (string, bool)) (string, []VarMatch) {
	var (
		b          strings.Builder
		unresolved []VarMatch
		last       int
	)
	for _, m := range FindVariables(s) {
		b.WriteString(s[last:m.Start])
		if v, ok := lookup(m.Name); ok {
			b.WriteString(v)
		} else {
			b.WriteString(m.Name)
			unresolved = append(unresolved, m)
		}
		last = m.End
	}
	b.WriteString(s[last:])
	return b.String(), unresolved
}

// assignName trims the trailing "=" (and spaces) of an assignment target.
func assignName(s string) string {
	if i := strings.LastIndex(s, "}"); i > 0 {
		return s[:i+1]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "="))
}
