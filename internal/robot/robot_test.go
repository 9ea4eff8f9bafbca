package robot

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const suiteSrc = `*** Settings ***
Resource    common.resource
Variables    vars.py    arg1

*** Variables ***
${GREETING}    Hello
@{LIST}    a    b
...    c

*** Test Cases ***
First Test
    ${result} =    Get Value    ${GREETING}
    FOR    ${item}    IN    @{LIST}
        Log    ${item}
    END
    TRY
        Fail    boom
    EXCEPT    boom    AS    ${err}
        Log    ${err}
    END
    Set Suite Variable    ${SUITE_VAR}    value
    Run Keyword    Set Test Variable    ${WRAPPED}    inner

*** Keywords ***
Open ${page} Page
    [Arguments]    ${timeout}=10    @{rest}
    VAR    ${local}    x    scope=TEST
    Log    ${timeout}    # trailing comment
`

func parseSuite(t *testing.T) *File {
	t.Helper()
	f := Parse("/ws/suite.robot", []byte(suiteSrc))
	require.Len(t, f.Sections, 4)
	return f
}

func values(toks []Token) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = tok.Value
	}
	return out
}

func TestParse_Sections(t *testing.T) {
	t.Parallel()
	f := parseSuite(t)

	var kinds []SectionKind
	for _, s := range f.Sections {
		kinds = append(kinds, s.Kind)
	}
	assert.Equal(t, []SectionKind{SettingsSection, VariablesSection, TestCasesSection, KeywordsSection}, kinds)

	settings := f.Sections[0].Body
	require.Len(t, settings, 2)
	res, ok := settings[0].(*ResourceImport)
	require.True(t, ok, "got %T", settings[0])
	name, ok := res.Get(Name)
	require.True(t, ok)
	assert.Equal(t, Token{Type: Name, Value: "common.resource", Line: 2, Col: 12}, name)

	vars, ok := settings[1].(*VariablesImport)
	require.True(t, ok, "got %T", settings[1])
	assert.Equal(t, []string{"arg1"}, vars.Values(Argument))
}

func TestParse_VariablesWithContinuation(t *testing.T) {
	t.Parallel()
	f := parseSuite(t)

	body := f.Sections[1].Body
	require.Len(t, body, 2)
	list := body[1].(*VariableEntry)
	tok, _ := list.Get(Variable)
	assert.Equal(t, "@{LIST}", tok.Value)
	assert.Equal(t, []string{"a", "b", "c"}, list.Values(Argument))
}

func TestParse_TestBody(t *testing.T) {
	t.Parallel()
	f := parseSuite(t)

	require.Len(t, f.Sections[2].Body, 1)
	tc := f.Sections[2].Body[0].(*TestCase)
	assert.Equal(t, "First Test", tc.Name())

	var types []string
	for _, n := range tc.Body {
		switch n.(type) {
		case *KeywordCall:
			types = append(types, "call")
		case *For:
			types = append(types, "for")
		case *Try:
			types = append(types, "try")
		default:
			types = append(types, "other")
		}
	}
	assert.Equal(t, []string{"call", "for", "try", "call", "call"}, types)

	call := tc.Body[0].(*KeywordCall)
	kw, ok := call.Keyword()
	require.True(t, ok)
	assert.Equal(t, Token{Type: KeywordToken, Value: "Get Value", Line: 12, Col: 19}, kw)
	assert.Equal(t, []string{"${result} ="}, call.Values(Assign))

	try := tc.Body[2].(*Try)
	require.Len(t, try.Branches, 2)
	assert.Equal(t, TryHeader, try.Branches[0].Kind())
	assert.Equal(t, ExceptHeader, try.Branches[1].Kind())
	require.NotNil(t, try.End)
	assert.Equal(t, 20, try.End.Toks[0].Line)
}

func TestParse_InlineIfAndComments(t *testing.T) {
	t.Parallel()
	src := "# leading comment\n*** Test Cases ***\nT\n    IF    $x    Log    a    ELSE IF    $y    Log    b    ELSE    Log    c\n"
	f := Parse("t.robot", []byte(src))
	require.Len(t, f.Sections, 1, "comment-only lines never open a section")

	tc := f.Sections[0].Body[0].(*TestCase)
	require.Len(t, tc.Body, 1)
	n := tc.Body[0].(*If)
	require.Len(t, n.Branches, 3)
	var kinds []TokenType
	for _, b := range n.Branches {
		kinds = append(kinds, b.Kind())
		require.Len(t, b.Body, 1)
	}
	assert.Equal(t, []TokenType{IfHeader, ElseIfHeader, ElseHeader}, kinds)
}

func TestAssignWalkers(t *testing.T) {
	t.Parallel()
	f := parseSuite(t)
	tc := f.Sections[2].Body[0]
	kw := f.Sections[3].Body[0]

	var got []string
	for a := range VariableAssigns(tc) {
		got = append(got, a.Token.Value)
	}
	assert.Equal(t, []string{"${result}"}, got)

	got = got[:0]
	for a := range ForAssigns(tc) {
		got = append(got, a.Token.Value)
	}
	assert.Equal(t, []string{"${item}"}, got)

	got = got[:0]
	for a := range ExceptAssigns(tc) {
		got = append(got, a.Token.Value)
	}
	assert.Equal(t, []string{"${err}"}, got)

	got = got[:0]
	for a := range VariableAssigns(kw) {
		got = append(got, a.Token.Value)
	}
	assert.Equal(t, []string{"${local}"}, got, "VAR declarations are assignments")
}

func TestKeywordArguments(t *testing.T) {
	t.Parallel()
	f := parseSuite(t)

	args := KeywordArguments(f.Sections[3].Body[0])
	assert.Equal(t, []string{"${page}", "${timeout}", "@{rest}"}, values(args))
	assert.Equal(t, Token{Type: Argument, Value: "${page}", Line: 25, Col: 5}, args[0])

	assert.Nil(t, KeywordArguments(f.Sections[2].Body[0]), "tests declare no arguments")

	embedded := Parse("k.robot", []byte("*** Keywords ***\nWait ${n:\\d+} Seconds\n    No Operation\n"))
	assert.Equal(t, []string{"${n}"}, values(KeywordArguments(embedded.Sections[0].Body[0])))
}

func TestKeywordUsages_UnwrapsRunKeyword(t *testing.T) {
	t.Parallel()
	f := parseSuite(t)

	var names []string
	var wrapped KeywordUsage
	for u := range KeywordUsages(f) {
		names = append(names, u.Name.Value)
		if u.Name.Value == "Set Test Variable" {
			wrapped = u
		}
	}
	assert.True(t, slices.Contains(names, "Set Suite Variable"))
	assert.True(t, slices.Contains(names, "Set Test Variable"))
	assert.Equal(t, []string{"${WRAPPED}", "inner"}, values(wrapped.Args))
	kw, _ := wrapped.Node.Keyword()
	assert.Equal(t, "Run Keyword", kw.Value)
}

func TestUnwrap_Variants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		src  string
		want [][]string
	}{
		{
			"Run Keywords    A    x    AND    B",
			[][]string{{"A", "x"}, {"B"}},
		},
		{
			"Run Keywords    A    B",
			[][]string{{"A"}, {"B"}},
		},
		{
			"BuiltIn.Run Keyword If    $c    A    1    ELSE IF    $d    B    ELSE    C    2",
			[][]string{{"A", "1"}, {"B"}, {"C", "2"}},
		},
		{
			"Wait Until Keyword Succeeds    3x    1s    Click    btn",
			[][]string{{"Click", "btn"}},
		},
		{
			"Run Keyword And Expect Error    *    Fail",
			[][]string{{"Fail"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()
			f := Parse("t.robot", []byte("*** Test Cases ***\nT\n    "+tt.src+"\n"))
			var got [][]string
			for u := range KeywordUsages(f) {
				got = append(got, append([]string{u.Name.Value}, values(u.Args)...))
			}
			if diff := cmp.Diff(tt.want, got[1:]); diff != "" {
				t.Errorf("wrapped usages mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStackAt(t *testing.T) {
	t.Parallel()
	f := parseSuite(t)

	kinds := func(stack []Node) []string {
		var out []string
		for _, n := range stack {
			switch v := n.(type) {
			case *Section:
				out = append(out, string(v.Kind))
			case *TestCase:
				out = append(out, "test")
			case *Keyword:
				out = append(out, "keyword")
			case *For:
				out = append(out, "for")
			case *Try:
				out = append(out, "try")
			case *Branch:
				out = append(out, string(v.Kind()))
			}
		}
		return out
	}

	assert.Equal(t, []string{"variables"}, kinds(StackAt(f, 7)))
	assert.Equal(t, []string{"test cases", "test", "for"}, kinds(StackAt(f, 14)))
	assert.Equal(t, []string{"test cases", "test", "try", "EXCEPT"}, kinds(StackAt(f, 19)))
	assert.Equal(t, []string{"test cases", "test"}, kinds(StackAt(f, 23)), "blank line after the last step stays in the test")
	assert.Equal(t, []string{"keywords", "keyword"}, kinds(StackAt(f, 28)))

	pre := Parse("p.robot", []byte("\n\n*** Test Cases ***\nT\n    Log    x\n"))
	assert.Empty(t, StackAt(pre, 1))
}

func TestVariableAt(t *testing.T) {
	t.Parallel()
	f := parseSuite(t)

	// "        Log    ${item}": the reference starts at col 15.
	tok, stack, ok := VariableAt(f, 14, 19)
	require.True(t, ok)
	assert.Equal(t, Token{Type: Variable, Value: "${item}", Line: 14, Col: 15}, tok)
	assert.Len(t, stack, 3)

	_, _, ok = VariableAt(f, 14, 9)
	assert.False(t, ok, "cursor on a keyword name")

	open := Parse("o.robot", []byte("*** Test Cases ***\nT\n    Log    Hi ${na\n"))
	tok, _, ok = VariableAt(open, 3, 18)
	require.True(t, ok)
	assert.Equal(t, "${na", tok.Value)
	assert.Equal(t, 14, tok.Col)

	nested := Parse("n.robot", []byte("*** Test Cases ***\nT\n    Log    ${a${b}}\n"))
	tok, _, ok = VariableAt(nested, 3, 16)
	require.True(t, ok)
	assert.Equal(t, "${b}", tok.Value)
}

func TestNormalize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "setsuitevariable", Normalize("Set Suite_Variable"))
	assert.Equal(t, "builtin.log", Normalize("BuiltIn.Log"))
}

func TestFindAndReplaceVariables(t *testing.T) {
	t.Parallel()

	ms := FindVariables(`${a}/\${skip}/@{b${c}}/&{open`)
	require.Len(t, ms, 2)
	assert.Equal(t, VarMatch{Start: 0, End: 4, Name: "${a}"}, ms[0])
	assert.Equal(t, "@{b${c}}", ms[1].Name)
	assert.Equal(t, "b${c}", ms[1].Base())

	lookup := func(name string) (string, bool) {
		if name == "${CURDIR}" {
			return "/ws", true
		}
		return "", false
	}
	out, unresolved := ReplaceVariables("${CURDIR}/${ENV}/vars.py", lookup)
	assert.Equal(t, "/ws/${ENV}/vars.py", out)
	require.Len(t, unresolved, 1)
	assert.Equal(t, VarMatch{Start: 10, End: 16, Name: "${ENV}"}, unresolved[0])

	assert.Equal(t, "x", VariableBase("${x}"))
	assert.Equal(t, "x", VariableBase("@{x"))
	assert.Equal(t, "plain", VariableBase("plain"))
}
