package rfscope

import "strings"

// Builtin is a language built-in variable and a representative value.
type Builtin struct {
	Name  string
	Value string
}

// DefaultBuiltins are the variables the test runner always defines. Values
// that depend on the run are left empty.
var DefaultBuiltins = []Builtin{
	{"${TEMPDIR}", ""},
	{"${EXECDIR}", ""},
	{"${/}", "/"},
	{"${:}", ":"},
	{"${\\n}", "\n"},
	{"${SPACE}", " "},
	{"${True}", "True"},
	{"${False}", "False"},
	{"${None}", "None"},
	{"${null}", "None"},
	{"${OUTPUT_DIR}", ""},
	{"${OUTPUT_FILE}", ""},
	{"${REPORT_FILE}", ""},
	{"${LOG_FILE}", ""},
	{"${DEBUG_FILE}", ""},
	{"${LOG_LEVEL}", ""},
	{"${PREV_TEST_NAME}", ""},
	{"${PREV_TEST_STATUS}", ""},
	{"${PREV_TEST_MESSAGE}", ""},
	{"${CURDIR}", ""},
	{"${TEST_NAME}", ""},
	{"@{TEST_TAGS}", ""},
	{"${TEST_DOCUMENTATION}", ""},
	{"${TEST_STATUS}", ""},
	{"${TEST_MESSAGE}", ""},
	{"${SUITE_NAME}", ""},
	{"${SUITE_SOURCE}", ""},
	{"${SUITE_DOCUMENTATION}", ""},
	{"&{SUITE_METADATA}", ""},
	{"${SUITE_STATUS}", ""},
	{"${SUITE_MESSAGE}", ""},
	{"${KEYWORD_STATUS}", ""},
	{"${KEYWORD_MESSAGE}", ""},
	{"${EMPTY}", ""},
	{"@{EMPTY}", ""},
	{"&{EMPTY}", ""},
	{"${OPTIONS}", ""},
}

// asVariable wraps a bare configured name as "${name}". Names already
// written in variable syntax are kept.
func asVariable(name string) string {
	if strings.HasSuffix(strings.TrimSpace(name), "}") {
		return name
	}
	return "${" + name + "}"
}
