package rfscope

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/jward/rfscope/internal/robot"
)

// Matcher filters candidate variable names.
type Matcher interface {
	Accepts(name string) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(name string) bool

func (f MatcherFunc) Accepts(name string) bool { return f(name) }

// AcceptAll matches every name.
var AcceptAll Matcher = MatcherFunc(func(string) bool { return true })

// matchKey reduces a variable name to its comparable inner text.
func matchKey(name string) string {
	return robot.Normalize(robot.VariableBase(strings.TrimSpace(name)))
}

// RobotMatcher accepts names whose normalized inner text contains the
// normalized inner text of prefix. Case, spaces, underscores, the sigil and
// the braces are ignored, so "${my_v" matches "@{MY VAR}".
func RobotMatcher(prefix string) Matcher {
	want := matchKey(prefix)
	if want == "" {
		return AcceptAll
	}
	return MatcherFunc(func(name string) bool {
		return strings.Contains(matchKey(name), want)
	})
}

// FuzzyMatcher accepts names whose normalized inner text contains the
// characters of prefix in order, e.g. "${usrnm" matches "${USER_NAME}".
func FuzzyMatcher(prefix string) Matcher {
	want := matchKey(prefix)
	if want == "" {
		return AcceptAll
	}
	return MatcherFunc(func(name string) bool {
		return fuzzy.MatchNormalizedFold(want, matchKey(name))
	})
}
