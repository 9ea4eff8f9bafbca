package rfscope

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jward/rfscope/internal/robot"
)

func TestRobotMatcher(t *testing.T) {
	tests := []struct {
		prefix string
		name   string
		want   bool
	}{
		{"${my_v", "@{MY VAR}", true},
		{"${MyVar}", "${my_var}", true},
		{"${var", "${MY VAR}", true},
		{"${", "${anything}", true},
		{"", "${anything}", true},
		{"${host", "${PORT}", false},
		{"@{x", "${y}", false},
	}
	for _, tt := range tests {
		t.Run(tt.prefix+"|"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RobotMatcher(tt.prefix).Accepts(tt.name))
		})
	}
}

func TestFuzzyMatcher(t *testing.T) {
	m := FuzzyMatcher("${usrnm")
	assert.True(t, m.Accepts("${USER_NAME}"))
	assert.True(t, m.Accepts("&{user names}"))
	assert.False(t, m.Accepts("${HOST}"))
	assert.True(t, FuzzyMatcher("${").Accepts("${HOST}"))
}

func TestAsVariable(t *testing.T) {
	assert.Equal(t, "${HOST}", asVariable("HOST"))
	assert.Equal(t, "${HOST}", asVariable("${HOST}"))
	assert.Equal(t, "@{LIST}", asVariable("@{LIST}"))
	assert.Equal(t, "&{D} ", asVariable("&{D} "))
}

func TestDescribe(t *testing.T) {
	tok := robot.Token{Type: robot.Variable, Value: "${X}", Line: 3, Col: 4}
	v := newTokenVariable(tok, "${X}", "1", "/ws/a.robot", ProvenanceModule)
	assert.Equal(t, `${X} = "1" (module /ws/a.robot:3:4)`, Describe(v))

	s := &StaticVariable{name: "${SPACE}", value: " ", provenance: ProvenanceBuiltin}
	assert.Equal(t, `${SPACE} = " " (builtin)`, Describe(s))
}

func TestDefaultBuiltinsAreDecorated(t *testing.T) {
	for _, b := range DefaultBuiltins {
		assert.Equal(t, b.Name, asVariable(b.Name), "built-in %q", b.Name)
	}
}
