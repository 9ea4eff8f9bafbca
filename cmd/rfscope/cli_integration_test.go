package main_test

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/rfscope/internal/testutil"
)

const fixture = `
-- rfscope.hcl --
variables = {
  ENV = "dev"
}
spec_dirs = ["specs"]
-- specs/Browser.libspec --
<?xml version="1.0" encoding="UTF-8"?>
<keywordspec name="Browser" type="LIBRARY" format="ROBOT" scope="GLOBAL" specversion="3">
<version>1.0</version>
<doc>Drives a browser.</doc>
<keywords>
<kw name="Open Browser">
<arguments repr="url">
<arg kind="POSITIONAL_OR_NAMED" required="true" repr="url">
<name>url</name>
</arg>
</arguments>
<doc>Opens url.</doc>
</kw>
<kw name="Close Browser">
<arguments repr="">
</arguments>
<doc>Closes it.</doc>
</kw>
</keywords>
</keywordspec>
-- suite.robot --
*** Settings ***
Resource    common.resource
Variables    ${ENV}/vars.yaml
Variables    ${MISSING}/x.py

*** Variables ***
${SUITE_VAR}    s

*** Test Cases ***
First
    ${local} =    Set Variable    1
    Log    ${SU}
-- common.resource --
*** Variables ***
${COMMON}    c
-- dev/vars.yaml --
YAML_VAR: y
`

// buildBinary compiles the rfscope binary and returns the path.
func buildBinary(t *testing.T) string {
	t.Helper()
	binName := "rfscope"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	bin := filepath.Join(t.TempDir(), binName)
	cmd := exec.Command("go", "build", "-o", bin, ".")
	cmd.Dir = filepath.Join(projectRoot(t), "cmd", "rfscope")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=1")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "build failed: %s", string(out))
	return bin
}

// projectRoot walks up from the test file's directory to find go.mod.
func projectRoot(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "runtime.Caller failed")
	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, parent, dir, "could not find project root")
		dir = parent
	}
}

// createFixture writes the fixture workspace with a .git directory so the
// repo root is found.
func createFixture(t *testing.T) string {
	t.Helper()
	dir := testutil.WriteArchive(t, fixture)
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	return dir
}

func run(t *testing.T, bin, dir string, args ...string) []byte {
	t.Helper()
	cmd := exec.Command(bin, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	var stderr string
	if ee, ok := err.(*exec.ExitError); ok {
		stderr = string(ee.Stderr)
	}
	require.NoError(t, err, "rfscope %s failed: %s%s", strings.Join(args, " "), out, stderr)
	return out
}

type envelope struct {
	Command string          `json:"command"`
	Results json.RawMessage `json:"results"`
	Error   string          `json:"error"`
}

type variable struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Provenance string `json:"provenance"`
	Source     string `json:"source"`
}

func decode[T any](t *testing.T, out []byte) T {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(out, &env), "output: %s", out)
	require.Empty(t, env.Error)
	var v T
	require.NoError(t, json.Unmarshal(env.Results, &v))
	return v
}

func TestCLI_IndexAndKeywords(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	run(t, bin, dir, "index")
	_, err := os.Stat(filepath.Join(dir, ".rfscope", "index.db"))
	require.NoError(t, err, ".rfscope/index.db should exist")

	matches := decode[[]struct {
		Name    string `json:"name"`
		Library string `json:"library"`
	}](t, run(t, bin, dir, "keywords", "close"))
	require.Len(t, matches, 1)
	assert.Equal(t, "Close Browser", matches[0].Name)
	assert.Equal(t, "Browser", matches[0].Library)

	lib := decode[struct {
		Name     string `json:"name"`
		Keywords []struct {
			Name string   `json:"name"`
			Args []string `json:"args"`
		} `json:"keywords"`
	}](t, run(t, bin, dir, "spec", "--cached", filepath.Join("specs", "Browser.libspec")))
	assert.Equal(t, "Browser", lib.Name)
	require.Len(t, lib.Keywords, 2)
	assert.Equal(t, "Open Browser", lib.Keywords[1].Name)
	assert.Equal(t, []string{"url"}, lib.Keywords[1].Args)
}

func TestCLI_KeywordsWithoutIndex(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	cmd := exec.Command(bin, "keywords", "close")
	cmd.Dir = dir
	out, err := cmd.Output()
	require.Error(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(out, &env))
	assert.Equal(t, "keywords", env.Command)
	assert.Contains(t, env.Error, "database not found")
}

func TestCLI_Vars(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	scope := decode[struct {
		Variables  []variable `json:"variables"`
		Unresolved []struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		} `json:"unresolved"`
	}](t, run(t, bin, dir, "vars", "suite.robot", "11", "4"))

	byName := map[string]variable{}
	for _, v := range scope.Variables {
		if _, seen := byName[v.Name]; !seen {
			byName[v.Name] = v
		}
	}
	assert.Equal(t, "local", byName["${local}"].Provenance)
	assert.Equal(t, "module", byName["${SUITE_VAR}"].Provenance)
	assert.Equal(t, "import", byName["${COMMON}"].Provenance)
	assert.Equal(t, "external", byName["${YAML_VAR}"].Provenance)
	assert.Equal(t, "dev", byName["${ENV}"].Value)
	assert.Equal(t, "config", byName["${ENV}"].Provenance)
	assert.Equal(t, "builtin", byName["${TEMPDIR}"].Provenance)

	require.Len(t, scope.Unresolved, 1)
	assert.Equal(t, "${MISSING}/x.py", scope.Unresolved[0].Name)
	assert.Contains(t, scope.Unresolved[0].Message, "`MISSING`")
}

func TestCLI_VarsCurrentOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	scope := decode[struct {
		Variables []variable `json:"variables"`
	}](t, run(t, bin, dir, "vars", "--current-only", "suite.robot", "11", "4"))

	var names []string
	for _, v := range scope.Variables {
		names = append(names, v.Name)
	}
	assert.Equal(t, []string{"${local}", "${SUITE_VAR}"}, names)
}

func TestCLI_CompleteText(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	bin := buildBinary(t)
	dir := createFixture(t)

	out := string(run(t, bin, dir, "--format", "text", "complete", "suite.robot", "11", "15"))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.True(t, strings.HasPrefix(lines[1], "${SUITE_VAR}"))
	// Matching ignores the sigil, so &{SUITE_METADATA} is offered too.
	for _, l := range lines[1:] {
		name := strings.Fields(l)[0]
		assert.True(t, strings.HasPrefix(name[1:], "{SUITE"), l)
	}
	assert.Contains(t, out, "&{SUITE_METADATA}")
}
