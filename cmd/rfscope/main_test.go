package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/rfscope"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	assert.Equal(t, root, findRepoRoot(root))
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	deep := filepath.Join(root, "sub", "deep")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	assert.Equal(t, root, findRepoRoot(deep))
}

func TestFindRepoRoot_NoGitAncestor(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	assert.Equal(t, dir, findRepoRoot(dir))
}

func TestResolveDBPath_Default(t *testing.T) {
	assert.Equal(t, filepath.Join("/repo", ".rfscope", "index.db"), resolveDBPath("/repo"))
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
	err := validateFormat("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestParseIntArg(t *testing.T) {
	t.Parallel()
	n, err := parseIntArg("12", "line")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = parseIntArg("x", "line")
	assert.ErrorContains(t, err, "invalid line")
	_, err = parseIntArg("-1", "col")
	assert.ErrorContains(t, err, "must be non-negative")
}

func TestNewLogger(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := newLogger("debug", "json", &buf)
	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	logger = newLogger("", "text", &buf)
	logger.Info("quiet")
	logger.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "msg=loud")
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "rfscope.hcl")
	src := `
variables = {
  ENV  = "staging"
  HOST = "localhost"
}
log_level  = "debug"
log_format = "json"
spec_dirs  = ["libspecs", "/abs/specs"]
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	c, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ENV": "staging", "HOST": "localhost"}, c.Variables)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "json", c.LogFormat)
	assert.Equal(t, []string{"libspecs", "/abs/specs"}, c.SpecDirs)
	assert.Equal(t, filepath.Join(dir, "libspecs"), c.resolve("libspecs"))
	assert.Equal(t, "/abs/specs", c.resolve("/abs/specs"))
}

func TestLoadConfig_Empty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "rfscope.hcl")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	c, err := loadConfig(path)
	require.NoError(t, err)
	assert.Empty(t, c.Variables)
	assert.Empty(t, c.SpecDirs)
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.hcl")
	require.NoError(t, os.WriteFile(bad, []byte("variables = {"), 0o644))
	_, err := loadConfig(bad)
	assert.ErrorContains(t, err, "failed to parse config")

	unknown := filepath.Join(dir, "unknown.hcl")
	require.NoError(t, os.WriteFile(unknown, []byte(`colour = "red"`), 0o644))
	_, err = loadConfig(unknown)
	assert.ErrorContains(t, err, "failed to decode config")

	_, err = loadConfig(filepath.Join(dir, "missing.hcl"))
	assert.Error(t, err)
}

func TestFormatVariablesText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatVariablesText(&buf, []CLIVariable{
		{Name: "${local}", Value: "1", Provenance: "local", Source: "/ws/a.robot",
			Range: rfscope.Range{Start: rfscope.Position{Line: 13, Character: 4}}},
		{Name: "${TEMPDIR}", Value: "/tmp", Provenance: "builtin"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "/ws/a.robot:14:5")
	assert.Contains(t, lines[2], "builtin")
}

func TestFormatUnresolvedText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatUnresolvedText(&buf, []rfscope.UnresolvedImport{{
		Source:  "/ws/a.robot",
		Name:    "${A}/${B}.py",
		Range:   rfscope.Range{Start: rfscope.Position{Line: 2, Character: 13}},
		Message: "first\nsecond",
	}})
	assert.Equal(t, "/ws/a.robot:3:14: first\n    second\n", buf.String())
}

func TestFormatLibraryText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	formatLibraryText(&buf, CLILibrary{
		Name:      "Collections",
		Scope:     "GLOBAL",
		DocFormat: "ROBOT",
		Keywords: []CLIKeyword{
			{Name: "Append To List", Args: []string{"list_", "@values"}},
			{Name: "Old", Deprecated: true},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "Library: Collections\n")
	assert.Contains(t, out, "  Append To List    list_    @values\n")
	assert.Contains(t, out, "  Old  (deprecated)\n")
	assert.NotContains(t, out, "Init:")
}

func TestOutputResultText_Unsupported(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	err := outputResultText(&buf, CLIResult{Command: "x", Results: 42})
	assert.ErrorContains(t, err, "unsupported result type")
}
