package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/rfscope/internal/robot"
	"github.com/jward/rfscope/internal/testutil"
)

const project = `
-- suite.robot --
*** Settings ***
Resource    ${CURDIR}/lib/common.resource
Variables    vars.py
Variables    ${ENV_DIR}/env.yaml
Variables    ${CONFIG_DIR}/config.yaml
Resource    missing.resource

*** Test Cases ***
T
    Log    hi
-- lib/common.resource --
*** Settings ***
Resource    ../suite.robot
Resource    nested.resource

*** Variables ***
${COMMON}    1
-- lib/nested.resource --
*** Settings ***
Resource    common.resource
Variables    ${CURDIR}${/}nested.yaml
-- lib/nested.yaml --
N: 1
-- vars.py --
X = 1
-- conf/config.yaml --
C: 1
-- __init__.robot --
*** Settings ***
Documentation    root suite
-- lib/__init__.robot --
*** Variables ***
${LIB_INIT}    1
`

func edgeTargets(t *testing.T, dir string, edges []Edge) []string {
	t.Helper()
	var out []string
	for _, e := range edges {
		if e.Doc == nil {
			out = append(out, "unresolved:"+e.Target)
			continue
		}
		rel, err := filepath.Rel(dir, e.Doc.Path())
		require.NoError(t, err)
		out = append(out, filepath.ToSlash(rel))
	}
	return out
}

func realDir(t *testing.T, dir string) string {
	t.Helper()
	r, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	return r
}

func TestCache_IdentityAcrossAliases(t *testing.T) {
	t.Parallel()
	dir := testutil.WriteArchive(t, project)
	link := filepath.Join(t.TempDir(), "alias.robot")
	require.NoError(t, os.Symlink(filepath.Join(dir, "suite.robot"), link))

	c := NewCache()
	a, err := c.Get(filepath.Join(dir, "suite.robot"))
	require.NoError(t, err)
	b, err := c.Get(link)
	require.NoError(t, err)
	d, err := c.Get(filepath.Join(dir, "lib", "..", "suite.robot"))
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Same(t, a, d)
	assert.Equal(t, 1, c.Len())

	_, err = c.Get(filepath.Join(dir, "nope.robot"))
	assert.Error(t, err)
	_, err = c.Get(dir)
	assert.Error(t, err, "directories are not documents")

	c.Invalidate(link)
	assert.Equal(t, 0, c.Len())
}

func TestDocument_TreeIsMemoized(t *testing.T) {
	t.Parallel()
	dir := testutil.WriteArchive(t, project)
	doc, err := NewCache().Get(filepath.Join(dir, "suite.robot"))
	require.NoError(t, err)

	first, err := doc.Tree()
	require.NoError(t, err)
	second, err := doc.Tree()
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Len(t, first.Sections, 2)
}

func TestBuildGraph(t *testing.T) {
	t.Parallel()
	dir := realDir(t, testutil.WriteArchive(t, project))
	c := NewCache()
	root, err := c.Get(filepath.Join(dir, "suite.robot"))
	require.NoError(t, err)

	g, err := BuildGraph(context.Background(), c, root, map[string]string{
		"${CONFIG_DIR}": filepath.Join(dir, "conf"),
	})
	require.NoError(t, err)

	var resources, variables []Edge
	for e := range g.Resources() {
		resources = append(resources, e)
	}
	for e := range g.VariableFiles() {
		variables = append(variables, e)
	}

	assert.Equal(t, []string{
		"lib/common.resource",
		"unresolved:" + filepath.Join(dir, "missing.resource"),
		"suite.robot",
		"lib/nested.resource",
		"lib/common.resource",
	}, edgeTargets(t, dir, resources), "the cycle back to suite.robot is listed but not expanded again")

	assert.Equal(t, []string{
		"vars.py",
		"unresolved:${ENV_DIR}/env.yaml",
		"conf/config.yaml",
		"lib/nested.yaml",
	}, edgeTargets(t, dir, variables))

	for _, e := range variables {
		assert.IsType(t, &robot.VariablesImport{}, e.Node)
		assert.NotNil(t, e.From)
	}
}

func TestBuildGraph_Cancelled(t *testing.T) {
	t.Parallel()
	dir := testutil.WriteArchive(t, project)
	c := NewCache()
	root, err := c.Get(filepath.Join(dir, "suite.robot"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = BuildGraph(ctx, c, root, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLookup(t *testing.T) {
	t.Parallel()
	lookup := Lookup(map[string]string{"Env Dir": "/env", "${execdir}": "/exec"})

	v, ok := lookup("/ws", "${CURDIR}")
	assert.True(t, ok)
	assert.Equal(t, "/ws", v)

	v, ok = lookup("/ws", "${env_dir}")
	assert.True(t, ok)
	assert.Equal(t, "/env", v)

	v, ok = lookup("/ws", "${EXECDIR}")
	assert.True(t, ok)
	assert.Equal(t, "/exec", v)

	_, ok = lookup("/ws", "${UNKNOWN}")
	assert.False(t, ok)
}

func TestSuiteInits(t *testing.T) {
	t.Parallel()
	dir := realDir(t, testutil.WriteArchive(t, project))
	c := NewCache()
	doc, err := c.Get(filepath.Join(dir, "lib", "nested.resource"))
	require.NoError(t, err)

	inits := c.SuiteInits(doc, dir)
	var got []string
	for _, d := range inits {
		rel, err := filepath.Rel(dir, d.Path())
		require.NoError(t, err)
		got = append(got, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{"lib/__init__.robot", "__init__.robot"}, got)
}
