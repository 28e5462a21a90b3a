package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osfbuildersuite/standalone-linter/builder"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRulesCommands(t *testing.T) {
	out, err := execute(t, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "javascript:S1525")
	assert.Contains(t, out, "Debugger statements should not be used")

	out, err = execute(t, "rules", "describe", "S1525")
	require.NoError(t, err)
	assert.Contains(t, out, "<p>")

	_, err = execute(t, "rules", "describe", "S0000")
	assert.Error(t, err)

	dir := t.TempDir()
	_, err = execute(t, "rules", "export", dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "S1525.toml"))
}

func TestRunLint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.js"), []byte("debugger;\n"), 0644))

	configPath := filepath.Join(t.TempDir(), "linter.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
report_path = "out"

[[source_patterns]]
pattern = "**/*.js"
`), 0644))

	out, err := execute(t, "--config", configPath, "--workspace", dir)

	var abortErr *builder.AbortError
	require.ErrorAs(t, err, &abortErr)
	assert.Contains(t, out, " ~ ERROR parsing a.js@1,0-1,8")

	matches, globErr := filepath.Glob(filepath.Join(dir, "out", "SonarLint_*.json"))
	require.NoError(t, globErr)
	assert.Len(t, matches, 1)

	_, err = execute(t, "--workspace", dir, "--source-pattern", "**/*.js", "--exclude-rule", "S1525")
	assert.NoError(t, err)
}

func TestHandleError(t *testing.T) {
	var out bytes.Buffer
	code := handleError(&out, &builder.AbortError{Message: "SonarLint FAILED!"})
	assert.Equal(t, exitAborted, code)
	assert.Equal(t, "ERROR: SonarLint FAILED!\n", out.String())

	out.Reset()
	assert.Equal(t, exitError, handleError(&out, errors.New("boom")))
	assert.Empty(t, out.String())
}
