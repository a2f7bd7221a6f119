package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/FarhanAliRaza/Mardown-rs"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func TestMdCommand(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "main.go"), []byte("package main\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("todo\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "vendor", "dep.go"), []byte("package dep\n"), 0o644))

	output := filepath.Join(t.TempDir(), "out.md")
	stdout, err := execute(t, "", "md", "-i", src, "-o", output, "-e", "go", "-x", "vendor/**")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 files written")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	doc := string(data)
	assert.True(t, strings.HasPrefix(doc, "# "+filepath.Base(src)+"\n"))
	assert.Contains(t, doc, "### main.go\n\n```go\npackage main\n```\n")
	assert.NotContains(t, doc, "notes.txt")
	assert.NotContains(t, doc, "dep.go")
}

func TestMdCommand_OutputInsideInputIsExcluded(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.md"), []byte("# a\n"), 0o644))
	output := filepath.Join(src, "flat.md")
	require.NoError(t, os.WriteFile(output, []byte("stale run\n"), 0o644))

	_, err := execute(t, "", "md", "-i", src, "-o", output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "### a.md")
	assert.NotContains(t, string(data), "flat.md")
	assert.NotContains(t, string(data), "stale run")
}

func TestCodeCommand_MissingKeyIsAuthError(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	_, err := execute(t, "hello\n", "code", "-m", "openai", "--dir", t.TempDir())
	require.ErrorIs(t, err, agent.ErrAuth)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestCodeCommand_UnknownVendor(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := execute(t, "", "code", "-m", "mistral", "--dir", t.TempDir())
	assert.ErrorIs(t, err, agent.ErrInvalidInput)
}

func TestLoadSettings_FlagsOverrideFiles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mdrs.yaml"), []byte("model: google\nmax_rounds: 4\n"), 0o644))

	cmd := newCodeCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--max-rounds", "9"}))
	s, err := loadSettings(cmd, codeOptions{dir: dir, maxRounds: 9, model: "claude"})
	require.NoError(t, err)
	assert.Equal(t, "google", s.Model, "unset flags keep file values")
	assert.Equal(t, 9, s.MaxRounds)
}
