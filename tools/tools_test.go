package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/FarhanAliRaza/Mardown-rs"
	"github.com/FarhanAliRaza/Mardown-rs/workspace"
)

// countingWorkspace records every capability call made through it.
type countingWorkspace struct {
	workspace.Provider
	reads, lists, writes int
}

func (c *countingWorkspace) Read(ctx context.Context, path string) ([]byte, error) {
	c.reads++
	return c.Provider.Read(ctx, path)
}

func (c *countingWorkspace) List(ctx context.Context, path string, recursive bool) ([]string, error) {
	c.lists++
	return c.Provider.List(ctx, path, recursive)
}

func (c *countingWorkspace) Write(ctx context.Context, path string, content []byte) error {
	c.writes++
	return c.Provider.Write(ctx, path, content)
}

func (c *countingWorkspace) total() int { return c.reads + c.lists + c.writes }

func newRegistry(t *testing.T, dir string) (*agent.ToolRegistry, *countingWorkspace) {
	t.Helper()
	ws := &countingWorkspace{Provider: workspace.NewLocal(dir)}
	registry := agent.NewToolRegistry()
	require.NoError(t, RegisterAll(registry, ws))
	return registry, ws
}

func dispatch(registry *agent.ToolRegistry, name string, args map[string]any) agent.ToolCallResult {
	return registry.Dispatch(context.Background(), agent.ToolCallRequest{ID: "call_1", Name: name, Arguments: args})
}

func TestRegisterAll(t *testing.T) {
	registry, _ := newRegistry(t, t.TempDir())

	assert.Equal(t, []string{"read_file", "list_files", "edit_file"}, registry.Names())

	read, ok := registry.Lookup("read_file")
	require.True(t, ok)
	assert.Equal(t, []string{"path"}, read.InputSchema.Required)

	list, ok := registry.Lookup("list_files")
	require.True(t, ok)
	assert.Empty(t, list.InputSchema.Required)

	edit, ok := registry.Lookup("edit_file")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"path", "content"}, edit.InputSchema.Required)
}

func TestRegisterAll_Twice(t *testing.T) {
	registry, ws := newRegistry(t, t.TempDir())
	err := RegisterAll(registry, ws)
	assert.ErrorIs(t, err, agent.ErrDuplicateToolName)
}

func TestEditThenRead_RoundTrip(t *testing.T) {
	registry, _ := newRegistry(t, t.TempDir())
	content := "fn main() {\n    println!(\"hi\");\n}\n"

	edit := dispatch(registry, "edit_file", map[string]any{"path": "src/main.rs", "content": content})
	require.False(t, edit.IsError(), edit.Output)
	assert.Contains(t, edit.Output, "OK")

	read := dispatch(registry, "read_file", map[string]any{"path": "src/main.rs"})
	require.False(t, read.IsError(), read.Output)
	assert.Equal(t, content, read.Output)
}

func TestEditFile_CreatesMissingDirectories(t *testing.T) {
	dir := t.TempDir()
	registry, _ := newRegistry(t, dir)

	edit := dispatch(registry, "edit_file", map[string]any{"path": "a/b/c/new.txt", "content": "nested"})
	require.False(t, edit.IsError(), edit.Output)

	info, err := os.Stat(filepath.Join(dir, "a", "b", "c"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	read := dispatch(registry, "read_file", map[string]any{"path": "a/b/c/new.txt"})
	assert.Equal(t, "nested", read.Output)
}

func TestEditFile_EmptyContentAllowed(t *testing.T) {
	registry, _ := newRegistry(t, t.TempDir())

	edit := dispatch(registry, "edit_file", map[string]any{"path": "empty.txt", "content": ""})
	require.False(t, edit.IsError(), edit.Output)

	read := dispatch(registry, "read_file", map[string]any{"path": "empty.txt"})
	require.False(t, read.IsError())
	assert.Equal(t, "", read.Output)
}

func TestEditFile_OutsideWorkspace(t *testing.T) {
	registry, _ := newRegistry(t, t.TempDir())

	edit := dispatch(registry, "edit_file", map[string]any{"path": "../../evil.txt", "content": "x"})
	assert.ErrorIs(t, edit.Err, agent.ErrNotWritable)
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0, 1, 2}, 0o644))
	registry, _ := newRegistry(t, dir)

	missing := dispatch(registry, "read_file", map[string]any{"path": "nope.txt"})
	assert.ErrorIs(t, missing.Err, agent.ErrNotFound)

	binary := dispatch(registry, "read_file", map[string]any{"path": "blob.bin"})
	assert.ErrorIs(t, binary.Err, agent.ErrNotReadable)
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "sub/c.md", ".hidden"} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(name), 0o644))
	}
	registry, _ := newRegistry(t, dir)

	for _, args := range []map[string]any{{"path": "."}, {}} {
		result := dispatch(registry, "list_files", args)
		require.False(t, result.IsError(), result.Output)

		var entries []string
		require.NoError(t, json.Unmarshal([]byte(result.Output), &entries))
		assert.Equal(t, []string{"a.txt", "b.txt", "sub/", "sub/c.md"}, entries)
	}
}

func TestListFiles_NotADirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("x"), 0o644))
	registry, _ := newRegistry(t, dir)

	result := dispatch(registry, "list_files", map[string]any{"path": "file.txt"})
	assert.ErrorIs(t, result.Err, agent.ErrNotFound)

	result = dispatch(registry, "list_files", map[string]any{"path": "missing"})
	assert.ErrorIs(t, result.Err, agent.ErrNotFound)
}

func TestInvalidArgumentsNeverReachWorkspace(t *testing.T) {
	registry, ws := newRegistry(t, t.TempDir())

	cases := []struct {
		tool string
		args map[string]any
	}{
		{"read_file", map[string]any{}},
		{"read_file", map[string]any{"path": 7.0}},
		{"edit_file", map[string]any{"path": "x.txt"}},
		{"edit_file", map[string]any{"path": "x.txt", "content": []any{"a"}}},
		{"list_files", map[string]any{"path": false}},
		{"delete_file", map[string]any{"path": "x.txt"}},
	}
	for _, c := range cases {
		result := dispatch(registry, c.tool, c.args)
		assert.True(t, result.IsError(), "%s %v", c.tool, c.args)
	}
	assert.Zero(t, ws.total())
}

// scriptedModel answers the first call with tool calls and the second with
// final text.
type scriptedModel struct {
	calls    []agent.ToolCallRequest
	final    string
	requests []agent.ModelRequest
}

func (m *scriptedModel) Name() string { return "scripted" }

func (m *scriptedModel) Complete(_ context.Context, req agent.ModelRequest) (agent.ModelResponse, error) {
	m.requests = append(m.requests, req)
	if len(m.requests) == 1 {
		return agent.ModelResponse{ToolCalls: m.calls}, nil
	}
	return agent.FinalText(m.final), nil
}

func TestAgent_ListFilesScenario(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt", "c.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}
	registry, _ := newRegistry(t, dir)
	model := &scriptedModel{
		calls: []agent.ToolCallRequest{{ID: "1", Name: "list_files", Arguments: map[string]any{"path": "."}}},
		final: "Found 3 files: a.txt, b.txt, c.md",
	}
	a := agent.NewAgent(model, registry)
	conv := agent.NewConversation()

	text, err := a.RunTurn(context.Background(), conv, "list files in .")

	require.NoError(t, err)
	assert.Equal(t, "Found 3 files: a.txt, b.txt, c.md", text)
	require.Equal(t, 4, conv.Len())
	require.NoError(t, conv.Validate())

	turns := conv.Turns()
	assert.Equal(t, []agent.Role{agent.RoleUser, agent.RoleAssistant, agent.RoleToolResult, agent.RoleAssistant},
		[]agent.Role{turns[0].Role, turns[1].Role, turns[2].Role, turns[3].Role})

	results := turns[2].ToolResults()
	require.Len(t, results, 1)
	assert.Equal(t, "1", results[0].CallID)
	assert.JSONEq(t, `["a.txt","b.txt","c.md"]`, results[0].Output)

	// The second model call saw the tool result.
	require.Len(t, model.requests, 2)
	assert.Len(t, model.requests[1].Turns, 3)
	assert.Len(t, model.requests[1].Tools, 3)
}

func TestAgent_UnknownToolNeverReachesWorkspace(t *testing.T) {
	registry, ws := newRegistry(t, t.TempDir())
	model := &scriptedModel{
		calls: []agent.ToolCallRequest{{ID: "x", Name: "format_disk", Arguments: map[string]any{"path": "."}}},
		final: "cannot do that",
	}
	a := agent.NewAgent(model, registry)

	text, err := a.RunTurn(context.Background(), agent.NewConversation(), "wipe it")

	require.NoError(t, err)
	assert.Equal(t, "cannot do that", text)
	assert.Zero(t, ws.total())
}
