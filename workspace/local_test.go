package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/FarhanAliRaza/Mardown-rs"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestLocal_ReadWriteRoundTrip(t *testing.T) {
	ws := NewLocal(t.TempDir())
	ctx := context.Background()

	require.NoError(t, ws.Write(ctx, "notes.txt", []byte("hello\nworld\n")))

	data, err := ws.Read(ctx, "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", string(data))
}

func TestLocal_WriteCreatesParents(t *testing.T) {
	dir := t.TempDir()
	ws := NewLocal(dir)
	ctx := context.Background()

	require.NoError(t, ws.Write(ctx, "deep/er/file.go", []byte("package er\n")))

	info, err := os.Stat(filepath.Join(dir, "deep", "er"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	data, err := ws.Read(ctx, "deep/er/file.go")
	require.NoError(t, err)
	assert.Equal(t, "package er\n", string(data))
}

func TestLocal_WriteOverwrites(t *testing.T) {
	ws := NewLocal(t.TempDir())
	ctx := context.Background()

	require.NoError(t, ws.Write(ctx, "a.txt", []byte("a much longer first version")))
	require.NoError(t, ws.Write(ctx, "a.txt", []byte("short")))

	data, err := ws.Read(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "short", string(data))
}

func TestLocal_ReadErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"sub/x.txt": "x"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin.dat"), []byte{0x7f, 'E', 'L', 'F', 0x00, 0x01}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "latin1.txt"), []byte{'c', 'a', 'f', 0xe9}, 0o644))
	ws := NewLocal(dir)
	ctx := context.Background()

	tests := []struct {
		path string
		want error
	}{
		{"missing.txt", agent.ErrNotFound},
		{"sub", agent.ErrNotReadable},
		{"bin.dat", agent.ErrNotReadable},
		{"latin1.txt", agent.ErrNotReadable},
		{"../outside.txt", agent.ErrNotReadable},
		{"/etc/passwd", agent.ErrNotReadable},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, err := ws.Read(ctx, tt.path)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLocal_WriteOutsideRootRefused(t *testing.T) {
	parent := t.TempDir()
	ws := NewLocal(filepath.Join(parent, "root"))

	err := ws.Write(context.Background(), "../escaped.txt", []byte("x"))
	assert.ErrorIs(t, err, agent.ErrNotWritable)

	_, statErr := os.Stat(filepath.Join(parent, "escaped.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocal_WriteIntoFileParentFails(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"file": "x"})
	ws := NewLocal(dir)

	err := ws.Write(context.Background(), "file/child.txt", []byte("y"))
	assert.ErrorIs(t, err, agent.ErrNotWritable)
}

func TestLocal_AbsolutePathInsideRoot(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "A"})
	ws := NewLocal(dir)

	data, err := ws.Read(context.Background(), filepath.Join(ws.Root(), "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "A", string(data))
}

func symlinkOrSkip(t *testing.T, target, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
}

func TestLocal_SymlinkOutsideRootRefused(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	outside := filepath.Join(parent, "outside")
	writeFiles(t, outside, map[string]string{"secret.txt": "TOP SECRET"})
	require.NoError(t, os.MkdirAll(root, 0o755))
	symlinkOrSkip(t, outside, filepath.Join(root, "link"))
	symlinkOrSkip(t, filepath.Join(outside, "secret.txt"), filepath.Join(root, "secret.txt"))
	ws := NewLocal(root)
	ctx := context.Background()

	_, err := ws.Read(ctx, "link/secret.txt")
	assert.ErrorIs(t, err, agent.ErrNotReadable)

	_, err = ws.Read(ctx, "secret.txt")
	assert.ErrorIs(t, err, agent.ErrNotReadable)

	err = ws.Write(ctx, "link/pwned.txt", []byte("x"))
	assert.ErrorIs(t, err, agent.ErrNotWritable)
	_, statErr := os.Stat(filepath.Join(outside, "pwned.txt"))
	assert.True(t, os.IsNotExist(statErr))

	err = ws.Write(ctx, "link/new/deep.txt", []byte("x"))
	assert.ErrorIs(t, err, agent.ErrNotWritable)
	_, statErr = os.Stat(filepath.Join(outside, "new"))
	assert.True(t, os.IsNotExist(statErr))

	_, err = ws.List(ctx, "link", true)
	assert.ErrorIs(t, err, agent.ErrNotFound)
}

func TestLocal_DanglingSymlinkWriteRefused(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	require.NoError(t, os.MkdirAll(root, 0o755))
	target := filepath.Join(parent, "created-by-link.txt")
	symlinkOrSkip(t, target, filepath.Join(root, "dangling.txt"))
	ws := NewLocal(root)

	err := ws.Write(context.Background(), "dangling.txt", []byte("x"))
	assert.ErrorIs(t, err, agent.ErrNotWritable)
	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocal_SymlinkInsideRootAllowed(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"real/a.txt": "A"})
	symlinkOrSkip(t, filepath.Join(dir, "real"), filepath.Join(dir, "alias"))
	ws := NewLocal(dir)
	ctx := context.Background()

	data, err := ws.Read(ctx, "alias/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "A", string(data))

	require.NoError(t, ws.Write(ctx, "alias/b.txt", []byte("B")))
	data, err = os.ReadFile(filepath.Join(dir, "real", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))
}

func TestLocal_ListRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.txt":                     "a",
		"src/main.go":               "package main",
		"src/util/util.go":          "package util",
		".git/config":               "x",
		".env":                      "SECRET=1",
		".github/workflows/ci.yml":  "on: push",
		"node_modules/pkg/index.js": "x",
		"target/debug/bin":          "x",
	})
	ws := NewLocal(dir)

	entries, err := ws.List(context.Background(), ".", true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		".github/",
		".github/workflows/",
		".github/workflows/ci.yml",
		"a.txt",
		"src/",
		"src/main.go",
		"src/util/",
		"src/util/util.go",
	}, entries)
}

func TestLocal_ListShallow(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "a", "src/main.go": "x"})
	ws := NewLocal(dir)

	entries, err := ws.List(context.Background(), "", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "src/"}, entries)
}

func TestLocal_ListSubdirRelative(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"src/main.go": "x", "src/util/u.go": "y"})
	ws := NewLocal(dir)

	entries, err := ws.List(context.Background(), "src", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.go", "util/", "util/u.go"}, entries)
}

func TestLocal_ListIgnorePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.txt":          "a",
		"Cargo.lock":     "x",
		"gen/out.pb.go":  "x",
		"docs/readme.md": "x",
	})
	ws := NewLocal(dir, WithIgnore("*.lock", "gen"))

	entries, err := ws.List(context.Background(), ".", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "docs/", "docs/readme.md"}, entries)
}

func TestLocal_ListEmptyDirIsEmptyArray(t *testing.T) {
	ws := NewLocal(t.TempDir())

	entries, err := ws.List(context.Background(), ".", true)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLocal_ListErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"a.txt": "a"})
	ws := NewLocal(dir)
	ctx := context.Background()

	_, err := ws.List(ctx, "missing", true)
	assert.ErrorIs(t, err, agent.ErrNotFound)

	_, err = ws.List(ctx, "a.txt", true)
	assert.ErrorIs(t, err, agent.ErrNotFound)

	_, err = ws.List(ctx, "..", true)
	assert.ErrorIs(t, err, agent.ErrNotFound)
}

func TestLocal_CancelledContext(t *testing.T) {
	ws := NewLocal(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ws.Read(ctx, "a.txt")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, agent.ErrNotReadable)

	err = ws.Write(ctx, "a.txt", nil)
	assert.ErrorIs(t, err, agent.ErrNotWritable)
}
