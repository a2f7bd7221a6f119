package workspace

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	agent "github.com/FarhanAliRaza/Mardown-rs"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Local is a Provider backed by the host filesystem under a root directory.
type Local struct {
	root   string
	ignore []string
}

var _ Provider = (*Local)(nil)

// Option configures a Local workspace.
type Option func(*Local)

// WithIgnore adds doublestar patterns, matched against slash-separated paths
// relative to the root, whose entries are left out of listings.
func WithIgnore(patterns ...string) Option {
	return func(l *Local) { l.ignore = append(l.ignore, patterns...) }
}

// NewLocal creates a workspace rooted at root.
func NewLocal(root string, opts ...Option) *Local {
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}
	l := &Local{root: filepath.Clean(root)}
	for _, fn := range opts {
		fn(l)
	}
	return l
}

// Root returns the absolute root directory.
func (l *Local) Root() string { return l.root }

// resolve maps a tool-supplied path to an absolute path inside the root.
func (l *Local) resolve(path string) (string, error) {
	if path == "" {
		path = "."
	}
	var abs string
	if filepath.IsAbs(path) {
		abs = filepath.Clean(path)
	} else {
		abs = filepath.Join(l.root, path)
	}
	if !within(l.root, abs) {
		return "", fmt.Errorf("path %s is outside the workspace", path)
	}

	// Symlinks are followed before the check so a link cannot leave the root.
	root, err := evalExisting(l.root)
	if err != nil {
		root = l.root
	}
	resolved, err := evalExisting(abs)
	if err != nil {
		return "", fmt.Errorf("path %s: %v", path, err)
	}
	if !within(root, resolved) {
		return "", fmt.Errorf("path %s is outside the workspace", path)
	}
	return abs, nil
}

func within(root, abs string) bool {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// evalExisting resolves the symlinks of the deepest existing ancestor of abs
// and appends the components that do not exist yet.
func evalExisting(abs string) (string, error) {
	var tail []string
	p := abs
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		if _, lerr := os.Lstat(p); lerr == nil {
			return "", fmt.Errorf("%s is a dangling symlink", p)
		}
		parent := filepath.Dir(p)
		if parent == p {
			return abs, nil
		}
		tail = append(tail, filepath.Base(p))
		p = parent
	}
}

func (l *Local) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", agent.ErrNotReadable, err)
	}
	abs, err := l.resolve(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agent.ErrNotReadable, err)
	}

	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", agent.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agent.ErrNotReadable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", agent.ErrNotReadable, path)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agent.ErrNotReadable, err)
	}
	if IsBinary(data) {
		return nil, fmt.Errorf("%w: %s is not a text file", agent.ErrNotReadable, path)
	}
	return data, nil
}

func (l *Local) List(ctx context.Context, path string, recursive bool) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", agent.ErrNotFound, err)
	}
	abs, err := l.resolve(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agent.ErrNotFound, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", agent.ErrNotFound, path)
	}

	var entries []string
	err = filepath.WalkDir(abs, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if p == abs {
				return walkErr
			}
			// Unreadable subtrees are left out rather than failing the listing.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == abs {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, _ := filepath.Rel(abs, p)
		rootRel, _ := filepath.Rel(l.root, p)
		if ShouldSkip(rel) || l.ignored(filepath.ToSlash(rootRel)) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		name := filepath.ToSlash(rel)
		if d.IsDir() {
			entries = append(entries, name+"/")
			if !recursive {
				return fs.SkipDir
			}
			return nil
		}
		entries = append(entries, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", agent.ErrNotFound, err)
	}

	sort.Strings(entries)
	if entries == nil {
		entries = []string{}
	}
	return entries, nil
}

func (l *Local) Write(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", agent.ErrNotWritable, err)
	}
	if path == "" {
		return fmt.Errorf("%w: path is empty", agent.ErrNotWritable)
	}
	abs, err := l.resolve(path)
	if err != nil {
		return fmt.Errorf("%w: %v", agent.ErrNotWritable, err)
	}
	if abs == l.root {
		return fmt.Errorf("%w: %s is the workspace root", agent.ErrNotWritable, path)
	}

	if err := os.MkdirAll(filepath.Dir(abs), dirPerm); err != nil {
		return fmt.Errorf("%w: failed to create directory: %v", agent.ErrNotWritable, err)
	}
	if err := os.WriteFile(abs, content, filePerm); err != nil {
		return fmt.Errorf("%w: %v", agent.ErrNotWritable, err)
	}
	return nil
}

// IsBinary reports whether data looks like something other than UTF-8 text.
func IsBinary(data []byte) bool {
	return bytes.IndexByte(data, 0) >= 0 || !utf8.Valid(data)
}
