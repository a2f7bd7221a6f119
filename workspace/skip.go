package workspace

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// skippedDirs are build and dependency directories that never hold sources
// worth showing to a model.
var skippedDirs = map[string]bool{
	"target":       true,
	"node_modules": true,
	"venv":         true,
	"__pycache__":  true,
}

// ShouldSkip reports whether any component of the relative path rel is hidden
// (other than .github) or a build/dependency directory.
func ShouldSkip(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == "" || part == "." || part == ".." {
			continue
		}
		if strings.HasPrefix(part, ".") && part != ".github" {
			return true
		}
		if skippedDirs[part] {
			return true
		}
	}
	return false
}

// MatchAny reports whether the slash-separated path matches one of patterns.
// Patterns without a slash also match against the base name, so "*.lock"
// excludes lock files at any depth.
func MatchAny(patterns []string, path string) bool {
	base := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		base = path[i+1:]
	}
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(pattern, base); ok {
				return true
			}
		}
	}
	return false
}

func (l *Local) ignored(rel string) bool {
	return len(l.ignore) > 0 && MatchAny(l.ignore, rel)
}
