package flatten

import (
	"path"
	"strings"
)

var languages = map[string]string{
	"go":    "go",
	"rs":    "rust",
	"py":    "python",
	"js":    "javascript",
	"jsx":   "jsx",
	"ts":    "typescript",
	"tsx":   "tsx",
	"rb":    "ruby",
	"java":  "java",
	"kt":    "kotlin",
	"c":     "c",
	"h":     "c",
	"cc":    "cpp",
	"cpp":   "cpp",
	"hpp":   "cpp",
	"cs":    "csharp",
	"sh":    "bash",
	"bash":  "bash",
	"md":    "markdown",
	"yml":   "yaml",
	"yaml":  "yaml",
	"toml":  "toml",
	"json":  "json",
	"html":  "html",
	"css":   "css",
	"sql":   "sql",
	"proto": "protobuf",
}

var specialNames = map[string]string{
	"Dockerfile": "dockerfile",
	"Makefile":   "makefile",
	"go.mod":     "go",
}

// Language returns the code fence info string for a file name, falling back
// to the bare extension.
func Language(name string) string {
	base := path.Base(name)
	if lang, ok := specialNames[base]; ok {
		return lang
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(base), "."))
	if lang, ok := languages[ext]; ok {
		return lang
	}
	return ext
}
