package tools

import (
	"context"
	"encoding/json"
	"fmt"

	agent "github.com/FarhanAliRaza/Mardown-rs"
	"github.com/FarhanAliRaza/Mardown-rs/workspace"
)

// ListFilesInput defines the input for the list_files tool.
type ListFilesInput struct {
	Path string `json:"path,omitempty" jsonschema:"description=Optional relative path to list files from. Defaults to the current directory."`
}

// ListFilesTool lists a directory recursively as a JSON array.
type ListFilesTool struct {
	Workspace workspace.Provider
}

var _ agent.Tool[ListFilesInput] = (*ListFilesTool)(nil)

func (t *ListFilesTool) Name() string { return "list_files" }
func (t *ListFilesTool) Description() string {
	return "List files and directories at a given path, recursively. Directories end with a slash. If no path is provided, lists files in the current directory."
}

func (t *ListFilesTool) Execute(ctx context.Context, input ListFilesInput) (string, error) {
	path := input.Path
	if path == "" {
		path = "."
	}
	entries, err := t.Workspace.List(ctx, path, true)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("failed to serialize file list: %w", err)
	}
	return string(b), nil
}
