package tools

import (
	"context"
	"fmt"

	agent "github.com/FarhanAliRaza/Mardown-rs"
	"github.com/FarhanAliRaza/Mardown-rs/workspace"
)

// EditFileInput defines the input for the edit_file tool.
type EditFileInput struct {
	Path    string `json:"path" jsonschema:"required,description=The relative path of the file to write"`
	Content string `json:"content" jsonschema:"required,description=The complete new content of the file"`
}

// EditFileTool replaces a file's content entirely, creating the file and any
// missing parent directories.
type EditFileTool struct {
	Workspace workspace.Provider
}

var _ agent.Tool[EditFileInput] = (*EditFileTool)(nil)

func (t *EditFileTool) Name() string { return "edit_file" }
func (t *EditFileTool) Description() string {
	return "Write a file. The file is created if it does not exist, including missing parent directories, and overwritten entirely if it does. Always supply the complete desired content."
}

func (t *EditFileTool) Execute(ctx context.Context, input EditFileInput) (string, error) {
	if err := t.Workspace.Write(ctx, input.Path, []byte(input.Content)); err != nil {
		return "", err
	}
	return fmt.Sprintf("OK: wrote %d bytes to %s", len(input.Content), input.Path), nil
}
