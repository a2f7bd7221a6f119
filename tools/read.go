package tools

import (
	"context"

	agent "github.com/FarhanAliRaza/Mardown-rs"
	"github.com/FarhanAliRaza/Mardown-rs/workspace"
)

// ReadFileInput defines the input for the read_file tool.
type ReadFileInput struct {
	Path string `json:"path" jsonschema:"required,description=The relative path of a file in the working directory"`
}

// ReadFileTool returns the full text content of a file.
type ReadFileTool struct {
	Workspace workspace.Provider
}

var _ agent.Tool[ReadFileInput] = (*ReadFileTool)(nil)

func (t *ReadFileTool) Name() string { return "read_file" }
func (t *ReadFileTool) Description() string {
	return "Read the contents of a given relative file path. Use this when you want to see what's inside a file. Do not use this with directory names."
}

func (t *ReadFileTool) Execute(ctx context.Context, input ReadFileInput) (string, error) {
	data, err := t.Workspace.Read(ctx, input.Path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
