package tools

import (
	agent "github.com/FarhanAliRaza/Mardown-rs"
	"github.com/FarhanAliRaza/Mardown-rs/workspace"
)

// RegisterAll registers all built-in tools into the provided registry.
func RegisterAll(registry *agent.ToolRegistry, ws workspace.Provider) error {
	if err := agent.RegisterTool(registry, &ReadFileTool{Workspace: ws}); err != nil {
		return err
	}
	if err := agent.RegisterTool(registry, &ListFilesTool{Workspace: ws}); err != nil {
		return err
	}
	return agent.RegisterTool(registry, &EditFileTool{Workspace: ws})
}
