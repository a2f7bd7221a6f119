// Package tools provides the built-in tools a model can call: read_file,
// list_files and edit_file. Each acts through a workspace.Provider.
//
// Use [RegisterAll] to register them:
//
//	tools.RegisterAll(registry, workspace.NewLocal("."))
package tools
