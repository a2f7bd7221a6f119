// Package agent implements a tool-calling conversation loop between a remote
// language model and the local filesystem.
//
// A user message is appended to a [Conversation]; the [Agent] then asks a
// [ModelClient] for either final text or a batch of tool calls. Tool calls
// are dispatched through a [ToolRegistry] and their results appended as a
// single tool_result turn before the model is asked again. The loop is
// bounded by [WithMaxRounds].
//
//   - [Agent] is a stateless execution engine that holds the client, tools and config.
//   - [Client] is a stateful session container wrapping an Agent and one Conversation.
//
// # Quick Start
//
//	registry := agent.NewToolRegistry()
//	_ = tools.RegisterAll(registry, workspace.NewLocal("."))
//	client, _ := provider.New(ctx, cfg)
//	a := agent.NewAgent(client, registry)
//	text, err := agent.NewClient(a).Query(ctx, "list files in .")
//
// # Sub-packages
//
//   - [github.com/FarhanAliRaza/Mardown-rs/provider] builds ModelClients for each vendor.
//   - [github.com/FarhanAliRaza/Mardown-rs/tools] provides read_file, list_files and edit_file.
//   - [github.com/FarhanAliRaza/Mardown-rs/workspace] provides the filesystem capability.
//   - [github.com/FarhanAliRaza/Mardown-rs/flatten] renders a directory as one markdown document.
package agent
