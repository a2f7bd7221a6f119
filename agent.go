package agent

// Agent is a stateless execution engine that holds a model client, the tool
// registry and configuration. The same Agent can be shared across goroutines
// as long as each Conversation is driven by one caller at a time.
type Agent struct {
	client ModelClient
	tools  *ToolRegistry
	opts   agentOptions
}

// NewAgent creates an Agent that talks to client and dispatches tool calls
// through tools. A nil registry is replaced with an empty one.
func NewAgent(client ModelClient, tools *ToolRegistry, opts ...AgentOption) *Agent {
	if tools == nil {
		tools = NewToolRegistry()
	}
	return &Agent{
		client: client,
		tools:  tools,
		opts:   resolveOptions(opts),
	}
}

// Tools returns the agent's tool registry.
func (a *Agent) Tools() *ToolRegistry {
	return a.tools
}

// ModelName returns the model client's label.
func (a *Agent) ModelName() string {
	return a.client.Name()
}

// MaxRounds returns the resolved round bound.
func (a *Agent) MaxRounds() int {
	return a.opts.maxRounds
}

// SystemPrompt returns the resolved system prompt.
func (a *Agent) SystemPrompt() string {
	return a.opts.systemPrompt
}
