package agent

const (
	// DefaultMaxRounds bounds the model calls made for one user turn.
	DefaultMaxRounds = 25

	// DefaultSystemPrompt is used when no system prompt is configured.
	DefaultSystemPrompt = "You are a helpful assistant."
)
