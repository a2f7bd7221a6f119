package agent

import (
	"io"
	"log/slog"
)

// AgentOption configures an Agent via the functional options pattern.
type AgentOption func(*agentOptions)

// agentOptions holds all configurable fields set via AgentOption functions.
type agentOptions struct {
	maxRounds    int
	systemPrompt string
	logger       *slog.Logger
	sink         EventSink
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (o *agentOptions) applyDefaults() {
	if o.maxRounds <= 0 {
		o.maxRounds = DefaultMaxRounds
	}
	if o.systemPrompt == "" {
		o.systemPrompt = DefaultSystemPrompt
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
}

// resolveOptions applies all option functions and fills defaults.
func resolveOptions(opts []AgentOption) agentOptions {
	var o agentOptions
	for _, fn := range opts {
		fn(&o)
	}
	o.applyDefaults()
	return o
}

// WithMaxRounds bounds the model calls per user turn. Values below 1 select
// DefaultMaxRounds.
func WithMaxRounds(n int) AgentOption {
	return func(o *agentOptions) { o.maxRounds = n }
}

// WithSystemPrompt sets the instruction sent with every model call.
func WithSystemPrompt(prompt string) AgentOption {
	return func(o *agentOptions) { o.systemPrompt = prompt }
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) AgentOption {
	return func(o *agentOptions) { o.logger = logger }
}

// WithEventSink registers a sink for loop progress. Repeated use fans out to
// every sink.
func WithEventSink(sink EventSink) AgentOption {
	return func(o *agentOptions) {
		switch existing := o.sink.(type) {
		case nil:
			o.sink = sink
		case MultiSink:
			o.sink = append(existing, sink)
		default:
			o.sink = MultiSink{existing, sink}
		}
	}
}
