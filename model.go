package agent

import "context"

// ModelClient turns a transcript plus tool specs into either final text or a
// batch of tool calls. Implementations live in the provider packages.
//
// Complete must not retry. Failures wrap ErrTransport, ErrAuth,
// ErrRateLimited or ErrMalformedResponse.
type ModelClient interface {
	Name() string
	Complete(ctx context.Context, req ModelRequest) (ModelResponse, error)
}

// ModelRequest is everything a vendor needs for one round.
type ModelRequest struct {
	SystemPrompt string
	Turns        []Turn
	Tools        []ToolSpec
}

// ModelResponse is the outcome of one model call. Text may accompany tool
// calls; the response is final only when there are none.
type ModelResponse struct {
	Text      string
	ToolCalls []ToolCallRequest
}

// FinalText is a response with text and no tool calls.
func FinalText(text string) ModelResponse {
	return ModelResponse{Text: text}
}

// IsFinal reports whether the response ends the turn.
func (r ModelResponse) IsFinal() bool { return len(r.ToolCalls) == 0 }

// assistantTurn renders the response as a transcript entry.
func (r ModelResponse) assistantTurn() Turn {
	t := Turn{Role: RoleAssistant}
	if r.Text != "" || r.IsFinal() {
		t.Content = append(t.Content, TextBlock(r.Text))
	}
	for _, call := range r.ToolCalls {
		t.Content = append(t.Content, ToolCallBlock(call))
	}
	return t
}
