package agent

import (
	"fmt"
	"strings"
	"time"
)

// Role attributes a Turn to one side of the conversation.
type Role string

const (
	RoleUser       Role = "user"
	RoleAssistant  Role = "assistant"
	RoleToolResult Role = "tool_result"
)

// BlockType identifies the payload of a ContentBlock.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockToolCall   BlockType = "tool_call"
	BlockToolResult BlockType = "tool_result"
)

// ToolCallRequest is a tool invocation requested by the model.
type ToolCallRequest struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolCallResult answers exactly one ToolCallRequest. Err is nil on success;
// otherwise it wraps one of the taxonomy sentinels and Output holds the
// description shown to the model.
type ToolCallResult struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
	Output string `json:"output"`
	Err    error  `json:"-"`
}

// IsError reports whether the result carries an error payload.
func (r ToolCallResult) IsError() bool { return r.Err != nil }

// ContentBlock is one element of a Turn.
type ContentBlock struct {
	Type       BlockType        `json:"type"`
	Text       string           `json:"text,omitempty"`
	ToolCall   *ToolCallRequest `json:"tool_call,omitempty"`
	ToolResult *ToolCallResult  `json:"tool_result,omitempty"`
}

// TextBlock is a convenience constructor for a text block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: text}
}

// ToolCallBlock wraps a tool call request.
func ToolCallBlock(call ToolCallRequest) ContentBlock {
	return ContentBlock{Type: BlockToolCall, ToolCall: &call}
}

// ToolResultBlock wraps a tool call result.
func ToolResultBlock(result ToolCallResult) ContentBlock {
	return ContentBlock{Type: BlockToolResult, ToolResult: &result}
}

// Turn is one transcript entry.
type Turn struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Text concatenates the text blocks of the turn.
func (t Turn) Text() string {
	var sb strings.Builder
	for _, b := range t.Content {
		if b.Type == BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ToolCalls returns the tool call requests of the turn in order.
func (t Turn) ToolCalls() []ToolCallRequest {
	var calls []ToolCallRequest
	for _, b := range t.Content {
		if b.Type == BlockToolCall && b.ToolCall != nil {
			calls = append(calls, *b.ToolCall)
		}
	}
	return calls
}

// ToolResults returns the tool call results of the turn in order.
func (t Turn) ToolResults() []ToolCallResult {
	var results []ToolCallResult
	for _, b := range t.Content {
		if b.Type == BlockToolResult && b.ToolResult != nil {
			results = append(results, *b.ToolResult)
		}
	}
	return results
}

// Conversation is the append-only transcript of one interactive session.
// It is not safe for concurrent use; Client serializes access.
type Conversation struct {
	ID        string
	CreatedAt time.Time

	turns []Turn
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{
		ID:        generateID(PrefixConversation),
		CreatedAt: time.Now(),
	}
}

// Turns returns a copy of the transcript.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	for i, t := range c.turns {
		out[i] = cloneTurn(t)
	}
	return out
}

// Len returns the number of turns.
func (c *Conversation) Len() int { return len(c.turns) }

// Last returns the most recent turn.
func (c *Conversation) Last() (Turn, bool) {
	if len(c.turns) == 0 {
		return Turn{}, false
	}
	return cloneTurn(c.turns[len(c.turns)-1]), true
}

// Clone returns a deep copy of the conversation with a new ID.
func (c *Conversation) Clone() *Conversation {
	return &Conversation{
		ID:        generateID(PrefixConversation),
		CreatedAt: time.Now(),
		turns:     c.Turns(),
	}
}

// Validate checks the tool-result pairing invariant over the whole transcript.
func (c *Conversation) Validate() error {
	for i, t := range c.turns {
		var prev *Turn
		if i > 0 {
			prev = &c.turns[i-1]
		}
		if err := checkTurn(prev, t); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
	}
	return nil
}

// append adds t after checking it against the current last turn.
func (c *Conversation) append(t Turn) error {
	var prev *Turn
	if n := len(c.turns); n > 0 {
		prev = &c.turns[n-1]
	}
	if err := checkTurn(prev, t); err != nil {
		return err
	}
	c.turns = append(c.turns, cloneTurn(t))
	return nil
}

// truncate drops every turn after the first n.
func (c *Conversation) truncate(n int) {
	if n < len(c.turns) {
		c.turns = c.turns[:n]
	}
}

func checkTurn(prev *Turn, t Turn) error {
	pending := 0
	if prev != nil && prev.Role == RoleAssistant {
		pending = len(prev.ToolCalls())
	}
	switch t.Role {
	case RoleUser, RoleAssistant:
		if pending > 0 {
			return fmt.Errorf("%s turn follows %d unanswered tool calls", t.Role, pending)
		}
		return nil
	case RoleToolResult:
		if pending == 0 {
			return fmt.Errorf("tool_result turn without pending tool calls")
		}
		calls := prev.ToolCalls()
		results := t.ToolResults()
		if len(results) != len(calls) || len(results) != len(t.Content) {
			return fmt.Errorf("tool_result turn has %d results for %d calls", len(results), len(calls))
		}
		for i := range calls {
			if results[i].CallID != calls[i].ID {
				return fmt.Errorf("result %d answers %q, want %q", i, results[i].CallID, calls[i].ID)
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown role %q", t.Role)
	}
}

func cloneTurn(t Turn) Turn {
	blocks := make([]ContentBlock, len(t.Content))
	for i, b := range t.Content {
		if b.ToolCall != nil {
			call := *b.ToolCall
			call.Arguments = cloneArgs(call.Arguments)
			b.ToolCall = &call
		}
		if b.ToolResult != nil {
			result := *b.ToolResult
			b.ToolResult = &result
		}
		blocks[i] = b
	}
	return Turn{Role: t.Role, Content: blocks}
}

func cloneArgs(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
