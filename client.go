package agent

import (
	"context"
	"sync"
)

// Client is a stateful session container that wraps an Agent.
// It owns one Conversation and serializes calls against it.
type Client struct {
	agent *Agent

	run sync.Mutex // held for the duration of Query and Resume

	mu     sync.Mutex
	conv   *Conversation
	cancel context.CancelFunc // cancel for current call
}

// NewClient creates a Client with a fresh conversation.
func NewClient(a *Agent) *Client {
	return &Client{
		agent: a,
		conv:  NewConversation(),
	}
}

// Query sends a prompt to the agent within the client's ongoing conversation.
// Concurrent calls wait for each other.
func (c *Client) Query(ctx context.Context, prompt string) (string, error) {
	c.run.Lock()
	defer c.run.Unlock()

	ctx, conv, done := c.begin(ctx)
	defer done()
	return c.agent.RunTurn(ctx, conv, prompt)
}

// Resume retries the pending round of the conversation, typically after
// ErrRateLimited or ErrTransport.
func (c *Client) Resume(ctx context.Context) (string, error) {
	c.run.Lock()
	defer c.run.Unlock()

	ctx, conv, done := c.begin(ctx)
	defer done()
	return c.agent.Resume(ctx, conv)
}

func (c *Client) begin(ctx context.Context) (context.Context, *Conversation, func()) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	conv := c.conv
	c.mu.Unlock()

	return ctx, conv, func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancel()
	}
}

// Interrupt cancels the currently running call, if any.
func (c *Client) Interrupt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Reset starts a new conversation once any running call has finished.
func (c *Client) Reset() {
	c.run.Lock()
	defer c.run.Unlock()

	c.mu.Lock()
	c.conv = NewConversation()
	c.mu.Unlock()
}

// Fork creates a new Client that shares the same Agent but has a cloned
// conversation.
func (c *Client) Fork() *Client {
	c.run.Lock()
	defer c.run.Unlock()

	c.mu.Lock()
	cloned := c.conv.Clone()
	c.mu.Unlock()

	return &Client{
		agent: c.agent,
		conv:  cloned,
	}
}

// Transcript returns a copy of the conversation turns. It waits for a
// running call to finish.
func (c *Client) Transcript() []Turn {
	c.run.Lock()
	defer c.run.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.Turns()
}

// ConversationID returns the ID of the current conversation.
func (c *Client) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv.ID
}

// Agent returns the underlying Agent.
func (c *Client) Agent() *Agent {
	return c.agent
}
