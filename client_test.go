package agent

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingClient waits on release before answering, so tests can observe a
// call in flight.
type blockingClient struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingClient() *blockingClient {
	return &blockingClient{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (c *blockingClient) Name() string { return "blocking" }

func (c *blockingClient) Complete(ctx context.Context, req ModelRequest) (ModelResponse, error) {
	c.started <- struct{}{}
	select {
	case <-ctx.Done():
		return ModelResponse{}, ctx.Err()
	case <-c.release:
		return FinalText("released"), nil
	}
}

func TestNewClient_CreatesConversation(t *testing.T) {
	a := NewAgent(&scriptedClient{}, nil)
	c := NewClient(a)

	assert.Same(t, a, c.Agent())
	assert.NotEmpty(t, c.ConversationID())
	assert.Empty(t, c.Transcript())
}

func TestClient_QueryKeepsHistory(t *testing.T) {
	client := &scriptedClient{responses: []ModelResponse{FinalText("one"), FinalText("two")}}
	c := NewClient(NewAgent(client, nil))

	text, err := c.Query(context.Background(), "first")
	require.NoError(t, err)
	assert.Equal(t, "one", text)

	text, err = c.Query(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, "two", text)

	assert.Len(t, c.Transcript(), 4)
	require.Len(t, client.requests, 2)
	assert.Len(t, client.requests[1].Turns, 3)
}

func TestClient_ResumeAfterFailure(t *testing.T) {
	client := &scriptedClient{
		errs:      []error{NewVendorError("stub", 429, "slow down")},
		responses: []ModelResponse{{}, FinalText("recovered")},
	}
	c := NewClient(NewAgent(client, nil))

	_, err := c.Query(context.Background(), "hi")
	require.ErrorIs(t, err, ErrRateLimited)

	text, err := c.Resume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
	assert.Len(t, c.Transcript(), 2)
}

func TestClient_Interrupt(t *testing.T) {
	model := newBlockingClient()
	c := NewClient(NewAgent(model, nil))

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Query(context.Background(), "wait")
		errCh <- err
	}()

	<-model.started
	c.Interrupt()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("query did not return after Interrupt")
	}

	// Only the user turn survives the cancelled round.
	assert.Len(t, c.Transcript(), 1)
}

func TestClient_InterruptWithoutQuery(t *testing.T) {
	c := NewClient(NewAgent(&scriptedClient{}, nil))
	assert.NotPanics(t, c.Interrupt)
}

func TestClient_QueriesSerialized(t *testing.T) {
	model := newBlockingClient()
	c := NewClient(NewAgent(model, nil))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Query(context.Background(), "hello")
		}()
	}

	<-model.started
	select {
	case <-model.started:
		t.Fatal("second query reached the model while the first was running")
	case <-time.After(50 * time.Millisecond):
	}

	model.release <- struct{}{}
	<-model.started
	model.release <- struct{}{}
	wg.Wait()

	turns := c.Transcript()
	require.Len(t, turns, 4)
	assert.NoError(t, validateTurns(turns))
}

func TestClient_Reset(t *testing.T) {
	c := NewClient(NewAgent(&scriptedClient{}, nil))
	_, err := c.Query(context.Background(), "hi")
	require.NoError(t, err)
	before := c.ConversationID()

	time.Sleep(time.Millisecond)
	c.Reset()

	assert.NotEqual(t, before, c.ConversationID())
	assert.Empty(t, c.Transcript())
}

func TestClient_Fork_IndependentConversation(t *testing.T) {
	c := NewClient(NewAgent(&scriptedClient{}, nil))
	_, err := c.Query(context.Background(), "hello")
	require.NoError(t, err)

	forked := c.Fork()
	assert.NotEqual(t, c.ConversationID(), forked.ConversationID())
	assert.Same(t, c.Agent(), forked.Agent())
	require.Len(t, forked.Transcript(), 2)

	_, err = forked.Query(context.Background(), "only in fork")
	require.NoError(t, err)

	assert.Len(t, c.Transcript(), 2)
	assert.Len(t, forked.Transcript(), 4)
}

func validateTurns(turns []Turn) error {
	conv := &Conversation{turns: turns}
	return conv.Validate()
}
