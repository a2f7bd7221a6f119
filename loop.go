package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RunTurn appends userText to conv and alternates model calls with tool
// dispatch until the model answers without tool calls. It returns that
// answer.
//
// Model client failures end the call and are returned wrapped in their
// taxonomy sentinel. Tool failures never end the call; they are reported to
// the model as error results. Exceeding the round bound returns
// ErrRoundLimitExceeded with the transcript kept intact.
func (a *Agent) RunTurn(ctx context.Context, conv *Conversation, userText string) (string, error) {
	if conv == nil {
		return "", fmt.Errorf("%w: nil conversation", ErrInvalidInput)
	}
	if strings.TrimSpace(userText) == "" {
		return "", fmt.Errorf("%w: empty message", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	user := Turn{Role: RoleUser, Content: []ContentBlock{TextBlock(userText)}}
	if err := conv.append(user); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return a.run(ctx, conv)
}

// Resume re-enters the round loop without adding a user turn. It is used to
// retry after a transport failure, and requires the transcript to end in a
// user or tool_result turn.
func (a *Agent) Resume(ctx context.Context, conv *Conversation) (string, error) {
	if conv == nil {
		return "", fmt.Errorf("%w: nil conversation", ErrInvalidInput)
	}
	last, ok := conv.Last()
	if !ok || (last.Role != RoleUser && last.Role != RoleToolResult) {
		return "", fmt.Errorf("%w: nothing to resume", ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return a.run(ctx, conv)
}

func (a *Agent) run(ctx context.Context, conv *Conversation) (string, error) {
	start := time.Now()
	log := a.opts.logger.With("conversation", conv.ID, "model", a.client.Name())
	specs := a.tools.Specs()
	rounds := 0

	finish := func(subtype, text string, err error) (string, error) {
		if err != nil {
			log.Warn("turn ended", "outcome", subtype, "rounds", rounds, "error", err)
		} else {
			log.Debug("turn ended", "outcome", subtype, "rounds", rounds)
		}
		if a.opts.sink != nil {
			a.opts.sink.OnResult(ResultInfo{
				Subtype:        subtype,
				ConversationID: conv.ID,
				Rounds:         rounds,
				Duration:       time.Since(start),
				Text:           text,
				Err:            err,
			})
		}
		return text, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(ResultCancelled, "", err)
		}
		if rounds >= a.opts.maxRounds {
			return finish(ResultMaxRounds, "",
				fmt.Errorf("%w: stopped after %d rounds", ErrRoundLimitExceeded, rounds))
		}
		rounds++
		log.Debug("round start", "round", rounds, "turns", conv.Len())

		resp, err := a.client.Complete(ctx, ModelRequest{
			SystemPrompt: a.opts.systemPrompt,
			Turns:        conv.Turns(),
			Tools:        specs,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return finish(ResultCancelled, "", ctxErr)
			}
			if !isTaxonomyError(err) {
				err = fmt.Errorf("%w: %v", ErrTransport, err)
			}
			return finish(ResultModelError, "", err)
		}

		for i := range resp.ToolCalls {
			if resp.ToolCalls[i].ID == "" {
				resp.ToolCalls[i].ID = generateID(PrefixToolCall)
			}
		}

		mark := conv.Len()
		assistant := resp.assistantTurn()
		if err := conv.append(assistant); err != nil {
			return finish(ResultModelError, "", fmt.Errorf("%w: %v", ErrMalformedResponse, err))
		}
		if a.opts.sink != nil {
			a.opts.sink.OnAssistant(assistant)
		}

		if resp.IsFinal() {
			return finish(ResultSuccess, resp.Text, nil)
		}

		results := a.dispatch(ctx, log, resp.ToolCalls)
		reply := Turn{Role: RoleToolResult, Content: make([]ContentBlock, 0, len(results))}
		for _, r := range results {
			reply.Content = append(reply.Content, ToolResultBlock(r))
		}
		if err := conv.append(reply); err != nil {
			// Never leave an assistant turn with unanswered calls behind.
			conv.truncate(mark)
			return finish(ResultModelError, "", fmt.Errorf("%w: %v", ErrMalformedResponse, err))
		}
	}
}

// dispatch runs calls in request order on the calling goroutine.
func (a *Agent) dispatch(ctx context.Context, log *slog.Logger, calls []ToolCallRequest) []ToolCallResult {
	results := make([]ToolCallResult, 0, len(calls))
	for _, call := range calls {
		began := time.Now()
		result := a.tools.Dispatch(ctx, call)
		elapsed := time.Since(began)

		if result.IsError() {
			log.Info("tool failed", "tool", call.Name, "call_id", call.ID, "elapsed", elapsed, "error", result.Err)
		} else {
			log.Debug("tool done", "tool", call.Name, "call_id", call.ID, "elapsed", elapsed, "bytes", len(result.Output))
		}
		if a.opts.sink != nil {
			a.opts.sink.OnToolResult(call, result, elapsed)
		}
		results = append(results, result)
	}
	return results
}
