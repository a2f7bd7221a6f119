// Package anthropic adapts the Anthropic Messages API to agent.ModelClient.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"

	agent "github.com/FarhanAliRaza/Mardown-rs"
)

const (
	// DefaultModel is the Claude model used when none is configured.
	DefaultModel = "claude-3-7-sonnet-20250219"

	// DefaultMaxTokens caps each response.
	DefaultMaxTokens = 4096

	vendorName = "claude"

	// emptyResultPlaceholder stands in for empty tool output, which the API rejects.
	emptyResultPlaceholder = "(no output)"
)

// Config configures the adapter.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// Client implements agent.ModelClient on top of anthropic-sdk-go.
type Client struct {
	api       sdk.Client
	model     string
	maxTokens int
}

var _ agent.ModelClient = (*Client)(nil)

// New creates a Client. A missing API key is agent.ErrAuth and no request
// is made.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key is empty", agent.ErrAuth)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	// Retries belong to the caller.
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &Client{
		api:       sdk.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Name returns the configured model.
func (c *Client) Name() string { return c.model }

func (c *Client) Complete(ctx context.Context, req agent.ModelRequest) (agent.ModelResponse, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages:  convertTurns(req.Turns),
	}
	if req.SystemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if len(req.Tools) > 0 {
		params.Tools = convertTools(req.Tools)
	}

	msg, err := c.api.Messages.New(ctx, params)
	if err != nil {
		return agent.ModelResponse{}, classify(ctx, err)
	}
	return parseMessage(msg)
}

// convertTurns maps the transcript onto Messages API roles. Tool results
// travel in a user message.
func convertTurns(turns []agent.Turn) []sdk.MessageParam {
	msgs := make([]sdk.MessageParam, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case agent.RoleUser:
			msgs = append(msgs, sdk.NewUserMessage(sdk.NewTextBlock(turn.Text())))
		case agent.RoleAssistant:
			var blocks []sdk.ContentBlockParamUnion
			if text := turn.Text(); text != "" {
				blocks = append(blocks, sdk.NewTextBlock(text))
			}
			for _, call := range turn.ToolCalls() {
				input := call.Arguments
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, sdk.NewToolUseBlock(call.ID, input, call.Name))
			}
			if len(blocks) == 0 {
				blocks = append(blocks, sdk.NewTextBlock(emptyResultPlaceholder))
			}
			msgs = append(msgs, sdk.NewAssistantMessage(blocks...))
		case agent.RoleToolResult:
			var blocks []sdk.ContentBlockParamUnion
			for _, r := range turn.ToolResults() {
				out := r.Output
				if out == "" {
					out = emptyResultPlaceholder
				}
				blocks = append(blocks, sdk.NewToolResultBlock(r.CallID, out, r.IsError()))
			}
			msgs = append(msgs, sdk.NewUserMessage(blocks...))
		}
	}
	return msgs
}

func convertTools(specs []agent.ToolSpec) []sdk.ToolUnionParam {
	tools := make([]sdk.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        spec.Name,
				Description: param.NewOpt(spec.Description),
				InputSchema: sdk.ToolInputSchemaParam{
					Properties: spec.InputSchema.PropertiesMap(),
					Required:   spec.InputSchema.Required,
				},
			},
		})
	}
	return tools
}

func parseMessage(msg *sdk.Message) (agent.ModelResponse, error) {
	if msg == nil {
		return agent.ModelResponse{}, fmt.Errorf("%w: empty message", agent.ErrMalformedResponse)
	}
	var resp agent.ModelResponse
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			resp.Text += block.Text
		case "tool_use":
			toolUse := block.AsToolUse()
			args := map[string]any{}
			if len(toolUse.Input) > 0 {
				if err := json.Unmarshal(toolUse.Input, &args); err != nil {
					return agent.ModelResponse{}, fmt.Errorf("%w: tool %s input: %v", agent.ErrMalformedResponse, toolUse.Name, err)
				}
			}
			resp.ToolCalls = append(resp.ToolCalls, agent.ToolCallRequest{
				ID:        toolUse.ID,
				Name:      toolUse.Name,
				Arguments: args,
			})
		}
	}
	return resp, nil
}

// classify maps SDK failures onto the agent error taxonomy.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		ve := agent.NewVendorError(vendorName, apiErr.StatusCode, apiErr.Error())
		if apiErr.Response != nil {
			ve.RetryAfter = agent.ParseRetryAfter(apiErr.Response.Header.Get("retry-after"))
		}
		return ve
	}
	return &agent.VendorError{Vendor: vendorName, Message: err.Error(), Kind: agent.ErrTransport}
}
