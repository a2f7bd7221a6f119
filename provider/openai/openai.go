// Package openai adapts OpenAI-compatible chat completion endpoints to
// agent.ModelClient. It serves both OpenAI and DeepSeek.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	agent "github.com/FarhanAliRaza/Mardown-rs"
)

const (
	// DefaultModel is the OpenAI model used when none is configured.
	DefaultModel = "gpt-4.1"
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultDeepSeekModel is the DeepSeek model used when none is configured.
	DefaultDeepSeekModel = "deepseek-chat"
	// DefaultDeepSeekBaseURL is the DeepSeek API root.
	DefaultDeepSeekBaseURL = "https://api.deepseek.com"

	// DefaultTimeout bounds a single completion request.
	DefaultTimeout = 120 * time.Second

	completionsPath = "/chat/completions"
)

// Config configures the adapter.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// Client implements agent.ModelClient against a /chat/completions endpoint.
type Client struct {
	vendor    string
	model     string
	baseURL   string
	maxTokens int
	http      *resty.Client
}

var _ agent.ModelClient = (*Client)(nil)

// New creates an OpenAI client.
func New(cfg Config) (*Client, error) {
	return newClient("openai", cfg, DefaultModel, DefaultBaseURL)
}

// NewDeepSeek creates a DeepSeek client. DeepSeek speaks the same protocol.
func NewDeepSeek(cfg Config) (*Client, error) {
	return newClient("deepseek", cfg, DefaultDeepSeekModel, DefaultDeepSeekBaseURL)
}

func newClient(vendor string, cfg Config, model, baseURL string) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: %s API key is empty", agent.ErrAuth, vendor)
	}
	if cfg.Model == "" {
		cfg.Model = model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	baseURL = strings.TrimRight(cfg.BaseURL, "/")
	// No resty retries: the caller decides when to try again.
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")

	return &Client{
		vendor:    vendor,
		model:     cfg.Model,
		baseURL:   baseURL,
		maxTokens: cfg.MaxTokens,
		http:      client,
	}, nil
}

// Name returns the configured model.
func (c *Client) Name() string { return c.model }

func (c *Client) Complete(ctx context.Context, req agent.ModelRequest) (agent.ModelResponse, error) {
	body := chatRequest{
		Model:     c.model,
		Messages:  convertTurns(req.SystemPrompt, req.Turns),
		Tools:     convertTools(req.Tools),
		MaxTokens: c.maxTokens,
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(completionsPath)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return agent.ModelResponse{}, ctxErr
		}
		return agent.ModelResponse{}, &agent.VendorError{Vendor: c.vendor, Message: err.Error(), Kind: agent.ErrTransport}
	}

	if res.StatusCode() != http.StatusOK {
		ve := agent.NewVendorError(c.vendor, res.StatusCode(), errorMessage(res.Body()))
		ve.RetryAfter = agent.ParseRetryAfter(res.Header().Get("Retry-After"))
		return agent.ModelResponse{}, ve
	}

	return parseResponse(res.Body())
}

func convertTurns(system string, turns []agent.Turn) []chatMessage {
	msgs := make([]chatMessage, 0, len(turns)+1)
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: strPtr(system)})
	}
	for _, turn := range turns {
		switch turn.Role {
		case agent.RoleUser:
			msgs = append(msgs, chatMessage{Role: "user", Content: strPtr(turn.Text())})
		case agent.RoleAssistant:
			msg := chatMessage{Role: "assistant"}
			if text := turn.Text(); text != "" || len(turn.ToolCalls()) == 0 {
				msg.Content = strPtr(text)
			}
			for _, call := range turn.ToolCalls() {
				args := call.Arguments
				if args == nil {
					args = map[string]any{}
				}
				raw, _ := json.Marshal(args)
				msg.ToolCalls = append(msg.ToolCalls, toolCall{
					ID:       call.ID,
					Type:     "function",
					Function: functionCall{Name: call.Name, Arguments: string(raw)},
				})
			}
			msgs = append(msgs, msg)
		case agent.RoleToolResult:
			// One tool message per result.
			for _, r := range turn.ToolResults() {
				msgs = append(msgs, chatMessage{
					Role:       "tool",
					ToolCallID: r.CallID,
					Content:    strPtr(r.Output),
				})
			}
		}
	}
	return msgs
}

func convertTools(specs []agent.ToolSpec) []toolDef {
	if len(specs) == 0 {
		return nil
	}
	tools := make([]toolDef, 0, len(specs))
	for _, spec := range specs {
		tools = append(tools, toolDef{
			Type: "function",
			Function: functionDef{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.InputSchema.Map(),
			},
		})
	}
	return tools
}

func parseResponse(data []byte) (agent.ModelResponse, error) {
	var out chatResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return agent.ModelResponse{}, fmt.Errorf("%w: decode response: %v", agent.ErrMalformedResponse, err)
	}
	if len(out.Choices) == 0 {
		return agent.ModelResponse{}, fmt.Errorf("%w: response has no choices", agent.ErrMalformedResponse)
	}

	msg := out.Choices[0].Message
	resp := agent.ModelResponse{}
	if msg.Content != nil {
		resp.Text = *msg.Content
	}
	for _, tc := range msg.ToolCalls {
		args := map[string]any{}
		if raw := strings.TrimSpace(tc.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return agent.ModelResponse{}, fmt.Errorf("%w: arguments for %s: %v", agent.ErrMalformedResponse, tc.Function.Name, err)
			}
		}
		resp.ToolCalls = append(resp.ToolCalls, agent.ToolCallRequest{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return resp, nil
}

// errorMessage extracts error.message from an error body, falling back to
// the raw body.
func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && e.Error.Message != "" {
		return e.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return "empty response body"
	}
	return msg
}

func strPtr(s string) *string { return &s }
