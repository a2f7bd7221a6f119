// Package google adapts the Gemini API to agent.ModelClient.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"google.golang.org/genai"

	agent "github.com/FarhanAliRaza/Mardown-rs"
	"github.com/FarhanAliRaza/Mardown-rs/internal/schema"
)

const (
	// DefaultModel is the Gemini model used when none is configured.
	DefaultModel = "gemini-2.5-pro-preview-03-25"

	vendorName = "google"

	emptyTextPlaceholder = "(no output)"
)

// Config configures the adapter.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// Client implements agent.ModelClient on top of google.golang.org/genai.
type Client struct {
	api       *genai.Client
	model     string
	maxTokens int
}

var _ agent.ModelClient = (*Client)(nil)

// New creates a Gemini client. It does not contact the API.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is empty", agent.ErrAuth)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		cc.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	api, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("%w: create gemini client: %v", agent.ErrTransport, err)
	}
	return &Client{api: api, model: cfg.Model, maxTokens: cfg.MaxTokens}, nil
}

// Name returns the configured model.
func (c *Client) Name() string { return c.model }

func (c *Client) Complete(ctx context.Context, req agent.ModelRequest) (agent.ModelResponse, error) {
	resp, err := c.api.Models.GenerateContent(ctx, c.model, convertTurns(req.Turns), c.config(req))
	if err != nil {
		return agent.ModelResponse{}, classify(ctx, err)
	}
	return parseResponse(resp)
}

func (c *Client) config(req agent.ModelRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if c.maxTokens > 0 {
		cfg.MaxOutputTokens = int32(c.maxTokens)
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: convertTools(req.Tools)}}
	}
	return cfg
}

// convertTurns maps the transcript onto Gemini contents. Tool results are
// function responses in a user content, keyed by tool name.
func convertTurns(turns []agent.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case agent.RoleUser:
			contents = append(contents, genai.NewContentFromText(turn.Text(), genai.RoleUser))
		case agent.RoleAssistant:
			var parts []*genai.Part
			if text := turn.Text(); text != "" {
				parts = append(parts, genai.NewPartFromText(text))
			}
			for _, call := range turn.ToolCalls() {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Arguments,
				}})
			}
			if len(parts) == 0 {
				parts = append(parts, genai.NewPartFromText(emptyTextPlaceholder))
			}
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: parts})
		case agent.RoleToolResult:
			var parts []*genai.Part
			for _, r := range turn.ToolResults() {
				key := "output"
				if r.IsError() {
					key = "error"
				}
				part := genai.NewPartFromFunctionResponse(r.Name, map[string]any{key: r.Output})
				part.FunctionResponse.ID = r.CallID
				parts = append(parts, part)
			}
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
		}
	}
	return contents
}

func convertTools(specs []agent.ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  convertSchema(spec.InputSchema),
		})
	}
	return decls
}

func convertSchema(s schema.Schema) *genai.Schema {
	out := &genai.Schema{
		Type:     genai.TypeObject,
		Required: s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = convertProperty(prop)
		}
	}
	return out
}

func convertProperty(p schema.Property) *genai.Schema {
	out := &genai.Schema{
		Type:        schemaType(p.Type),
		Description: p.Description,
		Required:    p.Required,
	}
	for _, v := range p.Enum {
		out.Enum = append(out.Enum, fmt.Sprint(v))
	}
	if p.Items != nil {
		out.Items = convertProperty(*p.Items)
	}
	if len(p.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(p.Properties))
		for name, child := range p.Properties {
			out.Properties[name] = convertProperty(child)
		}
	}
	return out
}

func schemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

func parseResponse(resp *genai.GenerateContentResponse) (agent.ModelResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return agent.ModelResponse{}, fmt.Errorf("%w: response has no candidates", agent.ErrMalformedResponse)
	}
	var out agent.ModelResponse
	// Candidates stopped by MAX_TOKENS or SAFETY may carry no content.
	content := resp.Candidates[0].Content
	if content == nil {
		return out, nil
	}
	for _, part := range content.Parts {
		switch {
		case part == nil || part.Thought:
		case part.FunctionCall != nil:
			fc := part.FunctionCall
			if fc.Name == "" {
				return agent.ModelResponse{}, fmt.Errorf("%w: function call without name", agent.ErrMalformedResponse)
			}
			id := fc.ID
			if id == "" {
				id = uuid.NewString()
			}
			args := fc.Args
			if args == nil {
				args = map[string]any{}
			}
			out.ToolCalls = append(out.ToolCalls, agent.ToolCallRequest{ID: id, Name: fc.Name, Arguments: args})
		default:
			out.Text += part.Text
		}
	}
	return out, nil
}

// classify maps genai failures onto the agent error taxonomy.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return agent.NewVendorError(vendorName, apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return agent.NewVendorError(vendorName, apiErrPtr.Code, apiErrPtr.Message)
	}
	return &agent.VendorError{Vendor: vendorName, Message: err.Error(), Kind: agent.ErrTransport}
}
