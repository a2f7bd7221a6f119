// Package provider selects and configures the ModelClient for a vendor.
package provider

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	agent "github.com/FarhanAliRaza/Mardown-rs"
	"github.com/FarhanAliRaza/Mardown-rs/provider/anthropic"
	"github.com/FarhanAliRaza/Mardown-rs/provider/google"
	"github.com/FarhanAliRaza/Mardown-rs/provider/openai"
)

// Vendor names a model vendor.
type Vendor string

const (
	Claude   Vendor = "claude"
	OpenAI   Vendor = "openai"
	Google   Vendor = "google"
	DeepSeek Vendor = "deepseek"
)

// Vendors lists every supported vendor in display order.
var Vendors = []Vendor{Claude, OpenAI, Google, DeepSeek}

// ParseVendor maps a user-supplied name to a Vendor. "anthropic" and
// "gemini" are accepted as aliases.
func ParseVendor(name string) (Vendor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "claude", "anthropic":
		return Claude, nil
	case "openai", "gpt":
		return OpenAI, nil
	case "google", "gemini":
		return Google, nil
	case "deepseek":
		return DeepSeek, nil
	}
	return "", fmt.Errorf("%w: unknown model vendor %q", agent.ErrInvalidInput, name)
}

// KeyEnv is the environment variable holding the vendor's API key.
func (v Vendor) KeyEnv() string {
	switch v {
	case Claude:
		return "ANTHROPIC_API_KEY"
	case OpenAI:
		return "OPENAI_API_KEY"
	case Google:
		return "GOOGLE_API_KEY"
	case DeepSeek:
		return "DEEPSEEK_API_KEY"
	}
	return ""
}

// ModelEnv is the environment variable that overrides the model name.
func (v Vendor) ModelEnv() string {
	switch v {
	case Claude:
		return "ANTHROPIC_MODEL_NAME"
	case OpenAI:
		return "OPENAI_MODEL_NAME"
	case Google:
		return "GOOGLE_MODEL_NAME"
	case DeepSeek:
		return "DEEPSEEK_MODEL_NAME"
	}
	return ""
}

// DefaultModel returns the model used when none is configured.
func (v Vendor) DefaultModel() string {
	switch v {
	case Claude:
		return anthropic.DefaultModel
	case OpenAI:
		return openai.DefaultModel
	case Google:
		return google.DefaultModel
	case DeepSeek:
		return openai.DefaultDeepSeekModel
	}
	return ""
}

// Label is the name printed next to the vendor's answers.
func (v Vendor) Label() string {
	switch v {
	case Claude:
		return "Claude"
	case OpenAI:
		return "OpenAI"
	case Google:
		return "Gemini"
	case DeepSeek:
		return "DeepSeek"
	}
	return string(v)
}

// Config is everything needed to construct a vendor adapter. It is built
// once per session and passed explicitly; nothing reads credentials later.
type Config struct {
	Vendor    Vendor
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// LoadConfig reads the vendor's API key and model override through getenv
// (os.Getenv when nil). A missing key is ErrAuth.
func LoadConfig(v Vendor, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v.KeyEnv() == "" {
		return Config{}, fmt.Errorf("%w: unknown model vendor %q", agent.ErrInvalidInput, v)
	}
	cfg := Config{
		Vendor: v,
		APIKey: strings.TrimSpace(getenv(v.KeyEnv())),
		Model:  strings.TrimSpace(getenv(v.ModelEnv())),
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("%w: %s is not set", agent.ErrAuth, v.KeyEnv())
	}
	if cfg.Model == "" {
		cfg.Model = v.DefaultModel()
	}
	return cfg, nil
}

// New builds the adapter for cfg.Vendor. No network call is made.
func New(ctx context.Context, cfg Config) (agent.ModelClient, error) {
	var (
		client agent.ModelClient
		err    error
	)
	switch cfg.Vendor {
	case Claude:
		var c *anthropic.Client
		c, err = anthropic.New(anthropic.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
		client = c
	case OpenAI, DeepSeek:
		oc := openai.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		}
		var c *openai.Client
		if cfg.Vendor == DeepSeek {
			c, err = openai.NewDeepSeek(oc)
		} else {
			c, err = openai.New(oc)
		}
		client = c
	case Google:
		var c *google.Client
		c, err = google.New(ctx, google.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
		})
		client = c
	default:
		return nil, fmt.Errorf("%w: unknown model vendor %q", agent.ErrInvalidInput, cfg.Vendor)
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}
