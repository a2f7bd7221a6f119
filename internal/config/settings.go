// Package config loads mdrs settings from layered YAML files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	agent "github.com/FarhanAliRaza/Mardown-rs"
)

// EnvPrefix prefixes every environment override, e.g. MDRS_MAX_ROUNDS.
const EnvPrefix = "MDRS"

// Settings holds merged configuration. Later files override earlier ones
// and the environment overrides every file. API keys never live here.
type Settings struct {
	Model             string        `mapstructure:"model"`
	ModelName         string        `mapstructure:"model_name"`
	BaseURL           string        `mapstructure:"base_url"`
	MaxRounds         int           `mapstructure:"max_rounds"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	SystemPrompt      string        `mapstructure:"system_prompt"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Log               LogSettings   `mapstructure:"log"`
	Ignore            []string      `mapstructure:"ignore"`
	MetricsFile       string        `mapstructure:"metrics_file"`
}

// LogSettings configures the process logger.
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"model":               "claude",
	"model_name":          "",
	"base_url":            "",
	"max_rounds":          agent.DefaultMaxRounds,
	"max_tokens":          0,
	"system_prompt":       agent.DefaultSystemPrompt,
	"timeout":             2 * time.Minute,
	"requests_per_minute": 0,
	"log.level":           "warn",
	"log.format":          "text",
	"ignore":              []string{},
	"metrics_file":        "",
}

// Load merges the YAML files at paths in order. Missing files are skipped;
// a file that exists but cannot be parsed is an error.
func Load(paths ...string) (*Settings, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		v.SetConfigFile(path)
		v.SetConfigType(configType(path))
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadProject loads the standard search path for projectDir. Unlike the
// default locations, an explicit file that does not exist is an error.
func LoadProject(projectDir, explicit string) (*Settings, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return nil, fmt.Errorf("%w: config file %s: %w", agent.ErrInvalidInput, explicit, err)
		}
	}
	return Load(DefaultPaths(projectDir, explicit)...)
}

// DefaultPaths returns the standard search path: the user file, then the
// project file, then the explicit file when one is given.
func DefaultPaths(projectDir, explicit string) []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "mdrs", "config.yaml"))
	}
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".mdrs.yaml"))
	}
	if explicit != "" {
		paths = append(paths, explicit)
	}
	return paths
}

// Validate rejects values no component can honour.
func (s *Settings) Validate() error {
	if s.MaxRounds < 0 {
		return fmt.Errorf("%w: max_rounds must not be negative", agent.ErrInvalidInput)
	}
	if s.MaxTokens < 0 {
		return fmt.Errorf("%w: max_tokens must not be negative", agent.ErrInvalidInput)
	}
	if s.RequestsPerMinute < 0 {
		return fmt.Errorf("%w: requests_per_minute must not be negative", agent.ErrInvalidInput)
	}
	switch strings.ToLower(s.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log.format must be text or json, got %q", agent.ErrInvalidInput, s.Log.Format)
	}
	return nil
}

func configType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}
