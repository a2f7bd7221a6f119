package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	agent "github.com/FarhanAliRaza/Mardown-rs"
	"github.com/FarhanAliRaza/Mardown-rs/internal/config"
	"github.com/FarhanAliRaza/Mardown-rs/internal/logging"
	"github.com/FarhanAliRaza/Mardown-rs/internal/metrics"
	"github.com/FarhanAliRaza/Mardown-rs/provider"
	"github.com/FarhanAliRaza/Mardown-rs/tools"
	"github.com/FarhanAliRaza/Mardown-rs/workspace"
)

type codeOptions struct {
	model       string
	dir         string
	maxRounds   int
	configFile  string
	metricsFile string
	logLevel    string
}

func newCodeCommand() *cobra.Command {
	var opts codeOptions
	cmd := &cobra.Command{
		Use:   "code",
		Short: "Run the interactive coding agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCode(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.model, "model", "m", "claude", "model vendor: claude, openai, google or deepseek")
	cmd.Flags().StringVar(&opts.dir, "dir", ".", "workspace root the tools operate on")
	cmd.Flags().IntVar(&opts.maxRounds, "max-rounds", agent.DefaultMaxRounds, "model calls allowed per prompt")
	cmd.Flags().StringVar(&opts.configFile, "config", "", "settings file loaded after the default locations")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics here on exit")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	return cmd
}

// loadSettings merges the settings files and applies explicitly set flags.
func loadSettings(cmd *cobra.Command, opts codeOptions) (*config.Settings, error) {
	s, err := config.LoadProject(opts.dir, opts.configFile)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("model") {
		s.Model = opts.model
	}
	if flags.Changed("max-rounds") {
		s.MaxRounds = opts.maxRounds
	}
	if flags.Changed("metrics-file") {
		s.MetricsFile = opts.metricsFile
	}
	if flags.Changed("log-level") {
		s.Log.Level = opts.logLevel
	}
	return s, s.Validate()
}

func runCode(cmd *cobra.Command, opts codeOptions) error {
	settings, err := loadSettings(cmd, opts)
	if err != nil {
		return err
	}
	logger, err := logging.NewWithWriter(logging.Config{Level: settings.Log.Level, Format: settings.Log.Format}, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vendor, err := provider.ParseVendor(settings.Model)
	if err != nil {
		return err
	}
	client, err := newModelClient(ctx, vendor, settings)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(opts.dir)
	if err != nil {
		return err
	}
	registry := agent.NewToolRegistry()
	if err := tools.RegisterAll(registry, workspace.NewLocal(root, workspace.WithIgnore(settings.Ignore...))); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	st := newStyles(out)
	agentOpts := []agent.AgentOption{
		agent.WithMaxRounds(settings.MaxRounds),
		agent.WithSystemPrompt(settings.SystemPrompt),
		agent.WithLogger(logger),
		agent.WithEventSink(toolEcho(out, st)),
	}

	if settings.MetricsFile != "" {
		m := metrics.New()
		agentOpts = append(agentOpts, agent.WithEventSink(m.Sink()))
		defer writeMetrics(m, settings.MetricsFile, logger)
	}

	logger.Info("session started", "vendor", vendor, "model", client.Name(), "root", root)
	r := &repl{
		client: agent.NewClient(agent.NewAgent(client, registry, agentOpts...)),
		label:  vendor.Label(),
		in:     cmd.InOrStdin(),
		out:    out,
		errOut: cmd.ErrOrStderr(),
		retry:  defaultRetry,
		style:  st,
	}
	return r.run(ctx)
}

// newModelClient reads the vendor credential once and builds the rate
// limited adapter.
func newModelClient(ctx context.Context, vendor provider.Vendor, s *config.Settings) (agent.ModelClient, error) {
	pcfg, err := provider.LoadConfig(vendor, os.Getenv)
	if err != nil {
		return nil, err
	}
	if s.ModelName != "" {
		pcfg.Model = s.ModelName
	}
	pcfg.BaseURL = s.BaseURL
	pcfg.MaxTokens = s.MaxTokens
	pcfg.Timeout = s.Timeout

	client, err := provider.New(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("initialize %s agent: %w", vendor.Label(), err)
	}
	return provider.Limited(client, provider.PerMinute(s.RequestsPerMinute)), nil
}

func writeMetrics(m *metrics.Metrics, path string, logger *slog.Logger) {
	if err := m.WriteTextfile(path); err != nil {
		logger.Warn("write metrics", "path", path, "error", err)
	}
}
