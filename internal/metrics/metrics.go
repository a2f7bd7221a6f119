// Package metrics records agent loop activity in a private Prometheus
// registry and writes it in the text exposition format.
package metrics

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	agent "github.com/FarhanAliRaza/Mardown-rs"
)

// Metrics owns the registry and collectors of one process.
type Metrics struct {
	Registry *prometheus.Registry

	Rounds       prometheus.Counter
	Turns        *prometheus.CounterVec
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mdrs_rounds_total",
			Help: "Model calls that produced an assistant turn.",
		}),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mdrs_turns_total",
			Help: "Completed RunTurn and Resume calls by outcome.",
		}, []string{"outcome"}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mdrs_tool_calls_total",
			Help: "Dispatched tool calls by tool and outcome.",
		}, []string{"tool", "outcome"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mdrs_tool_duration_seconds",
			Help:    "Tool execution time in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"tool"}),
	}
	m.Registry.MustRegister(m.Rounds, m.Turns, m.ToolCalls, m.ToolDuration)
	return m
}

// Sink returns an agent.EventSink that feeds m.
func (m *Metrics) Sink() *Sink { return &Sink{m: m} }

// Write encodes every gathered family in Prometheus text format.
func (m *Metrics) Write(w io.Writer) error {
	families, err := m.Registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

// WriteTextfile writes the registry to path through a temporary file and a
// rename, so a textfile collector never sees a partial file.
func (m *Metrics) WriteTextfile(path string) error {
	var buf bytes.Buffer
	if err := m.Write(&buf); err != nil {
		return fmt.Errorf("metrics: encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".mdrs-metrics-*")
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("metrics: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// Sink implements agent.EventSink.
type Sink struct {
	m *Metrics
}

var _ agent.EventSink = (*Sink)(nil)

func (s *Sink) OnAssistant(agent.Turn) { s.m.Rounds.Inc() }

func (s *Sink) OnToolResult(call agent.ToolCallRequest, result agent.ToolCallResult, elapsed time.Duration) {
	outcome := "ok"
	if result.IsError() {
		outcome = "error"
	}
	s.m.ToolCalls.WithLabelValues(call.Name, outcome).Inc()
	s.m.ToolDuration.WithLabelValues(call.Name).Observe(elapsed.Seconds())
}

func (s *Sink) OnResult(info agent.ResultInfo) {
	s.m.Turns.WithLabelValues(info.Subtype).Inc()
}
