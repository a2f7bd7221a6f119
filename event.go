package agent

import "time"

// Result subtypes reported through EventSink.OnResult.
const (
	ResultSuccess        = "success"
	ResultMaxRounds      = "error_max_rounds"
	ResultModelError     = "error_during_execution"
	ResultCancelled      = "error_cancelled"
	ResultInvalidRequest = "error_invalid_input"
)

// ResultInfo summarizes one RunTurn or Resume call.
type ResultInfo struct {
	// Subtype indicates the outcome, one of the Result* constants.
	Subtype        string
	ConversationID string
	Rounds         int
	Duration       time.Duration
	Text           string
	Err            error
}

// IsError reports whether the call ended without final text.
func (i ResultInfo) IsError() bool { return i.Err != nil }

// EventSink receives progress from the agent loop. Calls happen on the
// goroutine running the loop, in transcript order.
type EventSink interface {
	OnAssistant(turn Turn)
	OnToolResult(call ToolCallRequest, result ToolCallResult, elapsed time.Duration)
	OnResult(info ResultInfo)
}

// MultiSink fans events out to every non-nil sink in order.
type MultiSink []EventSink

func (m MultiSink) OnAssistant(turn Turn) {
	for _, s := range m {
		if s != nil {
			s.OnAssistant(turn)
		}
	}
}

func (m MultiSink) OnToolResult(call ToolCallRequest, result ToolCallResult, elapsed time.Duration) {
	for _, s := range m {
		if s != nil {
			s.OnToolResult(call, result, elapsed)
		}
	}
}

func (m MultiSink) OnResult(info ResultInfo) {
	for _, s := range m {
		if s != nil {
			s.OnResult(info)
		}
	}
}

// SinkFuncs adapts plain functions to EventSink. Nil fields are skipped.
type SinkFuncs struct {
	Assistant  func(turn Turn)
	ToolResult func(call ToolCallRequest, result ToolCallResult, elapsed time.Duration)
	Result     func(info ResultInfo)
}

func (f SinkFuncs) OnAssistant(turn Turn) {
	if f.Assistant != nil {
		f.Assistant(turn)
	}
}

func (f SinkFuncs) OnToolResult(call ToolCallRequest, result ToolCallResult, elapsed time.Duration) {
	if f.ToolResult != nil {
		f.ToolResult(call, result, elapsed)
	}
}

func (f SinkFuncs) OnResult(info ResultInfo) {
	if f.Result != nil {
		f.Result(info)
	}
}

var (
	_ EventSink = MultiSink(nil)
	_ EventSink = SinkFuncs{}
)
