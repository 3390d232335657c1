package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTraceStart  EventType = "trace_start"
	EventTraceFinish EventType = "trace_finish"
	EventCommand     EventType = "command"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// TraceEvent describes one trace computation.
type TraceEvent struct {
	EventBase
	Language string        `json:"language"`
	Strategy string        `json:"strategy"`
	Steps    int           `json:"steps,omitempty"`
	Cached   bool          `json:"cached,omitempty"`
	Failed   bool          `json:"failed,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// CommandEvent describes one playback command handled by a session.
type CommandEvent struct {
	EventBase
	SessionID string `json:"session_id"`
	Command   string `json:"command"`
	Rejected  bool   `json:"rejected,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTraceStart   func(context.Context, *TraceEvent)
	OnTraceFinish  func(context.Context, *TraceEvent)
	OnCommand      func(context.Context, *CommandEvent)
	OnSessionOpen  func(sessionID string)
	OnSessionClose func(sessionID string)
}
