package observability

import (
	"context"
	"log/slog"

	"github.com/codeflow-dev/codeflow/pkg/domain"
)

// Combine merges hook sets. Each callback runs the non-nil callbacks of
// every set in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnTraceStart = chainTrace(out.OnTraceStart, h.OnTraceStart)
		out.OnTraceFinish = chainTrace(out.OnTraceFinish, h.OnTraceFinish)
		out.OnCommand = chainCommand(out.OnCommand, h.OnCommand)
		out.OnSessionOpen = chainSession(out.OnSessionOpen, h.OnSessionOpen)
		out.OnSessionClose = chainSession(out.OnSessionClose, h.OnSessionClose)
	}
	return out
}

func chainTrace(a, b func(context.Context, *domain.TraceEvent)) func(context.Context, *domain.TraceEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.TraceEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainCommand(a, b func(context.Context, *domain.CommandEvent)) func(context.Context, *domain.CommandEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.CommandEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainSession(a, b func(string)) func(string) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(id string) {
		a(id)
		b(id)
	}
}

// LogHooks records every event at debug level, and failed traces at warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTraceStart: func(ctx context.Context, e *domain.TraceEvent) {
			logger.DebugContext(ctx, "trace_start", "language", e.Language, "strategy", e.Strategy)
		},
		OnTraceFinish: func(ctx context.Context, e *domain.TraceEvent) {
			level := slog.LevelDebug
			if e.Failed {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "trace_finish",
				"language", e.Language,
				"strategy", e.Strategy,
				"steps", e.Steps,
				"cached", e.Cached,
				"failed", e.Failed,
				"duration", e.Duration,
			)
		},
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			logger.DebugContext(ctx, "command", "session_id", e.SessionID, "command", e.Command, "rejected", e.Rejected)
		},
		OnSessionOpen: func(id string) {
			logger.Info("session_open", "session_id", id)
		},
		OnSessionClose: func(id string) {
			logger.Info("session_close", "session_id", id)
		},
	}
}
