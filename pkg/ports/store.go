package ports

import (
	"context"

	"github.com/codeflow-dev/codeflow/pkg/domain"
)

// TraceStore caches computed traces.
// Traces are pure functions of their source, so entries never go stale.
type TraceStore interface {
	// Save stores the trace under key, replacing any previous entry.
	Save(ctx context.Context, key string, trace *domain.Trace) error

	// Load retrieves the trace stored under key.
	// Returns domain.ErrTraceNotFound if there is none.
	Load(ctx context.Context, key string) (*domain.Trace, error)

	// Delete removes the entry for key.
	Delete(ctx context.Context, key string) error

	// List returns the keys currently stored.
	List(ctx context.Context) ([]string, error)
}
