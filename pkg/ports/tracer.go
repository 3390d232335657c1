package ports

import (
	"context"

	"github.com/codeflow-dev/codeflow/pkg/domain"
)

// Tracer produces the trace of a program.
// This is the only dependency a playback session has on trace computation.
type Tracer interface {
	// Trace runs or analyzes src. Program faults are recorded in the
	// returned trace; errors are reserved for invalid requests and
	// infrastructure failures.
	Trace(ctx context.Context, src domain.Source) (*domain.Trace, error)
}
