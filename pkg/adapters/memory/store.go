package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/codeflow-dev/codeflow/pkg/domain"
)

// Store implements ports.TraceStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Trace
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Trace),
	}
}

// Save keeps a copy of the trace header and step list. Steps themselves
// are immutable and shared.
func (s *Store) Save(ctx context.Context, key string, trace *domain.Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = clone(trace)
	return nil
}

// Load retrieves the trace from memory.
func (s *Store) Load(ctx context.Context, key string) (*domain.Trace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trace, ok := s.data[key]
	if !ok {
		return nil, domain.ErrTraceNotFound
	}
	// Copy on read so callers can't reslice the stored step list.
	return clone(trace), nil
}

// Delete removes the trace.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// List returns the stored keys.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

// Len returns the number of stored traces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func clone(t *domain.Trace) *domain.Trace {
	c := *t
	c.Steps = slices.Clone(t.Steps)
	c.Output = slices.Clone(t.Output)
	return &c
}
