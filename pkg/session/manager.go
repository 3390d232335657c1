package session

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/ports"
	"github.com/google/uuid"
)

// Manager tracks the live sessions of a process. Sessions share nothing
// but the tracer.
type Manager struct {
	tracer ports.Tracer

	mu       sync.Mutex
	sessions map[string]*Controller

	opts   []ControllerOption
	hooks  domain.LifecycleHooks
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithControllerOptions applies opts to every session the Manager opens.
func WithControllerOptions(opts ...ControllerOption) Option {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// WithLifecycleHooks registers callbacks for session and command events.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = h
	}
}

// WithLogger configures a logger for the Manager and its sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager whose sessions trace with tracer.
func NewManager(tracer ports.Tracer, opts ...Option) *Manager {
	m := &Manager{
		tracer:   tracer,
		sessions: make(map[string]*Controller),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open starts a new session that emits through emit. ctx bounds the
// session's runs.
func (m *Manager) Open(ctx context.Context, emit Emitter) *Controller {
	id := uuid.NewString()
	opts := append([]ControllerOption{
		WithControllerLogger(m.logger.With("session_id", id)),
		WithHooks(m.hooks),
	}, m.opts...)
	c := NewController(ctx, id, m.tracer, emit, opts...)

	m.mu.Lock()
	m.sessions[id] = c
	m.mu.Unlock()

	m.logger.Debug("session opened", "session_id", id)
	if m.hooks.OnSessionOpen != nil {
		m.hooks.OnSessionOpen(id)
	}
	return c
}

// Get returns the live session with id.
func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return c, nil
}

// Close stops the session with id and forgets it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	c, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}

	c.Close()
	m.logger.Debug("session closed", "session_id", id)
	if m.hooks.OnSessionClose != nil {
		m.hooks.OnSessionClose(id)
	}
	return nil
}

// List returns the IDs of the live sessions in sorted order.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll stops every session. Used on shutdown.
func (m *Manager) CloseAll() {
	for _, id := range m.List() {
		_ = m.Close(id)
	}
}
