package codeflow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/analyzer"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/flowgraph"
	"github.com/codeflow-dev/codeflow/pkg/interpreter"
	"github.com/codeflow-dev/codeflow/pkg/ports"
	"github.com/codeflow-dev/codeflow/pkg/script/parser"
	"github.com/codeflow-dev/codeflow/pkg/strategy"
)

// DefaultMaxSourceBytes bounds submitted code.
const DefaultMaxSourceBytes = 50000

// Engine is the high-level entry point of the library. It validates
// submissions, picks the strategy for their language and reports every
// trace to the lifecycle hooks.
type Engine struct {
	registry *strategy.Registry
	tracer   ports.Tracer
	parser   *parser.Parser

	store          ports.TraceStore
	locker         ports.DistributedLocker
	lockTTL        time.Duration
	runner         ports.ProcessRunner
	profiles       []*analyzer.Profile
	limits         interpreter.Limits
	maxSourceBytes int
	onCache        func(hit bool)
	hooks          domain.LifecycleHooks
	logger         *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTraceStore memoizes traces of deterministic strategies in store.
func WithTraceStore(store ports.TraceStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes computation of the same trace across replicas.
// It only applies together with WithTraceStore.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(e *Engine) {
		e.locker = locker
		e.lockTTL = ttl
	}
}

// WithCacheObserver is told about every trace cache lookup.
func WithCacheObserver(fn func(hit bool)) Option {
	return func(e *Engine) {
		e.onCache = fn
	}
}

// WithProcessRunner enables external execution for the languages runner
// supports.
func WithProcessRunner(runner ports.ProcessRunner) Option {
	return func(e *Engine) {
		e.runner = runner
	}
}

// WithProfiles adds static analysis profiles.
func WithProfiles(ps ...*analyzer.Profile) Option {
	return func(e *Engine) {
		e.profiles = append(e.profiles, ps...)
	}
}

// WithLimits sets the interpreter ceilings.
func WithLimits(l interpreter.Limits) Option {
	return func(e *Engine) {
		e.limits = l
	}
}

// WithMaxSourceBytes sets the largest accepted source.
func WithMaxSourceBytes(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSourceBytes = n
		}
	}
}

// New initializes an Engine. Without options it interprets javascript and
// analyzes every other language statically.
func New(opts ...Option) *Engine {
	e := &Engine{
		parser:         parser.New(),
		maxSourceBytes: DefaultMaxSourceBytes,
		lockTTL:        30 * time.Second,
		logger:         logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	a := analyzer.New(analyzer.WithProfiles(e.profiles...), analyzer.WithLogger(e.logger))
	interp := interpreter.New(interpreter.WithLimits(e.limits), interpreter.WithLogger(e.logger))
	regOpts := []strategy.Option{
		strategy.WithEvaluator(interpreter.Language, strategy.NewInterpreter(e.parser, interp)),
		strategy.WithLogger(e.logger),
	}
	if e.runner != nil {
		regOpts = append(regOpts, strategy.WithProcess(strategy.NewProcess(e.runner, a)))
	}
	e.registry = strategy.NewRegistry(strategy.NewStatic(a), regOpts...)
	e.tracer = e.registry

	if e.store != nil {
		cacheOpts := []strategy.CacheOption{strategy.WithCacheLogger(e.logger)}
		if e.locker != nil {
			cacheOpts = append(cacheOpts, strategy.WithLocker(e.locker, e.lockTTL))
		}
		if e.onCache != nil {
			cacheOpts = append(cacheOpts, strategy.WithHitObserver(e.onCache))
		}
		e.tracer = strategy.NewCached(e.registry, e.store, cacheOpts...)
	}
	return e
}

// Trace validates src and produces its trace. It implements ports.Tracer.
func (e *Engine) Trace(ctx context.Context, src domain.Source) (*domain.Trace, error) {
	if err := e.validateSize(src.Code); err != nil {
		return nil, err
	}
	src.Language = e.registry.Canonical(src.Language)
	event := &domain.TraceEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTraceStart},
		Language:  src.Language,
		Strategy:  e.registry.Select(src.Language).Name(),
	}
	if e.hooks.OnTraceStart != nil {
		e.hooks.OnTraceStart(ctx, event)
	}

	start := time.Now()
	ctx, cached := strategy.WithCacheStatus(ctx)
	t, err := e.tracer.Trace(ctx, src)

	if e.hooks.OnTraceFinish != nil {
		done := *event
		done.Timestamp = time.Now()
		done.Type = domain.EventTraceFinish
		done.Duration = time.Since(start)
		done.Cached = *cached
		done.Failed = err != nil || t.Failed()
		if t != nil {
			done.Steps = t.Len()
		}
		e.hooks.OnTraceFinish(ctx, &done)
	}
	return t, err
}

// Result is the one-shot answer to a trace request.
type Result struct {
	Steps     []domain.Step    `json:"steps"`
	FlowGraph domain.FlowGraph `json:"flowGraph"`
	Output    []string         `json:"output"`
	Error     *string          `json:"error"`
	IsStatic  bool             `json:"isStatic"`
	Note      string           `json:"note,omitempty"`
}

// Execute traces src and compiles its flow graph.
func (e *Engine) Execute(ctx context.Context, src domain.Source) (*Result, error) {
	t, err := e.Trace(ctx, src)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Steps:     t.Steps,
		FlowGraph: flowgraph.Compile(t),
		Output:    t.Output,
		IsStatic:  t.IsStatic,
		Note:      t.Note,
	}
	if res.Output == nil {
		res.Output = []string{}
	}
	if t.Err != "" {
		res.Error = &t.Err
	}
	return res, nil
}

// Validate parses javascript code without running it. A parse failure is
// returned as a *domain.SyntaxError.
func (e *Engine) Validate(code string) error {
	if err := e.validateSize(code); err != nil {
		return err
	}
	_, err := e.parser.Parse(code)
	return err
}

// Languages lists the languages with a dedicated strategy or profile.
func (e *Engine) Languages() []string {
	return e.registry.Languages()
}

// Canonical resolves a language name or alias.
func (e *Engine) Canonical(language string) string {
	return e.registry.Canonical(language)
}

// StrategyFor names the strategy that would trace language.
func (e *Engine) StrategyFor(language string) string {
	return e.registry.Select(e.registry.Canonical(language)).Name()
}

// MaxSourceBytes returns the source size ceiling.
func (e *Engine) MaxSourceBytes() int {
	return e.maxSourceBytes
}

func (e *Engine) validateSize(code string) error {
	if strings.TrimSpace(code) == "" {
		return domain.ErrEmptySource
	}
	if len(code) > e.maxSourceBytes {
		return domain.ErrSourceTooLarge
	}
	return nil
}
