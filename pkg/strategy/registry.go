package strategy

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/domain"
)

// DefaultLanguage is assumed when a request names none.
const DefaultLanguage = interpreterLanguage

const interpreterLanguage = "javascript"

var defaultAliases = map[string]string{
	"js":   "javascript",
	"node": "javascript",
	"ts":   "typescript",
	"c++":  "cpp",
	"py":   "python",
	"rs":   "rust",
	"pg":   "sql",
}

// Registry picks the strategy for a language: a registered evaluator first,
// then the process strategy when a toolchain exists, then static analysis.
// It implements ports.Tracer.
type Registry struct {
	evaluators map[string]Strategy
	aliases    map[string]string
	process    *Process
	static     *Static
	logger     *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithEvaluator registers s for language.
func WithEvaluator(language string, s Strategy) Option {
	return func(r *Registry) { r.evaluators[language] = s }
}

// WithProcess enables external execution.
func WithProcess(p *Process) Option {
	return func(r *Registry) { r.process = p }
}

// WithAlias maps alias to a canonical language name.
func WithAlias(alias, language string) Option {
	return func(r *Registry) { r.aliases[alias] = language }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// NewRegistry returns a Registry that falls back to static.
func NewRegistry(static *Static, opts ...Option) *Registry {
	r := &Registry{
		evaluators: make(map[string]Strategy),
		aliases:    make(map[string]string, len(defaultAliases)),
		static:     static,
		logger:     logging.NewNop(),
	}
	for k, v := range defaultAliases {
		r.aliases[k] = v
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Canonical normalizes a language name and resolves aliases.
func (r *Registry) Canonical(language string) string {
	l := strings.ToLower(strings.TrimSpace(language))
	if l == "" {
		return DefaultLanguage
	}
	if c, ok := r.aliases[l]; ok {
		return c
	}
	return l
}

// Select returns the strategy for language (already canonical).
func (r *Registry) Select(language string) Strategy {
	if s, ok := r.evaluators[language]; ok {
		return s
	}
	if r.process != nil && r.process.Supports(language) {
		return r.process
	}
	return r.static
}

// Trace resolves the language of src and delegates to its strategy.
func (r *Registry) Trace(ctx context.Context, src domain.Source) (*domain.Trace, error) {
	src.Language = r.Canonical(src.Language)
	s := r.Select(src.Language)
	r.logger.Debug("tracing", "language", src.Language, "strategy", s.Name())
	return s.Trace(ctx, src)
}

// Languages lists every language with a dedicated strategy or profile.
func (r *Registry) Languages() []string {
	set := make(map[string]bool)
	for l := range r.evaluators {
		set[l] = true
	}
	for _, l := range r.static.analyzer.Languages() {
		set[l] = true
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	slices.Sort(out)
	return out
}
