// Package analyzer produces schematic traces for languages the interpreter
// cannot run. Each source line is matched against an ordered list of
// classifiers; the first match decides the step kind. Nothing is executed,
// so steps carry no variables or output.
package analyzer

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/dlclark/regexp2"
)

// Frame is the stack label reported by static steps.
const Frame = "main"

// DefaultFallback is the profile used for languages without one.
const DefaultFallback = "java"

// Note returns the explanation attached to static traces.
func Note(language string) string {
	return fmt.Sprintf("Static flow analysis for %s. Code is not executed — structure is analyzed.", language)
}

// Analyzer classifies source lines using a set of language profiles.
// It is safe for concurrent use once constructed.
type Analyzer struct {
	profiles map[string]*Profile
	fallback string
	logger   *slog.Logger
}

// Option configures the Analyzer.
type Option func(*Analyzer)

// WithProfiles adds or replaces profiles by name.
func WithProfiles(ps ...*Profile) Option {
	return func(a *Analyzer) {
		for _, p := range ps {
			a.profiles[p.Name] = p
		}
	}
}

// WithFallback sets the profile used for unknown languages.
func WithFallback(name string) Option {
	return func(a *Analyzer) { a.fallback = name }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// New returns an Analyzer loaded with the built-in profiles.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		profiles: make(map[string]*Profile),
		fallback: DefaultFallback,
		logger:   logging.NewNop(),
	}
	for _, p := range Builtin() {
		a.profiles[p.Name] = p
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Profile returns the profile registered for language.
func (a *Analyzer) Profile(language string) (*Profile, bool) {
	p, ok := a.profiles[language]
	return p, ok
}

// Languages returns the profile names in sorted order.
func (a *Analyzer) Languages() []string {
	names := make([]string, 0, len(a.profiles))
	for name := range a.profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Analyze builds the static trace of source for language, falling back to
// the default profile when the language has none.
func (a *Analyzer) Analyze(source, language string) *domain.Trace {
	p, ok := a.profiles[language]
	if !ok {
		p = a.profiles[a.fallback]
		a.logger.Debug("no profile for language, using fallback", "language", language, "fallback", a.fallback)
	}
	if p == nil {
		p = &Profile{Name: language}
	}
	t := analyze(source, p, a.logger)
	t.Language = language
	t.Note = Note(language)
	return t
}

// Analyze builds the static trace of source with profile p.
func Analyze(source string, p *Profile) *domain.Trace {
	t := analyze(source, p, logging.NewNop())
	t.Language = p.Name
	t.Note = Note(p.Name)
	return t
}

func analyze(source string, p *Profile, logger *slog.Logger) *domain.Trace {
	lines := strings.Split(source, "\n")
	frame := domain.SnapshotOf(nil, nil, []string{Frame})

	steps := []domain.Step{{
		Line:        1,
		Kind:        domain.KindStart,
		Description: "Program starts",
		Snapshot:    frame,
	}}
	for i, line := range lines {
		rule, ok := p.classify(line, logger)
		if !ok {
			continue
		}
		steps = append(steps, domain.Step{
			Line:        i + 1,
			Kind:        rule.Kind,
			Description: describe(makeLabel(line, rule)),
			Snapshot:    frame,
		})
	}
	steps = append(steps, domain.Step{
		Line:        len(lines),
		Kind:        domain.KindEnd,
		Description: "Program ends",
		Snapshot:    domain.SnapshotOf(nil, nil, nil),
	})

	return &domain.Trace{
		Steps:    steps,
		Output:   []string{},
		IsStatic: true,
	}
}

// classify returns the first rule matching line. Comments, blank lines and
// lone braces never match.
func (p *Profile) classify(line string, logger *slog.Logger) (Rule, bool) {
	switch strings.TrimSpace(line) {
	case "", "{", "}", "};":
		return Rule{}, false
	}
	if p.comment != nil && match(p.comment, line, logger) {
		return Rule{}, false
	}
	for _, r := range p.rules {
		if match(r.Pattern, line, logger) {
			return r, true
		}
	}
	return Rule{}, false
}

func match(re *regexp2.Regexp, line string, logger *slog.Logger) bool {
	ok, err := re.MatchString(line)
	if err != nil {
		logger.Warn("pattern match failed", "pattern", re.String(), "err", err)
		return false
	}
	return ok
}
