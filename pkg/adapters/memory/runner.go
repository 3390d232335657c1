package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/ports"
)

// Runner implements ports.ProcessRunner with canned results keyed by
// language. It records every call, which makes it handy in tests and demos
// where no toolchain is installed.
type Runner struct {
	mu      sync.Mutex
	results map[string]ports.ProcessResult
	calls   []Call
}

// Call is one recorded invocation.
type Call struct {
	Language string
	Code     string
	Inputs   []string
}

// NewRunner creates a Runner answering for the given languages.
func NewRunner(results map[string]ports.ProcessResult) *Runner {
	r := &Runner{results: make(map[string]ports.ProcessResult, len(results))}
	for lang, res := range results {
		r.results[lang] = res
	}
	return r
}

// Supports reports whether a result is registered for language.
func (r *Runner) Supports(language string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.results[language]
	return ok
}

// Run returns the canned result for language.
func (r *Runner) Run(ctx context.Context, language, code string, inputs []string) (ports.ProcessResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.ProcessResult{}, fmt.Errorf("%w: %w", domain.ErrExternalExecution, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Language: language, Code: code, Inputs: inputs})

	res, ok := r.results[language]
	if !ok {
		return ports.ProcessResult{}, fmt.Errorf("%w: %s", domain.ErrToolchainNotFound, language)
	}
	return res, nil
}

// Calls returns the recorded invocations.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}
