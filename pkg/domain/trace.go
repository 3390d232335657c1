package domain

import (
	"slices"
)

// Trace is the complete ordered sequence of steps for one run.
// It begins with a start step (or a lone syntax error step) and ends with an
// end step. A Trace is immutable once returned by a tracer.
type Trace struct {
	Language string `json:"language"`
	Steps    []Step `json:"steps"`
	// Output is the final printed output of the run.
	Output []string `json:"output"`
	// Err is the first failure recorded by the run, if any.
	Err      string `json:"error,omitempty"`
	IsStatic bool   `json:"isStatic"`
	Note     string `json:"note,omitempty"`
}

// Len returns the number of steps.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Steps)
}

// At returns the step at index i.
func (t *Trace) At(i int) (Step, bool) {
	if t == nil || i < 0 || i >= len(t.Steps) {
		return Step{}, false
	}
	return t.Steps[i], true
}

// Last returns the final step.
func (t *Trace) Last() (Step, bool) {
	return t.At(t.Len() - 1)
}

// Kinds returns the kind of every step in order.
func (t *Trace) Kinds() []StepKind {
	kinds := make([]StepKind, t.Len())
	for i, s := range t.Steps {
		kinds[i] = s.Kind
	}
	return kinds
}

// Failed reports whether any step records an error.
func (t *Trace) Failed() bool {
	return slices.ContainsFunc(t.Steps, func(s Step) bool { return s.Kind == KindError })
}
