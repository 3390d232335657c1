// Package interpreter executes parsed scripts and records one Step per
// observable action.
//
// Execution is deterministic: the same program and inputs always produce the
// same Trace. Bindings live in a single global frame; function declarations
// bind a marker and their bodies never run; break and continue are recorded
// but do not change control flow.
package interpreter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/script/ast"
	"github.com/codeflow-dev/codeflow/pkg/value"
)

// Language is the name traces produced by the interpreter carry.
const Language = "javascript"

// Limits are the ceilings a run is bounded by.
type Limits struct {
	// MaxSteps bounds the total length of a trace, including the terminal
	// error and end steps.
	MaxSteps int
	// MaxIterations bounds the iterations of any single loop.
	MaxIterations int
	// MaxArrayLength bounds how far an index assignment may grow an array.
	MaxArrayLength int
	// MaxStringLength bounds the byte length of any string a run builds.
	MaxStringLength int
	// MaxHeapBytes bounds the estimated size of every value and description
	// the trace retains.
	MaxHeapBytes int
}

// DefaultLimits returns the standard ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxSteps:        5000,
		MaxIterations:   1000,
		MaxArrayLength:  10_000,
		MaxStringLength: 1 << 20,
		MaxHeapBytes:    64 << 20,
	}
}

func (l Limits) normalized() Limits {
	d := DefaultLimits()
	if l.MaxSteps <= 0 {
		l.MaxSteps = d.MaxSteps
	}
	if l.MaxSteps < 3 {
		l.MaxSteps = 3
	}
	if l.MaxIterations <= 0 {
		l.MaxIterations = d.MaxIterations
	}
	if l.MaxArrayLength <= 0 {
		l.MaxArrayLength = d.MaxArrayLength
	}
	if l.MaxStringLength <= 0 {
		l.MaxStringLength = d.MaxStringLength
	}
	if l.MaxHeapBytes <= 0 {
		l.MaxHeapBytes = d.MaxHeapBytes
	}
	return l
}

// Interpreter runs programs. It holds no per-run state and is safe for
// concurrent use.
type Interpreter struct {
	limits Limits
	logger *slog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLimits overrides the default ceilings.
func WithLimits(l Limits) Option {
	return func(i *Interpreter) { i.limits = l.normalized() }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// New returns an Interpreter.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		limits: DefaultLimits(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Limits returns the configured ceilings.
func (i *Interpreter) Limits() Limits { return i.limits }

// Run executes prog and returns its trace. Program faults, ceilings and
// context cancellation are recorded in the trace rather than returned.
func (i *Interpreter) Run(ctx context.Context, prog *ast.Program, inputs []string) *domain.Trace {
	r := &run{
		ctx:    ctx,
		limits: i.limits,
		env:    NewEnv(),
		inputs: inputs,
	}

	err := r.emit(0, domain.KindStart, "Program started")
	if err == nil {
		err = r.execList(prog.Body)
	}
	if err != nil {
		r.fail(err)
		if !errors.As(err, new(*RuntimeError)) {
			i.logger.Debug("run stopped", "err", err, "steps", len(r.steps))
		}
	}
	r.finish()

	return &domain.Trace{
		Language: Language,
		Steps:    r.steps,
		Output:   slices.Clone(r.output),
		Err:      r.firstErr,
	}
}

// SyntaxErrorTrace returns the trace recorded for a program that does not
// parse: one error step followed by the end step.
func SyntaxErrorTrace(se *domain.SyntaxError) *domain.Trace {
	msg := fmt.Sprintf("Syntax Error at line %d: %s", se.Line, se.Message)
	snap := domain.NewSnapshot(domain.EmptyBindings(), nil, []string{GlobalFrame})
	return &domain.Trace{
		Language: Language,
		Steps: []domain.Step{
			{
				Line:        se.Line,
				Kind:        domain.KindError,
				Description: "Syntax Error: " + se.Message,
				Snapshot:    snap,
				Error:       msg,
			},
			{Kind: domain.KindEnd, Description: "Program finished", Snapshot: snap},
		},
		Output: []string{},
		Err:    msg,
	}
}

// run is the state of one execution.
type run struct {
	ctx    context.Context
	limits Limits
	env    *Env

	inputs []string
	nextIn int
	output []string

	steps    []domain.Step
	line     int
	firstErr string
	// heap is the estimated byte size of what the trace retains so far.
	heap int
}

// Rough per-slot sizes used by grown.
const (
	elemBytes = 16
	propBytes = 48
)

// charge adds n bytes to the retained-size estimate.
func (r *run) charge(n int) error {
	r.heap += n
	if r.heap > r.limits.MaxHeapBytes {
		return memoryLimitError(r.limits.MaxHeapBytes)
	}
	return nil
}

// grown checks a freshly built value against the size ceilings and charges
// it.
func (r *run) grown(v value.Value) (value.Value, error) {
	switch t := v.(type) {
	case string:
		if len(t) > r.limits.MaxStringLength {
			return nil, &RuntimeError{Message: "Invalid string length"}
		}
		return v, r.charge(len(t))
	case *value.Array:
		return v, r.charge(t.Len() * elemBytes)
	case *value.Object:
		return v, r.charge(t.Len() * propBytes)
	}
	return v, nil
}

func (r *run) snapshot() domain.Snapshot {
	return domain.NewSnapshot(r.env.Bindings(), r.output, r.env.Stack())
}

// room reports whether a regular step still fits, keeping two slots for the
// terminal error and end steps.
func (r *run) room() bool {
	return len(r.steps) < r.limits.MaxSteps-2
}

func (r *run) record(s domain.Step) error {
	if err := r.ctx.Err(); err != nil {
		return fmt.Errorf("execution cancelled: %w", err)
	}
	if !r.room() {
		return stepLimitError(r.limits.MaxSteps)
	}
	if err := r.charge(len(s.Description)); err != nil {
		return err
	}
	s.Snapshot = r.snapshot()
	r.steps = append(r.steps, s)
	return nil
}

func (r *run) emit(line int, kind domain.StepKind, desc string) error {
	return r.record(domain.Step{Line: line, Kind: kind, Description: desc})
}

func (r *run) emitCondition(line int, kind domain.StepKind, desc string, result bool, loop *domain.LoopState) error {
	return r.record(domain.Step{
		Line:            line,
		Kind:            kind,
		Description:     desc,
		ConditionResult: domain.Bool(result),
		LoopState:       loop,
	})
}

// warn records a non-fatal error step. It escalates to the step limit when
// no room is left.
func (r *run) warn(line int, err error) error {
	if !r.room() {
		return stepLimitError(r.limits.MaxSteps)
	}
	r.appendError(line, err.Error())
	return nil
}

// fail records the terminal error step.
func (r *run) fail(err error) {
	r.appendError(r.line, err.Error())
}

func (r *run) appendError(line int, msg string) {
	if r.firstErr == "" {
		r.firstErr = msg
	}
	r.steps = append(r.steps, domain.Step{
		Line:        line,
		Kind:        domain.KindError,
		Description: "Error: " + msg,
		Snapshot:    r.snapshot(),
		Error:       msg,
	})
}

func (r *run) finish() {
	r.steps = append(r.steps, domain.Step{
		Kind:        domain.KindEnd,
		Description: "Program finished",
		Snapshot:    r.snapshot(),
	})
}

func (r *run) print(args []value.Value) error {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.ToString(a)
	}
	line := strings.Join(parts, " ")
	if err := r.charge(len(line)); err != nil {
		return err
	}
	r.output = append(r.output, line)
	return nil
}
