// Package strategy selects how a trace is produced for a language: the
// interpreter, an external toolchain with a static overlay, or static
// analysis alone.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codeflow-dev/codeflow/pkg/analyzer"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/interpreter"
	"github.com/codeflow-dev/codeflow/pkg/ports"
)

// Strategy produces traces for the languages it is selected for.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string
	Trace(ctx context.Context, src domain.Source) (*domain.Trace, error)
}

// Cacheable is implemented by strategies whose traces depend only on the
// source, so they can be memoized.
type Cacheable interface {
	Cacheable() bool
}

// Interpreter runs the program with the tree-walking interpreter.
type Interpreter struct {
	parser ports.Parser
	interp *interpreter.Interpreter
}

// NewInterpreter returns the interpreter strategy.
func NewInterpreter(parser ports.Parser, interp *interpreter.Interpreter) *Interpreter {
	return &Interpreter{parser: parser, interp: interp}
}

func (s *Interpreter) Name() string { return "interpreter" }

func (s *Interpreter) Cacheable() bool { return true }

// Trace parses and runs src. A syntax error yields the two-step error trace.
func (s *Interpreter) Trace(ctx context.Context, src domain.Source) (*domain.Trace, error) {
	prog, err := s.parser.Parse(src.Code)
	if err != nil {
		var se *domain.SyntaxError
		if errors.As(err, &se) {
			return interpreter.SyntaxErrorTrace(se), nil
		}
		return nil, fmt.Errorf("parse: %w", err)
	}
	return s.interp.Run(ctx, prog, src.Inputs), nil
}

// Static builds the schematic trace without executing anything.
type Static struct {
	analyzer *analyzer.Analyzer
}

// NewStatic returns the static analysis strategy.
func NewStatic(a *analyzer.Analyzer) *Static {
	return &Static{analyzer: a}
}

func (s *Static) Name() string { return "static" }

func (s *Static) Cacheable() bool { return true }

func (s *Static) Trace(ctx context.Context, src domain.Source) (*domain.Trace, error) {
	return s.analyzer.Analyze(src.Code, src.Language), nil
}

// Process runs the program with a real toolchain and lays its output over
// the static trace of the source.
type Process struct {
	runner   ports.ProcessRunner
	analyzer *analyzer.Analyzer
}

// NewProcess returns the external execution strategy.
func NewProcess(runner ports.ProcessRunner, a *analyzer.Analyzer) *Process {
	return &Process{runner: runner, analyzer: a}
}

func (s *Process) Name() string { return "process" }

// Cacheable is false: toolchain runs depend on the host and on timing.
func (s *Process) Cacheable() bool { return false }

// Supports reports whether the runner has a toolchain for language.
func (s *Process) Supports(language string) bool { return s.runner.Supports(language) }

// Trace runs src and overlays its stdout on the final static step. A failed
// run adds an error step just before the end step.
func (s *Process) Trace(ctx context.Context, src domain.Source) (*domain.Trace, error) {
	t := s.analyzer.Analyze(src.Code, src.Language)

	res, err := s.runner.Run(ctx, src.Language, src.Code, src.Inputs)
	if err != nil {
		res = ports.ProcessResult{Stderr: err.Error(), ExitCode: -1}
	}
	lines := outputLines(res.Stdout)
	t.Output = lines

	end := t.Steps[len(t.Steps)-1]
	end.Snapshot = end.Snapshot.WithOutput(lines)

	if res.ExitCode != 0 {
		msg := strings.TrimSpace(res.Stderr)
		if msg == "" {
			msg = fmt.Sprintf("process exited with status %d", res.ExitCode)
		}
		first, _, _ := strings.Cut(msg, "\n")
		t.Err = msg
		errStep := domain.Step{
			Kind:        domain.KindError,
			Description: first,
			Snapshot:    domain.SnapshotOf(nil, lines, []string{analyzer.Frame}),
			Error:       msg,
		}
		t.Steps = append(t.Steps[:len(t.Steps)-1], errStep, end)
		return t, nil
	}
	t.Steps[len(t.Steps)-1] = end
	return t, nil
}

// outputLines splits captured stdout into its non-empty lines.
func outputLines(stdout string) []string {
	lines := []string{}
	for _, l := range strings.Split(stdout, "\n") {
		l = strings.TrimRight(l, "\r")
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
