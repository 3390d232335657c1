package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax is wrapped by every SyntaxError.
	ErrSyntax = errors.New("syntax error")

	// ErrStepLimit is raised when a run records more steps than allowed.
	ErrStepLimit = errors.New("step limit reached")

	// ErrIterationLimit is raised when a single loop iterates more than allowed.
	ErrIterationLimit = errors.New("iteration limit reached")

	// ErrMemoryLimit is raised when the values a run retains outgrow their budget.
	ErrMemoryLimit = errors.New("memory limit reached")

	// ErrExternalExecution is returned when a toolchain fails to compile or run a program.
	ErrExternalExecution = errors.New("external execution failed")

	// ErrToolchainNotFound is returned when no toolchain is registered for a language.
	ErrToolchainNotFound = errors.New("toolchain not found")

	// ErrEmptySource is returned when the submitted code is blank.
	ErrEmptySource = errors.New("no code provided")

	// ErrSourceTooLarge is returned when the submitted code exceeds the size limit.
	ErrSourceTooLarge = errors.New("code too large")

	// ErrNoTrace is returned by playback commands issued before a trace exists.
	ErrNoTrace = errors.New("no trace loaded")

	// ErrRunInProgress is returned by playback commands issued while a trace is computed.
	ErrRunInProgress = errors.New("run in progress")

	// ErrTraceNotFound is returned when a trace key is absent from a store.
	ErrTraceNotFound = errors.New("trace not found")

	// ErrSessionNotFound is returned when a session ID is unknown.
	ErrSessionNotFound = errors.New("session not found")
)

// SyntaxError reports a parse failure at a source position.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
}

// Unwrap lets errors.Is(err, ErrSyntax) match.
func (e *SyntaxError) Unwrap() error { return ErrSyntax }
