package interpreter

import (
	"fmt"

	"github.com/codeflow-dev/codeflow/pkg/domain"
)

// RuntimeError is a failure raised by the traced program itself.
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string { return e.Message }

// limitError is raised when a ceiling is hit. Its message is user facing and
// it unwraps to the matching domain sentinel.
type limitError struct {
	msg  string
	kind error
}

func (e *limitError) Error() string { return e.msg }
func (e *limitError) Unwrap() error { return e.kind }

func stepLimitError(max int) error {
	return &limitError{
		msg:  fmt.Sprintf("Maximum step limit reached (%d). Possible infinite loop.", max),
		kind: domain.ErrStepLimit,
	}
}

func iterationLimitError(max int) error {
	return &limitError{
		msg:  fmt.Sprintf("Maximum iteration limit (%d) reached. Possible infinite loop detected.", max),
		kind: domain.ErrIterationLimit,
	}
}

func memoryLimitError(max int) error {
	return &limitError{
		msg:  fmt.Sprintf("Maximum memory limit reached (%d bytes). Values grow too large.", max),
		kind: domain.ErrMemoryLimit,
	}
}
