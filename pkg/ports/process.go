package ports

import "context"

// ProcessResult is the outcome of one external program run.
type ProcessResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Truncated is set when the program was stopped for writing more
	// output than allowed.
	Truncated bool
}

// ProcessRunner executes programs with a real toolchain.
// Implementations enforce their own wall-clock timeout.
type ProcessRunner interface {
	// Supports reports whether a toolchain is registered for language.
	Supports(language string) bool

	// Run compiles (if needed) and runs code, feeding inputs on stdin one
	// per line. A failed compile or a non-zero exit is reported through
	// the result, not the error; the error is for setup failures and
	// timeouts and wraps domain.ErrExternalExecution.
	Run(ctx context.Context, language, code string, inputs []string) (ProcessResult, error)
}
