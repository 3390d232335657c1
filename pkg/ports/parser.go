package ports

import "github.com/codeflow-dev/codeflow/pkg/script/ast"

// Parser turns source text into a program.
type Parser interface {
	// Parse returns the program, or an error wrapping a *domain.SyntaxError
	// when the source does not parse.
	Parse(src string) (*ast.Program, error)
}
