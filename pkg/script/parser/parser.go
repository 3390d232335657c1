// Package parser builds an ast.Program from script source.
//
// The grammar is the subset of JavaScript that the interpreter traces:
// declarations, expressions, if/else, for, while, do-while, function
// declarations, return, break and continue. switch, try and throw parse but
// are recorded as skipped statements. Statement termination follows the
// usual newline rules: a semicolon may be omitted before a line break, a
// closing brace or the end of input.
package parser

import (
	"fmt"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/script/ast"
	"github.com/codeflow-dev/codeflow/pkg/script/lexer"
	"github.com/codeflow-dev/codeflow/pkg/script/token"
)

// maxDepth bounds statement and expression nesting.
const maxDepth = 256

// Parser is the default ports.Parser.
type Parser struct{}

// New returns a Parser.
func New() *Parser { return &Parser{} }

// Parse parses src. Failures are returned as *domain.SyntaxError.
func (*Parser) Parse(src string) (*ast.Program, error) { return Parse(src) }

// Parse parses src. Failures are returned as *domain.SyntaxError.
func Parse(src string) (prog *ast.Program, err error) {
	p := newParser(lexer.Tokenize(src))
	defer p.recover(&err)
	p.checkIllegal()

	var body []ast.Stmt
	for p.tok.Kind != token.EOF {
		body = append(body, p.parseStatement())
	}
	return &ast.Program{Body: body}, nil
}

// parseExpressionSource parses a template substitution in place.
func parseExpressionSource(src string, at token.Pos) (x ast.Expr, err error) {
	p := newParser(lexer.TokenizeAt(src, at))
	defer p.recover(&err)
	p.checkIllegal()

	if p.tok.Kind == token.EOF {
		p.failAt(at, "Unexpected empty template substitution")
	}
	expr := p.parseExpression()
	if p.tok.Kind != token.EOF {
		p.unexpected()
	}
	return expr, nil
}

// bailout unwinds the parser on the first error.
type bailout struct{ err *domain.SyntaxError }

type parser struct {
	toks  []token.Token
	pos   int
	tok   token.Token
	depth int
}

func newParser(toks []token.Token) *parser {
	return &parser{toks: toks, tok: toks[0]}
}

func (p *parser) recover(err *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*err = b.err
	}
}

func (p *parser) next() {
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	p.tok = p.toks[p.pos]
	p.checkIllegal()
}

func (p *parser) checkIllegal() {
	if p.tok.Kind == token.Illegal {
		p.failAt(p.tok.Pos, p.tok.Text)
	}
}

// peek returns the token n positions after the current one.
func (p *parser) peek(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) at(k token.Kind) bool { return p.tok.Kind == k }

func (p *parser) eat(k token.Kind) bool {
	if p.tok.Kind == k {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(k token.Kind) token.Token {
	if p.tok.Kind != k {
		if p.tok.Kind == token.EOF {
			p.failAt(p.tok.Pos, "Unexpected end of input")
		}
		p.failAt(p.tok.Pos, fmt.Sprintf("Unexpected token, expected \"%s\"", k))
	}
	t := p.tok
	p.next()
	return t
}

func (p *parser) expectIdent() token.Token {
	if p.tok.Kind != token.Ident {
		p.unexpected()
	}
	t := p.tok
	p.next()
	return t
}

func (p *parser) unexpected() {
	if p.tok.Kind == token.EOF {
		p.failAt(p.tok.Pos, "Unexpected end of input")
	}
	p.failAt(p.tok.Pos, fmt.Sprintf("Unexpected token '%s'", p.tok.Text))
}

func (p *parser) failAt(pos token.Pos, msg string) {
	panic(bailout{&domain.SyntaxError{Message: msg, Line: pos.Line, Column: pos.Col}})
}

func (p *parser) enter() {
	p.depth++
	if p.depth > maxDepth {
		p.failAt(p.tok.Pos, "Maximum nesting depth exceeded")
	}
}

func (p *parser) leave() { p.depth-- }

// semicolon terminates a statement, allowing the semicolon to be omitted
// before a line break, a closing brace or the end of input.
func (p *parser) semicolon() {
	if p.eat(token.Semicolon) {
		return
	}
	if p.at(token.RBrace) || p.at(token.EOF) || p.tok.NewlineBefore {
		return
	}
	p.failAt(p.tok.Pos, "Missing semicolon.")
}
