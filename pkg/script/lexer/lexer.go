// Package lexer turns script source into tokens.
package lexer

import (
	"github.com/codeflow-dev/codeflow/pkg/script/token"
)

// Lexer produces tokens on demand with a one-token lookahead.
type Lexer struct {
	cursor  Cursor
	look    *token.Token
	newline bool
}

// New returns a lexer over src.
func New(src string) *Lexer {
	return &Lexer{cursor: NewCursor(src)}
}

// Next returns the next significant token. After EOF it keeps returning EOF.
// Lexical errors come back as Illegal tokens whose Text is the message.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	if msg, pos, ok := lx.skipTrivia(); !ok {
		return token.Token{Kind: token.Illegal, Text: msg, Pos: pos}
	}

	nl := lx.newline
	lx.newline = false

	var tok token.Token
	ch := lx.cursor.Peek()
	switch {
	case lx.cursor.EOF():
		tok = token.Token{Kind: token.EOF, Pos: lx.cursor.Pos()}
	case isIdentStart(ch):
		tok = lx.scanIdentOrKeyword()
	case isDigit(ch), ch == '.' && isDigit(lx.cursor.PeekAt(1)):
		tok = lx.scanNumber()
	case ch == '"' || ch == '\'':
		tok = lx.scanString(ch)
	case ch == '`':
		tok = lx.scanTemplate()
	default:
		tok = lx.scanOperatorOrPunct()
	}
	tok.NewlineBefore = nl
	return tok
}

// NewAt returns a lexer over src whose positions start at at. It is used to
// lex template substitutions in place.
func NewAt(src string, at token.Pos) *Lexer {
	c := NewCursor(src)
	c.line, c.col = at.Line, at.Col
	return &Lexer{cursor: c}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// Tokenize scans src completely. The slice always ends with EOF, or with the
// first Illegal token.
func Tokenize(src string) []token.Token {
	return New(src).tokenize()
}

// TokenizeAt is Tokenize with positions starting at at.
func TokenizeAt(src string, at token.Pos) []token.Token {
	return NewAt(src, at).tokenize()
}

func (lx *Lexer) tokenize() []token.Token {
	var toks []token.Token
	for {
		t := lx.Next()
		toks = append(toks, t)
		if t.Kind == token.EOF || t.Kind == token.Illegal {
			return toks
		}
	}
}
