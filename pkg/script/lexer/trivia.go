package lexer

import (
	"github.com/codeflow-dev/codeflow/pkg/script/token"
)

// skipTrivia consumes whitespace and comments, noting line breaks.
// It fails only on an unterminated block comment.
func (lx *Lexer) skipTrivia() (string, token.Pos, bool) {
	c := &lx.cursor
	for !c.EOF() {
		switch ch := c.Peek(); {
		case ch == '\n':
			lx.newline = true
			c.Bump()
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\v' || ch == '\f':
			c.Bump()
		case ch == '/' && c.PeekAt(1) == '/':
			for !c.EOF() && c.Peek() != '\n' {
				c.Bump()
			}
		case ch == '/' && c.PeekAt(1) == '*':
			start := c.Pos()
			c.Bump()
			c.Bump()
			closed := false
			for !c.EOF() {
				if c.Peek() == '*' && c.PeekAt(1) == '/' {
					c.Bump()
					c.Bump()
					closed = true
					break
				}
				if c.Bump() == '\n' {
					lx.newline = true
				}
			}
			if !closed {
				return "Unterminated comment", start, false
			}
		case ch == 0xC2 && c.PeekAt(1) == 0xA0:
			// no-break space
			c.Bump()
		default:
			return "", token.Pos{}, true
		}
	}
	return "", token.Pos{}, true
}
