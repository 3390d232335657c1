package lexer

import (
	"github.com/codeflow-dev/codeflow/pkg/script/token"
)

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	c := &lx.cursor
	start := c.Pos()
	for !c.EOF() && isIdentContinue(c.Peek()) {
		c.Bump()
	}
	text := c.From(start)
	return token.Token{Kind: token.Lookup(text), Text: text, Pos: start}
}
