package lexer

import (
	"github.com/codeflow-dev/codeflow/pkg/script/token"
)

func isHex(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// scanNumber reads decimal, hex, octal and binary literals. Numeric
// separators are accepted and stripped.
func (lx *Lexer) scanNumber() token.Token {
	c := &lx.cursor
	start := c.Pos()

	if c.Peek() == '0' {
		var valid func(byte) bool
		switch c.PeekAt(1) {
		case 'x', 'X':
			valid = isHex
		case 'o', 'O':
			valid = func(b byte) bool { return b >= '0' && b <= '7' }
		case 'b', 'B':
			valid = func(b byte) bool { return b == '0' || b == '1' }
		}
		if valid != nil {
			c.Bump()
			c.Bump()
			n := 0
			for valid(c.Peek()) || c.Peek() == '_' {
				c.Bump()
				n++
			}
			if n == 0 {
				return token.Token{Kind: token.Illegal, Text: "Expected number in radix", Pos: start}
			}
			return lx.finishNumber(start)
		}
	}

	digits := func() {
		for isDigit(c.Peek()) || (c.Peek() == '_' && isDigit(c.PeekAt(1))) {
			c.Bump()
		}
	}
	digits()
	if c.Peek() == '.' {
		c.Bump()
		digits()
	}
	if c.Peek() == 'e' || c.Peek() == 'E' {
		c.Bump()
		if c.Peek() == '+' || c.Peek() == '-' {
			c.Bump()
		}
		if !isDigit(c.Peek()) {
			return token.Token{Kind: token.Illegal, Text: "Invalid number", Pos: start}
		}
		digits()
	}
	return lx.finishNumber(start)
}

func (lx *Lexer) finishNumber(start token.Pos) token.Token {
	c := &lx.cursor
	if isIdentStart(c.Peek()) {
		return token.Token{Kind: token.Illegal, Text: "Identifier directly after number", Pos: c.Pos()}
	}
	raw := c.From(start)
	clean := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] != '_' {
			clean = append(clean, raw[i])
		}
	}
	return token.Token{Kind: token.Number, Text: string(clean), Pos: start}
}
