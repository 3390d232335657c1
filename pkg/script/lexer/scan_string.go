package lexer

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/codeflow-dev/codeflow/pkg/script/token"
)

// ErrBadEscape is returned by Unescape for malformed escape sequences.
var ErrBadEscape = errors.New("bad character escape sequence")

func (lx *Lexer) scanString(quote byte) token.Token {
	c := &lx.cursor
	start := c.Pos()
	c.Bump()

	var b strings.Builder
	for {
		if c.EOF() || c.Peek() == '\n' {
			return token.Token{Kind: token.Illegal, Text: "Unterminated string constant", Pos: start}
		}
		ch := c.Peek()
		if ch == quote {
			c.Bump()
			return token.Token{Kind: token.String, Text: b.String(), Pos: start}
		}
		if ch == '\\' {
			escStart := c.off
			c.Bump()
			if c.EOF() {
				continue
			}
			c.Bump()
			// Pull in the rest of \x, \u and \u{...} sequences.
			switch c.src[escStart+1] {
			case 'x':
				for i := 0; i < 2 && isHex(c.Peek()); i++ {
					c.Bump()
				}
			case 'u':
				if c.Peek() == '{' {
					for !c.EOF() && c.Peek() != '}' && c.Peek() != '\n' {
						c.Bump()
					}
					c.Eat('}')
				} else {
					for i := 0; i < 4 && isHex(c.Peek()); i++ {
						c.Bump()
					}
				}
			}
			decoded, err := Unescape(c.src[escStart:c.off])
			if err != nil {
				return token.Token{Kind: token.Illegal, Text: err.Error(), Pos: start}
			}
			b.WriteString(decoded)
			continue
		}
		b.WriteRune(c.Bump())
	}
}

// scanTemplate reads a template literal up to its closing backtick and
// returns the raw body. Substitutions are kept verbatim for the parser.
func (lx *Lexer) scanTemplate() token.Token {
	c := &lx.cursor
	start := c.Pos()
	c.Bump()
	bodyStart := c.off

	unterminated := token.Token{Kind: token.Illegal, Text: "Unterminated template", Pos: start}
	for {
		if c.EOF() {
			return unterminated
		}
		switch c.Peek() {
		case '`':
			body := c.src[bodyStart:c.off]
			c.Bump()
			return token.Token{Kind: token.Template, Text: body, Pos: start}
		case '\\':
			c.Bump()
			c.Bump()
		case '$':
			c.Bump()
			if c.Peek() == '{' {
				c.Bump()
				if !lx.skipSubstitution() {
					return unterminated
				}
			}
		default:
			c.Bump()
		}
	}
}

// skipSubstitution advances past the body of a ${...} substitution,
// honouring nested braces, strings and templates.
func (lx *Lexer) skipSubstitution() bool {
	c := &lx.cursor
	depth := 1
	for !c.EOF() {
		switch ch := c.Peek(); ch {
		case '{':
			depth++
			c.Bump()
		case '}':
			depth--
			c.Bump()
			if depth == 0 {
				return true
			}
		case '"', '\'':
			if t := lx.scanString(ch); t.Kind == token.Illegal {
				return false
			}
		case '`':
			if t := lx.scanTemplate(); t.Kind == token.Illegal {
				return false
			}
		default:
			c.Bump()
		}
	}
	return false
}

// Unescape decodes the escape sequences in s.
func Unescape(s string) (string, error) {
	if !strings.Contains(s, "\\") {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] != '\\' {
			r, size := utf8.DecodeRuneInString(s[i:])
			b.WriteRune(r)
			i += size
			continue
		}
		i++
		if i >= len(s) {
			return "", ErrBadEscape
		}
		ch := s[i]
		i++
		switch ch {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// line continuation
		case '\r':
			if i < len(s) && s[i] == '\n' {
				i++
			}
		case 'x':
			if i+2 > len(s) {
				return "", ErrBadEscape
			}
			n, err := strconv.ParseUint(s[i:i+2], 16, 8)
			if err != nil {
				return "", ErrBadEscape
			}
			b.WriteRune(rune(n))
			i += 2
		case 'u':
			var hexDigits string
			if i < len(s) && s[i] == '{' {
				end := strings.IndexByte(s[i:], '}')
				if end < 0 {
					return "", ErrBadEscape
				}
				hexDigits = s[i+1 : i+end]
				i += end + 1
			} else {
				if i+4 > len(s) {
					return "", ErrBadEscape
				}
				hexDigits = s[i : i+4]
				i += 4
			}
			n, err := strconv.ParseUint(hexDigits, 16, 32)
			if err != nil || n > utf8.MaxRune {
				return "", ErrBadEscape
			}
			b.WriteRune(rune(n))
		default:
			r, size := utf8.DecodeRuneInString(s[i-1:])
			b.WriteRune(r)
			i += size - 1
		}
	}
	return b.String(), nil
}
