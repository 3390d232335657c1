package lexer

import (
	"unicode/utf8"

	"github.com/codeflow-dev/codeflow/pkg/script/token"
)

// Cursor is a position in the source with line/column tracking.
type Cursor struct {
	src  string
	off  int
	line int
	col  int
}

// NewCursor returns a cursor at the start of src.
func NewCursor(src string) Cursor {
	return Cursor{src: src, line: 1, col: 1}
}

// EOF reports whether the cursor is past the last byte.
func (c *Cursor) EOF() bool { return c.off >= len(c.src) }

// Peek returns the current byte, or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.src[c.off]
}

// PeekAt returns the byte n positions ahead, or 0 past EOF.
func (c *Cursor) PeekAt(n int) byte {
	if c.off+n >= len(c.src) {
		return 0
	}
	return c.src[c.off+n]
}

// Bump advances one rune and returns it.
func (c *Cursor) Bump() rune {
	if c.EOF() {
		return 0
	}
	r, size := utf8.DecodeRuneInString(c.src[c.off:])
	c.off += size
	if r == '\n' {
		c.line++
		c.col = 1
	} else {
		c.col++
	}
	return r
}

// Eat advances past b when it is the current byte.
func (c *Cursor) Eat(b byte) bool {
	if c.Peek() == b {
		c.Bump()
		return true
	}
	return false
}

// Pos returns the current position.
func (c *Cursor) Pos() token.Pos {
	return token.Pos{Off: c.off, Line: c.line, Col: c.col}
}

// From returns the source text between start and the cursor.
func (c *Cursor) From(start token.Pos) string {
	return c.src[start.Off:c.off]
}
