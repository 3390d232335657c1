package lexer

import (
	"errors"

	"github.com/codeflow-dev/codeflow/pkg/script/token"
)

// ErrUnterminatedSubstitution is returned by SplitTemplate when a ${ is never closed.
var ErrUnterminatedSubstitution = errors.New("unterminated template substitution")

// Substitution is the source of one ${...} expression inside a template.
type Substitution struct {
	Src string
	At  token.Pos
}

// SplitTemplate breaks a raw template body into cooked string parts and the
// substitutions between them. at is the position of the first body byte.
// There is always one more quasi than substitutions.
func SplitTemplate(raw string, at token.Pos) ([]string, []Substitution, error) {
	lx := NewAt(raw, at)
	c := &lx.cursor

	var quasis []string
	var subs []Substitution
	quasiStart := 0

	cook := func(end int) error {
		s, err := Unescape(raw[quasiStart:end])
		if err != nil {
			return err
		}
		quasis = append(quasis, s)
		return nil
	}

	for !c.EOF() {
		switch {
		case c.Peek() == '\\':
			c.Bump()
			c.Bump()
		case c.Peek() == '$' && c.PeekAt(1) == '{':
			if err := cook(c.off); err != nil {
				return nil, nil, err
			}
			c.Bump()
			c.Bump()
			start := c.Pos()
			end, err := lx.closeSubstitution()
			if err != nil {
				return nil, nil, err
			}
			subs = append(subs, Substitution{Src: raw[start.Off:end], At: start})
			quasiStart = c.off
		default:
			c.Bump()
		}
	}
	if err := cook(len(raw)); err != nil {
		return nil, nil, err
	}
	return quasis, subs, nil
}

// closeSubstitution lexes up to the brace closing the current substitution
// and returns the offset of that brace.
func (lx *Lexer) closeSubstitution() (int, error) {
	depth := 0
	for {
		t := lx.Next()
		switch t.Kind {
		case token.LBrace:
			depth++
		case token.RBrace:
			if depth == 0 {
				return t.Pos.Off, nil
			}
			depth--
		case token.EOF:
			return 0, ErrUnterminatedSubstitution
		case token.Illegal:
			return 0, errors.New(t.Text)
		}
	}
}
