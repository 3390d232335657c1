// Package token defines the lexical tokens of the traced script language.
package token

import "fmt"

// Kind identifies a token class.
type Kind int

const (
	Illegal Kind = iota
	EOF

	Ident
	Number
	String
	Template

	// Keywords
	keywordStart
	Let
	Const
	Var
	If
	Else
	For
	While
	Do
	Function
	Return
	Break
	Continue
	True
	False
	Null
	Typeof
	Switch
	Case
	Default
	Try
	Catch
	Finally
	Throw
	New
	keywordEnd

	// Punctuation
	LParen
	RParen
	LBrace
	RBrace
	LBracket
	RBracket
	Semicolon
	Comma
	Dot
	Question
	Colon
	Arrow

	// Operators
	Plus
	Minus
	Star
	Slash
	Percent
	StarStar
	PlusPlus
	MinusMinus
	Assign
	PlusAssign
	MinusAssign
	StarAssign
	SlashAssign
	PercentAssign
	StarStarAssign
	EqEq
	BangEq
	EqEqEq
	BangEqEq
	Lt
	Gt
	LtEq
	GtEq
	AndAnd
	OrOr
	QuestionQuestion
	Bang
	Amp
	Pipe
	Caret
	Tilde
	Shl
	Shr
	UShr
)

var names = map[Kind]string{
	Illegal:          "ILLEGAL",
	EOF:              "EOF",
	Ident:            "identifier",
	Number:           "number",
	String:           "string",
	Template:         "template",
	Let:              "let",
	Const:            "const",
	Var:              "var",
	If:               "if",
	Else:             "else",
	For:              "for",
	While:            "while",
	Do:               "do",
	Function:         "function",
	Return:           "return",
	Break:            "break",
	Continue:         "continue",
	True:             "true",
	False:            "false",
	Null:             "null",
	Typeof:           "typeof",
	Switch:           "switch",
	Case:             "case",
	Default:          "default",
	Try:              "try",
	Catch:            "catch",
	Finally:          "finally",
	Throw:            "throw",
	New:              "new",
	LParen:           "(",
	RParen:           ")",
	LBrace:           "{",
	RBrace:           "}",
	LBracket:         "[",
	RBracket:         "]",
	Semicolon:        ";",
	Comma:            ",",
	Dot:              ".",
	Question:         "?",
	Colon:            ":",
	Arrow:            "=>",
	Plus:             "+",
	Minus:            "-",
	Star:             "*",
	Slash:            "/",
	Percent:          "%",
	StarStar:         "**",
	PlusPlus:         "++",
	MinusMinus:       "--",
	Assign:           "=",
	PlusAssign:       "+=",
	MinusAssign:      "-=",
	StarAssign:       "*=",
	SlashAssign:      "/=",
	PercentAssign:    "%=",
	StarStarAssign:   "**=",
	EqEq:             "==",
	BangEq:           "!=",
	EqEqEq:           "===",
	BangEqEq:         "!==",
	Lt:               "<",
	Gt:               ">",
	LtEq:             "<=",
	GtEq:             ">=",
	AndAnd:           "&&",
	OrOr:             "||",
	QuestionQuestion: "??",
	Bang:             "!",
	Amp:              "&",
	Pipe:             "|",
	Caret:            "^",
	Tilde:            "~",
	Shl:              "<<",
	Shr:              ">>",
	UShr:             ">>>",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool { return k > keywordStart && k < keywordEnd }

// IsAssign reports whether k is an assignment operator.
func (k Kind) IsAssign() bool {
	switch k {
	case Assign, PlusAssign, MinusAssign, StarAssign, SlashAssign, PercentAssign, StarStarAssign:
		return true
	}
	return false
}

var keywords = func() map[string]Kind {
	m := make(map[string]Kind)
	for k := keywordStart + 1; k < keywordEnd; k++ {
		m[names[k]] = k
	}
	return m
}()

// Lookup maps an identifier to its keyword kind, or Ident.
func Lookup(ident string) Kind {
	if k, ok := keywords[ident]; ok {
		return k
	}
	return Ident
}

// Pos is a source position. Line and Col are 1-based.
type Pos struct {
	Off  int
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Col) }

// Token is one lexical token.
type Token struct {
	Kind Kind
	// Text is the raw source text. Strings carry their decoded body;
	// templates carry the raw body between the backticks.
	Text string
	Pos  Pos
	// NewlineBefore is set when a line break separates this token from the
	// previous one. Statement termination relies on it.
	NewlineBefore bool
}
