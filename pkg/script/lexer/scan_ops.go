package lexer

import (
	"github.com/codeflow-dev/codeflow/pkg/script/token"
)

// operators is ordered longest first so the scanner is greedy.
var operators = []struct {
	text string
	kind token.Kind
}{
	{">>>", token.UShr},
	{"===", token.EqEqEq},
	{"!==", token.BangEqEq},
	{"**=", token.StarStarAssign},
	{"=>", token.Arrow},
	{"==", token.EqEq},
	{"!=", token.BangEq},
	{"<=", token.LtEq},
	{">=", token.GtEq},
	{"&&", token.AndAnd},
	{"||", token.OrOr},
	{"??", token.QuestionQuestion},
	{"++", token.PlusPlus},
	{"--", token.MinusMinus},
	{"+=", token.PlusAssign},
	{"-=", token.MinusAssign},
	{"*=", token.StarAssign},
	{"/=", token.SlashAssign},
	{"%=", token.PercentAssign},
	{"**", token.StarStar},
	{"<<", token.Shl},
	{">>", token.Shr},
	{"(", token.LParen},
	{")", token.RParen},
	{"{", token.LBrace},
	{"}", token.RBrace},
	{"[", token.LBracket},
	{"]", token.RBracket},
	{";", token.Semicolon},
	{",", token.Comma},
	{".", token.Dot},
	{"?", token.Question},
	{":", token.Colon},
	{"+", token.Plus},
	{"-", token.Minus},
	{"*", token.Star},
	{"/", token.Slash},
	{"%", token.Percent},
	{"=", token.Assign},
	{"<", token.Lt},
	{">", token.Gt},
	{"!", token.Bang},
	{"&", token.Amp},
	{"|", token.Pipe},
	{"^", token.Caret},
	{"~", token.Tilde},
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	c := &lx.cursor
	start := c.Pos()
	rest := c.src[c.off:]
	for _, op := range operators {
		if len(rest) >= len(op.text) && rest[:len(op.text)] == op.text {
			for range len(op.text) {
				c.Bump()
			}
			return token.Token{Kind: op.kind, Text: op.text, Pos: start}
		}
	}
	r := c.Bump()
	return token.Token{Kind: token.Illegal, Text: "Unexpected character '" + string(r) + "'", Pos: start}
}
