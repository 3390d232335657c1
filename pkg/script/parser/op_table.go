package parser

import "github.com/codeflow-dev/codeflow/pkg/script/token"

// Binary operator precedence, higher binds tighter.
const (
	precNullish        = 1  // ??
	precLogicalOr      = 2  // ||
	precLogicalAnd     = 3  // &&
	precBitwiseOr      = 4  // |
	precBitwiseXor     = 5  // ^
	precBitwiseAnd     = 6  // &
	precEquality       = 7  // == != === !==
	precComparison     = 8  // < <= > >=
	precShift          = 9  // << >> >>>
	precAdditive       = 10 // + -
	precMultiplicative = 11 // * / %
	precExponent       = 12 // **
)

// binaryPrec returns the precedence and associativity of a binary operator,
// or -1 when k is not one.
func binaryPrec(k token.Kind) (prec int, rightAssoc bool) {
	switch k {
	case token.QuestionQuestion:
		return precNullish, false
	case token.OrOr:
		return precLogicalOr, false
	case token.AndAnd:
		return precLogicalAnd, false
	case token.Pipe:
		return precBitwiseOr, false
	case token.Caret:
		return precBitwiseXor, false
	case token.Amp:
		return precBitwiseAnd, false
	case token.EqEq, token.BangEq, token.EqEqEq, token.BangEqEq:
		return precEquality, false
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precComparison, false
	case token.Shl, token.Shr, token.UShr:
		return precShift, false
	case token.Plus, token.Minus:
		return precAdditive, false
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative, false
	case token.StarStar:
		return precExponent, true
	default:
		return -1, false
	}
}

func isLogical(k token.Kind) bool {
	return k == token.AndAnd || k == token.OrOr || k == token.QuestionQuestion
}

func isUnary(k token.Kind) bool {
	switch k {
	case token.Bang, token.Minus, token.Plus, token.Tilde, token.Typeof:
		return true
	}
	return false
}
