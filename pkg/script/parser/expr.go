package parser

import (
	"errors"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/script/ast"
	"github.com/codeflow-dev/codeflow/pkg/script/lexer"
	"github.com/codeflow-dev/codeflow/pkg/script/token"
	"github.com/codeflow-dev/codeflow/pkg/value"
)

// parseExpression parses a comma-separated expression list.
func (p *parser) parseExpression() ast.Expr {
	x := p.parseAssign()
	if !p.at(token.Comma) {
		return x
	}
	seq := &ast.SequenceExpr{At: x.Pos(), Exprs: []ast.Expr{x}}
	for p.eat(token.Comma) {
		seq.Exprs = append(seq.Exprs, p.parseAssign())
	}
	return seq
}

func (p *parser) parseAssign() ast.Expr {
	if p.at(token.Ident) && p.peek(1).Kind == token.Arrow {
		return p.parseArrow()
	}
	if p.at(token.LParen) && p.isArrowHead() {
		return p.parseArrow()
	}

	left := p.parseConditional()
	if !p.tok.Kind.IsAssign() {
		return left
	}
	op := p.tok
	p.checkTarget(left, "Invalid left-hand side in assignment expression.")
	p.next()
	return &ast.AssignExpr{At: left.Pos(), Op: op.Text, Target: left, Value: p.parseAssign()}
}

// isArrowHead reports whether the parenthesised group at the cursor is
// followed by =>.
func (p *parser) isArrowHead() bool {
	depth := 0
	for i := 0; ; i++ {
		t := p.peek(i)
		switch t.Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				return p.peek(i+1).Kind == token.Arrow
			}
		case token.EOF, token.Illegal:
			return false
		}
	}
}

func (p *parser) parseArrow() ast.Expr {
	fn := &ast.FuncLit{At: p.tok.Pos, Arrow: true}
	if p.at(token.Ident) {
		fn.Params = []string{p.tok.Text}
		p.next()
	} else {
		fn.Params = p.parseParams()
	}
	if p.tok.NewlineBefore {
		p.failAt(p.tok.Pos, "Unexpected line break before arrow")
	}
	p.expect(token.Arrow)
	if p.at(token.LBrace) {
		fn.Body = p.parseBlock()
		return fn
	}
	body := p.parseAssign()
	fn.Body = &ast.BlockStmt{At: body.Pos(), Body: []ast.Stmt{&ast.ReturnStmt{At: body.Pos(), Value: body}}}
	return fn
}

func (p *parser) checkTarget(x ast.Expr, msg string) {
	switch x.(type) {
	case *ast.Ident, *ast.MemberExpr:
		return
	}
	p.failAt(x.Pos(), msg)
}

func (p *parser) parseConditional() ast.Expr {
	test := p.parseBinary(precNullish)
	if !p.eat(token.Question) {
		return test
	}
	then := p.parseAssign()
	p.expect(token.Colon)
	return &ast.CondExpr{At: test.Pos(), Test: test, Then: then, Else: p.parseAssign()}
}

// parseBinary is a precedence climbing loop over binary operators.
func (p *parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec, rightAssoc := binaryPrec(p.tok.Kind)
		if prec < 0 || prec < minPrec {
			return left
		}
		op := p.tok
		p.next()

		nextMin := prec + 1
		if rightAssoc {
			nextMin = prec
		}
		right := p.parseBinary(nextMin)

		if isLogical(op.Kind) {
			left = &ast.LogicalExpr{At: left.Pos(), Op: op.Text, X: left, Y: right}
		} else {
			left = &ast.BinaryExpr{At: left.Pos(), Op: op.Text, X: left, Y: right}
		}
	}
}

func (p *parser) parseUnary() ast.Expr {
	p.enter()
	defer p.leave()

	switch k := p.tok.Kind; {
	case isUnary(k):
		op := p.tok
		p.next()
		return &ast.UnaryExpr{At: op.Pos, Op: op.Text, X: p.parseUnary()}
	case k == token.PlusPlus || k == token.MinusMinus:
		op := p.tok
		p.next()
		target := p.parseUnary()
		p.checkTarget(target, "Invalid left-hand side in prefix operation.")
		return &ast.UpdateExpr{At: op.Pos, Op: op.Text, Prefix: true, Target: target}
	}

	x := p.parseCallMember()
	if (p.at(token.PlusPlus) || p.at(token.MinusMinus)) && !p.tok.NewlineBefore {
		p.checkTarget(x, "Invalid left-hand side in postfix operation.")
		op := p.tok
		p.next()
		return &ast.UpdateExpr{At: x.Pos(), Op: op.Text, Target: x}
	}
	return x
}

func (p *parser) parseCallMember() ast.Expr {
	var x ast.Expr
	if p.at(token.New) {
		x = p.parseNew()
	} else {
		x = p.parsePrimary()
	}
	for {
		switch p.tok.Kind {
		case token.Dot, token.LBracket:
			x = p.parseMember(x)
		case token.LParen:
			x = &ast.CallExpr{At: x.Pos(), Callee: x, Args: p.parseArgs()}
		default:
			return x
		}
	}
}

func (p *parser) parseMember(obj ast.Expr) ast.Expr {
	if p.eat(token.LBracket) {
		prop := p.parseExpression()
		p.expect(token.RBracket)
		return &ast.MemberExpr{At: obj.Pos(), Object: obj, Property: prop, Computed: true}
	}
	p.expect(token.Dot)
	if p.tok.Kind != token.Ident && !p.tok.Kind.IsKeyword() {
		p.unexpected()
	}
	name := &ast.Ident{At: p.tok.Pos, Name: p.tok.Text}
	p.next()
	return &ast.MemberExpr{At: obj.Pos(), Object: obj, Property: name}
}

func (p *parser) parseNew() ast.Expr {
	at := p.tok.Pos
	p.next()
	callee := p.parsePrimary()
	for p.at(token.Dot) || p.at(token.LBracket) {
		callee = p.parseMember(callee)
	}
	x := &ast.NewExpr{At: at, Callee: callee}
	if p.at(token.LParen) {
		x.Args = p.parseArgs()
	}
	return x
}

func (p *parser) parseArgs() []ast.Expr {
	p.expect(token.LParen)
	var args []ast.Expr
	for !p.at(token.RParen) {
		args = append(args, p.parseAssign())
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	return args
}

func (p *parser) parsePrimary() ast.Expr {
	t := p.tok
	switch t.Kind {
	case token.Number:
		p.next()
		return &ast.NumberLit{At: t.Pos, Value: value.StringToNumber(t.Text)}
	case token.String:
		p.next()
		return &ast.StringLit{At: t.Pos, Value: t.Text}
	case token.Template:
		p.next()
		return p.parseTemplate(t)
	case token.True, token.False:
		p.next()
		return &ast.BoolLit{At: t.Pos, Value: t.Kind == token.True}
	case token.Null:
		p.next()
		return &ast.NullLit{At: t.Pos}
	case token.Ident:
		p.next()
		return &ast.Ident{At: t.Pos, Name: t.Text}
	case token.LParen:
		p.next()
		x := p.parseExpression()
		p.expect(token.RParen)
		return x
	case token.LBracket:
		return p.parseArray()
	case token.LBrace:
		return p.parseObject()
	case token.Function:
		p.next()
		fn := &ast.FuncLit{At: t.Pos}
		if p.at(token.Ident) {
			fn.Name = p.tok.Text
			p.next()
		}
		fn.Params = p.parseParams()
		fn.Body = p.parseBlock()
		return fn
	}
	p.unexpected()
	return nil
}

func (p *parser) parseTemplate(t token.Token) ast.Expr {
	body := token.Pos{Off: t.Pos.Off + 1, Line: t.Pos.Line, Col: t.Pos.Col + 1}
	quasis, subs, err := lexer.SplitTemplate(t.Text, body)
	if err != nil {
		p.failAt(t.Pos, "Invalid template: "+err.Error())
	}
	tpl := &ast.TemplateLit{At: t.Pos, Quasis: quasis}
	for _, sub := range subs {
		x, err := parseExpressionSource(sub.Src, sub.At)
		if err != nil {
			var se *domain.SyntaxError
			if errors.As(err, &se) {
				panic(bailout{se})
			}
			p.failAt(sub.At, err.Error())
		}
		tpl.Exprs = append(tpl.Exprs, x)
	}
	return tpl
}

func (p *parser) parseArray() ast.Expr {
	arr := &ast.ArrayLit{At: p.tok.Pos}
	p.next()
	for !p.at(token.RBracket) {
		if p.at(token.Comma) {
			p.next()
			arr.Elems = append(arr.Elems, nil)
			continue
		}
		arr.Elems = append(arr.Elems, p.parseAssign())
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RBracket)
	return arr
}

func (p *parser) parseObject() ast.Expr {
	obj := &ast.ObjectLit{At: p.tok.Pos}
	p.next()
	for !p.at(token.RBrace) {
		keyTok := p.tok
		var key string
		switch {
		case keyTok.Kind == token.Ident, keyTok.Kind.IsKeyword(), keyTok.Kind == token.String:
			key = keyTok.Text
		case keyTok.Kind == token.Number:
			key = value.FormatNumber(value.StringToNumber(keyTok.Text))
		case keyTok.Kind == token.LBracket:
			p.failAt(keyTok.Pos, "Computed property keys are not supported")
		default:
			p.unexpected()
		}
		p.next()

		switch {
		case p.eat(token.Colon):
			obj.Props = append(obj.Props, ast.Property{Key: key, Value: p.parseAssign()})
		case p.at(token.LParen):
			fn := &ast.FuncLit{At: keyTok.Pos, Name: key, Params: p.parseParams()}
			fn.Body = p.parseBlock()
			obj.Props = append(obj.Props, ast.Property{Key: key, Value: fn})
		case keyTok.Kind == token.Ident && (p.at(token.Comma) || p.at(token.RBrace)):
			obj.Props = append(obj.Props, ast.Property{Key: key, Value: &ast.Ident{At: keyTok.Pos, Name: key}})
		default:
			p.unexpected()
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace)
	return obj
}
