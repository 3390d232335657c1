package parser

import (
	"github.com/codeflow-dev/codeflow/pkg/script/ast"
	"github.com/codeflow-dev/codeflow/pkg/script/token"
)

func (p *parser) parseStatement() ast.Stmt {
	p.enter()
	defer p.leave()

	switch p.tok.Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.Semicolon:
		at := p.tok.Pos
		p.next()
		return &ast.EmptyStmt{At: at}
	case token.Let, token.Const, token.Var:
		decl := p.parseVarDecl()
		p.checkConstInit(decl)
		p.semicolon()
		return decl
	case token.If:
		return p.parseIf()
	case token.For:
		return p.parseFor()
	case token.While:
		return p.parseWhile()
	case token.Do:
		return p.parseDoWhile()
	case token.Function:
		return p.parseFuncDecl()
	case token.Return:
		return p.parseReturn()
	case token.Break:
		at := p.tok.Pos
		p.next()
		p.skipLabel()
		p.semicolon()
		return &ast.BreakStmt{At: at}
	case token.Continue:
		at := p.tok.Pos
		p.next()
		p.skipLabel()
		p.semicolon()
		return &ast.ContinueStmt{At: at}
	case token.Switch:
		return p.parseSwitch()
	case token.Try:
		return p.parseTry()
	case token.Throw:
		at := p.tok.Pos
		p.next()
		if p.tok.NewlineBefore {
			p.failAt(p.tok.Pos, "Illegal newline after throw")
		}
		p.parseExpression()
		p.semicolon()
		return &ast.SkippedStmt{At: at, Keyword: "throw"}
	case token.Else:
		p.unexpected()
	}

	at := p.tok.Pos
	x := p.parseExpression()
	p.semicolon()
	return &ast.ExprStmt{At: at, X: x}
}

func (p *parser) skipLabel() {
	if p.at(token.Ident) && !p.tok.NewlineBefore {
		p.next()
	}
}

func (p *parser) parseBlock() *ast.BlockStmt {
	at := p.expect(token.LBrace).Pos
	block := &ast.BlockStmt{At: at}
	for !p.at(token.RBrace) {
		if p.at(token.EOF) {
			p.unexpected()
		}
		block.Body = append(block.Body, p.parseStatement())
	}
	p.next()
	return block
}

// parseVarDecl parses a declaration list without its terminator.
func (p *parser) parseVarDecl() *ast.VarDecl {
	decl := &ast.VarDecl{At: p.tok.Pos, Kind: p.tok.Text}
	p.next()
	for {
		name := p.expectIdent()
		d := ast.Declarator{At: name.Pos, Name: name.Text}
		if p.eat(token.Assign) {
			d.Init = p.parseAssign()
		}
		decl.Decls = append(decl.Decls, d)
		if !p.eat(token.Comma) {
			break
		}
	}
	return decl
}

func (p *parser) checkConstInit(decl *ast.VarDecl) {
	if decl.Kind != "const" {
		return
	}
	for _, d := range decl.Decls {
		if d.Init == nil {
			p.failAt(d.At, "Missing initializer in const declaration.")
		}
	}
}

func (p *parser) parseIf() ast.Stmt {
	at := p.tok.Pos
	p.next()
	p.expect(token.LParen)
	test := p.parseExpression()
	p.expect(token.RParen)
	stmt := &ast.IfStmt{At: at, Test: test, Then: p.parseStatement()}
	if p.eat(token.Else) {
		stmt.Else = p.parseStatement()
	}
	return stmt
}

func (p *parser) parseFor() ast.Stmt {
	at := p.tok.Pos
	p.next()
	p.expect(token.LParen)

	if p.isForInOf() {
		for depth := 1; depth > 0; p.next() {
			switch p.tok.Kind {
			case token.LParen:
				depth++
			case token.RParen:
				depth--
			case token.EOF:
				p.unexpected()
			}
		}
		p.parseStatement()
		return &ast.SkippedStmt{At: at, Keyword: "for"}
	}

	stmt := &ast.ForStmt{At: at}
	switch p.tok.Kind {
	case token.Semicolon:
	case token.Let, token.Const, token.Var:
		decl := p.parseVarDecl()
		p.checkConstInit(decl)
		stmt.Init = decl
	default:
		initAt := p.tok.Pos
		stmt.Init = &ast.ExprStmt{At: initAt, X: p.parseExpression()}
	}
	p.expect(token.Semicolon)
	if !p.at(token.Semicolon) {
		stmt.Test = p.parseExpression()
	}
	p.expect(token.Semicolon)
	if !p.at(token.RParen) {
		stmt.Update = p.parseExpression()
	}
	p.expect(token.RParen)
	stmt.Body = p.parseStatement()
	return stmt
}

// isForInOf reports whether the loop head is `[let|const|var] name of|in`.
func (p *parser) isForInOf() bool {
	i := 0
	switch p.tok.Kind {
	case token.Let, token.Const, token.Var:
		i = 1
	}
	if p.peek(i).Kind != token.Ident {
		return false
	}
	kw := p.peek(i + 1)
	return kw.Kind == token.Ident && (kw.Text == "of" || kw.Text == "in")
}

func (p *parser) parseWhile() ast.Stmt {
	at := p.tok.Pos
	p.next()
	p.expect(token.LParen)
	test := p.parseExpression()
	p.expect(token.RParen)
	return &ast.WhileStmt{At: at, Test: test, Body: p.parseStatement()}
}

func (p *parser) parseDoWhile() ast.Stmt {
	at := p.tok.Pos
	p.next()
	body := p.parseStatement()
	p.expect(token.While)
	p.expect(token.LParen)
	test := p.parseExpression()
	p.expect(token.RParen)
	p.eat(token.Semicolon)
	return &ast.DoWhileStmt{At: at, Body: body, Test: test}
}

func (p *parser) parseFuncDecl() ast.Stmt {
	at := p.tok.Pos
	p.next()
	name := p.expectIdent()
	params := p.parseParams()
	return &ast.FuncDecl{At: at, Name: name.Text, Params: params, Body: p.parseBlock()}
}

// parseParams parses a parenthesised parameter list. Default values are
// parsed and dropped.
func (p *parser) parseParams() []string {
	p.expect(token.LParen)
	var params []string
	for !p.at(token.RParen) {
		params = append(params, p.expectIdent().Text)
		if p.eat(token.Assign) {
			p.parseAssign()
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RParen)
	return params
}

func (p *parser) parseReturn() ast.Stmt {
	stmt := &ast.ReturnStmt{At: p.tok.Pos}
	p.next()
	if !p.at(token.Semicolon) && !p.at(token.RBrace) && !p.at(token.EOF) && !p.tok.NewlineBefore {
		stmt.Value = p.parseExpression()
	}
	p.semicolon()
	return stmt
}

func (p *parser) parseSwitch() ast.Stmt {
	at := p.tok.Pos
	p.next()
	p.expect(token.LParen)
	p.parseExpression()
	p.expect(token.RParen)
	p.expect(token.LBrace)
	for !p.eat(token.RBrace) {
		switch p.tok.Kind {
		case token.Case:
			p.next()
			p.parseExpression()
			p.expect(token.Colon)
		case token.Default:
			p.next()
			p.expect(token.Colon)
		case token.EOF:
			p.unexpected()
		default:
			p.parseStatement()
		}
	}
	return &ast.SkippedStmt{At: at, Keyword: "switch"}
}

func (p *parser) parseTry() ast.Stmt {
	at := p.tok.Pos
	p.next()
	p.parseBlock()
	handled := false
	if p.eat(token.Catch) {
		if p.eat(token.LParen) {
			p.expectIdent()
			p.expect(token.RParen)
		}
		p.parseBlock()
		handled = true
	}
	if p.eat(token.Finally) {
		p.parseBlock()
		handled = true
	}
	if !handled {
		p.failAt(p.tok.Pos, "Missing catch or finally clause")
	}
	return &ast.SkippedStmt{At: at, Keyword: "try"}
}
