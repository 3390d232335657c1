// Package ast declares the syntax tree of the traced script language.
package ast

import "github.com/codeflow-dev/codeflow/pkg/script/token"

// Node is any syntax tree node.
type Node interface {
	Pos() token.Pos
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of a parsed source file.
type Program struct {
	Body []Stmt
}

func (p *Program) Pos() token.Pos { return token.Pos{Line: 1, Col: 1} }

// ---- Expressions ----

type (
	NumberLit struct {
		At    token.Pos
		Value float64
	}

	StringLit struct {
		At    token.Pos
		Value string
	}

	BoolLit struct {
		At    token.Pos
		Value bool
	}

	NullLit struct {
		At token.Pos
	}

	Ident struct {
		At   token.Pos
		Name string
	}

	// TemplateLit holds len(Exprs)+1 cooked string parts.
	TemplateLit struct {
		At     token.Pos
		Quasis []string
		Exprs  []Expr
	}

	// ArrayLit elements are nil for holes.
	ArrayLit struct {
		At    token.Pos
		Elems []Expr
	}

	Property struct {
		Key   string
		Value Expr
	}

	ObjectLit struct {
		At    token.Pos
		Props []Property
	}

	UnaryExpr struct {
		At token.Pos
		Op string
		X  Expr
	}

	BinaryExpr struct {
		At token.Pos
		Op string
		X  Expr
		Y  Expr
	}

	// LogicalExpr covers &&, || and ??.
	LogicalExpr struct {
		At token.Pos
		Op string
		X  Expr
		Y  Expr
	}

	AssignExpr struct {
		At     token.Pos
		Op     string
		Target Expr
		Value  Expr
	}

	UpdateExpr struct {
		At     token.Pos
		Op     string
		Prefix bool
		Target Expr
	}

	CondExpr struct {
		At   token.Pos
		Test Expr
		Then Expr
		Else Expr
	}

	CallExpr struct {
		At     token.Pos
		Callee Expr
		Args   []Expr
	}

	// MemberExpr is either obj.Name or obj[Property].
	MemberExpr struct {
		At       token.Pos
		Object   Expr
		Property Expr
		Computed bool
	}

	// FuncLit is a function or arrow function expression. Bodies are kept
	// for completeness but are never evaluated.
	FuncLit struct {
		At     token.Pos
		Name   string
		Params []string
		Arrow  bool
		Body   *BlockStmt
	}

	SequenceExpr struct {
		At    token.Pos
		Exprs []Expr
	}

	// NewExpr is parsed so programs using it still load; it evaluates to
	// undefined.
	NewExpr struct {
		At     token.Pos
		Callee Expr
		Args   []Expr
	}
)

func (e *NumberLit) Pos() token.Pos    { return e.At }
func (e *StringLit) Pos() token.Pos    { return e.At }
func (e *BoolLit) Pos() token.Pos      { return e.At }
func (e *NullLit) Pos() token.Pos      { return e.At }
func (e *Ident) Pos() token.Pos        { return e.At }
func (e *TemplateLit) Pos() token.Pos  { return e.At }
func (e *ArrayLit) Pos() token.Pos     { return e.At }
func (e *ObjectLit) Pos() token.Pos    { return e.At }
func (e *UnaryExpr) Pos() token.Pos    { return e.At }
func (e *BinaryExpr) Pos() token.Pos   { return e.At }
func (e *LogicalExpr) Pos() token.Pos  { return e.At }
func (e *AssignExpr) Pos() token.Pos   { return e.At }
func (e *UpdateExpr) Pos() token.Pos   { return e.At }
func (e *CondExpr) Pos() token.Pos     { return e.At }
func (e *CallExpr) Pos() token.Pos     { return e.At }
func (e *MemberExpr) Pos() token.Pos   { return e.At }
func (e *FuncLit) Pos() token.Pos      { return e.At }
func (e *SequenceExpr) Pos() token.Pos { return e.At }
func (e *NewExpr) Pos() token.Pos      { return e.At }

func (*NumberLit) exprNode()    {}
func (*StringLit) exprNode()    {}
func (*BoolLit) exprNode()      {}
func (*NullLit) exprNode()      {}
func (*Ident) exprNode()        {}
func (*TemplateLit) exprNode()  {}
func (*ArrayLit) exprNode()     {}
func (*ObjectLit) exprNode()    {}
func (*UnaryExpr) exprNode()    {}
func (*BinaryExpr) exprNode()   {}
func (*LogicalExpr) exprNode()  {}
func (*AssignExpr) exprNode()   {}
func (*UpdateExpr) exprNode()   {}
func (*CondExpr) exprNode()     {}
func (*CallExpr) exprNode()     {}
func (*MemberExpr) exprNode()   {}
func (*FuncLit) exprNode()      {}
func (*SequenceExpr) exprNode() {}
func (*NewExpr) exprNode()      {}

// PropertyName returns the static name of a non-computed member access.
func (e *MemberExpr) PropertyName() string {
	if e.Computed {
		return ""
	}
	if id, ok := e.Property.(*Ident); ok {
		return id.Name
	}
	return ""
}

// ---- Statements ----

type (
	Declarator struct {
		At   token.Pos
		Name string
		Init Expr
	}

	// VarDecl is a let, const or var declaration.
	VarDecl struct {
		At    token.Pos
		Kind  string
		Decls []Declarator
	}

	ExprStmt struct {
		At token.Pos
		X  Expr
	}

	BlockStmt struct {
		At   token.Pos
		Body []Stmt
	}

	IfStmt struct {
		At   token.Pos
		Test Expr
		Then Stmt
		Else Stmt
	}

	// ForStmt Init is a *VarDecl, an *ExprStmt or nil.
	ForStmt struct {
		At     token.Pos
		Init   Stmt
		Test   Expr
		Update Expr
		Body   Stmt
	}

	WhileStmt struct {
		At   token.Pos
		Test Expr
		Body Stmt
	}

	DoWhileStmt struct {
		At   token.Pos
		Body Stmt
		Test Expr
	}

	FuncDecl struct {
		At     token.Pos
		Name   string
		Params []string
		Body   *BlockStmt
	}

	ReturnStmt struct {
		At    token.Pos
		Value Expr
	}

	BreakStmt struct {
		At token.Pos
	}

	ContinueStmt struct {
		At token.Pos
	}

	EmptyStmt struct {
		At token.Pos
	}

	// SkippedStmt is a construct that parses but is not executed
	// (switch, try, throw).
	SkippedStmt struct {
		At      token.Pos
		Keyword string
	}
)

func (s *VarDecl) Pos() token.Pos      { return s.At }
func (s *ExprStmt) Pos() token.Pos     { return s.At }
func (s *BlockStmt) Pos() token.Pos    { return s.At }
func (s *IfStmt) Pos() token.Pos       { return s.At }
func (s *ForStmt) Pos() token.Pos      { return s.At }
func (s *WhileStmt) Pos() token.Pos    { return s.At }
func (s *DoWhileStmt) Pos() token.Pos  { return s.At }
func (s *FuncDecl) Pos() token.Pos     { return s.At }
func (s *ReturnStmt) Pos() token.Pos   { return s.At }
func (s *BreakStmt) Pos() token.Pos    { return s.At }
func (s *ContinueStmt) Pos() token.Pos { return s.At }
func (s *EmptyStmt) Pos() token.Pos    { return s.At }
func (s *SkippedStmt) Pos() token.Pos  { return s.At }

func (*VarDecl) stmtNode()      {}
func (*ExprStmt) stmtNode()     {}
func (*BlockStmt) stmtNode()    {}
func (*IfStmt) stmtNode()       {}
func (*ForStmt) stmtNode()      {}
func (*WhileStmt) stmtNode()    {}
func (*DoWhileStmt) stmtNode()  {}
func (*FuncDecl) stmtNode()     {}
func (*ReturnStmt) stmtNode()   {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*EmptyStmt) stmtNode()    {}
func (*SkippedStmt) stmtNode()  {}
