package parser

import (
	"strconv"
	"strings"

	"github.com/codeflow-dev/codeflow/pkg/script/ast"
	"github.com/codeflow-dev/codeflow/pkg/value"
)

// dump renders an expression fully parenthesised for shape assertions.
func dump(x ast.Expr) string {
	switch x := x.(type) {
	case *ast.NumberLit:
		return value.FormatNumber(x.Value)
	case *ast.StringLit:
		return strconv.Quote(x.Value)
	case *ast.BoolLit:
		return strconv.FormatBool(x.Value)
	case *ast.NullLit:
		return "null"
	case *ast.Ident:
		return x.Name
	case *ast.UnaryExpr:
		if x.Op == "typeof" {
			return "(typeof " + dump(x.X) + ")"
		}
		return "(" + x.Op + dump(x.X) + ")"
	case *ast.BinaryExpr:
		return "(" + dump(x.X) + " " + x.Op + " " + dump(x.Y) + ")"
	case *ast.LogicalExpr:
		return "(" + dump(x.X) + " " + x.Op + " " + dump(x.Y) + ")"
	case *ast.AssignExpr:
		return "(" + dump(x.Target) + " " + x.Op + " " + dump(x.Value) + ")"
	case *ast.UpdateExpr:
		if x.Prefix {
			return "(" + x.Op + dump(x.Target) + ")"
		}
		return "(" + dump(x.Target) + x.Op + ")"
	case *ast.CondExpr:
		return "(" + dump(x.Test) + " ? " + dump(x.Then) + " : " + dump(x.Else) + ")"
	case *ast.CallExpr:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = dump(a)
		}
		return dump(x.Callee) + "(" + strings.Join(args, ", ") + ")"
	case *ast.MemberExpr:
		if x.Computed {
			return dump(x.Object) + "[" + dump(x.Property) + "]"
		}
		return dump(x.Object) + "." + x.PropertyName()
	default:
		return "?"
	}
}
