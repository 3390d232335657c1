package interpreter

import (
	"math"
	"strings"

	"github.com/codeflow-dev/codeflow/pkg/script/ast"
	"github.com/codeflow-dev/codeflow/pkg/value"
)

func (r *run) eval(x ast.Expr) (value.Value, error) {
	switch x := x.(type) {
	case *ast.NumberLit:
		return x.Value, nil
	case *ast.StringLit:
		return x.Value, nil
	case *ast.BoolLit:
		return x.Value, nil
	case *ast.NullLit:
		return nil, nil
	case *ast.Ident:
		return r.lookup(x.Name), nil
	case *ast.TemplateLit:
		return r.evalTemplate(x)
	case *ast.ArrayLit:
		elems := make([]value.Value, len(x.Elems))
		for i, e := range x.Elems {
			if e == nil {
				elems[i] = value.Undefined
				continue
			}
			v, err := r.eval(e)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return r.grown(value.NewArray(elems...))
	case *ast.ObjectLit:
		obj := value.NewObject()
		for _, p := range x.Props {
			v, err := r.evalNamed(p.Value, p.Key)
			if err != nil {
				return nil, err
			}
			obj.Set(p.Key, v)
		}
		return r.grown(obj)
	case *ast.UnaryExpr:
		return r.evalUnary(x)
	case *ast.BinaryExpr:
		a, err := r.eval(x.X)
		if err != nil {
			return nil, err
		}
		b, err := r.eval(x.Y)
		if err != nil {
			return nil, err
		}
		if x.Op == "+" {
			return r.grown(value.Add(a, b))
		}
		return binary(x.Op, a, b), nil
	case *ast.LogicalExpr:
		return r.evalLogical(x)
	case *ast.AssignExpr:
		target, err := r.resolve(x.Target)
		if err != nil {
			return nil, err
		}
		old := r.load(target)
		return r.assign(target, x.Op, old, x.Value)
	case *ast.UpdateExpr:
		_, old, v, err := r.update(x)
		if err != nil {
			return nil, err
		}
		if x.Prefix {
			return v, nil
		}
		return value.ToNumber(old), nil
	case *ast.CondExpr:
		ok, err := r.test(x.Test)
		if err != nil {
			return nil, err
		}
		if ok {
			return r.eval(x.Then)
		}
		return r.eval(x.Else)
	case *ast.CallExpr:
		return r.call(x)
	case *ast.MemberExpr:
		return r.evalMember(x)
	case *ast.FuncLit:
		return r.evalNamed(x, "anonymous")
	case *ast.SequenceExpr:
		var last value.Value = value.Undefined
		for _, e := range x.Exprs {
			v, err := r.eval(e)
			if err != nil {
				return nil, err
			}
			last = v
		}
		return last, nil
	case *ast.NewExpr:
		if _, err := r.evalArgs(x.Args); err != nil {
			return nil, err
		}
		return value.Undefined, nil
	}
	return value.Undefined, nil
}

// evalNamed evaluates x, naming anonymous function literals after the
// binding they are assigned to.
func (r *run) evalNamed(x ast.Expr, name string) (value.Value, error) {
	if fn, ok := x.(*ast.FuncLit); ok {
		if fn.Name != "" {
			name = fn.Name
		}
		return value.NewFunction(name), nil
	}
	return r.eval(x)
}

func (r *run) evalArgs(args []ast.Expr) ([]value.Value, error) {
	out := make([]value.Value, len(args))
	for i, a := range args {
		v, err := r.eval(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *run) lookup(name string) value.Value {
	if v, ok := r.env.Lookup(name); ok {
		return v
	}
	switch name {
	case "NaN":
		return math.NaN()
	case "Infinity":
		return math.Inf(1)
	}
	return value.Undefined
}

func (r *run) evalTemplate(x *ast.TemplateLit) (value.Value, error) {
	var b strings.Builder
	for i, q := range x.Quasis {
		b.WriteString(q)
		if i < len(x.Exprs) {
			v, err := r.eval(x.Exprs[i])
			if err != nil {
				return nil, err
			}
			b.WriteString(value.ToString(v))
		}
		if b.Len() > r.limits.MaxStringLength {
			return nil, &RuntimeError{Message: "Invalid string length"}
		}
	}
	return r.grown(b.String())
}

func (r *run) evalUnary(x *ast.UnaryExpr) (value.Value, error) {
	v, err := r.eval(x.X)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "-":
		return value.Negate(v), nil
	case "+":
		return value.Plus(v), nil
	case "!":
		return !value.Truthy(v), nil
	case "~":
		return value.BitNot(v), nil
	case "typeof":
		return value.TypeOf(v), nil
	}
	return value.Undefined, nil
}

func binary(op string, a, b value.Value) value.Value {
	switch op {
	case "+":
		return value.Add(a, b)
	case "-":
		return value.Sub(a, b)
	case "*":
		return value.Mul(a, b)
	case "/":
		return value.Div(a, b)
	case "%":
		return value.Mod(a, b)
	case "**":
		return value.Pow(a, b)
	case "===":
		return value.StrictEquals(a, b)
	case "!==":
		return !value.StrictEquals(a, b)
	case "==":
		return value.LooseEquals(a, b)
	case "!=":
		return !value.LooseEquals(a, b)
	case "<":
		return value.Less(a, b)
	case ">":
		return value.Greater(a, b)
	case "<=":
		return value.LessOrEqual(a, b)
	case ">=":
		return value.GreaterOrEqual(a, b)
	case "&", "|", "^", "<<", ">>", ">>>":
		return value.Bitwise(op, a, b)
	}
	return value.Undefined
}

func (r *run) evalLogical(x *ast.LogicalExpr) (value.Value, error) {
	a, err := r.eval(x.X)
	if err != nil {
		return nil, err
	}
	switch x.Op {
	case "&&":
		if !value.Truthy(a) {
			return a, nil
		}
	case "||":
		if value.Truthy(a) {
			return a, nil
		}
	case "??":
		if !value.IsNullish(a) {
			return a, nil
		}
	}
	return r.eval(x.Y)
}

func (r *run) evalMember(x *ast.MemberExpr) (value.Value, error) {
	if id, ok := x.Object.(*ast.Ident); ok && id.Name == "Math" && !x.Computed {
		if _, bound := r.env.Lookup("Math"); !bound {
			return mathConstant(x.PropertyName()), nil
		}
	}
	obj, err := r.eval(x.Object)
	if err != nil {
		return nil, err
	}
	key, err := r.memberKey(x)
	if err != nil {
		return nil, err
	}
	return value.Member(obj, key), nil
}

func (r *run) memberKey(x *ast.MemberExpr) (value.Value, error) {
	if !x.Computed {
		return x.PropertyName(), nil
	}
	return r.eval(x.Property)
}
