package interpreter

import (
	"math"

	"github.com/codeflow-dev/codeflow/pkg/script/ast"
	"github.com/codeflow-dev/codeflow/pkg/value"
)

// sinkName returns the name of an output builtin called through callee, or "".
func sinkName(callee ast.Expr) string {
	switch c := callee.(type) {
	case *ast.MemberExpr:
		if obj, ok := c.Object.(*ast.Ident); ok && obj.Name == "console" && c.PropertyName() == "log" {
			return "console.log"
		}
	case *ast.Ident:
		if c.Name == "print" {
			return "print"
		}
	}
	return ""
}

func (r *run) call(x *ast.CallExpr) (value.Value, error) {
	if sinkName(x.Callee) != "" {
		args, err := r.evalArgs(x.Args)
		if err != nil {
			return nil, err
		}
		if err := r.print(args); err != nil {
			return nil, err
		}
		return value.Undefined, nil
	}

	switch c := x.Callee.(type) {
	case *ast.Ident:
		if c.Name == "input" {
			if _, err := r.evalArgs(x.Args); err != nil {
				return nil, err
			}
			return r.nextInput(), nil
		}
		if fn, ok := globals[c.Name]; ok {
			args, err := r.evalArgs(x.Args)
			if err != nil {
				return nil, err
			}
			return fn(args), nil
		}
	case *ast.MemberExpr:
		if obj, ok := c.Object.(*ast.Ident); ok && obj.Name == "Math" && !c.Computed {
			if fn, ok := mathFuncs[c.PropertyName()]; ok {
				args, err := r.evalArgs(x.Args)
				if err != nil {
					return nil, err
				}
				return fn(args), nil
			}
		}
	}

	// Anything else, user functions included, evaluates to undefined.
	if _, err := r.eval(x.Callee); err != nil {
		return nil, err
	}
	if _, err := r.evalArgs(x.Args); err != nil {
		return nil, err
	}
	return value.Undefined, nil
}

// nextInput consumes the next queued input line. Exhausted input reads as
// the empty string.
func (r *run) nextInput() value.Value {
	if r.nextIn >= len(r.inputs) {
		return ""
	}
	s := r.inputs[r.nextIn]
	r.nextIn++
	return value.CoerceInput(s)
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}

type builtin func(args []value.Value) value.Value

var globals = map[string]builtin{
	"String": func(args []value.Value) value.Value {
		if len(args) == 0 {
			return ""
		}
		return value.ToString(args[0])
	},
	"Number": func(args []value.Value) value.Value {
		if len(args) == 0 {
			return 0.0
		}
		return value.ToNumber(args[0])
	},
	"Boolean": func(args []value.Value) value.Value {
		return value.Truthy(arg(args, 0))
	},
	"parseInt": func(args []value.Value) value.Value {
		return value.ParseInt(arg(args, 0), arg(args, 1))
	},
	"parseFloat": func(args []value.Value) value.Value {
		return value.ParseFloat(arg(args, 0))
	},
	"isNaN": func(args []value.Value) value.Value {
		return math.IsNaN(value.ToNumber(arg(args, 0)))
	},
	"isFinite": func(args []value.Value) value.Value {
		f := value.ToNumber(arg(args, 0))
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	},
}

func unaryMath(fn func(float64) float64) builtin {
	return func(args []value.Value) value.Value {
		return fn(value.ToNumber(arg(args, 0)))
	}
}

// Math.random is left out so traces stay reproducible.
var mathFuncs = map[string]builtin{
	"abs":   unaryMath(math.Abs),
	"floor": unaryMath(math.Floor),
	"ceil":  unaryMath(math.Ceil),
	"round": unaryMath(round),
	"trunc": unaryMath(math.Trunc),
	"sqrt":  unaryMath(math.Sqrt),
	"cbrt":  unaryMath(math.Cbrt),
	"sign":  unaryMath(sign),
	"log":   unaryMath(math.Log),
	"log2":  unaryMath(math.Log2),
	"log10": unaryMath(math.Log10),
	"exp":   unaryMath(math.Exp),
	"sin":   unaryMath(math.Sin),
	"cos":   unaryMath(math.Cos),
	"tan":   unaryMath(math.Tan),
	"pow": func(args []value.Value) value.Value {
		return value.Pow(arg(args, 0), arg(args, 1))
	},
	"min": func(args []value.Value) value.Value {
		return fold(args, math.Inf(1), math.Min)
	},
	"max": func(args []value.Value) value.Value {
		return fold(args, math.Inf(-1), math.Max)
	},
	"hypot": func(args []value.Value) value.Value {
		sum := 0.0
		for _, a := range args {
			f := value.ToNumber(a)
			if math.IsInf(f, 0) {
				return math.Inf(1)
			}
			sum += f * f
		}
		return math.Sqrt(sum)
	},
}

func fold(args []value.Value, start float64, fn func(a, b float64) float64) float64 {
	acc := start
	for _, a := range args {
		f := value.ToNumber(a)
		if math.IsNaN(f) {
			return math.NaN()
		}
		acc = fn(acc, f)
	}
	return acc
}

// round rounds half up, toward positive infinity.
func round(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	r := math.Floor(f)
	if f-r >= 0.5 {
		r++
	}
	return r
}

func sign(f float64) float64 {
	switch {
	case math.IsNaN(f), f == 0:
		return f
	case f > 0:
		return 1
	default:
		return -1
	}
}

func mathConstant(name string) value.Value {
	switch name {
	case "PI":
		return math.Pi
	case "E":
		return math.E
	case "LN2":
		return math.Ln2
	case "LN10":
		return math.Ln10
	case "LOG2E":
		return math.Log2E
	case "LOG10E":
		return math.Log10E
	case "SQRT2":
		return math.Sqrt2
	}
	return value.Undefined
}
