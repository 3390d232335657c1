package interpreter

import (
	"fmt"
	"strings"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/script/ast"
	"github.com/codeflow-dev/codeflow/pkg/value"
)

func (r *run) execList(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := r.exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) exec(s ast.Stmt) error {
	if s == nil {
		return nil
	}
	r.line = s.Pos().Line

	switch s := s.(type) {
	case *ast.BlockStmt:
		return r.execList(s.Body)
	case *ast.VarDecl:
		return r.execVarDecl(s)
	case *ast.ExprStmt:
		return r.execExprStmt(s)
	case *ast.IfStmt:
		return r.execIf(s)
	case *ast.ForStmt:
		return r.execFor(s)
	case *ast.WhileStmt:
		return r.execWhile(s)
	case *ast.DoWhileStmt:
		return r.execDoWhile(s)
	case *ast.FuncDecl:
		r.env.Declare(s.Name, value.NewFunction(s.Name), false)
		return r.emit(s.At.Line, domain.KindFuncDecl, "Function declared: "+s.Name)
	case *ast.ReturnStmt:
		v := value.Undefined
		if s.Value != nil {
			var err error
			if v, err = r.eval(s.Value); err != nil {
				return err
			}
		}
		return r.emit(s.At.Line, domain.KindReturn, "return "+value.Stringify(v))
	case *ast.BreakStmt:
		return r.emit(s.At.Line, domain.KindBreak, "break")
	case *ast.ContinueStmt:
		return r.emit(s.At.Line, domain.KindContinue, "continue")
	}
	// Empty and skipped statements record nothing.
	return nil
}

func (r *run) execVarDecl(s *ast.VarDecl) error {
	for _, d := range s.Decls {
		v := value.Undefined
		if d.Init != nil {
			var err error
			if v, err = r.evalNamed(d.Init, d.Name); err != nil {
				return err
			}
		}
		r.env.Declare(d.Name, v, s.Kind == "const")
		desc := fmt.Sprintf("Declare %s %s = %s", s.Kind, d.Name, value.Stringify(v))
		if err := r.emit(s.At.Line, domain.KindVarDecl, desc); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) execExprStmt(s *ast.ExprStmt) error {
	line := s.At.Line

	switch x := s.X.(type) {
	case *ast.AssignExpr:
		target, err := r.resolve(x.Target)
		if err != nil {
			return err
		}
		old := r.load(target)
		v, err := r.assign(target, x.Op, old, x.Value)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("Assign %s = %s (was %s)", target.name(), value.Stringify(v), value.Stringify(old))
		return r.emit(line, domain.KindAssignment, desc)

	case *ast.UpdateExpr:
		target, old, v, err := r.update(x)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("Update %s: %s → %s", target.name(), value.ToString(old), value.ToString(v))
		return r.emit(line, domain.KindAssignment, desc)

	case *ast.CallExpr:
		if sink := sinkName(x.Callee); sink != "" {
			args, err := r.evalArgs(x.Args)
			if err != nil {
				return err
			}
			if err := r.print(args); err != nil {
				return err
			}
			return r.emit(line, domain.KindOutput, describeCall(sink, args))
		}
	}

	if _, err := r.eval(s.X); err != nil {
		return err
	}
	return r.emit(line, domain.KindStatement, "Expression")
}

func describeCall(name string, args []value.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = value.Stringify(a)
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}

func (r *run) test(x ast.Expr) (bool, error) {
	v, err := r.eval(x)
	if err != nil {
		return false, err
	}
	return value.Truthy(v), nil
}

func (r *run) execIf(s *ast.IfStmt) error {
	ok, err := r.test(s.Test)
	if err != nil {
		return err
	}
	if err := r.emitCondition(s.At.Line, domain.KindCondition, fmt.Sprintf("if condition → %t", ok), ok, nil); err != nil {
		return err
	}
	if ok {
		return r.exec(s.Then)
	}
	return r.exec(s.Else)
}

func (r *run) loopCondition(line int, desc string, iteration int, ok bool) error {
	return r.emitCondition(line, domain.KindLoopCondition, desc, ok,
		&domain.LoopState{IterationCount: iteration, ConditionResult: ok})
}

func (r *run) execFor(s *ast.ForStmt) error {
	line := s.At.Line
	if err := r.exec(s.Init); err != nil {
		return err
	}
	for count := 0; ; {
		if s.Test != nil {
			ok, err := r.test(s.Test)
			if err != nil {
				return err
			}
			desc := fmt.Sprintf("for condition check → %t (iteration %d)", ok, count)
			if err := r.loopCondition(line, desc, count, ok); err != nil {
				return err
			}
			if !ok {
				return nil
			}
		}
		if count >= r.limits.MaxIterations {
			return r.warn(line, iterationLimitError(r.limits.MaxIterations))
		}

		if err := r.exec(s.Body); err != nil {
			return err
		}
		r.line = line
		if s.Update != nil {
			if err := r.execForUpdate(line, s.Update, count); err != nil {
				return err
			}
		}
		count++
	}
}

func (r *run) execForUpdate(line int, x ast.Expr, count int) error {
	var desc string
	switch u := x.(type) {
	case *ast.UpdateExpr:
		target, old, v, err := r.update(u)
		if err != nil {
			return err
		}
		desc = fmt.Sprintf("for update: %s %s (%s → %s)", target.name(), u.Op, value.ToString(old), value.ToString(v))
	case *ast.AssignExpr:
		target, err := r.resolve(u.Target)
		if err != nil {
			return err
		}
		old := r.load(target)
		v, err := r.assign(target, u.Op, old, u.Value)
		if err != nil {
			return err
		}
		desc = fmt.Sprintf("for update: %s %s (%s → %s)", target.name(), u.Op, value.ToString(old), value.ToString(v))
	default:
		if _, err := r.eval(x); err != nil {
			return err
		}
		desc = "for update"
	}
	return r.record(domain.Step{
		Line:        line,
		Kind:        domain.KindLoopUpdate,
		Description: desc,
		LoopState:   &domain.LoopState{IterationCount: count, ConditionResult: true},
	})
}

func (r *run) execWhile(s *ast.WhileStmt) error {
	line := s.At.Line
	for count := 0; ; {
		ok, err := r.test(s.Test)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("while condition → %t (iteration %d)", ok, count)
		if err := r.loopCondition(line, desc, count, ok); err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if count >= r.limits.MaxIterations {
			return r.warn(line, iterationLimitError(r.limits.MaxIterations))
		}

		if err := r.exec(s.Body); err != nil {
			return err
		}
		r.line = line
		count++
	}
}

// execDoWhile tests after the body and counts iterations from 1. Every loop
// kind runs its body at most MaxIterations times.
func (r *run) execDoWhile(s *ast.DoWhileStmt) error {
	line := s.At.Line
	for count := 1; ; count++ {
		if err := r.exec(s.Body); err != nil {
			return err
		}
		r.line = line

		ok, err := r.test(s.Test)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("do-while condition → %t (iteration %d)", ok, count)
		if err := r.loopCondition(line, desc, count, ok); err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if count >= r.limits.MaxIterations {
			return r.warn(line, iterationLimitError(r.limits.MaxIterations))
		}
	}
}
