package interpreter

import (
	"fmt"
	"slices"
	"strings"

	"github.com/codeflow-dev/codeflow/pkg/script/ast"
	"github.com/codeflow-dev/codeflow/pkg/value"
)

// ref is a resolved assignment target: a binding name and the member keys
// leading from it, evaluated once.
type ref struct {
	root string
	keys []value.Value
}

// name renders the target the way descriptions show it, e.g. arr[0] or o.k.
func (f ref) name() string {
	var b strings.Builder
	b.WriteString(f.root)
	for _, k := range f.keys {
		if s, ok := k.(string); ok && isIdentName(s) {
			b.WriteByte('.')
			b.WriteString(s)
			continue
		}
		b.WriteByte('[')
		b.WriteString(value.Stringify(k))
		b.WriteByte(']')
	}
	return b.String()
}

func isIdentName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func (r *run) resolve(x ast.Expr) (ref, error) {
	switch t := x.(type) {
	case *ast.Ident:
		return ref{root: t.Name}, nil
	case *ast.MemberExpr:
		base, err := r.resolve(t.Object)
		if err != nil {
			return ref{}, err
		}
		key, err := r.memberKey(t)
		if err != nil {
			return ref{}, err
		}
		base.keys = append(slices.Clip(base.keys), key)
		return base, nil
	}
	return ref{}, &RuntimeError{Message: "Invalid assignment target"}
}

func (r *run) load(f ref) value.Value {
	v := r.lookup(f.root)
	for _, k := range f.keys {
		v = value.Member(v, k)
	}
	return v
}

// store writes v through f. Arrays and objects on the path are copied, never
// modified, so earlier snapshots keep their values. Each copy is charged
// against the heap budget.
func (r *run) store(f ref, v value.Value) error {
	if len(f.keys) == 0 {
		return r.env.Assign(f.root, v)
	}
	bases := make([]value.Value, len(f.keys))
	cur := r.lookup(f.root)
	for i, k := range f.keys {
		bases[i] = cur
		cur = value.Member(cur, k)
	}
	for i := len(f.keys) - 1; i >= 0; i-- {
		updated, err := r.setMember(bases[i], f.keys[i], v)
		if err != nil {
			return err
		}
		v = updated
	}
	return r.env.Assign(f.root, v)
}

func (r *run) setMember(base, key, v value.Value) (value.Value, error) {
	switch b := base.(type) {
	case *value.Array:
		i, ok := value.ArrayIndex(key)
		if !ok {
			return nil, &RuntimeError{Message: fmt.Sprintf("Cannot set property '%s' of an array", value.ToString(key))}
		}
		if i >= r.limits.MaxArrayLength {
			return nil, &RuntimeError{Message: "Invalid array length"}
		}
		return r.grown(b.With(i, v))
	case *value.Object:
		return r.grown(b.With(value.ToString(key), v))
	}
	if value.IsNullish(base) {
		return nil, &RuntimeError{Message: fmt.Sprintf("Cannot set properties of %s (setting '%s')",
			value.ToString(base), value.ToString(key))}
	}
	// Writes to primitives are dropped.
	return base, nil
}

// assign evaluates rhs, combines it with old for compound operators and
// stores the result.
func (r *run) assign(f ref, op string, old value.Value, rhs ast.Expr) (value.Value, error) {
	v, err := r.evalNamed(rhs, f.name())
	if err != nil {
		return nil, err
	}
	switch op {
	case "+=":
		if v, err = r.grown(value.Add(old, v)); err != nil {
			return nil, err
		}
	case "-=":
		v = value.Sub(old, v)
	case "*=":
		v = value.Mul(old, v)
	case "/=":
		v = value.Div(old, v)
	case "%=":
		v = value.Mod(old, v)
	case "**=":
		v = value.Pow(old, v)
	}
	if err := r.store(f, v); err != nil {
		return nil, err
	}
	return v, nil
}

// update applies ++ or -- and returns the target with its old and new values.
func (r *run) update(x *ast.UpdateExpr) (ref, value.Value, value.Value, error) {
	f, err := r.resolve(x.Target)
	if err != nil {
		return ref{}, nil, nil, err
	}
	old := r.load(f)
	n := value.ToNumber(old)
	if x.Op == "++" {
		n++
	} else {
		n--
	}
	if err := r.store(f, n); err != nil {
		return ref{}, nil, nil, err
	}
	return f, old, n, nil
}
