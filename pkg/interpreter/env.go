package interpreter

import (
	"slices"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/value"
)

// GlobalFrame is the label of the outermost frame.
const GlobalFrame = "global"

type frame struct {
	parent int
	label  string
	vars   domain.Bindings
	consts map[string]bool
}

// Env is a chain of scope frames held in an arena. Frames refer to their
// parent by index, and each frame's bindings live in a persistent map, so
// capturing the visible bindings never copies.
//
// Programs currently run entirely in the global frame.
type Env struct {
	frames []frame
	cur    int
	stack  []string
}

// NewEnv returns an environment holding only the global frame.
func NewEnv() *Env {
	return &Env{
		frames: []frame{{parent: -1, label: GlobalFrame, vars: domain.EmptyBindings(), consts: map[string]bool{}}},
		stack:  []string{GlobalFrame},
	}
}

// Push opens a child frame of the current one.
func (e *Env) Push(label string) {
	e.frames = append(e.frames, frame{parent: e.cur, label: label, vars: domain.EmptyBindings(), consts: map[string]bool{}})
	e.cur = len(e.frames) - 1
	// Never append into a slice a snapshot may still be holding.
	e.stack = append(slices.Clip(e.stack), label)
}

// Pop returns to the parent frame. Popping the global frame is a no-op.
func (e *Env) Pop() {
	parent := e.frames[e.cur].parent
	if parent < 0 {
		return
	}
	e.frames = e.frames[:e.cur]
	e.cur = parent
	e.stack = e.stack[:len(e.stack)-1]
}

// Declare binds name in the current frame.
func (e *Env) Declare(name string, v value.Value, isConst bool) {
	f := &e.frames[e.cur]
	f.vars = f.vars.Set(name, v)
	if isConst {
		f.consts[name] = true
	} else {
		delete(f.consts, name)
	}
}

// Lookup resolves name along the frame chain.
func (e *Env) Lookup(name string) (value.Value, bool) {
	for i := e.cur; i >= 0; i = e.frames[i].parent {
		if v, ok := e.frames[i].vars.Get(name); ok {
			return v, true
		}
	}
	return value.Undefined, false
}

// Assign rebinds name in the nearest frame holding it. Unknown names are
// created in the global frame.
func (e *Env) Assign(name string, v value.Value) error {
	for i := e.cur; i >= 0; i = e.frames[i].parent {
		f := &e.frames[i]
		if _, ok := f.vars.Get(name); ok {
			if f.consts[name] {
				return &RuntimeError{Message: "Assignment to constant variable."}
			}
			f.vars = f.vars.Set(name, v)
			return nil
		}
	}
	e.frames[0].vars = e.frames[0].vars.Set(name, v)
	return nil
}

// Bindings returns every visible binding, inner frames shadowing outer ones.
func (e *Env) Bindings() domain.Bindings {
	if e.cur == 0 {
		return e.frames[0].vars
	}
	var chain []int
	for i := e.cur; i >= 0; i = e.frames[i].parent {
		chain = append(chain, i)
	}
	out := e.frames[chain[len(chain)-1]].vars
	for j := len(chain) - 2; j >= 0; j-- {
		itr := e.frames[chain[j]].vars.Iterator()
		for !itr.Done() {
			k, v, _ := itr.Next()
			out = out.Set(k, v)
		}
	}
	return out
}

// Stack returns the frame labels, outermost first. Callers must not modify
// the result.
func (e *Env) Stack() []string { return e.stack }
