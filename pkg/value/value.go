// Package value implements the runtime value model of the traced script
// language: dynamically typed scalars, arrays and ordered objects with the
// coercion rules the language defines.
//
// A Value is one of:
//   - Undefined
//   - nil (null)
//   - bool
//   - float64
//   - string
//   - *Array
//   - *Object
//   - *Function
//
// Arrays and objects are never mutated in place once they are reachable from
// a snapshot; writers copy before they change an element.
package value

import (
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Value is a runtime value.
type Value any

type undefined struct{}

// Undefined is the value of unbound names and missing members.
var Undefined Value = undefined{}

// IsUndefined reports whether v is Undefined.
func IsUndefined(v Value) bool {
	_, ok := v.(undefined)
	return ok
}

// IsNullish reports whether v is null or Undefined.
func IsNullish(v Value) bool {
	return v == nil || IsUndefined(v)
}

// Function is the placeholder bound by a function declaration.
// Bodies are never invoked; only the name is kept.
type Function struct {
	Name string
}

// NewFunction returns the marker for a declared function.
func NewFunction(name string) *Function {
	return &Function{Name: name}
}

func (f *Function) String() string {
	return "[Function: " + f.Name + "]"
}

// Array is an ordered list of values.
type Array struct {
	elems []Value
}

// NewArray wraps elems. The slice is owned by the array afterwards.
func NewArray(elems ...Value) *Array {
	if elems == nil {
		elems = []Value{}
	}
	return &Array{elems: elems}
}

// Len returns the number of elements.
func (a *Array) Len() int { return len(a.elems) }

// At returns the element at i or Undefined when out of range.
func (a *Array) At(i int) Value {
	if i < 0 || i >= len(a.elems) {
		return Undefined
	}
	return a.elems[i]
}

// Elems returns a copy of the elements.
func (a *Array) Elems() []Value {
	out := make([]Value, len(a.elems))
	copy(out, a.elems)
	return out
}

// With returns a copy of a with index i set to v, growing with Undefined
// holes as needed.
func (a *Array) With(i int, v Value) *Array {
	n := len(a.elems)
	if i >= n {
		n = i + 1
	}
	elems := make([]Value, n)
	copy(elems, a.elems)
	for j := len(a.elems); j < i; j++ {
		elems[j] = Undefined
	}
	elems[i] = v
	return &Array{elems: elems}
}

// Object is a string-keyed map that preserves insertion order.
type Object struct {
	props *orderedmap.OrderedMap[string, Value]
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{props: orderedmap.New[string, Value]()}
}

// Set binds key in place. Only use it while building a fresh object.
func (o *Object) Set(key string, v Value) {
	o.props.Set(key, v)
}

// Get returns the property or Undefined.
func (o *Object) Get(key string) Value {
	if v, ok := o.props.Get(key); ok {
		return v
	}
	return Undefined
}

// Len returns the number of properties.
func (o *Object) Len() int { return o.props.Len() }

// Keys returns the property names in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.props.Len())
	for pair := o.props.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// With returns a copy of o with key set to v.
func (o *Object) With(key string, v Value) *Object {
	out := NewObject()
	for pair := o.props.Oldest(); pair != nil; pair = pair.Next() {
		out.props.Set(pair.Key, pair.Value)
	}
	out.props.Set(key, v)
	return out
}

// TypeOf returns the name reported by the typeof operator.
func TypeOf(v Value) string {
	switch v.(type) {
	case undefined:
		return "undefined"
	case nil:
		return "object"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *Function:
		return "function"
	default:
		return "object"
	}
}

// Truthy converts v to a boolean.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case undefined, nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}
