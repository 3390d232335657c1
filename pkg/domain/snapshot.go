package domain

import (
	"slices"

	"github.com/benbjohnson/immutable"
	"github.com/codeflow-dev/codeflow/pkg/value"
)

// Bindings is a persistent name→value map. Setting a key returns a new map
// sharing structure with the old one, so holding a reference is a snapshot.
type Bindings = *immutable.SortedMap[string, value.Value]

// EmptyBindings returns an empty binding map.
func EmptyBindings() Bindings {
	return immutable.NewSortedMap[string, value.Value](nil)
}

// Snapshot is an immutable capture of program state at one step.
type Snapshot struct {
	vars   Bindings
	output []string
	stack  []string
}

// NewSnapshot captures vars, output and stack. The slices are clipped so a
// later append by the producer can never write into the snapshot's view.
func NewSnapshot(vars Bindings, output, stack []string) Snapshot {
	return Snapshot{
		vars:   vars,
		output: slices.Clip(output),
		stack:  slices.Clip(stack),
	}
}

// SnapshotOf builds a snapshot from plain collections, copying them.
func SnapshotOf(vars map[string]value.Value, output, stack []string) Snapshot {
	b := EmptyBindings()
	for k, v := range vars {
		b = b.Set(k, v)
	}
	return Snapshot{
		vars:   b,
		output: slices.Clone(output),
		stack:  slices.Clone(stack),
	}
}

// Lookup returns the value bound to name.
func (s Snapshot) Lookup(name string) (value.Value, bool) {
	if s.vars == nil {
		return nil, false
	}
	return s.vars.Get(name)
}

// Names returns the bound names in sorted order.
func (s Snapshot) Names() []string {
	if s.vars == nil {
		return nil
	}
	names := make([]string, 0, s.vars.Len())
	itr := s.vars.Iterator()
	for !itr.Done() {
		k, _, _ := itr.Next()
		names = append(names, k)
	}
	return names
}

// Variables returns the bindings as a plain map.
func (s Snapshot) Variables() map[string]value.Value {
	out := make(map[string]value.Value)
	if s.vars == nil {
		return out
	}
	itr := s.vars.Iterator()
	for !itr.Done() {
		k, v, _ := itr.Next()
		out[k] = v
	}
	return out
}

// Output returns a copy of the cumulative printed lines.
func (s Snapshot) Output() []string {
	if s.output == nil {
		return []string{}
	}
	return slices.Clone(s.output)
}

// StackFrames returns a copy of the frame labels, outermost first.
func (s Snapshot) StackFrames() []string {
	if s.stack == nil {
		return []string{}
	}
	return slices.Clone(s.stack)
}

// WithOutput returns a copy of s with its output replaced.
func (s Snapshot) WithOutput(lines []string) Snapshot {
	s.output = slices.Clone(lines)
	return s
}

// AppendVariablesJSON appends the bindings as a JSON object with sorted
// keys. Undefined bindings are omitted.
func (s Snapshot) AppendVariablesJSON(dst []byte) []byte {
	dst = append(dst, '{')
	if s.vars != nil {
		first := true
		itr := s.vars.Iterator()
		for !itr.Done() {
			k, v, _ := itr.Next()
			if value.IsUndefined(v) {
				continue
			}
			if !first {
				dst = append(dst, ',')
			}
			first = false
			dst = value.AppendQuoted(dst, k)
			dst = append(dst, ':')
			dst = value.AppendJSON(dst, v)
		}
	}
	return append(dst, '}')
}
