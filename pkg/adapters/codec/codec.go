// Package codec is the compact binary form of traces shared by the cache
// backends.
package codec

import (
	"fmt"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/value"
	"github.com/vmihailenco/msgpack/v5"
)

// Snapshots keep their state in unexported persistent maps, so traces are
// stored in this flat form.
type wireTrace struct {
	Language string     `msgpack:"language"`
	Steps    []wireStep `msgpack:"steps"`
	Output   []string   `msgpack:"output"`
	Err      string     `msgpack:"err,omitempty"`
	IsStatic bool       `msgpack:"is_static,omitempty"`
	Note     string     `msgpack:"note,omitempty"`
}

type wireStep struct {
	Line            int               `msgpack:"line"`
	Kind            domain.StepKind   `msgpack:"kind"`
	Description     string            `msgpack:"desc"`
	Names           []string          `msgpack:"names,omitempty"`
	Values          []any             `msgpack:"values,omitempty"`
	Output          []string          `msgpack:"output,omitempty"`
	Stack           []string          `msgpack:"stack,omitempty"`
	LoopState       *domain.LoopState `msgpack:"loop,omitempty"`
	ConditionResult *bool             `msgpack:"cond,omitempty"`
	Error           string            `msgpack:"error,omitempty"`
}

// EncodeTrace serializes t with msgpack.
func EncodeTrace(t *domain.Trace) ([]byte, error) {
	w := wireTrace{
		Language: t.Language,
		Steps:    make([]wireStep, len(t.Steps)),
		Output:   t.Output,
		Err:      t.Err,
		IsStatic: t.IsStatic,
		Note:     t.Note,
	}
	for i, s := range t.Steps {
		names := s.Snapshot.Names()
		values := make([]any, len(names))
		for j, n := range names {
			values[j], _ = s.Snapshot.Lookup(n)
		}
		w.Steps[i] = wireStep{
			Line:            s.Line,
			Kind:            s.Kind,
			Description:     s.Description,
			Names:           names,
			Values:          values,
			Output:          s.Snapshot.Output(),
			Stack:           s.Snapshot.StackFrames(),
			LoopState:       s.LoopState,
			ConditionResult: s.ConditionResult,
			Error:           s.Error,
		}
	}
	return msgpack.Marshal(&w)
}

// DecodeTrace restores a trace written by EncodeTrace.
func DecodeTrace(b []byte) (*domain.Trace, error) {
	var w wireTrace
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return nil, err
	}
	t := &domain.Trace{
		Language: w.Language,
		Steps:    make([]domain.Step, len(w.Steps)),
		Output:   w.Output,
		Err:      w.Err,
		IsStatic: w.IsStatic,
		Note:     w.Note,
	}
	if t.Output == nil {
		t.Output = []string{}
	}
	for i, s := range w.Steps {
		if len(s.Names) != len(s.Values) {
			return nil, fmt.Errorf("step %d: %d names for %d values", i, len(s.Names), len(s.Values))
		}
		vars := make(map[string]value.Value, len(s.Names))
		for j, n := range s.Names {
			vars[n] = s.Values[j]
		}
		t.Steps[i] = domain.Step{
			Line:            s.Line,
			Kind:            s.Kind,
			Description:     s.Description,
			Snapshot:        domain.SnapshotOf(vars, s.Output, s.Stack),
			LoopState:       s.LoopState,
			ConditionResult: s.ConditionResult,
			Error:           s.Error,
		}
	}
	return t, nil
}
