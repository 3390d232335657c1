package domain_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStep_MarshalJSON(t *testing.T) {
	vars := domain.EmptyBindings().
		Set("y", value.Value(2.0)).
		Set("x", value.Value("a")).
		Set("u", value.Undefined)

	step := domain.Step{
		Line:            3,
		Kind:            domain.KindLoopCondition,
		Description:     "while condition → true (iteration 0)",
		Snapshot:        domain.NewSnapshot(vars, []string{"hi"}, []string{"global"}),
		LoopState:       &domain.LoopState{IterationCount: 0, ConditionResult: true},
		ConditionResult: domain.Bool(true),
	}

	b, err := json.Marshal(step)
	require.NoError(t, err)

	want := `{"line":3,"kind":"loop-condition","description":"while condition → true (iteration 0)",` +
		`"variables":{"x":"a","y":2},"output":["hi"],"stackFrames":["global"],` +
		`"loopState":{"iterationCount":0,"conditionResult":true},"conditionResult":true,"error":null}`
	assert.JSONEq(t, want, string(b))
}

func TestStep_MarshalJSON_Empty(t *testing.T) {
	b, err := json.Marshal(domain.Step{Kind: domain.KindEnd, Error: "boom"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, map[string]any{}, decoded["variables"])
	assert.Equal(t, []any{}, decoded["output"])
	assert.Equal(t, "boom", decoded["error"])
	assert.Nil(t, decoded["loopState"])
}

func TestSnapshot_Isolation(t *testing.T) {
	vars := domain.EmptyBindings().Set("x", value.Value(0.0))
	output := make([]string, 0, 8)
	output = append(output, "first")

	snap := domain.NewSnapshot(vars, output, []string{"global"})

	// Producer keeps extending its live state.
	vars = vars.Set("x", value.Value(5.0))
	output = append(output, "second")

	x, ok := snap.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, value.Value(0.0), x)
	assert.Len(t, snap.Output(), 1)

	got := snap.Output()
	got[0] = "caller mutation"
	assert.NotEqual(t, "caller mutation", snap.Output()[0])
}

func TestSnapshotOf(t *testing.T) {
	snap := domain.SnapshotOf(map[string]value.Value{"b": 1.0, "a": 2.0}, nil, nil)
	assert.Equal(t, []string{"a", "b"}, snap.Names())
	assert.Equal(t, []string{}, snap.Output())
	assert.Equal(t, `{"a":2,"b":1}`, string(snap.AppendVariablesJSON(nil)))
}

func TestSyntaxError_Is(t *testing.T) {
	err := fmt.Errorf("parse: %w", &domain.SyntaxError{Message: "Unexpected token", Line: 2, Column: 5})
	assert.True(t, errors.Is(err, domain.ErrSyntax))

	var se *domain.SyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Line)
	assert.Equal(t, "line 2:5: Unexpected token", se.Error())
}

func TestTrace_Accessors(t *testing.T) {
	tr := &domain.Trace{Steps: []domain.Step{{Kind: domain.KindStart}, {Kind: domain.KindError}, {Kind: domain.KindEnd}}}
	assert.Equal(t, 3, tr.Len())
	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, domain.KindEnd, last.Kind)
	assert.True(t, tr.Failed())
	_, ok = tr.At(3)
	assert.False(t, ok)

	var empty *domain.Trace
	assert.Equal(t, 0, empty.Len())
}
