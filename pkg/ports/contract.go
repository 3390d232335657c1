package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contractTrace is a small trace touching every value type a store must keep.
func contractTrace() *domain.Trace {
	obj := value.NewObject()
	obj.Set("z", 1.0)
	obj.Set("a", value.NewArray("x", true, nil))

	vars := map[string]value.Value{
		"i":    2.0,
		"name": "Ada",
		"o":    obj,
		"f":    value.NewFunction("f"),
		"u":    value.Undefined,
	}
	stack := []string{"global"}
	return &domain.Trace{
		Language: "javascript",
		Steps: []domain.Step{
			{Kind: domain.KindStart, Description: "Program started", Snapshot: domain.SnapshotOf(nil, nil, stack)},
			{
				Line:            3,
				Kind:            domain.KindLoopCondition,
				Description:     "while condition → true (iteration 1)",
				Snapshot:        domain.SnapshotOf(vars, []string{"1"}, stack),
				LoopState:       &domain.LoopState{IterationCount: 1, ConditionResult: true},
				ConditionResult: domain.Bool(true),
			},
			{Line: 4, Kind: domain.KindError, Description: "Error: boom", Error: "boom", Snapshot: domain.SnapshotOf(vars, []string{"1"}, stack)},
			{Kind: domain.KindEnd, Description: "Program finished", Snapshot: domain.SnapshotOf(vars, []string{"1"}, stack)},
		},
		Output: []string{"1"},
		Err:    "boom",
		Note:   "note",
	}
}

// RunTraceStoreContract runs a suite of tests to verify that a TraceStore
// implementation adheres to the interface contract.
func RunTraceStoreContract(t *testing.T, store TraceStore) {
	ctx := context.Background()
	key := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		trace := contractTrace()
		require.NoError(t, store.Save(ctx, key, trace), "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")

		assert.Equal(t, trace.Language, loaded.Language)
		assert.Equal(t, trace.Output, loaded.Output)
		assert.Equal(t, trace.Err, loaded.Err)
		assert.Equal(t, trace.Note, loaded.Note)
		assert.Equal(t, trace.Kinds(), loaded.Kinds())

		// The wire form covers variables, loop state and errors.
		want, err := json.Marshal(trace.Steps)
		require.NoError(t, err)
		got, err := json.Marshal(loaded.Steps)
		require.NoError(t, err)
		assert.JSONEq(t, string(want), string(got))

		o, ok := loaded.Steps[1].Snapshot.Lookup("o")
		require.True(t, ok)
		require.IsType(t, &value.Object{}, o)
		assert.Equal(t, []string{"z", "a"}, o.(*value.Object).Keys(), "property order must survive")

		u, ok := loaded.Steps[1].Snapshot.Lookup("u")
		require.True(t, ok)
		assert.True(t, value.IsUndefined(u))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+key)
		assert.ErrorIs(t, err, domain.ErrTraceNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, contractTrace()))

		require.NoError(t, store.Delete(ctx, key), "Delete should not return error")

		_, err := store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrTraceNotFound, "Load after Delete should return ErrTraceNotFound")
	})

	t.Run("List", func(t *testing.T) {
		k1 := key + "-1"
		k2 := key + "-2"
		require.NoError(t, store.Save(ctx, k1, contractTrace()))
		require.NoError(t, store.Save(ctx, k2, contractTrace()))
		defer func() {
			_ = store.Delete(ctx, k1)
			_ = store.Delete(ctx, k2)
		}()

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)
	})
}
