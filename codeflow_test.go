package codeflow_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/codeflow-dev/codeflow"
	"github.com/codeflow-dev/codeflow/pkg/adapters/memory"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/interpreter"
	"github.com/codeflow-dev/codeflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Execute(t *testing.T) {
	eng := codeflow.New()
	res, err := eng.Execute(context.Background(), domain.Source{
		Code:     "for (let i = 0; i < 2; i++) { print(i); }",
		Language: "JS",
	})
	require.NoError(t, err)

	assert.Len(t, res.Steps, 10)
	assert.Equal(t, []string{"0", "1"}, res.Output)
	assert.Nil(t, res.Error)
	assert.False(t, res.IsStatic)
	assert.NotEmpty(t, res.FlowGraph.Nodes)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	for _, key := range []string{"steps", "flowGraph", "output", "error", "isStatic"} {
		assert.Contains(t, wire, key)
	}
}

func TestEngine_ExecuteErrors(t *testing.T) {
	eng := codeflow.New(codeflow.WithMaxSourceBytes(20))
	ctx := context.Background()

	_, err := eng.Execute(ctx, domain.Source{Code: " \t\n"})
	assert.ErrorIs(t, err, domain.ErrEmptySource)

	_, err = eng.Execute(ctx, domain.Source{Code: strings.Repeat("1;", 11)})
	assert.ErrorIs(t, err, domain.ErrSourceTooLarge)

	res, err := eng.Execute(ctx, domain.Source{Code: "let = ;"})
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Contains(t, *res.Error, "Syntax Error")
}

func TestEngine_Limits(t *testing.T) {
	eng := codeflow.New(codeflow.WithLimits(interpreter.Limits{MaxSteps: 50, MaxIterations: 1000}))
	tr, err := eng.Trace(context.Background(), domain.Source{Code: "while (true) {}"})
	require.NoError(t, err)
	assert.Equal(t, 50, tr.Len())
	assert.True(t, tr.Failed())
}

func TestEngine_Static(t *testing.T) {
	runner := memory.NewRunner(map[string]ports.ProcessResult{"python": {Stdout: "3\n"}})
	eng := codeflow.New(codeflow.WithProcessRunner(runner))

	assert.Equal(t, "process", eng.StrategyFor("py"))
	assert.Equal(t, "static", eng.StrategyFor("rust"))
	assert.Equal(t, "interpreter", eng.StrategyFor(""))

	res, err := eng.Execute(context.Background(), domain.Source{Code: "x = 1 + 2\nprint(x)", Language: "python"})
	require.NoError(t, err)
	assert.True(t, res.IsStatic)
	assert.Equal(t, []string{"3"}, res.Output)
	assert.Contains(t, res.Note, "python")
	assert.Contains(t, eng.Languages(), "python")
}

func TestEngine_Validate(t *testing.T) {
	eng := codeflow.New()
	assert.NoError(t, eng.Validate("let x = 1;"))

	err := eng.Validate("let x = ;")
	var se *domain.SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 1, se.Line)
	assert.ErrorIs(t, err, domain.ErrSyntax)
}

func TestEngine_HooksAndCache(t *testing.T) {
	var mu sync.Mutex
	var events []domain.TraceEvent
	var hits []bool
	store := memory.NewStore()

	eng := codeflow.New(
		codeflow.WithTraceStore(store),
		codeflow.WithCacheObserver(func(hit bool) {
			mu.Lock()
			defer mu.Unlock()
			hits = append(hits, hit)
		}),
		codeflow.WithLifecycleHooks(domain.LifecycleHooks{
			OnTraceFinish: func(_ context.Context, e *domain.TraceEvent) {
				mu.Lock()
				defer mu.Unlock()
				events = append(events, *e)
			},
		}),
	)

	src := domain.Source{Code: "let a = 1;\nconsole.log(a);", Language: "node"}
	first, err := eng.Trace(context.Background(), src)
	require.NoError(t, err)
	second, err := eng.Trace(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, first.Kinds(), second.Kinds())
	assert.Equal(t, []bool{false, true}, hits)
	assert.Equal(t, 1, store.Len())

	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTraceFinish, events[0].Type)
	assert.Equal(t, "javascript", events[0].Language)
	assert.Equal(t, "interpreter", events[0].Strategy)
	assert.Equal(t, first.Len(), events[0].Steps)
	assert.False(t, events[0].Failed)
	assert.False(t, events[0].Cached)
	assert.True(t, events[1].Cached)
}
