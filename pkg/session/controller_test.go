package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codeflow-dev/codeflow/pkg/analyzer"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/interpreter"
	"github.com/codeflow-dev/codeflow/pkg/protocol"
	"github.com/codeflow-dev/codeflow/pkg/script/parser"
	"github.com/codeflow-dev/codeflow/pkg/session"
	"github.com/codeflow-dev/codeflow/pkg/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const whileSource = "let i = 0; while (i < 2) { i = i + 1; }"

// paused keeps auto-play from firing during a test.
const paused = 3_600_000

type recorder struct {
	ch chan protocol.Message
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan protocol.Message, 4096)}
}

func (r *recorder) emit(m protocol.Message) { r.ch <- m }

func (r *recorder) next(t *testing.T) protocol.Message {
	t.Helper()
	select {
	case m := <-r.ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
		return nil
	}
}

func (r *recorder) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case m := <-r.ch:
		t.Fatalf("unexpected message %#v", m)
	case <-time.After(wait):
	}
}

func newTracer() *strategy.Registry {
	return strategy.NewRegistry(
		strategy.NewStatic(analyzer.New()),
		strategy.WithEvaluator("javascript", strategy.NewInterpreter(parser.New(), interpreter.New())),
	)
}

func newController(t *testing.T, tracer interface {
	Trace(context.Context, domain.Source) (*domain.Trace, error)
}, opts ...session.ControllerOption) (*session.Controller, *recorder) {
	t.Helper()
	rec := newRecorder()
	c := session.NewController(context.Background(), "test", tracer, rec.emit, opts...)
	t.Cleanup(c.Close)
	return c, rec
}

func run(t *testing.T, c *session.Controller, rec *recorder, code string, speed int) protocol.Ready {
	t.Helper()
	require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypeRun, Code: code, Speed: speed}))
	ready, ok := rec.next(t).(protocol.Ready)
	require.True(t, ok, "expected READY")
	return ready
}

func TestController_AutoPlay(t *testing.T) {
	c, rec := newController(t, newTracer())
	ready := run(t, c, rec, whileSource, 10)
	require.Equal(t, 8, ready.TotalSteps)
	assert.False(t, ready.IsStatic)
	assert.NotEmpty(t, ready.FlowGraph.Nodes)

	for i := range ready.TotalSteps {
		msg, ok := rec.next(t).(protocol.Step)
		require.True(t, ok)
		assert.Equal(t, i, msg.StepIndex)
		assert.Equal(t, 8, msg.TotalSteps)
	}
	assert.Equal(t, protocol.Done{TotalSteps: 8}, rec.next(t))
	assert.Equal(t, domain.PhaseDone, c.Phase())
	rec.expectNone(t, 50*time.Millisecond)
}

func TestController_JumpThenStepForward(t *testing.T) {
	c, rec := newController(t, newTracer())
	ready := run(t, c, rec, whileSource, paused)

	for i := range ready.TotalSteps - 1 {
		require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypeJump, Index: i}))
		msg := rec.next(t).(protocol.Step)
		assert.Equal(t, i, msg.StepIndex)

		require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypeStepForward}))
		msg = rec.next(t).(protocol.Step)
		assert.Equal(t, i+1, msg.StepIndex)
	}
}

func TestController_Navigation(t *testing.T) {
	c, rec := newController(t, newTracer())
	ready := run(t, c, rec, whileSource, paused)
	last := ready.TotalSteps - 1

	send := func(cmd protocol.Command) protocol.Message {
		t.Helper()
		require.NoError(t, c.Handle(cmd))
		return rec.next(t)
	}

	// JUMP clamps into range.
	assert.Equal(t, last, send(protocol.Command{Type: protocol.TypeJump, Index: 99}).(protocol.Step).StepIndex)
	assert.Equal(t, protocol.Done{TotalSteps: ready.TotalSteps}, send(protocol.Command{Type: protocol.TypeStepForward}))
	assert.Equal(t, 0, send(protocol.Command{Type: protocol.TypeJump, Index: -5}).(protocol.Step).StepIndex)

	// STEP_BACK redelivers the step before the last one delivered.
	send(protocol.Command{Type: protocol.TypeStepForward})
	send(protocol.Command{Type: protocol.TypeStepForward})
	assert.Equal(t, 3, c.Cursor())
	back := send(protocol.Command{Type: protocol.TypeStepBack}).(protocol.Step)
	assert.Equal(t, 1, back.StepIndex)
	assert.Equal(t, 2, c.Cursor())

	// Clamped at the first step.
	assert.Equal(t, 0, send(protocol.Command{Type: protocol.TypeStepBack}).(protocol.Step).StepIndex)
	assert.Equal(t, 0, send(protocol.Command{Type: protocol.TypeStepBack}).(protocol.Step).StepIndex)

	// Stored steps are replayed, not recomputed.
	tr, ok := c.Trace()
	require.True(t, ok)
	assert.Equal(t, tr.Steps[1].Description, back.Step.Description)
}

func TestController_PauseResume(t *testing.T) {
	c, rec := newController(t, newTracer())
	run(t, c, rec, whileSource, paused)
	assert.Equal(t, domain.PhasePlaying, c.Phase())

	require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypePause}))
	assert.Equal(t, protocol.Paused{StepIndex: 0}, rec.next(t))
	assert.Equal(t, domain.PhasePaused, c.Phase())
	rec.expectNone(t, 30*time.Millisecond)

	require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypeResume, Speed: 10}))
	assert.Equal(t, 0, rec.next(t).(protocol.Step).StepIndex)
	assert.Equal(t, 1, rec.next(t).(protocol.Step).StepIndex)

	require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypePause}))
	var pausedAt int
	for {
		m := rec.next(t)
		if p, ok := m.(protocol.Paused); ok {
			pausedAt = p.StepIndex
			break
		}
	}
	assert.Equal(t, pausedAt, c.Cursor())
	rec.expectNone(t, 50*time.Millisecond)
}

func TestController_SingleTimer(t *testing.T) {
	c, rec := newController(t, newTracer())
	ready := run(t, c, rec, whileSource, paused)

	for range 5 {
		require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypeResume, Speed: 10}))
	}

	var indexes []int
	for {
		m := rec.next(t)
		if _, ok := m.(protocol.Done); ok {
			break
		}
		indexes = append(indexes, m.(protocol.Step).StepIndex)
	}
	want := make([]int, ready.TotalSteps)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, indexes)
	rec.expectNone(t, 50*time.Millisecond)
}

func TestController_Rejections(t *testing.T) {
	tests := []struct {
		name string
		cmd  protocol.Command
		want string
	}{
		{"empty code", protocol.Command{Type: protocol.TypeRun, Code: "  \n"}, "No code provided."},
		{"code too large", protocol.Command{Type: protocol.TypeRun, Code: strings.Repeat("x", 11)}, "Code too large (max 10 bytes)."},
		{"step forward", protocol.Command{Type: protocol.TypeStepForward}, "no trace loaded"},
		{"step back", protocol.Command{Type: protocol.TypeStepBack}, "no trace loaded"},
		{"jump", protocol.Command{Type: protocol.TypeJump, Index: 2}, "no trace loaded"},
		{"resume", protocol.Command{Type: protocol.TypeResume}, "no trace loaded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newController(t, newTracer(), session.WithMaxSourceBytes(10))
			require.Error(t, c.Handle(tt.cmd))
			assert.Equal(t, protocol.Error{Error: tt.want}, rec.next(t))
			assert.Equal(t, domain.PhaseIdle, c.Phase())
		})
	}
}

// gatedTracer blocks every trace until its gate is closed.
type gatedTracer struct {
	gate  chan struct{}
	calls atomic.Int32
	inner *strategy.Registry
}

func (g *gatedTracer) Trace(ctx context.Context, src domain.Source) (*domain.Trace, error) {
	g.calls.Add(1)
	select {
	case <-g.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.inner.Trace(ctx, src)
}

func TestController_RunInProgress(t *testing.T) {
	g := &gatedTracer{gate: make(chan struct{}), inner: newTracer()}
	c, rec := newController(t, g)

	require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypeRun, Code: "let a = 1;", Speed: paused}))
	err := c.Handle(protocol.Command{Type: protocol.TypeStepBack})
	assert.ErrorIs(t, err, domain.ErrRunInProgress)
	assert.Equal(t, protocol.Error{Error: "run in progress"}, rec.next(t))

	// A second RUN supersedes the first.
	require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypeRun, Code: whileSource, Speed: paused}))
	close(g.gate)

	ready := rec.next(t).(protocol.Ready)
	assert.Equal(t, 8, ready.TotalSteps)
	rec.expectNone(t, 50*time.Millisecond)
	assert.Equal(t, int32(2), g.calls.Load())
}

// failingTracer fails every source containing "fail".
type failingTracer struct {
	inner *strategy.Registry
}

func (f failingTracer) Trace(ctx context.Context, src domain.Source) (*domain.Trace, error) {
	if strings.Contains(src.Code, "fail") {
		return nil, errors.New("tracer unavailable")
	}
	return f.inner.Trace(ctx, src)
}

func TestController_FailedRunDropsPreviousTrace(t *testing.T) {
	c, rec := newController(t, failingTracer{inner: newTracer()})
	run(t, c, rec, whileSource, paused)
	require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypeStepForward}))
	_, ok := rec.next(t).(protocol.Step)
	require.True(t, ok)

	require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypeRun, Code: "let fail = 1;", Speed: paused}))
	_, ok = rec.next(t).(protocol.Error)
	require.True(t, ok, "expected ERROR")
	assert.Equal(t, domain.PhaseIdle, c.Phase())

	for _, cmd := range []protocol.Command{
		{Type: protocol.TypeStepForward},
		{Type: protocol.TypeJump, Index: 1},
		{Type: protocol.TypeResume},
	} {
		assert.ErrorIs(t, c.Handle(cmd), domain.ErrNoTrace)
		assert.Equal(t, protocol.Error{Error: "no trace loaded"}, rec.next(t))
	}
	assert.Equal(t, domain.PhaseIdle, c.Phase())
}

func TestController_ResetThenRunIsIdempotent(t *testing.T) {
	c, rec := newController(t, newTracer())
	src := "let s = 0;\nfor (let i = 0; i < 4; i++) {\n  s += i;\n  console.log(s);\n}"

	run(t, c, rec, src, paused)
	first, _ := c.Trace()
	firstJSON, err := json.Marshal(first.Steps)
	require.NoError(t, err)

	require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypeReset}))
	assert.Equal(t, protocol.ResetOK{}, rec.next(t))
	assert.Equal(t, domain.PhaseIdle, c.Phase())
	_, ok := c.Trace()
	assert.False(t, ok)

	run(t, c, rec, src, paused)
	second, _ := c.Trace()
	secondJSON, err := json.Marshal(second.Steps)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestController_ResetCancelsRun(t *testing.T) {
	g := &gatedTracer{gate: make(chan struct{}), inner: newTracer()}
	c, rec := newController(t, g)

	require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypeRun, Code: whileSource}))
	require.NoError(t, c.Handle(protocol.Command{Type: protocol.TypeReset}))
	assert.Equal(t, protocol.ResetOK{}, rec.next(t))
	close(g.gate)
	rec.expectNone(t, 50*time.Millisecond)
}

func TestController_StaticLanguage(t *testing.T) {
	c, rec := newController(t, newTracer())
	require.NoError(t, c.Handle(protocol.Command{
		Type:     protocol.TypeRun,
		Code:     "#include <stdio.h>\nint main() {\n  int x = 1;\n  printf(\"%d\", x);\n}",
		Language: "c",
		Speed:    paused,
	}))
	ready := rec.next(t).(protocol.Ready)
	assert.True(t, ready.IsStatic)
	assert.Equal(t, analyzer.Note("c"), ready.Note)
}

func TestController_Hooks(t *testing.T) {
	var commands []domain.CommandEvent
	c, rec := newController(t, newTracer(), session.WithHooks(domain.LifecycleHooks{
		OnCommand: func(_ context.Context, e *domain.CommandEvent) { commands = append(commands, *e) },
	}))

	_ = c.Handle(protocol.Command{Type: protocol.TypeStepForward})
	rec.next(t)
	run(t, c, rec, whileSource, paused)

	require.Len(t, commands, 2)
	assert.Equal(t, "STEP_FORWARD", commands[0].Command)
	assert.True(t, commands[0].Rejected)
	assert.Equal(t, "RUN", commands[1].Command)
	assert.False(t, commands[1].Rejected)
	assert.Equal(t, "test", commands[1].SessionID)
}
