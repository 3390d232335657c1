package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/flowgraph"
	"github.com/codeflow-dev/codeflow/pkg/ports"
	"github.com/codeflow-dev/codeflow/pkg/protocol"
)

const (
	// DefaultSpeed is the auto-play interval when a command names none.
	DefaultSpeed = 600 * time.Millisecond
	// MinSpeed is the shortest auto-play interval accepted.
	MinSpeed = 10 * time.Millisecond
	// DefaultMaxSourceBytes bounds submitted code.
	DefaultMaxSourceBytes = 50000
)

// Emitter delivers outbound messages to the client. It is called with the
// controller lock held, so messages arrive in order; it must not block for
// long and must not call back into the controller.
type Emitter func(protocol.Message)

// Controller is the playback state machine of one session. It owns the
// trace, the cursor and at most one auto-play timer.
type Controller struct {
	id             string
	tracer         ports.Tracer
	emit           Emitter
	maxSourceBytes int
	defaultSpeed   time.Duration
	logger         *slog.Logger
	hooks          domain.LifecycleHooks

	// base is cancelled when the session closes.
	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	phase  domain.Phase
	trace  *domain.Trace
	graph  domain.FlowGraph
	cursor int

	// timerGen invalidates ticks of stopped timers.
	timerGen uint64
	stop     chan struct{}

	runGen    uint64
	runCancel context.CancelFunc
	runs      sync.WaitGroup
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithMaxSourceBytes sets the largest accepted source.
func WithMaxSourceBytes(n int) ControllerOption {
	return func(c *Controller) {
		if n > 0 {
			c.maxSourceBytes = n
		}
	}
}

// WithDefaultSpeed sets the auto-play interval used when RUN or RESUME
// carries none.
func WithDefaultSpeed(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.defaultSpeed = max(d, MinSpeed)
		}
	}
}

// WithControllerLogger sets the logger.
func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = logger }
}

// WithHooks registers lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) ControllerOption {
	return func(c *Controller) { c.hooks = h }
}

// NewController creates an idle session. ctx bounds every run it starts.
func NewController(ctx context.Context, id string, tracer ports.Tracer, emit Emitter, opts ...ControllerOption) *Controller {
	c := &Controller{
		id:             id,
		tracer:         tracer,
		emit:           emit,
		maxSourceBytes: DefaultMaxSourceBytes,
		defaultSpeed:   DefaultSpeed,
		logger:         logging.NewNop(),
		phase:          domain.PhaseIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.base, c.cancel = context.WithCancel(ctx)
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Phase returns the playback state.
func (c *Controller) Phase() domain.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Cursor returns the index of the next step to deliver.
func (c *Controller) Cursor() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Trace returns the materialized trace, if any.
func (c *Controller) Trace() (*domain.Trace, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.trace, c.trace != nil
}

// Handle applies one command. Rejections are reported to the client as
// ERROR messages and returned.
func (c *Controller) Handle(cmd protocol.Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.dispatch(cmd)
	if err != nil {
		c.emit(protocol.Error{Error: ErrorMessage(err, c.maxSourceBytes)})
	}
	if c.hooks.OnCommand != nil {
		c.hooks.OnCommand(c.base, &domain.CommandEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventCommand},
			SessionID: c.id,
			Command:   string(cmd.Type),
			Rejected:  err != nil,
		})
	}
	return err
}

func (c *Controller) dispatch(cmd protocol.Command) error {
	switch cmd.Type {
	case protocol.TypeRun:
		return c.run(cmd)
	case protocol.TypeReset:
		c.reset()
		return nil
	}

	if c.runCancel != nil {
		return domain.ErrRunInProgress
	}
	switch cmd.Type {
	case protocol.TypePause:
		c.stopTimer()
		if c.trace != nil && c.phase != domain.PhaseDone {
			c.phase = domain.PhasePaused
		}
		c.emit(protocol.Paused{StepIndex: c.cursor})
		return nil
	}

	if c.trace == nil {
		return domain.ErrNoTrace
	}
	switch cmd.Type {
	case protocol.TypeStepForward:
		c.stopTimer()
		c.forward()
	case protocol.TypeStepBack:
		c.stopTimer()
		target := max(c.cursor-2, 0)
		c.deliver(target)
		c.cursor = target + 1
		c.phase = domain.PhasePaused
	case protocol.TypeJump:
		c.stopTimer()
		target := min(max(cmd.Index, 0), c.trace.Len()-1)
		c.deliver(target)
		c.cursor = target + 1
		c.phase = domain.PhasePaused
	case protocol.TypeResume:
		c.play(cmd.Speed)
	default:
		return fmt.Errorf("unsupported command %q", cmd.Type)
	}
	return nil
}

// run validates the source and computes its trace off the command loop.
// A newer RUN supersedes an outstanding one.
func (c *Controller) run(cmd protocol.Command) error {
	c.stopTimer()
	if strings.TrimSpace(cmd.Code) == "" {
		return domain.ErrEmptySource
	}
	if len(cmd.Code) > c.maxSourceBytes {
		return domain.ErrSourceTooLarge
	}

	if c.runCancel != nil {
		c.runCancel()
	}
	c.runGen++
	gen := c.runGen
	ctx, cancel := context.WithCancel(c.base)
	c.runCancel = cancel

	src := domain.Source{Code: cmd.Code, Inputs: cmd.Inputs, Language: cmd.Language}
	c.runs.Add(1)
	go func() {
		defer c.runs.Done()
		defer cancel()
		trace, err := c.tracer.Trace(ctx, src)
		c.finishRun(gen, cmd.Speed, trace, err)
	}()
	return nil
}

func (c *Controller) finishRun(gen uint64, speed int, trace *domain.Trace, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.runGen || c.runCancel == nil {
		return
	}
	c.runCancel = nil

	if err != nil {
		if c.base.Err() == nil {
			c.logger.Warn("trace failed", "session_id", c.id, "err", err)
			c.emit(protocol.Error{Error: ErrorMessage(err, c.maxSourceBytes)})
		}
		c.trace = nil
		c.graph = domain.FlowGraph{}
		c.cursor = 0
		c.phase = domain.PhaseIdle
		return
	}

	c.trace = trace
	c.graph = flowgraph.Compile(trace)
	c.cursor = 0
	c.phase = domain.PhaseReady
	c.emit(protocol.Ready{
		TotalSteps: trace.Len(),
		FlowGraph:  c.graph,
		IsStatic:   trace.IsStatic,
		Note:       trace.Note,
	})
	c.play(speed)
}

func (c *Controller) reset() {
	c.stopTimer()
	if c.runCancel != nil {
		c.runCancel()
		c.runCancel = nil
	}
	c.trace = nil
	c.graph = domain.FlowGraph{}
	c.cursor = 0
	c.phase = domain.PhaseIdle
	c.emit(protocol.ResetOK{})
}

// forward delivers the step at the cursor, or DONE past the end.
func (c *Controller) forward() bool {
	if c.cursor >= c.trace.Len() {
		c.phase = domain.PhaseDone
		c.emit(protocol.Done{TotalSteps: c.trace.Len()})
		return false
	}
	c.deliver(c.cursor)
	c.cursor++
	if c.phase != domain.PhasePlaying {
		c.phase = domain.PhasePaused
	}
	return true
}

func (c *Controller) deliver(i int) {
	step, ok := c.trace.At(i)
	if !ok {
		return
	}
	c.emit(protocol.Step{
		Step:       step,
		StepIndex:  i,
		TotalSteps: c.trace.Len(),
		FlowGraph:  c.graph,
	})
}

// play starts auto-play from the cursor, replacing any live timer.
func (c *Controller) play(speedMS int) {
	c.stopTimer()
	interval := c.defaultSpeed
	if speedMS > 0 {
		interval = max(time.Duration(speedMS)*time.Millisecond, MinSpeed)
	}

	gen := c.timerGen
	stop := make(chan struct{})
	c.stop = stop
	c.phase = domain.PhasePlaying

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-c.base.Done():
				return
			case <-ticker.C:
				if !c.tick(gen) {
					return
				}
			}
		}
	}()
}

func (c *Controller) tick(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.timerGen || c.trace == nil {
		return false
	}
	if c.forward() {
		return true
	}
	c.stop = nil
	c.timerGen++
	return false
}

// stopTimer cancels the live timer, if any. Safe to call repeatedly.
func (c *Controller) stopTimer() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
	c.timerGen++
	if c.phase == domain.PhasePlaying {
		c.phase = domain.PhasePaused
	}
}

// Close stops the timer, cancels any outstanding run and waits for it.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopTimer()
	if c.runCancel != nil {
		c.runCancel()
		c.runCancel = nil
	}
	c.mu.Unlock()
	c.cancel()
	c.runs.Wait()
}

// ErrorMessage renders err the way clients expect to read it.
func ErrorMessage(err error, maxSourceBytes int) string {
	switch {
	case errors.Is(err, domain.ErrEmptySource):
		return "No code provided."
	case errors.Is(err, domain.ErrSourceTooLarge):
		return fmt.Sprintf("Code too large (max %d bytes).", maxSourceBytes)
	}
	return err.Error()
}
