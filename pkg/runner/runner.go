package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/codeflow-dev/codeflow/internal/logging"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/ports"
	"github.com/codeflow-dev/codeflow/pkg/protocol"
	"github.com/codeflow-dev/codeflow/pkg/session"
)

// Runner plays one program in a local session, driven by text commands.
type Runner struct {
	tracer   ports.Tracer
	input    io.Reader
	printer  Printer
	logger   *slog.Logger
	speed    time.Duration
	autoPlay bool
	signals  bool
	maxLine  int
	ctrlOpts []session.ControllerOption
}

// Option configures the Runner.
type Option func(*Runner)

// WithInput sets where commands are read from. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(rn *Runner) { rn.input = r }
}

// WithPrinter sets how messages are shown. Defaults to a TextPrinter on
// os.Stdout.
func WithPrinter(p Printer) Option {
	return func(rn *Runner) { rn.printer = p }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rn *Runner) { rn.logger = logger }
}

// WithSpeed sets the auto-play interval.
func WithSpeed(d time.Duration) Option {
	return func(rn *Runner) { rn.speed = d }
}

// WithAutoPlay starts playback as soon as the trace is ready instead of
// waiting for the first command.
func WithAutoPlay(enabled bool) Option {
	return func(rn *Runner) { rn.autoPlay = enabled }
}

// WithSignals makes Ctrl+C pause playback, and quit when already paused.
func WithSignals(enabled bool) Option {
	return func(rn *Runner) { rn.signals = enabled }
}

// WithMaxLineBytes bounds a command line. Defaults to DefaultMaxLineBytes.
func WithMaxLineBytes(n int) Option {
	return func(rn *Runner) {
		if n > 0 {
			rn.maxLine = n
		}
	}
}

// WithControllerOptions configures the underlying session.
func WithControllerOptions(opts ...session.ControllerOption) Option {
	return func(rn *Runner) { rn.ctrlOpts = append(rn.ctrlOpts, opts...) }
}

// New creates a Runner tracing with tracer.
func New(tracer ports.Tracer, opts ...Option) *Runner {
	r := &Runner{
		tracer: tracer,
		input:   os.Stdin,
		logger:  logging.NewNop(),
		maxLine: DefaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.printer == nil {
		r.printer = NewTextPrinter(os.Stdout)
	}
	return r
}

// Run traces src and plays it until the user quits, the input ends while
// playback is idle, or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, src domain.Source) error {
	// Playback never emits more than one message per command or tick, and
	// this loop drains continuously.
	msgs := make(chan protocol.Message, 1024)
	emit := func(m protocol.Message) {
		select {
		case msgs <- m:
		default:
			r.logger.Warn("runner message buffer full, dropping", "type", m.MessageType())
		}
	}

	ctrl := session.NewController(ctx, "terminal", r.tracer, emit,
		append([]session.ControllerOption{session.WithControllerLogger(r.logger)}, r.ctrlOpts...)...)
	defer ctrl.Close()

	if err := r.start(ctx, ctrl, src, msgs); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	lines := pump(r.input, done)

	var signals *interrupts
	if r.signals {
		signals = listenInterrupts()
		defer signals.stop()
	}

	for {
		if lines == nil && ctrl.Phase() != domain.PhasePlaying {
			r.drain(msgs, false)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case m := <-msgs:
			r.print(m)

		case <-signals.C():
			if ctrl.Phase() != domain.PhasePlaying {
				return nil
			}
			_ = ctrl.Handle(protocol.Command{Type: protocol.TypePause})
			r.drain(msgs, false)

		case in, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			if in.err != nil {
				if signals.follows(100 * time.Millisecond) {
					return nil
				}
				return fmt.Errorf("input error: %w", in.err)
			}

			clean, err := cleanLine(in.text, r.maxLine)
			if err != nil {
				r.print(protocol.Error{Error: err.Error()})
				continue
			}
			act, cmd, err := parseCommand(clean)
			switch {
			case err != nil:
				r.print(protocol.Error{Error: err.Error()})
			case act == actQuit:
				return nil
			case act == actRestart:
				_ = ctrl.Handle(protocol.Command{Type: protocol.TypeReset})
				r.drain(msgs, false)
				if err := r.start(ctx, ctrl, src, msgs); err != nil {
					return err
				}
			default:
				// Rejections arrive as ERROR messages.
				_ = ctrl.Handle(cmd)
				r.drain(msgs, false)
			}
		}
	}
}

// start submits src and waits for the trace. Unless auto-play is on,
// playback is paused before the first step.
func (r *Runner) start(ctx context.Context, ctrl *session.Controller, src domain.Source, msgs <-chan protocol.Message) error {
	run := protocol.Command{
		Type:     protocol.TypeRun,
		Code:     src.Code,
		Inputs:   src.Inputs,
		Language: src.Language,
		Speed:    int(r.speed / time.Millisecond),
	}
	if err := ctrl.Handle(run); err != nil {
		r.drain(msgs, false)
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case m := <-msgs:
		r.print(m)
		if e, ok := m.(protocol.Error); ok {
			return fmt.Errorf("trace failed: %s", e.Error)
		}
	}

	if !r.autoPlay {
		_ = ctrl.Handle(protocol.Command{Type: protocol.TypePause})
		r.drain(msgs, true)
	}
	return nil
}

// drain prints the messages already queued. With quietPause, PAUSED
// acknowledgements are skipped.
func (r *Runner) drain(msgs <-chan protocol.Message, quietPause bool) {
	for {
		select {
		case m := <-msgs:
			if _, ok := m.(protocol.Paused); ok && quietPause {
				continue
			}
			r.print(m)
		default:
			return
		}
	}
}

func (r *Runner) print(m protocol.Message) {
	if err := r.printer.Print(m); err != nil {
		r.logger.Warn("print failed", "type", m.MessageType(), "err", err)
	}
}
