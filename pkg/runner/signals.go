package runner

import (
	"os"
	"os/signal"
	"syscall"
	"time"
)

// interrupts delivers Ctrl+C and SIGTERM while the player runs, instead of
// letting them kill the process.
type interrupts struct {
	ch chan os.Signal
}

func listenInterrupts() *interrupts {
	in := &interrupts{ch: make(chan os.Signal, 1)}
	signal.Notify(in.ch, os.Interrupt, syscall.SIGTERM)
	return in
}

// C is nil for a nil receiver, so a disabled listener never fires in a select.
func (in *interrupts) C() <-chan os.Signal {
	if in == nil {
		return nil
	}
	return in.ch
}

func (in *interrupts) stop() {
	if in != nil {
		signal.Stop(in.ch)
	}
}

// follows reports whether an interrupt arrives within d. Some terminals
// close stdin on Ctrl+C slightly before the signal is delivered.
func (in *interrupts) follows(d time.Duration) bool {
	if in == nil {
		return false
	}
	select {
	case <-in.ch:
		return true
	case <-time.After(d):
		return false
	}
}
