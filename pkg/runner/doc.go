/*
Package runner drives a playback session from a text terminal.

It is the bridge between a session.Controller and a human at a keyboard:
lines read from the input become protocol commands, and the messages the
session emits are written through a pluggable Printer.

# Commands

	n, next, <enter>   step forward
	b, back            step back
	j N, jump N        jump to step N
	p, play [MS]       resume auto-play, optionally at MS per step
	s, pause           pause auto-play
	r, restart         reset and trace the program again
	q, quit, exit      leave

Ctrl+C pauses auto-play; a second Ctrl+C while paused quits.

# Usage

	r := runner.New(tracer,
		runner.WithPrinter(runner.NewTextPrinter(os.Stdout)),
	)
	if err := r.Run(ctx, domain.Source{Code: code}); err != nil {
		log.Fatal(err)
	}
*/
package runner
