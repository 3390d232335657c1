package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/codeflow-dev/codeflow/pkg/protocol"
)

type action int

const (
	actCommand action = iota
	actRestart
	actQuit
)

var errUnknownCommand = errors.New("unknown command (n, b, j N, p [MS], s, r, q)")

// parseCommand maps a typed line to a protocol command. Step numbers are
// 1-based, as printed.
func parseCommand(line string) (action, protocol.Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return actCommand, protocol.Command{Type: protocol.TypeStepForward}, nil
	}

	arg := func() (int, error) {
		if len(fields) < 2 {
			return 0, fmt.Errorf("%s needs a number", fields[0])
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, fmt.Errorf("%s needs a number: %q", fields[0], fields[1])
		}
		return n, nil
	}

	switch fields[0] {
	case "n", "next":
		return actCommand, protocol.Command{Type: protocol.TypeStepForward}, nil
	case "b", "back":
		return actCommand, protocol.Command{Type: protocol.TypeStepBack}, nil
	case "j", "jump":
		n, err := arg()
		if err != nil {
			return actCommand, protocol.Command{}, err
		}
		return actCommand, protocol.Command{Type: protocol.TypeJump, Index: n - 1}, nil
	case "p", "play":
		cmd := protocol.Command{Type: protocol.TypeResume}
		if len(fields) > 1 {
			n, err := arg()
			if err != nil {
				return actCommand, protocol.Command{}, err
			}
			cmd.Speed = n
		}
		return actCommand, cmd, nil
	case "s", "pause":
		return actCommand, protocol.Command{Type: protocol.TypePause}, nil
	case "r", "restart":
		return actRestart, protocol.Command{}, nil
	case "q", "quit", "exit":
		return actQuit, protocol.Command{}, nil
	}
	return actCommand, protocol.Command{}, errUnknownCommand
}

type inputResult struct {
	text string
	err  error
}

// pump reads lines from r until EOF or done. The channel is closed on EOF.
func pump(r io.Reader, done <-chan struct{}) <-chan inputResult {
	out := make(chan inputResult)
	go func() {
		defer close(out)
		reader := bufio.NewReader(r)
		for {
			text, err := reader.ReadString('\n')
			if text != "" || (err != nil && err != io.EOF) {
				res := inputResult{text: strings.TrimSpace(text)}
				if err != io.EOF {
					res.err = err
				}
				select {
				case out <- res:
				case <-done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}
