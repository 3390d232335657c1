package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/protocol"
)

// Printer presents session messages to the user.
type Printer interface {
	Print(m protocol.Message) error
}

// ContentRenderer is a function that transforms text before it is written.
// This allows for TUI styling without coupling this package to a terminal.
type ContentRenderer func(kind domain.StepKind, text string) string

// TextPrinter writes one human-readable block per message.
type TextPrinter struct {
	Writer   io.Writer
	Renderer ContentRenderer

	mu      sync.Mutex
	printed int // output lines already shown
}

// TextPrinterOption defines configuration for TextPrinter.
type TextPrinterOption func(*TextPrinter)

// WithRenderer styles step headlines.
func WithRenderer(r ContentRenderer) TextPrinterOption {
	return func(p *TextPrinter) { p.Renderer = r }
}

// NewTextPrinter creates a printer for w.
func NewTextPrinter(w io.Writer, opts ...TextPrinterOption) *TextPrinter {
	p := &TextPrinter{Writer: w}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *TextPrinter) Print(m protocol.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch m := m.(type) {
	case protocol.Ready:
		p.printed = 0
		fmt.Fprintf(p.Writer, "Trace ready: %d steps\n", m.TotalSteps)
		if m.Note != "" {
			fmt.Fprintf(p.Writer, "Note: %s\n", SanitizeText(m.Note))
		}
	case protocol.Step:
		p.step(m)
	case protocol.Done:
		fmt.Fprintf(p.Writer, "Done (%d steps)\n", m.TotalSteps)
	case protocol.Paused:
		fmt.Fprintf(p.Writer, "Paused at step %d\n", m.StepIndex)
	case protocol.ResetOK:
		p.printed = 0
		fmt.Fprintln(p.Writer, "Reset")
	case protocol.Error:
		fmt.Fprintf(p.Writer, "Error: %s\n", SanitizeText(m.Error))
	}
	return nil
}

func (p *TextPrinter) step(m protocol.Step) {
	s := m.Step
	head := fmt.Sprintf("[%d/%d]", m.StepIndex+1, m.TotalSteps)
	if s.Line > 0 {
		head += fmt.Sprintf(" line %d", s.Line)
	}
	head += fmt.Sprintf(" %s: %s", s.Kind, SanitizeText(s.Description))
	if p.Renderer != nil {
		head = p.Renderer(s.Kind, head)
	}
	fmt.Fprintln(p.Writer, head)

	if vars := formatVariables(s); vars != "" {
		fmt.Fprintf(p.Writer, "    %s\n", vars)
	}

	// Show only output produced since the last delivered step; after a jump
	// backwards the whole output is shown again.
	out := s.Snapshot.Output()
	if len(out) < p.printed {
		p.printed = 0
	}
	for _, line := range out[p.printed:] {
		fmt.Fprintf(p.Writer, "    > %s\n", SanitizeText(line))
	}
	p.printed = len(out)
}

func formatVariables(s domain.Step) string {
	var vars map[string]json.RawMessage
	if err := json.Unmarshal(s.Snapshot.AppendVariablesJSON(nil), &vars); err != nil || len(vars) == 0 {
		return ""
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + SanitizeText(string(vars[name]))
	}
	return strings.Join(parts, " ")
}

// JSONPrinter writes each message as one JSON line, in the same encoding the
// WebSocket transport uses.
type JSONPrinter struct {
	Writer io.Writer
	mu     sync.Mutex
}

// NewJSONPrinter creates a JSON-lines printer for w.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{Writer: w}
}

func (p *JSONPrinter) Print(m protocol.Message) error {
	data, err := protocol.Encode(m)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err = fmt.Fprintf(p.Writer, "%s\n", data)
	return err
}
