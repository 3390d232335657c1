package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/codeflow-dev/codeflow"
	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loop = "for (let i = 0; i < 2; i++) {\n  print(i);\n}"

func play(t *testing.T, code, commands string, opts ...Option) (string, error) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithInput(strings.NewReader(commands)), WithPrinter(NewTextPrinter(&out))}, opts...)
	r := New(codeflow.New(), opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := r.Run(ctx, domain.Source{Code: code})
	return out.String(), err
}

func TestRunner_Navigation(t *testing.T) {
	out, err := play(t, loop, "n\n\nj 5\nb\nq\n")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace ready: 10 steps")
	assert.NotContains(t, out, "Paused", "the initial pause is silent")
	for _, want := range []string{"[1/10] start:", "[2/10] line 1", "[5/10]", "[4/10]"} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "[5/10]"), strings.Index(out, "[4/10]"))
}

func TestRunner_AutoPlayUntilDone(t *testing.T) {
	out, err := play(t, loop, "", WithAutoPlay(true), WithSpeed(10*time.Millisecond))
	require.NoError(t, err)

	assert.Contains(t, out, "[10/10]")
	assert.True(t, strings.HasSuffix(out, "Done (10 steps)\n"), out)
}

func TestRunner_ShowsNewOutputOnce(t *testing.T) {
	out, err := play(t, "print('a');\nprint('b');", "n\nn\nn\nn\n")
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "    > a\n"))
	assert.Equal(t, 1, strings.Count(out, "    > b\n"))
}

func TestRunner_Errors(t *testing.T) {
	out, err := play(t, "  ", "")
	assert.ErrorIs(t, err, domain.ErrEmptySource)
	assert.Contains(t, out, "Error: No code provided.")

	out, err = play(t, loop, "dance\nj x\nq\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Error: unknown command")
	assert.Contains(t, out, `Error: j needs a number: "x"`)
}

func TestRunner_Restart(t *testing.T) {
	out, err := play(t, loop, "n\nr\nn\nq\n")
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(out, "Trace ready: 10 steps"))
	assert.Contains(t, out, "Reset\n")
	assert.Equal(t, 2, strings.Count(out, "[1/10] start:"))
}

func TestJSONPrinter(t *testing.T) {
	var out bytes.Buffer
	r := New(codeflow.New(), WithInput(strings.NewReader("n\n")), WithPrinter(NewJSONPrinter(&out)))
	require.NoError(t, r.Run(context.Background(), domain.Source{Code: "let x = 1;"}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var types []string
	for _, line := range lines {
		var msg map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &msg))
		types = append(types, msg["type"].(string))
	}
	assert.Equal(t, []string{"READY", "STEP"}, types)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		act     action
		cmd     protocol.Command
		wantErr bool
	}{
		{"", actCommand, protocol.Command{Type: protocol.TypeStepForward}, false},
		{"next", actCommand, protocol.Command{Type: protocol.TypeStepForward}, false},
		{"B", actCommand, protocol.Command{Type: protocol.TypeStepBack}, false},
		{"j 3", actCommand, protocol.Command{Type: protocol.TypeJump, Index: 2}, false},
		{"jump", actCommand, protocol.Command{}, true},
		{"p", actCommand, protocol.Command{Type: protocol.TypeResume}, false},
		{"play 250", actCommand, protocol.Command{Type: protocol.TypeResume, Speed: 250}, false},
		{"s", actCommand, protocol.Command{Type: protocol.TypePause}, false},
		{"restart", actRestart, protocol.Command{}, false},
		{"exit", actQuit, protocol.Command{}, false},
		{"fly", actCommand, protocol.Command{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			act, cmd, err := parseCommand(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.act, act)
			assert.Equal(t, tt.cmd, cmd)
		})
	}
}

func TestTextPrinter_Variables(t *testing.T) {
	var out bytes.Buffer
	p := NewTextPrinter(&out, WithRenderer(func(kind domain.StepKind, s string) string {
		return "<" + string(kind) + ">" + s
	}))
	tr, err := codeflow.New().Trace(context.Background(), domain.Source{Code: "let b = 'x';\nlet a = [1];"})
	require.NoError(t, err)

	last := tr.Steps[tr.Len()-1]
	require.NoError(t, p.Print(protocol.Step{Step: last, StepIndex: tr.Len() - 1, TotalSteps: tr.Len()}))
	assert.Equal(t, "<end>[4/4] end: Program finished\n    a=[1] b=\"x\"\n", out.String())
}
