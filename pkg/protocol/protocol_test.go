package protocol_test

import (
	"testing"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want protocol.Command
	}{
		{
			name: "run",
			in:   `{"type":"RUN","code":"let x = 1;","inputs":["a",2],"speed":250,"language":"js"}`,
			want: protocol.Command{Type: protocol.TypeRun, Code: "let x = 1;", Inputs: []string{"a", "2"}, Speed: 250, Language: "js"},
		},
		{
			name: "jump truncates",
			in:   `{"type":"JUMP","index":3.7}`,
			want: protocol.Command{Type: protocol.TypeJump, Index: 3},
		},
		{
			name: "jump saturates",
			in:   `{"type":"JUMP","index":1e300}`,
			want: protocol.Command{Type: protocol.TypeJump, Index: 2147483647},
		},
		{
			name: "numeric strings",
			in:   `{"type":"RESUME","speed":"100"}`,
			want: protocol.Command{Type: protocol.TypeResume, Speed: 100},
		},
		{
			name: "extra fields ignored",
			in:   `{"type":"STEP_BACK","foo":{"bar":1}}`,
			want: protocol.Command{Type: protocol.TypeStepBack},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	for _, in := range []string{
		`not json`,
		`[]`,
		`{}`,
		`{"type":"READY"}`,
		`{"type":"LAUNCH"}`,
		`{"type":"RUN","code":{"nested":true}}`,
	} {
		t.Run(in, func(t *testing.T) {
			_, err := protocol.Decode([]byte(in))
			assert.ErrorIs(t, err, protocol.ErrMalformed)
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		msg  protocol.Message
		want string
	}{
		{protocol.ResetOK{}, `{"type":"RESET_OK"}`},
		{protocol.Done{TotalSteps: 8}, `{"type":"DONE","totalSteps":8}`},
		{protocol.Paused{StepIndex: 2}, `{"type":"PAUSED","stepIndex":2}`},
		{protocol.Error{Error: "no trace loaded"}, `{"type":"ERROR","error":"no trace loaded"}`},
		{
			protocol.Ready{TotalSteps: 2, FlowGraph: domain.FlowGraph{Nodes: []domain.FlowNode{}, Edges: []domain.FlowEdge{}}, Note: "n"},
			`{"type":"READY","totalSteps":2,"flowGraph":{"nodes":[],"edges":[]},"isStatic":false,"note":"n"}`,
		},
	}
	for _, tt := range tests {
		t.Run(string(tt.msg.MessageType()), func(t *testing.T) {
			got, err := protocol.Encode(tt.msg)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
			assert.Regexp(t, `^\{"type":"`, string(got))
		})
	}
}

func TestEncode_Step(t *testing.T) {
	step := domain.Step{Line: 1, Kind: domain.KindVarDecl, Description: "Declare let x = 1", Snapshot: domain.SnapshotOf(nil, nil, []string{"global"})}
	got, err := protocol.Encode(protocol.Step{Step: step, StepIndex: 1, TotalSteps: 3})
	require.NoError(t, err)
	assert.Contains(t, string(got), `"stepIndex":1`)
	assert.Contains(t, string(got), `"kind":"var-decl"`)
	assert.Contains(t, string(got), `"stackFrames":["global"]`)
}
