package flowgraph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/codeflow-dev/codeflow/pkg/domain"
	"github.com/codeflow-dev/codeflow/pkg/flowgraph"
	"github.com/codeflow-dev/codeflow/pkg/interpreter"
	"github.com/codeflow-dev/codeflow/pkg/script/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(kind domain.StepKind, line int, desc string, cond *bool) domain.Step {
	return domain.Step{Kind: kind, Line: line, Description: desc, ConditionResult: cond}
}

// whileTrace mirrors `let i = 0; while (i < 2) { i = i + 1; }` spread over lines.
func whileTrace() *domain.Trace {
	yes, no := domain.Bool(true), domain.Bool(false)
	return &domain.Trace{Steps: []domain.Step{
		step(domain.KindStart, 0, "Program started", nil),
		step(domain.KindVarDecl, 1, "Declare let i = 0", nil),
		step(domain.KindLoopCondition, 2, "while condition → true (iteration 0)", yes),
		step(domain.KindAssignment, 3, "Assign i = 1 (was 0)", nil),
		step(domain.KindLoopCondition, 2, "while condition → true (iteration 1)", yes),
		step(domain.KindAssignment, 3, "Assign i = 2 (was 1)", nil),
		step(domain.KindLoopCondition, 2, "while condition → false (iteration 2)", no),
		step(domain.KindEnd, 0, "Program finished", nil),
	}}
}

func trace(t *testing.T, src string) *domain.Trace {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	return interpreter.New().Run(context.Background(), prog, nil)
}

func TestCompile_LoopBack(t *testing.T) {
	g := flowgraph.Compile(whileTrace())

	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	assert.Equal(t, []string{"start", "node-1", "node-2", "node-3", "end"}, ids)

	assert.Equal(t, []domain.FlowEdge{
		{Source: "start", Target: "node-1"},
		{Source: "node-1", Target: "node-2", Label: "YES"},
		{Source: "node-2", Target: "node-3"},
		{Source: "node-3", Target: "node-2", Label: flowgraph.LoopBackLabel, IsLoopBack: true},
		{Source: "node-2", Target: "end"},
	}, g.Edges)
}

func TestCompile_Labels(t *testing.T) {
	g := flowgraph.Compile(trace(t, "for (let i = 0; i < 2; i++) { print(i); }"))

	labels := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		labels[i] = n.Label
	}
	assert.Equal(t, []string{
		"START",
		"Create \"i\"\n= 0",
		"Loop\nCondition?\nYES ✓",
		"Print:\n0",
		"Update\ni ++\n(0 → 1)",
		"END",
	}, labels)

	n, ok := g.Node("node-2")
	require.True(t, ok)
	assert.Equal(t, domain.KindLoopCondition, n.Kind)
	assert.Equal(t, 1, n.Line)
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name   string
		step   domain.Step
		static bool
		want   string
	}{
		{"assignment", step(domain.KindAssignment, 1, "Assign x = 5 (was 4)", nil), false, "x: 4 → 5"},
		{"member assignment", step(domain.KindAssignment, 1, "Assign a[0] = 1 (was undefined)", nil), false, "a[0]: undefined → 1"},
		{"update statement", step(domain.KindAssignment, 1, "Update i: 0 → 1", nil), false, "Update i: 0 → 1"},
		{"condition no", step(domain.KindCondition, 1, "if condition → false", domain.Bool(false)), false, "Condition?\nNO ✗"},
		{"console", step(domain.KindOutput, 1, `console.log("a", 1)`, nil), false, "Print:\n\"a\", 1"},
		{"func", step(domain.KindFuncDecl, 1, "Function declared: f", nil), false, "Define\nFunction"},
		{"return", step(domain.KindReturn, 1, "return 1", nil), false, "Return\nValue"},
		{"error", step(domain.KindError, 1, "Error: boom", nil), false, "❌ Error"},
		{"statement", step(domain.KindStatement, 1, "Expression", nil), false, "Expression"},
		{"static", step(domain.KindVarDecl, 1, "Create: int x = 5", nil), true, "Create\nint x = 5"},
		{"long", step(domain.KindBreak, 1, strings.Repeat("x", 50), nil), false, strings.Repeat("x", 40)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, flowgraph.Label(tt.step, tt.static))
		})
	}
}

func TestCompile_BoundedByCodeShape(t *testing.T) {
	src := `let total = 0;
for (let i = 0; i < 200; i++) {
  if (i % 2 === 0) {
    total += i;
  } else {
    total -= 1;
  }
}
console.log(total);`
	tr := trace(t, src)
	require.Greater(t, tr.Len(), 400)

	type key struct {
		kind domain.StepKind
		line int
	}
	distinct := make(map[key]bool)
	for _, s := range tr.Steps {
		if s.Kind != domain.KindStart && s.Kind != domain.KindEnd {
			distinct[key{s.Kind, s.Line}] = true
		}
	}

	g := flowgraph.Compile(tr)
	assert.LessOrEqual(t, len(g.Nodes), len(distinct)+2)

	loopBacks := make(map[string]int)
	for _, e := range g.Edges {
		if e.IsLoopBack {
			loopBacks[e.Target]++
		}
	}
	for target, n := range loopBacks {
		assert.Equal(t, 1, n, "loop-back edges into %s", target)
	}

	// Same trace, same graph.
	assert.Equal(t, g, flowgraph.Compile(tr))
}

func TestCompile_EdgeCases(t *testing.T) {
	g := flowgraph.Compile(nil)
	assert.Len(t, g.Nodes, 2)
	assert.Equal(t, []domain.FlowEdge{{Source: "start", Target: "end"}}, g.Edges)

	se := interpreter.SyntaxErrorTrace(&domain.SyntaxError{Message: "Unexpected token", Line: 2, Column: 1})
	g = flowgraph.Compile(se)
	require.Len(t, g.Nodes, 3)
	assert.Equal(t, domain.KindError, g.Nodes[1].Kind)
	assert.Equal(t, 2, g.Nodes[1].Line)
}

func TestMermaid(t *testing.T) {
	tr := whileTrace()
	g := flowgraph.Compile(tr)

	out := flowgraph.Mermaid(g, nil)
	for _, want := range []string{
		"graph TD\n",
		`n_start(("START"))`,
		`n_node_1["Create 'i'<br/>= 0"]`,
		`n_node_2{"Loop<br/>Condition?<br/>YES ✓"}`,
		`n_end(("END"))`,
		`n_node_1 -- "YES" --> n_node_2`,
		`n_node_3 -. "loop back" .-> n_node_2`,
		"n_node_2 --> n_end",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")

	overlay := flowgraph.OverlayAt(g, tr, 3)
	assert.Equal(t, []string{"start", "node-1", "node-2", "node-3"}, overlay.VisitedNodes)
	assert.Equal(t, "node-3", overlay.CurrentNode)

	out = flowgraph.Mermaid(g, overlay)
	assert.Contains(t, out, "class n_node_2 visited;")
	assert.Contains(t, out, "class n_node_3 current;")
	assert.Equal(t, 1, strings.Count(out, "class n_node_1 visited;"))
}
