// Package flowgraph compiles a trace into its deduplicated control-flow graph.
//
// A node stands for one distinct (kind, line) pair, so the graph size follows
// the static shape of the code rather than how often a loop ran. Branch nodes
// that are revisited get a loop-back edge instead of a new node.
package flowgraph

import (
	"fmt"

	"github.com/codeflow-dev/codeflow/pkg/domain"
)

// LoopBackLabel labels edges that return to an already visited branch node.
const LoopBackLabel = "loop back"

type nodeKey struct {
	kind domain.StepKind
	line int
}

// Compile builds the FlowGraph of t. It is deterministic and does not
// modify t.
func Compile(t *domain.Trace) domain.FlowGraph {
	g := domain.FlowGraph{
		Nodes: []domain.FlowNode{{ID: domain.StartNodeID, Kind: domain.KindStart, Label: "START"}},
		Edges: []domain.FlowEdge{},
	}
	static := t != nil && t.IsStatic

	seen := make(map[nodeKey]string)
	loopBacks := make(map[string]bool)
	previous := domain.StartNodeID

	for _, s := range stepsOf(t) {
		if s.Kind == domain.KindStart || s.Kind == domain.KindEnd {
			continue
		}
		key := nodeKey{s.Kind, s.Line}
		existing, ok := seen[key]
		switch {
		case !ok:
			id := fmt.Sprintf("node-%d", len(seen)+1)
			seen[key] = id
			g.Nodes = append(g.Nodes, domain.FlowNode{
				ID:    id,
				Kind:  s.Kind,
				Line:  s.Line,
				Label: Label(s, static),
			})
			g.Edges = append(g.Edges, domain.FlowEdge{
				Source: previous,
				Target: id,
				Label:  branchLabel(s.ConditionResult),
			})
			previous = id

		case s.Kind.IsBranch():
			if !loopBacks[existing] {
				loopBacks[existing] = true
				g.Edges = append(g.Edges, domain.FlowEdge{
					Source:     previous,
					Target:     existing,
					Label:      LoopBackLabel,
					IsLoopBack: true,
				})
			}
			previous = existing
		}
		// Repeated non-branch steps add nothing.
	}

	g.Nodes = append(g.Nodes, domain.FlowNode{ID: domain.EndNodeID, Kind: domain.KindEnd, Label: "END"})
	g.Edges = append(g.Edges, domain.FlowEdge{Source: previous, Target: domain.EndNodeID})
	return g
}

func stepsOf(t *domain.Trace) []domain.Step {
	if t == nil {
		return nil
	}
	return t.Steps
}

func branchLabel(result *bool) string {
	switch {
	case result == nil:
		return ""
	case *result:
		return domain.EdgeYes
	default:
		return domain.EdgeNo
	}
}
