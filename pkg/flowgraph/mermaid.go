package flowgraph

import (
	"fmt"
	"strings"

	"github.com/codeflow-dev/codeflow/pkg/domain"
)

// Overlay contains playback state to highlight on the graph.
type Overlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// OverlayAt returns the overlay for playback positioned at step index i of t:
// every node reached up to i is visited, and the node of step i is current.
func OverlayAt(g domain.FlowGraph, t *domain.Trace, i int) *Overlay {
	o := &Overlay{}
	for j := 0; j <= i && j < t.Len(); j++ {
		n, ok := g.NodeFor(t.Steps[j])
		if !ok {
			continue
		}
		o.VisitedNodes = append(o.VisitedNodes, n.ID)
		if j == i {
			o.CurrentNode = n.ID
		}
	}
	return o
}

// Mermaid renders g as a Mermaid flowchart. Node shapes follow the step kind:
//   - Start/End: ((Circle))
//   - Condition/Loop condition: {Rhombus}
//   - Output: [/Parallelogram/]
//   - Default: [Rectangle]
//
// Loop-back edges are dotted. Overlay styles are applied when overlay is
// not nil.
func Mermaid(g domain.FlowGraph, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.Nodes {
		opener, closer := "[", "]"
		switch node.Kind {
		case domain.KindStart, domain.KindEnd:
			opener, closer = "((", "))"
		case domain.KindCondition, domain.KindLoopCondition:
			opener, closer = "{", "}"
		case domain.KindOutput:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", sanitizeID(node.ID), opener, escapeLabel(node.Label), closer)
	}

	for _, e := range g.Edges {
		arrow := "-->"
		switch {
		case e.IsLoopBack:
			arrow = fmt.Sprintf("-. \"%s\" .->", escapeLabel(e.Label))
		case e.Label != "":
			arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(e.Label))
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", sanitizeID(e.Source), arrow, sanitizeID(e.Target))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text for contrast on light fills in either theme.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visited := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeID(id)
			if safeID != "" && !visited[safeID] {
				visited[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// Mermaid reserves "end" as a keyword, so ids are prefixed.
func sanitizeID(id string) string {
	if id == "" {
		return ""
	}
	return "n_" + strings.NewReplacer("-", "_", ".", "_", "/", "_").Replace(id)
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.ReplaceAll(s, "\n", "<br/>")
}
