package domain

// Edge labels for branch outcomes.
const (
	EdgeYes = "YES"
	EdgeNo  = "NO"
)

// Synthetic node ids bounding every graph.
const (
	StartNodeID = "start"
	EndNodeID   = "end"
)

// FlowNode is one distinct (kind, line) visited by a trace.
type FlowNode struct {
	ID    string   `json:"id"`
	Kind  StepKind `json:"kind"`
	Line  int      `json:"line"`
	Label string   `json:"label"`
}

// FlowEdge connects two nodes.
type FlowEdge struct {
	Source     string `json:"source"`
	Target     string `json:"target"`
	Label      string `json:"label"`
	IsLoopBack bool   `json:"isLoopBack"`
}

// FlowGraph is the deduplicated control-flow graph of a trace.
type FlowGraph struct {
	Nodes []FlowNode `json:"nodes"`
	Edges []FlowEdge `json:"edges"`
}

// Node returns the node with the given id.
func (g FlowGraph) Node(id string) (FlowNode, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return FlowNode{}, false
}

// NodeFor returns the node a step maps onto, if any.
func (g FlowGraph) NodeFor(s Step) (FlowNode, bool) {
	switch s.Kind {
	case KindStart:
		return g.Node(StartNodeID)
	case KindEnd:
		return g.Node(EndNodeID)
	}
	for _, n := range g.Nodes {
		if n.Kind == s.Kind && n.Line == s.Line && n.ID != StartNodeID && n.ID != EndNodeID {
			return n, true
		}
	}
	return FlowNode{}, false
}
