package domain

import (
	"encoding/json"
)

// StepKind classifies a recorded event.
type StepKind string

const (
	KindStart         StepKind = "start"
	KindEnd           StepKind = "end"
	KindVarDecl       StepKind = "var-decl"
	KindAssignment    StepKind = "assignment"
	KindLoopCondition StepKind = "loop-condition"
	KindCondition     StepKind = "condition"
	KindLoopUpdate    StepKind = "loop-update"
	KindOutput        StepKind = "output"
	KindFuncDecl      StepKind = "func-decl"
	KindReturn        StepKind = "return"
	KindBreak         StepKind = "break"
	KindContinue      StepKind = "continue"
	KindError         StepKind = "error"
	KindStatement     StepKind = "statement"
)

// IsBranch reports whether steps of this kind carry a branch outcome.
func (k StepKind) IsBranch() bool {
	return k == KindCondition || k == KindLoopCondition
}

// LoopState describes the loop iteration a step belongs to.
type LoopState struct {
	IterationCount  int  `json:"iterationCount" msgpack:"iteration_count"`
	ConditionResult bool `json:"conditionResult" msgpack:"condition_result"`
}

// Step is one recorded program event. It is immutable once created.
type Step struct {
	// Line is the 1-based source line, or 0 when the event has no line.
	Line        int
	Kind        StepKind
	Description string
	Snapshot    Snapshot
	LoopState   *LoopState
	// ConditionResult is set for condition and loop-condition steps.
	ConditionResult *bool
	// Error is empty unless the step records a failure.
	Error string
}

// Bool returns a pointer to b, for ConditionResult.
func Bool(b bool) *bool { return &b }

type stepJSON struct {
	Line            int             `json:"line"`
	Kind            StepKind        `json:"kind"`
	Description     string          `json:"description"`
	Variables       json.RawMessage `json:"variables"`
	Output          []string        `json:"output"`
	StackFrames     []string        `json:"stackFrames"`
	LoopState       *LoopState      `json:"loopState"`
	ConditionResult *bool           `json:"conditionResult"`
	Error           *string         `json:"error"`
}

// MarshalJSON encodes the step in its wire form. Variables are emitted with
// sorted keys so equal steps always encode to equal bytes.
func (s Step) MarshalJSON() ([]byte, error) {
	out := stepJSON{
		Line:            s.Line,
		Kind:            s.Kind,
		Description:     s.Description,
		Variables:       s.Snapshot.AppendVariablesJSON(nil),
		Output:          s.Snapshot.Output(),
		StackFrames:     s.Snapshot.StackFrames(),
		LoopState:       s.LoopState,
		ConditionResult: s.ConditionResult,
	}
	if s.Error != "" {
		out.Error = &s.Error
	}
	return json.Marshal(out)
}
