package protocol

import (
	"encoding/json"

	"github.com/codeflow-dev/codeflow/pkg/domain"
)

// Message is an outbound message.
type Message interface {
	MessageType() Type
}

// Ready announces a materialized trace.
type Ready struct {
	TotalSteps int              `json:"totalSteps"`
	FlowGraph  domain.FlowGraph `json:"flowGraph"`
	IsStatic   bool             `json:"isStatic"`
	Note       string           `json:"note"`
}

// Step delivers one step of the trace.
type Step struct {
	Step       domain.Step      `json:"step"`
	StepIndex  int              `json:"stepIndex"`
	TotalSteps int              `json:"totalSteps"`
	FlowGraph  domain.FlowGraph `json:"flowGraph"`
}

// Done reports that playback reached the end of the trace.
type Done struct {
	TotalSteps int `json:"totalSteps"`
}

// Paused reports the cursor at which auto-play stopped.
type Paused struct {
	StepIndex int `json:"stepIndex"`
}

// ResetOK acknowledges RESET.
type ResetOK struct{}

// Error reports a rejected command or a failed run.
type Error struct {
	Error string `json:"error"`
}

func (Ready) MessageType() Type   { return TypeReady }
func (Step) MessageType() Type    { return TypeStep }
func (Done) MessageType() Type    { return TypeDone }
func (Paused) MessageType() Type  { return TypePaused }
func (ResetOK) MessageType() Type { return TypeResetOK }
func (Error) MessageType() Type   { return TypeError }

// Encode renders m as a JSON object with its type first.
func Encode(m Message) ([]byte, error) {
	body, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	head, err := json.Marshal(map[string]Type{"type": m.MessageType()})
	if err != nil {
		return nil, err
	}
	if len(body) <= 2 {
		return head, nil
	}
	out := make([]byte, 0, len(head)+len(body))
	out = append(out, head[:len(head)-1]...)
	out = append(out, ',')
	return append(out, body[1:]...), nil
}
