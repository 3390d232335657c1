package domain

// Phase is the playback state of a session.
type Phase string

const (
	PhaseIdle    Phase = "IDLE"
	PhaseReady   Phase = "READY"
	PhasePlaying Phase = "PLAYING"
	PhasePaused  Phase = "PAUSED"
	PhaseDone    Phase = "DONE"
)

// Source is a request to trace a program.
type Source struct {
	Code     string   `json:"code"`
	Inputs   []string `json:"inputs,omitempty"`
	Language string   `json:"language"`
}
