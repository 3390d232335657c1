// Package protocol defines the messages exchanged with a playback session
// over a persistent connection. Every message is a JSON object whose "type"
// field selects its shape.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"fortio.org/safecast"
	"github.com/mitchellh/mapstructure"
)

// Type is the discriminator of a message.
type Type string

// Inbound message types.
const (
	TypeRun         Type = "RUN"
	TypeStepForward Type = "STEP_FORWARD"
	TypeStepBack    Type = "STEP_BACK"
	TypeJump        Type = "JUMP"
	TypePause       Type = "PAUSE"
	TypeResume      Type = "RESUME"
	TypeReset       Type = "RESET"
)

// Outbound message types.
const (
	TypeReady   Type = "READY"
	TypeStep    Type = "STEP"
	TypeDone    Type = "DONE"
	TypePaused  Type = "PAUSED"
	TypeResetOK Type = "RESET_OK"
	TypeError   Type = "ERROR"
)

var inbound = map[Type]bool{
	TypeRun:         true,
	TypeStepForward: true,
	TypeStepBack:    true,
	TypeJump:        true,
	TypePause:       true,
	TypeResume:      true,
	TypeReset:       true,
}

// ErrMalformed is returned for messages that cannot be decoded. Sessions
// drop such messages without replying.
var ErrMalformed = errors.New("malformed message")

// Command is a decoded inbound message. Fields not used by Type are zero.
type Command struct {
	Type     Type     `mapstructure:"type"`
	Code     string   `mapstructure:"code"`
	Inputs   []string `mapstructure:"inputs"`
	Language string   `mapstructure:"language"`
	// Speed is the auto-play interval in milliseconds; 0 means default.
	Speed int `mapstructure:"-"`
	Index int `mapstructure:"-"`
}

type rawCommand struct {
	Command `mapstructure:",squash"`
	Speed   float64 `mapstructure:"speed"`
	Index   float64 `mapstructure:"index"`
}

// Decode parses one inbound frame.
func Decode(data []byte) (Command, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var raw rawCommand
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err != nil {
		return Command{}, err
	}
	if err := dec.Decode(fields); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if !inbound[raw.Type] {
		return Command{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, raw.Type)
	}

	cmd := raw.Command
	cmd.Speed = toInt(raw.Speed)
	cmd.Index = toInt(raw.Index)
	return cmd, nil
}

// toInt truncates f and saturates it to the int32 range.
func toInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f > math.MaxInt32:
		f = math.MaxInt32
	case f < math.MinInt32:
		f = math.MinInt32
	}
	i, err := safecast.Truncate[int](f)
	if err != nil {
		return 0
	}
	return i
}
