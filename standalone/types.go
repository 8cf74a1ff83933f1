package standalone

import (
	"errors"
	"fmt"

	"plasmacut/standalone/motion"
)

// RunState is the operating state of the machine
type RunState uint8

const (
	Ready RunState = iota
	Running
	Paused
	Stopped
	Emergency
)

var runStateNames = [...]string{
	Ready:     "ready",
	Running:   "running",
	Paused:    "paused",
	Stopped:   "stopped",
	Emergency: "emergency",
}

func (s RunState) String() string {
	if int(s) < len(runStateNames) {
		return runStateNames[s]
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// ErrInvalidTransition is matched by every TransitionError
var ErrInvalidTransition = errors.New("invalid state transition")

// ErrJogRange is returned for a jog count that does not fit one burst
var ErrJogRange = errors.New("jog step count out of range")

// TransitionError reports an operator command that is not allowed in the
// current state. The command is ignored.
type TransitionError struct {
	From    RunState
	Command string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s not allowed while %s", e.Command, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// AxisStatus is a snapshot of one axis
type AxisStatus struct {
	Steps     int64   // Net steps issued
	CM        float64 // Steps converted to travel
	Busy      bool
	Remaining uint32
	Enabled   bool
}

// Status is a snapshot of the machine
type Status struct {
	State    RunState
	Position motion.Point // Last path point dispatched
	Z        float64      // Torch height, fixed
	Cursor   int
	Points   int
	Relay    bool
	Axes     [motion.NumAxes]AxisStatus
}
