package stepgen

import (
	"errors"
	"fmt"

	"plasmacut/core"
	"plasmacut/standalone/motion"
)

// ErrAxisBusy is returned by Pulse under the Reject policy while a burst
// is still running on the axis
var ErrAxisBusy = errors.New("stepgen: axis busy")

// ErrGateClosed is returned by Pulse when the burst's gate is already closed
var ErrGateClosed = errors.New("stepgen: burst gate closed")

// Policy decides what happens to a burst requested while another one is
// still running on the same axis
type Policy uint8

const (
	Supersede Policy = iota // Replace the remaining steps of the running burst
	Reject                  // Keep the running burst and fail the request
)

// ParsePolicy maps a config name ("supersede", "reject") to a Policy
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "", "supersede":
		return Supersede, nil
	case "reject":
		return Reject, nil
	}
	return 0, fmt.Errorf("stepgen: unknown policy %q", name)
}

func (p Policy) String() string {
	if p == Reject {
		return "reject"
	}
	return "supersede"
}

// Gate is checked before every step-line rise. A burst whose gate closes
// is abandoned. A nil Gate is always open.
type Gate func() bool

// Burst is one train of step pulses on a single axis
type Burst struct {
	Direction motion.Direction
	Steps     uint32
	Period    uint64 // Ticks per phase (high time, then low time)
	Gate      Gate
}

// Lines are the output lines of one axis. Enable is optional.
type Lines struct {
	Step   *core.DigitalOut
	Dir    *core.DigitalOut
	Enable *core.DigitalOut
}

// Option configures an Axis
type Option func(*Axis)

// WithPolicy sets the overlap policy (default Supersede)
func WithPolicy(p Policy) Option {
	return func(a *Axis) {
		a.policy = p
	}
}

// WithObserver sets the observer receiving burst and fault events
func WithObserver(obs motion.Observer) Option {
	return func(a *Axis) {
		a.observer = obs
	}
}

// Axis emits timed step pulse trains on one axis. The direction line is
// latched before the first rise of a burst and held until the burst ends;
// pulses within the axis are strictly sequential.
//
// An Axis is driven from the goroutine that owns its scheduler.
type Axis struct {
	id       motion.Axis
	sched    *core.Scheduler
	lines    Lines
	policy   Policy
	observer motion.Observer

	timer     core.Timer
	remaining uint32 // Rises not yet issued in the current burst
	high      bool   // Step line is mid-pulse
	period    uint64
	gate      Gate
	direction motion.Direction
	redirect  bool // A superseding burst is waiting for the line to drop

	position int64  // Net steps issued
	pulses   uint64 // Rises issued since creation
}

// NewAxis creates an axis driving lines on sched
func NewAxis(id motion.Axis, sched *core.Scheduler, lines Lines, opts ...Option) (*Axis, error) {
	if lines.Step == nil || lines.Dir == nil {
		return nil, fmt.Errorf("stepgen: %s axis needs step and dir lines", id)
	}
	a := &Axis{
		id:       id,
		sched:    sched,
		lines:    lines,
		observer: motion.Nop,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.timer.Handler = a.stepHandler
	return a, nil
}

// ID returns the axis identifier
func (a *Axis) ID() motion.Axis {
	return a.id
}

// Pulse starts a burst without blocking. A zero-step burst does nothing,
// not even latching the direction.
func (a *Axis) Pulse(b Burst) error {
	if b.Steps == 0 {
		return nil
	}
	if b.Period == 0 {
		return fmt.Errorf("stepgen: %s axis burst with zero period", a.id)
	}
	if b.Gate != nil && !b.Gate() {
		return ErrGateClosed
	}

	if a.Busy() {
		a.notify(motion.Event{Kind: motion.EventAxisBusy, Steps: int(a.remaining)})
		if a.policy == Reject {
			return ErrAxisBusy
		}
	}

	a.remaining = b.Steps
	a.period = b.Period
	a.gate = b.Gate
	a.direction = b.Direction
	a.notify(motion.Event{Kind: motion.EventBurstStarted, Direction: b.Direction, Steps: int(b.Steps)})

	if a.high {
		// Mid-pulse: the pending fall latches the new direction
		a.redirect = true
		return nil
	}

	a.sched.Cancel(&a.timer)
	if err := a.lines.Dir.Set(b.Direction.Level()); err != nil {
		a.fault(err)
		return err
	}
	a.timer.WakeTime = a.sched.Now()
	a.timer.Handler = a.stepHandler
	if a.stepHandler(&a.timer) == core.SF_RESCHEDULE {
		a.sched.Schedule(&a.timer)
	}
	return nil
}

// stepHandler raises the step line
func (a *Axis) stepHandler(timer *core.Timer) uint8 {
	if a.gate != nil && !a.gate() {
		a.Abandon()
		return core.SF_DONE
	}
	if err := a.lines.Step.Set(true); err != nil {
		a.fault(err)
		return core.SF_DONE
	}
	a.high = true
	a.remaining--
	a.pulses++
	if a.direction == motion.Forward {
		a.position++
	} else {
		a.position--
	}

	timer.WakeTime += a.period
	timer.Handler = a.stepDownHandler
	return core.SF_RESCHEDULE
}

// stepDownHandler lowers the step line and schedules the next rise
func (a *Axis) stepDownHandler(timer *core.Timer) uint8 {
	a.high = false
	if err := a.lines.Step.Set(false); err != nil {
		a.fault(err)
		return core.SF_DONE
	}
	if a.remaining == 0 {
		a.redirect = false
		return core.SF_DONE
	}

	if a.redirect {
		a.redirect = false
		if err := a.lines.Dir.Set(a.direction.Level()); err != nil {
			a.fault(err)
			return core.SF_DONE
		}
	}

	timer.WakeTime += a.period
	timer.Handler = a.stepHandler
	return core.SF_RESCHEDULE
}

// Abandon drops the running burst and lowers the step line. It returns the
// number of rises that will not be issued.
func (a *Axis) Abandon() uint32 {
	left := a.remaining
	a.sched.Cancel(&a.timer)
	a.remaining = 0
	a.redirect = false
	if a.high {
		a.high = false
		if err := a.lines.Step.Set(false); err != nil {
			a.notify(motion.Event{Kind: motion.EventLineFault, Err: err})
		}
	}
	return left
}

// fault abandons the burst after a failed line write
func (a *Axis) fault(err error) {
	a.notify(motion.Event{Kind: motion.EventLineFault, Err: fmt.Errorf("%s axis: %w", a.id, err)})
	a.Abandon()
}

// Busy reports whether a burst is in progress
func (a *Axis) Busy() bool {
	return a.sched.Pending(&a.timer)
}

// Remaining returns the rises not yet issued in the current burst
func (a *Axis) Remaining() uint32 {
	return a.remaining
}

// Position returns the net number of steps issued
func (a *Axis) Position() int64 {
	return a.position
}

// Pulses returns the number of rises issued since creation
func (a *Axis) Pulses() uint64 {
	return a.pulses
}

// Direction returns the direction of the current or last burst
func (a *Axis) Direction() motion.Direction {
	return a.direction
}

// Enable drives the axis enable line, if there is one
func (a *Axis) Enable(on bool) error {
	if a.lines.Enable == nil {
		return nil
	}
	return a.lines.Enable.Set(on)
}

// Enabled reports the logical state of the enable line. Axes without an
// enable line are always enabled.
func (a *Axis) Enabled() bool {
	return a.lines.Enable == nil || a.lines.Enable.IsOn()
}

func (a *Axis) notify(ev motion.Event) {
	ev.Axis = a.id
	ev.Time = a.sched.Now()
	a.observer.Notify(ev)
}
