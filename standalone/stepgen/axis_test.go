package stepgen

import (
	"errors"
	"testing"

	"plasmacut/core"
	"plasmacut/standalone/motion"
)

const (
	stepPin   = core.GPIOPin(13)
	dirPin    = core.GPIOPin(6)
	enablePin = core.GPIOPin(5)
)

type recorder struct {
	events []motion.Event
}

func (r *recorder) Notify(ev motion.Event) {
	r.events = append(r.events, ev)
}

func (r *recorder) count(kind motion.EventKind) int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func newTestAxis(t *testing.T, opts ...Option) (*Axis, *core.MemoryGPIO, *core.Scheduler) {
	t.Helper()
	sched := core.NewScheduler()
	gpio := core.NewMemoryGPIO()
	gpio.SetClock(sched.Now)

	step, err := core.NewDigitalOut(gpio, "x.step", stepPin, false, false)
	if err != nil {
		t.Fatalf("NewDigitalOut failed: %v", err)
	}
	dir, err := core.NewDigitalOut(gpio, "x.dir", dirPin, false, false)
	if err != nil {
		t.Fatalf("NewDigitalOut failed: %v", err)
	}
	enable, err := core.NewDigitalOut(gpio, "x.enable", enablePin, true, false)
	if err != nil {
		t.Fatalf("NewDigitalOut failed: %v", err)
	}

	axis, err := NewAxis(motion.AxisX, sched, Lines{Step: step, Dir: dir, Enable: enable}, opts...)
	if err != nil {
		t.Fatalf("NewAxis failed: %v", err)
	}
	gpio.ClearEvents()
	return axis, gpio, sched
}

func TestZeroBurstIsNoop(t *testing.T) {
	axis, gpio, sched := newTestAxis(t)

	if err := axis.Pulse(Burst{Direction: motion.Reverse, Steps: 0, Period: 1000}); err != nil {
		t.Fatalf("Pulse failed: %v", err)
	}
	sched.RunUntilIdle(1 << 32)

	if n := len(gpio.Events(stepPin)); n != 0 {
		t.Errorf("Expected no step writes, got %d", n)
	}
	if n := len(gpio.Events(dirPin)); n != 0 {
		t.Errorf("Expected no direction writes, got %d", n)
	}
	if axis.Busy() {
		t.Error("Zero burst must not leave the axis busy")
	}
}

func TestBurstTiming(t *testing.T) {
	axis, gpio, sched := newTestAxis(t)

	if err := axis.Pulse(Burst{Direction: motion.Forward, Steps: 3, Period: 1000}); err != nil {
		t.Fatalf("Pulse failed: %v", err)
	}
	if !axis.Busy() {
		t.Fatal("Expected axis busy right after Pulse")
	}
	sched.RunUntilIdle(1 << 32)

	events := gpio.Events(stepPin)
	expected := []core.PinEvent{
		{Pin: stepPin, Value: true, Time: 0},
		{Pin: stepPin, Value: false, Time: 1000},
		{Pin: stepPin, Value: true, Time: 2000},
		{Pin: stepPin, Value: false, Time: 3000},
		{Pin: stepPin, Value: true, Time: 4000},
		{Pin: stepPin, Value: false, Time: 5000},
	}
	if len(events) != len(expected) {
		t.Fatalf("Expected %d step writes, got %+v", len(expected), events)
	}
	for i := range expected {
		if events[i] != expected[i] {
			t.Errorf("Write %d: expected %+v, got %+v", i, expected[i], events[i])
		}
	}

	dir := gpio.Events(dirPin)
	if len(dir) != 1 || !dir[0].Value || dir[0].Time != 0 {
		t.Errorf("Expected direction latched high once at 0, got %+v", dir)
	}
	if axis.Position() != 3 || axis.Pulses() != 3 {
		t.Errorf("Expected position 3 and 3 pulses, got %d/%d", axis.Position(), axis.Pulses())
	}
	if axis.Busy() {
		t.Error("Axis still busy after burst")
	}
}

func TestReverseBurst(t *testing.T) {
	axis, gpio, sched := newTestAxis(t)

	_ = axis.Pulse(Burst{Direction: motion.Reverse, Steps: 4, Period: 500})
	sched.RunUntilIdle(1 << 32)

	if level, _ := gpio.GetPin(dirPin); level {
		t.Error("Expected direction line low for reverse burst")
	}
	if n := gpio.RisingEdges(stepPin); n != 4 {
		t.Errorf("Expected 4 pulses, got %d", n)
	}
	if axis.Position() != -4 {
		t.Errorf("Expected position -4, got %d", axis.Position())
	}
}

func TestSupersedeMidPulse(t *testing.T) {
	rec := &recorder{}
	axis, gpio, sched := newTestAxis(t, WithObserver(rec))

	_ = axis.Pulse(Burst{Direction: motion.Forward, Steps: 5, Period: 1000})
	sched.Advance(2500) // two rises issued, line high until 3000

	if err := axis.Pulse(Burst{Direction: motion.Reverse, Steps: 2, Period: 1000}); err != nil {
		t.Fatalf("Superseding Pulse failed: %v", err)
	}
	if axis.Remaining() != 2 {
		t.Errorf("Expected remaining reset to 2, got %d", axis.Remaining())
	}
	sched.RunUntilIdle(1 << 32)

	if n := gpio.RisingEdges(stepPin); n != 4 {
		t.Errorf("Expected 2+2 pulses, got %d", n)
	}
	if axis.Position() != 0 {
		t.Errorf("Expected net position 0, got %d", axis.Position())
	}

	// Direction only flips once the step line is low again
	dir := gpio.Events(dirPin)
	if len(dir) != 2 || dir[1].Value || dir[1].Time != 3000 {
		t.Errorf("Expected direction to drop at 3000, got %+v", dir)
	}
	if rec.count(motion.EventAxisBusy) != 1 {
		t.Errorf("Expected one AxisBusy event, got %d", rec.count(motion.EventAxisBusy))
	}
	if rec.count(motion.EventBurstStarted) != 2 {
		t.Errorf("Expected two BurstStarted events, got %d", rec.count(motion.EventBurstStarted))
	}
}

func TestSupersedeBetweenPulses(t *testing.T) {
	axis, gpio, sched := newTestAxis(t)

	_ = axis.Pulse(Burst{Direction: motion.Forward, Steps: 5, Period: 1000})
	sched.Advance(1500) // line low, next rise due at 2000

	_ = axis.Pulse(Burst{Direction: motion.Forward, Steps: 1, Period: 1000})
	sched.RunUntilIdle(1 << 32)

	if n := gpio.RisingEdges(stepPin); n != 2 {
		t.Errorf("Expected 1+1 pulses, got %d", n)
	}
	events := gpio.Events(stepPin)
	if events[2].Time != 1500 || !events[2].Value {
		t.Errorf("Expected new burst to rise immediately at 1500, got %+v", events[2])
	}
}

func TestRejectPolicy(t *testing.T) {
	rec := &recorder{}
	axis, gpio, sched := newTestAxis(t, WithPolicy(Reject), WithObserver(rec))

	_ = axis.Pulse(Burst{Direction: motion.Forward, Steps: 5, Period: 1000})
	sched.Advance(1500)

	err := axis.Pulse(Burst{Direction: motion.Reverse, Steps: 2, Period: 1000})
	if !errors.Is(err, ErrAxisBusy) {
		t.Fatalf("Expected ErrAxisBusy, got %v", err)
	}
	sched.RunUntilIdle(1 << 32)

	if n := gpio.RisingEdges(stepPin); n != 5 {
		t.Errorf("Expected original burst to finish with 5 pulses, got %d", n)
	}
	if axis.Direction() != motion.Forward {
		t.Error("Rejected burst must not change direction")
	}
	if rec.count(motion.EventAxisBusy) != 1 {
		t.Errorf("Expected one AxisBusy event, got %d", rec.count(motion.EventAxisBusy))
	}

	// Idle axis accepts again
	if err := axis.Pulse(Burst{Direction: motion.Reverse, Steps: 1, Period: 1000}); err != nil {
		t.Errorf("Expected idle axis to accept burst, got %v", err)
	}
}

func TestGateAbandonsBurst(t *testing.T) {
	axis, gpio, sched := newTestAxis(t)

	open := true
	_ = axis.Pulse(Burst{Direction: motion.Forward, Steps: 5, Period: 1000, Gate: func() bool { return open }})
	sched.Advance(2500)

	open = false
	sched.RunUntilIdle(1 << 32)

	if n := gpio.RisingEdges(stepPin); n != 2 {
		t.Errorf("Expected 2 pulses before the gate closed, got %d", n)
	}
	if level, _ := gpio.GetPin(stepPin); level {
		t.Error("Expected step line low after abandon")
	}
	if axis.Busy() || axis.Remaining() != 0 {
		t.Errorf("Expected idle axis, busy=%v remaining=%d", axis.Busy(), axis.Remaining())
	}

	err := axis.Pulse(Burst{Steps: 1, Period: 1000, Gate: func() bool { return false }})
	if !errors.Is(err, ErrGateClosed) {
		t.Errorf("Expected ErrGateClosed, got %v", err)
	}
}

func TestAbandonMidPulse(t *testing.T) {
	axis, gpio, sched := newTestAxis(t)

	_ = axis.Pulse(Burst{Direction: motion.Forward, Steps: 10, Period: 1000})
	sched.Advance(500)

	if left := axis.Abandon(); left != 9 {
		t.Errorf("Expected 9 abandoned steps, got %d", left)
	}
	if level, _ := gpio.GetPin(stepPin); level {
		t.Error("Expected step line lowered by Abandon")
	}
	if sched.Len() != 0 {
		t.Errorf("Expected no queued timers, got %d", sched.Len())
	}
}

func TestEnableLine(t *testing.T) {
	axis, gpio, _ := newTestAxis(t)

	if axis.Enabled() {
		t.Error("Expected axis to start disabled")
	}
	if err := axis.Enable(true); err != nil {
		t.Fatalf("Enable failed: %v", err)
	}
	// Active-low enable
	if level, _ := gpio.GetPin(enablePin); level {
		t.Error("Expected enable pin low when enabled")
	}
	if !axis.Enabled() {
		t.Error("Expected axis enabled")
	}
}

func TestParsePolicy(t *testing.T) {
	if p, err := ParsePolicy("reject"); err != nil || p != Reject {
		t.Errorf("Expected Reject, got %v (%v)", p, err)
	}
	if p, err := ParsePolicy(""); err != nil || p != Supersede {
		t.Errorf("Expected Supersede default, got %v (%v)", p, err)
	}
	if _, err := ParsePolicy("queue"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}
