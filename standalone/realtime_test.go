package standalone

import (
	"context"
	"testing"
	"time"

	"plasmacut/core"
	"plasmacut/standalone/config"
	"plasmacut/standalone/motion"
)

type liveFixture struct {
	loop *core.Loop
	gpio *core.MemoryGPIO
	ctrl *Controller
}

// newLiveFixture runs a controller on a real-time loop whose pin log is
// stamped with wall-clock ticks
func newLiveFixture(t *testing.T, cfg *config.MachineConfig) *liveFixture {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	f := &liveFixture{loop: core.NewLoop(), gpio: core.NewMemoryGPIO()}
	f.gpio.SetClock(f.loop.Now)
	go func() { _ = f.loop.Run(ctx) }()
	t.Cleanup(f.loop.Close)

	var err error
	if doErr := f.loop.Do(func() {
		f.ctrl, err = NewController(cfg, f.loop.Scheduler(), f.gpio)
	}); doErr != nil {
		t.Fatalf("Do failed: %v", doErr)
	}
	if err != nil {
		t.Fatalf("NewController failed: %v", err)
	}
	f.gpio.ClearEvents()
	return f
}

func (f *liveFixture) do(t *testing.T, fn func() error) {
	t.Helper()
	var err error
	if doErr := f.loop.Do(func() { err = fn() }); doErr != nil {
		t.Fatalf("Do failed: %v", doErr)
	}
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
}

func (f *liveFixture) status(t *testing.T) Status {
	t.Helper()
	var st Status
	f.do(t, func() error { st = f.ctrl.Status(); return nil })
	return st
}

func TestJogAfterIdleKeepsPulseWidth(t *testing.T) {
	cfg := config.DefaultPlasmaConfig()
	cfg.StepPeriodUS = 5000
	f := newLiveFixture(t, cfg)

	time.Sleep(300 * time.Millisecond) // loop idles with nothing queued
	f.do(t, func() error { return f.ctrl.Jog(motion.AxisX, 5) })

	deadline := time.Now().Add(5 * time.Second)
	for f.status(t).Axes[motion.AxisX].Busy {
		if time.Now().After(deadline) {
			t.Fatal("Jog never finished")
		}
		time.Sleep(5 * time.Millisecond)
	}

	events := f.gpio.Events(xStep)
	if len(events) != 10 {
		t.Fatalf("Expected 10 step writes, got %d", len(events))
	}
	// Ten edges one period apart span nine periods
	spread := events[len(events)-1].Time - events[0].Time
	if spread < 9*5000*2/3 {
		t.Errorf("Expected step edges spread over ~45ms, got %dus", spread)
	}
}

func TestStartAfterIdleKeepsCadence(t *testing.T) {
	f := newLiveFixture(t, config.DefaultPlasmaConfig())

	path := motion.Path{}
	for i := 0; i < 20; i++ {
		path = append(path, motion.Point{X: float64(i) * 0.01, Y: 0})
	}
	f.do(t, func() error { return f.ctrl.Load(path) })

	time.Sleep(400 * time.Millisecond)
	f.do(t, f.ctrl.Start)
	time.Sleep(150 * time.Millisecond)

	if c := f.status(t).Cursor; c < 1 || c > 2 {
		t.Errorf("Expected one point dispatched 150ms after start, cursor at %d", c)
	}
}
