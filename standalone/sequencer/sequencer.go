package sequencer

import (
	"errors"

	"plasmacut/core"
	"plasmacut/standalone/kinematics"
	"plasmacut/standalone/motion"
	"plasmacut/standalone/stepgen"
)

// Config holds the sequencer timing and hooks
type Config struct {
	Cadence    uint64 // Ticks between path points
	StepPeriod uint64 // Ticks per step phase
	Gate       stepgen.Gate
	Observer   motion.Observer
	OnEnd      func() // Called from the tick that finds the path exhausted
}

// Sequencer walks a Path one point per cadence tick, turning each segment
// into one burst per axis. Bursts are not awaited: a tick never waits for
// the previous tick's bursts to finish.
type Sequencer struct {
	sched *core.Scheduler
	kin   *kinematics.Cartesian
	axes  [motion.NumAxes]*stepgen.Axis
	cfg   Config

	timer  core.Timer
	path   motion.Path
	cursor int
}

// New creates a sequencer driving axes on sched
func New(sched *core.Scheduler, kin *kinematics.Cartesian, axes [motion.NumAxes]*stepgen.Axis, cfg Config) (*Sequencer, error) {
	if cfg.Cadence == 0 || cfg.StepPeriod == 0 {
		return nil, errors.New("sequencer: cadence and step period must be non-zero")
	}
	for _, axis := range axes {
		if axis == nil {
			return nil, errors.New("sequencer: missing axis")
		}
	}
	if cfg.Observer == nil {
		cfg.Observer = motion.Nop
	}
	s := &Sequencer{
		sched: sched,
		kin:   kin,
		axes:  axes,
		cfg:   cfg,
	}
	s.timer.Handler = s.tick
	return s, nil
}

// Load installs a new path and rewinds the cursor. A running cadence is
// stopped.
func (s *Sequencer) Load(path motion.Path) {
	s.Stop()
	s.path = append(motion.Path(nil), path...)
	s.cursor = 0
}

// Start begins (or resumes) the cadence. The first tick fires one cadence
// period from now.
func (s *Sequencer) Start() {
	s.timer.WakeTime = s.sched.Now() + s.cfg.Cadence
	s.sched.Schedule(&s.timer)
}

// Stop cancels the cadence. Bursts already issued are left alone.
func (s *Sequencer) Stop() {
	s.sched.Cancel(&s.timer)
}

// Running reports whether the cadence is active
func (s *Sequencer) Running() bool {
	return s.sched.Pending(&s.timer)
}

// Cursor returns the index of the next point to visit
func (s *Sequencer) Cursor() int {
	return s.cursor
}

// Len returns the number of points in the loaded path
func (s *Sequencer) Len() int {
	return len(s.path)
}

// Position returns the last point dispatched, or the origin
func (s *Sequencer) Position() motion.Point {
	if s.cursor == 0 {
		return motion.Point{}
	}
	return s.path[s.cursor-1]
}

func (s *Sequencer) tick(timer *core.Timer) uint8 {
	if s.cfg.Gate != nil && !s.cfg.Gate() {
		return core.SF_DONE
	}

	if s.cursor >= len(s.path) {
		s.cfg.Observer.Notify(motion.Event{Kind: motion.EventEndOfPath, Time: s.sched.Now(), Count: len(s.path)})
		if s.cfg.OnEnd != nil {
			s.cfg.OnEnd()
		}
		return core.SF_DONE
	}

	target := s.path[s.cursor]
	moves := s.kin.Move(s.Position(), target)
	for i, axis := range s.axes {
		// Busy and line faults are reported by the axis itself
		_ = axis.Pulse(stepgen.Burst{
			Direction: moves[i].Direction,
			Steps:     moves[i].Steps,
			Period:    s.cfg.StepPeriod,
			Gate:      s.cfg.Gate,
		})
	}
	s.cursor++
	s.cfg.Observer.Notify(motion.Event{Kind: motion.EventPosition, Time: s.sched.Now(), Point: target})

	timer.WakeTime += s.cfg.Cadence
	return core.SF_RESCHEDULE
}
