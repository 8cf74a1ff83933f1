package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLoopClosed is returned when work is submitted to a stopped loop
var ErrLoopClosed = errors.New("loop: closed")

// maxIdle bounds how long the loop sleeps with no timers queued
const maxIdle = time.Second

// Loop drives a Scheduler in real time from a single goroutine. Work from
// other goroutines is funneled in through Do and Post, so everything that
// touches the scheduler (and the state its handlers own) runs serialized on
// the loop goroutine.
type Loop struct {
	sched *Scheduler
	start time.Time
	cmds  chan func()

	quit      chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// NewLoop creates a loop around a fresh scheduler. The scheduler clock
// counts ticks since the loop was created.
func NewLoop() *Loop {
	return &Loop{
		sched: NewScheduler(),
		start: time.Now(),
		cmds:  make(chan func(), 64),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Scheduler returns the loop's scheduler. Only use it from the loop
// goroutine (inside Do/Post callbacks or timer handlers).
func (l *Loop) Scheduler() *Scheduler {
	return l.sched
}

// Now returns the real-time clock in ticks
func (l *Loop) Now() uint64 {
	return TimerFromDuration(time.Since(l.start))
}

// Run dispatches timers and submitted work until ctx is cancelled or Close
// is called. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)

	wait := time.NewTimer(maxIdle)
	defer wait.Stop()

	for {
		l.sched.Dispatch(l.Now())

		delay := maxIdle
		if wake, ok := l.sched.NextWake(); ok {
			now := l.Now()
			if wake <= now {
				delay = 0
			} else if d := TimerToDuration(wake - now); d < delay {
				delay = d
			}
		}

		if delay == 0 {
			// Timers are due: only take work that is already waiting
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.quit:
				return nil
			case fn := <-l.cmds:
				l.exec(fn)
			default:
			}
			continue
		}

		wait.Reset(delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.quit:
			return nil
		case fn := <-l.cmds:
			l.exec(fn)
		case <-wait.C:
		}
	}
}

// exec runs submitted work with the scheduler clock caught up to real
// time. Timers it schedules from Now() start from the present.
func (l *Loop) exec(fn func()) {
	l.sched.Dispatch(l.Now())
	fn()
}

// Do runs fn on the loop goroutine and waits for it to return. It must not
// be called from the loop goroutine itself.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.quit:
		return ErrLoopClosed
	case <-l.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopClosed
		}
	}
}

// Post queues fn to run on the loop goroutine without waiting
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.quit:
		return ErrLoopClosed
	case <-l.done:
		return ErrLoopClosed
	default:
	}
	select {
	case l.cmds <- fn:
		return nil
	case <-l.quit:
		return ErrLoopClosed
	case <-l.done:
		return ErrLoopClosed
	}
}

// Close stops the loop. It is safe to call more than once.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.quit)
	})
}

// Done is closed once Run has returned
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
