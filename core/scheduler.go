package core

// Timer represents a scheduled event
type Timer struct {
	WakeTime uint64
	Handler  func(*Timer) uint8

	next   *Timer
	queued bool
}

// Handler results
const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps timers sorted by WakeTime and fires them as its clock
// advances. Handlers run on the goroutine that calls Dispatch and see Now()
// equal to their own WakeTime, so a handler that reschedules itself at
// WakeTime+period keeps an exact cadence even when dispatch runs late.
//
// A Scheduler is not safe for concurrent use. Exactly one goroutine owns it,
// normally the one running a Loop.
type Scheduler struct {
	timerList *Timer
	now       uint64
}

// NewScheduler creates an empty scheduler with its clock at zero
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Now returns the scheduler clock in ticks
func (s *Scheduler) Now() uint64 {
	return s.now
}

// Schedule adds a timer to the schedule. A timer that is already queued is
// moved to its new WakeTime.
func (s *Scheduler) Schedule(t *Timer) {
	if t.queued {
		s.remove(t)
	}
	s.insertTimer(t)
}

// Cancel removes a queued timer. It reports whether the timer was queued.
func (s *Scheduler) Cancel(t *Timer) bool {
	if !t.queued {
		return false
	}
	s.remove(t)
	return true
}

// Pending reports whether the timer is waiting to fire
func (s *Scheduler) Pending(t *Timer) bool {
	return t.queued
}

// Len returns the number of queued timers
func (s *Scheduler) Len() int {
	n := 0
	for t := s.timerList; t != nil; t = t.next {
		n++
	}
	return n
}

// NextWake returns the WakeTime of the earliest queued timer
func (s *Scheduler) NextWake() (uint64, bool) {
	if s.timerList == nil {
		return 0, false
	}
	return s.timerList.WakeTime, true
}

// Dispatch moves the clock forward to now and fires every timer that is due,
// in WakeTime order. Timers rescheduled into the past fire again in the same
// call. It returns the number of handler invocations. The clock never moves
// backwards.
func (s *Scheduler) Dispatch(now uint64) int {
	fired := 0
	for s.timerList != nil && s.timerList.WakeTime <= now {
		timer := s.timerList
		s.timerList = timer.next
		timer.next = nil
		timer.queued = false

		if timer.WakeTime > s.now {
			s.now = timer.WakeTime
		}

		result := timer.Handler(timer)
		fired++

		// The handler may already have rescheduled the timer itself
		if result == SF_RESCHEDULE && !timer.queued {
			s.insertTimer(timer)
		}
	}
	if now > s.now {
		s.now = now
	}
	return fired
}

// Advance moves the clock forward by ticks, firing due timers
func (s *Scheduler) Advance(ticks uint64) int {
	return s.Dispatch(s.now + ticks)
}

// RunUntilIdle fires timers until none are left or the clock would pass
// limit. It returns the number of handler invocations.
func (s *Scheduler) RunUntilIdle(limit uint64) int {
	fired := 0
	for {
		wake, ok := s.NextWake()
		if !ok || wake > limit {
			return fired
		}
		fired += s.Dispatch(wake)
	}
}

// insertTimer inserts a timer in sorted order by WakeTime. Timers with equal
// WakeTime fire in insertion order.
func (s *Scheduler) insertTimer(t *Timer) {
	t.queued = true
	if s.timerList == nil || t.WakeTime < s.timerList.WakeTime {
		t.next = s.timerList
		s.timerList = t
		return
	}

	current := s.timerList
	for current.next != nil && current.next.WakeTime <= t.WakeTime {
		current = current.next
	}

	t.next = current.next
	current.next = t
}

func (s *Scheduler) remove(t *Timer) {
	if s.timerList == t {
		s.timerList = t.next
	} else {
		for cur := s.timerList; cur != nil; cur = cur.next {
			if cur.next == t {
				cur.next = t.next
				break
			}
		}
	}
	t.next = nil
	t.queued = false
}
