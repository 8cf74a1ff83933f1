package core

import "time"

// TimerFreq is the scheduler clock rate (1 tick = 1us)
const TimerFreq = 1000000

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint64) uint64 {
	return us * TimerFreq / 1000000
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint64) uint64 {
	return ticks * 1000000 / TimerFreq
}

// TimerFromDuration converts a duration to timer ticks, rounding down.
// Negative durations map to zero.
func TimerFromDuration(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	return TimerFromUS(uint64(d / time.Microsecond))
}

// TimerToDuration converts timer ticks to a duration
func TimerToDuration(ticks uint64) time.Duration {
	return time.Duration(TimerToUS(ticks)) * time.Microsecond
}
