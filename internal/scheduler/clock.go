package scheduler

import "github.com/jonboulle/clockwork"

// clock times scheduled passes. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for pass timing. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
