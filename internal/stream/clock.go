package stream

import "time"

// Clock seam so the reconnect backoff is testable without real sleeps.

// Timer is a cancelable pending callback
type Timer interface {
	// Stop cancels the timer; reports whether it had not fired yet
	Stop() bool
}

// Clock schedules callbacks
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock is the production clock backed by the time package
var SystemClock Clock = systemClock{}
