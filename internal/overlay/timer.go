package overlay

import "time"

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the callback; it reports false if it already fired or was stopped.
	Stop() bool
}

// Scheduler schedules callbacks after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (Timer, error)
}

// SystemScheduler schedules on the runtime timer.
type SystemScheduler struct{}

// AfterFunc implements Scheduler.
func (SystemScheduler) AfterFunc(d time.Duration, f func()) (Timer, error) {
	return time.AfterFunc(d, f), nil
}
