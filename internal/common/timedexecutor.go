package common

import (
	"time"
)

// Give the timed executor a task and a timeout.
// Call the execute function from time to time.
// If the function gets called when the timeout has been reached,
// the provided task will execute. If not, the call will do nothing.
// The very first call always executes the task
type TimedExecutor struct {
	stopwatch Stopwatch
	task      func()
}

// Create a timed executor provided a timeout and a task
func NewTimedExecutor(timeout time.Duration, task func()) *TimedExecutor {
	return &TimedExecutor{NewStopwatch(timeout), task}
}

// Use another clock, mostly for tests
func (te *TimedExecutor) SetClock(clock Clock) {
	if te == nil {
		return
	}
	te.stopwatch.Clock = clock
}

// Execute the task if the timeout has been reached, else do nothing.
// Returns true if the task ran
func (te *TimedExecutor) Execute() bool {
	if te == nil || te.task == nil {
		return false
	}
	if stopped, _ := te.stopwatch.Stopped(); stopped {
		te.stopwatch.Start()
		te.task()
		return true
	}
	return false
}
