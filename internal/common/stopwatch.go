package common

import (
	"time"
)

// This stopwatch keeps track of time. You can set a timeout for it,
// make it start counting time, and ask it if the timeout has been reached
type Stopwatch struct {
	Timeout   time.Duration
	Clock     Clock
	startTime time.Time
	Running   bool
}

func NewStopwatch(timeout time.Duration) Stopwatch {
	return Stopwatch{Timeout: timeout, Clock: RealClock{}}
}

func (s *Stopwatch) Start() {
	s.Running = true
	s.startTime = s.now()
}

func (s *Stopwatch) Stop() {
	s.Running = false
}

// Report if the stopwatch is stopped, either because it was
// never started or because the timeout has been reached.
// If it is still running, also return the time left
func (s *Stopwatch) Stopped() (bool, time.Duration) {
	if !s.Running {
		return true, 0
	}
	remaining := s.startTime.Add(s.Timeout).Sub(s.now())
	if remaining <= 0 {
		s.Running = false
		return true, 0
	}
	return false, remaining
}

func (s *Stopwatch) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}
