package clock

import "time"

// Clock is the time source injected into everything that measures elapsed
// time or schedules deadlines, so tests can drive timers by hand.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	DeadlineAfter(d time.Duration) time.Time
	// AfterFunc runs f once after d elapses. The returned stop function
	// reports whether it prevented the call.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
	// Tick returns a periodic channel and a function that stops it.
	Tick(d time.Duration) (<-chan time.Time, func())
}

type system struct{}

// System returns the wall-clock implementation.
func System() Clock { return system{} }

func (system) Now() time.Time                  { return time.Now() }
func (system) Since(t time.Time) time.Duration { return time.Since(t) }

func (system) DeadlineAfter(d time.Duration) time.Time { return time.Now().Add(d) }

func (system) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

func (system) Tick(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}
