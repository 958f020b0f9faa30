// Package clock provides the monotonic time source used by the room
// engine. Rooms never call time.Sleep, time.After, or time.NewTicker
// directly; they go through a Clock so tests can substitute a Virtual
// clock and drive timers deterministically.
package clock

import (
	"sync"
	"time"
)

// Cancel stops a scheduled callback if it has not already fired.
// Cancellation is idempotent.
type Cancel func()

// Clock is the seam between the room engine and wall-clock time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After schedules f to run after d elapses and returns a handle
	// that, when invoked, guarantees f will not run if it has not
	// already started running.
	After(d time.Duration, f func()) Cancel
	// Every schedules f to run repeatedly every d until cancelled.
	Every(d time.Duration, f func()) Cancel
}

// Real is a Clock backed by the operating system's wall clock.
type Real struct{}

// NewReal returns the real-time Clock implementation.
func NewReal() Real { return Real{} }

func (Real) Now() time.Time { return time.Now() }

func (Real) After(d time.Duration, f func()) Cancel {
	timer := time.AfterFunc(d, f)
	var once sync.Once
	return func() {
		once.Do(func() { timer.Stop() })
	}
}

func (Real) Every(d time.Duration, f func()) Cancel {
	ticker := time.NewTicker(d)
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				f()
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
	}
}
