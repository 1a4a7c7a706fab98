// Package timing provides the time sources driving the simulation.
package timing

import (
	"sync"
	"time"
)

// Clock is a testable time source.
type Clock interface {
	Now() time.Time
}

// RealClock is backed by time.Now, which carries a monotonic reading.
type RealClock struct{}

// Now implements Clock.
func (RealClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock starting at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now implements Clock.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// AdvanceSeconds moves the clock forward by a fractional number of seconds.
func (c *ManualClock) AdvanceSeconds(s float64) {
	c.Advance(time.Duration(s * float64(time.Second)))
}

// SimulationClock reports elapsed time between successive samples.
type SimulationClock struct {
	clock          Clock
	lastSampleTime time.Time
}

// NewSimulationClock creates a SimulationClock whose first sample measures
// from the moment of construction.
func NewSimulationClock(c Clock) *SimulationClock {
	if c == nil {
		c = RealClock{}
	}
	return &SimulationClock{clock: c, lastSampleTime: c.Now()}
}

// Sample returns the seconds elapsed since the previous sample. Never negative.
func (s *SimulationClock) Sample() float64 {
	now := s.clock.Now()
	dt := now.Sub(s.lastSampleTime).Seconds()
	s.lastSampleTime = now
	if dt < 0 {
		return 0
	}
	return dt
}

// Now returns the underlying clock's current time without sampling.
func (s *SimulationClock) Now() time.Time {
	return s.clock.Now()
}

// Interval fires at most once per period when polled. It is the
// single-threaded counterpart of a time.Ticker for loops driven by
// someone else's frame callback.
type Interval struct {
	every time.Duration
	next  time.Time
}

// NewInterval creates an Interval whose first firing is one period after start.
func NewInterval(every time.Duration, start time.Time) *Interval {
	return &Interval{every: every, next: start.Add(every)}
}

// Due reports whether the interval elapsed by now and schedules the next firing.
// Missed periods collapse into one firing.
func (i *Interval) Due(now time.Time) bool {
	if now.Before(i.next) {
		return false
	}
	i.next = i.next.Add(i.every)
	if !now.Before(i.next) {
		i.next = now.Add(i.every)
	}
	return true
}
