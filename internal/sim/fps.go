package sim

import (
	"math"
	"time"
)

// FPSTracker turns frame events into a frames-per-second figure that changes
// at most once per window, so the displayed number does not jitter.
type FPSTracker struct {
	window      time.Duration
	frames      int
	windowStart time.Time
	estimate    int
}

// NewFPSTracker starts the first measurement window at start.
func NewFPSTracker(window time.Duration, start time.Time) *FPSTracker {
	return &FPSTracker{window: window, windowStart: start}
}

// Frame records one frame at now and returns the current estimate.
func (f *FPSTracker) Frame(now time.Time) int {
	f.frames++
	elapsed := now.Sub(f.windowStart)
	if elapsed >= f.window && elapsed > 0 {
		elapsedMs := float64(elapsed) / float64(time.Millisecond)
		f.estimate = int(math.Round(float64(f.frames) * 1000 / elapsedMs))
		f.windowStart = now
		f.frames = 0
	}
	return f.estimate
}

// Estimate returns the last computed figure without recording a frame.
func (f *FPSTracker) Estimate() int {
	return f.estimate
}
