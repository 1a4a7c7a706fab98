package sim

import (
	"testing"
	"time"
)

func TestFPSTrackerWindow(t *testing.T) {
	f := NewFPSTracker(500*time.Millisecond, epoch)
	now := epoch

	// 29 frames at 60 Hz stay inside the first window.
	for i := 0; i < 29; i++ {
		now = now.Add(time.Second / 60)
		if got := f.Frame(now); got != 0 {
			t.Fatalf("frame %d: estimate = %d before window closed", i, got)
		}
	}

	// The 30th frame lands at 500ms.
	now = epoch.Add(500 * time.Millisecond)
	if got := f.Frame(now); got != 60 {
		t.Fatalf("estimate = %d, want 60", got)
	}

	// Between recomputes the estimate is unchanged, however fast frames come.
	for i := 0; i < 100; i++ {
		now = now.Add(time.Millisecond)
		if got := f.Frame(now); got != 60 {
			t.Fatalf("estimate changed mid-window to %d", got)
		}
	}
	if f.Estimate() != 60 {
		t.Fatalf("Estimate() = %d, want 60", f.Estimate())
	}
}

func TestFPSTrackerRounds(t *testing.T) {
	f := NewFPSTracker(500*time.Millisecond, epoch)
	now := epoch
	for i := 0; i < 22; i++ {
		now = now.Add(25 * time.Millisecond)
		f.Frame(now)
	}
	// The window closes on the 20th frame: 20 frames over 500ms = 40 fps.
	if got := f.Estimate(); got != 40 {
		t.Fatalf("estimate = %d, want 40", got)
	}

	// 9 frames over the next 650ms = 13.8 -> 14.
	for i := 0; i < 6; i++ {
		now = now.Add(50 * time.Millisecond)
		f.Frame(now)
	}
	now = now.Add(300 * time.Millisecond)
	if got := f.Frame(now); got != 14 {
		t.Fatalf("estimate = %d, want 14", got)
	}
}

func TestEstimateDoesNotRecordFrames(t *testing.T) {
	f := NewFPSTracker(500*time.Millisecond, epoch)
	for i := 0; i < 10; i++ {
		f.Estimate()
	}
	if got := f.Frame(epoch.Add(time.Second)); got != 1 {
		t.Fatalf("estimate = %d, want 1 frame per second", got)
	}
}
