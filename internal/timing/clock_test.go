package timing

import (
	"math"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSimulationClockSample(t *testing.T) {
	mc := NewManualClock(epoch)
	sc := NewSimulationClock(mc)

	if dt := sc.Sample(); dt != 0 {
		t.Fatalf("first sample = %v, want 0", dt)
	}

	mc.Advance(50 * time.Millisecond)
	if dt := sc.Sample(); math.Abs(dt-0.05) > 1e-9 {
		t.Fatalf("sample = %v, want 0.05", dt)
	}

	// No time passed since the previous sample.
	if dt := sc.Sample(); dt != 0 {
		t.Fatalf("repeat sample = %v, want 0", dt)
	}
}

func TestSimulationClockNeverNegative(t *testing.T) {
	mc := NewManualClock(epoch)
	sc := NewSimulationClock(mc)
	mc.Advance(-time.Second)
	if dt := sc.Sample(); dt != 0 {
		t.Fatalf("sample after going backwards = %v, want 0", dt)
	}
}

func TestIntervalDue(t *testing.T) {
	iv := NewInterval(100*time.Millisecond, epoch)

	if iv.Due(epoch.Add(99 * time.Millisecond)) {
		t.Fatal("due before first period")
	}
	if !iv.Due(epoch.Add(100 * time.Millisecond)) {
		t.Fatal("not due at first period")
	}
	if iv.Due(epoch.Add(150 * time.Millisecond)) {
		t.Fatal("due twice in one period")
	}
	if !iv.Due(epoch.Add(200 * time.Millisecond)) {
		t.Fatal("not due at second period")
	}

	// A long stall fires once, then waits a full period.
	if !iv.Due(epoch.Add(time.Second)) {
		t.Fatal("not due after stall")
	}
	if iv.Due(epoch.Add(time.Second + 50*time.Millisecond)) {
		t.Fatal("stall produced a burst of firings")
	}
}
