package sim

import (
	"context"
	"testing"
	"time"

	"github.com/tomz197/cubefall/internal/logging"
	"github.com/tomz197/cubefall/internal/timing"
)

func newTestContext(t *testing.T, renderer Renderer) (*Context, *timing.ManualClock) {
	t.Helper()
	mc := timing.NewManualClock(epoch)
	opts := DefaultOptions()
	opts.Clock = mc
	opts.Seed = 1
	opts.Logger = logging.Discard()
	c, err := New(opts, renderer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	return c, mc
}

// runFrames drives the context at 60 Hz with a spawn tick every 100ms.
func runFrames(t *testing.T, c *Context, mc *timing.ManualClock, n int) {
	t.Helper()
	spawn := timing.NewInterval(100*time.Millisecond, mc.Now())
	for i := 0; i < n; i++ {
		mc.Advance(time.Second / 60)
		if _, err := c.Frame(); err != nil {
			t.Fatalf("Frame: %v", err)
		}
		if spawn.Due(mc.Now()) {
			if _, err := c.SpawnTick(); err != nil {
				t.Fatalf("SpawnTick: %v", err)
			}
		}
	}
}

func TestContextSpawnsOnceFPSIsKnown(t *testing.T) {
	pub := NewPublisher()
	c, mc := newTestContext(t, pub)

	// Before the first FPS window closes the estimate is 0 and nothing spawns.
	runFrames(t, c, mc, 20)
	if c.Scene().Len() != 0 {
		t.Fatalf("spawned %d cubes before the FPS estimate existed", c.Scene().Len())
	}

	runFrames(t, c, mc, 120)
	if c.FPS() != 60 {
		t.Fatalf("FPS = %d, want 60", c.FPS())
	}
	if c.Scene().Len() == 0 {
		t.Fatal("no cubes spawned at 60 fps")
	}

	// A spawn after the last frame is only published by the next one.
	if _, err := c.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	snap := pub.Latest()
	if snap.Stats.Cubes != c.Scene().Len() || len(snap.Cubes) != c.Scene().Len() {
		t.Fatalf("snapshot cubes = %d/%d, scene = %d", snap.Stats.Cubes, len(snap.Cubes), c.Scene().Len())
	}
}

func TestContextCubesFall(t *testing.T) {
	c, mc := newTestContext(t, nil)
	runFrames(t, c, mc, 40)

	if c.Scene().Len() == 0 {
		t.Fatal("no cubes spawned")
	}
	first := c.Scene().Pairs()[0].Mesh
	startY := first.Translation[1]
	runFrames(t, c, mc, 10)
	if first.Translation[1] >= startY {
		t.Fatalf("first cube did not fall: %v -> %v", startY, first.Translation[1])
	}
}

func TestContextPauseAndReset(t *testing.T) {
	c, mc := newTestContext(t, nil)
	runFrames(t, c, mc, 60)
	if c.Scene().Len() == 0 {
		t.Fatal("no cubes spawned")
	}

	if err := c.Apply(CommandTogglePause); err != nil {
		t.Fatalf("pause: %v", err)
	}
	n := c.Scene().Len()
	runFrames(t, c, mc, 60)
	if c.Scene().Len() != n {
		t.Fatalf("spawned while paused: %d -> %d", n, c.Scene().Len())
	}
	if fs, _ := c.Frame(); fs.Steps != 0 {
		t.Fatalf("stepped while paused: %+v", fs)
	}

	if err := c.Apply(CommandReset); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if c.Scene().Len() != 0 {
		t.Fatalf("reset kept %d cubes", c.Scene().Len())
	}
	if !c.Paused() {
		t.Fatal("reset cleared pause state")
	}

	if err := c.Apply(Command(99)); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestContextRunStopsOnCancel(t *testing.T) {
	opts := DefaultOptions()
	opts.Logger = logging.Discard()
	opts.FrameInterval = time.Millisecond
	opts.SpawnInterval = time.Millisecond
	pub := NewPublisher()
	c, err := New(opts, pub)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	c.Control(CommandTogglePause)
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	if !pub.Latest().Stats.Paused {
		t.Fatal("queued pause command was not applied")
	}
}

func TestContextNowFollowsInjectedClock(t *testing.T) {
	c, mc := newTestContext(t, nil)
	if !c.Now().Equal(epoch) {
		t.Fatalf("Now = %v, want %v", c.Now(), epoch)
	}
	mc.Advance(3 * time.Second)
	if want := epoch.Add(3 * time.Second); !c.Now().Equal(want) {
		t.Fatalf("Now = %v, want %v", c.Now(), want)
	}

	// An interval scheduled on Now fires with the injected clock, not wall time.
	spawn := timing.NewInterval(100*time.Millisecond, c.Now())
	if spawn.Due(c.Now()) {
		t.Fatal("interval due immediately")
	}
	mc.Advance(100 * time.Millisecond)
	if !spawn.Due(c.Now()) {
		t.Fatal("interval not due after one period of injected time")
	}
}

func TestCloseTwice(t *testing.T) {
	c, _ := newTestContext(t, nil)
	c.Close()
	c.Close()
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CommandTogglePause, "toggle-pause"},
		{CommandReset, "reset"},
		{Command(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("Command(%d).String() = %q, want %q", int(tt.cmd), got, tt.want)
		}
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Loop.FixedStep = 0
	if _, err := New(opts, nil); err == nil {
		t.Fatal("expected error for zero fixed step")
	}
}
