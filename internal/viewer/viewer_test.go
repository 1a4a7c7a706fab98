package viewer

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/tomz197/cubefall/internal/logging"
	"github.com/tomz197/cubefall/internal/scene"
	"github.com/tomz197/cubefall/internal/sim"
)

type fakeSource struct {
	snap *scene.Snapshot
	done chan struct{}

	mu         sync.Mutex
	registered int
}

func newFakeSource() *fakeSource {
	ground := scene.NewMesh(scene.MeshGround, 20, 0.1)
	cube := scene.NewMesh(scene.MeshCube, 0.5, 0.5)
	cube.SetTransform(mgl64.Vec3{0, 5, 0}, mgl64.QuatIdent())
	return &fakeSource{
		snap: &scene.Snapshot{
			Ground: *ground,
			Cubes:  []scene.Mesh{*cube},
			Stats:  scene.Stats{FPS: 60, Cubes: 1, Steps: 1},
		},
		done: make(chan struct{}),
	}
}

func (s *fakeSource) Latest() *scene.Snapshot { return s.snap }
func (s *fakeSource) Done() <-chan struct{}   { return s.done }

func (s *fakeSource) Register() {
	s.mu.Lock()
	s.registered++
	s.mu.Unlock()
}

func (s *fakeSource) Unregister() {
	s.mu.Lock()
	s.registered--
	s.mu.Unlock()
}

type recordingController struct {
	mu   sync.Mutex
	cmds []sim.Command
}

func (c *recordingController) Control(cmd sim.Command) {
	c.mu.Lock()
	c.cmds = append(c.cmds, cmd)
	c.mu.Unlock()
}

func fixedSize(w, h int) func() (int, int, error) {
	return func() (int, int, error) { return w, h, nil }
}

func newTestViewer(src Source, ctl Controller, in io.Reader, out io.Writer) *Viewer {
	return New(src, ctl, bufio.NewReader(in), out, Options{
		TermSizeFunc: fixedSize(80, 24),
		Logger:       logging.Discard(),
	})
}

func TestClampTermSize(t *testing.T) {
	tests := []struct {
		name                 string
		w, h                 int
		cols, rows, oc, orow int
	}{
		{"fits", 80, 24, 80, 24, 0, 0},
		{"too wide", 300, 24, 240, 24, 30, 0},
		{"too tall", 80, 100, 80, 70, 0, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, rows, oc, orow := clampTermSize(tt.w, tt.h)
			if cols != tt.cols || rows != tt.rows || oc != tt.oc || orow != tt.orow {
				t.Fatalf("clampTermSize(%d, %d) = %d %d %d %d", tt.w, tt.h, cols, rows, oc, orow)
			}
		})
	}
}

func TestViewerForwardsControlsUntilInputEnds(t *testing.T) {
	src := newFakeSource()
	ctl := &recordingController{}
	var out bytes.Buffer
	v := newTestViewer(src, ctl, strings.NewReader("pr"), &out)

	done := make(chan error, 1)
	go func() { done <- v.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("viewer did not exit after input ended")
	}

	if len(ctl.cmds) != 2 || ctl.cmds[0] != sim.CommandTogglePause || ctl.cmds[1] != sim.CommandReset {
		t.Fatalf("commands = %v, want [pause reset]", ctl.cmds)
	}
	if src.registered != 0 {
		t.Fatalf("viewer still registered: %d", src.registered)
	}
}

func TestViewerStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	src := newFakeSource()
	v := newTestViewer(src, &recordingController{}, pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := v.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestDrawFrameShowsSceneAndHUD(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	src := newFakeSource()
	var out bytes.Buffer
	v := newTestViewer(src, &recordingController{}, pr, &out)
	v.name = "alice"

	if err := v.drawFrame(src.Latest()); err != nil {
		t.Fatalf("drawFrame: %v", err)
	}
	got := out.String()
	if !strings.ContainsAny(got, "█▀▄") {
		t.Fatal("no blocks drawn")
	}
	for _, want := range []string{"FPS  60", "Cubes    1", "running", "alice", "SPACE pause"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestShutdownCountdown(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	src := newFakeSource()
	var out bytes.Buffer
	v := newTestViewer(src, &recordingController{}, pr, &out)

	if v.processShutdown(time.Second) {
		t.Fatal("countdown ran before shutdown was signalled")
	}
	close(src.done)

	if v.processShutdown(time.Second) {
		t.Fatal("countdown finished too early")
	}
	if err := v.drawFrame(src.Latest()); err != nil {
		t.Fatalf("drawFrame: %v", err)
	}
	if !strings.Contains(out.String(), "SERVER SHUTTING DOWN") {
		t.Fatal("shutdown screen not drawn")
	}
	if !v.processShutdown(5 * time.Second) {
		t.Fatal("countdown did not finish")
	}
}
