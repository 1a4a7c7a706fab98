// Package viewer draws published simulation snapshots on a terminal.
package viewer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tomz197/cubefall/internal/draw"
	"github.com/tomz197/cubefall/internal/input"
	"github.com/tomz197/cubefall/internal/scene"
	"github.com/tomz197/cubefall/internal/sim"
	simconfig "github.com/tomz197/cubefall/internal/sim/config"
)

// Source provides snapshots and the shutdown signal.
type Source interface {
	Latest() *scene.Snapshot
	Done() <-chan struct{}
	Register()
	Unregister()
}

// Controller forwards viewer commands to the simulation.
type Controller interface {
	Control(cmd sim.Command)
}

// Options configures a Viewer.
type Options struct {
	TermSizeFunc draw.TermSizeFunc
	Name         string // Shown in the HUD, e.g. the SSH user
	Logger       *log.Logger
}

// Viewer renders snapshots for one terminal connection.
type Viewer struct {
	source       Source
	control      Controller
	canvas       *draw.Canvas
	chunkWriter  *draw.ChunkWriter
	camera       *scene.Camera
	writer       io.Writer
	inputStream  *input.Stream
	termSizeFunc draw.TermSizeFunc
	name         string
	logger       *log.Logger

	lastInput     time.Time
	shutdownTimer float64
	shuttingDown  bool
	cols, rows    int
	offCol        int
	offRow        int
}

// New creates a viewer reading keys from r and drawing to w.
func New(src Source, ctl Controller, r *bufio.Reader, w io.Writer, opts Options) *Viewer {
	termSizeFunc := opts.TermSizeFunc
	if termSizeFunc == nil {
		termSizeFunc = draw.DefaultTermSizeFunc
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	v := &Viewer{
		source:       src,
		control:      ctl,
		canvas:       draw.NewCanvas(0, 0),
		chunkWriter:  draw.NewChunkWriter(w, 0, 0),
		camera:       sim.DefaultCamera(1, 1),
		writer:       w,
		inputStream:  input.StartStream(r),
		termSizeFunc: termSizeFunc,
		name:         opts.Name,
		logger:       logger,
		lastInput:    time.Now(),
	}
	v.updateScreen()
	return v
}

// Run draws frames until the user quits, input ends, ctx is cancelled or the
// shutdown countdown finishes.
func (v *Viewer) Run(ctx context.Context) error {
	v.source.Register()
	defer v.source.Unregister()

	draw.HideCursor(v.writer)
	defer draw.ShowCursor(v.writer)
	draw.ClearScreen(v.writer)

	lastTime := time.Now()
	for {
		frameStart := time.Now()
		delta := frameStart.Sub(lastTime)
		lastTime = frameStart

		select {
		case <-ctx.Done():
			draw.ClearScreen(v.writer)
			return nil
		default:
		}

		if !v.processInput() {
			break
		}
		if v.processShutdown(delta) {
			break
		}
		v.updateScreen()

		if err := v.drawFrame(v.source.Latest()); err != nil {
			return fmt.Errorf("draw frame: %w", err)
		}

		if elapsed := time.Since(frameStart); elapsed < simconfig.ViewerTargetFrameTime {
			time.Sleep(simconfig.ViewerTargetFrameTime - elapsed)
		}
	}

	draw.ClearScreen(v.writer)
	return nil
}

// processInput handles keys; it returns false when the viewer should exit.
func (v *Viewer) processInput() bool {
	in := input.ReadInput(v.inputStream)
	if len(in.Pressed) > 0 {
		v.lastInput = time.Now()
	} else if v.idleFor() > simconfig.InactivityDisconnectViewer {
		v.logger.Info("viewer idle, disconnecting", "name", v.name)
		return false
	}
	if !v.shuttingDown {
		if in.Pause {
			v.control.Control(sim.CommandTogglePause)
		}
		if in.Reset {
			v.control.Control(sim.CommandReset)
		}
	}
	return !in.Closed && !in.Quit
}

// processShutdown starts and advances the shutdown countdown; it returns
// true once the countdown has run out.
func (v *Viewer) processShutdown(delta time.Duration) bool {
	if !v.shuttingDown {
		select {
		case <-v.source.Done():
			v.shuttingDown = true
			v.shutdownTimer = simconfig.ShutdownDisplaySeconds
		default:
			return false
		}
	}
	v.shutdownTimer -= delta.Seconds()
	return v.shutdownTimer <= 0
}

// updateScreen clamps the terminal to the max render size, centres the canvas
// and updates the camera aspect on resize.
func (v *Viewer) updateScreen() {
	termWidth, termHeight, err := v.termSizeFunc()
	if err != nil {
		return
	}
	cols, rows, offCol, offRow := clampTermSize(termWidth, termHeight)
	if cols == v.cols && rows == v.rows && offCol == v.offCol && offRow == v.offRow {
		return
	}
	if v.cols != 0 || v.rows != 0 {
		v.chunkWriter.WriteString("\033[H\033[2J")
		v.canvas.ForceRedraw()
	}
	v.cols, v.rows, v.offCol, v.offRow = cols, rows, offCol, offRow

	v.canvas.Resize(cols, rows)
	v.canvas.SetOffset(offCol, offRow)
	v.chunkWriter.SetOffset(offCol, offRow)

	w, h := v.canvas.Size()
	v.camera.Resize(w, h)
}

// clampTermSize clamps terminal dimensions to the max render resolution and
// computes the centering offset for the render area.
func clampTermSize(termWidth, termHeight int) (cols, rows, offsetCol, offsetRow int) {
	cols = min(termWidth, simconfig.MaxTermWidth)
	rows = min(termHeight, simconfig.MaxTermHeight)
	offsetCol = (termWidth - cols) / 2
	offsetRow = (termHeight - rows) / 2
	return cols, rows, offsetCol, offsetRow
}
