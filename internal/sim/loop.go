// Package sim runs the falling-cubes simulation: the fixed-timestep loop,
// the FPS-gated spawner and the context that owns them.
package sim

import (
	"github.com/tomz197/cubefall/internal/scene"
	"github.com/tomz197/cubefall/internal/timing"
)

// Stepper advances physics by one fixed increment.
type Stepper interface {
	Step()
}

// Frame is what a renderer receives once per loop invocation.
// Scene is only valid for the duration of the Render call.
type Frame struct {
	Scene *scene.Scene
	Stats scene.Stats
}

// Renderer draws frames.
type Renderer interface {
	Render(frame Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(Frame) error

// Render implements Renderer.
func (f RendererFunc) Render(frame Frame) error { return f(frame) }

// FrameStats describes what one loop invocation did.
type FrameStats struct {
	Steps       int
	Capped      bool
	Accumulator float64
}

// LoopConfig holds the timestep parameters.
type LoopConfig struct {
	FixedStep        float64
	MaxStepsPerFrame int
}

// Loop decouples the physics step rate from the render rate.
type Loop struct {
	clock    *timing.SimulationClock
	acc      *Accumulator
	world    Stepper
	scene    *scene.Scene
	fps      *FPSTracker
	renderer Renderer

	fixedStep  float64
	totalSteps int
	paused     bool
}

// NewLoop wires a loop. fps and renderer may be nil.
func NewLoop(cfg LoopConfig, clock *timing.SimulationClock, world Stepper, sc *scene.Scene, fps *FPSTracker, renderer Renderer) *Loop {
	return &Loop{
		clock:     clock,
		acc:       NewAccumulator(cfg.FixedStep, cfg.MaxStepsPerFrame),
		world:     world,
		scene:     sc,
		fps:       fps,
		renderer:  renderer,
		fixedStep: cfg.FixedStep,
	}
}

// Frame runs one invocation: sample, step, sync, render.
func (l *Loop) Frame() (FrameStats, error) {
	dt := l.clock.Sample()

	// Paused frames neither bank time nor spend what is already banked.
	var steps int
	var capped bool
	if !l.paused {
		l.acc.Add(dt)
		steps, capped = l.acc.Drain(l.world.Step)
	}
	l.totalSteps += steps

	l.scene.SyncAll()

	fs := FrameStats{Steps: steps, Capped: capped, Accumulator: l.acc.Value()}

	fps := 0
	if l.fps != nil {
		fps = l.fps.Frame(l.clock.Now())
	}

	if l.renderer == nil {
		return fs, nil
	}
	err := l.renderer.Render(Frame{
		Scene: l.scene,
		Stats: scene.Stats{
			FPS:         fps,
			Cubes:       l.scene.Len(),
			Steps:       steps,
			Capped:      capped,
			Accumulator: fs.Accumulator,
			SimTime:     float64(l.totalSteps) * l.fixedStep,
			Paused:      l.paused,
		},
	})
	return fs, err
}

// SetPaused stops or resumes banking elapsed time. Frames keep rendering
// while paused.
func (l *Loop) SetPaused(paused bool) { l.paused = paused }

// Paused reports whether the loop is paused.
func (l *Loop) Paused() bool { return l.paused }

// TotalSteps returns the physics steps taken since the loop was created.
func (l *Loop) TotalSteps() int { return l.totalSteps }

// Accumulator returns the banked, unsimulated seconds.
func (l *Loop) Accumulator() float64 { return l.acc.Value() }
