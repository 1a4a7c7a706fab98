package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/tomz197/cubefall/internal/config"
	"github.com/tomz197/cubefall/internal/physics"
	"github.com/tomz197/cubefall/internal/scene"
	simconfig "github.com/tomz197/cubefall/internal/sim/config"
	"github.com/tomz197/cubefall/internal/timing"
)

// Command is a request from a viewer to the simulation.
type Command int

const (
	CommandTogglePause Command = iota
	CommandReset
)

// String returns the command name used in logs.
func (c Command) String() string {
	switch c {
	case CommandTogglePause:
		return "toggle-pause"
	case CommandReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Options configures a Context.
type Options struct {
	Loop          LoopConfig
	Spawn         SpawnConfig
	FrameInterval time.Duration
	SpawnInterval time.Duration
	FPSWindow     time.Duration
	Seed          int64
	Clock         timing.Clock // nil means the real clock
	Logger        *log.Logger  // nil means the default charm logger
}

// DefaultOptions returns the reference configuration.
func DefaultOptions() Options {
	return OptionsFrom(config.Defaults())
}

// OptionsFrom builds Options from loaded settings.
func OptionsFrom(s config.Settings) Options {
	return Options{
		Loop: LoopConfig{
			FixedStep:        s.FixedStep,
			MaxStepsPerFrame: s.MaxStepsPerFrame,
		},
		Spawn: SpawnConfig{
			FPSThreshold: s.SpawnFPSThreshold,
			Height:       simconfig.SpawnHeight,
			Spread:       simconfig.SpawnSpread,
			HalfExtent:   simconfig.CubeHalfExtent,
			Density:      simconfig.CubeDensity,
			Restitution:  simconfig.CubeRestitution,
			Friction:     simconfig.CubeFriction,
			MaxCubes:     s.MaxCubes,
		},
		FrameInterval: s.FrameInterval,
		SpawnInterval: s.SpawnInterval,
		FPSWindow:     simconfig.FPSWindow,
		Seed:          s.Seed,
	}
}

// Context owns one simulation: physics world, scene, loop, spawner and FPS
// tracker. Frame, SpawnTick and Apply must be called from a single goroutine,
// either Run's or the caller's own frame callback.
type Context struct {
	opts     Options
	logger   *log.Logger
	clock    *timing.SimulationClock
	fps      *FPSTracker
	rng      *rand.Rand
	renderer Renderer
	commands chan Command

	world   *physics.World
	scene   *scene.Scene
	loop    *Loop
	spawner *Spawner
	paused  bool
	closed  bool
}

// New builds a Context with a fresh world containing only the ground.
func New(opts Options, renderer Renderer) (*Context, error) {
	if opts.Loop.FixedStep <= 0 {
		return nil, fmt.Errorf("fixed step must be positive, got %v", opts.Loop.FixedStep)
	}
	if opts.FrameInterval <= 0 || opts.SpawnInterval <= 0 {
		return nil, fmt.Errorf("frame and spawn intervals must be positive")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := timing.NewSimulationClock(opts.Clock)

	c := &Context{
		opts:     opts,
		logger:   logger,
		clock:    clock,
		fps:      NewFPSTracker(opts.FPSWindow, clock.Now()),
		rng:      rand.New(rand.NewSource(opts.Seed)),
		renderer: renderer,
		commands: make(chan Command, 16),
	}
	if err := c.build(); err != nil {
		return nil, err
	}
	return c, nil
}

// build creates the world and scene and rewires loop and spawner to them.
func (c *Context) build() error {
	world := physics.NewWorld(physics.WorldConfig{
		Gravity:            simconfig.Gravity,
		FixedStep:          c.opts.Loop.FixedStep,
		Iterations:         simconfig.SolverIterations,
		SleepTimeThreshold: simconfig.SleepTimeThreshold,
	})

	groundBody, err := world.CreateRigidBody(physics.FixedBody())
	if err != nil {
		return fmt.Errorf("ground body: %w", err)
	}
	groundCollider := physics.Cuboid(simconfig.GroundHalfWidth, simconfig.GroundHalfHeight).
		SetFriction(simconfig.GroundFriction).
		SetRestitution(simconfig.CubeRestitution)
	if _, err := world.CreateCollider(groundCollider, groundBody); err != nil {
		return fmt.Errorf("ground collider: %w", err)
	}
	ground := scene.NewMesh(scene.MeshGround, simconfig.GroundHalfWidth, simconfig.GroundHalfHeight)
	ground.SetTransform(groundBody.Translation(), groundBody.Rotation())

	if c.world != nil {
		c.world.Close()
	}
	c.world = world
	c.scene = scene.New(ground)
	c.loop = NewLoop(c.opts.Loop, c.clock, world, c.scene, c.fps, c.renderer)
	c.loop.SetPaused(c.paused)
	c.spawner = NewSpawner(c.opts.Spawn, world, c.scene, c.fps, c.rng)
	return nil
}

// Run schedules frames and spawn ticks on one goroutine until ctx is done.
func (c *Context) Run(ctx context.Context) error {
	frames := time.NewTicker(c.opts.FrameInterval)
	defer frames.Stop()
	spawns := time.NewTicker(c.opts.SpawnInterval)
	defer spawns.Stop()

	c.logger.Info("simulation started",
		"fixedStep", c.opts.Loop.FixedStep,
		"maxSteps", c.opts.Loop.MaxStepsPerFrame,
		"frameInterval", c.opts.FrameInterval,
		"spawnInterval", c.opts.SpawnInterval)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("simulation stopped", "cubes", c.scene.Len(), "steps", c.loop.TotalSteps())
			return nil
		case cmd := <-c.commands:
			if err := c.Apply(cmd); err != nil {
				return err
			}
		case <-frames.C:
			if _, err := c.Frame(); err != nil {
				return fmt.Errorf("frame: %w", err)
			}
		case <-spawns.C:
			if _, err := c.SpawnTick(); err != nil {
				c.logger.Warn("spawn failed", "err", err)
			}
		}
	}
}

// Frame runs one simulation loop invocation.
func (c *Context) Frame() (FrameStats, error) {
	fs, err := c.loop.Frame()
	if fs.Capped {
		c.logger.Debug("step cap reached", "accumulator", fs.Accumulator)
	}
	return fs, err
}

// SpawnTick runs the spawner once unless paused.
func (c *Context) SpawnTick() (bool, error) {
	if c.paused {
		return false, nil
	}
	return c.spawner.Tick()
}

// Control queues a command for Run. Commands are dropped when the queue is full.
func (c *Context) Control(cmd Command) {
	select {
	case c.commands <- cmd:
	default:
		c.logger.Warn("command dropped", "cmd", cmd)
	}
}

// Apply executes a command immediately.
func (c *Context) Apply(cmd Command) error {
	switch cmd {
	case CommandTogglePause:
		c.paused = !c.paused
		c.loop.SetPaused(c.paused)
		c.logger.Info("pause toggled", "paused", c.paused)
	case CommandReset:
		if err := c.build(); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		c.logger.Info("scene reset")
	default:
		return fmt.Errorf("unknown command %d", cmd)
	}
	return nil
}

// Scene returns the live scene. Only the goroutine driving the context may use it.
func (c *Context) Scene() *scene.Scene { return c.scene }

// FPS returns the current frame-rate estimate.
func (c *Context) FPS() int { return c.fps.Estimate() }

// Now returns the time of the clock driving the loop. Callers scheduling
// their own spawn ticks use it so both run on one time source.
func (c *Context) Now() time.Time { return c.clock.Now() }

// Paused reports whether the simulation is paused.
func (c *Context) Paused() bool { return c.paused }

// Close releases the physics world. Calling it again is a no-op.
func (c *Context) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.world.Close()
}

// DefaultCamera returns the camera framing the drop zone for the given output size.
func DefaultCamera(width, height int) *scene.Camera {
	return scene.NewCamera(
		mgl64.Vec2{simconfig.CameraTargetX, simconfig.CameraTargetY},
		simconfig.CameraViewHeight,
		width, height,
	)
}
