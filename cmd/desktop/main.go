package main

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/charmbracelet/log"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tomz197/cubefall/internal/config"
	"github.com/tomz197/cubefall/internal/logging"
	"github.com/tomz197/cubefall/internal/scene"
	"github.com/tomz197/cubefall/internal/sim"
	"github.com/tomz197/cubefall/internal/timing"
)

const (
	windowWidth  = 960
	windowHeight = 640
)

var (
	backgroundColor = color.RGBA{0x0d, 0x11, 0x17, 0xff}
	groundColor     = color.RGBA{0x30, 0x36, 0x3d, 0xff}
	cubeColor       = color.RGBA{0x58, 0xa6, 0xff, 0xff}
)

func main() {
	settings, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}
	logger, err := logging.New("desktop", settings.LogLevel)
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	g, err := newGame(settings, logger)
	if err != nil {
		logger.Fatal("failed to create simulation", "error", err)
	}
	defer g.sim.Close()

	ebiten.SetWindowTitle("cubefall")
	ebiten.SetWindowSize(windowWidth, windowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	// One Update per displayed frame: the simulation loop is the frame callback.
	ebiten.SetTPS(ebiten.SyncWithFPS)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		logger.Fatal("game error", "error", err)
	}
}

// game drives a sim.Context from ebiten's frame callback instead of Run.
type game struct {
	sim    *sim.Context
	pub    *sim.Publisher
	spawn  *timing.Interval
	camera *scene.Camera
	logger *log.Logger
}

func newGame(settings config.Settings, logger *log.Logger) (*game, error) {
	pub := sim.NewPublisher()
	opts := sim.OptionsFrom(settings)
	opts.Logger = logger.WithPrefix("sim")
	c, err := sim.New(opts, pub)
	if err != nil {
		return nil, err
	}
	return &game{
		sim:    c,
		pub:    pub,
		spawn:  timing.NewInterval(opts.SpawnInterval, c.Now()),
		camera: sim.DefaultCamera(windowWidth, windowHeight),
		logger: logger,
	}, nil
}

// Update implements ebiten.Game.
func (g *game) Update() error {
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyQ), inpututil.IsKeyJustPressed(ebiten.KeyEscape):
		return ebiten.Termination
	case inpututil.IsKeyJustPressed(ebiten.KeySpace), inpututil.IsKeyJustPressed(ebiten.KeyP):
		if err := g.sim.Apply(sim.CommandTogglePause); err != nil {
			return err
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		if err := g.sim.Apply(sim.CommandReset); err != nil {
			return err
		}
	}

	if _, err := g.sim.Frame(); err != nil {
		return fmt.Errorf("frame: %w", err)
	}
	if g.spawn.Due(g.sim.Now()) {
		if _, err := g.sim.SpawnTick(); err != nil {
			g.logger.Warn("spawn failed", "error", err)
		}
	}
	return nil
}

// Draw implements ebiten.Game.
func (g *game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	snap := g.pub.Latest()

	ground := g.camera.ProjectMesh(snap.Ground)
	minP, maxP := bounds(ground)
	vector.DrawFilledRect(screen, float32(minP[0]), float32(minP[1]),
		float32(maxP[0]-minP[0]), float32(maxP[1]-minP[1]), groundColor, false)

	for _, cube := range snap.Cubes {
		pts := g.camera.ProjectMesh(cube)
		for i := range pts {
			a, b := pts[i], pts[(i+1)%len(pts)]
			vector.StrokeLine(screen, float32(a[0]), float32(a[1]), float32(b[0]), float32(b[1]), 2, cubeColor, true)
		}
	}

	ebitenutil.DebugPrint(screen, hud(snap.Stats, ebiten.ActualFPS()))
}

// Layout implements ebiten.Game.
func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if w, h := g.camera.Size(); w != outsideWidth || h != outsideHeight {
		g.camera.Resize(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}

func hud(st scene.Stats, actualFPS float64) string {
	status := "running"
	switch {
	case st.Paused:
		status = "paused"
	case st.Capped:
		status = "behind"
	}
	return fmt.Sprintf("FPS %d (ebiten %.0f)  Cubes %d  Steps %d  Sim %.1fs  %s\nSPACE pause  R reset  Q quit",
		st.FPS, actualFPS, st.Cubes, st.Steps, st.SimTime, status)
}

func bounds(pts [4]mgl64.Vec2) (lo, hi mgl64.Vec2) {
	lo, hi = pts[0], pts[0]
	for _, p := range pts[1:] {
		lo[0], lo[1] = min(lo[0], p[0]), min(lo[1], p[1])
		hi[0], hi[1] = max(hi[0], p[0]), max(hi[1], p[1])
	}
	return lo, hi
}
