package sim

import (
	"fmt"
	"math/rand"

	"github.com/tomz197/cubefall/internal/physics"
	"github.com/tomz197/cubefall/internal/scene"
)

// FPSSource exposes the most recent frame-rate estimate.
type FPSSource interface {
	Estimate() int
}

// SpawnConfig controls where and when cubes appear.
type SpawnConfig struct {
	FPSThreshold int     // Spawn only while the estimate is strictly above this
	Height       float64 // Drop height
	Spread       float64 // Max horizontal offset either side of the origin
	HalfExtent   float64
	Density      float64
	Restitution  float64
	Friction     float64
	MaxCubes     int // 0 = unlimited
}

// Spawner drops one cube per tick while the frame rate allows it.
// The gate reads the estimate from the previous frame, so it lags by a frame.
type Spawner struct {
	cfg   SpawnConfig
	world *physics.World
	scene *scene.Scene
	fps   FPSSource
	rng   *rand.Rand
}

// NewSpawner creates a spawner adding pairs to sc backed by bodies in world.
func NewSpawner(cfg SpawnConfig, world *physics.World, sc *scene.Scene, fps FPSSource, rng *rand.Rand) *Spawner {
	return &Spawner{cfg: cfg, world: world, scene: sc, fps: fps, rng: rng}
}

// Tick spawns a cube if the FPS estimate is above the threshold.
func (s *Spawner) Tick() (bool, error) {
	if s.fps.Estimate() <= s.cfg.FPSThreshold {
		return false, nil
	}
	if s.cfg.MaxCubes > 0 && s.scene.Len() >= s.cfg.MaxCubes {
		return false, nil
	}

	x := (s.rng.Float64()*2 - 1) * s.cfg.Spread
	body, err := s.world.CreateRigidBody(physics.DynamicBody().SetTranslation(x, s.cfg.Height))
	if err != nil {
		return false, fmt.Errorf("spawn body: %w", err)
	}

	collider := physics.Cuboid(s.cfg.HalfExtent, s.cfg.HalfExtent).
		SetRestitution(s.cfg.Restitution).
		SetFriction(s.cfg.Friction).
		SetDensity(s.cfg.Density)
	if _, err := s.world.CreateCollider(collider, body); err != nil {
		return false, fmt.Errorf("spawn collider: %w", err)
	}

	mesh := scene.NewMesh(scene.MeshCube, s.cfg.HalfExtent, s.cfg.HalfExtent)
	mesh.SetTransform(body.Translation(), body.Rotation())
	s.scene.Append(scene.Pair{Body: body, Mesh: mesh})
	return true, nil
}
