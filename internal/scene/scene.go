// Package scene holds the visual side of the simulation: meshes mirrored
// from physics bodies, the camera, and the snapshots handed to renderers.
package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// MeshKind identifies what a mesh depicts.
type MeshKind int

const (
	MeshGround MeshKind = iota
	MeshCube
)

// Mesh is the visual proxy of a body: a box with a pose.
type Mesh struct {
	Kind        MeshKind
	HalfExtents mgl64.Vec2
	Translation mgl64.Vec3
	Rotation    mgl64.Quat
}

// NewMesh creates a mesh at the origin with no rotation.
func NewMesh(kind MeshKind, hx, hy float64) *Mesh {
	return &Mesh{
		Kind:        kind,
		HalfExtents: mgl64.Vec2{hx, hy},
		Rotation:    mgl64.QuatIdent(),
	}
}

// SetTransform replaces the mesh pose.
func (m *Mesh) SetTransform(translation mgl64.Vec3, rotation mgl64.Quat) {
	m.Translation = translation
	m.Rotation = rotation
}

// Corners returns the box corners in world space, counter-clockwise.
func (m Mesh) Corners() [4]mgl64.Vec3 {
	hx, hy := m.HalfExtents[0], m.HalfExtents[1]
	local := [4]mgl64.Vec3{{-hx, -hy, 0}, {hx, -hy, 0}, {hx, hy, 0}, {-hx, hy, 0}}
	var out [4]mgl64.Vec3
	for i, c := range local {
		out[i] = m.Rotation.Rotate(c).Add(m.Translation)
	}
	return out
}

// Body is the physics side of a pair.
type Body interface {
	Translation() mgl64.Vec3
	Rotation() mgl64.Quat
}

// Pair binds one physics body to its mesh.
type Pair struct {
	Body Body
	Mesh *Mesh
}

// Sync copies the body pose onto the mesh.
func (p Pair) Sync() {
	p.Mesh.SetTransform(p.Body.Translation(), p.Body.Rotation())
}

// Scene owns the ground mesh and the append-only list of body/mesh pairs.
// It is not safe for concurrent use; renderers on other goroutines read
// snapshots instead.
type Scene struct {
	Ground *Mesh
	pairs  []Pair
}

// New creates a scene with the given ground mesh.
func New(ground *Mesh) *Scene {
	return &Scene{Ground: ground}
}

// Append adds a pair. Pairs are never removed.
func (s *Scene) Append(p Pair) {
	s.pairs = append(s.pairs, p)
}

// Pairs returns the pairs in insertion order. The slice must not be modified.
func (s *Scene) Pairs() []Pair {
	return s.pairs
}

// Len returns the number of pairs.
func (s *Scene) Len() int {
	return len(s.pairs)
}

// SyncAll copies every body pose onto its mesh.
func (s *Scene) SyncAll() {
	for _, p := range s.pairs {
		p.Sync()
	}
}

// Stats is the readout shown next to the scene.
type Stats struct {
	FPS         int     `json:"fps"`
	Cubes       int     `json:"cubes"`
	Steps       int     `json:"steps"`       // Physics steps taken in the last frame
	Capped      bool    `json:"capped"`      // Last frame hit the step cap
	Accumulator float64 `json:"accumulator"` // Unsimulated seconds carried over
	SimTime     float64 `json:"simTime"`     // Total simulated seconds
	Paused      bool    `json:"paused"`
}

// Snapshot is an immutable copy of the scene for rendering on another goroutine.
type Snapshot struct {
	Ground Mesh
	Cubes  []Mesh
	Stats  Stats
}

// Snapshot copies the current mesh poses.
func (s *Scene) Snapshot(stats Stats) *Snapshot {
	cubes := make([]Mesh, len(s.pairs))
	for i, p := range s.pairs {
		cubes[i] = *p.Mesh
	}
	snap := &Snapshot{Cubes: cubes, Stats: stats}
	if s.Ground != nil {
		snap.Ground = *s.Ground
	}
	return snap
}
