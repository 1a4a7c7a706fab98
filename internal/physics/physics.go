// Package physics wraps the Chipmunk2D port behind the small surface the
// simulation needs: body and collider creation, stepping and pose queries.
package physics

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

var (
	// ErrUnknownBodyKind is returned for a BodyDesc that is neither fixed nor dynamic.
	ErrUnknownBodyKind = errors.New("physics: unknown body kind")
	// ErrNilBody is returned when a collider is attached to no body.
	ErrNilBody = errors.New("physics: nil body")
	// ErrBadShape is returned for colliders with non-positive extents.
	ErrBadShape = errors.New("physics: collider extents must be positive")
)

// zAxis is the rotation axis of every body; the simulation plane is XY.
var zAxis = mgl64.Vec3{0, 0, 1}

// WorldConfig configures a World.
type WorldConfig struct {
	Gravity            float64 // Vertical acceleration (negative is down)
	FixedStep          float64 // Seconds advanced by each Step
	Iterations         int     // Solver iterations per step
	SleepTimeThreshold float64 // Idle seconds before bodies sleep; 0 disables sleeping
}

// World owns a physics space. It is not safe for concurrent use.
type World struct {
	space     *cp.Space
	fixedStep float64
	bodies    []*Body
}

// NewWorld creates an empty world.
func NewWorld(cfg WorldConfig) *World {
	space := cp.NewSpace()
	space.SetGravity(cp.Vector{X: 0, Y: cfg.Gravity})
	if cfg.Iterations > 0 {
		space.Iterations = uint(cfg.Iterations)
	}
	if cfg.SleepTimeThreshold > 0 {
		space.SleepTimeThreshold = cfg.SleepTimeThreshold
	}
	return &World{space: space, fixedStep: cfg.FixedStep}
}

// FixedStep returns the seconds each Step advances.
func (w *World) FixedStep() float64 {
	return w.fixedStep
}

// Step advances the world by one fixed increment.
func (w *World) Step() {
	w.space.Step(w.fixedStep)
}

// BodyCount returns how many bodies were created, of any kind.
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// Close drops the space. The world must not be used afterwards.
func (w *World) Close() {
	w.space = nil
	w.bodies = nil
}

// CreateRigidBody adds a body described by desc to the world.
func (w *World) CreateRigidBody(desc BodyDesc) (*Body, error) {
	var body *cp.Body
	switch desc.kind {
	case BodyFixed:
		body = cp.NewStaticBody()
	case BodyDynamic:
		// Placeholder mass; replaced by the first collider.
		body = cp.NewBody(1, 1)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownBodyKind, desc.kind)
	}
	body.SetPosition(cp.Vector{X: desc.translation[0], Y: desc.translation[1]})
	body.SetAngle(desc.rotation)

	w.space.AddBody(body)
	b := &Body{kind: desc.kind, body: body}
	w.bodies = append(w.bodies, b)
	return b, nil
}

// CreateCollider attaches a collider to body. Dynamic bodies take their mass
// from the collider's density and area.
func (w *World) CreateCollider(desc ColliderDesc, body *Body) (*Collider, error) {
	if body == nil {
		return nil, ErrNilBody
	}
	if desc.halfExtents[0] <= 0 || desc.halfExtents[1] <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadShape, desc.halfExtents)
	}
	width, height := 2*desc.halfExtents[0], 2*desc.halfExtents[1]

	if body.kind == BodyDynamic {
		mass := desc.density * width * height
		if mass <= 0 {
			mass = 1
		}
		body.mass += mass
		body.moment += cp.MomentForBox(mass, width, height)
		body.body.SetMass(body.mass)
		body.body.SetMoment(body.moment)
	}

	shape := cp.NewBox(body.body, width, height, 0)
	shape.SetElasticity(desc.restitution)
	shape.SetFriction(desc.friction)
	w.space.AddShape(shape)

	return &Collider{shape: shape, halfExtents: desc.halfExtents}, nil
}

// BodyKind distinguishes immovable from simulated bodies.
type BodyKind int

const (
	BodyFixed BodyKind = iota + 1
	BodyDynamic
)

func (k BodyKind) String() string {
	switch k {
	case BodyFixed:
		return "fixed"
	case BodyDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// BodyDesc describes a body before it exists.
type BodyDesc struct {
	kind        BodyKind
	translation mgl64.Vec2
	rotation    float64
}

// FixedBody describes an immovable body.
func FixedBody() BodyDesc { return BodyDesc{kind: BodyFixed} }

// DynamicBody describes a simulated body.
func DynamicBody() BodyDesc { return BodyDesc{kind: BodyDynamic} }

// SetTranslation sets the initial position.
func (d BodyDesc) SetTranslation(x, y float64) BodyDesc {
	d.translation = mgl64.Vec2{x, y}
	return d
}

// SetRotation sets the initial angle in radians.
func (d BodyDesc) SetRotation(angle float64) BodyDesc {
	d.rotation = angle
	return d
}

// Body is a rigid body living in a World.
type Body struct {
	kind   BodyKind
	body   *cp.Body
	mass   float64
	moment float64
}

// Kind returns whether the body is fixed or dynamic.
func (b *Body) Kind() BodyKind { return b.kind }

// Translation returns the body's current position.
func (b *Body) Translation() mgl64.Vec3 {
	p := b.body.Position()
	return mgl64.Vec3{p.X, p.Y, 0}
}

// Rotation returns the body's current orientation.
func (b *Body) Rotation() mgl64.Quat {
	return mgl64.QuatRotate(b.body.Angle(), zAxis)
}

// Mass returns the accumulated collider mass (0 for fixed bodies).
func (b *Body) Mass() float64 { return b.mass }

// ColliderDesc describes a box collider.
type ColliderDesc struct {
	halfExtents mgl64.Vec2
	restitution float64
	friction    float64
	density     float64
}

// Cuboid describes a box with the given half extents.
func Cuboid(hx, hy float64) ColliderDesc {
	return ColliderDesc{halfExtents: mgl64.Vec2{hx, hy}, density: 1}
}

// SetRestitution sets the bounciness coefficient.
func (d ColliderDesc) SetRestitution(r float64) ColliderDesc {
	d.restitution = r
	return d
}

// SetFriction sets the friction coefficient.
func (d ColliderDesc) SetFriction(f float64) ColliderDesc {
	d.friction = f
	return d
}

// SetDensity sets mass per unit area.
func (d ColliderDesc) SetDensity(density float64) ColliderDesc {
	d.density = density
	return d
}

// Collider is a shape attached to a body.
type Collider struct {
	shape       *cp.Shape
	halfExtents mgl64.Vec2
}

// Restitution returns the collider's bounciness.
func (c *Collider) Restitution() float64 { return c.shape.Elasticity() }

// Friction returns the collider's friction coefficient.
func (c *Collider) Friction() float64 { return c.shape.Friction() }

// HalfExtents returns the collider's half width and half height.
func (c *Collider) HalfExtents() mgl64.Vec2 { return c.halfExtents }
