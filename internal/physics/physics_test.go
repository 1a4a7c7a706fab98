package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func newTestWorld() *World {
	return NewWorld(WorldConfig{Gravity: -9.81, FixedStep: 0.016, Iterations: 10})
}

func addGround(t *testing.T, w *World) *Body {
	t.Helper()
	ground, err := w.CreateRigidBody(FixedBody())
	if err != nil {
		t.Fatalf("create ground: %v", err)
	}
	if _, err := w.CreateCollider(Cuboid(20, 0.1).SetFriction(0.8), ground); err != nil {
		t.Fatalf("ground collider: %v", err)
	}
	return ground
}

func TestDynamicBodyFallsAndRestsOnGround(t *testing.T) {
	w := newTestWorld()
	ground := addGround(t, w)

	cube, err := w.CreateRigidBody(DynamicBody().SetTranslation(0, 5))
	if err != nil {
		t.Fatalf("create cube: %v", err)
	}
	if _, err := w.CreateCollider(Cuboid(0.5, 0.5).SetRestitution(0.3).SetFriction(0.5), cube); err != nil {
		t.Fatalf("cube collider: %v", err)
	}

	start := cube.Translation()
	w.Step()
	if after := cube.Translation(); after[1] >= start[1] {
		t.Fatalf("cube did not fall: %v -> %v", start, after)
	}

	for i := 0; i < 500; i++ {
		w.Step()
	}

	rest := cube.Translation()
	if rest[1] < 0.3 || rest[1] > 0.8 {
		t.Errorf("cube resting height = %v, want on top of the ground", rest[1])
	}
	if g := ground.Translation(); g != (mgl64.Vec3{}) {
		t.Errorf("fixed body moved to %v", g)
	}
	if w.BodyCount() != 2 {
		t.Errorf("BodyCount = %d, want 2", w.BodyCount())
	}
}

func TestRotationFollowsAngle(t *testing.T) {
	w := newTestWorld()
	b, err := w.CreateRigidBody(FixedBody().SetRotation(math.Pi / 2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got := b.Rotation().Rotate(mgl64.Vec3{1, 0, 0})
	if !got.ApproxEqualThreshold(mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Fatalf("rotated x axis = %v, want y axis", got)
	}
}

func TestColliderProperties(t *testing.T) {
	w := newTestWorld()
	b, _ := w.CreateRigidBody(DynamicBody())
	c, err := w.CreateCollider(Cuboid(0.5, 0.25).SetRestitution(0.3).SetFriction(0.5).SetDensity(2), b)
	if err != nil {
		t.Fatalf("create collider: %v", err)
	}
	if c.Restitution() != 0.3 || c.Friction() != 0.5 {
		t.Errorf("restitution/friction = %v/%v, want 0.3/0.5", c.Restitution(), c.Friction())
	}
	if c.HalfExtents() != (mgl64.Vec2{0.5, 0.25}) {
		t.Errorf("half extents = %v", c.HalfExtents())
	}
	if b.Mass() != 1 { // 2 * (1 * 0.5)
		t.Errorf("mass = %v, want 1", b.Mass())
	}
	if b.Kind() != BodyDynamic || b.Kind().String() != "dynamic" {
		t.Errorf("kind = %v", b.Kind())
	}
}

func TestCreateErrors(t *testing.T) {
	w := newTestWorld()
	if _, err := w.CreateRigidBody(BodyDesc{}); !errors.Is(err, ErrUnknownBodyKind) {
		t.Errorf("zero BodyDesc error = %v, want ErrUnknownBodyKind", err)
	}
	if _, err := w.CreateCollider(Cuboid(1, 1), nil); !errors.Is(err, ErrNilBody) {
		t.Errorf("nil body error = %v, want ErrNilBody", err)
	}
	b, _ := w.CreateRigidBody(FixedBody())
	if _, err := w.CreateCollider(Cuboid(0, 1), b); !errors.Is(err, ErrBadShape) {
		t.Errorf("zero extent error = %v, want ErrBadShape", err)
	}
}
