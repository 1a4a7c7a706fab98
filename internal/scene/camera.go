package scene

import "github.com/go-gl/mathgl/mgl64"

// Camera is an orthographic side view of the XY plane.
type Camera struct {
	Target     mgl64.Vec2 // World point at the centre of the view
	ViewHeight float64    // World units visible vertically

	width, height float64 // Output size in pixels
	aspect        float64
	proj          mgl64.Mat4
}

// NewCamera creates a camera for an output of width x height pixels.
func NewCamera(target mgl64.Vec2, viewHeight float64, width, height int) *Camera {
	c := &Camera{Target: target, ViewHeight: viewHeight}
	c.Resize(width, height)
	return c
}

// Resize updates the output size, aspect ratio and projection.
func (c *Camera) Resize(width, height int) {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	c.width, c.height = float64(width), float64(height)
	c.aspect = c.width / c.height

	halfH := c.ViewHeight / 2
	halfW := halfH * c.aspect
	c.proj = mgl64.Ortho2D(
		c.Target[0]-halfW, c.Target[0]+halfW,
		c.Target[1]-halfH, c.Target[1]+halfH,
	)
}

// Aspect returns width / height of the output.
func (c *Camera) Aspect() float64 { return c.aspect }

// Size returns the output size in pixels.
func (c *Camera) Size() (width, height int) { return int(c.width), int(c.height) }

// Project maps a world point to output pixel coordinates, y growing downwards.
func (c *Camera) Project(p mgl64.Vec3) mgl64.Vec2 {
	ndc := c.proj.Mul4x1(p.Vec4(1))
	return mgl64.Vec2{
		(ndc[0] + 1) / 2 * c.width,
		(1 - ndc[1]) / 2 * c.height,
	}
}

// ProjectMesh projects the corners of m.
func (c *Camera) ProjectMesh(m Mesh) [4]mgl64.Vec2 {
	var out [4]mgl64.Vec2
	for i, corner := range m.Corners() {
		out[i] = c.Project(corner)
	}
	return out
}
