package render

import (
	"math"

	"github.com/taigrr/fireball/pkg/math3d"
)

// Camera is a perspective camera.
type Camera struct {
	Position math3d.Vec3
	Target   math3d.Vec3
	Up       math3d.Vec3
	FOV      float64 // vertical, radians
	Aspect   float64
	Near     float64
	Far      float64
}

// NewCamera returns a camera at (0, 0, 5) looking at the origin.
func NewCamera() *Camera {
	return &Camera{
		Position: math3d.V3(0, 0, 5),
		Up:       math3d.V3(0, 1, 0),
		FOV:      math.Pi / 3,
		Aspect:   1,
		Near:     0.1,
		Far:      100,
	}
}

// SetAspectRatio sets width / height.
func (c *Camera) SetAspectRatio(aspect float64) {
	if aspect > 0 && !math.IsInf(aspect, 0) {
		c.Aspect = aspect
	}
}

// SetFOV sets the vertical field of view in radians.
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
}

// SetClipPlanes sets the near and far planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near, c.Far = near, far
}

// SetPosition moves the camera without changing its target.
func (c *Camera) SetPosition(p math3d.Vec3) {
	c.Position = p
}

// LookAt aims the camera at target.
func (c *Camera) LookAt(target math3d.Vec3) {
	c.Target = target
}

// ViewMatrix returns the world-to-camera transform.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	return math3d.LookAt(c.Position, c.Target, c.up())
}

// ProjectionMatrix returns the perspective projection.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	return math3d.Perspective(c.FOV, c.Aspect, c.Near, c.Far)
}

// ViewProjection returns projection * view.
func (c *Camera) ViewProjection() math3d.Mat4 {
	return c.ProjectionMatrix().Mul(c.ViewMatrix())
}

// up avoids a degenerate basis when looking straight along Up.
func (c *Camera) up() math3d.Vec3 {
	f := c.Target.Sub(c.Position).Normalize()
	if math.Abs(f.Dot(c.Up)) > 0.9999 {
		return math3d.V3(0, 0, -1)
	}
	return c.Up
}

// Basis returns the unit forward, right and up vectors.
func (c *Camera) Basis() (forward, right, up math3d.Vec3) {
	forward = c.Target.Sub(c.Position).Normalize()
	right = forward.Cross(c.up()).Normalize()
	up = right.Cross(forward)
	return forward, right, up
}

// WorldToScreen projects p to pixel coordinates on a width x height
// surface. depth is the distance along the view axis; visible is false
// behind the camera or outside the clip planes.
func (c *Camera) WorldToScreen(p math3d.Vec3, width, height int) (x, y, depth float64, visible bool) {
	return c.project(c.ViewProjection(), p, width, height)
}

func (c *Camera) project(vp math3d.Mat4, p math3d.Vec3, width, height int) (x, y, depth float64, visible bool) {
	clip := vp.MulVec4(math3d.V4FromV3(p, 1))
	if clip.W <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.PerspectiveDivide()
	x = (ndc.X + 1) / 2 * float64(width)
	y = (1 - ndc.Y) / 2 * float64(height)
	return x, y, clip.W, ndc.Z >= -1 && ndc.Z <= 1
}

// PixelsPerUnit returns the screen size of one world unit at the given
// view depth on a surface height pixels tall.
func (c *Camera) PixelsPerUnit(depth float64, height int) float64 {
	if depth <= 0 {
		return 0
	}
	return float64(height) / (2 * depth * math.Tan(c.FOV/2))
}

// RayFromNDC returns the world-space ray through a point in normalized
// device coordinates (x right, y up, both in [-1, 1]). ok is false for a
// degenerate camera.
func (c *Camera) RayFromNDC(ndc math3d.Vec2) (ray math3d.Ray, ok bool) {
	forward, right, up := c.Basis()
	if forward.LenSq() == 0 || right.LenSq() == 0 || !ndc.IsFinite() {
		return math3d.Ray{}, false
	}
	t := math.Tan(c.FOV / 2)
	dir := forward.
		Add(right.Scale(ndc.X * t * c.Aspect)).
		Add(up.Scale(ndc.Y * t))
	return math3d.NewRay(c.Position, dir), true
}
