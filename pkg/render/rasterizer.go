package render

import (
	"math"
	"sort"

	"github.com/taigrr/fireball/pkg/math3d"
	"github.com/taigrr/fireball/pkg/scene"
)

// Rasterizer draws scene graphs into a framebuffer. Markers are flat
// shaded impostors: spheres become circles, discs become ellipses
// foreshortened by their normal.
type Rasterizer struct {
	camera *Camera
	fb     *Framebuffer

	sprites []sprite
}

type sprite struct {
	node  *scene.Node
	x, y  float64
	depth float64
}

// NewRasterizer creates a rasterizer over camera and fb.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	return &Rasterizer{camera: camera, fb: fb}
}

// Framebuffer returns the target buffer.
func (r *Rasterizer) Framebuffer() *Framebuffer {
	return r.fb
}

// ClearDepth resets the depth buffer.
func (r *Rasterizer) ClearDepth() {
	r.fb.ClearDepth()
}

// DrawGraph clears to the graph background and draws every visible node.
// World transforms must be current. Line sets go first; markers are then
// sorted far to near and blended in that order.
func (r *Rasterizer) DrawGraph(g *scene.Graph) {
	r.fb.BG = FromRGBA(g.Background)
	r.fb.Clear()
	if r.fb.Empty() {
		return
	}
	vp := r.camera.ViewProjection()

	r.sprites = r.sprites[:0]
	g.Scene.Walk(func(n *scene.Node) bool {
		if !n.Visible {
			return false
		}
		switch n.Kind {
		case scene.KindLines:
			r.drawLines(vp, n)
		case scene.KindDisc, scene.KindSphere:
			x, y, depth, ok := r.camera.project(vp, n.WorldCenter(), r.fb.Width, r.fb.Height)
			if ok && n.Material.Opacity > 0 {
				r.sprites = append(r.sprites, sprite{node: n, x: x, y: y, depth: depth})
			}
		}
		return true
	})

	sort.SliceStable(r.sprites, func(i, j int) bool {
		return r.sprites[i].depth > r.sprites[j].depth
	})
	for _, s := range r.sprites {
		r.drawMarker(s)
	}
}

func (r *Rasterizer) drawLines(vp math3d.Mat4, n *scene.Node) {
	if n.Lines == nil {
		return
	}
	world := n.World()
	c := FromRGBA(n.Material.Color)
	alpha := n.Material.Opacity
	width := max(1, int(math.Round(n.Material.Width)))
	pts := n.Lines.Points
	for i := 0; i+1 < len(pts); i += 2 {
		a := world.MulVec3(pts[i])
		b := world.MulVec3(pts[i+1])
		x0, y0, _, ok0 := r.camera.project(vp, a, r.fb.Width, r.fb.Height)
		x1, y1, _, ok1 := r.camera.project(vp, b, r.fb.Width, r.fb.Height)
		if !ok0 || !ok1 {
			continue
		}
		for w := range width {
			r.fb.DrawLineAlpha(int(x0), int(y0)+w, int(x1), int(y1)+w, c, alpha)
		}
	}
}

func (r *Rasterizer) drawMarker(s sprite) {
	n := s.node
	radius := n.WorldRadius() * r.camera.PixelsPerUnit(s.depth, r.fb.Height)
	if radius <= 0 || math.IsNaN(radius) {
		return
	}
	// keep distant markers visible as at least one pixel
	radius = math.Max(radius, 0.5)
	c := FromRGBA(n.Material.Color)

	if n.Kind != scene.KindDisc {
		r.fb.FillCircle(s.x, s.y, radius, s.depth, c, n.Material.Opacity)
		return
	}

	center := n.WorldCenter()
	normal := n.WorldNormal()
	view := center.Sub(r.camera.Position).Normalize()
	minor := math.Max(radius*math.Abs(normal.Dot(view)), 0.5)

	// screen direction of the normal gives the foreshortened axis
	tip := center.Add(normal.Scale(n.WorldRadius()))
	tx, ty, _, ok := r.camera.WorldToScreen(tip, r.fb.Width, r.fb.Height)
	ux, uy := tx-s.x, ty-s.y
	l := math.Hypot(ux, uy)
	if !ok || l < 1e-9 {
		r.fb.FillCircle(s.x, s.y, minor, s.depth, c, n.Material.Opacity)
		return
	}
	r.fb.FillEllipse(s.x, s.y, radius, minor, ux/l, uy/l, s.depth, c, n.Material.Opacity)
}
