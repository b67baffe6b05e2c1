// Package view ties a built scene, its animation driver, the camera, the
// picker and a framebuffer into one host-facing component.
package view

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"fortio.org/log"

	"github.com/taigrr/fireball/pkg/anim"
	"github.com/taigrr/fireball/pkg/config"
	"github.com/taigrr/fireball/pkg/math3d"
	"github.com/taigrr/fireball/pkg/pick"
	"github.com/taigrr/fireball/pkg/render"
	"github.com/taigrr/fireball/pkg/scene"
)

// ErrSurfaceUnavailable is returned by FrameTick before Mount, after
// Unmount, or while the surface has no area. The frame is skipped.
var ErrSurfaceUnavailable = errors.New("render surface unavailable")

// MaxSurfaceSize bounds each surface dimension.
const MaxSurfaceSize = render.MaxSize

// Detail is the payload of an open-detail request.
type Detail struct {
	Key      int         `json:"key"`
	Position math3d.Vec3 `json:"position"` // world-space center of the active point
	Layers   int         `json:"layers"`   // glow markers around it
	Cores    int         `json:"cores"`    // pickable core markers
}

// Options are the host-side settings of a view.
type Options struct {
	FPS  int
	Seed int64
}

// Status is a snapshot of the view for overlays.
type Status struct {
	Width, Height int
	Hovering      bool
	HoverKey      int
	Layer         int
	Up            bool
	WaveSteps     int
	Angle         float64
	Distance      float64
}

// View is one mounted visualization. It is not safe for concurrent use;
// Run serializes host events and ticks onto one goroutine.
type View struct {
	cfg  config.Config
	opts Options
	rng  *rand.Rand

	graph  *scene.Graph
	camera *render.Camera
	driver *anim.Driver
	picker *pick.Controller
	fb     *render.Framebuffer
	raster *render.Rasterizer

	width, height int
	mounted       bool
	last          time.Time

	// OnOpenDetail is called on release over a hovered active point.
	OnOpenDetail func(Detail)
	// OnCursor is called when the pointer styling changes.
	OnCursor func(pick.Cursor)
}

// New validates cfg and builds the scene. The view draws nothing until
// Mount.
func New(cfg config.Config, opts Options) (*View, error) {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	v := &View{
		opts:   opts,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		camera: render.NewCamera(),
		fb:     render.NewFramebuffer(0, 0),
	}
	v.raster = render.NewRasterizer(v.camera, v.fb)
	v.picker = pick.NewController(v.camera, nil)
	v.picker.OpenDetail = v.openDetail
	v.picker.OnCursor = func(c pick.Cursor) {
		if v.OnCursor != nil {
			v.OnCursor(c)
		}
	}
	if err := v.Rebuild(cfg); err != nil {
		return nil, err
	}
	return v, nil
}

// Rebuild replaces the scene with one built from cfg. Animation state and
// hover are reset; the surface stays mounted. On error the current scene
// is kept.
func (v *View) Rebuild(cfg config.Config) error {
	g, err := scene.Build(cfg, v.rng)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	v.cfg = cfg
	v.graph = g
	v.camera.SetFOV(cfg.FOV * math.Pi / 180)
	v.camera.SetClipPlanes(cfg.Near, cfg.Far)
	v.driver = anim.NewDriver(cfg, g, v.camera, v.opts.FPS)
	v.camera.SetPosition(v.driver.Controls.Eye())
	v.camera.LookAt(math3d.Zero3())
	v.picker.SetTargets(g.Registry)
	v.last = time.Time{}

	st := g.Stats()
	log.Infof("Scene built: %d shells, %d discs, %d active points, %d pickable markers",
		st.Shells, st.Discs, st.Actives, st.RegistrySize)
	return nil
}

// Mount attaches a width x height pixel surface. Each dimension must be
// in 1..MaxSurfaceSize.
func (v *View) Mount(width, height int) error {
	if width <= 0 || height <= 0 || width > MaxSurfaceSize || height > MaxSurfaceSize {
		return fmt.Errorf("%w: mount %dx%d", ErrSurfaceUnavailable, width, height)
	}
	v.mounted = true
	v.Resize(width, height)
	return nil
}

// Unmount detaches the surface; later ticks are skipped.
func (v *View) Unmount() {
	v.mounted = false
}

// Resize updates the surface size, the framebuffer and the camera aspect.
// A zero size is allowed and pauses drawing until the next resize; so
// does a size above MaxSurfaceSize.
func (v *View) Resize(width, height int) {
	if width <= 0 || height <= 0 || width > MaxSurfaceSize || height > MaxSurfaceSize {
		width, height = 0, 0
	}
	v.width, v.height = width, height
	v.fb.Resize(v.width, v.height)
	if v.width > 0 && v.height > 0 {
		v.camera.SetAspectRatio(float64(v.width) / float64(v.height))
	}
}

// Size returns the surface size.
func (v *View) Size() (width, height int) {
	return v.width, v.height
}

// PointerMove updates the hover from surface coordinates and reports
// whether an active point is hovered.
func (v *View) PointerMove(x, y float64) bool {
	return v.picker.PointerMove(x, y, v.width, v.height)
}

// PointerUp opens the detail of the hovered active point, if any.
func (v *View) PointerUp() {
	v.picker.PointerUp()
}

// Wheel zooms the orbit camera; positive delta moves away.
func (v *View) Wheel(delta float64) {
	v.driver.Controls.Zoom(delta)
}

// Drag orbits the camera by a pointer delta in surface pixels.
func (v *View) Drag(dx, dy float64) {
	v.driver.Controls.Drag(dx, dy)
}

// ResetCamera returns the orbit controls to their starting pose.
func (v *View) ResetCamera() {
	v.driver.Controls.Reset()
}

// FrameTick advances the animation to now and draws a frame. The returned
// framebuffer is owned by the view and valid until the next call.
func (v *View) FrameTick(now time.Time) (*render.Framebuffer, error) {
	if !v.mounted || v.fb.Empty() {
		return nil, fmt.Errorf("%w: %dx%d mounted=%v", ErrSurfaceUnavailable, v.width, v.height, v.mounted)
	}
	var dt time.Duration
	if !v.last.IsZero() {
		dt = now.Sub(v.last)
	}
	v.last = now

	v.driver.Tick(now, dt)
	v.raster.DrawGraph(v.graph)
	return v.fb, nil
}

// Status reports the current state.
func (v *View) Status() Status {
	st := v.driver.State
	return Status{
		Width:     v.width,
		Height:    v.height,
		Hovering:  v.picker.Hovering,
		HoverKey:  v.picker.HoverKey,
		Layer:     st.CurrentLayer,
		Up:        st.Up,
		WaveSteps: v.driver.WaveSteps(),
		Angle:     st.Angle,
		Distance:  v.driver.Controls.Distance,
	}
}

// Config returns the configuration the scene was built from.
func (v *View) Config() config.Config {
	return v.cfg
}

// Graph returns the current scene.
func (v *View) Graph() *scene.Graph {
	return v.graph
}

// Camera returns the view camera.
func (v *View) Camera() *render.Camera {
	return v.camera
}

// Driver returns the animation driver of the current scene.
func (v *View) Driver() *anim.Driver {
	return v.driver
}

// Framebuffer returns the last drawn frame.
func (v *View) Framebuffer() *render.Framebuffer {
	return v.fb
}

func (v *View) openDetail(key int) {
	d := Detail{Key: key}
	for _, st := range v.graph.Stacks {
		if st.Index == key {
			d.Position = st.Group.WorldCenter()
			d.Layers = len(st.Glow)
			d.Cores = len(st.Cores)
			break
		}
	}
	log.Debugf("Open detail for key %d", key)
	if v.OnOpenDetail != nil {
		v.OnOpenDetail(d)
	}
}
