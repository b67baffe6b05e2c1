// Package pick maps pointer positions to registered markers and turns a
// release over a hovered marker into an open-detail request.
package pick

import (
	"errors"
	"fmt"
	"math"

	"fortio.org/log"

	"github.com/taigrr/fireball/pkg/math3d"
	"github.com/taigrr/fireball/pkg/scene"
)

// ErrPickQuery reports a query that could not run: a zero-sized surface,
// non-finite coordinates or a degenerate camera ray. The controller treats
// it as a miss.
var ErrPickQuery = errors.New("pick query failed")

// Cursor is the pointer styling a host should show.
type Cursor int

const (
	CursorDefault Cursor = iota
	CursorPointer
)

func (c Cursor) String() string {
	if c == CursorPointer {
		return "pointer"
	}
	return "default"
}

// Caster builds a world ray through a point in normalized device
// coordinates.
type Caster interface {
	RayFromNDC(ndc math3d.Vec2) (math3d.Ray, bool)
}

// Intersector is the pickable set.
type Intersector interface {
	Intersect(ray math3d.Ray) []scene.Hit
}

// State is the pointer state. NDC is nil until the first valid move and
// after a move that could not be converted.
type State struct {
	NDC      *math3d.Vec2
	HoverKey int // meaningful only while Hovering
	Hovering bool
}

// Controller owns the pointer state for one view.
type Controller struct {
	State

	caster  Caster
	targets Intersector
	cursor  Cursor

	// OpenDetail is called on release over a hovered marker.
	OpenDetail func(key int)
	// OnCursor is called when the cursor styling changes.
	OnCursor func(Cursor)
}

// NewController picks against targets through caster.
func NewController(caster Caster, targets Intersector) *Controller {
	return &Controller{caster: caster, targets: targets}
}

// SetTargets swaps the pickable set and clears the hover.
func (c *Controller) SetTargets(targets Intersector) {
	c.targets = targets
	c.State = State{}
	c.setCursor(CursorDefault)
}

// Cursor returns the current cursor styling.
func (c *Controller) Cursor() Cursor {
	return c.cursor
}

// ToNDC converts client coordinates on a width x height surface: x runs
// -1..1 left to right, y runs -1..1 bottom to top.
func ToNDC(clientX, clientY float64, width, height int) (math3d.Vec2, error) {
	if width <= 0 || height <= 0 {
		return math3d.Vec2{}, fmt.Errorf("%w: surface %dx%d", ErrPickQuery, width, height)
	}
	ndc := math3d.V2(
		clientX/float64(width)*2-1,
		-(clientY/float64(height))*2+1,
	)
	if !ndc.IsFinite() {
		return math3d.Vec2{}, fmt.Errorf("%w: pointer (%v, %v)", ErrPickQuery, clientX, clientY)
	}
	return ndc, nil
}

// Query returns the nearest registered hit through ndc.
func (c *Controller) Query(ndc math3d.Vec2) (scene.Hit, bool, error) {
	if c.caster == nil || c.targets == nil {
		return scene.Hit{}, false, fmt.Errorf("%w: no camera or targets", ErrPickQuery)
	}
	ray, ok := c.caster.RayFromNDC(ndc)
	if !ok || !ray.Dir.IsFinite() || math.Abs(ray.Dir.Len()-1) > 1e-6 {
		return scene.Hit{}, false, fmt.Errorf("%w: degenerate ray at %v", ErrPickQuery, ndc)
	}
	hits := c.targets.Intersect(ray)
	if len(hits) == 0 {
		return scene.Hit{}, false, nil
	}
	return hits[0], true, nil
}

// PointerMove updates hover from a pointer position and reports whether a
// marker is hovered.
func (c *Controller) PointerMove(clientX, clientY float64, width, height int) bool {
	ndc, err := ToNDC(clientX, clientY, width, height)
	if err != nil {
		log.Debugf("pick: %v", err)
		c.NDC = nil
		c.clearHover()
		return false
	}
	c.NDC = &ndc

	hit, ok, err := c.Query(ndc)
	if err != nil {
		log.Debugf("pick: %v", err)
	}
	if !ok {
		c.clearHover()
		return false
	}
	c.Hovering = true
	c.HoverKey = hit.Key
	c.setCursor(CursorPointer)
	return true
}

// PointerUp requests the detail view for the hovered key. Without an
// active hover it does nothing.
func (c *Controller) PointerUp() {
	if !c.Hovering {
		return
	}
	if c.OpenDetail != nil {
		c.OpenDetail(c.HoverKey)
	}
}

func (c *Controller) clearHover() {
	c.Hovering = false
	c.HoverKey = 0
	c.setCursor(CursorDefault)
}

func (c *Controller) setCursor(cur Cursor) {
	if cur == c.cursor {
		return
	}
	c.cursor = cur
	if c.OnCursor != nil {
		c.OnCursor(cur)
	}
}
