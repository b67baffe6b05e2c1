package view

import (
	"context"
	"errors"
	"time"

	"fortio.org/log"

	"github.com/taigrr/fireball/pkg/config"
	"github.com/taigrr/fireball/pkg/render"
)

// Event is a host notification applied on the loop goroutine.
type Event interface {
	Apply(v *View) error
}

// MountEvent attaches a surface.
type MountEvent struct{ Width, Height int }

// ResizeEvent changes the surface size.
type ResizeEvent struct{ Width, Height int }

// PointerMoveEvent is a pointer position in surface pixels.
type PointerMoveEvent struct{ X, Y float64 }

// PointerUpEvent is a pointer release.
type PointerUpEvent struct{}

// WheelEvent zooms; positive moves away.
type WheelEvent struct{ Delta float64 }

// DragEvent orbits by a pointer delta.
type DragEvent struct{ DX, DY float64 }

// RebuildEvent swaps in a new configuration.
type RebuildEvent struct{ Config config.Config }

// CallEvent runs an arbitrary function against the view.
type CallEvent func(v *View) error

func (e MountEvent) Apply(v *View) error {
	return v.Mount(e.Width, e.Height)
}

func (e ResizeEvent) Apply(v *View) error {
	v.Resize(e.Width, e.Height)
	return nil
}

func (e PointerMoveEvent) Apply(v *View) error {
	v.PointerMove(e.X, e.Y)
	return nil
}

func (PointerUpEvent) Apply(v *View) error {
	v.PointerUp()
	return nil
}

func (e WheelEvent) Apply(v *View) error {
	v.Wheel(e.Delta)
	return nil
}

func (e DragEvent) Apply(v *View) error {
	v.Drag(e.DX, e.DY)
	return nil
}

func (e RebuildEvent) Apply(v *View) error {
	return v.Rebuild(e.Config)
}

func (f CallEvent) Apply(v *View) error {
	return f(v)
}

// PresentFunc shows a drawn frame. An error stops the loop.
type PresentFunc func(fb *render.Framebuffer, v *View) error

// Run drives v at fps until ctx is done or events is closed, applying host
// events between ticks. It is the only goroutine that touches v while it
// runs. Event errors are logged and the loop continues. Frames skipped
// for lack of a surface are not presented.
func Run(ctx context.Context, v *View, fps int, events <-chan Event, present PresentFunc) error {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := ev.Apply(v); err != nil {
				log.Warnf("Event %T: %v", ev, err)
			}
		case now := <-ticker.C:
			fb, err := v.FrameTick(now)
			if errors.Is(err, ErrSurfaceUnavailable) {
				continue
			}
			if err != nil {
				return err
			}
			if present != nil {
				if err := present(fb, v); err != nil {
					return err
				}
			}
		}
	}
}
