package term

import (
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/fireball/pkg/view"
)

const (
	// radians of drag per cell are dragGain*cellDrag in the controls
	cellDrag = 8.0
	keyDrag  = 24.0
)

// input turns terminal events into view events. It runs on the terminal
// reader goroutine and keeps only mouse tracking state; anything touching
// the host or the view is sent as an event and applied by the loop.
type input struct {
	host *Host

	down         bool
	dragged      bool
	lastX, lastY int
}

// cellToPixel maps a cell to the center of its upper half-block pixel
// pair in framebuffer space.
func cellToPixel(x, y int) (float64, float64) {
	return float64(x) + 0.5, float64(y)*2 + 1
}

// translate returns the view events for ev and whether the viewer should
// quit.
func (in *input) translate(ev uv.Event) (out []view.Event, quit bool) {
	h := in.host
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		w, ht := ev.Width, ev.Height
		out = append(out, view.CallEvent(func(v *view.View) error {
			return h.resize(v, w, ht)
		}))

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("ctrl+c", "q"):
			return nil, true
		case ev.MatchString("esc"):
			out = append(out, view.CallEvent(h.escape))
		case ev.MatchString("r"):
			out = append(out, view.CallEvent(func(v *view.View) error {
				v.ResetCamera()
				return nil
			}))
		case ev.MatchString("?", "shift+/"):
			out = append(out, view.CallEvent(h.toggleHUD))
		case ev.MatchString("+", "="):
			out = append(out, view.WheelEvent{Delta: -1})
		case ev.MatchString("-", "_"):
			out = append(out, view.WheelEvent{Delta: 1})
		case ev.MatchString("a", "left"):
			out = append(out, view.DragEvent{DX: -keyDrag})
		case ev.MatchString("d", "right"):
			out = append(out, view.DragEvent{DX: keyDrag})
		case ev.MatchString("w", "up"):
			out = append(out, view.DragEvent{DY: -keyDrag})
		case ev.MatchString("s", "down"):
			out = append(out, view.DragEvent{DY: keyDrag})
		}

	case uv.MouseClickEvent:
		if ev.Button == uv.MouseLeft {
			in.down, in.dragged = true, false
			in.lastX, in.lastY = ev.X, ev.Y
		}

	case uv.MouseMotionEvent:
		px, py := cellToPixel(ev.X, ev.Y)
		out = append(out, view.PointerMoveEvent{X: px, Y: py})
		if in.down {
			dx, dy := ev.X-in.lastX, ev.Y-in.lastY
			if dx != 0 || dy != 0 {
				in.dragged = true
				out = append(out, view.DragEvent{DX: float64(dx) * cellDrag, DY: float64(dy) * 2 * cellDrag})
			}
			in.lastX, in.lastY = ev.X, ev.Y
		}

	case uv.MouseReleaseEvent:
		if in.down && !in.dragged {
			out = append(out, view.CallEvent(h.release))
		}
		in.down = false

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			out = append(out, view.WheelEvent{Delta: -1})
		case uv.MouseWheelDown:
			out = append(out, view.WheelEvent{Delta: 1})
		}
	}
	return out, false
}
