package web

import (
	"github.com/taigrr/fireball/pkg/view"
)

// clientMessage is anything the page sends. Fields not used by a type
// are left zero.
type clientMessage struct {
	Type   string  `json:"type"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	DX     float64 `json:"dx,omitempty"`
	DY     float64 `json:"dy,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
}

func (m clientMessage) event() (view.Event, bool) {
	switch m.Type {
	case "mount":
		return view.MountEvent{Width: m.Width, Height: m.Height}, true
	case "resize":
		return view.ResizeEvent{Width: m.Width, Height: m.Height}, true
	case "pointermove":
		return view.PointerMoveEvent{X: m.X, Y: m.Y}, true
	case "pointerup":
		return view.PointerUpEvent{}, true
	case "wheel":
		return view.WheelEvent{Delta: m.Delta}, true
	case "drag":
		return view.DragEvent{DX: m.DX, DY: m.DY}, true
	case "reset":
		return view.CallEvent(func(v *view.View) error {
			v.ResetCamera()
			return nil
		}), true
	}
	return nil, false
}

type detailMessage struct {
	Type string `json:"type"`
	view.Detail
}

type cursorMessage struct {
	Type   string `json:"type"`
	Cursor string `json:"cursor"`
}
