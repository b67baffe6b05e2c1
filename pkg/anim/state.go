// Package anim advances the fireball once per display tick: orbit
// controls, root rotation, background line sets and the glow wave.
package anim

// State is the per-view animation state. A fresh State belongs to every
// view construction; nothing here is shared between views.
type State struct {
	Angle        float64 // ever increasing root rotation
	Frame        int
	CurrentLayer int // wave cursor, always in [lower, top]
	Up           bool

	lower, top int
}

// NewState starts the wave cursor at lower, moving up. top is the last
// glow layer index (layers-1).
func NewState(lower, top int) *State {
	return &State{CurrentLayer: lower, Up: true, lower: lower, top: top}
}

// Bounds returns the cursor range.
func (s *State) Bounds() (lower, top int) {
	return s.lower, s.top
}

// Advance counts one frame and reports whether this frame runs a wave step.
func (s *State) Advance(delay int) bool {
	s.Frame++
	return delay > 0 && s.Frame%delay == 0
}

// Step performs one wave step. It returns the layer to update and whether
// it becomes visible, then moves the cursor one layer and flips direction
// at the bounds.
func (s *State) Step() (layer int, visible bool) {
	layer, visible = s.CurrentLayer, s.Up
	if s.top <= s.lower {
		return layer, visible
	}
	if s.Up {
		s.CurrentLayer++
		if s.CurrentLayer >= s.top {
			s.CurrentLayer = s.top
			s.Up = false
		}
	} else {
		s.CurrentLayer--
		if s.CurrentLayer <= s.lower {
			s.CurrentLayer = s.lower
			s.Up = true
		}
	}
	return layer, visible
}
