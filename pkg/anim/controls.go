package anim

import (
	"math"
	"time"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/fireball/pkg/math3d"
)

// Axis tracks position and velocity for one orbit axis. Velocity decays
// toward zero through a critically damped spring.
type Axis struct {
	Position  float64
	Velocity  float64
	velSpring harmonica.Spring
	velAccel  float64
}

// NewAxis creates an axis whose spring steps at fps.
func NewAxis(fps int) Axis {
	return Axis{
		// frequency 4, damping 1: moderate and no overshoot
		velSpring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0),
	}
}

// Update applies scaled velocity to position and decays velocity.
func (a *Axis) Update(scale float64) {
	a.Position += a.Velocity * scale
	a.Velocity, a.velAccel = a.velSpring.Update(a.Velocity, a.velAccel, 0)
}

const (
	maxPitch    = math.Pi/2 - 0.01
	dragGain    = 0.005 // radians of velocity per cell/pixel dragged
	zoomStep    = 0.1   // fraction of the distance per wheel notch
	minDistance = 50
	maxDistance = 2500
)

// Controls is a damped orbit camera around the origin: drag spins yaw and
// pitch, the wheel eases the distance toward a target.
type Controls struct {
	Yaw, Pitch Axis

	Distance       float64
	TargetDistance float64
	distVel        float64
	distSpring     harmonica.Spring

	fps         int
	home        float64
	frameLength time.Duration
}

// NewControls places the camera on +Z at distance.
func NewControls(fps int, distance float64) *Controls {
	if fps <= 0 {
		fps = 60
	}
	return &Controls{
		Yaw:            NewAxis(fps),
		Pitch:          NewAxis(fps),
		Distance:       distance,
		TargetDistance: distance,
		distSpring:     harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
		fps:            fps,
		home:           distance,
		frameLength:    time.Second / time.Duration(fps),
	}
}

// Drag applies an impulse from a pointer drag of (dx, dy).
func (c *Controls) Drag(dx, dy float64) {
	c.Yaw.Velocity -= dx * dragGain
	c.Pitch.Velocity += dy * dragGain
}

// Zoom moves the target distance; positive delta zooms out.
func (c *Controls) Zoom(delta float64) {
	d := c.TargetDistance * (1 + zoomStep*delta)
	c.TargetDistance = math.Max(minDistance, math.Min(maxDistance, d))
}

// Update advances the springs by one tick. dt rescales the velocity step so
// a late tick covers the time it missed; dt <= 0 means one nominal frame.
func (c *Controls) Update(dt time.Duration) {
	scale := 1.0
	if dt > 0 {
		scale = math.Min(float64(dt)/float64(c.frameLength), 6)
	}
	c.Yaw.Update(scale)
	c.Pitch.Update(scale)
	if c.Pitch.Position > maxPitch {
		c.Pitch.Position, c.Pitch.Velocity = maxPitch, 0
	} else if c.Pitch.Position < -maxPitch {
		c.Pitch.Position, c.Pitch.Velocity = -maxPitch, 0
	}
	c.Distance, c.distVel = c.distSpring.Update(c.Distance, c.distVel, c.TargetDistance)
}

// Eye returns the camera position for the current orbit.
func (c *Controls) Eye() math3d.Vec3 {
	cp := math.Cos(c.Pitch.Position)
	return math3d.V3(
		c.Distance*cp*math.Sin(c.Yaw.Position),
		c.Distance*math.Sin(c.Pitch.Position),
		c.Distance*cp*math.Cos(c.Yaw.Position),
	)
}

// Reset returns to the home position.
func (c *Controls) Reset() {
	c.Yaw = NewAxis(c.fps)
	c.Pitch = NewAxis(c.fps)
	c.Distance, c.TargetDistance, c.distVel = c.home, c.home, 0
}
