package anim

import (
	"math"
	"time"

	"github.com/taigrr/fireball/pkg/config"
	"github.com/taigrr/fireball/pkg/math3d"
	"github.com/taigrr/fireball/pkg/scene"
)

// Aimer is the camera surface the driver moves.
type Aimer interface {
	SetPosition(p math3d.Vec3)
	LookAt(target math3d.Vec3)
}

// Driver runs the per-tick update for one graph.
type Driver struct {
	State    *State
	Controls *Controls

	graph     *scene.Graph
	camera    Aimer
	delay     int
	orbitStep float64
	scaled    bool
	steps     int
}

// NewDriver wires a driver to a built graph and its camera.
func NewDriver(cfg config.Config, g *scene.Graph, cam Aimer, fps int) *Driver {
	return &Driver{
		State:     NewState(cfg.Range, cfg.LayerCount()-1),
		Controls:  NewControls(fps, cfg.CameraZ),
		graph:     g,
		camera:    cam,
		delay:     cfg.Delay,
		orbitStep: cfg.OrbitStep,
		scaled:    cfg.FrameRateIndependent,
	}
}

// WaveSteps returns how many wave steps have run.
func (d *Driver) WaveSteps() int {
	return d.steps
}

// Tick advances everything by one display tick. now drives the line-set
// motion; dt is the time since the previous tick.
func (d *Driver) Tick(now time.Time, dt time.Duration) {
	d.Controls.Update(dt)
	if d.camera != nil {
		d.camera.SetPosition(d.Controls.Eye())
		d.camera.LookAt(math3d.Zero3())
	}

	step := d.orbitStep
	if d.scaled && dt > 0 {
		step *= dt.Seconds() * 60
	}
	d.State.Angle += step
	d.graph.Root.Rotation.Y = d.State.Angle

	UpdateLines(d.graph.Lines, now)

	if d.State.Advance(d.delay) {
		d.waveStep()
	}
	d.graph.UpdateWorld()
}

func (d *Driver) waveStep() {
	layer, visible := d.State.Step()
	for _, st := range d.graph.Stacks {
		if layer >= 0 && layer < len(st.Glow) {
			st.Glow[layer].Visible = visible
		}
	}
	d.steps++
}

// UpdateLines sets every line set's rotation and scale from wall-clock
// time. The scale is negative, which mirrors the shared geometry.
func UpdateLines(lines []scene.LineSet, now time.Time) {
	t := float64(now.UnixMilli()) * 0.0001
	pulse := 1 + 0.5*math.Sin(7*t)
	for _, ls := range lines {
		i := float64(ls.Index)
		ls.Node.Rotation.Y = t * -(i + 1)
		ls.Node.SetScalar(-(ls.OriginalScale / 2) * (i/5 + 1) * pulse)
	}
}
