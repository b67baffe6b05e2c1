package scene

import (
	"fmt"
	"image/color"
	"math"
	"math/rand"

	"github.com/taigrr/fireball/pkg/config"
	"github.com/taigrr/fireball/pkg/layout"
	"github.com/taigrr/fireball/pkg/math3d"
)

// Shell is one concentric band of disc markers.
type Shell struct {
	Name    string
	Radius  float64
	Count   int
	Size    float64
	Group   *Node
	Markers []*Node
}

// ActiveStack is the marker cluster of one active point: the pickable core
// spheres and the glow spheres the wave toggles.
type ActiveStack struct {
	Index int // outer point index, also the registry key
	Point layout.Point
	Group *Node
	Cores []*Node
	Glow  []*Node // Glow[k] has radius maxLayerRadius + (k+1)*offset
}

// LineSet is one rotating background layer sharing the environment
// segments.
type LineSet struct {
	Node          *Node
	OriginalScale float64
	Index         int
}

// Graph is a built scene.
type Graph struct {
	Scene      *Node // top level: Root plus the line sets
	Root       *Node // rotating group holding shells and stacks
	Segments   *Segments
	Lines      []LineSet
	Shells     []Shell
	Stacks     []ActiveStack
	Registry   *Registry
	Background color.RGBA
}

// UpdateWorld refreshes every world transform.
func (g *Graph) UpdateWorld() {
	g.Scene.UpdateWorld()
}

// Stats summarizes a graph.
type Stats struct {
	Shells       int
	Discs        int
	Actives      int
	CoreMarkers  int
	GlowMarkers  int
	LineSets     int
	Segments     int
	RegistrySize int
}

// Stats counts the graph contents.
func (g *Graph) Stats() Stats {
	s := Stats{
		Shells:       len(g.Shells),
		Actives:      len(g.Stacks),
		LineSets:     len(g.Lines),
		RegistrySize: g.Registry.Len(),
	}
	if g.Segments != nil {
		s.Segments = g.Segments.Len()
	}
	for _, sh := range g.Shells {
		s.Discs += len(sh.Markers)
	}
	for _, st := range g.Stacks {
		s.CoreMarkers += len(st.Cores)
		s.GlowMarkers += len(st.Glow)
	}
	return s
}

// Build assembles the scene for cfg. rng supplies the environment
// segments, the line-set start rotations and the cosmetic marker size
// jitter; positions never depend on it.
func Build(cfg config.Config, rng *rand.Rand) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	palette, err := cfg.PaletteColors()
	if err != nil {
		return nil, err
	}
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return nil, err
	}

	g := &Graph{
		Scene:      NewGroup("scene"),
		Root:       NewGroup("root"),
		Registry:   NewRegistry(),
		Background: bg,
	}

	if err := g.buildLines(cfg, rng); err != nil {
		return nil, err
	}
	for i, c := range cfg.Circles {
		shell, err := buildShell(i, c, cfg.ResolutionCircle, palette, rng)
		if err != nil {
			return nil, fmt.Errorf("circle %d: %w", i, err)
		}
		g.Shells = append(g.Shells, shell)
		g.Root.Add(shell.Group)
	}
	if err := g.buildActives(cfg, palette); err != nil {
		return nil, err
	}

	g.Scene.Add(g.Root)
	for _, ls := range g.Lines {
		g.Scene.Add(ls.Node)
	}
	g.UpdateWorld()
	return g, nil
}

func (g *Graph) buildLines(cfg config.Config, rng *rand.Rand) error {
	seg := &Segments{Points: make([]math3d.Vec3, 0, 2*cfg.Environment)}
	for range cfg.Environment {
		v := math3d.V3(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1).
			Normalize().
			Scale(cfg.EnvironmentRadius)
		seg.Points = append(seg.Points, v, v.Scale(rng.Float64()*0.01+1))
	}
	g.Segments = seg

	for i, lp := range cfg.LineParameters {
		c, err := config.ParseColor(lp.Color)
		if err != nil {
			return fmt.Errorf("%w: line_parameters[%d]: %w", config.ErrInvalidConfiguration, i, err)
		}
		n := NewLines(fmt.Sprintf("lines-%d", i), seg, Material{Color: c, Opacity: lp.Opacity, Width: lp.Width})
		n.SetScalar(lp.Scale)
		n.Rotation.Y = rng.Float64() * math.Pi
		g.Lines = append(g.Lines, LineSet{Node: n, OriginalScale: lp.Scale, Index: i})
	}
	return nil
}

func buildShell(idx int, c config.Circle, res int, palette []color.RGBA, rng *rand.Rand) (Shell, error) {
	points, err := layout.Generate(c.Count, c.Radius)
	if err != nil {
		return Shell{}, err
	}
	shell := Shell{
		Name:    fmt.Sprintf("circle-%d", idx),
		Radius:  c.Radius,
		Count:   c.Count,
		Size:    c.Size,
		Group:   NewGroup(fmt.Sprintf("circle-%d", idx)),
		Markers: make([]*Node, 0, len(points)),
	}
	up := math3d.V3(0, 1, 0)
	for _, p := range points {
		size := layout.MarkerSize(p.Index, c.Size, rng.Float64())
		disc := NewMarker(
			fmt.Sprintf("%s/%d", shell.Name, p.Index),
			KindDisc, size, res,
			Material{Color: palette[p.Index%len(palette)], Opacity: 1},
		)
		disc.Position = p.Position
		disc.Rotation = math3d.EulerFromMat4(math3d.LookRotation(p.Position, p.Look, up))
		shell.Markers = append(shell.Markers, disc)
		shell.Group.Add(disc)
	}
	return shell, nil
}

func (g *Graph) buildActives(cfg config.Config, palette []color.RGBA) error {
	a := cfg.Actives
	points, err := layout.Generate(a.Count, a.Radius)
	if err != nil {
		return fmt.Errorf("actives: %w", err)
	}
	group := NewGroup("actives")
	offset := float64(cfg.Offset)
	layers := float64(cfg.LayerCount())

	for _, p := range points[1:] {
		st := ActiveStack{
			Index: p.Index,
			Point: p,
			Group: NewGroup(fmt.Sprintf("active-%d", p.Index)),
		}
		st.Group.Position = p.Position

		for j := 0.0; j < a.MaxLayerRadius; j += offset {
			core := NewMarker(
				fmt.Sprintf("active-%d/core-%d", p.Index, len(st.Cores)),
				KindSphere, j+offset, cfg.ResolutionActive,
				Material{Color: palette[0], Opacity: 1},
			)
			st.Cores = append(st.Cores, core)
			st.Group.Add(core)
			g.Registry.Add(core, p.Index)
		}
		for k := range cfg.LayerCount() {
			glow := NewMarker(
				fmt.Sprintf("active-%d/glow-%d", p.Index, k),
				KindSphere, a.MaxLayerRadius+float64(k+1)*offset, cfg.ResolutionActive,
				Material{Color: palette[0], Opacity: math.Max(0, 1-float64(k)*offset/layers)},
			)
			st.Glow = append(st.Glow, glow)
			st.Group.Add(glow)
		}
		g.Stacks = append(g.Stacks, st)
		group.Add(st.Group)
	}
	g.Root.Add(group)
	return nil
}
