// Package scene is a small retained-mode scene graph plus the builder that
// assembles the fireball: background line sets, shells of disc markers and
// the pickable active points with their glow layers.
package scene

import (
	"image/color"

	"github.com/taigrr/fireball/pkg/math3d"
)

// Kind is the primitive a node draws.
type Kind int

const (
	KindGroup  Kind = iota // Container only
	KindDisc               // Flat circle in the local XY plane, normal +Z
	KindSphere             // Sphere centered at the local origin
	KindLines              // Line segments from a shared Segments buffer
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindDisc:
		return "disc"
	case KindSphere:
		return "sphere"
	case KindLines:
		return "lines"
	}
	return "unknown"
}

// Material is the flat color of a marker or line set.
type Material struct {
	Color   color.RGBA
	Opacity float64 // 0 transparent .. 1 opaque
	Width   float64 // line width, lines only
}

// Segments is a shared list of line segments (pairs of points).
type Segments struct {
	Points []math3d.Vec3 // len is even; Points[2i], Points[2i+1] form a segment
}

// Len returns the number of segments.
func (s *Segments) Len() int {
	return len(s.Points) / 2
}

// Node is one object in the graph. Its world transform is refreshed by
// UpdateWorld, which must run after any transform change and before
// rendering or picking.
type Node struct {
	Name     string
	Kind     Kind
	Position math3d.Vec3
	Rotation math3d.Euler
	Scale    math3d.Vec3
	Visible  bool

	Radius   float64 // disc and sphere geometry radius
	Segments int     // tessellation detail, used by exporters
	Material Material
	Lines    *Segments

	Children []*Node
	parent   *Node
	world    math3d.Mat4
}

// NewGroup creates an empty, visible container.
func NewGroup(name string) *Node {
	return &Node{
		Name:    name,
		Kind:    KindGroup,
		Scale:   math3d.One3(),
		Visible: true,
		world:   math3d.Identity(),
	}
}

// NewMarker creates a disc or sphere marker.
func NewMarker(name string, kind Kind, radius float64, segments int, mat Material) *Node {
	n := NewGroup(name)
	n.Kind = kind
	n.Radius = radius
	n.Segments = segments
	n.Material = mat
	return n
}

// NewLines creates a line-set node over shared segments.
func NewLines(name string, lines *Segments, mat Material) *Node {
	n := NewGroup(name)
	n.Kind = KindLines
	n.Lines = lines
	n.Material = mat
	return n
}

// Add appends children and returns n for chaining.
func (n *Node) Add(children ...*Node) *Node {
	for _, c := range children {
		c.parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// SetScalar sets a uniform scale.
func (n *Node) SetScalar(s float64) {
	n.Scale = math3d.V3(s, s, s)
}

// Local returns the local transform.
func (n *Node) Local() math3d.Mat4 {
	return math3d.Compose(n.Position, n.Rotation, n.Scale)
}

// UpdateWorld recomputes world transforms for n and its subtree.
func (n *Node) UpdateWorld() {
	parent := math3d.Identity()
	if n.parent != nil {
		parent = n.parent.world
	}
	n.updateWorld(parent)
}

func (n *Node) updateWorld(parent math3d.Mat4) {
	n.world = parent.Mul(n.Local())
	for _, c := range n.Children {
		c.updateWorld(n.world)
	}
}

// World returns the world transform from the last UpdateWorld.
func (n *Node) World() math3d.Mat4 {
	return n.world
}

// WorldCenter returns the node origin in world space.
func (n *Node) WorldCenter() math3d.Vec3 {
	return n.world.Translation()
}

// WorldRadius returns the marker radius under the world transform.
func (n *Node) WorldRadius() float64 {
	return n.Radius * n.world.MaxScale()
}

// WorldNormal returns the disc normal (local +Z) in world space.
func (n *Node) WorldNormal() math3d.Vec3 {
	return n.world.MulVec3Dir(math3d.V3(0, 0, 1)).Normalize()
}

// EffectiveVisible reports whether n and all its ancestors are visible.
func (n *Node) EffectiveVisible() bool {
	for p := n; p != nil; p = p.parent {
		if !p.Visible {
			return false
		}
	}
	return true
}

// Walk visits n and its subtree depth-first. Returning false from fn skips
// the children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes of kind k in the subtree.
func (n *Node) Count(k Kind) int {
	total := 0
	n.Walk(func(c *Node) bool {
		if c.Kind == k {
			total++
		}
		return true
	})
	return total
}
