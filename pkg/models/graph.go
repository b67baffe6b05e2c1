package models

import (
	"github.com/taigrr/fireball/pkg/scene"
)

// FromGraph flattens the visible markers and line sets of g into one
// world-space mesh. Marker tessellation follows each node's Segments,
// capped at maxSegments when maxSegments > 0. The graph's world transforms
// must be current.
func FromGraph(g *scene.Graph, maxSegments int) *Mesh {
	out := NewMesh("fireball")
	if g == nil || g.Scene == nil {
		return out
	}

	type shape struct {
		kind     scene.Kind
		radius   float64
		segments int
	}
	cache := make(map[shape]*Mesh)

	g.Scene.Walk(func(n *scene.Node) bool {
		if !n.Visible {
			return false
		}
		switch n.Kind {
		case scene.KindDisc, scene.KindSphere:
			seg := n.Segments
			if maxSegments > 0 && (seg <= 0 || seg > maxSegments) {
				seg = maxSegments
			}
			key := shape{n.Kind, n.Radius, seg}
			prim, ok := cache[key]
			if !ok {
				if n.Kind == scene.KindDisc {
					prim = NewDisc(n.Radius, seg)
				} else {
					prim = NewSphere(n.Radius, seg)
				}
				cache[key] = prim
			}
			mat := out.AddMaterial(MaterialFromColor(n.Material.Color, n.Material.Opacity))
			out.Append(prim, n.World(), mat)
		case scene.KindLines:
			if n.Lines == nil {
				break
			}
			mat := out.AddMaterial(MaterialFromColor(n.Material.Color, n.Material.Opacity))
			world := n.World()
			pts := n.Lines.Points
			for i := 0; i+1 < len(pts); i += 2 {
				out.Lines = append(out.Lines, Line{
					A:        world.MulVec3(pts[i]),
					B:        world.MulVec3(pts[i+1]),
					Material: mat,
				})
			}
		}
		return true
	})

	out.CalculateBounds()
	return out
}
