package models

import (
	"math"

	"github.com/taigrr/fireball/pkg/math3d"
)

// NewDisc tessellates a flat disc in the XY plane facing +Z as a triangle
// fan of segments slices. Fewer than 3 segments are raised to 3.
func NewDisc(radius float64, segments int) *Mesh {
	segments = max(segments, 3)
	m := NewMesh("disc")
	normal := math3d.V3(0, 0, 1)

	m.Vertices = append(m.Vertices, MeshVertex{Position: math3d.Zero3(), Normal: normal})
	for i := range segments {
		theta := float64(i) / float64(segments) * 2 * math.Pi
		m.Vertices = append(m.Vertices, MeshVertex{
			Position: math3d.V3(radius*math.Cos(theta), radius*math.Sin(theta), 0),
			Normal:   normal,
		})
	}
	for i := range segments {
		next := (i+1)%segments + 1
		m.Faces = append(m.Faces, Face{V: [3]int{0, i + 1, next}, Material: -1})
	}
	m.CalculateBounds()
	return m
}

// NewSphere tessellates a UV sphere with segments slices around Y and
// segments stacks pole to pole. Triangles collapsed at the poles are
// skipped, so the mesh has segments*(2*segments-2) faces.
func NewSphere(radius float64, segments int) *Mesh {
	width := max(segments, 3)
	height := max(segments, 2)
	m := NewMesh("sphere")

	grid := make([][]int, height+1)
	for iy := range height + 1 {
		v := float64(iy) / float64(height)
		grid[iy] = make([]int, width+1)
		for ix := range width + 1 {
			u := float64(ix) / float64(width)
			n := math3d.V3(
				-math.Cos(u*2*math.Pi)*math.Sin(v*math.Pi),
				math.Cos(v*math.Pi),
				math.Sin(u*2*math.Pi)*math.Sin(v*math.Pi),
			)
			grid[iy][ix] = len(m.Vertices)
			m.Vertices = append(m.Vertices, MeshVertex{Position: n.Scale(radius), Normal: n})
		}
	}

	for iy := range height {
		for ix := range width {
			a := grid[iy][ix+1]
			b := grid[iy][ix]
			c := grid[iy+1][ix]
			d := grid[iy+1][ix+1]
			if iy != 0 {
				m.Faces = append(m.Faces, Face{V: [3]int{a, b, d}, Material: -1})
			}
			if iy != height-1 {
				m.Faces = append(m.Faces, Face{V: [3]int{b, c, d}, Material: -1})
			}
		}
	}
	m.CalculateBounds()
	return m
}
