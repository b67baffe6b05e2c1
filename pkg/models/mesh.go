// Package models tessellates scene markers into triangle meshes and moves
// them in and out of GLB, STL and OBJ files.
package models

import (
	"fmt"
	"image/color"

	"github.com/taigrr/fireball/pkg/math3d"
)

// Mesh is a flat triangle mesh plus loose line segments, both in world
// space.
type Mesh struct {
	Name      string
	Vertices  []MeshVertex
	Faces     []Face
	Lines     []Line
	Materials []Material

	// Bounding box over vertices and line endpoints
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds all vertex attributes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
}

// Face represents a triangle face with vertex indices and material reference.
type Face struct {
	V        [3]int // Indices into Mesh.Vertices
	Material int    // Index into Mesh.Materials (-1 for no material)
}

// Line is one segment of a line set.
type Line struct {
	A, B     math3d.Vec3
	Material int
}

// Material is a flat, unlit color. BaseColor[3] carries the opacity.
type Material struct {
	Name      string
	BaseColor [4]float64 // RGBA in 0-1 range
}

// MaterialFromColor builds a material from an 8-bit color and an opacity.
func MaterialFromColor(c color.RGBA, opacity float64) Material {
	return Material{
		Name: fmt.Sprintf("%02x%02x%02x-%.3f", c.R, c.G, c.B, opacity),
		BaseColor: [4]float64{
			float64(c.R) / 255,
			float64(c.G) / 255,
			float64(c.B) / 255,
			opacity,
		},
	}
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// AddMaterial returns the index of mat, appending it if no material with
// the same name exists yet.
func (m *Mesh) AddMaterial(mat Material) int {
	for i, have := range m.Materials {
		if have.Name == mat.Name {
			return i
		}
	}
	m.Materials = append(m.Materials, mat)
	return len(m.Materials) - 1
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	first := true
	grow := func(p math3d.Vec3) {
		if first {
			m.BoundsMin, m.BoundsMax = p, p
			first = false
			return
		}
		m.BoundsMin = m.BoundsMin.Min(p)
		m.BoundsMax = m.BoundsMax.Max(p)
	}
	for _, v := range m.Vertices {
		grow(v.Position)
	}
	for _, l := range m.Lines {
		grow(l.A)
		grow(l.B)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// LineCount returns the number of line segments.
func (m *Mesh) LineCount() int {
	return len(m.Lines)
}

// Empty reports whether the mesh has nothing to draw.
func (m *Mesh) Empty() bool {
	return len(m.Faces) == 0 && len(m.Lines) == 0
}

// FaceNormal returns the unit normal of face i from its winding.
func (m *Mesh) FaceNormal(i int) math3d.Vec3 {
	f := m.Faces[i]
	v0 := m.Vertices[f.V[0]].Position
	v1 := m.Vertices[f.V[1]].Position
	v2 := m.Vertices[f.V[2]].Position
	return v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
}

// CalculateSmoothNormals computes averaged normals for smooth shading.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}

	// area-weighted: the cross product is left unnormalized
	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position
		normal := v1.Sub(v0).Cross(v2.Sub(v0))

		for _, vi := range f.V {
			m.Vertices[vi].Normal = m.Vertices[vi].Normal.Add(normal)
		}
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// Transform applies a transformation matrix to all vertices and lines.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Vertices {
		m.Vertices[i].Position = mat.MulVec3(m.Vertices[i].Position)
		m.Vertices[i].Normal = mat.MulVec3Dir(m.Vertices[i].Normal).Normalize()
	}
	for i := range m.Lines {
		m.Lines[i].A = mat.MulVec3(m.Lines[i].A)
		m.Lines[i].B = mat.MulVec3(m.Lines[i].B)
	}
	m.CalculateBounds()
}

// Append copies the geometry of src, transformed by world, into m. Faces
// and lines of src are assigned material mat, an index into m.Materials.
func (m *Mesh) Append(src *Mesh, world math3d.Mat4, mat int) {
	base := len(m.Vertices)
	for _, v := range src.Vertices {
		m.Vertices = append(m.Vertices, MeshVertex{
			Position: world.MulVec3(v.Position),
			Normal:   world.MulVec3Dir(v.Normal).Normalize(),
		})
	}
	for _, f := range src.Faces {
		m.Faces = append(m.Faces, Face{
			V:        [3]int{f.V[0] + base, f.V[1] + base, f.V[2] + base},
			Material: mat,
		})
	}
	for _, l := range src.Lines {
		m.Lines = append(m.Lines, Line{A: world.MulVec3(l.A), B: world.MulVec3(l.B), Material: mat})
	}
}

// facesByMaterial groups face indices by material in order of first use.
// Faces without a material are grouped under -1.
func (m *Mesh) facesByMaterial() (order []int, groups map[int][]int) {
	groups = make(map[int][]int)
	for i, f := range m.Faces {
		if _, ok := groups[f.Material]; !ok {
			order = append(order, f.Material)
		}
		groups[f.Material] = append(groups[f.Material], i)
	}
	return order, groups
}

// linesByMaterial is facesByMaterial for line segments.
func (m *Mesh) linesByMaterial() (order []int, groups map[int][]int) {
	groups = make(map[int][]int)
	for i, l := range m.Lines {
		if _, ok := groups[l.Material]; !ok {
			order = append(order, l.Material)
		}
		groups[l.Material] = append(groups[l.Material], i)
	}
	return order, groups
}
