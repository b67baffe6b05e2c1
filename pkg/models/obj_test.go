package models

import (
	"bytes"
	"strings"
	"testing"

	"github.com/taigrr/fireball/pkg/math3d"
)

func TestParseSimpleOBJ(t *testing.T) {
	objData := `
# Simple triangle
v 0 0 0
v 1 0 0
v 0.5 1 0
f 1 2 3
`
	mesh, err := ParseOBJ(strings.NewReader(objData), "triangle")
	if err != nil {
		t.Fatalf("failed to load OBJ: %v", err)
	}
	if mesh.VertexCount() != 3 {
		t.Errorf("expected 3 vertices, got %d", mesh.VertexCount())
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("expected 1 triangle, got %d", mesh.TriangleCount())
	}
	// no vn lines: normals are computed from the CCW winding
	if n := mesh.Vertices[0].Normal; !n.ApproxEqual(math3d.V3(0, 0, 1), 1e-9) {
		t.Errorf("computed normal = %v, want +Z", n)
	}
}

func TestParseQuadTriangulates(t *testing.T) {
	objData := `
v -1 -1 0
v  1 -1 0
v  1  1 0
v -1  1 0
f 1 2 3 4
`
	mesh, err := ParseOBJ(strings.NewReader(objData), "quad")
	if err != nil {
		t.Fatalf("failed to load OBJ: %v", err)
	}
	if mesh.TriangleCount() != 2 {
		t.Errorf("expected 2 triangles, got %d", mesh.TriangleCount())
	}
	if got := mesh.Size(); !got.ApproxEqual(math3d.V3(2, 2, 0), 1e-9) {
		t.Errorf("Size = %v, want (2, 2, 0)", got)
	}
}

func TestNegativeIndices(t *testing.T) {
	objData := `
v 0 0 0
v 1 0 0
v 0.5 1 0
f -3 -2 -1
`
	mesh, err := ParseOBJ(strings.NewReader(objData), "negative")
	if err != nil {
		t.Fatalf("failed to load OBJ: %v", err)
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("expected 1 triangle, got %d", mesh.TriangleCount())
	}
}

func TestParseOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"short vertex", "v 1 2\n"},
		{"bad coordinate", "v 1 x 3\n"},
		{"index out of range", "v 0 0 0\nf 1 2 3\n"},
		{"short face", "v 0 0 0\nf 1 1\n"},
		{"short line", "v 0 0 0\nl 1\n"},
		{"bad index", "v 0 0 0\nf a b c\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseOBJ(strings.NewReader(tt.data), tt.name); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestWriteOBJRoundTrip(t *testing.T) {
	src := NewMesh("pair")
	red := src.AddMaterial(Material{Name: "d82d33-1.000", BaseColor: [4]float64{216.0 / 255, 45.0 / 255, 51.0 / 255, 1}})
	white := src.AddMaterial(Material{Name: "ffffff-0.250", BaseColor: [4]float64{1, 1, 1, 0.25}})
	src.Append(NewDisc(2, 6), math3d.Translate(math3d.V3(5, 0, 0)), red)
	src.Lines = append(src.Lines,
		Line{A: math3d.V3(0, 0, 0), B: math3d.V3(0, 3, 0), Material: white},
		Line{A: math3d.V3(1, 1, 1), B: math3d.V3(2, 2, 2), Material: white},
	)

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, src); err != nil {
		t.Fatalf("WriteOBJ: %v", err)
	}
	got, err := ParseOBJ(&buf, "pair.obj")
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}

	if got.TriangleCount() != src.TriangleCount() {
		t.Errorf("TriangleCount = %d, want %d", got.TriangleCount(), src.TriangleCount())
	}
	if got.LineCount() != 2 {
		t.Errorf("LineCount = %d, want 2", got.LineCount())
	}
	if len(got.Materials) != 2 {
		t.Fatalf("Materials = %d, want 2", len(got.Materials))
	}
	if got.Materials[1].BaseColor[3] != 0.25 {
		t.Errorf("line opacity = %v, want 0.25", got.Materials[1].BaseColor[3])
	}
	if got.Lines[0].Material != 1 || got.Faces[0].Material != 0 {
		t.Error("materials not assigned from usemtl")
	}
	if !got.Lines[0].B.ApproxEqual(math3d.V3(0, 3, 0), 1e-9) {
		t.Errorf("line end = %v", got.Lines[0].B)
	}
	if c := got.Vertices[0].Position; !c.ApproxEqual(math3d.V3(5, 0, 0), 1e-9) {
		t.Errorf("disc center = %v, want (5, 0, 0)", c)
	}
}

func TestWriteOBJEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteOBJ(&buf, NewMesh("empty")); err != ErrEmptyMesh {
		t.Errorf("err = %v, want ErrEmptyMesh", err)
	}
}

func TestParseMaterialName(t *testing.T) {
	m := parseMaterialName("ff0000-0.500")
	if m.BaseColor != [4]float64{1, 0, 0, 0.5} {
		t.Errorf("BaseColor = %v", m.BaseColor)
	}
	m = parseMaterialName("steel")
	if m.BaseColor != [4]float64{1, 1, 1, 1} {
		t.Errorf("unknown names should be white, got %v", m.BaseColor)
	}
}
