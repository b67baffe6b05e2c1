package models

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/taigrr/fireball/pkg/math3d"
)

func TestParseSTLBinary(t *testing.T) {
	var buf bytes.Buffer

	header := make([]byte, 80)
	copy(header, "Binary STL test")
	buf.Write(header)
	binary.Write(&buf, binary.LittleEndian, uint32(1))

	// normal, three vertices, attribute count
	for _, f := range []float32{0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0} {
		binary.Write(&buf, binary.LittleEndian, f)
	}
	binary.Write(&buf, binary.LittleEndian, uint16(0))

	mesh, err := ParseSTL(buf.Bytes(), "test.stl")
	if err != nil {
		t.Fatalf("Failed to load binary STL: %v", err)
	}
	if mesh.TriangleCount() != 1 {
		t.Errorf("TriangleCount = %d, want 1", mesh.TriangleCount())
	}
	if mesh.VertexCount() != 3 {
		t.Errorf("VertexCount = %d, want 3", mesh.VertexCount())
	}
	if v := mesh.Vertices[0]; v.Normal.Z != 1.0 {
		t.Errorf("Normal.Z = %f, want 1.0", v.Normal.Z)
	}
}

func TestParseSTLRejects(t *testing.T) {
	if _, err := ParseSTL([]byte("short"), "x"); err == nil {
		t.Error("expected error for short data")
	}

	ascii := []byte("solid test\nfacet normal 0 0 1\n outer loop\n  vertex 0 0 0\n  vertex 1 0 0\n  vertex 0 1 0\n endloop\nendfacet\nendsolid test\n")
	if _, err := ParseSTL(ascii, "ascii"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ascii STL: err = %v, want ErrUnsupportedFormat", err)
	}

	truncated := make([]byte, 84)
	binary.LittleEndian.PutUint32(truncated[80:], 3)
	if _, err := ParseSTL(truncated, "truncated"); err == nil {
		t.Error("expected error for truncated data")
	}
}

func TestWriteSTLRoundTrip(t *testing.T) {
	src := NewSphere(3, 6)
	src.Transform(math3d.Translate(math3d.V3(0, 10, 0)))

	var buf bytes.Buffer
	if err := WriteSTL(&buf, src); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	if want := 84 + 50*src.TriangleCount(); buf.Len() != want {
		t.Fatalf("STL size = %d, want %d", buf.Len(), want)
	}

	got, err := ParseSTL(buf.Bytes(), "sphere.stl")
	if err != nil {
		t.Fatalf("ParseSTL: %v", err)
	}
	if got.TriangleCount() != src.TriangleCount() {
		t.Errorf("TriangleCount = %d, want %d", got.TriangleCount(), src.TriangleCount())
	}
	if c := got.Center(); !c.ApproxEqual(math3d.V3(0, 10, 0), 1e-4) {
		t.Errorf("Center = %v, want (0, 10, 0)", c)
	}
}

func TestSTLVertexDeduplication(t *testing.T) {
	quad := NewMesh("quad")
	quad.Vertices = []MeshVertex{
		{Position: math3d.V3(0, 0, 0)},
		{Position: math3d.V3(1, 0, 0)},
		{Position: math3d.V3(1, 1, 0)},
		{Position: math3d.V3(0, 1, 0)},
	}
	quad.Faces = []Face{{V: [3]int{0, 1, 2}}, {V: [3]int{0, 2, 3}}}

	var buf bytes.Buffer
	if err := WriteSTL(&buf, quad); err != nil {
		t.Fatalf("WriteSTL: %v", err)
	}
	mesh, err := ParseSTL(buf.Bytes(), "quad.stl")
	if err != nil {
		t.Fatalf("ParseSTL: %v", err)
	}
	if mesh.VertexCount() != 4 {
		t.Errorf("VertexCount = %d, want 4 (deduplicated)", mesh.VertexCount())
	}
}

func TestWriteSTLDropsLines(t *testing.T) {
	m := NewMesh("lines")
	m.Lines = append(m.Lines, Line{B: math3d.V3(1, 0, 0)})
	var buf bytes.Buffer
	if err := WriteSTL(&buf, m); err != ErrEmptyMesh {
		t.Errorf("err = %v, want ErrEmptyMesh", err)
	}
}
