package models

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/taigrr/fireball/pkg/math3d"
)

const (
	stlHeaderSize = 80
	stlFacetSize  = 50
)

// WriteSTL writes the triangles of m as binary STL. Lines and materials
// have no STL form and are dropped.
func WriteSTL(w io.Writer, m *Mesh) error {
	if m == nil || len(m.Faces) == 0 {
		return ErrEmptyMesh
	}
	bw := bufio.NewWriter(w)

	var header [stlHeaderSize]byte
	copy(header[:], "fireball "+m.Name)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("write STL header: %w", err)
	}

	var buf [stlFacetSize]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(m.Faces)))
	if _, err := bw.Write(buf[:4]); err != nil {
		return fmt.Errorf("write STL header: %w", err)
	}

	for i, f := range m.Faces {
		putVec3(buf[0:], m.FaceNormal(i))
		putVec3(buf[12:], m.Vertices[f.V[0]].Position)
		putVec3(buf[24:], m.Vertices[f.V[1]].Position)
		putVec3(buf[36:], m.Vertices[f.V[2]].Position)
		binary.LittleEndian.PutUint16(buf[48:], 0)
		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("write STL facet %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// LoadSTL loads a binary STL file from disk.
func LoadSTL(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read STL file: %w", err)
	}
	return ParseSTL(data, path)
}

// ParseSTL parses binary STL. ASCII STL is rejected.
func ParseSTL(data []byte, name string) (*Mesh, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, fmt.Errorf("binary STL too short: %d bytes", len(data))
	}

	triCount := int(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	expectedSize := stlHeaderSize + 4 + triCount*stlFacetSize
	if len(data) < expectedSize {
		if bytes.HasPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("solid")) {
			return nil, fmt.Errorf("%w: ascii STL", ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("binary STL truncated: expected %d bytes, got %d", expectedSize, len(data))
	}

	mesh := NewMesh(name)
	vertexMap := make(map[math3d.Vec3]int)

	offset := stlHeaderSize + 4
	for range triCount {
		normal := readVec3LE(data[offset:])
		offset += 12

		var face [3]int
		for v := range 3 {
			pos := readVec3LE(data[offset:])
			offset += 12
			idx, ok := vertexMap[pos]
			if !ok {
				idx = len(mesh.Vertices)
				mesh.Vertices = append(mesh.Vertices, MeshVertex{Position: pos, Normal: normal})
				vertexMap[pos] = idx
			}
			face[v] = idx
		}
		// attribute byte count
		offset += 2

		mesh.Faces = append(mesh.Faces, Face{V: face, Material: -1})
	}

	mesh.CalculateBounds()
	return mesh, nil
}

func putVec3(b []byte, v math3d.Vec3) {
	binary.LittleEndian.PutUint32(b[0:], math.Float32bits(float32(v.X)))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(v.Y)))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(v.Z)))
}

func readVec3LE(b []byte) math3d.Vec3 {
	return math3d.V3(
		float64(readFloat32LE(b)),
		float64(readFloat32LE(b[4:])),
		float64(readFloat32LE(b[8:])),
	)
}
