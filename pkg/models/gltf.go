package models

import (
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/fireball/pkg/math3d"
)

// SaveGLB writes m as a binary glTF file. Each material becomes one
// triangle primitive and, when the mesh has lines, one line primitive.
func SaveGLB(m *Mesh, path string) error {
	doc, err := Document(m)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save glb: %w", err)
	}
	return nil
}

// Document builds the glTF document for m.
func Document(m *Mesh) (*gltf.Document, error) {
	if m == nil || m.Empty() {
		return nil, ErrEmptyMesh
	}
	doc := gltf.NewDocument()

	for _, mat := range m.Materials {
		alpha := gltf.AlphaOpaque
		if mat.BaseColor[3] < 1 {
			alpha = gltf.AlphaBlend
		}
		base := mat.BaseColor
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name:        mat.Name,
			AlphaMode:   alpha,
			DoubleSided: true,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &base,
				MetallicFactor:  gltf.Float(0),
				RoughnessFactor: gltf.Float(1),
			},
		})
	}

	mesh := &gltf.Mesh{Name: m.Name}

	if len(m.Faces) > 0 {
		positions := make([][3]float32, len(m.Vertices))
		normals := make([][3]float32, len(m.Vertices))
		for i, v := range m.Vertices {
			positions[i] = toFloat32(v.Position)
			normals[i] = toFloat32(v.Normal)
		}
		posAcc := modeler.WritePosition(doc, positions)
		nrmAcc := modeler.WriteNormal(doc, normals)

		order, groups := m.facesByMaterial()
		for _, matIdx := range order {
			faces := groups[matIdx]
			indices := make([]uint32, 0, len(faces)*3)
			for _, fi := range faces {
				f := m.Faces[fi]
				indices = append(indices, uint32(f.V[0]), uint32(f.V[1]), uint32(f.V[2]))
			}
			prim := &gltf.Primitive{
				Mode:       gltf.PrimitiveTriangles,
				Indices:    gltf.Index(modeler.WriteIndices(doc, indices)),
				Attributes: map[string]int{gltf.POSITION: posAcc, gltf.NORMAL: nrmAcc},
			}
			if matIdx >= 0 {
				prim.Material = gltf.Index(matIdx)
			}
			mesh.Primitives = append(mesh.Primitives, prim)
		}
	}

	order, groups := m.linesByMaterial()
	for _, matIdx := range order {
		segs := groups[matIdx]
		points := make([][3]float32, 0, len(segs)*2)
		for _, li := range segs {
			points = append(points, toFloat32(m.Lines[li].A), toFloat32(m.Lines[li].B))
		}
		prim := &gltf.Primitive{
			Mode:       gltf.PrimitiveLines,
			Attributes: map[string]int{gltf.POSITION: modeler.WritePosition(doc, points)},
		}
		if matIdx >= 0 {
			prim.Material = gltf.Index(matIdx)
		}
		mesh.Primitives = append(mesh.Primitives, prim)
	}

	doc.Meshes = append(doc.Meshes, mesh)
	doc.Nodes = append(doc.Nodes, &gltf.Node{Name: m.Name, Mesh: gltf.Index(len(doc.Meshes) - 1)})
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	return doc, nil
}

// LoadGLB reads a glTF or GLB file written by SaveGLB, or any file whose
// meshes hold world-space geometry in embedded buffers. Node transforms
// are not applied.
func LoadGLB(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	for _, mat := range doc.Materials {
		m := Material{Name: mat.Name, BaseColor: [4]float64{1, 1, 1, 1}}
		if mat.PBRMetallicRoughness != nil && mat.PBRMetallicRoughness.BaseColorFactor != nil {
			m.BaseColor = *mat.PBRMetallicRoughness.BaseColorFactor
		}
		mesh.Materials = append(mesh.Materials, m)
	}

	for _, gm := range doc.Meshes {
		for _, prim := range gm.Primitives {
			if err := readPrimitive(doc, prim, mesh); err != nil {
				return nil, fmt.Errorf("mesh %q: %w", gm.Name, err)
			}
		}
	}
	mesh.CalculateBounds()
	return mesh, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive, mesh *Mesh) error {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}
	positions, err := readVec3Accessor(doc, posIdx)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	materialIdx := -1
	if prim.Material != nil {
		materialIdx = int(*prim.Material)
	}

	var indices []int
	if prim.Indices != nil {
		indices, err = readIndices(doc, int(*prim.Indices))
		if err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]int, len(positions))
		for i := range indices {
			indices[i] = i
		}
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(positions) {
			return fmt.Errorf("index %d out of range (%d positions)", idx, len(positions))
		}
	}

	switch prim.Mode {
	case gltf.PrimitiveLines:
		for i := 0; i+1 < len(indices); i += 2 {
			mesh.Lines = append(mesh.Lines, Line{
				A:        positions[indices[i]],
				B:        positions[indices[i+1]],
				Material: materialIdx,
			})
		}
	case gltf.PrimitiveTriangles:
		var normals []math3d.Vec3
		if nrmIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, nrmIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}
		base := len(mesh.Vertices)
		for i, p := range positions {
			v := MeshVertex{Position: p}
			if i < len(normals) {
				v.Normal = normals[i]
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}
		for i := 0; i+2 < len(indices); i += 3 {
			mesh.Faces = append(mesh.Faces, Face{
				V:        [3]int{base + indices[i], base + indices[i+1], base + indices[i+2]},
				Material: materialIdx,
			})
		}
	}
	return nil
}

// readVec3Accessor reads Vec3 data from a glTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v/%v", accessor.Type, accessor.ComponentType)
	}
	data, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, accessor.Count)
	for i := range accessor.Count {
		b := data[i*stride:]
		result[i] = math3d.V3(float64(readFloat32LE(b)), float64(readFloat32LE(b[4:])), float64(readFloat32LE(b[8:])))
	}
	return result, nil
}

// readIndices reads index data from a glTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", accessor.ComponentType)
	}
	data, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	for i := range accessor.Count {
		b := data[i*stride:]
		switch size {
		case 1:
			result[i] = int(b[0])
		case 2:
			result[i] = int(binary.LittleEndian.Uint16(b))
		default:
			result[i] = int(binary.LittleEndian.Uint32(b))
		}
	}
	return result, nil
}

// accessorBytes returns the buffer bytes starting at the accessor's first
// element and the element stride, checking that every element fits.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}
	view := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[view.Buffer]
	if len(buffer.Data) == 0 {
		return nil, 0, fmt.Errorf("buffer %d not loaded", view.Buffer)
	}

	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := view.ByteOffset + accessor.ByteOffset
	if accessor.Count == 0 {
		return nil, stride, nil
	}
	end := start + (accessor.Count-1)*stride + elemSize
	if start < 0 || end > len(buffer.Data) {
		return nil, 0, fmt.Errorf("accessor overruns buffer: %d > %d", end, len(buffer.Data))
	}
	return buffer.Data[start:end], stride, nil
}

func toFloat32(v math3d.Vec3) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

// readFloat32LE reads a little-endian float32 from a byte slice.
func readFloat32LE(data []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data))
}
