package models

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/taigrr/fireball/pkg/math3d"
)

// WriteOBJ writes m as Wavefront OBJ. Materials are referenced by name with
// usemtl; no material library is written. Lines become "l" elements.
func WriteOBJ(w io.Writer, m *Mesh) error {
	if m == nil || m.Empty() {
		return ErrEmptyMesh
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# fireball export\no %s\n", objName(m.Name))

	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %g %g %g\n", v.Position.X, v.Position.Y, v.Position.Z)
	}
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "vn %g %g %g\n", v.Normal.X, v.Normal.Y, v.Normal.Z)
	}

	order, groups := m.facesByMaterial()
	for _, mat := range order {
		writeUseMtl(bw, m, mat)
		for _, fi := range groups[mat] {
			f := m.Faces[fi]
			a, b, c := f.V[0]+1, f.V[1]+1, f.V[2]+1
			fmt.Fprintf(bw, "f %d//%d %d//%d %d//%d\n", a, a, b, b, c, c)
		}
	}

	// line endpoints follow the mesh vertices
	next := len(m.Vertices) + 1
	order, groups = m.linesByMaterial()
	for _, mat := range order {
		writeUseMtl(bw, m, mat)
		for _, li := range groups[mat] {
			l := m.Lines[li]
			fmt.Fprintf(bw, "v %g %g %g\nv %g %g %g\nl %d %d\n",
				l.A.X, l.A.Y, l.A.Z, l.B.X, l.B.Y, l.B.Z, next, next+1)
			next += 2
		}
	}
	return bw.Flush()
}

func writeUseMtl(w io.Writer, m *Mesh, mat int) {
	if mat >= 0 && mat < len(m.Materials) {
		fmt.Fprintf(w, "usemtl %s\n", objName(m.Materials[mat].Name))
	}
}

func objName(s string) string {
	if s == "" {
		return "unnamed"
	}
	return strings.Join(strings.Fields(s), "_")
}

// LoadOBJ loads an OBJ file from disk.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open OBJ file: %w", err)
	}
	defer f.Close()

	return ParseOBJ(f, path)
}

// ParseOBJ reads positions, normals, faces, lines and usemtl groups.
// Polygons are fan triangulated; texture coordinates are ignored. Material
// names written by WriteOBJ carry their color and are decoded; other names
// load as opaque white.
func ParseOBJ(r io.Reader, name string) (*Mesh, error) {
	mesh := NewMesh(name)

	// OBJ indices are 1-based and may be negative
	var positions []math3d.Vec3
	var normals []math3d.Vec3

	type vertexKey struct {
		pos, normal int
	}
	vertexMap := make(map[vertexKey]int)
	material := -1

	vertex := func(field string, lineNum int) (int, error) {
		posIdx, normalIdx, err := parseFaceVertex(field)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", lineNum, err)
		}
		posIdx = resolveIndex(posIdx, len(positions))
		normalIdx = resolveIndex(normalIdx, len(normals))
		if posIdx < 0 || posIdx >= len(positions) {
			return 0, fmt.Errorf("line %d: position index %d out of range", lineNum, posIdx+1)
		}
		key := vertexKey{posIdx, normalIdx}
		if idx, ok := vertexMap[key]; ok {
			return idx, nil
		}
		v := MeshVertex{Position: positions[posIdx]}
		if normalIdx >= 0 && normalIdx < len(normals) {
			v.Normal = normals[normalIdx]
		}
		idx := len(mesh.Vertices)
		mesh.Vertices = append(mesh.Vertices, v)
		vertexMap[key] = idx
		return idx, nil
	}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		switch fields[0] {
		case "v", "vn":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: invalid %s (need x y z)", lineNum, fields[0])
			}
			var xyz [3]float64
			for i := range xyz {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: invalid coordinate: %w", lineNum, err)
				}
				xyz[i] = f
			}
			v := math3d.V3(xyz[0], xyz[1], xyz[2])
			if fields[0] == "v" {
				positions = append(positions, v)
			} else {
				normals = append(normals, v.Normalize())
			}

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNum)
			}
			verts := make([]int, 0, len(fields)-1)
			for _, field := range fields[1:] {
				idx, err := vertex(field, lineNum)
				if err != nil {
					return nil, err
				}
				verts = append(verts, idx)
			}
			for i := 1; i < len(verts)-1; i++ {
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{verts[0], verts[i], verts[i+1]}, Material: material})
			}

		case "l":
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: line needs at least 2 vertices", lineNum)
			}
			pts := make([]math3d.Vec3, 0, len(fields)-1)
			for _, field := range fields[1:] {
				posIdx, _, err := parseFaceVertex(field)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				posIdx = resolveIndex(posIdx, len(positions))
				if posIdx < 0 || posIdx >= len(positions) {
					return nil, fmt.Errorf("line %d: position index %d out of range", lineNum, posIdx+1)
				}
				pts = append(pts, positions[posIdx])
			}
			for i := 0; i+1 < len(pts); i++ {
				mesh.Lines = append(mesh.Lines, Line{A: pts[i], B: pts[i+1], Material: material})
			}

		case "usemtl":
			if len(fields) > 1 {
				material = mesh.AddMaterial(parseMaterialName(fields[1]))
			}

		case "o", "g":
			if len(fields) > 1 {
				mesh.Name = fields[1]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading OBJ: %w", err)
	}

	if len(normals) == 0 {
		mesh.CalculateSmoothNormals()
	}
	mesh.CalculateBounds()
	return mesh, nil
}

// parseMaterialName decodes "rrggbb-opacity" names.
func parseMaterialName(name string) Material {
	mat := Material{Name: name, BaseColor: [4]float64{1, 1, 1, 1}}
	hex, op, ok := strings.Cut(name, "-")
	if !ok || len(hex) != 6 {
		return mat
	}
	rgb, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return mat
	}
	opacity, err := strconv.ParseFloat(op, 64)
	if err != nil {
		return mat
	}
	mat.BaseColor = [4]float64{
		float64(rgb>>16&0xff) / 255,
		float64(rgb>>8&0xff) / 255,
		float64(rgb&0xff) / 255,
		opacity,
	}
	return mat
}

// parseFaceVertex parses v, v/vt, v/vt/vn or v//vn and returns the 1-based
// position and normal indices (0 when absent).
func parseFaceVertex(s string) (pos, normal int, err error) {
	parts := strings.Split(s, "/")

	pos, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid vertex index: %s", parts[0])
	}
	if len(parts) > 2 && parts[2] != "" {
		normal, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid normal index: %s", parts[2])
		}
	}
	return pos, normal, nil
}

// resolveIndex converts OBJ 1-indexed (or negative) index to 0-indexed.
// Returns -1 if index was 0 (not specified).
func resolveIndex(idx, count int) int {
	if idx == 0 {
		return -1
	}
	if idx < 0 {
		return count + idx
	}
	return idx - 1
}
