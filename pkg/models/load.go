package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrEmptyMesh is returned when writing a mesh with nothing to write.
	ErrEmptyMesh = errors.New("mesh is empty")
	// ErrUnsupportedFormat is returned for unknown file extensions.
	ErrUnsupportedFormat = errors.New("unsupported model format")
)

// Format returns the lower-case extension of path without the dot.
func Format(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Load reads a .glb, .gltf, .stl or .obj file.
func Load(path string) (*Mesh, error) {
	switch Format(path) {
	case "glb", "gltf":
		return LoadGLB(path)
	case "stl":
		return LoadSTL(path)
	case "obj":
		return LoadOBJ(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Save writes m to path in the format named by its extension.
func Save(m *Mesh, path string) (err error) {
	if m == nil || m.Empty() {
		return ErrEmptyMesh
	}
	format := Format(path)
	switch format {
	case "glb":
		return SaveGLB(m, path)
	case "stl", "obj":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if format == "stl" {
		return WriteSTL(f, m)
	}
	return WriteOBJ(f, m)
}
