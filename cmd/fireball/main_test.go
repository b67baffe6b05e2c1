package main

import (
	"bytes"
	"context"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/fireball/pkg/config"
	"github.com/taigrr/fireball/pkg/models"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"800x600", 800, 600, false},
		{"64X48", 64, 48, false},
		{"800", 0, 0, true},
		{"ax3", 0, 0, true},
		{"3xb", 0, 0, true},
		{"0x10", 0, 0, true},
		{"10x-1", 0, 0, true},
	}
	for _, tt := range tests {
		w, h, err := parseSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if w != tt.w || h != tt.h {
			t.Errorf("parseSize(%q) = %dx%d, want %dx%d", tt.in, w, h, tt.w, tt.h)
		}
	}
}

func TestSnapshotWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.png")
	var out bytes.Buffer
	require.NoError(t, runSnapshot(context.Background(), &out, &globals{seed: 1}, path, 3, 40, 30))
	assert.Contains(t, out.String(), "40x30")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 30, img.Bounds().Dy())
}

func TestExportThenInfo(t *testing.T) {
	dir := t.TempDir()
	g := &globals{seed: 1}
	for _, name := range []string{"scene.glb", "scene.obj", "scene.stl"} {
		path := filepath.Join(dir, name)
		var out bytes.Buffer
		require.NoError(t, runExport(context.Background(), &out, g, path, 2, 6, 1), name)
		assert.Contains(t, out.String(), "Wrote "+path)

		mesh, err := models.Load(path)
		require.NoError(t, err, name)
		assert.Positive(t, mesh.TriangleCount(), name)

		out.Reset()
		require.NoError(t, runModelInfo(&out, path))
		assert.Contains(t, out.String(), "Triangles:")
		assert.Contains(t, out.String(), filepath.Base(path))
	}

	err := runExport(context.Background(), &bytes.Buffer{}, g, filepath.Join(dir, "scene.fbx"), 0, 6, 1)
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestExportScale(t *testing.T) {
	dir := t.TempDir()
	g := &globals{seed: 1}
	unit := filepath.Join(dir, "unit.stl")
	half := filepath.Join(dir, "half.stl")
	require.NoError(t, runExport(context.Background(), &bytes.Buffer{}, g, unit, 0, 4, 1))
	require.NoError(t, runExport(context.Background(), &bytes.Buffer{}, g, half, 0, 4, 0.5))

	a, err := models.Load(unit)
	require.NoError(t, err)
	b, err := models.Load(half)
	require.NoError(t, err)
	assert.Equal(t, a.TriangleCount(), b.TriangleCount())
	assert.InDelta(t, a.Size().X/2, b.Size().X, 1e-2)

	for _, bad := range []float64{0, -1, math.NaN()} {
		err := runExport(context.Background(), &bytes.Buffer{}, g, filepath.Join(dir, "bad.stl"), 0, 4, bad)
		assert.ErrorContains(t, err, "invalid scale", "scale %v", bad)
	}
}

func TestInfoFromConfigFile(t *testing.T) {
	cfg := config.Default()
	cfg.Actives.Count = 4
	data, err := config.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "scene.toml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	var out bytes.Buffer
	require.NoError(t, runInfo(&out, &globals{configPath: path, seed: 1}))
	assert.Contains(t, out.String(), "Config:       "+path)
	assert.Contains(t, out.String(), "Registry:     39")

	err = runInfo(&out, &globals{configPath: filepath.Join(t.TempDir(), "missing.toml")})
	assert.Error(t, err)
}

func TestModelInfoMissingFile(t *testing.T) {
	err := runModelInfo(&bytes.Buffer{}, filepath.Join(t.TempDir(), "nope.glb"))
	assert.ErrorContains(t, err, "cannot access file")
}

func TestRootCommandWiring(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "export", "snapshot", "info"} {
		assert.True(t, names[want], want)
	}
	for _, flag := range []string{"config", "seed", "fps", "log-file", "debug"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
	assert.NotNil(t, cmd.Flags().Lookup("watch"))
}

func TestInfoCommandRuns(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"info", "--seed", "2"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "built-in default")
	assert.Contains(t, out.String(), "Registry:     78")
}

func TestDumpPrintsConfig(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runDump(&out, &globals{}))
	assert.Contains(t, out.String(), "layers = 10")
	assert.Contains(t, out.String(), "#320a32")
}
