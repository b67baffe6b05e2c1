package scene

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/fireball/pkg/config"
	"github.com/taigrr/fireball/pkg/math3d"
)

func buildDefault(t *testing.T) *Graph {
	t.Helper()
	g, err := Build(config.Default(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	return g
}

func TestBuildRegistryLength(t *testing.T) {
	g := buildDefault(t)
	assert.Equal(t, 78, g.Registry.Len())
	assert.Equal(t, config.Default().RegistrySize(), g.Registry.Len())
}

func TestBuildRegistryKeysMatchOuterIndex(t *testing.T) {
	g := buildDefault(t)
	require.Len(t, g.Stacks, 6)

	i := 0
	for _, st := range g.Stacks {
		require.Len(t, st.Cores, 13)
		for _, core := range st.Cores {
			e := g.Registry.At(i)
			assert.Same(t, core, e.Marker)
			assert.Equal(t, st.Index, e.Key)
			i++
		}
	}
	assert.Equal(t, g.Registry.Len(), i)

	// index 0 of the active layout is skipped
	assert.Equal(t, 1, g.Stacks[0].Index)
	assert.Equal(t, 6, g.Stacks[5].Index)
}

func TestBuildGlowLayers(t *testing.T) {
	cfg := config.Default()
	g := buildDefault(t)
	for _, st := range g.Stacks {
		require.Len(t, st.Glow, cfg.Layers)
		for k, glow := range st.Glow {
			assert.InDelta(t, cfg.Actives.MaxLayerRadius+float64(k+1), glow.Radius, 1e-12)
			assert.InDelta(t, 1-float64(k)/float64(cfg.Layers), glow.Material.Opacity, 1e-12)
			assert.True(t, glow.Visible)
			_, registered := keyOf(g.Registry, glow)
			assert.False(t, registered, "glow markers are not pickable")
		}
	}
}

func TestBuildShellsAndLines(t *testing.T) {
	cfg := config.Default()
	g := buildDefault(t)

	require.Len(t, g.Shells, len(cfg.Circles))
	for i, sh := range g.Shells {
		assert.Len(t, sh.Markers, cfg.Circles[i].Count)
		for j, m := range sh.Markers {
			assert.Equal(t, KindDisc, m.Kind)
			assert.InDelta(t, cfg.Circles[i].Radius, m.Position.Len(), 1e-9)
			palette, _ := cfg.PaletteColors()
			assert.Equal(t, palette[j%3], m.Material.Color)
			// disc normal faces outward
			n := m.WorldNormal()
			assert.Greater(t, n.Dot(m.Position.Normalize()), 0.999)
		}
	}

	require.Len(t, g.Lines, len(cfg.LineParameters))
	assert.Equal(t, cfg.Environment, g.Segments.Len())
	for i, ls := range g.Lines {
		assert.Equal(t, i, ls.Index)
		assert.Equal(t, cfg.LineParameters[i].Scale, ls.OriginalScale)
		assert.Same(t, g.Segments, ls.Node.Lines)
		assert.Contains(t, g.Scene.Children, ls.Node)
	}
	for k := 0; k < len(g.Segments.Points); k += 2 {
		a, b := g.Segments.Points[k], g.Segments.Points[k+1]
		assert.InDelta(t, cfg.EnvironmentRadius, a.Len(), 1e-6)
		ratio := b.Len() / a.Len()
		assert.True(t, ratio >= 1 && ratio < 1.01, "sibling ratio %v", ratio)
	}
}

func TestBuildPositionsIgnoreSeed(t *testing.T) {
	a, err := Build(config.Default(), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	b, err := Build(config.Default(), rand.New(rand.NewSource(99)))
	require.NoError(t, err)
	for i := range a.Shells {
		for j := range a.Shells[i].Markers {
			assert.Equal(t, a.Shells[i].Markers[j].Position, b.Shells[i].Markers[j].Position)
		}
	}
}

func TestBuildRejectsInvalid(t *testing.T) {
	cfg := config.Default()
	cfg.Actives.Count = 0
	_, err := Build(cfg, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, config.ErrInvalidConfiguration)
}

// keyOf scans r for marker.
func keyOf(r *Registry, marker *Node) (int, bool) {
	for i := range r.Len() {
		if e := r.At(i); e.Marker == marker {
			return e.Key, true
		}
	}
	return 0, false
}

func TestRegistryAddIgnoresDuplicates(t *testing.T) {
	r := NewRegistry()
	m := NewMarker("m", KindSphere, 1, 8, Material{})
	r.Add(m, 3)
	r.Add(m, 4)
	assert.Equal(t, 1, r.Len())
	key, ok := keyOf(r, m)
	require.True(t, ok)
	assert.Equal(t, 3, key)

	_, ok = keyOf(r, NewGroup("other"))
	assert.False(t, ok)
}

func TestRegistryIntersectNearestFirst(t *testing.T) {
	scene := NewGroup("scene")
	near := NewMarker("near", KindSphere, 1, 8, Material{})
	near.Position = math3d.V3(0, 0, 5)
	far := NewMarker("far", KindSphere, 1, 8, Material{})
	far.Position = math3d.V3(0, 0, -5)
	unregistered := NewMarker("other", KindSphere, 1, 8, Material{})
	unregistered.Position = math3d.V3(0, 0, 8)
	scene.Add(far, near, unregistered)
	scene.UpdateWorld()

	r := NewRegistry()
	r.Add(far, 2)
	r.Add(near, 1)

	hits := r.Intersect(math3d.NewRay(math3d.V3(0, 0, 20), math3d.V3(0, 0, -1)))
	require.Len(t, hits, 2)
	assert.Equal(t, 1, hits[0].Key)
	assert.Equal(t, 1, hits[0].Index)
	assert.InDelta(t, 14, hits[0].Distance, 1e-9)
	assert.Equal(t, 2, hits[1].Key)

	assert.Empty(t, r.Intersect(math3d.NewRay(math3d.V3(10, 0, 20), math3d.V3(0, 0, -1))))
}

func TestRegistryIntersectSkipsHidden(t *testing.T) {
	scene := NewGroup("scene")
	group := NewGroup("stack")
	inner := NewMarker("inner", KindSphere, 1, 8, Material{})
	outer := NewMarker("outer", KindSphere, 1, 8, Material{})
	outer.Position = math3d.V3(0, 0, 5)
	group.Add(inner)
	scene.Add(group, outer)
	scene.UpdateWorld()

	r := NewRegistry()
	r.Add(inner, 1)
	r.Add(outer, 2)
	ray := math3d.NewRay(math3d.V3(0, 0, 20), math3d.V3(0, 0, -1))
	require.Len(t, r.Intersect(ray), 2)

	outer.Visible = false
	hits := r.Intersect(ray)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].Key)

	// hidden through an ancestor
	group.Visible = false
	assert.Empty(t, r.Intersect(ray))
}

func TestWorldTransformFollowsParent(t *testing.T) {
	root := NewGroup("root")
	child := NewMarker("c", KindSphere, 2, 8, Material{})
	child.Position = math3d.V3(10, 0, 0)
	root.Add(child)

	root.Rotation.Y = math.Pi / 2
	root.SetScalar(2)
	root.UpdateWorld()

	assert.True(t, child.WorldCenter().ApproxEqual(math3d.V3(0, 0, -20), 1e-9), "got %v", child.WorldCenter())
	assert.InDelta(t, 4, child.WorldRadius(), 1e-9)

	root.Visible = false
	assert.False(t, child.EffectiveVisible())
}

func TestStats(t *testing.T) {
	g := buildDefault(t)
	s := g.Stats()
	assert.Equal(t, 1400, s.Discs)
	assert.Equal(t, 6, s.Actives)
	assert.Equal(t, 78, s.CoreMarkers)
	assert.Equal(t, 60, s.GlowMarkers)
	assert.Equal(t, 78, s.RegistrySize)
	assert.Equal(t, 1000, s.Segments)
	assert.Equal(t, 78, g.Scene.Count(KindSphere)-60)
}
