package math3d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func TestFromSphericalAxes(t *testing.T) {
	tests := []struct {
		name       string
		phi, theta float64
		want       Vec3
	}{
		{"north pole", 0, 0, V3(0, 10, 0)},
		{"south pole", math.Pi, 0, V3(0, -10, 0)},
		{"equator +Z", math.Pi / 2, 0, V3(0, 0, 10)},
		{"equator +X", math.Pi / 2, math.Pi / 2, V3(10, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromSpherical(10, tt.phi, tt.theta)
			assert.True(t, got.ApproxEqual(tt.want, 1e-9), "got %v want %v", got, tt.want)
		})
	}
}

func TestMat4InverseRoundTrip(t *testing.T) {
	m := Compose(V3(3, -4, 5), Euler{X: 0.3, Y: -1.1, Z: 2}, V3(2, 2, 2))
	p := V3(1, 2, 3)
	back := m.Inverse().MulVec3(m.MulVec3(p))
	assert.True(t, back.ApproxEqual(p, 1e-9), "round trip %v", back)

	ident := m.Mul(m.Inverse())
	for i := range ident {
		assert.InDelta(t, Identity()[i], ident[i], 1e-9)
	}
}

func TestEulerFromMat4(t *testing.T) {
	e := Euler{X: 0.4, Y: -0.7, Z: 1.2}
	got := EulerFromMat4(e.Mat4())
	assert.InDelta(t, e.X, got.X, tol)
	assert.InDelta(t, e.Y, got.Y, tol)
	assert.InDelta(t, e.Z, got.Z, tol)
}

func TestLookRotationFacesTarget(t *testing.T) {
	pos := FromSpherical(177, 1.1, 2.3)
	rot := LookRotation(pos, pos.Scale(2), V3(0, 1, 0))
	// local +Z must point outward along the radius
	z := rot.MulVec3Dir(V3(0, 0, 1))
	assert.True(t, z.ApproxEqual(pos.Normalize(), 1e-9), "z axis %v", z)

	// and must survive the Euler round trip used by scene nodes
	again := EulerFromMat4(rot).Mat4().MulVec3Dir(V3(0, 0, 1))
	assert.True(t, again.ApproxEqual(z, 1e-9))
}

func TestLookRotationParallelUp(t *testing.T) {
	rot := LookRotation(V3(0, 5, 0), V3(0, 10, 0), V3(0, 1, 0))
	z := rot.MulVec3Dir(V3(0, 0, 1))
	require.True(t, z.IsFinite())
	assert.Greater(t, z.Y, 0.99)
}

func TestRayIntersectSphere(t *testing.T) {
	r := NewRay(V3(0, 0, 10), V3(0, 0, -1))

	d, ok := r.IntersectSphere(Zero3(), 2)
	require.True(t, ok)
	assert.InDelta(t, 8, d, tol)

	_, ok = r.IntersectSphere(V3(5, 0, 0), 2)
	assert.False(t, ok, "sphere off to the side")

	_, ok = r.IntersectSphere(V3(0, 0, 20), 2)
	assert.False(t, ok, "sphere behind the origin")

	inside := NewRay(Zero3(), V3(1, 0, 0))
	d, ok = inside.IntersectSphere(Zero3(), 3)
	require.True(t, ok)
	assert.InDelta(t, 3, d, tol)
}

func TestRayIntersectDisc(t *testing.T) {
	r := NewRay(V3(0, 0, 10), V3(0, 0, -1))
	d, ok := r.IntersectDisc(Zero3(), V3(0, 0, 1), 1)
	require.True(t, ok)
	assert.InDelta(t, 10, d, tol)

	_, ok = r.IntersectDisc(V3(3, 0, 0), V3(0, 0, 1), 1)
	assert.False(t, ok)

	_, ok = r.IntersectDisc(Zero3(), V3(1, 0, 0), 1)
	assert.False(t, ok, "edge-on disc")
}

func TestPerspectiveMapsNearFar(t *testing.T) {
	p := Perspective(math.Pi/2, 1, 1, 100)
	near := p.MulVec3(V3(0, 0, -1))
	far := p.MulVec3(V3(0, 0, -100))
	assert.InDelta(t, -1, near.Z, 1e-9)
	assert.InDelta(t, 1, far.Z, 1e-9)
}

func TestMaxScaleNegative(t *testing.T) {
	m := Scale(V3(-3, -3, -3)).Mul(RotateY(0.7))
	assert.InDelta(t, 3, m.MaxScale(), 1e-9)
}
