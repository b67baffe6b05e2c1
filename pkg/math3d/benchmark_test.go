package math3d

import (
	"math"
	"testing"
)

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Translate(V3(1, 2, 3))
	m2 := RotateY(0.5)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m1.Mul(m2)
	}
}

func BenchmarkMat4MulVec3(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5))
	v := V3(1, 2, 3)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.MulVec3(v)
	}
}

func BenchmarkMat4Inverse(b *testing.B) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5)).Mul(Scale(V3(2, 2, 2)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Inverse()
	}
}

func BenchmarkCompose(b *testing.B) {
	pos := V3(10, 20, 30)
	rot := Euler{X: 0.1, Y: 0.2, Z: 0.3}
	scale := V3(-2, -2, -2)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Compose(pos, rot, scale)
	}
}

func BenchmarkViewProjection(b *testing.B) {
	// Same product the camera builds every frame
	view := LookAt(V3(0, 0, 500), Zero3(), V3(0, 1, 0))
	proj := Perspective(70*math.Pi/180, 1.333, 1, 3000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = proj.Mul(view)
	}
}

func BenchmarkIntersectSphere(b *testing.B) {
	r := NewRay(V3(0, 0, 500), V3(0.01, 0, -1))
	c := V3(0, 0, 175)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.IntersectSphere(c, 13)
	}
}
