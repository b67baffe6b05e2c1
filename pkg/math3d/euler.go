package math3d

import "math"

// Euler holds rotation angles (radians) applied in XYZ order, so the
// rotation matrix is RotateX(X) * RotateY(Y) * RotateZ(Z).
type Euler struct {
	X, Y, Z float64
}

// Mat4 returns the rotation matrix.
func (e Euler) Mat4() Mat4 {
	return RotateX(e.X).Mul(RotateY(e.Y)).Mul(RotateZ(e.Z))
}

// EulerFromMat4 extracts XYZ angles from the rotation part of m.
// m must be a pure rotation (no scale).
func EulerFromMat4(m Mat4) Euler {
	m11, m12, m13 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m22, m23 := m.At(1, 1), m.At(1, 2)
	m32, m33 := m.At(2, 1), m.At(2, 2)

	var e Euler
	e.Y = math.Asin(math.Max(-1, math.Min(1, m13)))
	if math.Abs(m13) < 0.9999999 {
		e.X = math.Atan2(-m23, m33)
		e.Z = math.Atan2(-m12, m11)
	} else {
		// gimbal lock
		e.X = math.Atan2(m32, m22)
	}
	return e
}

// LookRotation returns the rotation that turns an object at position so its
// local +Z axis points at target. Flat markers lying in the XY plane end up
// facing along the position→target direction.
func LookRotation(position, target, up Vec3) Mat4 {
	z := target.Sub(position).Normalize()
	if z.LenSq() == 0 {
		return Identity()
	}
	x := up.Cross(z)
	if x.LenSq() < 1e-12 {
		// up is parallel to z, nudge it
		if math.Abs(up.Z) == 1 {
			z.X += 0.0001
		} else {
			z.Z += 0.0001
		}
		z = z.Normalize()
		x = up.Cross(z)
	}
	x = x.Normalize()
	y := z.Cross(x)
	return Mat4{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		0, 0, 0, 1,
	}
}
