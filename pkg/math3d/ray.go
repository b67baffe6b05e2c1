package math3d

import "math"

// Ray is a half-line with a unit direction.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// NewRay normalizes dir.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize()}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Dir.Scale(t))
}

// IntersectSphere returns the distance to the nearest intersection with the
// sphere in front of the origin. An origin inside the sphere hits the far
// side.
func (r Ray) IntersectSphere(center Vec3, radius float64) (float64, bool) {
	oc := r.Origin.Sub(center)
	b := oc.Dot(r.Dir)
	c := oc.LenSq() - radius*radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := math.Sqrt(disc)
	t := -b - sq
	if t < 0 {
		t = -b + sq
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// IntersectDisc intersects a flat disc given by center, unit normal and radius.
func (r Ray) IntersectDisc(center, normal Vec3, radius float64) (float64, bool) {
	denom := normal.Dot(r.Dir)
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	t := center.Sub(r.Origin).Dot(normal) / denom
	if t < 0 {
		return 0, false
	}
	if r.At(t).Sub(center).LenSq() > radius*radius {
		return 0, false
	}
	return t, true
}
