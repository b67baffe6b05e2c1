package math3d

import "math"

// FromSpherical converts spherical coordinates to Cartesian with Y up.
// phi is the polar angle from +Y, theta the azimuth around Y measured from +Z.
func FromSpherical(radius, phi, theta float64) Vec3 {
	sinPhi := math.Sin(phi)
	return Vec3{
		X: radius * sinPhi * math.Sin(theta),
		Y: radius * math.Cos(phi),
		Z: radius * sinPhi * math.Cos(theta),
	}
}
