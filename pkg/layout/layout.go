// Package layout places points on a sphere with a deterministic spiral
// recurrence, the same way for every run with the same count.
package layout

import (
	"fmt"
	"math"

	"github.com/taigrr/fireball/pkg/config"
	"github.com/taigrr/fireball/pkg/math3d"
)

// Point is one generated sample.
type Point struct {
	Index    int
	Phi      float64 // polar angle from +Y
	Theta    float64 // azimuth
	Position math3d.Vec3
	// Look is the outward look-at target (twice the position), used to
	// turn flat markers so they face away from the center.
	Look math3d.Vec3
}

// Generate returns exactly n points on a sphere of the given radius:
//
//	phi   = acos(-1 + 2i/n)
//	theta = sqrt(n*pi) * phi
func Generate(n int, radius float64) ([]Point, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: point count must be positive, got %d", config.ErrInvalidConfiguration, n)
	}
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: radius must be positive and finite, got %v", config.ErrInvalidConfiguration, radius)
	}

	spiral := math.Sqrt(float64(n) * math.Pi)
	points := make([]Point, n)
	for i := range points {
		phi := math.Acos(-1 + 2*float64(i)/float64(n))
		theta := spiral * phi
		pos := math3d.FromSpherical(radius, phi, theta)
		points[i] = Point{
			Index:    i,
			Phi:      phi,
			Theta:    theta,
			Position: pos,
			Look:     pos.Scale(2),
		}
	}
	return points, nil
}

// BaseSize is the nominal marker size for index i: every 31st marker gets
// the full size, the rest a third of it.
func BaseSize(i int, full float64) float64 {
	if i%31 == 0 {
		return full
	}
	return full / 3
}

// MarkerSize applies the cosmetic jitter to BaseSize. jitter is a sample in
// [0, 1); the result is mod(jitter, d) * d.
func MarkerSize(i int, full, jitter float64) float64 {
	d := BaseSize(i, full)
	return math.Mod(jitter, d) * d
}
