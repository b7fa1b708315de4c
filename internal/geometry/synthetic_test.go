package geometry

import (
	"math/rand"

	"github.com/golang/geo/r3"
)

// makePlaneCloud samples n points on z = a*x + b*y with x,y in [-1,1] and
// gaussian noise of the given sigma added to z.
func makePlaneCloud(rng *rand.Rand, n int, a, b, sigma float64) []r3.Vector {
	pts := make([]r3.Vector, n)
	for i := range pts {
		x := rng.Float64()*2 - 1
		y := rng.Float64()*2 - 1
		pts[i] = r3.Vector{X: x, Y: y, Z: a*x + b*y + rng.NormFloat64()*sigma}
	}
	return pts
}

// makeLineCloud samples n points along the unit axis with t in [-0.5, 0.5]
// and gaussian noise of the given sigma perpendicular to it.
func makeLineCloud(rng *rand.Rand, n int, axis r3.Vector, sigma float64) []r3.Vector {
	axis = axis.Normalize()
	pts := make([]r3.Vector, n)
	for i := range pts {
		t := rng.Float64() - 0.5
		p := axis.Mul(t)
		pts[i] = r3.Vector{
			X: p.X + rng.NormFloat64()*sigma,
			Y: p.Y + rng.NormFloat64()*sigma,
			Z: p.Z + rng.NormFloat64()*sigma,
		}
	}
	return pts
}

// makeBallCloud samples n points uniformly inside a ball of the given
// radius; no plane or line dominates such a cloud.
func makeBallCloud(rng *rand.Rand, n int, radius float64) []r3.Vector {
	pts := make([]r3.Vector, 0, n)
	for len(pts) < n {
		v := r3.Vector{
			X: rng.Float64()*2 - 1,
			Y: rng.Float64()*2 - 1,
			Z: rng.Float64()*2 - 1,
		}
		if v.Norm() <= 1 {
			pts = append(pts, v.Mul(radius))
		}
	}
	return pts
}
