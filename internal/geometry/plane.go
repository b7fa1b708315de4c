package geometry

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
)

const degenerateNormEps = 1e-6

// sampleDistinct draws k distinct indices in [0, n).
func sampleDistinct(rng *rand.Rand, n, k int) []int {
	idx := make([]int, 0, k)
	seen := make(map[int]bool, k)
	for len(idx) < k {
		i := rng.Intn(n)
		if seen[i] {
			continue
		}
		seen[i] = true
		idx = append(idx, i)
	}
	return idx
}

// fitPlane estimates the dominant plane in the cloud: statistical outlier
// filtering, then RANSAC over 3-point samples keeping the model with the
// largest inlier consensus, then refinement of the representative point to
// the inlier centroid projected onto the winning plane.
func fitPlane(points []r3.Vector, ransac RANSACConfig, pre PreprocessConfig, rng *rand.Rand) (*FitResult, error) {
	filtered, _, err := filterOutliers(points, pre)
	if err != nil {
		return nil, err
	}
	if len(filtered) < pre.MinFiltered {
		return nil, fmt.Errorf("%w: %d points after outlier removal (minimum %d)", ErrInsufficientPoints, len(filtered), pre.MinFiltered)
	}

	var (
		bestNormal  r3.Vector
		bestD       float64
		bestInliers []int
	)

	for iter := 0; iter < ransac.Iterations; iter++ {
		idx := sampleDistinct(rng, len(filtered), 3)
		p0, p1, p2 := filtered[idx[0]], filtered[idx[1]], filtered[idx[2]]

		normal := p1.Sub(p0).Cross(p2.Sub(p0))
		norm := normal.Norm()
		if norm < degenerateNormEps {
			continue // collinear sample
		}
		normal = normal.Mul(1 / norm)
		d := -normal.Dot(p0)

		inliers := make([]int, 0, len(filtered))
		for i, p := range filtered {
			if math.Abs(normal.Dot(p)+d) < ransac.DistanceThreshold {
				inliers = append(inliers, i)
			}
		}
		if len(inliers) > len(bestInliers) {
			bestNormal = normal
			bestD = d
			bestInliers = inliers
		}
	}

	if len(bestInliers) == 0 {
		return nil, fmt.Errorf("%w: plane consensus is empty", ErrDegenerateFit)
	}

	// Same sign convention as the line fitter: the normal's vertical
	// component is non-negative, so repeated fits agree.
	if bestNormal.Z < 0 {
		bestNormal = bestNormal.Mul(-1)
		bestD = -bestD
	}

	inlierPts := gather(filtered, bestInliers)
	c := centroid(inlierPts)

	// Representative point: centroid projected orthogonally onto the plane.
	t := -(bestNormal.Dot(c) + bestD)
	point := c.Add(bestNormal.Mul(t))

	var sumSq float64
	for _, p := range inlierPts {
		dist := bestNormal.Dot(p) + bestD
		sumSq += dist * dist
	}
	rms := math.Sqrt(sumSq / float64(len(inlierPts)))

	return &FitResult{
		Kind:        FitPlane,
		Direction:   bestNormal,
		Point:       point,
		InlierRatio: float64(len(bestInliers)) / float64(len(filtered)),
		ResidualRMS: rms,
		Iterations:  ransac.Iterations,
		Inliers:     bestInliers,
	}, nil
}
