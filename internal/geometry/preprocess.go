package geometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"
)

// filterOutliers removes statistical outliers from the cloud: each point's
// mean distance to its k nearest neighbors is compared against the global
// mean plus StdRatio standard deviations, and points beyond the cut are
// dropped. Reflective speckle and edge noise land far from their neighbors
// and get removed; contiguous surfaces survive.
//
// Returns the filtered cloud and the original point count.
func filterOutliers(points []r3.Vector, cfg PreprocessConfig) ([]r3.Vector, int, error) {
	n := len(points)
	if n < cfg.MinPoints {
		return nil, n, fmt.Errorf("%w: %d points (minimum %d required)", ErrInsufficientPoints, n, cfg.MinPoints)
	}

	k := cfg.Neighbors
	if k >= n {
		k = n - 1
	}

	// Mean distance to the k nearest neighbors, brute force. Clouds here
	// are ROI crops of a few thousand points at most.
	meanDists := make([]float64, n)
	dists := make([]float64, 0, n-1)
	for i, p := range points {
		dists = dists[:0]
		for j, q := range points {
			if i == j {
				continue
			}
			dists = append(dists, p.Sub(q).Norm())
		}
		sort.Float64s(dists)
		var sum float64
		for _, d := range dists[:k] {
			sum += d
		}
		meanDists[i] = sum / float64(k)
	}

	var mean float64
	for _, d := range meanDists {
		mean += d
	}
	mean /= float64(n)

	var variance float64
	for _, d := range meanDists {
		diff := d - mean
		variance += diff * diff
	}
	stddev := math.Sqrt(variance / float64(n))

	cutoff := mean + cfg.StdRatio*stddev
	filtered := make([]r3.Vector, 0, n)
	for i, p := range points {
		if meanDists[i] <= cutoff {
			filtered = append(filtered, p)
		}
	}

	return filtered, n, nil
}
