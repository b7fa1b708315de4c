package geometry

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// pointLineDistance is the perpendicular distance from p to the line
// through base along the unit vector axis.
func pointLineDistance(p, base, axis r3.Vector) float64 {
	v := p.Sub(base)
	return v.Sub(axis.Mul(v.Dot(axis))).Norm()
}

// principalAxis returns the eigenvector of the largest eigenvalue of the
// covariance of the centered points, i.e. the direction of greatest spread.
func principalAxis(points []r3.Vector, center r3.Vector) (r3.Vector, error) {
	var cov [6]float64 // xx, xy, xz, yy, yz, zz
	for _, p := range points {
		dx, dy, dz := p.X-center.X, p.Y-center.Y, p.Z-center.Z
		cov[0] += dx * dx
		cov[1] += dx * dy
		cov[2] += dx * dz
		cov[3] += dy * dy
		cov[4] += dy * dz
		cov[5] += dz * dz
	}
	n := float64(len(points))
	covMat := mat.NewSymDense(3, []float64{
		cov[0] / n, cov[1] / n, cov[2] / n,
		cov[1] / n, cov[3] / n, cov[4] / n,
		cov[2] / n, cov[4] / n, cov[5] / n,
	})

	var eig mat.EigenSym
	if !eig.Factorize(covMat, true) {
		return r3.Vector{}, fmt.Errorf("%w: eigendecomposition failed", ErrNumericInstability)
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// EigenSym orders eigenvalues ascending; the last column spans the axis.
	axis := r3.Vector{X: vecs.At(0, 2), Y: vecs.At(1, 2), Z: vecs.At(2, 2)}
	norm := axis.Norm()
	if norm < degenerateNormEps || !finiteVec(axis) {
		return r3.Vector{}, fmt.Errorf("%w: degenerate principal axis", ErrNumericInstability)
	}
	return axis.Mul(1 / norm), nil
}

// fitLine estimates the dominant axis in the cloud: statistical outlier
// filtering, RANSAC over 2-point samples, then PCA refinement over the
// winning inlier set. The refined axis is sign-canonicalized so its Z
// component is non-negative.
func fitLine(points []r3.Vector, ransac RANSACConfig, pre PreprocessConfig, rng *rand.Rand) (*FitResult, error) {
	filtered, _, err := filterOutliers(points, pre)
	if err != nil {
		return nil, err
	}
	if len(filtered) < pre.MinFiltered {
		return nil, fmt.Errorf("%w: %d points after outlier removal (minimum %d)", ErrInsufficientPoints, len(filtered), pre.MinFiltered)
	}

	var bestInliers []int
	for iter := 0; iter < ransac.Iterations; iter++ {
		idx := sampleDistinct(rng, len(filtered), 2)
		p0, p1 := filtered[idx[0]], filtered[idx[1]]

		axis := p1.Sub(p0)
		norm := axis.Norm()
		if norm < degenerateNormEps {
			continue // coincident sample
		}
		axis = axis.Mul(1 / norm)

		inliers := make([]int, 0, len(filtered))
		for i, p := range filtered {
			if pointLineDistance(p, p0, axis) < ransac.DistanceThreshold {
				inliers = append(inliers, i)
			}
		}
		if len(inliers) > len(bestInliers) {
			bestInliers = inliers
		}
	}

	if len(bestInliers) == 0 {
		return nil, fmt.Errorf("%w: line consensus is empty", ErrDegenerateFit)
	}

	inlierPts := gather(filtered, bestInliers)
	c := centroid(inlierPts)

	axis, err := principalAxis(inlierPts, c)
	if err != nil {
		return nil, err
	}
	if axis.Z < 0 {
		axis = axis.Mul(-1)
	}

	var sumSq float64
	for _, p := range inlierPts {
		d := pointLineDistance(p, c, axis)
		sumSq += d * d
	}
	rms := math.Sqrt(sumSq / float64(len(inlierPts)))

	return &FitResult{
		Kind:        FitLine,
		Direction:   axis,
		Point:       c,
		InlierRatio: float64(len(bestInliers)) / float64(len(filtered)),
		ResidualRMS: rms,
		Iterations:  ransac.Iterations,
		Inliers:     bestInliers,
	}, nil
}
