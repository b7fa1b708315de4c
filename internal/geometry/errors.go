package geometry

import "errors"

var (
	// ErrInsufficientPoints is returned when a cloud has fewer than the
	// minimum raw points, or the outlier filter leaves too few behind.
	ErrInsufficientPoints = errors.New("insufficient points for fitting")

	// ErrDegenerateFit is returned when RANSAC finds no inliers or every
	// sampled model has a near-zero normal/axis norm.
	ErrDegenerateFit = errors.New("degenerate fit: no usable model found")

	// ErrNumericInstability is returned when non-finite values corrupt the
	// angle computation.
	ErrNumericInstability = errors.New("non-finite value in computation")
)
