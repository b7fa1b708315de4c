// Package geometry implements the valve angle estimation core: statistical
// outlier filtering, RANSAC plane and line fitting, reference frame
// resolution, and rotation-based pitch/roll derivation with quality gating.
//
// The engine is a pure function of its inputs plus an immutable Config, so
// concurrent calls on independent inputs need no locking. Each call draws
// RANSAC samples from its own rand.Rand.
package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// FitKind identifies the geometric primitive a FitResult describes.
type FitKind string

const (
	// FitPlane marks a plane fit; Direction is the unit normal.
	FitPlane FitKind = "plane"
	// FitLine marks a line (axis) fit; Direction is the unit axis.
	FitLine FitKind = "line"
)

// FitResult is the outcome of one RANSAC fit over a filtered cloud. It is
// transient: produced and consumed within a single estimation call.
type FitResult struct {
	Kind        FitKind
	Direction   r3.Vector // unit normal (plane) or unit axis (line)
	Point       r3.Vector // representative point on the model
	InlierRatio float64   // inliers / filtered point count
	ResidualRMS float64   // RMS of inlier distances to the model, metres
	Iterations  int
	Inliers     []int // indices into the filtered cloud
}

// TargetType selects the valve feature being measured.
type TargetType string

const (
	// TargetStemAxis is the valve stem axis (line fit).
	TargetStemAxis TargetType = "A"
	// TargetHandleFace is the handle face (plane fit).
	TargetHandleFace TargetType = "B"
	// TargetFlangeFace is the flange face (plane fit).
	TargetFlangeFace TargetType = "C"
	// TargetPipeAxis is the pipe axis (line fit).
	TargetPipeAxis TargetType = "D"
)

// IMUFrame carries the sensor's gravity estimate. Attitude data from the
// device is passed through by callers but unused here.
type IMUFrame struct {
	Gravity *r3.Vector
}

func centroid(points []r3.Vector) r3.Vector {
	var c r3.Vector
	for _, p := range points {
		c = c.Add(p)
	}
	n := float64(len(points))
	return r3.Vector{X: c.X / n, Y: c.Y / n, Z: c.Z / n}
}

func gather(points []r3.Vector, idx []int) []r3.Vector {
	out := make([]r3.Vector, len(idx))
	for i, j := range idx {
		out[i] = points[j]
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func finiteVec(v r3.Vector) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}
