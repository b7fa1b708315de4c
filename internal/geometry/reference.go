package geometry

import "github.com/golang/geo/r3"

// Basis is the reference frame requested by the caller.
type Basis string

const (
	// BasisIMU expresses angles against the sensor's gravity vector.
	BasisIMU Basis = "imu"
	// BasisPlane expresses angles against a measured ground-plane normal.
	BasisPlane Basis = "plane"
)

// BasisUsed records which source actually supplied the reference vector,
// independent of what the caller requested.
type BasisUsed string

const (
	BasisUsedIMU         BasisUsed = "imu"
	BasisUsedPlane       BasisUsed = "plane"
	BasisUsedIMUFallback BasisUsed = "imu_fallback"
	BasisUsedDefault     BasisUsed = "default"
)

// resolveReference picks the "up" vector for angle computation. The chain
// always yields a usable unit vector:
//
//  1. imu requested, gravity usable: up is the negated, normalized gravity.
//  2. imu requested, gravity missing or degenerate, ground normal known:
//     fall back to the normalized ground normal.
//  3. plane requested, ground normal known: the normalized ground normal.
//  4. otherwise +Z, recorded as imu_fallback when an IMU reference was
//     requested but unavailable, and default in every other case.
func resolveReference(basis Basis, gravity, groundNormal *r3.Vector) (r3.Vector, BasisUsed) {
	if basis == BasisIMU {
		if gravity != nil && gravity.Norm() > degenerateNormEps {
			return gravity.Mul(-1 / gravity.Norm()), BasisUsedIMU
		}
		if groundNormal != nil && groundNormal.Norm() > degenerateNormEps {
			return groundNormal.Normalize(), BasisUsedPlane
		}
		return r3.Vector{Z: 1}, BasisUsedIMUFallback
	}
	if basis == BasisPlane && groundNormal != nil && groundNormal.Norm() > degenerateNormEps {
		return groundNormal.Normalize(), BasisUsedPlane
	}
	return r3.Vector{Z: 1}, BasisUsedDefault
}
