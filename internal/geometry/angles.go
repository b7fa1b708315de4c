package geometry

import (
	"math"

	"github.com/golang/geo/r3"
)

// verticalAlignEps bounds how close reference·vertical must be to ±1 before
// the rotation degenerates into the identity / flip special cases.
const verticalAlignEps = 1e-9

// rotationMatrix is a 3x3 row-major rotation.
type rotationMatrix [3][3]float64

func (m rotationMatrix) apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// rotationToVertical builds the rotation that maps the unit reference
// vector onto +Z, via Rodrigues' formula over the axis reference x Z.
// A reference already at +Z yields the identity; a reference at -Z yields
// a half turn about X (any perpendicular axis serves).
func rotationToVertical(reference r3.Vector) rotationMatrix {
	ref := reference.Normalize()
	cosAngle := ref.Z // ref · (0,0,1)

	if cosAngle > 1-verticalAlignEps {
		return rotationMatrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	}
	if cosAngle < -1+verticalAlignEps {
		return rotationMatrix{{1, 0, 0}, {0, -1, 0}, {0, 0, -1}}
	}

	axis := ref.Cross(r3.Vector{Z: 1}).Normalize()
	angle := math.Acos(math.Max(-1, math.Min(1, cosAngle)))
	sin, cos := math.Sin(angle), math.Cos(angle)

	// R = I + sin(θ)K + (1-cos(θ))K², K the cross-product matrix of axis.
	k := rotationMatrix{
		{0, -axis.Z, axis.Y},
		{axis.Z, 0, -axis.X},
		{-axis.Y, axis.X, 0},
	}
	var r rotationMatrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var k2 float64
			for l := 0; l < 3; l++ {
				k2 += k[i][l] * k[l][j]
			}
			r[i][j] = sin*k[i][j] + (1-cos)*k2
			if i == j {
				r[i][j]++
			}
		}
	}
	return r
}

// computePitchRoll rotates the fitted direction into the reference frame
// and derives signed pitch/roll in degrees, rounded to 0.1. atan2 keeps the
// angles well defined across the whole operating range.
func computePitchRoll(direction, reference r3.Vector) (pitch, roll float64, err error) {
	dir := direction.Normalize()
	rotated := rotationToVertical(reference).apply(dir)
	if !finiteVec(rotated) {
		return 0, 0, ErrNumericInstability
	}

	pitch = roundTenth(math.Atan2(rotated.X, rotated.Z) * 180 / math.Pi)
	roll = roundTenth(math.Atan2(rotated.Y, rotated.Z) * 180 / math.Pi)
	if !finite(pitch) || !finite(roll) {
		return 0, 0, ErrNumericInstability
	}
	return pitch, roll, nil
}

func roundTenth(deg float64) float64 {
	return math.Round(deg*10) / 10
}
