package geometry

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func TestResolveReference(t *testing.T) {
	gravityDown := &r3.Vector{Z: -9.81}
	tiltedNormal := &r3.Vector{X: 0.1, Z: 2}
	degenerate := &r3.Vector{}

	tests := []struct {
		name      string
		basis     Basis
		gravity   *r3.Vector
		ground    *r3.Vector
		wantRef   r3.Vector
		wantBasis BasisUsed
	}{
		{
			name:      "imu with gravity",
			basis:     BasisIMU,
			gravity:   gravityDown,
			wantRef:   r3.Vector{Z: 1},
			wantBasis: BasisUsedIMU,
		},
		{
			name:      "imu without gravity falls back to plane",
			basis:     BasisIMU,
			ground:    tiltedNormal,
			wantRef:   tiltedNormal.Normalize(),
			wantBasis: BasisUsedPlane,
		},
		{
			name:      "imu with degenerate gravity falls back to plane",
			basis:     BasisIMU,
			gravity:   degenerate,
			ground:    tiltedNormal,
			wantRef:   tiltedNormal.Normalize(),
			wantBasis: BasisUsedPlane,
		},
		{
			name:      "imu with nothing available",
			basis:     BasisIMU,
			wantRef:   r3.Vector{Z: 1},
			wantBasis: BasisUsedIMUFallback,
		},
		{
			name:      "plane with ground normal",
			basis:     BasisPlane,
			ground:    tiltedNormal,
			wantRef:   tiltedNormal.Normalize(),
			wantBasis: BasisUsedPlane,
		},
		{
			name:      "plane without ground normal",
			basis:     BasisPlane,
			wantRef:   r3.Vector{Z: 1},
			wantBasis: BasisUsedDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, used := resolveReference(tt.basis, tt.gravity, tt.ground)
			if used != tt.wantBasis {
				t.Errorf("basis used = %q, want %q", used, tt.wantBasis)
			}
			if ref.Sub(tt.wantRef).Norm() > 1e-9 {
				t.Errorf("reference = %v, want %v", ref, tt.wantRef)
			}
			if math.Abs(ref.Norm()-1) > 1e-9 {
				t.Errorf("reference not unit length: %v", ref.Norm())
			}
		})
	}
}
