package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
)

func TestFitPlane_Coplanar(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	pts := makePlaneCloud(rng, 300, 0, 0, 0.001)

	fit, err := fitPlane(pts, DefaultConfig().Plane, DefaultConfig().Preprocess, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fit.Kind != FitPlane {
		t.Errorf("kind = %q, want plane", fit.Kind)
	}
	if fit.InlierRatio <= 0.9 {
		t.Errorf("inlier ratio = %.3f, want > 0.9", fit.InlierRatio)
	}
	if fit.ResidualRMS >= 0.005 {
		t.Errorf("residual RMS = %.4f, want < 0.005", fit.ResidualRMS)
	}
	if dot := math.Abs(fit.Direction.Dot(r3.Vector{Z: 1})); dot < 0.99 {
		t.Errorf("normal %v not aligned with +Z (|dot| = %.4f)", fit.Direction, dot)
	}
	if math.Abs(fit.Direction.Norm()-1) > 1e-9 {
		t.Errorf("normal not unit length: %v", fit.Direction.Norm())
	}
}

func TestFitPlane_Slanted(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	pts := makePlaneCloud(rng, 500, 0.5, 0.3, 0.01)

	fit, err := fitPlane(pts, DefaultConfig().Plane, DefaultConfig().Preprocess, rand.New(rand.NewSource(8)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fit.InlierRatio <= 0.5 {
		t.Errorf("inlier ratio = %.3f, want > 0.5", fit.InlierRatio)
	}
	if fit.ResidualRMS >= 0.05 {
		t.Errorf("residual RMS = %.4f, want < 0.05", fit.ResidualRMS)
	}
	want := r3.Vector{X: -0.5, Y: -0.3, Z: 1}.Normalize()
	if dot := math.Abs(fit.Direction.Dot(want)); dot < 0.98 {
		t.Errorf("normal %v far from generating normal %v (|dot| = %.4f)", fit.Direction, want, dot)
	}
}

func TestFitPlane_InlierIndicesInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	pts := makePlaneCloud(rng, 200, 0.1, 0, 0.001)

	fit, err := fitPlane(pts, DefaultConfig().Plane, DefaultConfig().Preprocess, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fit.Inliers) == 0 {
		t.Fatal("expected non-empty inlier set")
	}
	for _, i := range fit.Inliers {
		if i < 0 || i >= 200 {
			t.Fatalf("inlier index %d out of range", i)
		}
	}
}

func TestFitPlane_NormalPointsUpward(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for seed := int64(0); seed < 5; seed++ {
		pts := makePlaneCloud(rng, 200, 0.3, -0.2, 0.002)
		fit, err := fitPlane(pts, DefaultConfig().Plane, DefaultConfig().Preprocess, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}
		if fit.Direction.Z < 0 {
			t.Errorf("seed %d: normal %v has negative Z", seed, fit.Direction)
		}
	}
}

func TestFitPlane_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	pts := makePlaneCloud(rng, 300, 0.2, -0.1, 0.005)

	a, err := fitPlane(pts, DefaultConfig().Plane, DefaultConfig().Preprocess, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := fitPlane(pts, DefaultConfig().Plane, DefaultConfig().Preprocess, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Direction != b.Direction || a.Point != b.Point || a.InlierRatio != b.InlierRatio {
		t.Errorf("same seed produced different fits: %+v vs %+v", a, b)
	}
}
