package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
)

func TestFitLine_Collinear(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	pts := makeLineCloud(rng, 300, r3.Vector{Z: 1}, 0.002)

	fit, err := fitLine(pts, DefaultConfig().Line, DefaultConfig().Preprocess, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fit.Kind != FitLine {
		t.Errorf("kind = %q, want line", fit.Kind)
	}
	if fit.InlierRatio <= 0.5 {
		t.Errorf("inlier ratio = %.3f, want > 0.5", fit.InlierRatio)
	}
	if dot := math.Abs(fit.Direction.Dot(r3.Vector{Z: 1})); dot < 0.99 {
		t.Errorf("axis %v not aligned with Z (|dot| = %.4f)", fit.Direction, dot)
	}
}

func TestFitLine_NoisyVerticalAxis(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	pts := makeLineCloud(rng, 500, r3.Vector{Z: 1}, 0.01)

	fit, err := fitLine(pts, DefaultConfig().Line, DefaultConfig().Preprocess, rand.New(rand.NewSource(13)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dot := math.Abs(fit.Direction.Dot(r3.Vector{Z: 1})); dot < 0.99 {
		t.Errorf("axis %v not aligned with Z (|dot| = %.4f)", fit.Direction, dot)
	}
}

func TestFitLine_SignCanonicalization(t *testing.T) {
	rng := rand.New(rand.NewSource(14))
	// A diagonal axis; PCA could return either sign without the flip.
	axis := r3.Vector{X: 0.3, Y: -0.2, Z: 0.9}
	pts := makeLineCloud(rng, 300, axis, 0.002)

	fit, err := fitLine(pts, DefaultConfig().Line, DefaultConfig().Preprocess, rand.New(rand.NewSource(15)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fit.Direction.Z < 0 {
		t.Errorf("axis Z component negative after canonicalization: %v", fit.Direction)
	}
	if dot := math.Abs(fit.Direction.Dot(axis.Normalize())); dot < 0.99 {
		t.Errorf("axis %v far from generating axis (|dot| = %.4f)", fit.Direction, dot)
	}
}

func TestFitLine_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(16))
	pts := makeLineCloud(rng, 300, r3.Vector{X: 1, Z: 2}, 0.003)

	a, err := fitLine(pts, DefaultConfig().Line, DefaultConfig().Preprocess, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := fitLine(pts, DefaultConfig().Line, DefaultConfig().Preprocess, rand.New(rand.NewSource(42)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Direction != b.Direction || a.Point != b.Point {
		t.Errorf("same seed produced different fits: %+v vs %+v", a, b)
	}
}

func TestPrincipalAxis_DominantSpread(t *testing.T) {
	pts := []r3.Vector{
		{X: -1, Y: 0.01, Z: 0},
		{X: -0.5, Y: -0.01, Z: 0.01},
		{X: 0, Y: 0, Z: -0.01},
		{X: 0.5, Y: 0.01, Z: 0},
		{X: 1, Y: -0.01, Z: 0.01},
	}
	axis, err := principalAxis(pts, centroid(pts))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dot := math.Abs(axis.Dot(r3.Vector{X: 1})); dot < 0.999 {
		t.Errorf("principal axis %v not along X (|dot| = %.5f)", axis, dot)
	}
}
