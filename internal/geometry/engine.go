package geometry

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/golang/geo/r3"
)

// Request is one angle estimation job: the ROI point cloud, the valve
// feature to fit, the requested reference basis, and optional IMU data and
// ground-reference points.
type Request struct {
	Points       []r3.Vector
	TargetType   TargetType
	Basis        Basis
	IMU          *IMUFrame
	GroundPoints []r3.Vector
}

// AngleResult is the complete outcome of an estimation. Every code path
// produces one; expected failures set Success=false with zeroed angles and
// a descriptive message rather than surfacing an error.
type AngleResult struct {
	PitchDeg         float64   `json:"pitch"`
	RollDeg          float64   `json:"roll"`
	BasisUsed        BasisUsed `json:"basis_used"`
	Quality          Quality   `json:"quality"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Success          bool      `json:"success"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	Warning          string    `json:"warning,omitempty"`
}

// Engine runs the full estimation pipeline. Configuration is fixed at
// construction, so a single Engine is safe for concurrent use; each call
// gets its own RANSAC sampler.
type Engine struct {
	cfg Config
}

// NewEngine builds an engine around the given thresholds.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's thresholds.
func (e *Engine) Config() Config {
	return e.cfg
}

// FitPlane filters the cloud and fits the dominant plane. A nil rng gets a
// time-seeded source.
func (e *Engine) FitPlane(points []r3.Vector, rng *rand.Rand) (*FitResult, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return fitPlane(points, e.cfg.Plane, e.cfg.Preprocess, rng)
}

// FitLine filters the cloud and fits the dominant axis. A nil rng gets a
// time-seeded source.
func (e *Engine) FitLine(points []r3.Vector, rng *rand.Rand) (*FitResult, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return fitLine(points, e.cfg.Line, e.cfg.Preprocess, rng)
}

// EstimateAngle runs the whole pipeline with a time-seeded RANSAC sampler.
func (e *Engine) EstimateAngle(req Request) AngleResult {
	return e.estimate(req, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// EstimateAngleSeeded runs the pipeline with a fixed seed so identical
// inputs reproduce bit-identical fits.
func (e *Engine) EstimateAngleSeeded(req Request, seed int64) AngleResult {
	return e.estimate(req, rand.New(rand.NewSource(seed)))
}

func (e *Engine) estimate(req Request, rng *rand.Rand) AngleResult {
	start := time.Now()

	fail := func(msg string, q Quality) AngleResult {
		return AngleResult{
			BasisUsed:        BasisUsed(req.Basis),
			Quality:          q,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			ErrorMessage:     msg,
		}
	}

	if len(req.Points) < e.cfg.Preprocess.MinPoints {
		return fail(fmt.Sprintf("insufficient points: %d (minimum %d required)",
			len(req.Points), e.cfg.Preprocess.MinPoints), Quality{})
	}

	// Optional ground-plane assist: a relaxed plane fit over the supplied
	// ground points supplies the reference normal for the resolver.
	var groundNormal *r3.Vector
	if len(req.GroundPoints) > 10 {
		gf, err := fitPlane(req.GroundPoints, e.cfg.Ground, e.cfg.Preprocess, rng)
		if err != nil {
			log.Printf("[Engine] ground plane fit skipped: %v", err)
		} else {
			groundNormal = &gf.Direction
		}
	}

	var (
		fit *FitResult
		err error
	)
	switch req.TargetType {
	case TargetStemAxis, TargetPipeAxis:
		fit, err = fitLine(req.Points, e.cfg.Line, e.cfg.Preprocess, rng)
	case TargetHandleFace, TargetFlangeFace:
		fit, err = fitPlane(req.Points, e.cfg.Plane, e.cfg.Preprocess, rng)
	default:
		return fail(fmt.Sprintf("unknown target type: %q", string(req.TargetType)), Quality{})
	}
	if err != nil {
		return fail(fmt.Sprintf("geometric fit failed: %v", err), Quality{})
	}

	if fit.InlierRatio < e.cfg.Quality.MinInlierRatio {
		return fail(
			fmt.Sprintf("fit quality rejected: inlier ratio %.2f below minimum %.2f",
				fit.InlierRatio, e.cfg.Quality.MinInlierRatio),
			Quality{
				InlierRatio:  fit.InlierRatio,
				ResidualRMS:  fit.ResidualRMS,
				QualityScore: fit.InlierRatio,
			})
	}

	var gravity *r3.Vector
	if req.IMU != nil {
		gravity = req.IMU.Gravity
	}
	reference, basisUsed := resolveReference(req.Basis, gravity, groundNormal)

	pitch, roll, err := computePitchRoll(fit.Direction, reference)
	if err != nil {
		return fail(fmt.Sprintf("angle computation failed: %v", err), Quality{
			InlierRatio: fit.InlierRatio,
			ResidualRMS: fit.ResidualRMS,
		})
	}

	result := AngleResult{
		PitchDeg:  pitch,
		RollDeg:   roll,
		BasisUsed: basisUsed,
		Quality: Quality{
			InlierRatio:  fit.InlierRatio,
			ResidualRMS:  fit.ResidualRMS,
			QualityScore: qualityScore(fit.InlierRatio, fit.ResidualRMS, e.cfg.Quality),
		},
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		Success:          true,
	}
	if fit.ResidualRMS > e.cfg.Quality.MaxResidualRMS {
		result.Warning = fmt.Sprintf("residual RMS %.4fm exceeds %.4fm", fit.ResidualRMS, e.cfg.Quality.MaxResidualRMS)
		log.Printf("[Engine] %s", result.Warning)
	}

	log.Printf("[Engine] target=%s pitch=%.1f roll=%.1f basis=%s score=%.2f in %dms",
		req.TargetType, pitch, roll, basisUsed, result.Quality.QualityScore, result.ProcessingTimeMs)
	return result
}
