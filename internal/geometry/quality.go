package geometry

// Quality summarizes how well the fitted model explains the cloud.
type Quality struct {
	InlierRatio  float64 `json:"inlier_ratio"`
	ResidualRMS  float64 `json:"residual_rms"`
	QualityScore float64 `json:"quality_score"`
}

// qualityScore folds the inlier ratio and residual RMS into one [0,1]
// figure: a full-consensus, zero-residual fit scores 1.0, and residuals at
// the RMS ceiling drag the score to zero regardless of consensus.
func qualityScore(inlierRatio, residualRMS float64, cfg QualityConfig) float64 {
	score := inlierRatio * (1 - residualRMS/cfg.MaxResidualRMS)
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
