package geometry

// Config holds every tunable threshold in the engine. It must not be
// mutated after the engine is constructed; all reads are lock-free.
type Config struct {
	Preprocess PreprocessConfig
	Plane      RANSACConfig
	Line       RANSACConfig
	Ground     RANSACConfig // relaxed fit used to derive a ground normal
	Quality    QualityConfig
}

// PreprocessConfig controls the statistical outlier filter.
type PreprocessConfig struct {
	MinPoints   int     // minimum raw points to attempt a fit
	MinFiltered int     // minimum points surviving the filter
	Neighbors   int     // k for the per-point mean neighbor distance
	StdRatio    float64 // discard points beyond mean + StdRatio*stddev
}

// RANSACConfig controls one RANSAC fitting stage.
type RANSACConfig struct {
	DistanceThreshold float64 // inlier distance to the model, metres
	Iterations        int
}

// QualityConfig controls the accept/reject gate and the composite score.
type QualityConfig struct {
	MinInlierRatio float64 // below this the fit is rejected
	MaxResidualRMS float64 // above this a warning is attached, metres
}

// DefaultConfig returns the engine defaults used in production.
func DefaultConfig() Config {
	return Config{
		Preprocess: PreprocessConfig{
			MinPoints:   100,
			MinFiltered: 10,
			Neighbors:   20,
			StdRatio:    2.0,
		},
		Plane:   RANSACConfig{DistanceThreshold: 0.01, Iterations: 1000},
		Line:    RANSACConfig{DistanceThreshold: 0.01, Iterations: 2000},
		Ground:  RANSACConfig{DistanceThreshold: 0.02, Iterations: 500},
		Quality: QualityConfig{MinInlierRatio: 0.6, MaxResidualRMS: 0.01},
	}
}
