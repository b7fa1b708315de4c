// Package config loads the engine tuning file. Fields omitted from the
// JSON keep their defaults, so partial configs are safe to ship.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/valve.report/internal/geometry"
)

// TuningConfig represents the optional tuning overrides for the geometry
// engine. Every field is a pointer: nil means "keep the engine default".
type TuningConfig struct {
	// Preprocess params
	MinPoints         *int     `json:"min_points,omitempty"`
	MinFilteredPoints *int     `json:"min_filtered_points,omitempty"`
	OutlierNeighbors  *int     `json:"outlier_neighbors,omitempty"`
	OutlierStdRatio   *float64 `json:"outlier_std_ratio,omitempty"`

	// RANSAC params
	PlaneDistanceThreshold  *float64 `json:"plane_distance_threshold,omitempty"`
	PlaneIterations         *int     `json:"plane_iterations,omitempty"`
	LineDistanceThreshold   *float64 `json:"line_distance_threshold,omitempty"`
	LineIterations          *int     `json:"line_iterations,omitempty"`
	GroundDistanceThreshold *float64 `json:"ground_distance_threshold,omitempty"`
	GroundIterations        *int     `json:"ground_iterations,omitempty"`

	// Quality gate params
	MinInlierRatio *float64 `json:"min_inlier_ratio,omitempty"`
	MaxResidualRMS *float64 `json:"max_residual_rms,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.MinPoints != nil && *c.MinPoints < 3 {
		return fmt.Errorf("min_points must be at least 3, got %d", *c.MinPoints)
	}
	if c.OutlierNeighbors != nil && *c.OutlierNeighbors < 1 {
		return fmt.Errorf("outlier_neighbors must be positive, got %d", *c.OutlierNeighbors)
	}
	if c.OutlierStdRatio != nil && *c.OutlierStdRatio <= 0 {
		return fmt.Errorf("outlier_std_ratio must be positive, got %f", *c.OutlierStdRatio)
	}
	if c.MinInlierRatio != nil && (*c.MinInlierRatio < 0 || *c.MinInlierRatio > 1) {
		return fmt.Errorf("min_inlier_ratio must be between 0 and 1, got %f", *c.MinInlierRatio)
	}
	if c.MaxResidualRMS != nil && *c.MaxResidualRMS <= 0 {
		return fmt.Errorf("max_residual_rms must be positive, got %f", *c.MaxResidualRMS)
	}
	for name, v := range map[string]*float64{
		"plane_distance_threshold":  c.PlaneDistanceThreshold,
		"line_distance_threshold":   c.LineDistanceThreshold,
		"ground_distance_threshold": c.GroundDistanceThreshold,
	} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive, got %f", name, *v)
		}
	}
	for name, v := range map[string]*int{
		"plane_iterations":  c.PlaneIterations,
		"line_iterations":   c.LineIterations,
		"ground_iterations": c.GroundIterations,
	} {
		if v != nil && *v < 1 {
			return fmt.Errorf("%s must be positive, got %d", name, *v)
		}
	}
	return nil
}

// Apply overlays the set fields onto the given engine config and returns
// the merged result.
func (c *TuningConfig) Apply(cfg geometry.Config) geometry.Config {
	if c.MinPoints != nil {
		cfg.Preprocess.MinPoints = *c.MinPoints
	}
	if c.MinFilteredPoints != nil {
		cfg.Preprocess.MinFiltered = *c.MinFilteredPoints
	}
	if c.OutlierNeighbors != nil {
		cfg.Preprocess.Neighbors = *c.OutlierNeighbors
	}
	if c.OutlierStdRatio != nil {
		cfg.Preprocess.StdRatio = *c.OutlierStdRatio
	}
	if c.PlaneDistanceThreshold != nil {
		cfg.Plane.DistanceThreshold = *c.PlaneDistanceThreshold
	}
	if c.PlaneIterations != nil {
		cfg.Plane.Iterations = *c.PlaneIterations
	}
	if c.LineDistanceThreshold != nil {
		cfg.Line.DistanceThreshold = *c.LineDistanceThreshold
	}
	if c.LineIterations != nil {
		cfg.Line.Iterations = *c.LineIterations
	}
	if c.GroundDistanceThreshold != nil {
		cfg.Ground.DistanceThreshold = *c.GroundDistanceThreshold
	}
	if c.GroundIterations != nil {
		cfg.Ground.Iterations = *c.GroundIterations
	}
	if c.MinInlierRatio != nil {
		cfg.Quality.MinInlierRatio = *c.MinInlierRatio
	}
	if c.MaxResidualRMS != nil {
		cfg.Quality.MaxResidualRMS = *c.MaxResidualRMS
	}
	return cfg
}
