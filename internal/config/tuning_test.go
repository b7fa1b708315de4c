package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/valve.report/internal/geometry"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.json")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadTuningConfig_PartialOverlay(t *testing.T) {
	path := writeConfig(t, `{
		"line_iterations": 500,
		"min_inlier_ratio": 0.7
	}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig failed: %v", err)
	}

	merged := cfg.Apply(geometry.DefaultConfig())

	want := geometry.DefaultConfig()
	want.Line.Iterations = 500
	want.Quality.MinInlierRatio = 0.7
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Errorf("merged config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTuningConfig_EmptyKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig failed: %v", err)
	}

	if diff := cmp.Diff(geometry.DefaultConfig(), cfg.Apply(geometry.DefaultConfig())); diff != "" {
		t.Errorf("empty config changed defaults (-want +got):\n%s", diff)
	}
}

func TestLoadTuningConfig_RejectsNonJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("expected error for non-json extension")
	}
}

func TestLoadTuningConfig_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"negative iterations", `{"plane_iterations": -1}`},
		{"ratio above one", `{"min_inlier_ratio": 1.5}`},
		{"zero threshold", `{"line_distance_threshold": 0}`},
		{"non-positive std ratio", `{"outlier_std_ratio": 0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.contents)
			if _, err := LoadTuningConfig(path); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestLoadTuningConfig_MalformedJSON(t *testing.T) {
	path := writeConfig(t, `{"line_iterations": `)
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}
