// Command fit-cloud runs a one-shot angle estimation over a point cloud
// from a JSON file, or over a synthetic cloud for pipeline smoke checks.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/golang/geo/r3"

	"github.com/banshee-data/valve.report/internal/config"
	"github.com/banshee-data/valve.report/internal/geometry"
)

type cloudFile struct {
	TargetType string `json:"target_type"`
	Basis      string `json:"basis"`
	Points     []struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	} `json:"points"`
	IMU *struct {
		Gravity *struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
		} `json:"gravity"`
	} `json:"imu"`
}

func main() {
	input := flag.String("i", "", "input cloud JSON (omit for a synthetic slanted plane)")
	target := flag.String("target", "B", "target type (A/B/C/D), overridden by the file")
	basis := flag.String("basis", "imu", "reference basis (imu/plane), overridden by the file")
	tuningFile := flag.String("tuning", "", "optional engine tuning config (JSON)")
	seed := flag.Int64("seed", 0, "RANSAC seed (0 for time-based)")
	flag.Parse()

	cfg := geometry.DefaultConfig()
	if *tuningFile != "" {
		tuning, err := config.LoadTuningConfig(*tuningFile)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		cfg = tuning.Apply(cfg)
	}
	engine := geometry.NewEngine(cfg)

	req := geometry.Request{
		TargetType: geometry.TargetType(*target),
		Basis:      geometry.Basis(*basis),
	}

	if *input == "" {
		req.Points = syntheticPlane(400)
		log.Printf("no input file, using a synthetic slanted plane (%d points)", len(req.Points))
	} else {
		data, err := os.ReadFile(*input)
		if err != nil {
			log.Fatalf("failed to read %s: %v", *input, err)
		}
		var cf cloudFile
		if err := json.Unmarshal(data, &cf); err != nil {
			log.Fatalf("failed to parse %s: %v", *input, err)
		}
		for _, p := range cf.Points {
			req.Points = append(req.Points, r3.Vector{X: p.X, Y: p.Y, Z: p.Z})
		}
		if cf.TargetType != "" {
			req.TargetType = geometry.TargetType(cf.TargetType)
		}
		if cf.Basis != "" {
			req.Basis = geometry.Basis(cf.Basis)
		}
		if cf.IMU != nil && cf.IMU.Gravity != nil {
			g := r3.Vector{X: cf.IMU.Gravity.X, Y: cf.IMU.Gravity.Y, Z: cf.IMU.Gravity.Z}
			req.IMU = &geometry.IMUFrame{Gravity: &g}
		}
	}

	var result geometry.AngleResult
	if *seed != 0 {
		result = engine.EstimateAngleSeeded(req, *seed)
	} else {
		result = engine.EstimateAngle(req)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode result: %v", err)
	}
	os.Stdout.Write(append(out, '\n'))

	if !result.Success {
		os.Exit(1)
	}
}

func syntheticPlane(n int) []r3.Vector {
	rng := rand.New(rand.NewSource(1))
	pts := make([]r3.Vector, n)
	for i := range pts {
		x := rng.Float64()*2 - 1
		y := rng.Float64()*2 - 1
		pts[i] = r3.Vector{X: x, Y: y, Z: 0.2*x + 0.1*y + rng.NormFloat64()*0.002}
	}
	return pts
}
