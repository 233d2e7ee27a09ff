// Package main measures the long-run particle population of the emission
// model and compares it with the analytic steady state.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/fission/config"
	"github.com/pthm-cable/fission/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Config file (empty = use defaults)")
	levels := flag.String("intensities", "0.25,0.5,0.75,1", "Comma-separated intensity levels")
	seeds := flag.Int("seeds", 5, "Number of seeds per level")
	ticks := flag.Int("ticks", 3600, "Sampled ticks per seed")
	warmup := flag.Int("warmup", 600, "Ticks discarded before sampling")
	outputDir := flag.String("output", "", "Output directory for steadystate.csv (empty = log only)")
	target := flag.Float64("calibrate", 0, "Find the spawn chance giving this population at -calibrate-intensity (0 = off)")
	calIntensity := flag.Float64("calibrate-intensity", 1, "Intensity used for calibration")
	maxEvals := flag.Int("max-evals", 60, "Maximum evaluations during calibration")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	fieldCfg, err := game.FieldConfig(cfg)
	if err != nil {
		slog.Error("invalid field config", "error", err)
		os.Exit(1)
	}
	// The estimate describes the unbounded field
	fieldCfg.MaxParticles = 0

	intensities, err := parseLevels(*levels)
	if err != nil {
		slog.Error("invalid -intensities", "error", err)
		os.Exit(1)
	}

	run := Run{Ticks: *ticks, Warmup: *warmup, DT: cfg.Physics.DT}
	for i := 0; i < *seeds; i++ {
		run.Seeds = append(run.Seeds, int64(i*1000+42))
	}

	if *target > 0 {
		chance, err := run.calibrate(fieldCfg, *calIntensity, *target, *maxEvals)
		if err != nil {
			slog.Error("calibration failed", "error", err)
			os.Exit(1)
		}
		slog.Info("calibrated", "intensity", *calIntensity, "target", *target, "spawn_chance", chance)
		fieldCfg.SpawnChance = chance
	}

	results := make([]Result, 0, len(intensities))
	for _, in := range intensities {
		res, err := run.measure(fieldCfg, in)
		if err != nil {
			slog.Error("measurement failed", "intensity", in, "error", err)
			os.Exit(1)
		}
		slog.Info("level",
			"intensity", res.Intensity,
			"measured", res.MeasuredMean,
			"std", res.MeasuredStd,
			"predicted", res.Predicted,
			"rel_error", res.RelError,
			"peak", res.Peak,
		)
		results = append(results, res)
	}

	if *outputDir != "" {
		if err := writeResults(*outputDir, results); err != nil {
			slog.Error("failed to write results", "error", err)
			os.Exit(1)
		}
	}
}

// parseLevels parses a comma-separated list of intensities.
func parseLevels(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("level %q: %w", part, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("level %v must not be negative", v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no intensity levels in %q", s)
	}
	return out, nil
}

func writeResults(dir string, results []Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "steadystate.csv"))
	if err != nil {
		return fmt.Errorf("creating steadystate.csv: %w", err)
	}
	defer f.Close()
	return gocsv.MarshalFile(&results, f)
}
