package main

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/fission/systems"
)

// Run holds the sampling parameters shared by every measurement.
type Run struct {
	Seeds  []int64
	Ticks  int     // Sampled ticks per seed
	Warmup int     // Ticks discarded before sampling
	DT     float64 // Seconds per tick
}

// Result compares the measured population of one intensity level with the
// analytic steady state.
type Result struct {
	Intensity    float64 `csv:"intensity"`
	SpawnChance  float64 `csv:"spawn_chance"`
	Seeds        int     `csv:"seeds"`
	Ticks        int     `csv:"ticks"`
	MeasuredMean float64 `csv:"measured_mean"`
	MeasuredStd  float64 `csv:"measured_std"`
	Predicted    float64 `csv:"predicted"`
	RelError     float64 `csv:"rel_error"`
	Peak         int     `csv:"peak"`
}

// measure runs an unbounded field per seed at a constant intensity and
// averages the per-seed mean population.
func (r Run) measure(cfg systems.FieldConfig, intensity float64) (Result, error) {
	if len(r.Seeds) == 0 || r.Ticks < 1 {
		return Result{}, fmt.Errorf("need at least one seed and tick: %w", systems.ErrInvalidInput)
	}

	means := make([]float64, 0, len(r.Seeds))
	peak := 0
	for _, seed := range r.Seeds {
		field, err := systems.NewParticleField(systems.Vec2{}, intensity, rand.New(rand.NewSource(seed)), cfg)
		if err != nil {
			return Result{}, err
		}
		for i := 0; i < r.Warmup; i++ {
			if _, err := field.Tick(r.DT); err != nil {
				return Result{}, err
			}
		}

		var sum float64
		for i := 0; i < r.Ticks; i++ {
			st, err := field.Tick(r.DT)
			if err != nil {
				return Result{}, err
			}
			sum += float64(st.Population)
			if st.Population > peak {
				peak = st.Population
			}
		}
		means = append(means, sum/float64(r.Ticks))
	}

	res := Result{
		Intensity:   intensity,
		SpawnChance: cfg.SpawnChance,
		Seeds:       len(r.Seeds),
		Ticks:       r.Ticks,
		Predicted:   systems.SteadyStatePopulation(cfg, intensity, 1/r.DT),
		Peak:        peak,
	}
	res.MeasuredMean = stat.Mean(means, nil)
	if len(means) > 1 {
		res.MeasuredStd = stat.StdDev(means, nil)
	}
	if res.Predicted > 0 {
		res.RelError = (res.MeasuredMean - res.Predicted) / res.Predicted
	}
	return res, nil
}

// calibrate searches for the spawn chance whose measured population at
// intensity matches target, starting from cfg.SpawnChance.
func (r Run) calibrate(cfg systems.FieldConfig, intensity, target float64, maxEvals int) (float64, error) {
	var measureErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			c := cfg
			c.SpawnChance = math.Max(0, math.Min(1, x[0]))
			res, err := r.measure(c, intensity)
			if err != nil {
				measureErr = err
				return math.Inf(1)
			}
			d := res.MeasuredMean - target
			return d * d
		},
	}

	result, err := optimize.Minimize(problem, []float64{cfg.SpawnChance}, &optimize.Settings{
		FuncEvaluations: maxEvals,
	}, &optimize.NelderMead{})
	if measureErr != nil {
		return 0, measureErr
	}
	if result == nil {
		return 0, fmt.Errorf("calibration failed: %w", err)
	}
	return math.Max(0, math.Min(1, result.X[0])), nil
}
