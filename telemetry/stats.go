package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Population int `csv:"population"`

	// Field events during window
	Spawned    int `csv:"spawned"`
	Retired    int `csv:"retired"`
	Dropped    int `csv:"dropped"`
	Suppressed int `csv:"suppressed"`

	// Population distribution over the window's ticks
	PopMean float64 `csv:"pop_mean"`
	PopStd  float64 `csv:"pop_std"`
	PopP10  float64 `csv:"pop_p10"`
	PopP50  float64 `csv:"pop_p50"`
	PopP90  float64 `csv:"pop_p90"`
	PopMax  int     `csv:"pop_max"`

	// Reactor state
	Temperature   float64 `csv:"temperature"`
	Intensity     float64 `csv:"intensity"`
	IntensityMean float64 `csv:"intensity_mean"`
	Status        string  `csv:"status"`
	CriticalTicks int     `csv:"critical_ticks"`
	Scrams        int     `csv:"scrams"`

	// Analytic long-run population at the window's mean intensity
	SteadyStateEstimate float64 `csv:"steady_state_est"`
}

// Saturated reports whether the particle cap refused or evicted anything.
func (s WindowStats) Saturated() bool {
	return s.Dropped > 0 || s.Suppressed > 0
}

// ComputePopulationStats returns the mean, standard deviation and
// 10/50/90th percentiles of values. Empty input yields zeros.
func ComputePopulationStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	if n == 1 {
		mean = values[0]
	} else {
		mean, std = stat.MeanStdDev(values, nil)
	}

	// Quantile needs sorted input
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)

	return mean, std, p10, p50, p90
}

// SteadyStateError returns the relative distance between the measured mean
// population and the analytic estimate. NaN when there is no estimate.
func (s WindowStats) SteadyStateError() float64 {
	if s.SteadyStateEstimate <= 0 {
		return math.NaN()
	}
	return math.Abs(s.PopMean-s.SteadyStateEstimate) / s.SteadyStateEstimate
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("population", s.Population),
		slog.Int("spawned", s.Spawned),
		slog.Int("retired", s.Retired),
		slog.Int("dropped", s.Dropped),
		slog.Int("suppressed", s.Suppressed),
		slog.Float64("pop_mean", s.PopMean),
		slog.Float64("pop_std", s.PopStd),
		slog.Float64("pop_p10", s.PopP10),
		slog.Float64("pop_p50", s.PopP50),
		slog.Float64("pop_p90", s.PopP90),
		slog.Int("pop_max", s.PopMax),
		slog.Float64("temperature", s.Temperature),
		slog.Float64("intensity", s.Intensity),
		slog.Float64("intensity_mean", s.IntensityMean),
		slog.String("status", s.Status),
		slog.Int("critical_ticks", s.CriticalTicks),
		slog.Int("scrams", s.Scrams),
		slog.Float64("steady_state_est", s.SteadyStateEstimate),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
