package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Scene population at window end
	Ropes    int `csv:"ropes"`
	Captured int `csv:"captured"`

	// Transitions during window
	Captures int `csv:"captures"`
	Commits  int `csv:"commits"`
	Releases int `csv:"releases"`
	Deepens  int `csv:"deepens"`
	Cuts     int `csv:"cuts"`

	// Winding (sampled every tick)
	MaxWrapDeg  float64 `csv:"max_wrap_deg"`
	MeanWrapDeg float64 `csv:"mean_wrap_deg"`

	// Length budget (sampled at window end)
	LiveParticles int     `csv:"live_particles"`
	VisibleLength float64 `csv:"visible_length"`

	// Constraint quality (sampled every tick)
	SpacingErrMean float64 `csv:"spacing_err_mean"`
	SpacingErrStd  float64 `csv:"spacing_err_std"`
	SpacingErrP50  float64 `csv:"spacing_err_p50"`
	SpacingErrP90  float64 `csv:"spacing_err_p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSampleStats returns the population mean and standard deviation
// plus the median and 90th percentile of values.
func ComputeSampleStats(values []float64) (mean, std, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("ropes", s.Ropes),
		slog.Int("captured", s.Captured),
		slog.Int("captures", s.Captures),
		slog.Int("commits", s.Commits),
		slog.Int("releases", s.Releases),
		slog.Int("deepens", s.Deepens),
		slog.Int("cuts", s.Cuts),
		slog.Float64("max_wrap_deg", s.MaxWrapDeg),
		slog.Float64("mean_wrap_deg", s.MeanWrapDeg),
		slog.Int("live_particles", s.LiveParticles),
		slog.Float64("visible_length", s.VisibleLength),
		slog.Float64("spacing_err_mean", s.SpacingErrMean),
		slog.Float64("spacing_err_std", s.SpacingErrStd),
		slog.Float64("spacing_err_p50", s.SpacingErrP50),
		slog.Float64("spacing_err_p90", s.SpacingErrP90),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
