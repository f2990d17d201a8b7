package main

import (
	"github.com/pthm-cable/coil/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of tunable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Solver
			{Name: "damping", Path: "physics.damping", Min: 0.90, Max: 1.0, Default: 0.98},
			{Name: "iterations", Path: "physics.iterations", Min: 4, Max: 40, Default: 20},
			// Winding feel
			{Name: "capture_band", Path: "winding.capture_band", Min: 0.005, Max: 0.05, Default: 0.02},
			{Name: "deadband_deg", Path: "winding.deadband_deg", Min: 0.1, Max: 2.0, Default: 0.5},
			{Name: "exit_tolerance", Path: "winding.exit_tolerance", Min: 0.02, Max: 0.15, Default: 0.05},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	cfg.Physics.Damping = clamped[0]
	cfg.Physics.Iterations = int(clamped[1] + 0.5)
	cfg.Winding.CaptureBand = clamped[2]
	cfg.Winding.DeadbandDeg = clamped[3]
	cfg.Winding.ExitTolerance = clamped[4]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Physics.Damping,
		float64(cfg.Physics.Iterations),
		cfg.Winding.CaptureBand,
		cfg.Winding.DeadbandDeg,
		cfg.Winding.ExitTolerance,
	}
}
