package main

import (
	"math"

	"github.com/pthm-cable/fibro/config"
)

// ParamSpec defines a single calibrated parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all calibrated parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of calibrated parameters.
// The exit threshold is searched as a ratio of the entry threshold so every
// point in the box is a valid config.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Cell cycle
			{Name: "cycle_duration", Path: "cell.cycle_duration", Min: 200, Max: 1200, Default: 600},
			// Contact inhibition
			{Name: "inhibition_factor", Path: "cell.inhibition_factor", Min: 0.01, Max: 0.2, Default: 0.05},
			{Name: "inhibition_threshold", Path: "cell.inhibition_threshold", Min: 0.5, Max: 2.0, Default: 1.0},
			{Name: "inhibition_exit_ratio", Path: "cell.inhibition_exit_threshold / cell.inhibition_threshold", Min: 0.3, Max: 0.95, Default: 0.6},
			{Name: "inhibition_radius", Path: "cell.inhibition_radius", Min: 1.0, Max: 4.0, Default: 2.0},
			// ECM deposition
			{Name: "ecm_min_period", Path: "ecm.min_period", Min: 5, Max: 120, Default: 30},
			{Name: "ecm_threshold", Path: "ecm.threshold", Min: 2, Max: 20, Default: 8},
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
	c := pv.Clamp(values)

	cfg.Cell.CycleDuration = int(math.Round(c[0]))
	cfg.Cell.InhibitionFactor = c[1]
	cfg.Cell.InhibitionThreshold = c[2]
	cfg.Cell.InhibitionExitThreshold = c[2] * c[3]
	cfg.Cell.InhibitionRadius = c[4]

	cfg.ECM.MinPeriod = int(math.Round(c[5]))
	cfg.ECM.Threshold = int(math.Round(c[6]))
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	ratio := 0.0
	if cfg.Cell.InhibitionThreshold != 0 {
		ratio = cfg.Cell.InhibitionExitThreshold / cfg.Cell.InhibitionThreshold
	}
	return []float64{
		float64(cfg.Cell.CycleDuration),
		cfg.Cell.InhibitionFactor,
		cfg.Cell.InhibitionThreshold,
		ratio,
		cfg.Cell.InhibitionRadius,
		float64(cfg.ECM.MinPeriod),
		float64(cfg.ECM.Threshold),
	}
}
