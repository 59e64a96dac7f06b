package main

import (
	"github.com/pthm-cable/driftlens/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string // Column name in the log
	Path    string // Config path
	Min     float64
	Max     float64
	Default float64
	get     func(*config.Config) float64
	set     func(*config.Config, float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard parameter set with defaults read from base.
func NewParamVector(base *config.Config) *ParamVector {
	pv := &ParamVector{
		Specs: []ParamSpec{
			{Name: "flow_strength", Path: "flow.strength", Min: 5, Max: 200,
				get: func(c *config.Config) float64 { return c.Flow.Strength },
				set: func(c *config.Config, v float64) { c.Flow.Strength = v }},
			{Name: "flow_noise_scale", Path: "flow.noise_scale", Min: 0.0005, Max: 0.02,
				get: func(c *config.Config) float64 { return c.Flow.NoiseScale },
				set: func(c *config.Config, v float64) { c.Flow.NoiseScale = v }},
			{Name: "spawn_interval", Path: "spawn.interval", Min: 0.02, Max: 2.0,
				get: func(c *config.Config) float64 { return c.Spawn.Interval },
				set: func(c *config.Config, v float64) { c.Spawn.Interval = v }},
			{Name: "stiffness", Path: "agent.stiffness", Min: 5, Max: 200,
				get: func(c *config.Config) float64 { return c.Agent.Stiffness },
				set: func(c *config.Config, v float64) { c.Agent.Stiffness = v }},
			{Name: "drag", Path: "agent.drag", Min: 0, Max: 3,
				get: func(c *config.Config) float64 { return c.Agent.Drag },
				set: func(c *config.Config, v float64) { c.Agent.Drag = v }},
			{Name: "split_chance", Path: "agent.split_chance", Min: 0, Max: 1,
				get: func(c *config.Config) float64 { return c.Agent.SplitChance },
				set: func(c *config.Config, v float64) { c.Agent.SplitChance = v }},
		},
	}
	for i := range pv.Specs {
		pv.Specs[i].Default = pv.Specs[i].clamp(pv.Specs[i].get(base))
	}
	return pv
}

func (s ParamSpec) clamp(v float64) float64 {
	return min(max(v, s.Min), s.Max)
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
		clamped[i] = spec.clamp(v[i])
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg and refreshes derived fields.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
	cfg.ComputeDerived()
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.get(cfg)
	}
	return v
}
