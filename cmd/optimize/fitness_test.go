package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/driftlens/config"
	"github.com/pthm-cable/driftlens/telemetry"
)

func steadyWindows(n, agents int, crowding float64) []telemetry.WindowStats {
	out := make([]telemetry.WindowStats, n)
	for i := range out {
		out[i] = telemetry.WindowStats{Agents: agents, OccupiedCells: agents, Crowding: crowding}
	}
	return out
}

func TestComputeQualityIdeal(t *testing.T) {
	q := computeQuality(steadyWindows(10, 60, targetCrowding), 100)
	assert.InDelta(t, 1.0, q, 1e-9)
}

func TestComputeQualityTooFewWindows(t *testing.T) {
	assert.Zero(t, computeQuality(steadyWindows(qualityWarmupWindows, 60, 1), 100))
	assert.Zero(t, computeQuality(steadyWindows(10, 60, 1), 0))
}

func TestComputeQualityEmptyWorld(t *testing.T) {
	assert.Zero(t, computeQuality(steadyWindows(10, 0, 0), 100))
}

func TestComputeQualityPrefersSteadyPopulation(t *testing.T) {
	steady := steadyWindows(10, 60, targetCrowding)
	swinging := steadyWindows(10, 60, targetCrowding)
	for i := range swinging {
		if i%2 == 0 {
			swinging[i].Agents = 30
		} else {
			swinging[i].Agents = 90
		}
	}
	assert.Greater(t, computeQuality(steady, 100), computeQuality(swinging, 100))
}

func TestComputeQualityPrefersTargetFill(t *testing.T) {
	atTarget := computeQuality(steadyWindows(10, 60, targetCrowding), 100)
	sparse := computeQuality(steadyWindows(10, 5, targetCrowding), 100)
	assert.Greater(t, atTarget, sparse)
}

func TestParamVectorRoundTrip(t *testing.T) {
	base := config.Defaults()
	pv := NewParamVector(base)

	def := pv.DefaultVector()
	assert.Equal(t, pv.ExtractFromConfig(base), def)
	assert.InDeltaSlice(t, def, pv.Denormalize(pv.Normalize(def)), 1e-9)
}

func TestParamVectorApplyClamps(t *testing.T) {
	cfg := config.Defaults()
	pv := NewParamVector(cfg)

	values := make([]float64, pv.Dim())
	for i, spec := range pv.Specs {
		values[i] = spec.Max * 10
	}
	pv.ApplyToConfig(cfg, values)

	for i, v := range pv.ExtractFromConfig(cfg) {
		assert.Equal(t, pv.Specs[i].Max, v, pv.Specs[i].Name)
	}
}

func TestEvaluateShortRun(t *testing.T) {
	base := config.Defaults()
	base.World.Width, base.World.Height = 300, 200
	base.Agent.Initial, base.Agent.Max = 30, 60
	base.ComputeDerived()
	require.NoError(t, base.Validate())

	pv := NewParamVector(base)
	fe := NewFitnessEvaluator(context.Background(), pv, 600, []int64{1, 2}, base)
	fe.statsWindow = 1

	fitness := fe.Evaluate(pv.DefaultVector())
	require.NoError(t, fe.Err())
	assert.LessOrEqual(t, fitness, 0.0)
	assert.InDelta(t, -fe.LastQuality(), fitness, 1e-12)
}

func TestEvaluateCancelled(t *testing.T) {
	base := config.Defaults()
	pv := NewParamVector(base)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fe := NewFitnessEvaluator(ctx, pv, 600, []int64{1}, base)

	assert.Zero(t, fe.Evaluate(pv.DefaultVector()))
	assert.ErrorIs(t, fe.Err(), context.Canceled)
}
