package main

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/driftlens/config"
	"github.com/pthm-cable/driftlens/game"
	"github.com/pthm-cable/driftlens/telemetry"
)

// Quality targets. A good lens world keeps a steady population well under the
// cap, spread thin enough that most occupied cells hold one or two agents.
const (
	targetFill     = 0.6 // mean agents as a fraction of agent.max
	targetCrowding = 1.4 // mean agents per occupied cell

	qualityWeightFill      = 0.40
	qualityWeightStability = 0.35
	qualityWeightCrowding  = 0.25

	qualityWarmupWindows = 2 // skip the first N windows while the population settles
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	ctx         context.Context
	params      *ParamVector
	maxTicks    int32
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64
	parallel    int

	mu          sync.Mutex
	lastQuality float64
	err         error
}

// NewFitnessEvaluator creates a new evaluator. Runs stop early once ctx is done.
func NewFitnessEvaluator(ctx context.Context, params *ParamVector, maxTicks int32, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		ctx:         ctx,
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 5.0,
		parallel:    runtime.GOMAXPROCS(0),
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// Err returns the first error that stopped an evaluation, if any.
func (fe *FitnessEvaluator) Err() error {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.err
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Every seed runs in parallel with the same parameters and the qualities are averaged.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)
	if err := cfg.Validate(); err != nil {
		return 0
	}

	qualities := make([]float64, len(fe.seeds))
	eg, ctx := errgroup.WithContext(fe.ctx)
	eg.SetLimit(fe.parallel)
	for i, seed := range fe.seeds {
		i, seed := i, seed
		eg.Go(func() error {
			windows, err := fe.runSimulation(ctx, cfg, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			qualities[i] = computeQuality(windows, cfg.Agent.Max)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		fe.mu.Lock()
		if fe.err == nil {
			fe.err = err
		}
		fe.mu.Unlock()
		return 0
	}

	quality := stat.Mean(qualities, nil)
	fe.mu.Lock()
	fe.lastQuality = quality
	fe.mu.Unlock()
	return -quality
}

// runSimulation executes one headless run for maxTicks and returns its telemetry windows.
// cfg is shared between seeds and must not be mutated.
func (fe *FitnessEvaluator) runSimulation(ctx context.Context, cfg *config.Config, seed int64) ([]telemetry.WindowStats, error) {
	var windows []telemetry.WindowStats
	g, err := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		Config:         cfg,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		// Check cancellation once per simulated second
		if g.Tick()%60 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		g.UpdateHeadless()
	}
	return windows, nil
}

// copyConfig returns an independent copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeQuality scores a run in [0, 1] from its telemetry windows.
func computeQuality(windows []telemetry.WindowStats, maxAgents int) float64 {
	if len(windows) <= qualityWarmupWindows || maxAgents <= 0 {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	agents := make([]float64, 0, len(valid))
	var crowdingSum float64
	var crowdingCount int
	for _, w := range valid {
		agents = append(agents, float64(w.Agents))
		if w.OccupiedCells > 0 {
			crowdingSum += w.Crowding
			crowdingCount++
		}
	}

	mean, std := stat.MeanStdDev(agents, nil)
	if mean == 0 {
		return 0
	}

	// 1. Population fill relative to the cap
	fill := mean / float64(maxAgents)
	fillErr := (fill - targetFill) / 0.2
	fillScore := math.Exp(-fillErr * fillErr)

	// 2. Stability (coefficient of variation across windows)
	stabilityScore := 0.0
	if len(agents) >= 2 {
		cv := std / mean
		stabilityScore = math.Exp(-cv * cv / 0.02)
	}

	// 3. Crowding near the target
	crowdingScore := 0.0
	if crowdingCount > 0 {
		crowdErr := (crowdingSum/float64(crowdingCount) - targetCrowding) / 0.5
		crowdingScore = math.Exp(-crowdErr * crowdErr)
	}

	quality := qualityWeightFill*fillScore +
		qualityWeightStability*stabilityScore +
		qualityWeightCrowding*crowdingScore
	return min(max(quality, 0), 1)
}
