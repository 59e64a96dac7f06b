package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/driftlens/camera"
	"github.com/pthm-cable/driftlens/config"
	"github.com/pthm-cable/driftlens/telemetry"
)

// Time scale limits for the graphical host.
const (
	MinTimeScale = 0.0
	MaxTimeScale = 4.0

	// maxFrameDT caps a single graphical step so a stalled frame cannot tunnel agents
	maxFrameDT = 0.1

	maxStepsPerUpdate = 10
)

// Options configures game creation.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 = use config
	OutputDir      string
	Headless       bool
	StepsPerUpdate int
	Config         *config.Config // nil = global config

	// StatsCallback is called with each flushed telemetry window.
	StatsCallback func(telemetry.WindowStats)
}

// Game hosts a Simulation: it drives the step clock, times phases, flushes
// telemetry windows and steers the lens camera. It holds no raylib state so
// headless runs and tests can use it directly.
type Game struct {
	cfg     *config.Config
	sim     *Simulation
	rng     *rand.Rand
	rngSeed int64

	camera *camera.Camera
	motion *camera.Motion

	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	lastStats     *telemetry.WindowStats
	logStats      bool

	headless       bool
	paused         bool
	timeScale      float64
	stepsPerUpdate int
	speeds         []float64
}

// NewGameWithOptions creates a game with the given options.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	sim, err := NewSimulation(cfg, opts.Seed)
	if err != nil {
		return nil, err
	}

	statsWindow := opts.StatsWindowSec
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}

	stepsPerUpdate := opts.StepsPerUpdate
	if stepsPerUpdate < 1 {
		stepsPerUpdate = 1
	}

	outputManager, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := outputManager.WriteConfig(cfg); err != nil {
		outputManager.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	g := &Game{
		cfg:            cfg,
		sim:            sim,
		rng:            rand.New(rand.NewSource(opts.Seed ^ 0x5eed)),
		rngSeed:        opts.Seed,
		collector:      telemetry.NewCollector(statsWindow),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		outputManager:  outputManager,
		statsCallback:  opts.StatsCallback,
		logStats:       opts.LogStats,
		headless:       opts.Headless,
		timeScale:      1.0,
		stepsPerUpdate: stepsPerUpdate,
	}
	sim.SetPhaseHook(g.perfCollector.StartPhase)

	if !opts.Headless {
		g.camera = camera.New(cfg.Derived.ScreenW32, cfg.Derived.ScreenH32,
			float32(cfg.Derived.WorldW), float32(cfg.Derived.WorldH))
		g.camera.SetZoom(float32(cfg.Camera.Zoom))
		g.motion = camera.NewMotion(g.camera, motionParams(cfg.Camera), g.rng)
	}

	if outputManager != nil {
		slog.Info("writing output", "dir", outputManager.Dir())
	}
	slog.Info("game created",
		"seed", opts.Seed,
		"headless", opts.Headless,
		"agents", len(sim.Agents()),
		"stats_window", statsWindow,
	)
	return g, nil
}

// step runs one simulation tick of dt seconds with phase timing and telemetry.
func (g *Game) step(dt float64) {
	g.perfCollector.StartTick()
	g.sim.Step(dt)

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.recordCounters()
	g.flushTelemetry()
	g.perfCollector.EndTick()
}

// UpdateHeadless runs StepsPerUpdate ticks at the fixed physics step.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step(g.cfg.Physics.DT)
	}
}

// Update advances the simulation by one frame of frameTime wall seconds
// scaled by the time scale, then moves the camera.
func (g *Game) Update(frameTime float64) {
	g.perfCollector.RecordFrame()

	if !g.paused {
		dt := frameTime * g.timeScale
		if dt > maxFrameDT {
			dt = maxFrameDT
		}
		if dt > 0 {
			for i := 0; i < g.stepsPerUpdate; i++ {
				g.step(dt)
			}
		}
	}

	g.updateCamera(frameTime)
}

// updateCamera advances the lens motion, which replans from the grid's centroids
// whenever its queue drains. The camera runs on wall time so it keeps moving while paused.
func (g *Game) updateCamera(frameTime float64) {
	if g.camera == nil {
		return
	}

	pending := len(g.motion.Pending())
	g.motion.Update(frameTime, g.camera, g.sim.Grid())
	if n := len(g.motion.Pending()); n > pending {
		slog.Debug("lens refocus",
			"target_x", g.camera.TargetX,
			"target_y", g.camera.TargetY,
			"operations", n,
			"candidates", len(g.motion.Centroids()),
		)
	}
}

// HoldCamera hands the lens to manual control until the next planning delay expires.
func (g *Game) HoldCamera() {
	if g.motion != nil {
		g.motion.Hold(g.camera)
	}
}

func motionParams(c config.CameraConfig) camera.MotionParams {
	return camera.MotionParams{
		TranslateSpeed: c.TranslateSpeed,
		ZoomSpeed:      c.ZoomSpeed,
		RotateSpeed:    c.RotateSpeed,
		ZoomMin:        c.ZoomMin,
		ZoomMax:        c.ZoomMax,
		ZoomThreshold:  c.ZoomThreshold,
		AngleDelta:     c.AngleDelta,
		AngleThreshold: c.AngleThreshold,
		FocusThreshold: c.FocusThreshold,
		FocusPadding:   c.FocusPadding,
		DelayInitial:   c.DelayInitial,
		DelayMin:       c.DelayMin,
		DelayMax:       c.DelayMax,
	}
}

// Unload flushes and closes telemetry output.
func (g *Game) Unload() error {
	if g.logStats {
		g.logWorldState()
	}
	return g.outputManager.Close()
}

// Sim returns the hosted simulation.
func (g *Game) Sim() *Simulation {
	return g.sim
}

// Config returns the configuration the game was built with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Camera returns the lens camera, or nil in headless mode.
func (g *Game) Camera() *camera.Camera {
	return g.camera
}

// Motion returns the lens motion, or nil in headless mode.
func (g *Game) Motion() *camera.Motion {
	return g.motion
}

// Centroids returns the centroids considered by the last lens refocus.
func (g *Game) Centroids() []r2.Vec {
	if g.motion == nil {
		return nil
	}
	return g.motion.Centroids()
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.sim.Tick()
}

// Seed returns the seed the game was created with.
func (g *Game) Seed() int64 {
	return g.rngSeed
}

// Paused reports whether the simulation clock is stopped.
func (g *Game) Paused() bool {
	return g.paused
}

// SetPaused stops or resumes the simulation clock.
func (g *Game) SetPaused(paused bool) {
	g.paused = paused
}

// TimeScale returns the multiplier applied to frame time.
func (g *Game) TimeScale() float64 {
	return g.timeScale
}

// SetTimeScale sets the frame time multiplier, clamped to [MinTimeScale, MaxTimeScale].
func (g *Game) SetTimeScale(scale float64) {
	g.timeScale = min(max(scale, MinTimeScale), MaxTimeScale)
}

// StepsPerUpdate returns the number of ticks run per update call.
func (g *Game) StepsPerUpdate() int {
	return g.stepsPerUpdate
}

// SetStepsPerUpdate sets the ticks per update call, clamped to [1, 10].
func (g *Game) SetStepsPerUpdate(n int) {
	g.stepsPerUpdate = min(max(n, 1), maxStepsPerUpdate)
}

// PerfStats returns timing statistics over the perf window.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// LastStats returns the most recently flushed telemetry window.
func (g *Game) LastStats() (telemetry.WindowStats, bool) {
	if g.lastStats == nil {
		return telemetry.WindowStats{}, false
	}
	return *g.lastStats, true
}
