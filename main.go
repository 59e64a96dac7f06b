package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/driftlens/config"
	"github.com/pthm-cable/driftlens/game"
	"github.com/pthm-cable/driftlens/renderer"
	"github.com/pthm-cable/driftlens/ui"
)

const controlsLegend = "Space pause | , . steps | F V O G C P overlays | Tab panel | arrows/wheel camera | Home reset | F11 fullscreen"

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	verbose := flag.Bool("v", false, "Debug logging")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
	}

	if *headless {
		if err := runHeadless(opts, *maxTicks); err != nil {
			slog.Error("headless run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Drift Lens")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	if err := runGraphical(cfg, opts, *maxTicks); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

// runHeadless steps the simulation at the configured fixed dt until maxTicks.
func runHeadless(opts game.Options, maxTicks int) error {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.Unload(); err != nil {
			slog.Error("failed to close outputs", "error", err)
		}
	}()

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for {
		g.UpdateHeadless()
		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return nil
		}
	}
}

// runGraphical drives the simulation from wall-clock frames and draws the lens view.
func runGraphical(cfg *config.Config, opts game.Options, maxTicks int) error {
	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := g.Unload(); err != nil {
			slog.Error("failed to close outputs", "error", err)
		}
	}()

	overlays := ui.NewOverlayRegistry()
	controls := ui.NewControlsPanel(0, 10, 240)
	input := ui.NewInput(g, overlays, controls)
	hud := ui.NewHUD()
	perf := ui.NewPerfPanel(10, 100)
	statsPanel := ui.NewStatsPanel(10, 0, 240, cfg.Agent.Max)

	background := renderer.NewBackgroundRenderer(12, 16, 22)
	flow := renderer.NewFlowRenderer(cfg.Flow.Resolution*2, cfg.Flow.Strength)
	agents := renderer.NewAgentRenderer(cfg.Agent.MaxSpeed)
	grid := renderer.NewGridRenderer()

	layout := func() {
		w, h := input.ScreenSize()
		controls.SetPosition(w-250, 10)
		statsPanel.SetPosition(w-250, h-statsPanel.Height()-40)
	}
	layout()

	sim := g.Sim()
	for !rl.WindowShouldClose() {
		if input.Handle() {
			layout()
		}
		g.Update(float64(rl.GetFrameTime()))

		cam := g.Camera()
		rl.BeginDrawing()
		background.Draw(cam)
		if overlays.IsEnabled(ui.OverlayOccupancy) {
			grid.DrawOccupancy(sim.Grid(), cam)
		}
		if overlays.IsEnabled(ui.OverlayGridLines) {
			grid.DrawLines(sim.Grid(), cam)
		}
		if overlays.IsEnabled(ui.OverlayFlowField) {
			flow.Draw(sim.Field(), sim.Bounds(), cam)
		}
		agents.Draw(sim.Agents(), cam, overlays.IsEnabled(ui.OverlayVelocity))
		if overlays.IsEnabled(ui.OverlayCentroids) {
			grid.DrawCentroids(g.Centroids(), cam)
		}

		_, screenH := input.ScreenSize()
		hudData := ui.HUDData{
			Title:          "Drift Lens",
			Agents:         len(sim.Agents()),
			OccupiedCells:  sim.Grid().OccupiedCells(),
			Tick:           g.Tick(),
			SimTime:        sim.SimTime(),
			FPS:            rl.GetFPS(),
			Paused:         g.Paused(),
			TimeScale:      g.TimeScale(),
			StepsPerUpdate: g.StepsPerUpdate(),
		}
		if m := g.Motion(); m != nil {
			lens := m.State()
			hudData.HasLens = true
			hudData.LensZoom = lens.Zoom
			hudData.LensAngle = lens.Angle
		}
		hud.Draw(hudData)
		if overlays.IsEnabled(ui.OverlayPerf) {
			perf.Draw(g.PerfStats())
		}
		statsPanel.Draw(g.LastStats())
		controls.Draw(g, overlays)
		hud.DrawControls(screenH, controlsLegend)
		rl.EndDrawing()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			break
		}
	}
	return nil
}
