package ui

import (
	"fmt"
	"math"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/driftlens/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title          string
	Agents         int
	OccupiedCells  int
	Tick           int32
	SimTime        float64
	FPS            int32
	Paused         bool
	TimeScale      float64
	StepsPerUpdate int

	// Lens pose; HasLens is false without a camera
	HasLens   bool
	LensZoom  float64
	LensAngle float64
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Agents: %d | Occupied cells: %d", data.Agents, data.OccupiedCells),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | t=%.1fs | %.2fx x%d | FPS: %d", data.Tick, data.SimTime, data.TimeScale, data.StepsPerUpdate, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	status := "Running"
	if data.Paused {
		status = "PAUSED"
	}
	rl.DrawText(status, 10, 75, 16, rl.Yellow)

	if data.HasLens {
		rl.DrawText(
			fmt.Sprintf("Lens: x%.2f | %.0f deg", data.LensZoom, data.LensAngle*180/math.Pi),
			100, 75, 16, rl.LightGray,
		)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders step phase timings.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x, y := p.x, p.y

	rl.DrawText("Step Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Tick: %s (%.0f/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, ph := range telemetry.Phases() {
		pct := stats.PhasePct[ph]
		color := rl.LightGray
		if pct > 50 {
			color = rl.Red
		} else if pct > 25 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", ph, stats.PhaseAvg[ph].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}

// StatsPanel renders the last telemetry window through section descriptors.
type StatsPanel struct {
	renderer *Renderer
	sections []SectionDescriptor
	x, y     int32
	width    int32
}

// NewStatsPanel creates a stats panel. maxAgents scales the population bar.
func NewStatsPanel(x, y, width int32, maxAgents int) *StatsPanel {
	return &StatsPanel{
		renderer: NewRenderer(),
		sections: WindowSections(maxAgents),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (s *StatsPanel) SetPosition(x, y int32) {
	s.x = x
	s.y = y
}

// Height returns the panel's pixel height.
func (s *StatsPanel) Height() int32 {
	h := s.renderer.Theme.Padding * 2
	for _, sd := range s.sections {
		h += s.renderer.SectionHeight(sd)
	}
	return h
}

// Draw renders stats. Nothing is drawn before the first window closes.
func (s *StatsPanel) Draw(stats telemetry.WindowStats, ok bool) {
	if !ok {
		return
	}
	r := s.renderer
	r.DrawPanel(s.x, s.y, s.width, s.Height())

	x := s.x + r.Theme.Padding
	y := s.y + r.Theme.Padding
	w := s.width - r.Theme.Padding*2
	for _, sd := range s.sections {
		y = r.DrawSection(x, y, sd, stats, w)
	}
}

func windowStats(data any) telemetry.WindowStats {
	ws, _ := data.(telemetry.WindowStats)
	return ws
}

// WindowSections describes the stats panel layout for telemetry.WindowStats.
func WindowSections(maxAgents int) []SectionDescriptor {
	return []SectionDescriptor{
		{
			Title: "Population",
			Fields: []FieldDescriptor{
				{Label: "Agents", Widget: WidgetBar, Range: FieldRange{Max: float32(maxAgents)},
					Getter: func(d any) float32 { return float32(windowStats(d).Agents) }},
				{Label: "Cells", Widget: WidgetText, Format: "%.0f",
					Getter: func(d any) float32 { return float32(windowStats(d).OccupiedCells) }},
				{Label: "Crowding", Widget: WidgetText, Format: "%.2f",
					Getter: func(d any) float32 { return float32(windowStats(d).Crowding) }},
			},
		},
		{
			Title: "Window",
			Fields: []FieldDescriptor{
				{Label: "Spawns", Widget: WidgetText, TextGetter: func(d any) string {
					ws := windowStats(d)
					return fmt.Sprintf("%d (%d missed)", ws.Spawns, ws.SpawnMisses)
				}},
				{Label: "Splits", Widget: WidgetText, Format: "%.0f",
					Getter: func(d any) float32 { return float32(windowStats(d).Splits) }},
				{Label: "Culls", Widget: WidgetText, Format: "%.0f",
					Getter: func(d any) float32 { return float32(windowStats(d).Culls) }},
				{Label: "Contacts/s", Widget: WidgetText, Format: "%.1f",
					Getter: func(d any) float32 { return float32(windowStats(d).ContactRate) }},
				{Label: "Turnover", Widget: WidgetText, Format: "%.1f%%",
					Getter: func(d any) float32 { return float32(windowStats(d).TurnoverPct) }},
			},
		},
		{
			Title: "Speed",
			Fields: []FieldDescriptor{
				{Label: "Mean", Widget: WidgetText, TextGetter: func(d any) string {
					ws := windowStats(d)
					return fmt.Sprintf("%.1f ± %.1f", ws.SpeedMean, ws.SpeedStd)
				}},
				{Label: "p50 / p90", Widget: WidgetText, TextGetter: func(d any) string {
					ws := windowStats(d)
					return fmt.Sprintf("%.1f / %.1f", ws.SpeedP50, ws.SpeedP90)
				}},
			},
		},
	}
}
