// Package telemetry aggregates simulation statistics over time windows and writes them out.
package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`
	WindowSec       float64 `csv:"window_sec"`

	// Population at window end
	Agents        int `csv:"agents"`
	OccupiedCells int `csv:"occupied_cells"`

	// Events during window
	Spawns      int `csv:"spawns"`
	SpawnMisses int `csv:"spawn_misses"`
	Splits      int `csv:"splits"`
	Culls       int `csv:"culls"`
	Contacts    int `csv:"contacts"`

	// Rates per simulated second
	ContactRate float64 `csv:"contact_rate"`
	TurnoverPct float64 `csv:"turnover_pct"` // (spawns+splits+culls) / agents

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`

	// Mean agents per non-empty cell
	Crowding float64 `csv:"crowding"`
}

// ComputeSpeedStats returns the mean, standard deviation, median and 90th percentile
// of speeds. Returns zeros for an empty slice. speeds is not modified.
func ComputeSpeedStats(speeds []float64) (mean, std, p50, p90 float64) {
	n := len(speeds)
	if n == 0 {
		return 0, 0, 0, 0
	}

	sorted := make([]float64, n)
	copy(sorted, speeds)
	sort.Float64s(sorted)

	if n == 1 {
		return sorted[0], 0, sorted[0], sorted[0]
	}

	mean, std = stat.MeanStdDev(sorted, nil)
	p50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return mean, std, p50, p90
}

// LogStats outputs the window stats via slog.
func (s WindowStats) LogStats() {
	slog.Info("telemetry",
		"tick", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"agents", s.Agents,
		"occupied_cells", s.OccupiedCells,
		"spawns", s.Spawns,
		"spawn_misses", s.SpawnMisses,
		"splits", s.Splits,
		"culls", s.Culls,
		"contacts", s.Contacts,
		"contact_rate", s.ContactRate,
		"speed_mean", s.SpeedMean,
		"speed_p90", s.SpeedP90,
		"crowding", s.Crowding,
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("tick", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("agents", s.Agents),
		slog.Int("contacts", s.Contacts),
		slog.Int("culls", s.Culls),
		slog.Float64("speed_mean", s.SpeedMean),
	)
}
