package game

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/driftlens/telemetry"
)

// recordCounters moves the simulation's event counters into the open window.
func (g *Game) recordCounters() {
	c := g.sim.Counters()
	g.collector.Record(telemetry.Counts{
		Spawns:      c.Spawns,
		SpawnMisses: c.SpawnMisses,
		Splits:      c.Splits,
		Culls:       c.Culls,
		Contacts:    c.Contacts,
	})
	g.sim.ResetCounters()
}

// flushTelemetry closes the stats window once it has covered its duration.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.sim.SimTime()) {
		return
	}

	stats := g.collector.Flush(telemetry.Snapshot{
		Tick:          g.sim.Tick(),
		SimTime:       g.sim.SimTime(),
		Agents:        len(g.sim.Agents()),
		OccupiedCells: g.sim.Grid().OccupiedCells(),
		Speeds:        g.sampleSpeeds(),
	})
	perfStats := g.perfCollector.Stats()
	g.lastStats = &stats

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// sampleSpeeds collects agent speeds into a reused buffer.
func (g *Game) sampleSpeeds() []float64 {
	g.speeds = g.speeds[:0]
	for _, a := range g.sim.Agents() {
		g.speeds = append(g.speeds, r2.Norm(a.Vel))
	}
	return g.speeds
}
