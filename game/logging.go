package game

import (
	"log/slog"
)

// logWorldState logs a summary of the current world.
func (g *Game) logWorldState() {
	counters := g.sim.Counters()
	fieldTime := g.sim.Field().Time()

	slog.Info("world state",
		"tick", g.sim.Tick(),
		"sim_time", g.sim.SimTime(),
		"agents", len(g.sim.Agents()),
		"occupied_cells", g.sim.Grid().OccupiedCells(),
		"field_time", fieldTime,
		"pending_spawns", counters.Spawns,
		"pending_culls", counters.Culls,
	)

	if stats, ok := g.LastStats(); ok {
		slog.Info("last window", "stats", stats)
	}
}
