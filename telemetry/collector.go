package telemetry

// Counts holds events observed during one or more ticks.
type Counts struct {
	Spawns      int
	SpawnMisses int
	Splits      int
	Culls       int
	Contacts    int
}

// Add returns the field-wise sum of c and o.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Spawns:      c.Spawns + o.Spawns,
		SpawnMisses: c.SpawnMisses + o.SpawnMisses,
		Splits:      c.Splits + o.Splits,
		Culls:       c.Culls + o.Culls,
		Contacts:    c.Contacts + o.Contacts,
	}
}

// Snapshot is the population state sampled when a window closes.
type Snapshot struct {
	Tick          int32
	SimTime       float64
	Agents        int
	OccupiedCells int
	Speeds        []float64
}

// Collector accumulates events within windows of simulated time and produces WindowStats.
// Windows are measured in seconds because the host may drive variable time steps.
type Collector struct {
	windowSec float64

	windowStartTick int32
	windowStartTime float64
	counts          Counts
}

// NewCollector creates a stats collector with the given window length in simulated seconds.
func NewCollector(windowSec float64) *Collector {
	if windowSec <= 0 {
		windowSec = 1
	}
	return &Collector{windowSec: windowSec}
}

// Record adds events to the current window.
func (c *Collector) Record(counts Counts) {
	c.counts = c.counts.Add(counts)
}

// ShouldFlush returns true once the window has covered its full duration.
func (c *Collector) ShouldFlush(simTime float64) bool {
	return simTime-c.windowStartTime >= c.windowSec
}

// Flush produces a WindowStats from the accumulated events and snap,
// then starts a new window.
func (c *Collector) Flush(snap Snapshot) WindowStats {
	elapsed := snap.SimTime - c.windowStartTime

	mean, std, p50, p90 := ComputeSpeedStats(snap.Speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   snap.Tick,
		SimTimeSec:      snap.SimTime,
		WindowSec:       elapsed,

		Agents:        snap.Agents,
		OccupiedCells: snap.OccupiedCells,

		Spawns:      c.counts.Spawns,
		SpawnMisses: c.counts.SpawnMisses,
		Splits:      c.counts.Splits,
		Culls:       c.counts.Culls,
		Contacts:    c.counts.Contacts,

		SpeedMean: mean,
		SpeedStd:  std,
		SpeedP50:  p50,
		SpeedP90:  p90,
	}

	if elapsed > 0 {
		stats.ContactRate = float64(c.counts.Contacts) / elapsed
	}
	if snap.Agents > 0 {
		turnover := c.counts.Spawns + c.counts.Splits + c.counts.Culls
		stats.TurnoverPct = float64(turnover) / float64(snap.Agents) * 100
	}
	if snap.OccupiedCells > 0 {
		stats.Crowding = float64(snap.Agents) / float64(snap.OccupiedCells)
	}

	c.windowStartTick = snap.Tick
	c.windowStartTime = snap.SimTime
	c.counts = Counts{}

	return stats
}

// WindowSec returns the window length in simulated seconds.
func (c *Collector) WindowSec() float64 {
	return c.windowSec
}
