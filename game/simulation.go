package game

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/driftlens/config"
	"github.com/pthm-cable/driftlens/systems"
	"github.com/pthm-cable/driftlens/telemetry"
)

// Counters holds simulation events since the last ResetCounters call.
type Counters struct {
	Spawns      int // Agents placed by the spawn planner
	SpawnMisses int // Spawn attempts that found no valid location
	Splits      int // Agents created by splitting
	Culls       int // Agents removed for leaving the domain
	Contacts    int // Overlapping pairs resolved by the collision pass
}

// Simulation ties the flow field, agents, spatial grid and spawn planner into one
// per-tick update. It is single-threaded; callers must not mutate it concurrently.
type Simulation struct {
	cfg    *config.Config
	bounds systems.Bounds
	rng    *rand.Rand

	params  *systems.AgentParams
	field   *systems.NoiseFlowField
	grid    *systems.SpatialGrid
	planner *systems.SpawnPlanner

	agents  []*systems.Agent
	pending []*systems.Agent // Agents produced during the update loop

	tick       int32
	simTime    float64
	spawnTimer float64
	counters   Counters

	phaseHook func(telemetry.Phase)
}

// NewSimulation builds a simulation from cfg and seeds the initial population.
func NewSimulation(cfg *config.Config, seed int64) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	bounds := systems.Bounds{Width: cfg.Derived.WorldW, Height: cfg.Derived.WorldH}

	flowSeed := cfg.Flow.Seed
	if flowSeed == 0 {
		flowSeed = seed
	}
	field, err := systems.NewNoiseFlowField(bounds, systems.FlowParams{
		Resolution: cfg.Flow.Resolution,
		NoiseScale: cfg.Flow.NoiseScale,
		TimeSpeed:  cfg.Flow.TimeSpeed,
		Strength:   cfg.Flow.Strength,
		Seed:       flowSeed,
	})
	if err != nil {
		return nil, fmt.Errorf("creating flow field: %w", err)
	}

	grid, err := systems.NewSpatialGridForRadius(bounds.Width, bounds.Height, cfg.Agent.Radius, systems.GridOptions{
		OwnsFlowField:   cfg.Grid.OwnsFlowField,
		CullOutOfBounds: cfg.Grid.CullOutOfBounds,
		Field:           field,
	})
	if err != nil {
		return nil, fmt.Errorf("creating spatial grid: %w", err)
	}

	s := &Simulation{
		cfg:    cfg,
		bounds: bounds,
		rng:    rng,
		params: &systems.AgentParams{
			Radius:        cfg.Agent.Radius,
			Drag:          cfg.Agent.Drag,
			MaxSpeed:      cfg.Agent.MaxSpeed,
			Stiffness:     cfg.Agent.Stiffness,
			SplitInterval: cfg.Agent.SplitInterval,
			SplitChance:   cfg.Agent.SplitChance,
			SplitSpeed:    cfg.Agent.SplitSpeed,
		},
		field:      field,
		grid:       grid,
		planner:    systems.NewSpawnPlanner(bounds, field, rng),
		agents:     make([]*systems.Agent, 0, cfg.Agent.Max),
		spawnTimer: cfg.Spawn.Interval,
	}

	s.seedAgents(cfg.Agent.Initial)
	s.agents = s.grid.Populate(s.agents)

	slog.Debug("simulation created",
		"seed", seed,
		"world_w", bounds.Width,
		"world_h", bounds.Height,
		"agents", len(s.agents),
		"owns_flow_field", cfg.Grid.OwnsFlowField,
		"cull_out_of_bounds", cfg.Grid.CullOutOfBounds,
	)
	return s, nil
}

// seedAgents places n agents uniformly inside the domain, moving with the local flow.
func (s *Simulation) seedAgents(n int) {
	for i := 0; i < n && !s.full(); i++ {
		pos := r2.Vec{
			X: s.rng.Float64() * s.bounds.Width,
			Y: s.rng.Float64() * s.bounds.Height,
		}
		s.agents = append(s.agents, systems.NewAgent(pos, s.flowVelocity(pos), s.params, s.rng))
	}
}

// flowVelocity returns an initial velocity of Spawn.Speed along the flow at pos.
func (s *Simulation) flowVelocity(pos r2.Vec) r2.Vec {
	var flow r2.Vec
	s.field.Query(pos.X, pos.Y, &flow, 1)
	if flow.X == 0 && flow.Y == 0 {
		return r2.Vec{}
	}
	return r2.Scale(s.cfg.Spawn.Speed, r2.Unit(flow))
}

func (s *Simulation) full() bool {
	return s.cfg.Agent.Max > 0 && len(s.agents)+len(s.pending) >= s.cfg.Agent.Max
}

// Step advances the simulation by dt seconds.
// Order: field advance, boundary spawns, agent updates and splits, grid rebuild,
// collision pass. Every agent alive after Step is indexed in the grid.
func (s *Simulation) Step(dt float64) {
	gridOpts := s.grid.Options()

	if !gridOpts.OwnsFlowField {
		s.phase(telemetry.PhaseField)
		s.field.Advance(dt)
	}

	s.phase(telemetry.PhaseSpawn)
	s.updateSpawns(dt)

	s.phase(telemetry.PhaseAgents)
	s.updateAgents(dt, !gridOpts.OwnsFlowField)
	if !gridOpts.CullOutOfBounds {
		s.confineAgents()
	}

	s.phase(telemetry.PhasePopulate)
	before := len(s.agents)
	s.agents = s.grid.Populate(s.agents)
	s.counters.Culls += before - len(s.agents)

	// Advances the field first when the grid owns it
	s.phase(telemetry.PhaseCollide)
	s.counters.Contacts += s.grid.Update(dt)

	s.tick++
	s.simTime += dt
}

// SetPhaseHook registers fn to be called as each step phase begins.
func (s *Simulation) SetPhaseHook(fn func(telemetry.Phase)) {
	s.phaseHook = fn
}

func (s *Simulation) phase(p telemetry.Phase) {
	if s.phaseHook != nil {
		s.phaseHook(p)
	}
}

// updateAgents integrates every agent. Splits are collected and appended afterwards
// so the loop never observes agents created in the same tick.
func (s *Simulation) updateAgents(dt float64, applyFlow bool) {
	spawn := func(a *systems.Agent) bool {
		if s.full() {
			return false
		}
		s.pending = append(s.pending, a)
		return true
	}

	for _, a := range s.agents {
		if applyFlow {
			s.field.Query(a.Pos.X, a.Pos.Y, &a.Vel, dt)
		}
		a.Update(dt, spawn)
	}

	s.counters.Splits += len(s.pending)
	s.agents = append(s.agents, s.pending...)
	clear(s.pending)
	s.pending = s.pending[:0]
}

// confineAgents keeps agents inside the domain when the grid does not cull them,
// reflecting the velocity component that carried them out.
func (s *Simulation) confineAgents() {
	maxX := math.Nextafter(s.bounds.Width, 0)
	maxY := math.Nextafter(s.bounds.Height, 0)

	for _, a := range s.agents {
		if a.Pos.X < 0 {
			a.Pos.X = 0
			a.Vel.X = math.Abs(a.Vel.X)
		} else if a.Pos.X > maxX {
			a.Pos.X = maxX
			a.Vel.X = -math.Abs(a.Vel.X)
		}
		if a.Pos.Y < 0 {
			a.Pos.Y = 0
			a.Vel.Y = math.Abs(a.Vel.Y)
		} else if a.Pos.Y > maxY {
			a.Pos.Y = maxY
			a.Vel.Y = -math.Abs(a.Vel.Y)
		}
	}
}

// updateSpawns counts down the spawn timer and places boundary agents when it expires.
func (s *Simulation) updateSpawns(dt float64) {
	if s.cfg.Spawn.Interval <= 0 {
		return
	}

	s.spawnTimer -= dt
	if s.spawnTimer > 0 {
		return
	}
	s.spawnTimer += s.cfg.Spawn.Interval
	if s.spawnTimer <= 0 {
		// Skip rounds missed by a long frame instead of bursting
		s.spawnTimer = s.cfg.Spawn.Interval
	}

	for i := 0; i < s.cfg.Spawn.PerInterval && !s.full(); i++ {
		pos, ok := s.planner.FindSpawnLocation()
		if !ok {
			s.counters.SpawnMisses++
			slog.Debug("no spawn location", "tick", s.tick)
			continue
		}
		s.agents = append(s.agents, systems.NewAgent(pos, s.flowVelocity(pos), s.params, s.rng))
		s.counters.Spawns++
	}
}

// Agents returns the live agents. The slice is owned by the simulation.
func (s *Simulation) Agents() []*systems.Agent {
	return s.agents
}

// Grid returns the spatial grid for read-only inspection.
func (s *Simulation) Grid() *systems.SpatialGrid {
	return s.grid
}

// Field returns the flow field.
func (s *Simulation) Field() *systems.NoiseFlowField {
	return s.field
}

// Bounds returns the simulation domain.
func (s *Simulation) Bounds() systems.Bounds {
	return s.bounds
}

// AgentParams returns the parameters shared by all agents.
func (s *Simulation) AgentParams() *systems.AgentParams {
	return s.params
}

// Tick returns the number of completed steps.
func (s *Simulation) Tick() int32 {
	return s.tick
}

// SimTime returns the simulated seconds elapsed.
func (s *Simulation) SimTime() float64 {
	return s.simTime
}

// Counters returns events accumulated since the last reset.
func (s *Simulation) Counters() Counters {
	return s.counters
}

// ResetCounters zeroes the event counters.
func (s *Simulation) ResetCounters() {
	s.counters = Counters{}
}
