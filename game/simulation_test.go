package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/driftlens/config"
	"github.com/pthm-cable/driftlens/systems"
	"github.com/pthm-cable/driftlens/telemetry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Defaults()
	cfg.World.Width = 400
	cfg.World.Height = 300
	cfg.Agent.Initial = 60
	cfg.Agent.Max = 200
	cfg.ComputeDerived()
	return cfg
}

func newTestSim(t *testing.T, cfg *config.Config, seed int64) *Simulation {
	t.Helper()
	sim, err := NewSimulation(cfg, seed)
	require.NoError(t, err)
	return sim
}

func assertInDomain(t *testing.T, sim *Simulation) {
	t.Helper()
	bounds := sim.Bounds()
	for i, a := range sim.Agents() {
		if !bounds.Contains(a.Pos) {
			t.Fatalf("agent %d at %v outside %vx%v", i, a.Pos, bounds.Width, bounds.Height)
		}
	}
}

func TestNewSimulationSeedsPopulation(t *testing.T) {
	cfg := testConfig(t)
	sim := newTestSim(t, cfg, 1)

	assert.Len(t, sim.Agents(), cfg.Agent.Initial)
	assert.Equal(t, cfg.Agent.Initial, sim.Grid().Count())
	assert.Equal(t, int32(0), sim.Tick())
	assertInDomain(t, sim)
}

func TestNewSimulationRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.Radius = 0

	_, err := NewSimulation(cfg, 1)
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestStepKeepsAgentsInDomain(t *testing.T) {
	for _, cull := range []bool{true, false} {
		for _, owns := range []bool{true, false} {
			cfg := testConfig(t)
			cfg.Grid.CullOutOfBounds = cull
			cfg.Grid.OwnsFlowField = owns

			name := map[bool]string{true: "cull", false: "confine"}[cull] +
				map[bool]string{true: "/grid-field", false: "/sim-field"}[owns]
			t.Run(name, func(t *testing.T) {
				sim := newTestSim(t, cfg, 7)
				for i := 0; i < 300; i++ {
					sim.Step(cfg.Physics.DT)
					assertInDomain(t, sim)
					require.Equal(t, len(sim.Agents()), sim.Grid().Count(), "tick %d", sim.Tick())
				}
				assert.Equal(t, int32(300), sim.Tick())
				assert.InDelta(t, 300*cfg.Physics.DT, sim.SimTime(), 1e-9)
				assert.Equal(t, len(sim.Agents()), sim.Grid().Count())
			})
		}
	}
}

func TestStepCullsEscapedAgent(t *testing.T) {
	cfg := testConfig(t)
	cfg.Grid.CullOutOfBounds = true
	cfg.Spawn.Interval = 0
	cfg.Agent.SplitInterval = 0
	sim := newTestSim(t, cfg, 3)

	escaped := sim.Agents()[0]
	escaped.Pos = r2.Vec{X: -20, Y: 50}
	escaped.Vel = r2.Vec{}

	sim.Step(cfg.Physics.DT)

	assert.GreaterOrEqual(t, sim.Counters().Culls, 1)
	for _, a := range sim.Agents() {
		assert.NotSame(t, escaped, a)
	}
}

func TestStepConfinesWhenNotCulling(t *testing.T) {
	cfg := testConfig(t)
	cfg.Grid.CullOutOfBounds = false
	cfg.Spawn.Interval = 0
	cfg.Agent.SplitInterval = 0
	cfg.Agent.Initial = 1
	sim := newTestSim(t, cfg, 3)

	a := sim.Agents()[0]
	a.Pos = r2.Vec{X: -5, Y: 100}
	a.Vel = r2.Vec{X: -60, Y: 0}

	sim.Step(cfg.Physics.DT)

	require.Len(t, sim.Agents(), 1)
	assert.Equal(t, 0.0, a.Pos.X)
	assert.Greater(t, a.Vel.X, 0.0)
	assert.Zero(t, sim.Counters().Culls)
}

func TestStepRespectsPopulationCap(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.Initial = 40
	cfg.Agent.Max = 50
	cfg.Agent.SplitInterval = 0.05
	cfg.Agent.SplitChance = 1
	cfg.Spawn.Interval = cfg.Physics.DT
	cfg.Spawn.PerInterval = 5
	sim := newTestSim(t, cfg, 11)

	for i := 0; i < 200; i++ {
		sim.Step(cfg.Physics.DT)
		require.LessOrEqual(t, len(sim.Agents()), cfg.Agent.Max)
	}
}

func TestStepSpawnsOnBoundary(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.Initial = 0
	cfg.Agent.SplitInterval = 0
	cfg.Spawn.Interval = cfg.Physics.DT
	cfg.Spawn.PerInterval = 3
	sim := newTestSim(t, cfg, 5)

	const steps = 10
	for i := 0; i < steps; i++ {
		sim.Step(cfg.Physics.DT)
	}

	c := sim.Counters()
	assert.Equal(t, steps*cfg.Spawn.PerInterval, c.Spawns+c.SpawnMisses)
	assert.Positive(t, c.Spawns)
	assertInDomain(t, sim)
}

func TestStepIndexesSpawnedAgents(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.Initial = 0
	cfg.Agent.SplitInterval = 0
	cfg.Spawn.Interval = cfg.Physics.DT
	cfg.Spawn.PerInterval = 4
	sim := newTestSim(t, cfg, 5)

	sim.Step(cfg.Physics.DT)

	require.Positive(t, sim.Counters().Spawns)
	assert.Equal(t, len(sim.Agents()), sim.Grid().Count())
}

func TestStepSplitAtCapLeavesParentsAtRest(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.Initial = 3
	cfg.Agent.Max = 3
	cfg.Agent.Drag = 0
	cfg.Agent.Stiffness = 0
	cfg.Agent.MaxSpeed = 0
	cfg.Agent.SplitInterval = cfg.Physics.DT
	cfg.Agent.SplitChance = 1
	cfg.Flow.Strength = 0
	cfg.Spawn.Interval = 0
	sim := newTestSim(t, cfg, 13)

	for i := 0; i < 30; i++ {
		sim.Step(cfg.Physics.DT)
	}

	require.Len(t, sim.Agents(), cfg.Agent.Max)
	assert.Zero(t, sim.Counters().Splits)
	for i, a := range sim.Agents() {
		assert.Equal(t, r2.Vec{}, a.Vel, "agent %d", i)
	}
}

func TestStepEmptyPopulation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.Initial = 0
	cfg.Spawn.Interval = 0
	sim := newTestSim(t, cfg, 1)

	sim.Step(cfg.Physics.DT)

	assert.Empty(t, sim.Agents())
	assert.Zero(t, sim.Grid().OccupiedCells())
	assert.Equal(t, Counters{}, sim.Counters())
}

func TestStepDeterministic(t *testing.T) {
	cfg := testConfig(t)
	a := newTestSim(t, cfg, 42)
	b := newTestSim(t, cfg, 42)

	for i := 0; i < 120; i++ {
		a.Step(cfg.Physics.DT)
		b.Step(cfg.Physics.DT)
	}

	require.Equal(t, len(a.Agents()), len(b.Agents()))
	for i := range a.Agents() {
		assert.Equal(t, a.Agents()[i].Pos, b.Agents()[i].Pos)
		assert.Equal(t, a.Agents()[i].Vel, b.Agents()[i].Vel)
	}
	assert.Equal(t, a.Counters(), b.Counters())
}

func TestResetCounters(t *testing.T) {
	cfg := testConfig(t)
	cfg.Spawn.Interval = cfg.Physics.DT
	sim := newTestSim(t, cfg, 2)

	sim.Step(cfg.Physics.DT)
	require.NotEqual(t, Counters{}, sim.Counters())

	sim.ResetCounters()
	assert.Equal(t, Counters{}, sim.Counters())
}

func TestPhaseHookOrder(t *testing.T) {
	tests := []struct {
		name string
		owns bool
		want []telemetry.Phase
	}{
		{
			name: "grid owns field",
			owns: true,
			want: []telemetry.Phase{telemetry.PhaseSpawn, telemetry.PhaseAgents, telemetry.PhasePopulate, telemetry.PhaseCollide},
		},
		{
			name: "simulation owns field",
			owns: false,
			want: []telemetry.Phase{telemetry.PhaseField, telemetry.PhaseSpawn, telemetry.PhaseAgents, telemetry.PhasePopulate, telemetry.PhaseCollide},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Grid.OwnsFlowField = tt.owns
			sim := newTestSim(t, cfg, 1)

			var got []telemetry.Phase
			sim.SetPhaseHook(func(p telemetry.Phase) { got = append(got, p) })
			sim.Step(cfg.Physics.DT)

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFieldAdvancesOncePerStep(t *testing.T) {
	for _, owns := range []bool{true, false} {
		cfg := testConfig(t)
		cfg.Grid.OwnsFlowField = owns
		sim := newTestSim(t, cfg, 1)

		sim.Step(0.5)
		sim.Step(0.25)

		assert.InDelta(t, 0.75*cfg.Flow.TimeSpeed, sim.Field().Time(), 1e-12, "owns=%v", owns)
	}
}

var _ systems.FlowField = (*systems.NoiseFlowField)(nil)
