package systems

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// AgentParams holds the constants shared by every agent in a simulation.
// All agents reference the same params, so Radius is uniform across the population.
type AgentParams struct {
	Radius        float64 // Disc radius; the grid cell size is twice this
	Drag          float64 // Fraction of velocity lost per second
	MaxSpeed      float64 // Speed cap in world units per second (0 = unlimited)
	Stiffness     float64 // Collision response per unit of penetration per second
	SplitInterval float64 // Seconds between split attempts (0 = never split)
	SplitChance   float64 // Probability that a split attempt produces a child
	SplitSpeed    float64 // Separation speed given to a newly split pair
}

// Agent is a disc drifting through the flow field.
type Agent struct {
	Pos r2.Vec
	Vel r2.Vec
	Age float64

	params     *AgentParams
	rng        *rand.Rand
	splitTimer float64
}

// NewAgent creates an agent at pos with initial velocity vel.
// The split timer is staggered so agents created together do not split in lockstep.
func NewAgent(pos, vel r2.Vec, params *AgentParams, rng *rand.Rand) *Agent {
	a := &Agent{
		Pos:    pos,
		Vel:    vel,
		params: params,
		rng:    rng,
	}
	a.resetSplitTimer()
	return a
}

// Radius returns the shared agent radius.
func (a *Agent) Radius() float64 {
	return a.params.Radius
}

// Params returns the shared agent parameters.
func (a *Agent) Params() *AgentParams {
	return a.params
}

// Overlaps reports whether the discs of a and other intersect.
// Discs that exactly touch do not overlap.
func (a *Agent) Overlaps(other *Agent) bool {
	sum := a.params.Radius + other.params.Radius
	return r2.Norm2(r2.Sub(other.Pos, a.Pos)) < sum*sum
}

// Collide applies a symmetric separating impulse to a and other when their discs overlap.
// The velocity change is Stiffness * penetration * dt, split equally between the pair
// along the line joining their centres. Returns true if the discs overlapped.
func (a *Agent) Collide(other *Agent, dt float64) bool {
	delta := r2.Sub(other.Pos, a.Pos)
	sum := a.params.Radius + other.params.Radius
	distSq := r2.Norm2(delta)
	if distSq >= sum*sum {
		return false
	}

	dist := math.Sqrt(distSq)
	normal := r2.Vec{X: 1}
	if dist > 0 {
		normal = r2.Scale(1/dist, delta)
	}

	penetration := sum - dist
	impulse := a.params.Stiffness * penetration * dt
	half := r2.Scale(impulse/2, normal)

	a.Vel = r2.Sub(a.Vel, half)
	other.Vel = r2.Add(other.Vel, half)
	return true
}

// Update integrates the agent's motion over dt.
// When the split timer expires the agent may divide; the new agent is handed to spawn,
// which reports whether it was accepted. The parent only recoils from an accepted child.
// spawn may be nil, in which case splitting is disabled.
func (a *Agent) Update(dt float64, spawn func(*Agent) bool) {
	p := a.params

	if p.Drag > 0 {
		a.Vel = r2.Scale(math.Max(0, 1-p.Drag*dt), a.Vel)
	}
	a.Vel = limitSpeed(a.Vel, p.MaxSpeed)
	a.Pos = r2.Add(a.Pos, r2.Scale(dt, a.Vel))
	a.Age += dt

	if spawn == nil || p.SplitInterval <= 0 {
		return
	}

	a.splitTimer -= dt
	if a.splitTimer > 0 {
		return
	}
	a.resetSplitTimer()

	if a.rng.Float64() >= p.SplitChance {
		return
	}
	child, kick := a.split()
	if spawn(child) {
		a.Vel = r2.Sub(a.Vel, kick)
	}
}

// split produces a child one radius away along a random heading, moving kick faster
// than the parent along it. The caller applies the opposite kick to the parent.
func (a *Agent) split() (*Agent, r2.Vec) {
	heading := a.rng.Float64() * 2 * math.Pi
	dir := r2.Vec{X: math.Cos(heading), Y: math.Sin(heading)}
	kick := r2.Scale(a.params.SplitSpeed/2, dir)

	child := NewAgent(
		r2.Add(a.Pos, r2.Scale(a.params.Radius, dir)),
		r2.Add(a.Vel, kick),
		a.params,
		a.rng,
	)
	return child, kick
}

func (a *Agent) resetSplitTimer() {
	interval := a.params.SplitInterval
	if interval <= 0 {
		a.splitTimer = 0
		return
	}
	// 50-150% jitter
	a.splitTimer = interval * (0.5 + a.rng.Float64())
}
