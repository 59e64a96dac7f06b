package systems

import (
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// MaxSpawnAttempts is the number of boundary samples tried per FindSpawnLocation call.
	MaxSpawnAttempts = 10
	// SpawnEdgeEpsilon pulls far-edge samples strictly inside the domain.
	SpawnEdgeEpsilon = 1e-3
)

// SpawnPlanner picks spawn points on the domain boundary where the flow points inward.
type SpawnPlanner struct {
	bounds Bounds
	field  FlowField
	rng    *rand.Rand
}

// NewSpawnPlanner creates a planner for bounds that consults field.
func NewSpawnPlanner(bounds Bounds, field FlowField, rng *rand.Rand) *SpawnPlanner {
	return &SpawnPlanner{
		bounds: bounds,
		field:  field,
		rng:    rng,
	}
}

// FindSpawnLocation samples up to MaxSpawnAttempts boundary points. Each sample is
// nudged one unit along the local flow direction and accepted only if the nudged
// point lies inside the domain. Returns false if every attempt failed.
func (p *SpawnPlanner) FindSpawnLocation() (r2.Vec, bool) {
	for attempt := 0; attempt < MaxSpawnAttempts; attempt++ {
		edge := p.sampleEdge()

		var flow r2.Vec
		p.field.Query(edge.X, edge.Y, &flow, 1)
		if flow.X == 0 && flow.Y == 0 {
			continue
		}

		candidate := r2.Add(edge, r2.Unit(flow))
		if p.bounds.Contains(candidate) {
			return candidate, true
		}
	}
	return r2.Vec{}, false
}

// sampleEdge returns a uniformly placed point on one of the four domain edges.
func (p *SpawnPlanner) sampleEdge() r2.Vec {
	w, h := p.bounds.Width, p.bounds.Height
	farX := w - SpawnEdgeEpsilon
	farY := h - SpawnEdgeEpsilon

	if p.rng.Float64() < 0.5 {
		// Left or right edge
		x := 0.0
		if p.rng.Float64() < 0.5 {
			x = farX
		}
		return r2.Vec{X: x, Y: p.rng.Float64() * h}
	}

	// Top or bottom edge
	y := 0.0
	if p.rng.Float64() < 0.5 {
		y = farY
	}
	return r2.Vec{X: p.rng.Float64() * w, Y: y}
}
