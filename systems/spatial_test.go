package systems

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// constantField is a uniform flow used to observe how the grid drives the field.
type constantField struct {
	v        r2.Vec
	advanced float64
	calls    int
}

func (f *constantField) Query(x, y float64, out *r2.Vec, scale float64) {
	out.X += f.v.X * scale
	out.Y += f.v.Y * scale
}

func (f *constantField) Advance(dt float64) {
	f.advanced += dt
	f.calls++
}

func testParams(radius float64) *AgentParams {
	return &AgentParams{Radius: radius, Stiffness: 10}
}

func agentAt(x, y float64, params *AgentParams) *Agent {
	return NewAgent(r2.Vec{X: x, Y: y}, r2.Vec{}, params, nil)
}

type pairKey struct{ a, b *Agent }

func orderedPair(a, b *Agent, index map[*Agent]int) pairKey {
	if index[a] > index[b] {
		a, b = b, a
	}
	return pairKey{a, b}
}

func TestNewSpatialGridDims(t *testing.T) {
	g, err := NewSpatialGridForRadius(100, 100, 5, GridOptions{})
	require.NoError(t, err)

	cols, rows := g.Dims()
	assert.Equal(t, 11, cols)
	assert.Equal(t, 11, rows)
	assert.Equal(t, 10.0, g.CellSize())

	g, err = NewSpatialGrid(95, 42, 10, GridOptions{})
	require.NoError(t, err)
	cols, rows = g.Dims()
	assert.Equal(t, 11, cols)
	assert.Equal(t, 6, rows)
}

func TestNewSpatialGridRejectsInvalid(t *testing.T) {
	tests := []struct {
		name                    string
		width, height, cellSize float64
	}{
		{"zero width", 0, 100, 10},
		{"negative height", 100, -1, 10},
		{"zero cell size", 100, 100, 0},
		{"nan width", math.NaN(), 100, 10},
		{"infinite height", 100, math.Inf(1), 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, err := NewSpatialGrid(tc.width, tc.height, tc.cellSize, GridOptions{})
			assert.Nil(t, g)
			assert.ErrorIs(t, err, ErrInvalidGeometry)
		})
	}

	t.Run("zero radius", func(t *testing.T) {
		_, err := NewSpatialGridForRadius(100, 100, 0, GridOptions{})
		assert.ErrorIs(t, err, ErrInvalidGeometry)
	})

	t.Run("owned field missing", func(t *testing.T) {
		_, err := NewSpatialGrid(100, 100, 10, GridOptions{OwnsFlowField: true})
		assert.ErrorIs(t, err, ErrMissingField)
	})
}

func TestPopulatePartition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	params := testParams(5)
	g, err := NewSpatialGridForRadius(100, 100, params.Radius, GridOptions{CullOutOfBounds: true})
	require.NoError(t, err)

	agents := make([]*Agent, 300)
	for i := range agents {
		agents[i] = agentAt(rng.Float64()*100, rng.Float64()*100, params)
	}
	// Exact boundary coordinates
	agents = append(agents, agentAt(0, 0, params), agentAt(99.999, 99.999, params), agentAt(10, 20, params))

	agents = g.Populate(agents)
	require.Len(t, agents, 303)
	assert.Equal(t, len(agents), g.Count())

	seen := make(map[*Agent]int)
	cols, rows := g.Dims()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			for _, a := range g.Cell(x, y) {
				seen[a]++
				assert.Equal(t, int(math.Floor(a.Pos.X/10)), x, "column for %v", a.Pos)
				assert.Equal(t, int(math.Floor(a.Pos.Y/10)), y, "row for %v", a.Pos)
			}
		}
	}
	for _, a := range agents {
		assert.Equal(t, 1, seen[a], "agent at %v bucketed %d times", a.Pos, seen[a])
	}

	// Sentinel column and row stay empty
	for y := 0; y < rows; y++ {
		assert.Empty(t, g.Cell(cols-1, y))
	}
	for x := 0; x < cols; x++ {
		assert.Empty(t, g.Cell(x, rows-1))
	}
}

func TestPopulateRebuildsEachTick(t *testing.T) {
	params := testParams(5)
	g, err := NewSpatialGridForRadius(100, 100, params.Radius, GridOptions{})
	require.NoError(t, err)

	a := agentAt(15, 15, params)
	agents := g.Populate([]*Agent{a})
	require.Len(t, g.Cell(1, 1), 1)

	a.Pos = r2.Vec{X: 85, Y: 45}
	g.Populate(agents)
	assert.Empty(t, g.Cell(1, 1))
	assert.Equal(t, []*Agent{a}, g.Cell(8, 4))
	assert.Equal(t, 1, g.OccupiedCells())
}

func TestPopulateEmpty(t *testing.T) {
	hooked := 0
	g, err := NewSpatialGridForRadius(100, 100, 5, GridOptions{
		PairHook: func(a, b *Agent, hit bool) { hooked++ },
	})
	require.NoError(t, err)

	agents := g.Populate(nil)
	assert.Empty(t, agents)
	assert.Equal(t, 0, g.Count())
	assert.Equal(t, 0, g.OccupiedCells())
	assert.Equal(t, 0, g.Update(1.0/60))
	assert.Equal(t, 0, hooked)
	assert.Empty(t, g.Centroids())
}

func TestPopulateCullsOutOfBounds(t *testing.T) {
	params := testParams(5)
	g, err := NewSpatialGridForRadius(100, 100, params.Radius, GridOptions{CullOutOfBounds: true})
	require.NoError(t, err)

	keep1 := agentAt(10, 10, params)
	keep2 := agentAt(50, 50, params)
	keep3 := agentAt(99.5, 0, params)
	agents := []*Agent{
		agentAt(-0.1, 50, params),
		keep1,
		agentAt(100, 50, params),
		keep2,
		agentAt(50, 100, params),
		agentAt(50, -3, params),
		keep3,
		agentAt(250, 250, params),
	}

	agents = g.Populate(agents)
	assert.Equal(t, []*Agent{keep1, keep2, keep3}, agents)
	assert.Equal(t, 3, g.Count())
}

func TestPopulateUncheckedKeepsAll(t *testing.T) {
	params := testParams(5)
	g, err := NewSpatialGridForRadius(100, 100, params.Radius, GridOptions{})
	require.NoError(t, err)

	agents := []*Agent{agentAt(10, 10, params), agentAt(150, 50, params)}
	agents = g.Populate(agents)
	assert.Len(t, agents, 2)
	assert.Equal(t, 2, g.Count())
}

func TestUpdateScenario(t *testing.T) {
	tests := []struct {
		name    string
		a, b    r2.Vec
		collide bool
	}{
		{"overlapping", r2.Vec{X: 50, Y: 50}, r2.Vec{X: 53, Y: 50}, true},
		{"far apart", r2.Vec{X: 50, Y: 50}, r2.Vec{X: 70, Y: 50}, false},
		{"across cell border", r2.Vec{X: 49, Y: 49}, r2.Vec{X: 51, Y: 51}, true},
		{"left-bottom neighbour", r2.Vec{X: 40.5, Y: 39.5}, r2.Vec{X: 39.5, Y: 40.5}, true},
		{"left column wrap", r2.Vec{X: 0.5, Y: 9.5}, r2.Vec{X: 99.5, Y: 10.5}, false},
		{"exactly touching", r2.Vec{X: 20, Y: 20}, r2.Vec{X: 30, Y: 20}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := testParams(5)
			var hits, tested int
			g, err := NewSpatialGridForRadius(100, 100, params.Radius, GridOptions{
				PairHook: func(a, b *Agent, hit bool) {
					tested++
					if hit {
						hits++
					}
				},
			})
			require.NoError(t, err)

			agents := []*Agent{
				NewAgent(tc.a, r2.Vec{}, params, nil),
				NewAgent(tc.b, r2.Vec{}, params, nil),
			}
			g.Populate(agents)
			contacts := g.Update(1.0 / 60)

			if tc.collide {
				assert.Equal(t, 1, contacts)
				assert.Equal(t, 1, hits)
				assert.NotEqual(t, r2.Vec{}, agents[0].Vel)
				assert.NotEqual(t, r2.Vec{}, agents[1].Vel)
			} else {
				assert.Equal(t, 0, contacts)
				assert.Equal(t, r2.Vec{}, agents[0].Vel)
				assert.Equal(t, r2.Vec{}, agents[1].Vel)
			}
			assert.LessOrEqual(t, tested, 1)
		})
	}
}

// TestUpdatePairCompleteness compares the half-stencil pass with a brute-force
// O(N^2) search over many random layouts.
func TestUpdatePairCompleteness(t *testing.T) {
	layouts := []struct {
		name          string
		width, height float64
		radius        float64
		count         int
	}{
		{"sparse square", 100, 100, 5, 40},
		{"dense square", 60, 60, 3, 150},
		{"non-multiple domain", 97, 43, 4, 120},
		{"single column", 8, 200, 4, 60},
		{"single row", 200, 8, 4, 60},
	}

	for _, l := range layouts {
		t.Run(l.name, func(t *testing.T) {
			for seed := int64(1); seed <= 20; seed++ {
				rng := rand.New(rand.NewSource(seed))
				params := testParams(l.radius)

				agents := make([]*Agent, l.count)
				index := make(map[*Agent]int, l.count)
				for i := range agents {
					agents[i] = agentAt(rng.Float64()*l.width, rng.Float64()*l.height, params)
					index[agents[i]] = i
				}

				tested := make(map[pairKey]int)
				hits := make(map[pairKey]bool)
				g, err := NewSpatialGridForRadius(l.width, l.height, l.radius, GridOptions{
					CullOutOfBounds: true,
					PairHook: func(a, b *Agent, hit bool) {
						k := orderedPair(a, b, index)
						tested[k]++
						if hit {
							hits[k] = true
						}
					},
				})
				require.NoError(t, err)

				agents = g.Populate(agents)
				require.Len(t, agents, l.count)

				want := make(map[pairKey]bool)
				for i := 0; i < len(agents); i++ {
					for j := i + 1; j < len(agents); j++ {
						if agents[i].Overlaps(agents[j]) {
							want[orderedPair(agents[i], agents[j], index)] = true
						}
					}
				}

				contacts := g.Update(1.0 / 60)

				for k, n := range tested {
					require.Equal(t, 1, n, "seed %d: pair %v-%v tested %d times", seed, k.a.Pos, k.b.Pos, n)
				}
				require.Equal(t, want, hits, "seed %d", seed)
				require.Equal(t, len(want), contacts, "seed %d", seed)
			}
		})
	}
}

func TestUpdateOwnsFlowField(t *testing.T) {
	params := testParams(5)
	field := &constantField{v: r2.Vec{X: 2, Y: -1}}
	g, err := NewSpatialGridForRadius(100, 100, params.Radius, GridOptions{
		OwnsFlowField: true,
		Field:         field,
	})
	require.NoError(t, err)

	agents := []*Agent{agentAt(10, 10, params), agentAt(80, 30, params)}
	g.Populate(agents)
	g.Update(0.5)

	assert.Equal(t, 1, field.calls)
	assert.InDelta(t, 0.5, field.advanced, 1e-12)
	for _, a := range agents {
		assert.InDelta(t, 1.0, a.Vel.X, 1e-12)
		assert.InDelta(t, -0.5, a.Vel.Y, 1e-12)
	}
}

func TestUpdateExternalFlowField(t *testing.T) {
	params := testParams(5)
	field := &constantField{v: r2.Vec{X: 2, Y: -1}}
	g, err := NewSpatialGridForRadius(100, 100, params.Radius, GridOptions{Field: field})
	require.NoError(t, err)

	agents := []*Agent{agentAt(10, 10, params)}
	g.Populate(agents)
	g.Update(0.5)

	assert.Equal(t, 0, field.calls)
	assert.Equal(t, r2.Vec{}, agents[0].Vel)
}

func TestCentroids(t *testing.T) {
	params := testParams(5)
	g, err := NewSpatialGridForRadius(100, 100, params.Radius, GridOptions{})
	require.NoError(t, err)

	agents := []*Agent{
		agentAt(12, 14, params),
		agentAt(18, 16, params),
		agentAt(75, 5, params),
	}
	g.Populate(agents)

	centroids := g.Centroids()
	require.Len(t, centroids, 2)
	// Row-major: (7,0) before (1,1)
	assert.InDelta(t, 75, centroids[0].X, 1e-12)
	assert.InDelta(t, 5, centroids[0].Y, 1e-12)
	assert.InDelta(t, 15, centroids[1].X, 1e-12)
	assert.InDelta(t, 15, centroids[1].Y, 1e-12)

	buf := make([]r2.Vec, 0, 8)
	buf = g.CentroidsInto(buf)
	assert.Equal(t, centroids, buf)

	var visited int
	g.ForEachCell(func(x, y int, cell []*Agent) {
		visited++
		assert.NotEmpty(t, cell)
	})
	assert.Equal(t, 2, visited)
}
