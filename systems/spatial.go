// Package systems implements the simulation core: agents, the flow field they drift
// through, the spatial grid that resolves their collisions, and spawn placement.
package systems

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

var (
	// ErrInvalidGeometry is returned when a domain, cell size or resolution is not positive.
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrMissingField is returned when a grid is asked to own a nil flow field.
	ErrMissingField = errors.New("grid owns flow field but none was provided")
)

// GridOptions selects the ownership model of a SpatialGrid.
type GridOptions struct {
	// OwnsFlowField makes Update advance Field and apply it to every agent.
	// Otherwise the caller advances and applies the field.
	OwnsFlowField bool
	// CullOutOfBounds makes Populate remove agents outside the domain.
	// Otherwise the caller must keep every agent inside the domain.
	CullOutOfBounds bool
	// Field is required when OwnsFlowField is set.
	Field FlowField
	// PairHook, if set, observes every pair test made by Update.
	PairHook func(a, b *Agent, hit bool)
}

// cell is one grid bucket. Its backing array is reused across ticks.
type cell struct {
	agents []*Agent
}

// SpatialGrid buckets agents into square cells of twice the agent radius and
// resolves collisions between agents in the same or adjacent cells.
//
// The grid has one extra column and row beyond the domain. They never receive
// in-bounds agents and let the stencil step to x-1 or x+1 without bounds checks.
type SpatialGrid struct {
	width, height float64
	cellSize      float64
	cols, rows    int
	cells         []cell // row-major, rows*cols
	opts          GridOptions
}

// NewSpatialGrid creates a grid covering width x height with the given cell size.
func NewSpatialGrid(width, height, cellSize float64, opts GridOptions) (*SpatialGrid, error) {
	if !validLength(width) || !validLength(height) || !validLength(cellSize) {
		return nil, fmt.Errorf("spatial grid %vx%v cell %v: %w", width, height, cellSize, ErrInvalidGeometry)
	}
	if opts.OwnsFlowField && opts.Field == nil {
		return nil, ErrMissingField
	}

	cols := int(math.Ceil(width/cellSize)) + 1
	rows := int(math.Ceil(height/cellSize)) + 1

	cells := make([]cell, cols*rows)
	for i := range cells {
		cells[i].agents = make([]*Agent, 0, 4)
	}

	return &SpatialGrid{
		width:    width,
		height:   height,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
		opts:     opts,
	}, nil
}

// NewSpatialGridForRadius creates a grid whose cell size is twice the agent radius,
// so any two overlapping agents share a cell or sit in adjacent cells.
func NewSpatialGridForRadius(width, height, radius float64, opts GridOptions) (*SpatialGrid, error) {
	if !validLength(radius) {
		return nil, fmt.Errorf("agent radius %v: %w", radius, ErrInvalidGeometry)
	}
	return NewSpatialGrid(width, height, 2*radius, opts)
}

// Clear empties every cell while keeping allocated capacity.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i].agents = g.cells[i].agents[:0]
	}
}

// Populate rebuilds every cell from agents and returns the surviving collection.
// Agents are visited from the highest index down so removals never skip an
// unvisited agent. With CullOutOfBounds, agents outside the domain are removed;
// the relative order of survivors is preserved.
func (g *SpatialGrid) Populate(agents []*Agent) []*Agent {
	g.Clear()

	for i := len(agents) - 1; i >= 0; i-- {
		a := agents[i]
		if g.opts.CullOutOfBounds && !g.inDomain(a.Pos) {
			agents = slices.Delete(agents, i, i+1)
			continue
		}
		idx := g.cellIndex(a.Pos)
		g.cells[idx].agents = append(g.cells[idx].agents, a)
	}

	return agents
}

// Update runs the collision pass and returns the number of overlapping pairs resolved.
//
// Each cell is tested against itself and four forward neighbours: right, left-bottom,
// bottom and right-bottom. The remaining four neighbours test this cell from their
// side, so every adjacent pair of cells is visited exactly once.
func (g *SpatialGrid) Update(dt float64) int {
	field := g.opts.Field
	if g.opts.OwnsFlowField {
		field.Advance(dt)
	}

	contacts := 0
	for y := 0; y < g.rows-1; y++ {
		for x := 0; x < g.cols-1; x++ {
			self := y*g.cols + x
			agents := g.cells[self].agents
			if len(agents) == 0 {
				continue
			}

			// For x == 0 the left-bottom index wraps to the sentinel column of row y.
			neighbors := [4][]*Agent{
				g.cells[self+1].agents,        // right
				g.cells[self+g.cols-1].agents, // left-bottom
				g.cells[self+g.cols].agents,   // bottom
				g.cells[self+g.cols+1].agents, // right-bottom
			}

			for i, a := range agents {
				if g.opts.OwnsFlowField {
					field.Query(a.Pos.X, a.Pos.Y, &a.Vel, dt)
				}

				for _, b := range agents[i+1:] {
					contacts += g.collide(a, b, dt)
				}
				for _, n := range neighbors {
					for _, b := range n {
						contacts += g.collide(a, b, dt)
					}
				}
			}
		}
	}
	return contacts
}

func (g *SpatialGrid) collide(a, b *Agent, dt float64) int {
	hit := a.Collide(b, dt)
	if g.opts.PairHook != nil {
		g.opts.PairHook(a, b, hit)
	}
	if hit {
		return 1
	}
	return 0
}

// inDomain reports whether p lies inside [0, width) x [0, height).
func (g *SpatialGrid) inDomain(p r2.Vec) bool {
	return p.X >= 0 && p.X < g.width && p.Y >= 0 && p.Y < g.height
}

// cellCoords returns the cell containing p, clamped to the domain cells so the
// sentinel column and row stay empty. Clamping only changes the result for
// out-of-domain positions, which callers must not pass when culling is disabled.
func (g *SpatialGrid) cellCoords(p r2.Vec) (x, y int) {
	x = clampInt(int(math.Floor(p.X/g.cellSize)), 0, g.cols-2)
	y = clampInt(int(math.Floor(p.Y/g.cellSize)), 0, g.rows-2)
	return x, y
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(p r2.Vec) int {
	x, y := g.cellCoords(p)
	return y*g.cols + x
}

// CellOf returns the grid coordinates of the cell containing p.
func (g *SpatialGrid) CellOf(p r2.Vec) (x, y int) {
	return g.cellCoords(p)
}

// Dims returns the number of columns and rows, including the sentinel column and row.
func (g *SpatialGrid) Dims() (cols, rows int) {
	return g.cols, g.rows
}

// CellSize returns the side length of a cell.
func (g *SpatialGrid) CellSize() float64 {
	return g.cellSize
}

// Options returns the grid's ownership options.
func (g *SpatialGrid) Options() GridOptions {
	return g.opts
}

// Cell returns the agents bucketed in cell (x, y). The slice is owned by the grid
// and is only valid until the next Populate.
func (g *SpatialGrid) Cell(x, y int) []*Agent {
	if x < 0 || x >= g.cols || y < 0 || y >= g.rows {
		return nil
	}
	return g.cells[y*g.cols+x].agents
}

// ForEachCell calls fn for every non-empty cell in row-major order.
func (g *SpatialGrid) ForEachCell(fn func(x, y int, agents []*Agent)) {
	for i := range g.cells {
		if agents := g.cells[i].agents; len(agents) > 0 {
			fn(i%g.cols, i/g.cols, agents)
		}
	}
}

// OccupiedCells returns the number of non-empty cells.
func (g *SpatialGrid) OccupiedCells() int {
	n := 0
	for i := range g.cells {
		if len(g.cells[i].agents) > 0 {
			n++
		}
	}
	return n
}

// Count returns the total number of bucketed agents.
func (g *SpatialGrid) Count() int {
	n := 0
	for i := range g.cells {
		n += len(g.cells[i].agents)
	}
	return n
}

// Centroids returns the mean agent position of every non-empty cell.
func (g *SpatialGrid) Centroids() []r2.Vec {
	return g.CentroidsInto(nil)
}

// CentroidsInto appends the mean agent position of every non-empty cell to dst,
// in row-major cell order. Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) CentroidsInto(dst []r2.Vec) []r2.Vec {
	for i := range g.cells {
		agents := g.cells[i].agents
		if len(agents) == 0 {
			continue
		}
		var sum r2.Vec
		for _, a := range agents {
			sum = r2.Add(sum, a.Pos)
		}
		dst = append(dst, r2.Scale(1/float64(len(agents)), sum))
	}
	return dst
}
