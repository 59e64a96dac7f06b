package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/driftlens/camera"
	"github.com/pthm-cable/driftlens/systems"
)

// GridRenderer draws spatial grid diagnostics: occupied cells, cell lines and centroids.
type GridRenderer struct {
	cellFill    rl.Color
	cellLine    rl.Color
	centroid    rl.Color
	focusTarget rl.Color
}

// NewGridRenderer creates a grid overlay renderer.
func NewGridRenderer() *GridRenderer {
	return &GridRenderer{
		cellFill:    rl.Color{R: 200, G: 120, B: 60, A: 40},
		cellLine:    rl.Color{R: 255, G: 255, B: 255, A: 18},
		centroid:    rl.Color{R: 255, G: 90, B: 90, A: 220},
		focusTarget: rl.Color{R: 120, G: 255, B: 140, A: 220},
	}
}

// DrawOccupancy shades each non-empty cell, darker for crowded cells.
func (r *GridRenderer) DrawOccupancy(grid *systems.SpatialGrid, cam *camera.Camera) {
	cs := float32(grid.CellSize())
	grid.ForEachCell(func(x, y int, agents []*systems.Agent) {
		if len(agents) == 0 {
			return
		}
		wx, wy := float32(x)*cs, float32(y)*cs
		if !cam.IsVisible(wx+cs/2, wy+cs/2, cs) {
			return
		}

		fill := r.cellFill
		fill.A = uint8(min(int(fill.A)*len(agents), 200))

		// Rotate around the cell's top-left corner so cells follow the lens angle
		sx, sy := cam.WorldToScreen(wx, wy)
		size := cs * cam.Zoom
		rl.DrawRectanglePro(
			rl.Rectangle{X: sx, Y: sy, Width: size, Height: size},
			rl.Vector2{},
			cam.AngleDegrees(),
			fill,
		)
	})
}

// DrawLines draws the cell boundaries inside the world, sentinel row and column excluded.
func (r *GridRenderer) DrawLines(grid *systems.SpatialGrid, cam *camera.Camera) {
	cols, rows := grid.Dims()
	cs := float32(grid.CellSize())
	worldW := float32(cols-1) * cs
	worldH := float32(rows-1) * cs

	for x := 0; x < cols; x++ {
		wx := float32(x) * cs
		x0, y0 := cam.WorldToScreen(wx, 0)
		x1, y1 := cam.WorldToScreen(wx, worldH)
		rl.DrawLineV(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, r.cellLine)
	}
	for y := 0; y < rows; y++ {
		wy := float32(y) * cs
		x0, y0 := cam.WorldToScreen(0, wy)
		x1, y1 := cam.WorldToScreen(worldW, wy)
		rl.DrawLineV(rl.Vector2{X: x0, Y: y0}, rl.Vector2{X: x1, Y: y1}, r.cellLine)
	}
}

// DrawCentroids marks each cell centroid and highlights the camera's focus target.
func (r *GridRenderer) DrawCentroids(centroids []r2.Vec, cam *camera.Camera) {
	for _, c := range centroids {
		x, y := float32(c.X), float32(c.Y)
		if !cam.IsVisible(x, y, 2) {
			continue
		}
		sx, sy := cam.WorldToScreen(x, y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, 2, r.centroid)
	}

	tx, ty := cam.WorldToScreen(cam.TargetX, cam.TargetY)
	rl.DrawCircleLinesV(rl.Vector2{X: tx, Y: ty}, 10, r.focusTarget)
}
