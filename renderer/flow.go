// Package renderer draws the simulation through the lens camera with raylib.
package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/driftlens/camera"
	"github.com/pthm-cable/driftlens/systems"
)

// FlowRenderer draws the flow field as a lattice of arrows.
type FlowRenderer struct {
	// Spacing is the world distance between arrows
	Spacing float64
	// Scale converts flow magnitude to arrow length in world units
	Scale float64
	Color rl.Color
}

// NewFlowRenderer creates a flow renderer with arrows every spacing world units.
// Arrow length is normalised so a flow of maxStrength spans most of the spacing.
func NewFlowRenderer(spacing, maxStrength float64) *FlowRenderer {
	scale := 0.0
	if maxStrength > 0 {
		scale = spacing * 0.8 / maxStrength
	}
	return &FlowRenderer{
		Spacing: spacing,
		Scale:   scale,
		Color:   rl.Color{R: 70, G: 130, B: 160, A: 160},
	}
}

// Draw renders the arrows that fall inside the camera view.
func (r *FlowRenderer) Draw(field *systems.NoiseFlowField, bounds systems.Bounds, cam *camera.Camera) {
	if r.Spacing <= 0 {
		return
	}

	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	startX := math.Max(0, math.Floor(float64(minX)/r.Spacing)*r.Spacing) + r.Spacing/2
	startY := math.Max(0, math.Floor(float64(minY)/r.Spacing)*r.Spacing) + r.Spacing/2
	endX := math.Min(bounds.Width, float64(maxX))
	endY := math.Min(bounds.Height, float64(maxY))

	for wy := startY; wy < endY; wy += r.Spacing {
		for wx := startX; wx < endX; wx += r.Spacing {
			v := field.Sample(wx, wy)
			tipX := wx + v.X*r.Scale
			tipY := wy + v.Y*r.Scale

			sx, sy := cam.WorldToScreen(float32(wx), float32(wy))
			tx, ty := cam.WorldToScreen(float32(tipX), float32(tipY))
			DrawArrow(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: tx, Y: ty}, r.Color)
		}
	}
}

// DrawArrow draws a line from tail to tip with a small head.
func DrawArrow(tail, tip rl.Vector2, color rl.Color) {
	dx := tip.X - tail.X
	dy := tip.Y - tail.Y
	length := float32(math.Hypot(float64(dx), float64(dy)))
	if length < 1 {
		rl.DrawCircleV(tail, 1, color)
		return
	}

	rl.DrawLineV(tail, tip, color)

	// Head: two short strokes at +-150 degrees from the shaft
	head := min(length*0.35, 6)
	ux, uy := dx/length, dy/length
	const c, s = -0.866, 0.5
	left := rl.Vector2{X: tip.X + head*(ux*c-uy*s), Y: tip.Y + head*(ux*s+uy*c)}
	right := rl.Vector2{X: tip.X + head*(ux*c+uy*s), Y: tip.Y + head*(-ux*s+uy*c)}
	rl.DrawLineV(tip, left, color)
	rl.DrawLineV(tip, right, color)
}
