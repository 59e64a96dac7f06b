package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/driftlens/camera"
	"github.com/pthm-cable/driftlens/systems"
)

// AgentRenderer draws agents as discs tinted by speed.
type AgentRenderer struct {
	slow, fast rl.Color
	maxSpeed   float64
}

// NewAgentRenderer creates an agent renderer. Agents at maxSpeed get the fast tint.
func NewAgentRenderer(maxSpeed float64) *AgentRenderer {
	return &AgentRenderer{
		slow:     rl.Color{R: 80, G: 170, B: 220, A: 230},
		fast:     rl.Color{R: 250, G: 220, B: 120, A: 230},
		maxSpeed: maxSpeed,
	}
}

// Draw renders the visible agents. Velocity ticks are drawn when showVelocity is set.
func (r *AgentRenderer) Draw(agents []*systems.Agent, cam *camera.Camera, showVelocity bool) {
	for _, a := range agents {
		x, y := float32(a.Pos.X), float32(a.Pos.Y)
		radius := float32(a.Radius())
		if !cam.IsVisible(x, y, radius) {
			continue
		}

		speed := r2.Norm(a.Vel)
		t := float32(0)
		if r.maxSpeed > 0 {
			t = float32(min(speed/r.maxSpeed, 1))
		}
		color := lerpColor(r.slow, r.fast, t)

		sx, sy := cam.WorldToScreen(x, y)
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, radius*cam.Zoom, color)

		if showVelocity && speed > 0 {
			// Tick length is two radii at max speed
			scale := a.Radius() / max(r.maxSpeed, speed)
			tx, ty := cam.WorldToScreen(float32(a.Pos.X+a.Vel.X*scale*2), float32(a.Pos.Y+a.Vel.Y*scale*2))
			rl.DrawLineV(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: tx, Y: ty}, rl.RayWhite)
		}
	}
}

// lerpColor blends a toward b by t in [0, 1].
func lerpColor(a, b rl.Color, t float32) rl.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t)
	}
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
