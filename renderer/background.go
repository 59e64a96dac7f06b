package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/driftlens/camera"
)

// BackgroundRenderer fills the screen and marks the world boundary.
type BackgroundRenderer struct {
	outside rl.Color
	inside  rl.Color
	border  rl.Color
}

// NewBackgroundRenderer creates a background renderer with the given world color.
func NewBackgroundRenderer(baseR, baseG, baseB uint8) *BackgroundRenderer {
	return &BackgroundRenderer{
		outside: rl.Color{R: baseR / 3, G: baseG / 3, B: baseB / 3, A: 255},
		inside:  rl.Color{R: baseR, G: baseG, B: baseB, A: 255},
		border:  rl.Color{R: 90, G: 110, B: 130, A: 255},
	}
}

// Draw clears the screen and draws the world rectangle, rotated with the lens.
func (b *BackgroundRenderer) Draw(cam *camera.Camera) {
	rl.ClearBackground(b.outside)

	x0, y0 := cam.WorldToScreen(0, 0)
	rl.DrawRectanglePro(
		rl.Rectangle{X: x0, Y: y0, Width: cam.WorldW * cam.Zoom, Height: cam.WorldH * cam.Zoom},
		rl.Vector2{},
		cam.AngleDegrees(),
		b.inside,
	)

	var corners [4]rl.Vector2
	for i, c := range [4][2]float32{{0, 0}, {cam.WorldW, 0}, {cam.WorldW, cam.WorldH}, {0, cam.WorldH}} {
		sx, sy := cam.WorldToScreen(c[0], c[1])
		corners[i] = rl.Vector2{X: sx, Y: sy}
	}
	for i := range corners {
		rl.DrawLineEx(corners[i], corners[(i+1)%len(corners)], 2, b.border)
	}
}
