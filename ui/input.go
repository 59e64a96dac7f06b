package ui

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/driftlens/camera"
	"github.com/pthm-cable/driftlens/game"
)

// Input routes keyboard and mouse events to the game, overlays and panels.
type Input struct {
	game     *game.Game
	overlays *OverlayRegistry
	controls *ControlsPanel

	screenW, screenH int32
}

// NewInput creates an input router.
func NewInput(g *game.Game, overlays *OverlayRegistry, controls *ControlsPanel) *Input {
	return &Input{
		game:     g,
		overlays: overlays,
		controls: controls,
		screenW:  int32(rl.GetScreenWidth()),
		screenH:  int32(rl.GetScreenHeight()),
	}
}

// Handle processes one frame of input. Returns true if the window was resized.
func (in *Input) Handle() bool {
	resized := in.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		in.controls.Toggle()
	}

	g := in.game
	if rl.IsKeyPressed(rl.KeySpace) {
		g.SetPaused(!g.Paused())
	}
	// Steps-per-update with < > (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) {
		g.SetStepsPerUpdate(g.StepsPerUpdate() - 1)
	}
	if rl.IsKeyPressed(rl.KeyPeriod) {
		g.SetStepsPerUpdate(g.StepsPerUpdate() + 1)
	}

	for _, desc := range in.overlays.All() {
		if desc.Key == 0 || !rl.IsKeyPressed(desc.Key) {
			continue
		}
		if id, on, ok := in.overlays.HandleKeyPress(desc.Key); ok {
			slog.Debug("overlay toggled", "overlay", id, "enabled", on)
		}
	}

	if cam := g.Camera(); cam != nil {
		mouse := rl.GetMousePosition()
		if in.handleCamera(cam, !in.controls.Contains(mouse.X, mouse.Y)) {
			g.HoldCamera()
		}
	}
	return resized
}

// ScreenSize returns the last observed window size.
func (in *Input) ScreenSize() (int32, int32) {
	return in.screenW, in.screenH
}

func (in *Input) handleResize() bool {
	if !rl.IsWindowResized() {
		return false
	}
	w, h := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	if w == in.screenW && h == in.screenH {
		return false
	}
	in.screenW, in.screenH = w, h
	if cam := in.game.Camera(); cam != nil {
		cam.Resize(float32(w), float32(h))
	}
	return true
}

// handleCamera processes pan and zoom. Wheel zoom is ignored while the mouse
// is over a panel. Returns true if the camera was moved by hand.
func (in *Input) handleCamera(cam *camera.Camera, wheel bool) bool {
	// Pan speed scales inversely with zoom
	panSpeed := float32(8.0) / cam.Zoom
	moved := false

	if rl.IsKeyDown(rl.KeyRight) {
		cam.Pan(panSpeed, 0)
		moved = true
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		cam.Pan(-panSpeed, 0)
		moved = true
	}
	if rl.IsKeyDown(rl.KeyDown) {
		cam.Pan(0, panSpeed)
		moved = true
	}
	if rl.IsKeyDown(rl.KeyUp) {
		cam.Pan(0, -panSpeed)
		moved = true
	}

	if wheel {
		if move := rl.GetMouseWheelMove(); move != 0 {
			cam.ZoomBy(1 + move*0.1)
			moved = true
		}
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		cam.ZoomBy(1.25)
		moved = true
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		cam.ZoomBy(0.8)
		moved = true
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		cam.Reset()
		moved = true
	}
	return moved
}
