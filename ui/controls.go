package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/driftlens/game"
)

// ControlsPanel renders the raygui panel with overlay toggles and clock controls.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	height   int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition moves the panel's top-left corner.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether the screen point lies over the panel, so callers can
// keep mouse input from reaching the camera.
func (c *ControlsPanel) Contains(px, py float32) bool {
	if !c.visible {
		return false
	}
	return px >= float32(c.x) && px < float32(c.x+c.width) &&
		py >= float32(c.y) && py < float32(c.y+c.height)
}

const (
	buttonHeight = 22
	rowGap       = 4
)

func (c *ControlsPanel) measure(overlays *OverlayRegistry) int32 {
	padding := c.renderer.Theme.Padding
	lineHeight := c.renderer.Theme.LineHeight
	items := int32(len(overlays.All()))
	cats := int32(len(overlays.Categories()))

	h := padding*2 + lineHeight + 4                    // title
	h += 3 * (buttonHeight + rowGap)                   // pause, time scale, steps
	h += cats*lineHeight + items*(buttonHeight+rowGap) // overlay groups
	return h
}

// Draw renders the panel and applies any control changes to g.
func (c *ControlsPanel) Draw(g *game.Game, overlays *OverlayRegistry) {
	if !c.visible {
		return
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	c.height = c.measure(overlays)
	r.DrawPanel(c.x, c.y, c.width, c.height)

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	w := float32(c.width - padding*2)

	rl.DrawText("Lens Controls", int32(x), int32(y), 16, rl.White)
	y += float32(lineHeight + 4)

	// Clock
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: buttonHeight}, toggleText(g.Paused(), "Resume [Space]", "Pause [Space]")) {
		g.SetPaused(!g.Paused())
	}
	y += buttonHeight + rowGap

	scale := gui.SliderBar(
		rl.Rectangle{X: x + 40, Y: y, Width: w - 80, Height: buttonHeight},
		"Time", fmt.Sprintf("%.2fx", g.TimeScale()),
		float32(g.TimeScale()), game.MinTimeScale, game.MaxTimeScale,
	)
	if float64(scale) != g.TimeScale() {
		g.SetTimeScale(float64(scale))
	}
	y += buttonHeight + rowGap

	half := (w - rowGap) / 2
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: buttonHeight}, "Steps -") {
		g.SetStepsPerUpdate(g.StepsPerUpdate() - 1)
	}
	if gui.Button(rl.Rectangle{X: x + half + rowGap, Y: y, Width: half, Height: buttonHeight}, fmt.Sprintf("Steps + (%d)", g.StepsPerUpdate())) {
		g.SetStepsPerUpdate(g.StepsPerUpdate() + 1)
	}
	y += buttonHeight + rowGap

	// Overlays by category
	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), int32(x), int32(y), r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += float32(lineHeight)

		for _, desc := range overlays.ByCategory(category) {
			label := fmt.Sprintf("%s %s [%s]", toggleText(overlays.IsEnabled(desc.ID), "[x]", "[ ]"), desc.Name, desc.KeyLabel)
			if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: buttonHeight}, label) {
				overlays.Toggle(desc.ID)
			}
			y += buttonHeight + rowGap
		}
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "field":
		return "Field"
	case "grid":
		return "Grid"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}
