// Flow field preview tool - interactive visualization with sliders.
//
// Usage: go run ./cmd/flowpreview [-config path]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/driftlens/config"
	"github.com/pthm-cable/driftlens/renderer"
	"github.com/pthm-cable/driftlens/systems"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
	textureSize  = 128
	arrowSpacing = 32
)

// previewParams holds the editable flow parameters in slider units.
type previewParams struct {
	Resolution float32
	NoiseScale float32
	TimeSpeed  float32
	Strength   float32
	Seed       int64
}

func fromConfig(cfg *config.Config) previewParams {
	return previewParams{
		Resolution: float32(cfg.Flow.Resolution),
		NoiseScale: float32(cfg.Flow.NoiseScale),
		TimeSpeed:  float32(cfg.Flow.TimeSpeed),
		Strength:   float32(cfg.Flow.Strength),
		Seed:       cfg.Flow.Seed,
	}
}

func (p previewParams) flowParams() systems.FlowParams {
	return systems.FlowParams{
		Resolution: float64(p.Resolution),
		NoiseScale: float64(p.NoiseScale),
		TimeSpeed:  float64(p.TimeSpeed),
		Strength:   float64(p.Strength),
		Seed:       p.Seed,
	}
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// The preview shows the top-left previewSize world units of the domain
	bounds := systems.Bounds{
		Width:  min(cfg.Derived.WorldW, previewSize),
		Height: min(cfg.Derived.WorldH, previewSize),
	}

	rl.InitWindow(windowWidth, windowHeight, "Flow Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	defaults := fromConfig(cfg)
	params := defaults

	field, err := systems.NewNoiseFlowField(bounds, params.flowParams())
	if err != nil {
		slog.Error("failed to create flow field", "error", err)
		os.Exit(1)
	}

	img := rl.GenImageColor(textureSize, textureSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	pixels := make([]color.RGBA, textureSize*textureSize)
	animating := false
	needsRegen := true
	arrowColor := rl.Color{R: 240, G: 240, B: 240, A: 200}

	for !rl.WindowShouldClose() {
		if needsRegen {
			// Rebuild keeps the current time so slider changes do not jump the animation
			t := field.Time()
			next, err := systems.NewNoiseFlowField(bounds, params.flowParams())
			if err != nil {
				slog.Warn("invalid flow params", "error", err)
			} else {
				field = next
				if t > 0 && params.TimeSpeed > 0 {
					field.Advance(t / float64(params.TimeSpeed))
				}
			}
			needsRegen = false
		}
		if animating {
			field.Advance(float64(rl.GetFrameTime()))
		}
		updateTexture(texture, pixels, field, bounds, float64(params.Strength))

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Draw preview
		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: textureSize, Height: textureSize},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		drawArrows(field, bounds, float64(params.Strength), arrowColor)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		minMag, maxMag, meanMag := magnitudeStats(field, bounds)
		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("Magnitude min: %.2f  max: %.2f  mean: %.2f", minMag, maxMag, meanMag), 15, statsY, 16, rl.DarkGray)
		cols, rows := field.Dims()
		rl.DrawText(fmt.Sprintf("Time: %.3f  Lattice: %dx%d", field.Time(), cols, rows), 15, statsY+20, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Flow Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		slider := func(label, lo, hi string, value, minVal, maxVal float32, format string) float32 {
			rl.DrawText(label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			next := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				lo, hi,
				value, minVal, maxVal,
			)
			rl.DrawText(fmt.Sprintf(format, value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			panelY += 35
			return next
		}

		if v := slider("Resolution (lattice spacing)", "4", "128", params.Resolution, 4, 128, "%.0f"); v != params.Resolution {
			params.Resolution = v
			needsRegen = true
		}
		if v := slider("Noise scale (spatial frequency)", "0.0005", "0.02", params.NoiseScale, 0.0005, 0.02, "%.4f"); v != params.NoiseScale {
			params.NoiseScale = v
			needsRegen = true
		}
		if v := slider("Time speed (evolution rate)", "0", "1", params.TimeSpeed, 0, 1, "%.3f"); v != params.TimeSpeed {
			params.TimeSpeed = v
			needsRegen = true
		}
		if v := slider("Strength (peak acceleration)", "0", "200", params.Strength, 0, 200, "%.1f"); v != params.Strength {
			params.Strength = v
			needsRegen = true
		}
		if v := slider("Seed", "0", "99999", float32(params.Seed), 0, 99999, "%.0f"); int64(v) != params.Seed {
			params.Seed = int64(v)
			needsRegen = true
		}
		panelY += 10

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Stop", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset Time") {
			if next, err := systems.NewNoiseFlowField(bounds, params.flowParams()); err == nil {
				field = next
			}
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Random Seed") {
			params.Seed = int64(rl.GetRandomValue(0, 99999))
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			params = defaults
			if next, err := systems.NewNoiseFlowField(bounds, params.flowParams()); err == nil {
				field = next
			}
		}
		panelY += 55

		// Output YAML
		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		yaml := flowYAML(params)
		for _, line := range strings.Split(yaml, "\n") {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

func flowYAML(p previewParams) string {
	return fmt.Sprintf(`flow:
  resolution: %.0f
  noise_scale: %.4f
  time_speed: %.3f
  strength: %.1f
  seed: %d`,
		p.Resolution, p.NoiseScale, p.TimeSpeed, p.Strength, p.Seed)
}

// toPreview maps a world position to preview screen coordinates.
func toPreview(bounds systems.Bounds, p r2.Vec) rl.Vector2 {
	return rl.Vector2{
		X: 10 + float32(p.X/bounds.Width)*previewSize,
		Y: 10 + float32(p.Y/bounds.Height)*previewSize,
	}
}

// drawArrows draws one arrow per arrowSpacing preview pixels.
func drawArrows(field *systems.NoiseFlowField, bounds systems.Bounds, strength float64, c rl.Color) {
	if strength <= 0 {
		return
	}
	stepX := bounds.Width * arrowSpacing / previewSize
	stepY := bounds.Height * arrowSpacing / previewSize
	scale := 0.8 * stepX / strength

	for wy := stepY / 2; wy < bounds.Height; wy += stepY {
		for wx := stepX / 2; wx < bounds.Width; wx += stepX {
			p := r2.Vec{X: wx, Y: wy}
			v := field.Sample(wx, wy)
			renderer.DrawArrow(toPreview(bounds, p), toPreview(bounds, r2.Add(p, r2.Scale(scale, v))), c)
		}
	}
}

func magnitudeStats(field *systems.NoiseFlowField, bounds systems.Bounds) (minMag, maxMag, mean float64) {
	const n = 32
	minMag = -1
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			m := r2.Norm(field.Sample((float64(i)+0.5)/n*bounds.Width, (float64(j)+0.5)/n*bounds.Height))
			if minMag < 0 || m < minMag {
				minMag = m
			}
			maxMag = max(maxMag, m)
			mean += m
		}
	}
	return minMag, maxMag, mean / (n * n)
}

// updateTexture colors each texel by flow magnitude: dark blue -> cyan -> yellow.
func updateTexture(texture rl.Texture2D, pixels []color.RGBA, field *systems.NoiseFlowField, bounds systems.Bounds, strength float64) {
	for y := 0; y < textureSize; y++ {
		wy := (float64(y) + 0.5) / textureSize * bounds.Height
		for x := 0; x < textureSize; x++ {
			wx := (float64(x) + 0.5) / textureSize * bounds.Width
			v := 0.0
			if strength > 0 {
				v = min(r2.Norm(field.Sample(wx, wy))/strength, 1)
			}

			var r, g, b float64
			if v < 0.5 {
				t := v / 0.5
				r, g, b = 10+t*30, 20+t*160, 60+t*140
			} else {
				t := (v - 0.5) / 0.5
				r, g, b = 40+t*200, 180+t*50, 200-t*150
			}
			pixels[y*textureSize+x] = color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
		}
	}
	rl.UpdateTexture(texture, pixels)
}
