// Package camera provides the lens viewport: a 2D camera that pans, zooms and
// rotates around focus targets chosen from the spatial grid's cell centroids.
package camera

import "math"

// Camera controls the viewport into a bounded simulation world.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level (1.0 = 1:1, 2.0 = 2x magnification)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World dimensions
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32

	// Angle rotates the view about its center, in radians
	Angle float32

	// Focus target the lens is travelling toward
	TargetX, TargetY float32
}

// New creates a camera centered on the world with 1:1 zoom.
func New(viewportW, viewportH, worldW, worldH float32) *Camera {
	c := &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MaxZoom:   4.0,
		TargetX:   worldW / 2,
		TargetY:   worldH / 2,
	}
	c.MinZoom = c.minZoom()
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	return c
}

// minZoom is the smallest zoom at which the viewport still fits inside the world.
func (c *Camera) minZoom() float32 {
	minZoomX := c.ViewportW / c.WorldW
	minZoomY := c.ViewportH / c.WorldH
	if minZoomY > minZoomX {
		return minZoomY
	}
	return minZoomX
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	dx, dy := rotate((wx-c.X)*c.Zoom, (wy-c.Y)*c.Zoom, c.Angle)
	return c.ViewportW/2 + dx, c.ViewportH/2 + dy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	dx, dy := rotate(sx-c.ViewportW/2, sy-c.ViewportH/2, -c.Angle)
	return c.X + dx/c.Zoom, c.Y + dy/c.Zoom
}

// AngleDegrees returns the view rotation in degrees, as raylib expects.
func (c *Camera) AngleDegrees() float32 {
	return c.Angle * 180 / math.Pi
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	halfW, halfH := c.visibleHalfExtents()
	return absf(wx-c.X) <= halfW+radius && absf(wy-c.Y) <= halfH+radius
}

// visibleHalfExtents returns the half size of the world-aligned box around the
// possibly rotated view.
func (c *Camera) visibleHalfExtents() (halfW, halfH float32) {
	w := c.ViewportW / (2 * c.Zoom)
	h := c.ViewportH / (2 * c.Zoom)
	if c.Angle == 0 {
		return w, h
	}
	sin, cos := math.Sincos(float64(c.Angle))
	as, ac := float32(math.Abs(sin)), float32(math.Abs(cos))
	return ac*w + as*h, as*w + ac*h
}

func rotate(x, y, angle float32) (float32, float32) {
	if angle == 0 {
		return x, y
	}
	sin, cos := math.Sincos(float64(angle))
	s, c := float32(sin), float32(cos)
	return x*c - y*s, x*s + y*c
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float32) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = c.minZoom()
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	c.clampPosition()
}

// Pan moves the camera by the given delta in screen pixels.
// Panning also moves the focus target to the new position.
func (c *Camera) Pan(dx, dy float32) {
	wx, wy := rotate(dx, dy, -c.Angle)
	c.X += wx / c.Zoom
	c.Y += wy / c.Zoom
	c.clampPosition()
	c.TargetX, c.TargetY = c.X, c.Y
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampPosition()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position, zoom and angle.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Angle = 0
	c.TargetX, c.TargetY = c.X, c.Y
	c.SetZoom(1.0)
}

// clampPosition keeps the visible area inside the world.
func (c *Camera) clampPosition() {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	c.X = clampCenter(c.X, halfW, c.WorldW)
	c.Y = clampCenter(c.Y, halfH, c.WorldH)
}

// clampCenter restricts a view center so [v-half, v+half] stays within [0, size].
// If the view is larger than the world it is centred.
func clampCenter(v, half, size float32) float32 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(v, half, size-half)
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
// When the view is rotated these enclose it.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	halfW, halfH := c.visibleHalfExtents()

	minX = c.X - halfW
	maxX = c.X + halfW
	minY = c.Y - halfH
	maxY = c.Y + halfH
	return
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
