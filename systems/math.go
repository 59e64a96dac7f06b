package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Bounds represents the simulation domain, the half-open rectangle [0, Width) x [0, Height).
type Bounds struct {
	Width, Height float64
}

// Contains reports whether p lies inside [0, Width) x [0, Height).
func (b Bounds) Contains(p r2.Vec) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

// Valid reports whether both dimensions are positive and finite.
func (b Bounds) Valid() bool {
	return validLength(b.Width) && validLength(b.Height)
}

func validLength(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// clampFloat clamps a value between min and max.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// clampInt clamps an integer between min and max.
func clampInt(v, minVal, maxVal int) int {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// lerp linearly interpolates between a and b.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// limitSpeed scales v down so its magnitude does not exceed maxSpeed.
// A non-positive maxSpeed disables the limit.
func limitSpeed(v r2.Vec, maxSpeed float64) r2.Vec {
	if maxSpeed <= 0 {
		return v
	}
	speedSq := r2.Norm2(v)
	if speedSq <= maxSpeed*maxSpeed {
		return v
	}
	return r2.Scale(maxSpeed/math.Sqrt(speedSq), v)
}
