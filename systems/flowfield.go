package systems

import (
	"math"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"
)

// FlowField is a time-varying vector field over the simulation domain.
type FlowField interface {
	// Query adds the field value at (x, y), multiplied by scale, to out.
	Query(x, y float64, out *r2.Vec, scale float64)
	// Advance evolves the field by dt seconds.
	Advance(dt float64)
}

// FlowParams controls the shape and evolution of a NoiseFlowField.
type FlowParams struct {
	Resolution float64 // World units between lattice vertices
	NoiseScale float64 // Spatial frequency of the noise
	TimeSpeed  float64 // Noise time units per simulated second
	Strength   float64 // Peak vector magnitude
	Seed       int64
}

// NoiseFlowField stores a dense lattice of flow vectors sampled from OpenSimplex noise.
// Queries between vertices are bilinearly interpolated.
type NoiseFlowField struct {
	bounds Bounds
	params FlowParams
	noise  opensimplex.Noise

	cols, rows int
	invRes     float64
	vectors    []r2.Vec // row-major, rows*cols
	time       float64
}

// magnitudeOffset separates the magnitude channel from the angle channel in noise space.
const magnitudeOffset = 137.31

// NewNoiseFlowField creates a flow field covering bounds and samples its initial state.
func NewNoiseFlowField(bounds Bounds, params FlowParams) (*NoiseFlowField, error) {
	if !bounds.Valid() || !validLength(params.Resolution) {
		return nil, ErrInvalidGeometry
	}

	cols := int(math.Ceil(bounds.Width/params.Resolution)) + 1
	rows := int(math.Ceil(bounds.Height/params.Resolution)) + 1

	f := &NoiseFlowField{
		bounds:  bounds,
		params:  params,
		noise:   opensimplex.New(params.Seed),
		cols:    cols,
		rows:    rows,
		invRes:  1 / params.Resolution,
		vectors: make([]r2.Vec, cols*rows),
	}
	f.resample()
	return f, nil
}

// Advance moves the noise time coordinate forward and resamples every vertex.
func (f *NoiseFlowField) Advance(dt float64) {
	f.time += dt * f.params.TimeSpeed
	f.resample()
}

// Time returns the current noise time coordinate.
func (f *NoiseFlowField) Time() float64 {
	return f.time
}

// Dims returns the lattice dimensions.
func (f *NoiseFlowField) Dims() (cols, rows int) {
	return f.cols, f.rows
}

func (f *NoiseFlowField) resample() {
	s := f.params.NoiseScale
	res := f.params.Resolution
	for row := 0; row < f.rows; row++ {
		wy := float64(row) * res
		for col := 0; col < f.cols; col++ {
			wx := float64(col) * res

			angle := f.noise.Eval3(wx*s, wy*s, f.time) * math.Pi * 2
			mag := (f.noise.Eval3(wx*s+magnitudeOffset, wy*s+magnitudeOffset, f.time) + 1) * 0.5
			mag = clampFloat(mag, 0, 1) * f.params.Strength

			f.vectors[row*f.cols+col] = r2.Vec{
				X: math.Cos(angle) * mag,
				Y: math.Sin(angle) * mag,
			}
		}
	}
}

// Query adds the interpolated field value at (x, y), times scale, into out.
// Coordinates are clamped to the domain so edge queries stay defined.
func (f *NoiseFlowField) Query(x, y float64, out *r2.Vec, scale float64) {
	v := f.Sample(x, y)
	out.X += v.X * scale
	out.Y += v.Y * scale
}

// Sample returns the interpolated field value at (x, y).
func (f *NoiseFlowField) Sample(x, y float64) r2.Vec {
	gx := clampFloat(x, 0, f.bounds.Width) * f.invRes
	gy := clampFloat(y, 0, f.bounds.Height) * f.invRes

	c0 := clampInt(int(gx), 0, f.cols-2)
	r0 := clampInt(int(gy), 0, f.rows-2)
	tx := clampFloat(gx-float64(c0), 0, 1)
	ty := clampFloat(gy-float64(r0), 0, 1)

	v00 := f.vectors[r0*f.cols+c0]
	v10 := f.vectors[r0*f.cols+c0+1]
	v01 := f.vectors[(r0+1)*f.cols+c0]
	v11 := f.vectors[(r0+1)*f.cols+c0+1]

	return r2.Vec{
		X: lerp(lerp(v00.X, v10.X, tx), lerp(v01.X, v11.X, tx), ty),
		Y: lerp(lerp(v00.Y, v10.Y, tx), lerp(v01.Y, v11.Y, tx), ty),
	}
}
