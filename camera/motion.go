package camera

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// MotionParams tunes how the lens drifts between focus points.
type MotionParams struct {
	TranslateSpeed float64 // World units per second
	ZoomSpeed      float64 // Zoom factor per second
	RotateSpeed    float64 // Radians per second

	ZoomMin, ZoomMax float64 // Range of the lens zoom factor
	ZoomThreshold    float64 // Smaller zoom changes are skipped
	AngleDelta       float64 // Rotations are drawn from [-AngleDelta, AngleDelta]
	AngleThreshold   float64 // Smaller rotations are skipped
	FocusThreshold   float64 // Shorter focus moves are skipped

	// FocusPadding is kept between a focus point and the domain edges on top of
	// the visible radius at the planned zoom.
	FocusPadding float64

	DelayInitial       float64 // Seconds before the first plan
	DelayMin, DelayMax float64 // Range of seconds between plans
}

// DefaultMotionParams returns the stock lens tuning.
func DefaultMotionParams() MotionParams {
	return MotionParams{
		TranslateSpeed: 450,
		ZoomSpeed:      0.7,
		RotateSpeed:    1.1,
		ZoomMin:        0.75,
		ZoomMax:        1.5,
		ZoomThreshold:  0.15,
		AngleDelta:     1.3,
		AngleThreshold: 0.2,
		FocusThreshold: 60,
		FocusPadding:   24,
		DelayInitial:   1,
		DelayMin:       3,
		DelayMax:       10,
	}
}

// LensState is a lens pose. Zoom is a factor on top of the camera's base zoom.
type LensState struct {
	Focus r2.Vec
	Zoom  float64
	Angle float64
}

// OpKind identifies the lens property an operation moves.
type OpKind int

const (
	OpFocus OpKind = iota
	OpZoom
	OpRotate
)

// Operation moves one lens property by a fixed amount at constant speed.
type Operation struct {
	Kind   OpKind
	Offset r2.Vec  // OpFocus
	Amount float64 // OpZoom, OpRotate
}

// Duration returns the seconds the operation takes at the speeds in p.
func (o Operation) Duration(p *MotionParams) float64 {
	switch o.Kind {
	case OpFocus:
		return r2.Norm(o.Offset) / p.TranslateSpeed
	case OpZoom:
		return math.Abs(o.Amount) / p.ZoomSpeed
	default:
		return math.Abs(o.Amount) / p.RotateSpeed
	}
}

// at returns base moved t seconds into the operation.
func (o Operation) at(base LensState, t float64, p *MotionParams) LensState {
	s := base
	switch o.Kind {
	case OpFocus:
		s.Focus = r2.Add(base.Focus, r2.Scale(t*p.TranslateSpeed, r2.Unit(o.Offset)))
	case OpZoom:
		s.Zoom = base.Zoom + t*p.ZoomSpeed*math.Copysign(1, o.Amount)
	case OpRotate:
		s.Angle = base.Angle + t*p.RotateSpeed*math.Copysign(1, o.Amount)
	}
	return s
}

// complete returns base with the whole operation applied.
func (o Operation) complete(base LensState) LensState {
	s := base
	switch o.Kind {
	case OpFocus:
		s.Focus = r2.Add(base.Focus, o.Offset)
	case OpZoom:
		s.Zoom = base.Zoom + o.Amount
	case OpRotate:
		s.Angle = normalizeAngle(base.Angle + o.Amount)
	}
	return s
}

// CentroidSource reports the centroids of occupied cells.
type CentroidSource interface {
	CentroidsInto(dst []r2.Vec) []r2.Vec
}

// Motion drives a Camera through queued focus, zoom and rotate operations.
// Operations run one at a time from a base pose; when one finishes its full
// effect is folded into the base. New operations are planned only once the
// queue has drained and the planning delay has run out.
type Motion struct {
	params MotionParams
	rng    *rand.Rand

	baseZoom float32 // Camera zoom at lens zoom factor 1
	base     LensState
	state    LensState

	queue  []Operation
	opTime float64
	delay  float64

	centroids []r2.Vec
}

// NewMotion creates a lens motion starting from cam's current pose.
func NewMotion(cam *Camera, params MotionParams, rng *rand.Rand) *Motion {
	m := &Motion{
		params:   params,
		rng:      rng,
		baseZoom: cam.Zoom,
		base: LensState{
			Focus: r2.Vec{X: float64(cam.X), Y: float64(cam.Y)},
			Zoom:  1,
			Angle: float64(cam.Angle),
		},
		delay: params.DelayInitial,
	}
	m.state = m.base
	return m
}

// Update advances the lens by dt seconds and applies the resulting pose to cam.
func (m *Motion) Update(dt float64, cam *Camera, src CentroidSource) {
	m.delay -= dt
	if m.delay < 0 {
		m.delay = m.uniform(m.params.DelayMin, m.params.DelayMax)
		if len(m.queue) == 0 {
			m.centroids = src.CentroidsInto(m.centroids[:0])
			m.plan(cam)
		}
	}

	if len(m.queue) > 0 {
		m.opTime += dt
		op := m.queue[0]
		if m.opTime > op.Duration(&m.params) {
			m.queue = append(m.queue[:0], m.queue[1:]...)
			m.opTime = 0
			m.base = op.complete(m.base)
			m.state = m.base
		} else {
			m.state = op.at(m.base, m.opTime, &m.params)
		}
	}

	m.apply(cam)
}

// plan queues a refocus: a random zoom change, a move to a centroid that keeps
// the view inside the domain, and a random rotation. Changes under their
// thresholds are skipped. When zooming out the move comes first.
func (m *Motion) plan(cam *Camera) {
	p := &m.params

	angleDelta := m.uniform(-p.AngleDelta, p.AngleDelta)
	zoomSpan := (p.ZoomMax - p.ZoomMin) / 2
	zoomDelta := m.uniform(-zoomSpan, zoomSpan)
	if math.Abs(zoomDelta) < p.ZoomThreshold {
		zoomDelta = 0
	} else if z := m.base.Zoom + zoomDelta; z < p.ZoomMin || z > p.ZoomMax {
		zoomDelta = -zoomDelta
	}

	padding := p.FocusPadding + m.viewRadius(cam)/(m.base.Zoom+zoomDelta)
	focus := m.chooseFocus(padding, float64(cam.WorldW), float64(cam.WorldH))
	cam.TargetX, cam.TargetY = float32(focus.X), float32(focus.Y)
	offset := r2.Sub(focus, m.base.Focus)

	var zoomOps, focusOps []Operation
	if zoomDelta != 0 {
		zoomOps = append(zoomOps, Operation{Kind: OpZoom, Amount: zoomDelta})
	}
	if r2.Norm(offset) > p.FocusThreshold {
		focusOps = append(focusOps, Operation{Kind: OpFocus, Offset: offset})
	}
	if zoomDelta < 0 {
		m.queue = append(append(m.queue, focusOps...), zoomOps...)
	} else {
		m.queue = append(append(m.queue, zoomOps...), focusOps...)
	}
	if math.Abs(angleDelta) > p.AngleThreshold {
		m.queue = append(m.queue, Operation{Kind: OpRotate, Amount: angleDelta})
	}
}

// chooseFocus picks a centroid at least padding away from every domain edge,
// preferring ones beyond FocusThreshold of the current focus. Without any
// qualifying centroid it falls back to a random point inside the padding.
func (m *Motion) chooseFocus(padding, worldW, worldH float64) r2.Vec {
	chosen := -1
	seen := 0
	far := false
	for i, c := range m.centroids {
		if c.X < padding || c.Y < padding || c.X > worldW-padding || c.Y > worldH-padding {
			continue
		}
		isFar := r2.Norm(r2.Sub(c, m.base.Focus)) > m.params.FocusThreshold
		if far && !isFar {
			continue
		}
		if isFar && !far {
			far = true
			seen = 0
		}
		// Reservoir sample
		seen++
		if m.rng.Intn(seen) == 0 {
			chosen = i
		}
	}
	if chosen >= 0 {
		return m.centroids[chosen]
	}
	return r2.Vec{X: m.insidePadding(padding, worldW), Y: m.insidePadding(padding, worldH)}
}

func (m *Motion) insidePadding(padding, size float64) float64 {
	if size <= 2*padding {
		return size / 2
	}
	return m.uniform(padding, size-padding)
}

// viewRadius is half the smaller visible extent at lens zoom factor 1.
func (m *Motion) viewRadius(cam *Camera) float64 {
	return float64(min(cam.ViewportW, cam.ViewportH) / (2 * m.baseZoom))
}

func (m *Motion) apply(cam *Camera) {
	cam.X, cam.Y = float32(m.state.Focus.X), float32(m.state.Focus.Y)
	cam.Angle = float32(m.state.Angle)
	cam.SetZoom(m.baseZoom * float32(m.state.Zoom))
}

// Hold hands the lens to manual control. Pending operations are dropped, cam's
// pose becomes the new base and planning waits DelayMax seconds.
func (m *Motion) Hold(cam *Camera) {
	m.queue = m.queue[:0]
	m.opTime = 0
	m.base = LensState{
		Focus: r2.Vec{X: float64(cam.X), Y: float64(cam.Y)},
		Zoom:  m.state.Zoom,
		Angle: float64(cam.Angle),
	}
	m.baseZoom = cam.Zoom / float32(m.base.Zoom)
	m.state = m.base
	m.delay = m.params.DelayMax
}

// State returns the current lens pose.
func (m *Motion) State() LensState {
	return m.state
}

// Base returns the pose the running operation started from.
func (m *Motion) Base() LensState {
	return m.base
}

// Pending returns the queued operations, running one first. The slice is owned by m.
func (m *Motion) Pending() []Operation {
	return m.queue
}

// Centroids returns the centroids considered by the last plan.
func (m *Motion) Centroids() []r2.Vec {
	return m.centroids
}

func (m *Motion) uniform(lo, hi float64) float64 {
	return lo + (hi-lo)*m.rng.Float64()
}

// normalizeAngle wraps a into [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
