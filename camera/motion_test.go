package camera

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

// seqSource replays fixed Float64 draws in order.
type seqSource struct {
	vals []float64
	i    int
}

func (s *seqSource) Int63() int64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return int64(v * (1 << 63))
}

func (s *seqSource) Seed(int64) {}

type fixedCentroids []r2.Vec

func (f fixedCentroids) CentroidsInto(dst []r2.Vec) []r2.Vec {
	return append(dst, f...)
}

// newTestMotion builds a 1000x1000 world seen through a 200x200 viewport at
// zoom 1, focused on the center. The visible radius is 100.
func newTestMotion(draws ...float64) (*Motion, *Camera) {
	cam := New(200, 200, 1000, 1000)
	var rng *rand.Rand
	if len(draws) > 0 {
		rng = rand.New(&seqSource{vals: draws})
	} else {
		rng = rand.New(rand.NewSource(1))
	}
	return NewMotion(cam, DefaultMotionParams(), rng), cam
}

func kinds(ops []Operation) []OpKind {
	out := make([]OpKind, len(ops))
	for i, op := range ops {
		out[i] = op.Kind
	}
	return out
}

func sameKinds(a, b []OpKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMotionWaitsForInitialDelay(t *testing.T) {
	m, cam := newTestMotion()
	src := fixedCentroids{{X: 300, Y: 700}}

	m.Update(0.5, cam, src)
	if len(m.Pending()) != 0 || len(m.Centroids()) != 0 {
		t.Fatal("planned before the initial delay ran out")
	}

	m.Update(0.6, cam, src)
	if len(m.Centroids()) != 1 {
		t.Fatalf("expected a plan after the initial delay, got %d centroids", len(m.Centroids()))
	}
	if m.delay < m.params.DelayMin || m.delay > m.params.DelayMax {
		t.Errorf("next delay %f outside [%f, %f]", m.delay, m.params.DelayMin, m.params.DelayMax)
	}
}

func TestMotionPlanOrder(t *testing.T) {
	tests := []struct {
		name string
		zoom float64 // draw for the zoom delta
		want []OpKind
	}{
		// -0.375 + 0.75*0.25 = -0.1875
		{"zoom out focuses first", 0.25, []OpKind{OpFocus, OpZoom, OpRotate}},
		// +0.1875
		{"zoom in zooms first", 0.75, []OpKind{OpZoom, OpFocus, OpRotate}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Angle draw 0.9 gives 1.04 rad; the reservoir draw follows
			m, cam := newTestMotion(0.9, tc.zoom, 0)
			m.centroids = []r2.Vec{{X: 300, Y: 700}}
			m.plan(cam)

			if got := kinds(m.Pending()); !sameKinds(got, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestMotionFlipsZoomOutOfRange(t *testing.T) {
	// Angle draw 0.5 is no rotation; zoom draw 0.99 is +0.3675
	m, cam := newTestMotion(0.5, 0.99, 0)
	m.base.Zoom = 1.4
	m.plan(cam)

	var zoom *Operation
	for i, op := range m.Pending() {
		if op.Kind == OpZoom {
			zoom = &m.Pending()[i]
		}
	}
	if zoom == nil {
		t.Fatalf("expected a zoom operation, got %v", kinds(m.Pending()))
	}
	if zoom.Amount >= 0 {
		t.Errorf("expected the zoom delta to flip negative, got %f", zoom.Amount)
	}
	if z := m.base.Zoom + zoom.Amount; z < m.params.ZoomMin || z > m.params.ZoomMax {
		t.Errorf("planned zoom %f outside [%f, %f]", z, m.params.ZoomMin, m.params.ZoomMax)
	}
}

func TestMotionSkipsChangesUnderThreshold(t *testing.T) {
	// Draws of 0.5 give zero angle and zoom deltas
	m, cam := newTestMotion(0.5, 0.5, 0)
	// Within FocusThreshold of the current focus
	m.centroids = []r2.Vec{{X: 530, Y: 520}}
	m.plan(cam)

	if len(m.Pending()) != 0 {
		t.Errorf("expected no operations, got %v", kinds(m.Pending()))
	}
	if cam.TargetX != 530 || cam.TargetY != 520 {
		t.Errorf("expected target (530, 520), got (%f, %f)", cam.TargetX, cam.TargetY)
	}
}

func TestMotionFocusPaddingFilter(t *testing.T) {
	// No zoom change: padding is 24 + 100/1 = 124
	m, cam := newTestMotion(0.5, 0.5, 0)
	m.centroids = []r2.Vec{
		{X: 50, Y: 500},  // left of the padding
		{X: 500, Y: 950}, // below it
		{X: 900, Y: 500}, // right of it
		{X: 300, Y: 700},
	}
	m.plan(cam)

	if cam.TargetX != 300 || cam.TargetY != 700 {
		t.Fatalf("expected target (300, 700), got (%f, %f)", cam.TargetX, cam.TargetY)
	}
	ops := m.Pending()
	if len(ops) != 1 || ops[0].Kind != OpFocus {
		t.Fatalf("expected a single focus operation, got %v", kinds(ops))
	}
	if ops[0].Offset != (r2.Vec{X: -200, Y: 200}) {
		t.Errorf("expected offset (-200, 200), got %v", ops[0].Offset)
	}
}

func TestMotionFallbackFocus(t *testing.T) {
	// Padding 124 leaves [124, 876] on each axis
	m, cam := newTestMotion(0.5, 0.5, 0.25, 0.75)
	m.centroids = []r2.Vec{{X: 10, Y: 10}}
	m.plan(cam)

	if math.Abs(float64(cam.TargetX)-312) > 1e-3 || math.Abs(float64(cam.TargetY)-688) > 1e-3 {
		t.Errorf("expected fallback target (312, 688), got (%f, %f)", cam.TargetX, cam.TargetY)
	}
	if got := kinds(m.Pending()); !sameKinds(got, []OpKind{OpFocus}) {
		t.Errorf("expected a focus operation, got %v", got)
	}
}

func TestMotionPrefersDistantCentroids(t *testing.T) {
	m, cam := newTestMotion()
	m.centroids = []r2.Vec{
		{X: 510, Y: 505}, // near the current focus
		{X: 700, Y: 300},
		{X: 520, Y: 490}, // near
	}
	for i := 0; i < 20; i++ {
		m.queue = m.queue[:0]
		m.plan(cam)
		if cam.TargetX != 700 || cam.TargetY != 300 {
			t.Fatalf("plan %d: expected distant centroid, got (%f, %f)", i, cam.TargetX, cam.TargetY)
		}
	}
}

func TestMotionRunsOperationsInOrder(t *testing.T) {
	m, cam := newTestMotion()
	m.delay = 100
	m.queue = []Operation{
		{Kind: OpFocus, Offset: r2.Vec{X: 300}}, // 2/3 s at 450/s
		{Kind: OpZoom, Amount: 0.35},            // 0.5 s at 0.7/s
	}

	m.Update(0.5, cam, fixedCentroids{})
	if got := m.State().Focus.X; math.Abs(got-725) > 1e-9 {
		t.Fatalf("expected focus x 725 halfway through, got %f", got)
	}
	if math.Abs(float64(cam.X)-725) > 1e-3 {
		t.Errorf("camera should follow the lens, got x %f", cam.X)
	}
	if m.Base().Focus.X != 500 {
		t.Errorf("base should not move before the operation completes, got %f", m.Base().Focus.X)
	}

	m.Update(0.5, cam, fixedCentroids{})
	if m.Base().Focus.X != 800 || m.State() != m.Base() {
		t.Fatalf("expected completed focus at 800, base %v state %v", m.Base(), m.State())
	}
	if got := kinds(m.Pending()); !sameKinds(got, []OpKind{OpZoom}) {
		t.Fatalf("expected the zoom to remain, got %v", got)
	}

	m.Update(0.25, cam, fixedCentroids{})
	if got := m.State().Zoom; math.Abs(got-1.175) > 1e-9 {
		t.Errorf("expected zoom 1.175 halfway through, got %f", got)
	}
	if math.Abs(float64(cam.Zoom)-1.175) > 1e-3 {
		t.Errorf("camera zoom should follow the lens, got %f", cam.Zoom)
	}
}

func TestMotionNormalizesAngle(t *testing.T) {
	m, cam := newTestMotion()
	m.delay = 100
	m.base.Angle = 0.5
	m.state = m.base
	m.queue = []Operation{{Kind: OpRotate, Amount: -1}}

	m.Update(1, cam, fixedCentroids{})

	want := 2*math.Pi - 0.5
	if got := m.State().Angle; math.Abs(got-want) > 1e-9 {
		t.Errorf("expected angle %f, got %f", want, got)
	}
	if math.Abs(float64(cam.Angle)-want) > 1e-5 {
		t.Errorf("camera angle should follow the lens, got %f", cam.Angle)
	}
}

func TestMotionAddsOperationsOnlyWhenIdle(t *testing.T) {
	m, cam := newTestMotion()
	m.delay = 0
	m.queue = []Operation{{Kind: OpFocus, Offset: r2.Vec{X: 4500}}}

	m.Update(0.1, cam, fixedCentroids{{X: 300, Y: 700}})

	if len(m.Pending()) != 1 {
		t.Errorf("expected the running queue to stay at 1, got %d", len(m.Pending()))
	}
	if m.delay < m.params.DelayMin {
		t.Errorf("expected a fresh delay, got %f", m.delay)
	}
}

func TestMotionHold(t *testing.T) {
	m, cam := newTestMotion()
	m.delay = 0
	m.queue = []Operation{{Kind: OpRotate, Amount: 1}}
	m.Update(0.1, cam, fixedCentroids{})

	cam.Pan(50, 0)
	cam.ZoomBy(2)
	m.Hold(cam)

	if len(m.Pending()) != 0 {
		t.Fatalf("hold should drop pending operations, got %v", kinds(m.Pending()))
	}
	x, y, zoom, angle := cam.X, cam.Y, cam.Zoom, cam.Angle

	// The manual pose survives further updates until the hold delay runs out
	m.Update(1, cam, fixedCentroids{{X: 300, Y: 700}})
	if cam.X != x || cam.Y != y || math.Abs(float64(cam.Zoom-zoom)) > 1e-4 || cam.Angle != angle {
		t.Errorf("manual pose changed: (%f, %f, %f, %f) -> (%f, %f, %f, %f)",
			x, y, zoom, angle, cam.X, cam.Y, cam.Zoom, cam.Angle)
	}
	if len(m.Centroids()) != 0 {
		t.Error("planned while held")
	}
}
