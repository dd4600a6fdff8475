package geom

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

func square() Polygon {
	return NewClosedPolygon(
		r2.Point{X: -1, Y: 1},
		r2.Point{X: 2, Y: 1},
		r2.Point{X: 2, Y: -1},
		r2.Point{X: -1, Y: -1},
	)
}

func TestNewRotation_RowVectorConvention(t *testing.T) {
	r := NewRotation(math.Pi / 2)

	if r[0][0] > 1e-12 || r[0][1] != 1 || r[1][0] != -1 {
		t.Fatalf("unexpected matrix layout: %v", r)
	}

	// p·R(π/2) turns +X onto +Y.
	got := r.Apply(r2.Point{X: 1, Y: 0})
	want := r2.Point{X: 0, Y: 1}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}
}

func TestRotation_RoundTrip(t *testing.T) {
	angles := []float64{0, 0.1, -0.7, math.Pi / 3, math.Pi, 2.5 * math.Pi, -4}
	for _, theta := range angles {
		p := square()
		back := p.Rotate(NewRotation(theta)).Rotate(NewRotation(-theta))
		if diff := cmp.Diff(p, back, approx); diff != "" {
			t.Errorf("theta=%.3f: round trip mismatch (-want +got):\n%s", theta, diff)
		}

		inv := p.Rotate(NewRotation(theta)).Rotate(NewRotation(theta).Transpose())
		if diff := cmp.Diff(p, inv, approx); diff != "" {
			t.Errorf("theta=%.3f: transpose inverse mismatch (-want +got):\n%s", theta, diff)
		}
	}
}

func TestPolygon_TransformOrder(t *testing.T) {
	p := Polygon{{X: 1, Y: 0}}
	r := NewRotation(math.Pi / 2)
	d := r2.Point{X: 10, Y: 0}

	got := p.Transform(r, d)
	want := Polygon{{X: 10, Y: 1}}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("rotate-then-translate mismatch (-want +got):\n%s", diff)
	}

	// Translating first yields a different point.
	other := p.Translate(d).Rotate(r)
	if cmp.Equal(got, other, approx) {
		t.Error("expected translate-then-rotate to differ")
	}
}

func TestPolygon_DoesNotMutate(t *testing.T) {
	p := square()
	orig := p.Clone()

	_ = p.Rotate(NewRotation(1))
	_ = p.Translate(r2.Point{X: 3, Y: 4})
	_ = p.Transform(NewRotation(2), r2.Point{X: 1, Y: 1})

	if diff := cmp.Diff(orig, p); diff != "" {
		t.Errorf("polygon mutated (-want +got):\n%s", diff)
	}
}

func TestNewClosedPolygon(t *testing.T) {
	p := square()
	if len(p) != 5 {
		t.Fatalf("expected 5 vertices, got %d", len(p))
	}
	if !p.IsClosed() {
		t.Error("expected closed polygon")
	}
	if NewClosedPolygon() != nil {
		t.Error("expected nil for empty input")
	}
	if (Polygon{{X: 1}}).IsClosed() {
		t.Error("single vertex should not count as closed")
	}
}

func TestPolygon_XY(t *testing.T) {
	xs, ys := square().XY()
	if len(xs) != 5 || len(ys) != 5 {
		t.Fatalf("expected 5 coordinates, got %d/%d", len(xs), len(ys))
	}
	if xs[1] != 2 || ys[3] != -1 {
		t.Errorf("unexpected coordinates xs=%v ys=%v", xs, ys)
	}
}

func TestMidpointAndHeading(t *testing.T) {
	m := Midpoint(r2.Point{X: 0, Y: 2}, r2.Point{X: 4, Y: -2})
	if m != (r2.Point{X: 2, Y: 0}) {
		t.Errorf("Midpoint = %v, want (2, 0)", m)
	}

	h := Heading(math.Pi)
	if math.Abs(h.X+1) > 1e-12 || math.Abs(h.Y) > 1e-12 {
		t.Errorf("Heading(π) = %v, want (-1, 0)", h)
	}
}

func TestNormaliseAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{math.Pi / 2, math.Pi / 2},
		{3 * math.Pi / 2, -math.Pi / 2},
		{-3 * math.Pi / 2, math.Pi / 2},
		{4 * math.Pi, 0},
		{7, 7 - 2*math.Pi},
	}
	for _, tt := range tests {
		got := NormaliseAngle(tt.in)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("NormaliseAngle(%.4f) = %.6f, want %.6f", tt.in, got, tt.want)
		}
	}
}
