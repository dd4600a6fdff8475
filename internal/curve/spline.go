package curve

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// Boundary selects the end conditions of the cubic spline.
type Boundary string

const (
	// Natural sets the second derivative to zero at both ends.
	Natural Boundary = "natural"
	// Clamped sets the first derivative to zero at both ends.
	Clamped Boundary = "clamped"
	// NotAKnot makes the third derivative continuous at the second and
	// penultimate knots. Needs at least four knots.
	NotAKnot Boundary = "not-a-knot"
	// Periodic requires the first and last values to coincide and matches
	// first and second derivatives across the seam.
	Periodic Boundary = "periodic"
)

// DefaultBoundary is used when no boundary condition is configured.
const DefaultBoundary = Natural

// periodicTolerance bounds the seam mismatch accepted for periodic fits,
// relative to the largest coordinate magnitude.
const periodicTolerance = 1e-9

// ParseBoundary converts a configuration string to a Boundary. The empty
// string selects DefaultBoundary.
func ParseBoundary(s string) (Boundary, error) {
	switch b := Boundary(s); b {
	case "":
		return DefaultBoundary, nil
	case Natural, Clamped, NotAKnot, Periodic:
		return b, nil
	default:
		return "", fmt.Errorf("%w: unknown boundary condition %q", ErrInvalidConfig, s)
	}
}

// Jet holds the position and first two derivatives of a spline at one
// parameter value.
type Jet struct {
	P  r2.Point
	D1 r2.Point
	D2 r2.Point
}

// Spline is a vector-valued piecewise cubic through (t[i], p[i]) with
// continuous first and second derivatives at interior knots. It is stored
// in moment form: the second derivative at every knot.
type Spline struct {
	t  []float64
	p  []r2.Point
	m  []r2.Point
	bc Boundary
}

// NewSpline fits a cubic spline through points against strictly increasing
// knots t. The boundary condition applies independently to x and y.
func NewSpline(t []float64, points []r2.Point, bc Boundary) (*Spline, error) {
	n := len(t)
	if n < 2 {
		return nil, fmt.Errorf("%w: spline needs at least 2 knots, got %d", ErrInvalidConfig, n)
	}
	if len(points) != n {
		return nil, fmt.Errorf("%w: %d knots but %d points", ErrInvalidConfig, n, len(points))
	}
	for i := 0; i < n-1; i++ {
		if h := t[i+1] - t[i]; !(h > 0) || math.IsInf(h, 0) {
			return nil, fmt.Errorf("%w: knots %d and %d are not strictly increasing (%g, %g)",
				ErrDegenerateWaypoints, i, i+1, t[i], t[i+1])
		}
	}

	p := make([]r2.Point, n)
	copy(p, points)

	switch bc {
	case NotAKnot:
		if n < 4 {
			return nil, fmt.Errorf("%w: %s boundary needs at least 4 knots, got %d", ErrInvalidConfig, bc, n)
		}
	case Periodic:
		if n < 3 {
			return nil, fmt.Errorf("%w: %s boundary needs at least 3 knots, got %d", ErrInvalidConfig, bc, n)
		}
		scale := math.Max(1, math.Max(math.Abs(p[0].X), math.Abs(p[0].Y)))
		if gap := p[n-1].Sub(p[0]).Norm(); gap > periodicTolerance*scale {
			return nil, fmt.Errorf("%w: %s boundary needs first and last points to coincide (gap %g)",
				ErrInvalidConfig, bc, gap)
		}
		p[n-1] = p[0]
	case Natural, Clamped:
	default:
		return nil, fmt.Errorf("%w: unknown boundary condition %q", ErrInvalidConfig, bc)
	}

	m, err := solveMoments(t, p, bc)
	if err != nil {
		return nil, err
	}
	return &Spline{t: append([]float64(nil), t...), p: p, m: m, bc: bc}, nil
}

// solveMoments assembles and solves the n×n system for the knot second
// derivatives. x and y share the matrix and are solved as two columns.
func solveMoments(t []float64, p []r2.Point, bc Boundary) ([]r2.Point, error) {
	n := len(t)
	h := make([]float64, n-1)
	for i := range h {
		h[i] = t[i+1] - t[i]
	}
	slope := func(i int) r2.Point { // divided difference over segment i
		return p[i+1].Sub(p[i]).Mul(1 / h[i])
	}

	a := mat.NewDense(n, n, nil)
	b := mat.NewDense(n, 2, nil)
	setRHS := func(row int, v r2.Point) {
		b.Set(row, 0, v.X)
		b.Set(row, 1, v.Y)
	}

	// Interior continuity of the first derivative.
	for i := 1; i < n-1; i++ {
		a.Set(i, i-1, h[i-1])
		a.Set(i, i, 2*(h[i-1]+h[i]))
		a.Set(i, i+1, h[i])
		setRHS(i, slope(i).Sub(slope(i-1)).Mul(6))
	}

	last := n - 1
	switch bc {
	case Natural:
		a.Set(0, 0, 1)
		a.Set(last, last, 1)
	case Clamped:
		a.Set(0, 0, 2*h[0])
		a.Set(0, 1, h[0])
		setRHS(0, slope(0).Mul(6))
		a.Set(last, last-1, h[last-1])
		a.Set(last, last, 2*h[last-1])
		setRHS(last, slope(last-1).Mul(-6))
	case NotAKnot:
		a.Set(0, 0, h[1])
		a.Set(0, 1, -(h[0] + h[1]))
		a.Set(0, 2, h[0])
		a.Set(last, last-2, h[last-1])
		a.Set(last, last-1, -(h[last-2] + h[last-1]))
		a.Set(last, last, h[last-2])
	case Periodic:
		// Row 0 wraps around the seam; M[0] and M[last] are the same knot.
		a.Set(0, 0, 2*(h[last-1]+h[0]))
		a.Set(0, 1, a.At(0, 1)+h[0])
		a.Set(0, last-1, a.At(0, last-1)+h[last-1])
		setRHS(0, slope(0).Sub(slope(last-1)).Mul(6))
		a.Set(last, 0, 1)
		a.Set(last, last, -1)
	}

	var m mat.Dense
	if err := m.Solve(a, b); err != nil {
		return nil, fmt.Errorf("%w: spline system could not be solved: %v", ErrDegenerateWaypoints, err)
	}

	out := make([]r2.Point, n)
	for i := range out {
		out[i] = r2.Point{X: m.At(i, 0), Y: m.At(i, 1)}
		if math.IsNaN(out[i].X) || math.IsNaN(out[i].Y) {
			return nil, fmt.Errorf("%w: spline system produced NaN moments", ErrDegenerateWaypoints)
		}
	}
	return out, nil
}

// Domain returns the fitted parameter range.
func (s *Spline) Domain() (lo, hi float64) {
	return s.t[0], s.t[len(s.t)-1]
}

// Boundary returns the end condition the spline was fitted with.
func (s *Spline) Boundary() Boundary {
	return s.bc
}

// Eval returns position, first and second derivative at u. Values outside
// Domain are refused with ErrExtrapolation.
func (s *Spline) Eval(u float64) (Jet, error) {
	lo, hi := s.Domain()
	if math.IsNaN(u) || u < lo || u > hi {
		return Jet{}, fmt.Errorf("%w: %g not in [%g, %g]", ErrExtrapolation, u, lo, hi)
	}

	i := sort.SearchFloat64s(s.t, u) - 1
	if i < 0 {
		i = 0
	}
	if i > len(s.t)-2 {
		i = len(s.t) - 2
	}

	h := s.t[i+1] - s.t[i]
	a := s.t[i+1] - u
	b := u - s.t[i]
	m0, m1 := s.m[i], s.m[i+1]
	// Linear coefficients of the moment form.
	c0 := s.p[i].Mul(1 / h).Sub(m0.Mul(h / 6))
	c1 := s.p[i+1].Mul(1 / h).Sub(m1.Mul(h / 6))

	var j Jet
	j.P = m0.Mul(a * a * a / (6 * h)).Add(m1.Mul(b * b * b / (6 * h))).Add(c0.Mul(a)).Add(c1.Mul(b))
	j.D1 = m1.Mul(b * b / (2 * h)).Sub(m0.Mul(a * a / (2 * h))).Add(c1).Sub(c0)
	j.D2 = m0.Mul(a / h).Add(m1.Mul(b / h))
	return j, nil
}
