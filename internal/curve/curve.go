// Package curve turns an ordered list of track waypoints into a smooth
// reference path with continuous position, heading and curvature.
//
// The waypoints are parameterised by cumulative chord length and fitted with
// a C² cubic spline. The spline is resampled every ds metres of parameter;
// heading and signed curvature come from its first and second derivatives.
// Curvature is positive for a left turn in the direction of travel.
//
// A Curve is immutable after Build and safe for concurrent readers.
package curve

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/trackviz/internal/monitoring"
)

// closureTolerance decides whether the first and last waypoints describe the
// same point, i.e. the track is a closed loop.
const closureTolerance = 1e-6

// Curve is a resampled spline. X, Y, Yaw, K and S have equal length and are
// indexed by sample.
type Curve struct {
	X   []float64 // metres
	Y   []float64 // metres
	Yaw []float64 // radians, (-π, π]
	K   []float64 // 1/metres, positive turning left

	// S is the spline parameter at each sample, S[i] = i·DS. It is
	// cumulative chord length through the waypoints, not true arc length.
	S []float64

	DS       float64
	Length   float64 // total chord length, the spline domain
	Boundary Boundary
	Closed   bool // first and last waypoints coincide

	spline *Spline
}

// Sample is one resampled point of a Curve.
type Sample struct {
	Index int
	X, Y  float64
	Yaw   float64
	K     float64
	S     float64
}

// Point returns the sample position.
func (s Sample) Point() r2.Point {
	return r2.Point{X: s.X, Y: s.Y}
}

// Build fits a spline through waypoints and resamples it every ds along the
// chord-length parameter. Samples are taken at i·ds for every i with
// i·ds < total chord length; the final fractional segment is dropped.
//
// No Curve is returned alongside an error.
func Build(waypoints []r2.Point, ds float64, bc Boundary) (*Curve, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 waypoints, got %d", ErrInvalidConfig, len(waypoints))
	}
	if !(ds > 0) || math.IsInf(ds, 0) {
		return nil, fmt.Errorf("%w: sample interval must be positive, got %g", ErrInvalidConfig, ds)
	}
	if bc == "" {
		bc = DefaultBoundary
	}

	distance, err := chordDistances(waypoints)
	if err != nil {
		return nil, err
	}
	total := distance[len(distance)-1]
	if ds >= total {
		return nil, fmt.Errorf("%w: sample interval %g must be smaller than track length %g",
			ErrInvalidConfig, ds, total)
	}

	spline, err := NewSpline(distance, waypoints, bc)
	if err != nil {
		return nil, fmt.Errorf("fit spline: %w", err)
	}

	n := sampleCount(total, ds)
	c := &Curve{
		X:        make([]float64, n),
		Y:        make([]float64, n),
		Yaw:      make([]float64, n),
		K:        make([]float64, n),
		S:        make([]float64, n),
		DS:       ds,
		Length:   total,
		Boundary: bc,
		Closed:   isClosed(waypoints),
		spline:   spline,
	}

	for i := 0; i < n; i++ {
		s := float64(i) * ds
		j, err := spline.Eval(s)
		if err != nil {
			return nil, fmt.Errorf("resample at %g: %w", s, err)
		}

		dx, dy := j.D1.X, j.D1.Y
		speed2 := dx*dx + dy*dy
		if speed2 == 0 {
			return nil, fmt.Errorf("%w: spline tangent vanishes at s=%g", ErrDegenerateWaypoints, s)
		}

		c.X[i], c.Y[i] = j.P.X, j.P.Y
		c.S[i] = s
		c.Yaw[i] = math.Atan2(dy, dx)
		c.K[i] = (j.D2.Y*dx - j.D2.X*dy) / math.Pow(speed2, 1.5)
	}

	monitoring.Diagf("curve: %d waypoints -> %d samples, length=%.3fm ds=%.3f boundary=%s closed=%t",
		len(waypoints), n, total, ds, bc, c.Closed)
	return c, nil
}

// chordDistances returns the prefix sum of Euclidean distances between
// consecutive waypoints, starting at 0.
func chordDistances(waypoints []r2.Point) ([]float64, error) {
	chords := make([]float64, len(waypoints))
	for i, p := range waypoints {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return nil, fmt.Errorf("%w: waypoint %d is not finite (%g, %g)", ErrDegenerateWaypoints, i, p.X, p.Y)
		}
		if i == 0 {
			continue
		}
		chords[i] = p.Sub(waypoints[i-1]).Norm()
		if chords[i] == 0 {
			return nil, fmt.Errorf("%w: waypoints %d and %d coincide at (%g, %g); check the track for consecutive duplicate waypoints",
				ErrDegenerateWaypoints, i-1, i, p.X, p.Y)
		}
	}
	return floats.CumSum(make([]float64, len(chords)), chords), nil
}

// sampleCount returns the number of i >= 0 with i·ds < total.
func sampleCount(total, ds float64) int {
	n := int(math.Ceil(total / ds))
	for n > 0 && float64(n-1)*ds >= total {
		n--
	}
	for float64(n)*ds < total {
		n++
	}
	return n
}

func isClosed(waypoints []r2.Point) bool {
	first, last := waypoints[0], waypoints[len(waypoints)-1]
	scale := math.Max(1, first.Norm())
	return last.Sub(first).Norm() <= closureTolerance*scale
}

// Len returns the number of samples.
func (c *Curve) Len() int {
	return len(c.X)
}

// Sample returns sample i. It panics if i is out of range, like a slice.
func (c *Curve) Sample(i int) Sample {
	return Sample{Index: i, X: c.X[i], Y: c.Y[i], Yaw: c.Yaw[i], K: c.K[i], S: c.S[i]}
}

// Spline exposes the fitted spline for exact evaluation between samples.
func (c *Curve) Spline() *Spline {
	return c.spline
}

// Nearest returns the sample whose S is closest to s. Closed curves wrap s
// modulo Length; open curves refuse s outside [0, Length].
func (c *Curve) Nearest(s float64) (Sample, error) {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return Sample{}, fmt.Errorf("%w: arc length %g", ErrExtrapolation, s)
	}
	if c.Closed {
		s = math.Mod(s, c.Length)
		if s < 0 {
			s += c.Length
		}
	} else if s < 0 || s > c.Length {
		return Sample{}, fmt.Errorf("%w: arc length %g not in [0, %g]", ErrExtrapolation, s, c.Length)
	}

	last := len(c.S) - 1
	i := sort.SearchFloat64s(c.S, s)
	switch {
	case i > last:
		i = last
		// Past the last sample of a loop the seam sample may be closer.
		if c.Closed && c.Length-s < s-c.S[last] {
			i = 0
		}
	case i > 0 && s-c.S[i-1] <= c.S[i]-s:
		i--
	}
	return c.Sample(i), nil
}
