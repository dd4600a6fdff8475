package curve

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/floats"
)

// CircularTrack is a closed circular reference track. The spline is fitted on
// raw waypoints that approximate the circle, so besides the spline parameter
// (Curve.S) it carries an analytic arc length spread evenly over the samples.
// The two differ slightly and must not be used interchangeably.
type CircularTrack struct {
	*Curve

	Radius        float64
	Width         float64
	Circumference float64 // 2πR

	// AnalyticS is linspace(0, 2πR, Len()).
	AnalyticS []float64
}

// NewCircularTrack builds the curve through waypoints and attaches the
// analytic arc length of a circle with the given radius.
func NewCircularTrack(waypoints []r2.Point, radius, width, ds float64, bc Boundary) (*CircularTrack, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return nil, fmt.Errorf("%w: radius must be positive, got %g", ErrInvalidConfig, radius)
	}
	if width < 0 || math.IsNaN(width) {
		return nil, fmt.Errorf("%w: width must be non-negative, got %g", ErrInvalidConfig, width)
	}

	c, err := Build(waypoints, ds, bc)
	if err != nil {
		return nil, err
	}

	circumference := 2 * math.Pi * radius
	return &CircularTrack{
		Curve:         c,
		Radius:        radius,
		Width:         width,
		Circumference: circumference,
		AnalyticS:     floats.Span(make([]float64, c.Len()), 0, circumference),
	}, nil
}
