// Package track reads, writes and generates reference track files.
//
// A track file is a comma-separated text file with one header row followed
// by one "x,y" row per waypoint, in metres.
package track

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
)

// Shape names accepted by Generate.
const (
	ShapeCircle  = "circle"
	ShapeEllipse = "ellipse"
)

// GenerateCircle returns n points at evenly spaced angles over [0, 2π] on a
// circle of the given radius, counter-clockwise from (radius, 0). The last
// point closes the loop.
func GenerateCircle(radius float64, n int) ([]r2.Point, error) {
	return GenerateEllipse(radius, radius, n)
}

// GenerateEllipse returns n points at evenly spaced angles over [0, 2π] on
// an axis-aligned ellipse. semiX scales the x coordinate, semiY the y
// coordinate.
func GenerateEllipse(semiX, semiY float64, n int) ([]r2.Point, error) {
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 points, got %d", n)
	}
	if !(semiX > 0) || !(semiY > 0) || math.IsInf(semiX, 0) || math.IsInf(semiY, 0) {
		return nil, fmt.Errorf("semi-axes must be positive and finite, got %g and %g", semiX, semiY)
	}

	angles := floats.Span(make([]float64, n), 0, 2*math.Pi)
	return lo.Map(angles, func(a float64, _ int) r2.Point {
		return r2.Point{X: semiX * math.Cos(a), Y: semiY * math.Sin(a)}
	}), nil
}

// Generate dispatches on shape. Circles use a; ellipses use a for x and b
// for y.
func Generate(shape string, a, b float64, n int) ([]r2.Point, error) {
	switch shape {
	case ShapeCircle:
		return GenerateCircle(a, n)
	case ShapeEllipse:
		return GenerateEllipse(a, b, n)
	default:
		return nil, fmt.Errorf("unknown track shape %q (want %s or %s)", shape, ShapeCircle, ShapeEllipse)
	}
}
