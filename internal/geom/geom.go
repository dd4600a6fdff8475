// Package geom provides the planar rigid-body primitives used to place the
// vehicle shape in the world frame.
//
// Rotations use the row-vector convention: a point p is rotated as p·R with
//
//	R(θ) = [ cos θ   sin θ ]
//	       [ -sin θ  cos θ ]
//
// which is the transpose of the column-vector matrix. p·R(θ) turns p
// counter-clockwise by θ. Callers composing rotations must keep this
// convention or every sign inverts.
package geom

import (
	"math"

	"github.com/golang/geo/r2"
)

// Rotation is a 2x2 rotation matrix in row-vector convention.
type Rotation [2][2]float64

// NewRotation returns R(angle) = [[cos, sin], [-sin, cos]].
func NewRotation(angle float64) Rotation {
	c, s := math.Cos(angle), math.Sin(angle)
	return Rotation{
		{c, s},
		{-s, c},
	}
}

// Apply returns p·R.
func (r Rotation) Apply(p r2.Point) r2.Point {
	return r2.Point{
		X: p.X*r[0][0] + p.Y*r[1][0],
		Y: p.X*r[0][1] + p.Y*r[1][1],
	}
}

// Transpose returns the inverse rotation.
func (r Rotation) Transpose() Rotation {
	return Rotation{
		{r[0][0], r[1][0]},
		{r[0][1], r[1][1]},
	}
}

// Polygon is an ordered vertex list. Closed polygons repeat the first vertex
// at the end so a renderer can draw them as a single connected line.
type Polygon []r2.Point

// NewClosedPolygon copies vertices and appends the first vertex.
func NewClosedPolygon(vertices ...r2.Point) Polygon {
	if len(vertices) == 0 {
		return nil
	}
	p := make(Polygon, 0, len(vertices)+1)
	p = append(p, vertices...)
	return append(p, vertices[0])
}

// IsClosed reports whether the first and last vertices coincide.
func (p Polygon) IsClosed() bool {
	if len(p) < 2 {
		return false
	}
	return p[0] == p[len(p)-1]
}

// Clone returns an independent copy.
func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	out := make(Polygon, len(p))
	copy(out, p)
	return out
}

// Rotate returns a new polygon with every vertex multiplied by r.
func (p Polygon) Rotate(r Rotation) Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[i] = r.Apply(v)
	}
	return out
}

// Translate returns a new polygon shifted by d.
func (p Polygon) Translate(d r2.Point) Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[i] = v.Add(d)
	}
	return out
}

// Transform rotates by r and then translates by d. The order matters.
func (p Polygon) Transform(r Rotation, d r2.Point) Polygon {
	out := make(Polygon, len(p))
	for i, v := range p {
		out[i] = r.Apply(v).Add(d)
	}
	return out
}

// XY splits the polygon into coordinate slices.
func (p Polygon) XY() (xs, ys []float64) {
	xs = make([]float64, len(p))
	ys = make([]float64, len(p))
	for i, v := range p {
		xs[i], ys[i] = v.X, v.Y
	}
	return xs, ys
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b r2.Point) r2.Point {
	return a.Add(b).Mul(0.5)
}

// Heading returns the unit vector pointing along angle.
func Heading(angle float64) r2.Point {
	return r2.Point{X: math.Cos(angle), Y: math.Sin(angle)}
}

// NormaliseAngle wraps angle into (-π, π].
func NormaliseAngle(angle float64) float64 {
	return math.Atan2(math.Sin(angle), math.Cos(angle))
}
