package vehicle

import (
	"github.com/golang/geo/r2"

	"github.com/banshee-data/trackviz/internal/geom"
)

// Shape is the vehicle outline in the rear-axle frame. Every polygon is
// closed (first vertex repeated at the end).
//
// Front wheels are stored relative to their own face centre so that
// steering can pivot them in place; add FrontRightCentre or
// FrontLeftCentre after rotating to recover the rear-axle frame position.
type Shape struct {
	Outline   geom.Polygon
	RearRight geom.Polygon
	RearLeft  geom.Polygon

	FrontRightOrigin geom.Polygon
	FrontLeftOrigin  geom.Polygon
	FrontRightCentre r2.Point
	FrontLeftCentre  r2.Point
}

// NewShape derives the outline and wheel polygons from p.
func NewShape(p Parameters) Shape {
	front := p.Length - p.RearOverhang
	side := 0.5 * p.Width

	outline := geom.NewClosedPolygon(
		r2.Point{X: -p.RearOverhang, Y: side},
		r2.Point{X: front, Y: side},
		r2.Point{X: front, Y: -side},
		r2.Point{X: -p.RearOverhang, Y: -side},
	)

	wheelCentre := 0.5 * p.AxleTrack
	inner := wheelCentre - 0.5*p.TireWidth
	outer := wheelCentre + 0.5*p.TireWidth

	// Right is negative y.
	rearRight := geom.NewClosedPolygon(
		r2.Point{X: -p.TireDiameter, Y: -inner},
		r2.Point{X: p.TireDiameter, Y: -inner},
		r2.Point{X: p.TireDiameter, Y: -outer},
		r2.Point{X: -p.TireDiameter, Y: -outer},
	)
	rearLeft := reflect(rearRight)

	axle := r2.Point{X: p.Wheelbase}
	frontRight := rearRight.Translate(axle)
	frontLeft := rearLeft.Translate(axle)

	frCentre := faceCentre(frontRight)
	flCentre := faceCentre(frontLeft)

	return Shape{
		Outline:          outline,
		RearRight:        rearRight,
		RearLeft:         rearLeft,
		FrontRightOrigin: frontRight.Translate(frCentre.Mul(-1)),
		FrontLeftOrigin:  frontLeft.Translate(flCentre.Mul(-1)),
		FrontRightCentre: frCentre,
		FrontLeftCentre:  flCentre,
	}
}

// FrontRight returns the front-right wheel in the rear-axle frame,
// unsteered.
func (s Shape) FrontRight() geom.Polygon { return s.FrontRightOrigin.Translate(s.FrontRightCentre) }

// FrontLeft returns the front-left wheel in the rear-axle frame, unsteered.
func (s Shape) FrontLeft() geom.Polygon { return s.FrontLeftOrigin.Translate(s.FrontLeftCentre) }

// reflect mirrors p across the vehicle's longitudinal axis.
func reflect(p geom.Polygon) geom.Polygon {
	out := p.Clone()
	for i := range out {
		out[i].Y = -out[i].Y
	}
	return out
}

// faceCentre is the midpoint of the diagonal between vertices 0 and 2.
func faceCentre(p geom.Polygon) r2.Point {
	return geom.Midpoint(p[0], p[2])
}
