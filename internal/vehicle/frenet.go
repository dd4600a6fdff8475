package vehicle

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"

	"github.com/banshee-data/trackviz/internal/curve"
	"github.com/banshee-data/trackviz/internal/geom"
)

// DefaultRadius is the circular track radius assumed when none is given.
const DefaultRadius = 50.0

// State is a path-relative (Frenet) vehicle state.
type State struct {
	S     float64 // arc length along the path, metres
	E     float64 // lateral offset, metres, positive toward the centre of a counter-clockwise loop
	Mu    float64 // heading offset from the path tangent, radians
	V     float64 // speed, m/s
	Steer float64 // front wheel angle, radians
}

// Pose is the world-frame rear-axle position and heading. V and Steer are
// carried through from the State unchanged.
type Pose struct {
	X, Y  float64
	V     float64
	Yaw   float64
	Steer float64
}

// Point returns the rear-axle position.
func (p Pose) Point() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

// Mapper converts a path-relative state to a world pose.
type Mapper interface {
	ToCartesian(State) (Pose, error)
}

// CircularMapper maps states on a counter-clockwise circle of Radius
// centred on the origin, starting at (Radius, 0). Lr re-anchors the result
// from the reference line to the rear axle.
type CircularMapper struct {
	Radius float64
	Lr     float64
}

// ToCartesian evaluates the closed-form circle mapping:
//
//	θ   = s/r
//	yaw = μ + π/2 + θ
//	xy  = r·(cos θ, sin θ) + e·(cos(π+θ), sin(π+θ)) + Lr·(cos yaw, sin yaw)
func (m CircularMapper) ToCartesian(st State) (Pose, error) {
	r := m.Radius
	if !(r > 0) || math.IsInf(r, 0) {
		return Pose{}, fmt.Errorf("circular mapper radius must be positive, got %g", r)
	}

	theta := st.S / r
	yaw := st.Mu + (math.Pi/2 + theta)

	xy := geom.Heading(theta).Mul(r).
		Add(geom.Heading(math.Pi + theta).Mul(st.E)).
		Add(geom.Heading(yaw).Mul(m.Lr))

	return Pose{X: xy.X, Y: xy.Y, V: st.V, Yaw: yaw, Steer: st.Steer}, nil
}

// CurveMapper maps states onto an arbitrary resampled curve. The lateral
// offset is applied along the left normal of the nearest sample, which
// agrees with CircularMapper on a counter-clockwise circle.
type CurveMapper struct {
	Curve *curve.Curve
	Lr    float64
}

// ToCartesian looks up the sample nearest st.S and offsets from it. The
// resolution is limited by the curve's sample interval. Open curves return
// curve.ErrExtrapolation for arc lengths beyond their ends.
func (m CurveMapper) ToCartesian(st State) (Pose, error) {
	if m.Curve == nil {
		return Pose{}, fmt.Errorf("curve mapper has no curve")
	}
	sample, err := m.Curve.Nearest(st.S)
	if err != nil {
		return Pose{}, fmt.Errorf("locate s=%g on curve: %w", st.S, err)
	}

	yaw := sample.Yaw + st.Mu
	xy := sample.Point().
		Add(geom.Heading(sample.Yaw + math.Pi/2).Mul(st.E)).
		Add(geom.Heading(yaw).Mul(m.Lr))

	return Pose{X: xy.X, Y: xy.Y, V: st.V, Yaw: yaw, Steer: st.Steer}, nil
}
