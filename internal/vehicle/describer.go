package vehicle

import (
	"fmt"
	"math"

	"github.com/banshee-data/trackviz/internal/geom"
	"github.com/banshee-data/trackviz/internal/monitoring"
)

// Frame is the vehicle placed in the world for one step. Polygons are closed
// and in world coordinates.
type Frame struct {
	X, Y float64 // rear axle
	Pose Pose

	Outline    geom.Polygon
	FrontRight geom.Polygon
	RearRight  geom.Polygon
	FrontLeft  geom.Polygon
	RearLeft   geom.Polygon
}

// Polygons returns the five polygons in drawing order: outline, then
// front-right, rear-right, front-left and rear-left wheels.
func (f Frame) Polygons() []geom.Polygon {
	return []geom.Polygon{f.Outline, f.FrontRight, f.RearRight, f.FrontLeft, f.RearLeft}
}

// Describer turns path-relative states into world-frame vehicle polygons.
// It holds no per-call state, so a single Describer may be shared between
// goroutines.
type Describer struct {
	params Parameters
	shape  Shape
	mapper Mapper
}

// NewDescriber precomputes the vehicle shape from params.
func NewDescriber(params Parameters, mapper Mapper) (*Describer, error) {
	if mapper == nil {
		return nil, fmt.Errorf("describer requires a mapper")
	}
	return &Describer{
		params: params,
		shape:  NewShape(params),
		mapper: mapper,
	}, nil
}

// Parameters returns the vehicle dimensions.
func (d *Describer) Parameters() Parameters { return d.params }

// Shape returns the rear-axle frame shape.
func (d *Describer) Shape() Shape { return d.shape }

// PlotCar places the vehicle for st. The transforms are applied in a fixed
// order: the front wheels pivot about their own centres by the steer angle,
// then every polygon is rotated by the yaw and translated to the rear axle.
//
// Steer angles beyond the vehicle limit are drawn as given and logged.
func (d *Describer) PlotCar(st State) (Frame, error) {
	pose, err := d.mapper.ToCartesian(st)
	if err != nil {
		return Frame{}, err
	}
	if math.Abs(pose.Steer) > d.params.MaxSteer {
		monitoring.Diagf("steer %.3f rad exceeds limit %.3f rad at s=%.2f", pose.Steer, d.params.MaxSteer, st.S)
	}

	yawR := geom.NewRotation(pose.Yaw)
	steerR := geom.NewRotation(pose.Steer)
	at := pose.Point()

	frontRight := d.shape.FrontRightOrigin.Transform(steerR, d.shape.FrontRightCentre)
	frontLeft := d.shape.FrontLeftOrigin.Transform(steerR, d.shape.FrontLeftCentre)

	monitoring.Tracef("pose s=%.3f x=%.3f y=%.3f yaw=%.4f steer=%.4f", st.S, pose.X, pose.Y, pose.Yaw, pose.Steer)

	return Frame{
		X:          pose.X,
		Y:          pose.Y,
		Pose:       pose,
		Outline:    d.shape.Outline.Transform(yawR, at),
		FrontRight: frontRight.Transform(yawR, at),
		RearRight:  d.shape.RearRight.Transform(yawR, at),
		FrontLeft:  frontLeft.Transform(yawR, at),
		RearLeft:   d.shape.RearLeft.Transform(yawR, at),
	}, nil
}
