package curve

import "errors"

var (
	// ErrDegenerateWaypoints is returned when the waypoints cannot support a
	// spline: coincident consecutive points, non-finite coordinates, or a
	// singular spline system.
	ErrDegenerateWaypoints = errors.New("degenerate waypoints")

	// ErrExtrapolation is returned when a spline or curve is queried
	// outside the parameter range it was fitted on.
	ErrExtrapolation = errors.New("parameter outside fitted range")

	// ErrInvalidConfig is returned for caller errors detected before any
	// computation: too few waypoints, non-positive sample interval, unknown
	// boundary condition.
	ErrInvalidConfig = errors.New("invalid curve configuration")
)
