// Package vehicle describes a car's rigid outline and places it in the
// world frame from a path-relative state.
//
// All geometry is expressed relative to the centre of the rear axle, with
// +x forward and +y to the left of the vehicle.
package vehicle

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/banshee-data/trackviz/internal/config"
)

// ErrInvalidParameters is returned when vehicle dimensions are inconsistent.
var ErrInvalidParameters = errors.New("invalid vehicle parameters")

// Parameters holds the static vehicle dimensions in metres. The derived
// lengths RearOverhang, Lr and Lf are filled in by NewParameters and must
// not be edited independently.
type Parameters struct {
	Length           float64
	Width            float64
	TireDiameter     float64
	TireWidth        float64
	AxleTrack        float64
	Wheelbase        float64
	RearAxleFraction float64 // Lr / Wheelbase
	MaxSteer         float64 // radians
	MaxVelocity      float64 // m/s
	Colour           string

	RearOverhang float64
	Lr           float64 // rear axle to centre of gravity
	Lf           float64 // centre of gravity to front axle
}

// DefaultParameters returns the dimensions of a Tesla Model S 100D.
func DefaultParameters() Parameters {
	p, err := NewParameters(Parameters{
		Length:           4.97,
		Width:            1.964,
		TireDiameter:     0.4826,
		TireWidth:        0.265,
		AxleTrack:        1.7,
		Wheelbase:        2.96,
		RearAxleFraction: 0.5,
		MaxSteer:         33 * math.Pi / 180,
		MaxVelocity:      5,
		Colour:           "black",
	})
	if err != nil {
		panic(err)
	}
	return p
}

// NewParameters validates the base dimensions of p and returns a copy with
// the derived lengths computed. The rear overhang splits the body length
// not covered by the wheelbase evenly between front and rear.
func NewParameters(p Parameters) (Parameters, error) {
	if err := p.validate(); err != nil {
		return Parameters{}, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	p.RearOverhang = 0.5 * (p.Length - p.Wheelbase)
	p.Lr = p.RearAxleFraction * p.Wheelbase
	p.Lf = (1 - p.RearAxleFraction) * p.Wheelbase
	return p, nil
}

// ParametersFromConfig builds Parameters from the vehicle section of a run
// configuration, falling back to defaults for unset fields.
func ParametersFromConfig(cfg *config.VehicleConfig) (Parameters, error) {
	if cfg == nil {
		cfg = &config.VehicleConfig{}
	}
	return NewParameters(Parameters{
		Length:           cfg.GetLength(),
		Width:            cfg.GetWidth(),
		TireDiameter:     cfg.GetTireDiameter(),
		TireWidth:        cfg.GetTireWidth(),
		AxleTrack:        cfg.GetAxleTrack(),
		Wheelbase:        cfg.GetWheelbase(),
		RearAxleFraction: cfg.GetRearAxleFraction(),
		MaxSteer:         cfg.GetMaxSteerDeg() * math.Pi / 180,
		MaxVelocity:      cfg.GetMaxVelocity(),
		Colour:           cfg.GetColour(),
	})
}

func (p Parameters) validate() error {
	var errs error
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"length", p.Length},
		{"width", p.Width},
		{"tire diameter", p.TireDiameter},
		{"tire width", p.TireWidth},
		{"axle track", p.AxleTrack},
		{"wheelbase", p.Wheelbase},
	} {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			errs = multierr.Append(errs, fmt.Errorf("%s must be positive and finite, got %g", f.name, f.v))
		}
	}
	if p.Wheelbase > p.Length {
		errs = multierr.Append(errs, fmt.Errorf("wheelbase %g exceeds length %g", p.Wheelbase, p.Length))
	}
	if p.AxleTrack > p.Width {
		errs = multierr.Append(errs, fmt.Errorf("axle track %g exceeds width %g", p.AxleTrack, p.Width))
	}
	if !(p.RearAxleFraction >= 0 && p.RearAxleFraction <= 1) {
		errs = multierr.Append(errs, fmt.Errorf("rear axle fraction must be in [0, 1], got %g", p.RearAxleFraction))
	}
	if !(p.MaxSteer >= 0 && p.MaxSteer < math.Pi/2) {
		errs = multierr.Append(errs, fmt.Errorf("max steer must be in [0, π/2), got %g rad", p.MaxSteer))
	}
	if !(p.MaxVelocity >= 0) {
		errs = multierr.Append(errs, fmt.Errorf("max velocity must be non-negative, got %g", p.MaxVelocity))
	}
	return errs
}
