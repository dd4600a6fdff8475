// Package config loads the run configuration for trackviz: the reference
// track, the vehicle dimensions, the state source and the outputs.
//
// Every field is a pointer so that partial files are valid; the Get*
// accessors supply defaults for anything left out.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the canonical defaults file, relative to the
// repository root.
const DefaultConfigPath = "config/trackviz.defaults.json"

// maxFileSize bounds config files read from disk.
const maxFileSize = 1 * 1024 * 1024 // 1MB

// Mapper names accepted in run.mapper.
const (
	MapperCircular = "circular"
	MapperCurve    = "curve"
)

// Config is the root configuration document.
type Config struct {
	Track   TrackConfig   `json:"track" yaml:"track"`
	Vehicle VehicleConfig `json:"vehicle" yaml:"vehicle"`
	Run     RunConfig     `json:"run" yaml:"run"`
	Output  OutputConfig  `json:"output" yaml:"output"`
}

// TrackConfig describes the reference path.
type TrackConfig struct {
	File           *string  `json:"file,omitempty" yaml:"file,omitempty"`
	SampleInterval *float64 `json:"sample_interval,omitempty" yaml:"sample_interval,omitempty"` // metres
	Boundary       *string  `json:"boundary,omitempty" yaml:"boundary,omitempty"`               // natural, clamped, not-a-knot, periodic
	Circular       *bool    `json:"circular,omitempty" yaml:"circular,omitempty"`
	Radius         *float64 `json:"radius,omitempty" yaml:"radius,omitempty"`
	Width          *float64 `json:"width,omitempty" yaml:"width,omitempty"`
}

// VehicleConfig holds the base vehicle dimensions in metres. Derived
// lengths (rear overhang, l_r, l_f) are computed by the vehicle package.
type VehicleConfig struct {
	Length           *float64 `json:"length,omitempty" yaml:"length,omitempty"`
	Width            *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	TireDiameter     *float64 `json:"tire_diameter,omitempty" yaml:"tire_diameter,omitempty"`
	TireWidth        *float64 `json:"tire_width,omitempty" yaml:"tire_width,omitempty"`
	AxleTrack        *float64 `json:"axle_track,omitempty" yaml:"axle_track,omitempty"`
	Wheelbase        *float64 `json:"wheelbase,omitempty" yaml:"wheelbase,omitempty"`
	RearAxleFraction *float64 `json:"rear_axle_fraction,omitempty" yaml:"rear_axle_fraction,omitempty"` // l_r / wheelbase
	MaxSteerDeg      *float64 `json:"max_steer_deg,omitempty" yaml:"max_steer_deg,omitempty"`
	MaxVelocity      *float64 `json:"max_velocity,omitempty" yaml:"max_velocity,omitempty"` // m/s
	Colour           *string  `json:"colour,omitempty" yaml:"colour,omitempty"`
}

// RunConfig selects where path-relative states come from.
type RunConfig struct {
	StatesFile    *string  `json:"states_file,omitempty" yaml:"states_file,omitempty"`
	Mapper        *string  `json:"mapper,omitempty" yaml:"mapper,omitempty"`
	Steps         *int     `json:"steps,omitempty" yaml:"steps,omitempty"`
	TimeStep      *string  `json:"time_step,omitempty" yaml:"time_step,omitempty"` // duration string like "50ms"
	Speed         *float64 `json:"speed,omitempty" yaml:"speed,omitempty"`         // m/s
	LateralOffset *float64 `json:"lateral_offset,omitempty" yaml:"lateral_offset,omitempty"`
	HeadingOffset *float64 `json:"heading_offset,omitempty" yaml:"heading_offset,omitempty"` // radians
	Steer         *float64 `json:"steer,omitempty" yaml:"steer,omitempty"`                   // radians; unset derives from track curvature
}

// OutputConfig controls rendered and recorded artefacts.
type OutputConfig struct {
	Dir       *string `json:"dir,omitempty" yaml:"dir,omitempty"`
	PlotEvery *int    `json:"plot_every,omitempty" yaml:"plot_every,omitempty"` // 0 disables frame PNGs
	HTML      *bool   `json:"html,omitempty" yaml:"html,omitempty"`
	Database  *string `json:"database,omitempty" yaml:"database,omitempty"` // empty disables recording
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads a JSON (.json) or YAML (.yaml, .yml) configuration file.
// Fields omitted from the file keep their defaults.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	switch ext {
	case ".json", ".yaml", ".yml":
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if ext == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", filepath.Base(cleanPath), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefault loads DefaultConfigPath from the current directory or one
// of its parents. Panics if the file cannot be loaded; intended for tests.
func MustLoadDefault() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate reports every invalid field, not just the first.
func (c *Config) Validate() error {
	var errs error
	positive := func(name string, v *float64) {
		if v != nil && (!(*v > 0) || math.IsInf(*v, 0)) {
			errs = multierr.Append(errs, fmt.Errorf("%s must be positive, got %g", name, *v))
		}
	}

	positive("track.sample_interval", c.Track.SampleInterval)
	positive("track.radius", c.Track.Radius)
	if c.Track.Width != nil && *c.Track.Width < 0 {
		errs = multierr.Append(errs, fmt.Errorf("track.width must be non-negative, got %g", *c.Track.Width))
	}
	if c.Track.Boundary != nil {
		switch *c.Track.Boundary {
		case "", "natural", "clamped", "not-a-knot", "periodic":
		default:
			errs = multierr.Append(errs, fmt.Errorf("unknown track.boundary %q", *c.Track.Boundary))
		}
	}

	positive("vehicle.length", c.Vehicle.Length)
	positive("vehicle.width", c.Vehicle.Width)
	positive("vehicle.tire_diameter", c.Vehicle.TireDiameter)
	positive("vehicle.tire_width", c.Vehicle.TireWidth)
	positive("vehicle.axle_track", c.Vehicle.AxleTrack)
	positive("vehicle.wheelbase", c.Vehicle.Wheelbase)
	positive("vehicle.max_steer_deg", c.Vehicle.MaxSteerDeg)
	positive("vehicle.max_velocity", c.Vehicle.MaxVelocity)
	if f := c.Vehicle.RearAxleFraction; f != nil && (*f < 0 || *f > 1) {
		errs = multierr.Append(errs, fmt.Errorf("vehicle.rear_axle_fraction must be between 0 and 1, got %g", *f))
	}

	if c.Run.Mapper != nil {
		switch *c.Run.Mapper {
		case "", MapperCircular, MapperCurve:
		default:
			errs = multierr.Append(errs, fmt.Errorf("unknown run.mapper %q (want %s or %s)", *c.Run.Mapper, MapperCircular, MapperCurve))
		}
	}
	if c.Run.Steps != nil && *c.Run.Steps < 0 {
		errs = multierr.Append(errs, fmt.Errorf("run.steps must be non-negative, got %d", *c.Run.Steps))
	}
	if c.Run.TimeStep != nil && *c.Run.TimeStep != "" {
		d, err := time.ParseDuration(*c.Run.TimeStep)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("invalid run.time_step '%s': %w", *c.Run.TimeStep, err))
		} else if d <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("run.time_step must be positive, got %s", d))
		}
	}
	if c.Run.Speed != nil && *c.Run.Speed < 0 {
		errs = multierr.Append(errs, fmt.Errorf("run.speed must be non-negative, got %g", *c.Run.Speed))
	}

	if c.Output.PlotEvery != nil && *c.Output.PlotEvery < 0 {
		errs = multierr.Append(errs, fmt.Errorf("output.plot_every must be non-negative, got %d", *c.Output.PlotEvery))
	}
	return errs
}

func stringOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// GetFile returns track.file or the bundled circle track.
func (c *TrackConfig) GetFile() string { return stringOr(c.File, "tracks/circle.csv") }

// GetSampleInterval returns track.sample_interval or 0.05m.
func (c *TrackConfig) GetSampleInterval() float64 { return floatOr(c.SampleInterval, 0.05) }

// GetBoundary returns track.boundary or "natural".
func (c *TrackConfig) GetBoundary() string { return stringOr(c.Boundary, "natural") }

// GetCircular reports whether the track is treated as a circle.
func (c *TrackConfig) GetCircular() bool {
	if c.Circular == nil {
		return true // default
	}
	return *c.Circular
}

// GetRadius returns track.radius or 50m.
func (c *TrackConfig) GetRadius() float64 { return floatOr(c.Radius, 50) }

// GetWidth returns track.width or 5m.
func (c *TrackConfig) GetWidth() float64 { return floatOr(c.Width, 5) }

// Defaults below describe a Tesla Model S 100D.

// GetLength returns vehicle.length or the default.
func (c *VehicleConfig) GetLength() float64 { return floatOr(c.Length, 4.97) }

// GetWidth returns vehicle.width or the default.
func (c *VehicleConfig) GetWidth() float64 { return floatOr(c.Width, 1.964) }

// GetTireDiameter returns vehicle.tire_diameter or the default.
func (c *VehicleConfig) GetTireDiameter() float64 { return floatOr(c.TireDiameter, 0.4826) }

// GetTireWidth returns vehicle.tire_width or the default.
func (c *VehicleConfig) GetTireWidth() float64 { return floatOr(c.TireWidth, 0.265) }

// GetAxleTrack returns vehicle.axle_track or the default.
func (c *VehicleConfig) GetAxleTrack() float64 { return floatOr(c.AxleTrack, 1.7) }

// GetWheelbase returns vehicle.wheelbase or the default.
func (c *VehicleConfig) GetWheelbase() float64 { return floatOr(c.Wheelbase, 2.96) }

// GetRearAxleFraction returns vehicle.rear_axle_fraction or 0.5.
func (c *VehicleConfig) GetRearAxleFraction() float64 { return floatOr(c.RearAxleFraction, 0.5) }

// GetMaxSteerDeg returns vehicle.max_steer_deg or 33°.
func (c *VehicleConfig) GetMaxSteerDeg() float64 { return floatOr(c.MaxSteerDeg, 33) }

// GetMaxVelocity returns vehicle.max_velocity or 5 m/s.
func (c *VehicleConfig) GetMaxVelocity() float64 { return floatOr(c.MaxVelocity, 5) }

// GetColour returns vehicle.colour or "black".
func (c *VehicleConfig) GetColour() string { return stringOr(c.Colour, "black") }

// GetStatesFile returns run.states_file; empty means synthetic states.
func (c *RunConfig) GetStatesFile() string { return stringOr(c.StatesFile, "") }

// GetMapper returns run.mapper or "circular".
func (c *RunConfig) GetMapper() string { return stringOr(c.Mapper, MapperCircular) }

// GetSteps returns run.steps or 400.
func (c *RunConfig) GetSteps() int {
	if c.Steps == nil {
		return 400
	}
	return *c.Steps
}

// GetTimeStep parses run.time_step, defaulting to 50ms.
func (c *RunConfig) GetTimeStep() time.Duration {
	if c.TimeStep == nil || *c.TimeStep == "" {
		return 50 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.TimeStep)
	if err != nil || d <= 0 {
		return 50 * time.Millisecond // default on parse error
	}
	return d
}

// GetSpeed returns run.speed or 5 m/s.
func (c *RunConfig) GetSpeed() float64 { return floatOr(c.Speed, 5) }

// GetLateralOffset returns run.lateral_offset or 0.
func (c *RunConfig) GetLateralOffset() float64 { return floatOr(c.LateralOffset, 0) }

// GetHeadingOffset returns run.heading_offset or 0.
func (c *RunConfig) GetHeadingOffset() float64 { return floatOr(c.HeadingOffset, 0) }

// GetSteer returns run.steer and whether it was set.
func (c *RunConfig) GetSteer() (float64, bool) {
	if c.Steer == nil {
		return 0, false
	}
	return *c.Steer, true
}

// GetDir returns output.dir or "out".
func (c *OutputConfig) GetDir() string { return stringOr(c.Dir, "out") }

// GetPlotEvery returns output.plot_every or 20.
func (c *OutputConfig) GetPlotEvery() int {
	if c.PlotEvery == nil {
		return 20
	}
	return *c.PlotEvery
}

// GetHTML reports whether the HTML trajectory chart is written.
func (c *OutputConfig) GetHTML() bool {
	if c.HTML == nil {
		return true
	}
	return *c.HTML
}

// GetDatabase returns output.database; empty disables recording.
func (c *OutputConfig) GetDatabase() string { return stringOr(c.Database, "") }
