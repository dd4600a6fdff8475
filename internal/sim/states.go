// Package sim drives a sequence of path-relative states through a
// vehicle.Describer and hands each placed frame to one or more sinks.
package sim

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/banshee-data/trackviz/internal/vehicle"
)

// StateHeader is the column row of a states file.
var StateHeader = []string{"s", "e", "mu", "v", "d"}

// ErrNoStates is returned for a states file without data rows.
var ErrNoStates = errors.New("states file has no rows")

// ReadStates parses a states file: a header row followed by one
// "s,e,mu,v,d" row per step.
func ReadStates(r io.Reader) ([]vehicle.State, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(StateHeader)
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoStates
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var states []vehicle.State
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read state: %w", err)
		}
		line, _ := cr.FieldPos(0)

		var v [5]float64
		for i, field := range rec {
			f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, StateHeader[i], err)
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("line %d: %s: non-finite value %s", line, StateHeader[i], field)
			}
			v[i] = f
		}
		states = append(states, vehicle.State{S: v[0], E: v[1], Mu: v[2], V: v[3], Steer: v[4]})
	}

	if len(states) == 0 {
		return nil, ErrNoStates
	}
	return states, nil
}

// WriteStates writes states in the format read by ReadStates.
func WriteStates(w io.Writer, states []vehicle.State) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(StateHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, st := range states {
		rec := lo.Map([]float64{st.S, st.E, st.Mu, st.V, st.Steer}, func(f float64, _ int) string {
			return strconv.FormatFloat(f, 'g', -1, 64)
		})
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write state: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Synthetic produces open-loop states at constant speed: the vehicle holds
// a fixed lateral and heading offset and advances Speed·DT per step.
type Synthetic struct {
	Speed         float64 // m/s
	DT            time.Duration
	LateralOffset float64
	HeadingOffset float64
	Steer         float64
	Steps         int
}

// States returns Steps states with s_k = Speed·DT·k.
func (g Synthetic) States() ([]vehicle.State, error) {
	if g.Steps < 0 {
		return nil, fmt.Errorf("steps must be non-negative, got %d", g.Steps)
	}
	if g.DT <= 0 {
		return nil, fmt.Errorf("time step must be positive, got %s", g.DT)
	}
	if g.Speed < 0 || math.IsNaN(g.Speed) {
		return nil, fmt.Errorf("speed must be non-negative, got %g", g.Speed)
	}

	step := g.Speed * g.DT.Seconds()
	return lo.Times(g.Steps, func(k int) vehicle.State {
		return vehicle.State{
			S:     step * float64(k),
			E:     g.LateralOffset,
			Mu:    g.HeadingOffset,
			V:     g.Speed,
			Steer: g.Steer,
		}
	}), nil
}

// SteerForCurvature returns the kinematic bicycle steer angle that follows
// a path of curvature k with the given wheelbase.
func SteerForCurvature(k, wheelbase float64) float64 {
	return math.Atan(wheelbase * k)
}
