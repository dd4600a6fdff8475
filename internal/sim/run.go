package sim

import (
	"fmt"
	"time"

	"github.com/golang/geo/r2"
	"github.com/samber/lo"

	"github.com/banshee-data/trackviz/internal/monitoring"
	"github.com/banshee-data/trackviz/internal/timeutil"
	"github.com/banshee-data/trackviz/internal/vehicle"
)

// FrameSink receives every placed frame in step order.
type FrameSink interface {
	WriteFrame(step int, state vehicle.State, frame vehicle.Frame) error
}

// FrameSinkFunc adapts a function to FrameSink.
type FrameSinkFunc func(step int, state vehicle.State, frame vehicle.Frame) error

// WriteFrame calls f.
func (f FrameSinkFunc) WriteFrame(step int, state vehicle.State, frame vehicle.Frame) error {
	return f(step, state, frame)
}

// Placer places one state. *vehicle.Describer satisfies it.
type Placer interface {
	PlotCar(vehicle.State) (vehicle.Frame, error)
}

// Summary describes a completed run.
type Summary struct {
	Steps      int
	Trajectory []r2.Point // rear-axle position per step
	Yaw        []float64
	Elapsed    time.Duration
}

// Runner steps states through a Placer. The zero value uses the real clock.
type Runner struct {
	Clock timeutil.Clock
}

// Run is Runner{}.Run.
func Run(p Placer, states []vehicle.State, sinks ...FrameSink) (Summary, error) {
	return Runner{}.Run(p, states, sinks...)
}

// Run places every state in order and passes the frame to each sink. The
// first error from the placer or a sink stops the run; the summary then
// covers the steps completed before it.
func (r Runner) Run(p Placer, states []vehicle.State, sinks ...FrameSink) (Summary, error) {
	clock := r.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	sinks = lo.Filter(sinks, func(s FrameSink, _ int) bool { return s != nil })

	start := clock.Now()
	sum := Summary{
		Trajectory: make([]r2.Point, 0, len(states)),
		Yaw:        make([]float64, 0, len(states)),
	}
	for step, st := range states {
		frame, err := p.PlotCar(st)
		if err != nil {
			sum.Elapsed = clock.Since(start)
			return sum, fmt.Errorf("step %d: %w", step, err)
		}
		for _, sink := range sinks {
			if err := sink.WriteFrame(step, st, frame); err != nil {
				sum.Elapsed = clock.Since(start)
				return sum, fmt.Errorf("step %d: sink: %w", step, err)
			}
		}
		sum.Steps++
		sum.Trajectory = append(sum.Trajectory, r2.Point{X: frame.X, Y: frame.Y})
		sum.Yaw = append(sum.Yaw, frame.Pose.Yaw)
	}
	sum.Elapsed = clock.Since(start)

	monitoring.Opsf("run complete: %d steps in %s", sum.Steps, sum.Elapsed)
	return sum, nil
}
