package main

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/trackviz/internal/config"
	"github.com/banshee-data/trackviz/internal/curve"
	"github.com/banshee-data/trackviz/internal/fsutil"
	"github.com/banshee-data/trackviz/internal/render"
	"github.com/banshee-data/trackviz/internal/sim"
	"github.com/banshee-data/trackviz/internal/store"
	"github.com/banshee-data/trackviz/internal/track"
	"github.com/banshee-data/trackviz/internal/vehicle"
)

// result reports what a run produced.
type result struct {
	Summary sim.Summary
	Curve   *curve.Curve
	Frames  int    // PNG frames written
	RunID   string // empty when recording is disabled
	Outputs []string
}

// run executes one visualisation from cfg.
func run(fsys fsutil.FileSystem, cfg *config.Config) (result, error) {
	var res result

	waypoints, err := track.Load(fsys, cfg.Track.GetFile())
	if err != nil {
		return res, err
	}
	bc, err := curve.ParseBoundary(cfg.Track.GetBoundary())
	if err != nil {
		return res, err
	}

	ds := cfg.Track.GetSampleInterval()
	var c *curve.Curve
	if cfg.Track.GetCircular() {
		ct, err := curve.NewCircularTrack(waypoints, cfg.Track.GetRadius(), cfg.Track.GetWidth(), ds, bc)
		if err != nil {
			return res, fmt.Errorf("build circular track: %w", err)
		}
		c = ct.Curve
	} else {
		c, err = curve.Build(waypoints, ds, bc)
		if err != nil {
			return res, fmt.Errorf("build track: %w", err)
		}
	}
	res.Curve = c

	params, err := vehicle.ParametersFromConfig(&cfg.Vehicle)
	if err != nil {
		return res, err
	}

	var mapper vehicle.Mapper
	switch cfg.Run.GetMapper() {
	case config.MapperCurve:
		mapper = vehicle.CurveMapper{Curve: c, Lr: params.Lr}
	default:
		mapper = vehicle.CircularMapper{Radius: cfg.Track.GetRadius(), Lr: params.Lr}
	}
	describer, err := vehicle.NewDescriber(params, mapper)
	if err != nil {
		return res, err
	}

	states, err := loadStates(fsys, cfg, c, params)
	if err != nil {
		return res, err
	}

	outDir := cfg.Output.GetDir()
	if err := fsys.MkdirAll(outDir); err != nil {
		return res, fmt.Errorf("create output dir: %w", err)
	}

	var sinks []sim.FrameSink
	var plotter *render.FramePlotter
	if every := cfg.Output.GetPlotEvery(); every > 0 {
		frameDir := filepath.Join(outDir, "frames")
		if err := fsys.MkdirAll(frameDir); err != nil {
			return res, fmt.Errorf("create frame dir: %w", err)
		}
		plotter = &render.FramePlotter{
			FS:     fsys,
			Dir:    frameDir,
			Every:  every,
			Curve:  c,
			Width:  cfg.Track.GetWidth(),
			Colour: render.Colour(params.Colour),
		}
		sinks = append(sinks, plotter)
	}

	var recorder *store.Recorder
	if dbPath := cfg.Output.GetDatabase(); dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return res, err
		}
		defer st.Close()

		r, err := st.CreateRun(store.RunMeta{
			TrackFile:      cfg.Track.GetFile(),
			Mapper:         cfg.Run.GetMapper(),
			Boundary:       string(c.Boundary),
			SampleInterval: c.DS,
			CurveLength:    c.Length,
		})
		if err != nil {
			return res, err
		}
		if err := st.SaveCurve(r.ID, c); err != nil {
			return res, err
		}
		recorder, err = st.NewRecorder(r.ID)
		if err != nil {
			return res, err
		}
		res.RunID = r.ID
		sinks = append(sinks, recorder)
	}

	sum, err := sim.Run(describer, states, sinks...)
	res.Summary = sum
	if plotter != nil {
		res.Frames = plotter.Written()
	}
	if err != nil {
		if recorder != nil {
			recorder.Abort()
		}
		return res, err
	}
	if recorder != nil {
		if err := recorder.Close(); err != nil {
			return res, err
		}
	}

	trajPath := filepath.Join(outDir, "trajectory.png")
	if err := render.PlotTrajectory(fsys, trajPath, c, cfg.Track.GetWidth(), sum); err != nil {
		return res, err
	}
	profPath := filepath.Join(outDir, "curve_profile.png")
	if err := render.PlotCurveProfile(fsys, profPath, c); err != nil {
		return res, err
	}
	res.Outputs = append(res.Outputs, trajPath, profPath)

	if cfg.Output.GetHTML() {
		htmlPath := filepath.Join(outDir, "trajectory.html")
		f, err := fsys.Create(htmlPath)
		if err != nil {
			return res, fmt.Errorf("create %s: %w", htmlPath, err)
		}
		if err := render.WriteTrajectoryHTML(f, "trackviz "+filepath.Base(cfg.Track.GetFile()), c, sum); err != nil {
			f.Close()
			return res, err
		}
		if err := f.Close(); err != nil {
			return res, err
		}
		res.Outputs = append(res.Outputs, htmlPath)
	}
	return res, nil
}

// loadStates reads the states file when one is configured, otherwise it
// drives the vehicle open loop at the configured speed. Without an explicit
// steer angle the synthetic states use the kinematic steer for the track's
// mean curvature.
func loadStates(fsys fsutil.FileSystem, cfg *config.Config, c *curve.Curve, params vehicle.Parameters) ([]vehicle.State, error) {
	if path := cfg.Run.GetStatesFile(); path != "" {
		f, err := fsys.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open states file: %w", err)
		}
		defer f.Close()
		states, err := sim.ReadStates(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return states, nil
	}

	steer, ok := cfg.Run.GetSteer()
	if !ok {
		k := 1 / cfg.Track.GetRadius()
		if !cfg.Track.GetCircular() {
			k = stat.Mean(c.K, nil)
		}
		steer = sim.SteerForCurvature(k, params.Wheelbase)
	}
	return sim.Synthetic{
		Speed:         cfg.Run.GetSpeed(),
		DT:            cfg.Run.GetTimeStep(),
		LateralOffset: cfg.Run.GetLateralOffset(),
		HeadingOffset: cfg.Run.GetHeadingOffset(),
		Steer:         steer,
		Steps:         cfg.Run.GetSteps(),
	}.States()
}
