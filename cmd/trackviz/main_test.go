package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trackviz/internal/config"
	"github.com/banshee-data/trackviz/internal/curve"
	"github.com/banshee-data/trackviz/internal/fsutil"
	"github.com/banshee-data/trackviz/internal/sim"
	"github.com/banshee-data/trackviz/internal/store"
	"github.com/banshee-data/trackviz/internal/track"
	"github.com/banshee-data/trackviz/internal/vehicle"
)

func ptr[T any](v T) *T { return &v }

func writeCircle(t *testing.T, dir string) string {
	t.Helper()
	pts, err := track.GenerateCircle(20, 40)
	require.NoError(t, err)
	path := filepath.Join(dir, "circle.csv")
	require.NoError(t, track.Save(fsutil.OSFileSystem{}, path, pts))
	return path
}

// writeArc writes the first quarter of the circle as an open track.
func writeArc(t *testing.T, dir string) string {
	t.Helper()
	pts, err := track.GenerateCircle(20, 41)
	require.NoError(t, err)
	path := filepath.Join(dir, "arc.csv")
	require.NoError(t, track.Save(fsutil.OSFileSystem{}, path, pts[:11]))
	return path
}

func testConfig(dir, trackPath string) *config.Config {
	cfg := config.Empty()
	cfg.Track.File = ptr(trackPath)
	cfg.Track.SampleInterval = ptr(0.5)
	cfg.Track.Radius = ptr(20.0)
	cfg.Run.Steps = ptr(20)
	cfg.Output.Dir = ptr(filepath.Join(dir, "out"))
	cfg.Output.PlotEvery = ptr(10)
	return cfg
}

func TestRun_SyntheticCircular(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, writeCircle(t, dir))
	cfg.Output.Database = ptr(filepath.Join(dir, "runs.db"))

	res, err := run(fsutil.OSFileSystem{}, cfg)
	require.NoError(t, err)

	assert.Equal(t, 20, res.Summary.Steps)
	assert.Equal(t, 2, res.Frames)
	assert.NotEmpty(t, res.RunID)
	require.Len(t, res.Outputs, 3)
	for _, p := range res.Outputs {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Positive(t, info.Size(), p)
	}
	for _, name := range []string{"frame_00000.png", "frame_00010.png"} {
		_, err := os.Stat(filepath.Join(dir, "out", "frames", name))
		assert.NoError(t, err, name)
	}

	st, err := store.Open(*cfg.Output.Database)
	require.NoError(t, err)
	defer st.Close()

	frames, err := st.Frames(res.RunID)
	require.NoError(t, err)
	assert.Len(t, frames, 20)
	samples, err := st.CurveSamples(res.RunID)
	require.NoError(t, err)
	assert.Len(t, samples, res.Curve.Len())
}

func TestRun_StatesFileCurveMapper(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, writeCircle(t, dir))
	cfg.Track.Circular = ptr(false)
	cfg.Run.Mapper = ptr(config.MapperCurve)
	cfg.Output.PlotEvery = ptr(0)
	cfg.Output.HTML = ptr(false)

	states, err := sim.Synthetic{Speed: 4, DT: 100 * time.Millisecond, LateralOffset: -0.5, Steer: 0.1, Steps: 8}.States()
	require.NoError(t, err)
	statesPath := filepath.Join(dir, "states.csv")
	f, err := os.Create(statesPath)
	require.NoError(t, err)
	require.NoError(t, sim.WriteStates(f, states))
	require.NoError(t, f.Close())
	cfg.Run.StatesFile = ptr(statesPath)

	res, err := run(fsutil.OSFileSystem{}, cfg)
	require.NoError(t, err)

	assert.Equal(t, 8, res.Summary.Steps)
	assert.Zero(t, res.Frames)
	assert.Empty(t, res.RunID)
	assert.Len(t, res.Outputs, 2)
	_, err = os.Stat(filepath.Join(dir, "out", "frames"))
	assert.True(t, os.IsNotExist(err))

	// Negative lateral offset puts the rear axle outside the loop.
	for _, p := range res.Summary.Trajectory {
		assert.Greater(t, p.Norm(), 20.0)
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	trackPath := writeCircle(t, dir)
	arcPath := writeArc(t, dir)

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing track", func(c *config.Config) { c.Track.File = ptr(filepath.Join(dir, "nope.csv")) }},
		{"bad boundary", func(c *config.Config) { c.Track.Boundary = ptr("quintic") }},
		{"bad vehicle", func(c *config.Config) { c.Vehicle.Wheelbase = ptr(10.0) }},
		{"missing states", func(c *config.Config) { c.Run.StatesFile = ptr(filepath.Join(dir, "nope.csv")) }},
		{"curve overrun", func(c *config.Config) {
			c.Track.File = ptr(arcPath)
			c.Track.Circular = ptr(false)
			c.Run.Mapper = ptr(config.MapperCurve)
			c.Run.Steps = ptr(2000)
			c.Output.PlotEvery = ptr(0)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t.TempDir(), trackPath)
			tt.mutate(cfg)
			_, err := run(fsutil.OSFileSystem{}, cfg)
			assert.Error(t, err)
		})
	}
}

func TestRun_CurveOverrunIsExtrapolation(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, writeArc(t, dir))
	cfg.Track.Circular = ptr(false)
	cfg.Run.Mapper = ptr(config.MapperCurve)
	cfg.Run.Steps = ptr(2000)
	cfg.Output.PlotEvery = ptr(0)

	res, err := run(fsutil.OSFileSystem{}, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, curve.ErrExtrapolation)
	assert.Positive(t, res.Summary.Steps)
	assert.Less(t, res.Summary.Steps, 2000)
}

func TestLoadStates_DefaultSteer(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir, writeCircle(t, dir))
	params := vehicle.DefaultParameters()

	states, err := loadStates(fsutil.OSFileSystem{}, cfg, nil, params)
	require.NoError(t, err)
	require.Len(t, states, 20)
	assert.InDelta(t, sim.SteerForCurvature(1.0/20, params.Wheelbase), states[0].Steer, 1e-12)

	cfg.Run.Steer = ptr(0.2)
	states, err = loadStates(fsutil.OSFileSystem{}, cfg, nil, params)
	require.NoError(t, err)
	assert.Equal(t, 0.2, states[5].Steer)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"), true)
	require.NoError(t, err)
	assert.Equal(t, config.MapperCircular, cfg.Run.GetMapper())

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.json"), false)
	assert.Error(t, err)
}
