package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trackviz/internal/curve"
	"github.com/banshee-data/trackviz/internal/sim"
	"github.com/banshee-data/trackviz/internal/timeutil"
	"github.com/banshee-data/trackviz/internal/track"
	"github.com/banshee-data/trackviz/internal/vehicle"
)

func openTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_AppliesMigrations(t *testing.T) {
	s := openTestStore(t)

	version, dirty, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	// Re-applying is a no-op.
	require.NoError(t, s.MigrateUp())
}

func TestMigrateTo_DownAndUp(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.MigrateTo(1))
	version, _, err := s.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	var n int
	err = s.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('frames') WHERE name = 'outline_json'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, s.MigrateUp())
	err = s.db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('frames') WHERE name = 'outline_json'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateRun_AndList(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s := openTestStore(t, WithClock(clock))

	first, err := s.CreateRun(RunMeta{TrackFile: "tracks/circle.csv", Mapper: "circular", Boundary: "natural", SampleInterval: 0.05})
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := s.CreateRun(RunMeta{TrackFile: "tracks/oval.csv", Mapper: "curve"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Len(t, first.ID, 36)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0])
	assert.Equal(t, second.ID, runs[1].ID)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC), runs[1].CreatedAt)
}

func TestSaveCurve_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	pts, err := track.GenerateCircle(20, 40)
	require.NoError(t, err)
	c, err := curve.Build(pts, 1, curve.Natural)
	require.NoError(t, err)

	run, err := s.CreateRun(RunMeta{CurveLength: c.Length})
	require.NoError(t, err)
	require.NoError(t, s.SaveCurve(run.ID, c))

	got, err := s.CurveSamples(run.ID)
	require.NoError(t, err)
	require.Len(t, got, c.Len())
	for i, cs := range got {
		assert.Equal(t, c.Sample(i), cs)
	}

	err = s.SaveCurve("no-such-run", c)
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRecorder_StoresFrames(t *testing.T) {
	s := openTestStore(t)
	run, err := s.CreateRun(RunMeta{Mapper: "circular"})
	require.NoError(t, err)

	params := vehicle.DefaultParameters()
	d, err := vehicle.NewDescriber(params, vehicle.CircularMapper{Radius: 50, Lr: params.Lr})
	require.NoError(t, err)
	states, err := sim.Synthetic{Speed: 5, DT: 50 * time.Millisecond, LateralOffset: 0.2, Steer: 0.05, Steps: 12}.States()
	require.NoError(t, err)

	rec, err := s.NewRecorder(run.ID)
	require.NoError(t, err)
	sum, err := sim.Run(d, states, rec)
	require.NoError(t, err)
	require.NoError(t, rec.Close())
	assert.Equal(t, 12, rec.Count())

	frames, err := s.Frames(run.ID)
	require.NoError(t, err)
	require.Len(t, frames, 12)
	for i, f := range frames {
		assert.Equal(t, i, f.Step)
		assert.Equal(t, states[i], f.State)
		assert.Equal(t, sum.Trajectory[i].X, f.Pose.X)
		assert.Equal(t, sum.Trajectory[i].Y, f.Pose.Y)
		assert.Len(t, f.Outline, 5)
		assert.True(t, f.Outline.IsClosed())
	}

	// Writing after Close fails; closing twice is fine.
	assert.Error(t, rec.WriteFrame(99, vehicle.State{}, vehicle.Frame{}))
	assert.NoError(t, rec.Close())
}

func TestRecorder_AbortDiscards(t *testing.T) {
	s := openTestStore(t)
	run, err := s.CreateRun(RunMeta{})
	require.NoError(t, err)

	rec, err := s.NewRecorder(run.ID)
	require.NoError(t, err)
	require.NoError(t, rec.WriteFrame(0, vehicle.State{S: 1}, vehicle.Frame{X: 1, Y: 2}))
	require.NoError(t, rec.Abort())

	frames, err := s.Frames(run.ID)
	require.NoError(t, err)
	assert.Empty(t, frames)

	_, err = s.NewRecorder("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestPolygonEncoding(t *testing.T) {
	p, err := decodePolygon("[]")
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = decodePolygon("not json")
	assert.Error(t, err)
}
