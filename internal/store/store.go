// Package store records runs in a SQLite database: the run metadata, the
// resampled reference curve and one row per placed frame.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/trackviz/internal/curve"
	"github.com/banshee-data/trackviz/internal/geom"
	"github.com/banshee-data/trackviz/internal/monitoring"
	"github.com/banshee-data/trackviz/internal/timeutil"
	"github.com/banshee-data/trackviz/internal/vehicle"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Store wraps the run database.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for run timestamps.
func WithClock(c timeutil.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open opens (creating if needed) the database at path and applies pending
// migrations.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer; the recorder holds its transaction on this connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}

	s := &Store{db: db, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	monitoring.Diagf("opened run store %s", path)
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunMeta describes how a run was configured.
type RunMeta struct {
	TrackFile      string
	Mapper         string
	Boundary       string
	SampleInterval float64
	CurveLength    float64
}

// Run is a recorded run.
type Run struct {
	ID        string
	CreatedAt time.Time
	RunMeta
}

// CreateRun inserts a new run with a fresh id.
func (s *Store) CreateRun(meta RunMeta) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		CreatedAt: s.clock.Now().UTC(),
		RunMeta:   meta,
	}
	_, err := s.db.Exec(`
		INSERT INTO runs (run_id, created_unix_ns, track_file, mapper, boundary, sample_interval, curve_length)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UnixNano(), meta.TrackFile, meta.Mapper, meta.Boundary, meta.SampleInterval, meta.CurveLength,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Runs lists recorded runs, oldest first.
func (s *Store) Runs() ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, created_unix_ns, track_file, mapper, boundary, sample_interval, curve_length
		FROM runs ORDER BY created_unix_ns, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var ns int64
		if err := rows.Scan(&r.ID, &ns, &r.TrackFile, &r.Mapper, &r.Boundary, &r.SampleInterval, &r.CurveLength); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.Unix(0, ns).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SaveCurve stores every sample of c against runID.
func (s *Store) SaveCurve(runID string, c *curve.Curve) error {
	if err := s.checkRun(runID); err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO curve_samples (run_id, idx, s, x, y, yaw, k) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < c.Len(); i++ {
		if _, err := stmt.Exec(runID, i, c.S[i], c.X[i], c.Y[i], c.Yaw[i], c.K[i]); err != nil {
			return fmt.Errorf("insert sample %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	monitoring.Diagf("stored %d curve samples for run %s", c.Len(), runID)
	return nil
}

// CurveSamples reads back the samples stored for runID in index order.
func (s *Store) CurveSamples(runID string) ([]curve.Sample, error) {
	rows, err := s.db.Query(`SELECT idx, s, x, y, yaw, k FROM curve_samples WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("query curve samples: %w", err)
	}
	defer rows.Close()

	var out []curve.Sample
	for rows.Next() {
		var cs curve.Sample
		if err := rows.Scan(&cs.Index, &cs.S, &cs.X, &cs.Y, &cs.Yaw, &cs.K); err != nil {
			return nil, fmt.Errorf("scan curve sample: %w", err)
		}
		out = append(out, cs)
	}
	return out, rows.Err()
}

// FrameRecord is one stored step.
type FrameRecord struct {
	Step    int
	State   vehicle.State
	Pose    vehicle.Pose
	Outline geom.Polygon
}

// Frames reads back the frames of runID in step order.
func (s *Store) Frames(runID string) ([]FrameRecord, error) {
	rows, err := s.db.Query(`
		SELECT step, s, e, mu, v, steer, x, y, yaw, outline_json
		FROM frames WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var out []FrameRecord
	for rows.Next() {
		var f FrameRecord
		var outline string
		if err := rows.Scan(&f.Step, &f.State.S, &f.State.E, &f.State.Mu, &f.State.V, &f.State.Steer,
			&f.Pose.X, &f.Pose.Y, &f.Pose.Yaw, &outline); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		f.Pose.V = f.State.V
		f.Pose.Steer = f.State.Steer
		if f.Outline, err = decodePolygon(outline); err != nil {
			return nil, fmt.Errorf("frame %d outline: %w", f.Step, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) checkRun(runID string) error {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return fmt.Errorf("look up run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func encodePolygon(p geom.Polygon) (string, error) {
	pairs := make([][2]float64, len(p))
	for i, v := range p {
		pairs[i] = [2]float64{v.X, v.Y}
	}
	b, err := json.Marshal(pairs)
	return string(b), err
}

func decodePolygon(s string) (geom.Polygon, error) {
	var pairs [][2]float64
	if err := json.Unmarshal([]byte(s), &pairs); err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	p := make(geom.Polygon, len(pairs))
	for i, v := range pairs {
		p[i].X, p[i].Y = v[0], v[1]
	}
	return p, nil
}
