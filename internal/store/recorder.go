package store

import (
	"database/sql"
	"fmt"

	"github.com/banshee-data/trackviz/internal/monitoring"
	"github.com/banshee-data/trackviz/internal/vehicle"
)

// Recorder is a sim.FrameSink that writes one frames row per step inside a
// single transaction. Nothing is visible to other queries until Close.
// The store allows one connection, so finish the recorder before querying.
type Recorder struct {
	runID string
	tx    *sql.Tx
	stmt  *sql.Stmt
	count int
}

// NewRecorder starts recording frames for runID.
func (s *Store) NewRecorder(runID string) (*Recorder, error) {
	if err := s.checkRun(runID); err != nil {
		return nil, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO frames (run_id, step, s, e, mu, v, steer, x, y, yaw, outline_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("prepare: %w", err)
	}
	return &Recorder{runID: runID, tx: tx, stmt: stmt}, nil
}

// WriteFrame implements sim.FrameSink.
func (r *Recorder) WriteFrame(step int, st vehicle.State, f vehicle.Frame) error {
	if r.tx == nil {
		return fmt.Errorf("recorder for run %s is closed", r.runID)
	}
	outline, err := encodePolygon(f.Outline)
	if err != nil {
		return fmt.Errorf("encode outline: %w", err)
	}
	if _, err := r.stmt.Exec(r.runID, step, st.S, st.E, st.Mu, st.V, st.Steer, f.X, f.Y, f.Pose.Yaw, outline); err != nil {
		return fmt.Errorf("insert frame %d: %w", step, err)
	}
	r.count++
	return nil
}

// Count returns the number of frames written.
func (r *Recorder) Count() int { return r.count }

// Close commits the recorded frames.
func (r *Recorder) Close() error {
	if r.tx == nil {
		return nil
	}
	r.stmt.Close()
	err := r.tx.Commit()
	r.tx = nil
	if err != nil {
		return fmt.Errorf("commit frames: %w", err)
	}
	monitoring.Diagf("recorded %d frames for run %s", r.count, r.runID)
	return nil
}

// Abort discards the recorded frames.
func (r *Recorder) Abort() error {
	if r.tx == nil {
		return nil
	}
	r.stmt.Close()
	err := r.tx.Rollback()
	r.tx = nil
	return err
}
