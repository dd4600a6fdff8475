package track

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"

	"github.com/banshee-data/trackviz/internal/fsutil"
)

// Header is the column row written at the top of every track file.
var Header = []string{"X-axis", "Y-axis"}

// ErrNoWaypoints is returned for a track file without data rows.
var ErrNoWaypoints = errors.New("track file has no waypoints")

// Read parses a track file. The first row is treated as a header and
// skipped; every following row must hold exactly two numbers.
func Read(r io.Reader) ([]r2.Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoWaypoints
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var pts []r2.Point
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read waypoint: %w", err)
		}
		line, _ := cr.FieldPos(0)

		x, err := parseCoord(rec[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: x: %w", line, err)
		}
		y, err := parseCoord(rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: y: %w", line, err)
		}
		pts = append(pts, r2.Point{X: x, Y: y})
	}

	if len(pts) == 0 {
		return nil, ErrNoWaypoints
	}
	return pts, nil
}

func parseCoord(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// Write emits the header followed by one row per point. Values are written
// with the shortest representation that parses back exactly.
func Write(w io.Writer, pts []r2.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range pts {
		rec := []string{
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write waypoint: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Load reads the track file at path.
func Load(fsys fsutil.FileSystem, path string) ([]r2.Point, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open track file: %w", err)
	}
	defer f.Close()

	pts, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pts, nil
}

// Save writes pts to path, replacing any existing file.
func Save(fsys fsutil.FileSystem, path string, pts []r2.Point) error {
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create track file: %w", err)
	}
	if err := Write(f, pts); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
