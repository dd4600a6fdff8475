// Command trackgen writes a circle or ellipse reference track as CSV.
package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"

	"github.com/banshee-data/trackviz/internal/fsutil"
	"github.com/banshee-data/trackviz/internal/track"
	"github.com/banshee-data/trackviz/internal/version"
)

var (
	shape       = flag.String("shape", track.ShapeCircle, "track shape: circle or ellipse")
	radius      = flag.Float64("radius", 50, "circle radius (m)")
	semiX       = flag.Float64("a", 60, "ellipse semi-axis along x (m)")
	semiY       = flag.Float64("b", 30, "ellipse semi-axis along y (m)")
	points      = flag.Int("n", 100, "number of waypoints, including the closing point")
	output      = flag.String("o", "", "output path (default tracks/<shape>.csv)")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("trackgen"))
		return
	}

	path := *output
	if path == "" {
		path = filepath.Join("tracks", *shape+".csv")
	}
	if err := generate(fsutil.OSFileSystem{}, *shape, *radius, *semiX, *semiY, *points, path); err != nil {
		log.Fatalf("trackgen: %v", err)
	}
	log.Printf("✓ Created: %s", path)
}

func generate(fsys fsutil.FileSystem, shape string, radius, a, b float64, n int, path string) error {
	if shape == track.ShapeCircle {
		a = radius
	}
	pts, err := track.Generate(shape, a, b, n)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return track.Save(fsys, path, pts)
}
