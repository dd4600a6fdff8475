// Command trackviz places a vehicle along a reference track for every step
// of a run and renders the result.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/banshee-data/trackviz/internal/config"
	"github.com/banshee-data/trackviz/internal/fsutil"
	"github.com/banshee-data/trackviz/internal/monitoring"
	"github.com/banshee-data/trackviz/internal/version"
)

var (
	configPath  = flag.String("config", config.DefaultConfigPath, "path to a .json or .yaml run configuration")
	trackFile   = flag.String("track", "", "override track.file")
	statesFile  = flag.String("states", "", "override run.states_file")
	mapperName  = flag.String("mapper", "", "override run.mapper (circular or curve)")
	outDir      = flag.String("out", "", "override output.dir")
	dbPath      = flag.String("db", "", "override output.database")
	logDiag     = flag.Bool("log-diag", false, "enable diagnostic logging")
	logTrace    = flag.Bool("log-trace", false, "enable per-step trace logging")
	showVersion = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("trackviz"))
		return
	}

	writers := monitoring.LogWriters{Ops: os.Stderr}
	if *logDiag {
		writers.Diag = os.Stderr
	}
	if *logTrace {
		writers.Trace = os.Stderr
	}
	monitoring.SetLogWriters(writers)

	cfg, err := loadConfig(*configPath, *configPath == config.DefaultConfigPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	res, err := run(fsutil.OSFileSystem{}, cfg)
	if err != nil {
		log.Fatalf("trackviz: %v", err)
	}

	log.Printf("track: %d samples, %.2f m", res.Curve.Len(), res.Curve.Length)
	log.Printf("run: %d steps in %s, %d frames rendered", res.Summary.Steps, res.Summary.Elapsed, res.Frames)
	if res.RunID != "" {
		log.Printf("recorded run %s in %s", res.RunID, cfg.Output.GetDatabase())
	}
	for _, p := range res.Outputs {
		log.Printf("✓ Created: %s", p)
	}
}

// loadConfig reads path. A missing default file falls back to built-in
// defaults; a missing explicit file is an error.
func loadConfig(path string, optional bool) (*config.Config, error) {
	if optional {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			log.Printf("config %s not found, using defaults", path)
			return config.Empty(), nil
		}
	}
	return config.Load(path)
}

func applyOverrides(cfg *config.Config) {
	if *trackFile != "" {
		cfg.Track.File = trackFile
	}
	if *statesFile != "" {
		cfg.Run.StatesFile = statesFile
	}
	if *mapperName != "" {
		cfg.Run.Mapper = mapperName
	}
	if *outDir != "" {
		cfg.Output.Dir = outDir
	}
	if *dbPath != "" {
		cfg.Output.Database = dbPath
	}
}
