package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/multierr"
)

func TestEmptyConfig_Defaults(t *testing.T) {
	cfg := Empty()

	if got := cfg.Track.GetFile(); got != "tracks/circle.csv" {
		t.Errorf("expected default track file, got %s", got)
	}
	if got := cfg.Track.GetSampleInterval(); got != 0.05 {
		t.Errorf("expected sample interval 0.05, got %v", got)
	}
	if got := cfg.Track.GetBoundary(); got != "natural" {
		t.Errorf("expected natural boundary, got %s", got)
	}
	if !cfg.Track.GetCircular() {
		t.Error("expected circular track by default")
	}
	if got := cfg.Vehicle.GetLength(); got != 4.97 {
		t.Errorf("expected length 4.97, got %v", got)
	}
	if got := cfg.Vehicle.GetWheelbase(); got != 2.96 {
		t.Errorf("expected wheelbase 2.96, got %v", got)
	}
	if got := cfg.Vehicle.GetMaxSteerDeg(); got != 33 {
		t.Errorf("expected max steer 33, got %v", got)
	}
	if got := cfg.Run.GetMapper(); got != MapperCircular {
		t.Errorf("expected circular mapper, got %s", got)
	}
	if got := cfg.Run.GetTimeStep(); got != 50*time.Millisecond {
		t.Errorf("expected 50ms time step, got %v", got)
	}
	if _, ok := cfg.Run.GetSteer(); ok {
		t.Error("expected steer to be unset")
	}
	if got := cfg.Output.GetPlotEvery(); got != 20 {
		t.Errorf("expected plot_every 20, got %d", got)
	}
	if !cfg.Output.GetHTML() {
		t.Error("expected HTML output enabled by default")
	}
	if got := cfg.Output.GetDatabase(); got != "" {
		t.Errorf("expected recording disabled, got %q", got)
	}
}

func TestLoad_JSON(t *testing.T) {
	content := `{
		"track": {"file": "tracks/oval.csv", "circular": false, "boundary": "periodic"},
		"vehicle": {"wheelbase": 2.5},
		"run": {"mapper": "curve", "steps": 10, "time_step": "100ms", "steer": 0.1},
		"output": {"html": false}
	}`
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if got := cfg.Track.GetFile(); got != "tracks/oval.csv" {
		t.Errorf("expected tracks/oval.csv, got %s", got)
	}
	if cfg.Track.GetCircular() {
		t.Error("expected circular=false")
	}
	if got := cfg.Track.GetBoundary(); got != "periodic" {
		t.Errorf("expected periodic, got %s", got)
	}
	if got := cfg.Vehicle.GetWheelbase(); got != 2.5 {
		t.Errorf("expected wheelbase 2.5, got %v", got)
	}
	// Unspecified fields keep defaults.
	if got := cfg.Vehicle.GetLength(); got != 4.97 {
		t.Errorf("expected default length, got %v", got)
	}
	if got := cfg.Run.GetTimeStep(); got != 100*time.Millisecond {
		t.Errorf("expected 100ms, got %v", got)
	}
	if steer, ok := cfg.Run.GetSteer(); !ok || steer != 0.1 {
		t.Errorf("expected steer 0.1, got %v (set=%v)", steer, ok)
	}
	if cfg.Output.GetHTML() {
		t.Error("expected html=false")
	}
}

func TestLoad_YAML(t *testing.T) {
	content := `
track:
  radius: 25
  width: 3
vehicle:
  colour: red
run:
  mapper: curve
`
	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(t.TempDir(), "run"+ext)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", ext, err)
		}
		if got := cfg.Track.GetRadius(); got != 25 {
			t.Errorf("%s: expected radius 25, got %v", ext, got)
		}
		if got := cfg.Vehicle.GetColour(); got != "red" {
			t.Errorf("%s: expected red, got %s", ext, got)
		}
		if got := cfg.Run.GetMapper(); got != MapperCurve {
			t.Errorf("%s: expected curve mapper, got %s", ext, got)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		return p
	}

	tests := []struct {
		name    string
		path    string
		wantMsg string
	}{
		{"wrong extension", write("run.toml", "x = 1"), "extension"},
		{"missing file", filepath.Join(dir, "missing.json"), "stat"},
		{"malformed json", write("bad.json", "{"), "parse"},
		{"invalid value", write("neg.json", `{"track": {"sample_interval": -1}}`), "sample_interval"},
		{"too large", write("big.json", `{"pad":"`+strings.Repeat("x", maxFileSize)+`"}`), "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	neg := -1.0
	bad := "spiral"
	badStep := "soon"
	frac := 1.5
	cfg := &Config{
		Track:   TrackConfig{SampleInterval: &neg, Boundary: &bad},
		Vehicle: VehicleConfig{Wheelbase: &neg, RearAxleFraction: &frac},
		Run:     RunConfig{Mapper: &bad, TimeStep: &badStep},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if n := len(multierr.Errors(err)); n != 6 {
		t.Errorf("expected 6 errors, got %d: %v", n, err)
	}
}

func TestValidate_EmptyIsValid(t *testing.T) {
	if err := Empty().Validate(); err != nil {
		t.Errorf("empty config should validate, got %v", err)
	}
}

func TestMustLoadDefault(t *testing.T) {
	cfg := MustLoadDefault()
	if got := cfg.Track.GetRadius(); got != 50 {
		t.Errorf("expected radius 50, got %v", got)
	}
	if got := cfg.Vehicle.GetTireDiameter(); got != 0.4826 {
		t.Errorf("expected tire diameter 0.4826, got %v", got)
	}
	if got := cfg.Run.GetSteps(); got != 400 {
		t.Errorf("expected 400 steps, got %d", got)
	}
}
