package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/freefall/internal/dynamo"
	"github.com/san-kum/freefall/internal/logging"
	"github.com/san-kum/freefall/internal/storage"
)

const scenarioYAML = `
name: heights
description: tower and a short drop
steps:
  - save_as: tower
  - preset: vacuum
    height: 20
  - height: 5
    dt: 0.001
    policy: independent-report
    save_as: short
`

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if sc.Name != "heights" || len(sc.Steps) != 3 {
		t.Fatalf("unexpected scenario %+v", sc)
	}

	tower := sc.Steps[0]
	if tower.Height != 167.64 || tower.Dt != 0.01 || tower.SaveAs != "tower" {
		t.Errorf("missing keys should keep defaults: %+v", tower.Config)
	}

	vac := sc.Steps[1]
	if vac.Drag != 0 || vac.Height != 20 || vac.Name != "baseball-vacuum" {
		t.Errorf("preset not applied under overrides: %+v", vac.Config)
	}

	short := sc.Steps[2]
	if short.Dt != 0.001 || short.Policy != "independent-report" || short.Mass != 0.145 {
		t.Errorf("unexpected step: %+v", short.Config)
	}
}

func TestParseScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no steps", "name: empty\n"},
		{"unknown preset", "steps:\n  - preset: moon\n"},
		{"bad yaml", "steps: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseScenario([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}

	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(sc.Steps) != 3 {
		t.Errorf("expected 3 steps, got %d", len(sc.Steps))
	}

	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}

	store := storage.New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, store, logging.Noop())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if math.Abs(results[0].DragFinal.Time-6.76) > 1e-9 {
		t.Errorf("tower drag impact = %v, want 6.76", results[0].DragFinal.Time)
	}
	if results[2].Config.Policy != dynamo.IndependentReport {
		t.Error("policy not carried through")
	}

	runs, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 saved runs, got %d", len(runs))
	}
}

func TestRunScenarioStopsOnInvalidStep(t *testing.T) {
	sc, err := ParseScenario([]byte("steps:\n  - height: 10\n  - mass: -1\n  - height: 20\n"))
	if err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, nil, logging.Noop())
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected the first result to be kept, got %d", len(results))
	}
}

func TestRunScenarioCancelled(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := RunScenario(ctx, sc, nil, logging.Noop()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMonteCarloDeterministic(t *testing.T) {
	cfg := &MonteCarloConfig{
		Base:       dynamo.DefaultConfig(),
		MassSpread: 0.05,
		DragSpread: 0.2,
		NumTrials:  16,
		Seed:       42,
	}

	a, err := RunMonteCarlo(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	b, err := RunMonteCarlo(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("trial %d differs with the same seed", i)
		}
		if a[i].TrialID != i {
			t.Errorf("trial %d out of order", i)
		}
		if math.Abs(a[i].Mass/0.145-1) > 0.05+1e-12 {
			t.Errorf("mass %v outside spread", a[i].Mass)
		}
	}
}

func TestMonteCarloZeroSpread(t *testing.T) {
	cfg := &MonteCarloConfig{Base: dynamo.DefaultConfig(), NumTrials: 4, Seed: 1}

	results, err := RunMonteCarlo(context.Background(), cfg)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	st := Stats(results)
	if st.Landed != 4 || st.Airborne != 0 {
		t.Fatalf("unexpected counts %+v", st)
	}
	if math.Abs(st.MeanTime-6.76) > 1e-9 || st.StdTime > 1e-12 {
		t.Errorf("unexpected stats %+v", st)
	}
	if st.MinTime != st.MaxTime {
		t.Errorf("min and max should agree: %+v", st)
	}
}

func TestMonteCarloInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  MonteCarloConfig
	}{
		{"no trials", MonteCarloConfig{Base: dynamo.DefaultConfig()}},
		{"mass spread", MonteCarloConfig{Base: dynamo.DefaultConfig(), NumTrials: 1, MassSpread: 1}},
		{"drag spread", MonteCarloConfig{Base: dynamo.DefaultConfig(), NumTrials: 1, DragSpread: -0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RunMonteCarlo(context.Background(), &tt.cfg); !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestStatsNoneLanded(t *testing.T) {
	st := Stats([]MonteCarloResult{{Impacted: false}, {Impacted: false}})
	if st.Airborne != 2 || st.Landed != 0 || st.MinTime != 0 || st.MaxTime != 0 {
		t.Errorf("unexpected stats %+v", st)
	}
}
