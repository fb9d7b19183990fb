package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/freefall/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Name != "baseball" {
		t.Errorf("expected name baseball, got %s", cfg.Name)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}

	sc, err := cfg.Simulation()
	if err != nil {
		t.Fatalf("default config should convert: %v", err)
	}
	if sc != dynamo.DefaultConfig() {
		t.Errorf("file defaults drifted from dynamo defaults: %+v", sc)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("tower-fine")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Dt != 0.001 {
		t.Errorf("expected dt 0.001, got %f", cfg.Dt)
	}

	cfg.Dt = 1
	if Presets["tower-fine"].Dt != 0.001 {
		t.Error("GetPreset must return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}
}

func TestPresetsAreValid(t *testing.T) {
	for _, name := range ListPresets() {
		if _, err := GetPreset(name).Simulation(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drop.yaml")

	cfg := DefaultConfig()
	cfg.Height = 42
	cfg.Policy = "independent-report"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch: %+v vs %+v", loaded, cfg)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("height: 10\nimpact: \"<\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Height != 10 || cfg.Mass != DefaultMass {
		t.Errorf("unexpected config %+v", cfg)
	}

	sc, err := cfg.Simulation()
	if err != nil {
		t.Fatal(err)
	}
	if sc.Impact != dynamo.Below {
		t.Errorf("expected impact rule <, got %s", sc.Impact)
	}
}

func TestSimulationRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"zero mass", func(c *Config) { c.Mass = 0 }},
		{"negative dt", func(c *Config) { c.Dt = -1 }},
		{"unknown policy", func(c *Config) { c.Policy = "trim-everything" }},
		{"unknown impact", func(c *Config) { c.Impact = "==" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mod(cfg)
			_, err := cfg.Simulation()
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
			var ce *dynamo.ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("expected *dynamo.ConfigError, got %T", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadIntoPreset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "override.yaml")
	if err := os.WriteFile(path, []byte("height: 20\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := GetPreset("vacuum")
	if err := LoadInto(path, cfg); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Height != 20 {
		t.Errorf("expected height 20, got %v", cfg.Height)
	}
	if cfg.Drag != 0 || cfg.Name != "baseball-vacuum" {
		t.Errorf("preset values should survive the overlay: %+v", cfg)
	}
	if Presets["vacuum"].Height != DefaultHeight {
		t.Error("preset table was modified")
	}
}
