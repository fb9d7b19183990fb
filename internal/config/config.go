package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/freefall/internal/dynamo"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultMass     = 0.145     // regulation baseball, kg
	DefaultDrag     = 7.9026e-4 // drag force = K v^2
	DefaultGravity  = 9.81
	DefaultHeight   = 167.64 // 550 ft
	DefaultPolicy   = "uniform-trim"
	DefaultImpact   = "<="
)

type Config struct {
	Name     string  `yaml:"name"`
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
	Mass     float64 `yaml:"mass"`
	Drag     float64 `yaml:"drag"`
	Gravity  float64 `yaml:"gravity"`
	Height   float64 `yaml:"height"`
	Policy   string  `yaml:"policy"`
	Impact   string  `yaml:"impact"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:     "baseball",
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Mass:     DefaultMass,
		Drag:     DefaultDrag,
		Gravity:  DefaultGravity,
		Height:   DefaultHeight,
		Policy:   DefaultPolicy,
		Impact:   DefaultImpact,
	}
}

// Load reads a YAML file over the defaults; missing keys keep their default.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto overlays the keys present in a YAML file onto cfg.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Simulation converts the file form into a validated dynamo.Config.
func (c *Config) Simulation() (dynamo.Config, error) {
	policy, err := dynamo.ParseTruncationPolicy(c.Policy)
	if err != nil {
		return dynamo.Config{}, err
	}
	impact, err := dynamo.ParseImpactRule(c.Impact)
	if err != nil {
		return dynamo.Config{}, err
	}

	sc := dynamo.Config{
		Dt:              c.Dt,
		Duration:        c.Duration,
		Mass:            c.Mass,
		DragCoefficient: c.Drag,
		Gravity:         c.Gravity,
		InitialHeight:   c.Height,
		Policy:          policy,
		Impact:          impact,
	}
	if err := sc.Validate(); err != nil {
		return dynamo.Config{}, err
	}
	return sc, nil
}

// Clone returns an independent copy, so presets are never mutated by callers.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
