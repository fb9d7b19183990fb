package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/freefall/internal/config"
	"github.com/san-kum/freefall/internal/dynamo"
	"github.com/san-kum/freefall/internal/experiment"
	"github.com/san-kum/freefall/internal/sim"
	"github.com/san-kum/freefall/internal/storage"
)

// Scenario is a scripted sequence of drops.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one drop. Keys left out of the file keep the value of the
// named preset, or the defaults when no preset is given.
type ScenarioStep struct {
	config.Config `yaml:",inline"`
	Preset        string `yaml:"preset"`
	SaveAs        string `yaml:"save_as"`
}

func (s *ScenarioStep) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}

	base := config.DefaultConfig()
	if head.Preset != "" {
		if base = config.GetPreset(head.Preset); base == nil {
			return fmt.Errorf("unknown preset %q", head.Preset)
		}
	}

	type plain ScenarioStep
	p := plain{Config: *base}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = ScenarioStep(p)
	return nil
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// RunScenario executes the steps in order. Steps with save_as are written to
// store when it is non-nil. Results of completed steps are returned with the
// error of the first failing one.
func RunScenario(ctx context.Context, scenario *Scenario, store *storage.Store, log *slog.Logger) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		name := step.Name
		if step.SaveAs != "" {
			name = step.SaveAs
		}
		log.Info("scenario step", "scenario", scenario.Name, "step", i+1, "of", len(scenario.Steps), "name", name)

		sc, err := step.Simulation()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(name, sc, log)
		if err := exp.Setup(); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run()
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		if store != nil && step.SaveAs != "" {
			runID, err := store.Save(step.SaveAs, result)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			log.Info("scenario step saved", "id", runID)
		}

		results = append(results, result)
	}

	return results, nil
}

// MonteCarloConfig perturbs mass and drag coefficient uniformly by the given
// relative spreads around Base.
type MonteCarloConfig struct {
	Base       dynamo.Config
	MassSpread float64
	DragSpread float64
	NumTrials  int
	Seed       int64
}

type MonteCarloResult struct {
	TrialID        int
	Mass           float64
	Drag           float64
	Impacted       bool
	ImpactTime     float64
	ImpactVelocity float64
}

// Trials draws the perturbed configs. A zero seed draws from the clock.
func (c *MonteCarloConfig) Trials() []dynamo.Config {
	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	perturb := func(v, spread float64) float64 {
		return v * (1 + (rng.Float64()-0.5)*2*spread)
	}

	configs := make([]dynamo.Config, c.NumTrials)
	for i := range configs {
		cfg := c.Base
		cfg.Mass = perturb(cfg.Mass, c.MassSpread)
		cfg.DragCoefficient = perturb(cfg.DragCoefficient, c.DragSpread)
		configs[i] = cfg
	}
	return configs
}

func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, &dynamo.ConfigError{Field: "trials", Value: float64(cfg.NumTrials), Reason: "must be positive"}
	}
	if cfg.MassSpread < 0 || cfg.MassSpread >= 1 {
		return nil, &dynamo.ConfigError{Field: "mass_spread", Value: cfg.MassSpread, Reason: "must be in [0, 1)"}
	}
	if cfg.DragSpread < 0 {
		return nil, &dynamo.ConfigError{Field: "drag_spread", Value: cfg.DragSpread, Reason: "must be non-negative"}
	}

	runs, err := sim.NewEnsemble(cfg.Trials(), nil).Run(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		results[i] = MonteCarloResult{
			TrialID:        i,
			Mass:           r.Config.Mass,
			Drag:           r.Config.DragCoefficient,
			Impacted:       r.Impacted,
			ImpactTime:     r.DragFinal.Time,
			ImpactVelocity: r.DragFinal.Velocity,
		}
	}
	return results, nil
}

// MonteCarloStats summarizes impact times over the trials that landed.
type MonteCarloStats struct {
	Landed   int
	Airborne int
	MeanTime float64
	StdTime  float64
	MinTime  float64
	MaxTime  float64
}

func Stats(results []MonteCarloResult) MonteCarloStats {
	st := MonteCarloStats{MinTime: math.Inf(1), MaxTime: math.Inf(-1)}

	var sum float64
	for _, r := range results {
		if !r.Impacted {
			st.Airborne++
			continue
		}
		st.Landed++
		sum += r.ImpactTime
		st.MinTime = math.Min(st.MinTime, r.ImpactTime)
		st.MaxTime = math.Max(st.MaxTime, r.ImpactTime)
	}

	if st.Landed == 0 {
		st.MinTime, st.MaxTime = 0, 0
		return st
	}

	st.MeanTime = sum / float64(st.Landed)
	var ss float64
	for _, r := range results {
		if r.Impacted {
			d := r.ImpactTime - st.MeanTime
			ss += d * d
		}
	}
	st.StdTime = math.Sqrt(ss / float64(st.Landed))
	return st
}
