package sim

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/freefall/internal/dynamo"
)

// Ensemble runs independent configurations concurrently. Every run is still
// a single-threaded pure integration; only distinct runs overlap.
type Ensemble struct {
	configs    []dynamo.Config
	newMetrics func() []dynamo.Metric
	limit      int
}

// NewEnsemble prepares one run per config. newMetrics may be nil; when set it
// is called once per run so metric state is never shared between goroutines.
func NewEnsemble(configs []dynamo.Config, newMetrics func() []dynamo.Metric) *Ensemble {
	return &Ensemble{configs: configs, newMetrics: newMetrics, limit: runtime.GOMAXPROCS(0)}
}

// WithLimit caps the number of runs in flight. n <= 0 removes the cap.
func (e *Ensemble) WithLimit(n int) *Ensemble {
	e.limit = n
	return e
}

// Run returns results in the order of the configs. The first error in that
// order is returned and the results are discarded.
func (e *Ensemble) Run(ctx context.Context) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(e.configs))
	errs := make([]error, len(e.configs))

	var g errgroup.Group
	if e.limit > 0 {
		g.SetLimit(e.limit)
	}
	for i := range e.configs {
		idx := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[idx] = err
				return nil
			}

			cfg := e.configs[idx]
			if err := cfg.Validate(); err != nil {
				errs[idx] = err
				return nil
			}

			s := NewForConfig(cfg)
			if e.newMetrics != nil {
				for _, m := range e.newMetrics() {
					s.AddMetric(m)
				}
			}

			results[idx], errs[idx] = s.Run(cfg)
			return nil
		})
	}

	// errors are collected per index so the reported one does not depend on scheduling
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// HeightSweep copies base once per height.
func HeightSweep(base dynamo.Config, heights []float64) []dynamo.Config {
	configs := make([]dynamo.Config, len(heights))
	for i, h := range heights {
		cfg := base
		cfg.InitialHeight = h
		configs[i] = cfg
	}
	return configs
}
