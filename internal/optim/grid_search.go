package optim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/freefall/internal/dynamo"
	"github.com/san-kum/freefall/internal/experiment"
	"github.com/san-kum/freefall/internal/logging"
)

// Objective scores a finished run; lower is better.
type Objective func(r *dynamo.Result) float64

// MetricObjective minimizes a named entry of Result.Metrics.
func MetricObjective(name string) Objective {
	return func(r *dynamo.Result) float64 {
		v, ok := r.Metrics[name]
		if !ok {
			return math.Inf(1)
		}
		return v
	}
}

// ImpactTimeObjective scores the distance of the drag impact time from target.
// Runs that never land score +Inf.
func ImpactTimeObjective(target float64) Objective {
	return func(r *dynamo.Result) float64 {
		if !r.Impacted {
			return math.Inf(1)
		}
		return math.Abs(r.DragFinal.Time - target)
	}
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	log        *slog.Logger
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, log: logging.Noop()}
}

// WithLogger reports skipped grid points at debug level.
func (g *GridSearch) WithLogger(log *slog.Logger) *GridSearch {
	g.log = log
	return g
}

// Search evaluates every combination of the grid. Combinations whose
// experiment fails to build or run are skipped and logged; an error is
// returned only if nothing could be evaluated or ctx is done.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	objective Objective,
) (map[string]float64, float64, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, fmt.Errorf("grid: %d names for %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var lastErr error

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, objective, &best, &bestParams, &lastErr)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		if lastErr != nil {
			return nil, 0, fmt.Errorf("grid: no point evaluated: %w", lastErr)
		}
		return nil, 0, fmt.Errorf("grid: no point evaluated")
	}

	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	objective Objective,
	best *float64,
	bestParams *map[string]float64,
	lastErr *error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		exp, err := buildExperiment(current)
		if err == nil {
			err = exp.Setup()
		}
		if err != nil {
			g.skip(current, err, lastErr)
			return nil
		}

		result, err := exp.Run()
		if err != nil {
			g.skip(current, err, lastErr)
			return nil
		}

		val := objective(result)
		if val < *best || (*bestParams == nil && !math.IsNaN(val)) {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, objective, best, bestParams, lastErr); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) skip(params map[string]float64, err error, lastErr *error) {
	*lastErr = err
	g.log.Debug("grid point skipped", "params", params, "err", err)
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Apply sets the named parameters on a copy of base. Known names are mass,
// drag, gravity, height and dt.
func Apply(base dynamo.Config, params map[string]float64) (dynamo.Config, error) {
	cfg := base
	for k, v := range params {
		switch k {
		case "mass":
			cfg.Mass = v
		case "drag":
			cfg.DragCoefficient = v
		case "gravity":
			cfg.Gravity = v
		case "height":
			cfg.InitialHeight = v
		case "dt":
			cfg.Dt = v
		default:
			return dynamo.Config{}, fmt.Errorf("grid: unknown parameter %q", k)
		}
	}
	return cfg, nil
}

// FitDrag scans drag coefficients in [lo, hi] with n points, then refines
// around the best one for the given number of rounds, and returns the
// coefficient whose drag impact time is closest to target.
func FitDrag(ctx context.Context, base dynamo.Config, target, lo, hi float64, n, rounds int) (float64, float64, error) {
	return FitDragWithLogger(ctx, logging.Noop(), base, target, lo, hi, n, rounds)
}

// FitDragWithLogger is FitDrag with skipped grid points reported to log.
func FitDragWithLogger(ctx context.Context, log *slog.Logger, base dynamo.Config, target, lo, hi float64, n, rounds int) (float64, float64, error) {
	if n < 2 {
		return 0, 0, &dynamo.ConfigError{Field: "points", Value: float64(n), Reason: "need at least 2"}
	}
	if lo < 0 || hi <= lo {
		return 0, 0, &dynamo.ConfigError{Field: "drag range", Value: hi - lo, Reason: "need 0 <= lo < hi"}
	}

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg, err := Apply(base, params)
		if err != nil {
			return nil, err
		}
		return experiment.New("fit", cfg, logging.Noop()), nil
	}

	var bestK, bestErr float64
	for round := 0; round <= rounds; round++ {
		params, score, err := NewGridSearch([]string{"drag"}, [][]float64{Linspace(lo, hi, n)}).
			WithLogger(log).
			Search(ctx, build, ImpactTimeObjective(target))
		if err != nil {
			return 0, 0, err
		}
		bestK, bestErr = params["drag"], score

		width := (hi - lo) / float64(n-1)
		lo, hi = math.Max(bestK-width, 0), bestK+width
	}

	return bestK, bestErr, nil
}
