package experiment

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/freefall/internal/dynamo"
	"github.com/san-kum/freefall/internal/metrics"
	"github.com/san-kum/freefall/internal/sim"
)

// Experiment is one named run with the default metrics attached.
type Experiment struct {
	name      string
	cfg       dynamo.Config
	simulator *sim.Simulator
	recorder  *metrics.Recorder
	log       *slog.Logger
	elapsed   time.Duration
}

func New(name string, cfg dynamo.Config, log *slog.Logger) *Experiment {
	return &Experiment{name: name, cfg: cfg, log: log}
}

// WithRecorder publishes the outcome of Run to r.
func (e *Experiment) WithRecorder(r *metrics.Recorder) *Experiment {
	e.recorder = r
	return e
}

// Setup validates the config and wires the simulator. Extra observers are
// attached after the default metrics.
func (e *Experiment) Setup(observers ...dynamo.Observer) error {
	if err := e.cfg.Validate(); err != nil {
		e.fail(err)
		return err
	}

	e.simulator = sim.NewForConfig(e.cfg)
	for _, m := range metrics.Defaults(e.cfg) {
		e.simulator.AddMetric(m)
	}
	for _, o := range observers {
		e.simulator.AddObserver(o)
	}
	return nil
}

func (e *Experiment) Run() (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	e.log.Debug("integrating",
		"name", e.name,
		"dt", e.cfg.Dt,
		"duration", e.cfg.Duration,
		"samples", e.cfg.Samples(),
		"policy", e.cfg.Policy.String(),
		"impact", e.cfg.Impact.String(),
	)

	start := time.Now()
	result, err := e.simulator.Run(e.cfg)
	e.elapsed = time.Since(start)
	if err != nil {
		e.fail(err)
		return nil, err
	}

	if e.recorder != nil {
		e.recorder.Observe(result, e.elapsed)
	}
	e.log.Info("run complete",
		"name", e.name,
		"steps", result.StepsTaken,
		"impacted", result.Impacted,
		"elapsed", e.elapsed,
	)
	return result, nil
}

func (e *Experiment) Elapsed() time.Duration { return e.elapsed }

func (e *Experiment) Name() string { return e.name }

func (e *Experiment) fail(err error) {
	if e.recorder != nil {
		e.recorder.ObserveError(e.cfg.Policy, err)
	}
	e.log.Error("run failed", "name", e.name, "err", err)
}
