package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/freefall/internal/dynamo"
)

// Recorder publishes run outcomes as prometheus series on its own registry.
type Recorder struct {
	registry       *prometheus.Registry
	runs           *prometheus.CounterVec
	steps          prometheus.Counter
	impactTime     *prometheus.GaugeVec
	impactVelocity *prometheus.GaugeVec
	runDuration    prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "freefall_runs_total",
			Help: "Simulation runs by truncation policy and outcome.",
		}, []string{"policy", "outcome"}),
		steps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "freefall_steps_total",
			Help: "Integration steps taken across all runs.",
		}),
		impactTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "freefall_final_time_seconds",
			Help: "Reported final time of the last run per model.",
		}, []string{"model"}),
		impactVelocity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "freefall_final_velocity_mps",
			Help: "Reported final velocity of the last run per model.",
		}, []string{"model"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "freefall_run_duration_seconds",
			Help:    "Wall time spent integrating a run.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
	}
	r.registry.MustRegister(r.runs, r.steps, r.impactTime, r.impactVelocity, r.runDuration)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

func (r *Recorder) Observe(res *dynamo.Result, elapsed time.Duration) {
	outcome := "impact"
	if !res.Impacted {
		outcome = "timeout"
	}
	r.runs.WithLabelValues(res.Config.Policy.String(), outcome).Inc()
	r.steps.Add(float64(res.StepsTaken))
	r.impactTime.WithLabelValues("drag").Set(res.DragFinal.Time)
	r.impactTime.WithLabelValues("vacuum").Set(res.VacuumFinal.Time)
	r.impactVelocity.WithLabelValues("drag").Set(res.DragFinal.Velocity)
	r.impactVelocity.WithLabelValues("vacuum").Set(res.VacuumFinal.Velocity)
	r.runDuration.Observe(elapsed.Seconds())
}

// ObserveError counts a failed run under the error class.
func (r *Recorder) ObserveError(policy dynamo.TruncationPolicy, err error) {
	outcome := "error"
	switch {
	case errors.Is(err, dynamo.ErrInvalidConfig):
		outcome = "config_error"
	case errors.Is(err, dynamo.ErrNumericDomain):
		outcome = "numeric_domain_error"
	}
	r.runs.WithLabelValues(policy.String(), outcome).Inc()
}

// WriteFile writes the text exposition format, for node_exporter's textfile
// collector or later inspection.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
