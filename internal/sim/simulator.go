package sim

import (
	"github.com/san-kum/freefall/internal/dynamo"
	"github.com/san-kum/freefall/internal/integrators"
)

// Simulator steps a drag model and a vacuum model side by side from rest.
type Simulator struct {
	drag      dynamo.Stepper
	vacuum    dynamo.Stepper
	metrics   []dynamo.Metric
	observers []dynamo.Observer
}

func New(drag, vacuum dynamo.Stepper) *Simulator {
	return &Simulator{
		drag:      drag,
		vacuum:    vacuum,
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

// NewForConfig wires the quadratic drag and explicit vacuum steppers for cfg.
func NewForConfig(cfg dynamo.Config) *Simulator {
	return New(
		integrators.NewQuadraticDrag(cfg.Gravity, cfg.Mass, cfg.DragCoefficient),
		integrators.NewEuler(cfg.Gravity),
	)
}

// Integrate runs cfg with the default steppers. It is a pure function of
// cfg: equal inputs give bit-identical series.
func Integrate(cfg dynamo.Config) (*dynamo.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewForConfig(cfg).Run(cfg)
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Run(cfg dynamo.Config) (*dynamo.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.Samples()
	dt := cfg.Dt
	result := &dynamo.Result{
		Config:  cfg,
		Drag:    dynamo.NewTimeSeries("drag", n),
		Vacuum:  dynamo.NewTimeSeries("vacuum", n),
		Metrics: make(map[string]float64),
	}

	start := dynamo.Sample{Time: 0, Velocity: 0, Position: cfg.InitialHeight}
	result.Drag.Append(start)
	result.Vacuum.Append(start)

	// a release on the ground is an impact under either rule
	impact := -1
	if start.Position <= 0 {
		impact = 0
	}

	drag, vacuum := start, start
	for i := 1; i < n && impact < 0; i++ {
		t := float64(i) * dt

		vv, err := s.vacuum.Step(vacuum.Velocity, dt)
		if err != nil {
			return nil, &dynamo.SimulationError{Step: i, Time: t, Wrapped: err}
		}
		vd, err := s.drag.Step(drag.Velocity, dt)
		if err != nil {
			return nil, &dynamo.SimulationError{Step: i, Time: t, Wrapped: err}
		}

		vacuum = dynamo.Sample{Time: t, Velocity: vv, Position: vacuum.Position - vv*dt}
		drag = dynamo.Sample{Time: t, Velocity: vd, Position: drag.Position - vd*dt}

		result.Drag.Append(drag)
		result.Vacuum.Append(vacuum)
		result.StepsTaken++

		if cfg.Impact.Hit(drag.Position) {
			impact = i
		}
	}

	result.Impacted = impact >= 0
	applyPolicy(result, impact)
	s.observeRetained(result)

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	result.Metrics["impact_delay"] = result.DragFinal.Time - result.VacuumFinal.Time

	return result, nil
}

// observeRetained feeds metrics and observers the indices kept in both
// series after truncation, so no trimmed sample reaches them.
func (s *Simulator) observeRetained(r *dynamo.Result) {
	for _, m := range s.metrics {
		m.Reset()
	}

	n := min(r.Drag.Len(), r.Vacuum.Len())
	for i := 0; i < n; i++ {
		drag, vacuum := r.Drag.At(i), r.Vacuum.At(i)
		for _, m := range s.metrics {
			m.Observe(i, drag, vacuum)
		}
		for _, obs := range s.observers {
			obs.OnStep(i, drag, vacuum)
		}
	}
}

// applyPolicy trims the series and selects the reported final samples.
// impact is the drag impact index, or -1 if the drag series never landed.
func applyPolicy(r *dynamo.Result, impact int) {
	rule := r.Config.Impact

	switch r.Config.Policy {
	case dynamo.IndependentReport:
		if impact > 0 {
			r.Drag.Truncate(impact)
		}
		r.DragFinalIndex = lastClear(r.Drag, rule)
		r.VacuumFinalIndex = lastClear(r.Vacuum, rule)
	default:
		r.DragFinalIndex = r.Drag.Len() - 1
		r.VacuumFinalIndex = firstHit(r.Vacuum, rule)
	}

	r.DragFinal = r.Drag.At(r.DragFinalIndex)
	r.VacuumFinal = r.Vacuum.At(r.VacuumFinalIndex)
}

// firstHit returns the first index meeting rule, or the last index.
func firstHit(s dynamo.TimeSeries, rule dynamo.ImpactRule) int {
	for i, x := range s.Position {
		if rule.Hit(x) {
			return i
		}
	}
	return s.Len() - 1
}

// lastClear returns the last index before the first one meeting rule. Index
// 0 is returned when the series starts on the ground.
func lastClear(s dynamo.TimeSeries, rule dynamo.ImpactRule) int {
	for i, x := range s.Position {
		if rule.Hit(x) {
			if i == 0 {
				return 0
			}
			return i - 1
		}
	}
	return s.Len() - 1
}
