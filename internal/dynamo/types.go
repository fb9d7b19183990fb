package dynamo

import (
	"fmt"
	"math"
	"strings"
)

// TruncationPolicy selects how the two series are trimmed once the drag
// series reaches the ground and which samples are reported as final.
type TruncationPolicy int

const (
	// UniformTrim keeps both series up to and including the drag impact
	// sample. Each series reports its own first impact sample.
	UniformTrim TruncationPolicy = iota
	// IndependentReport keeps the drag series up to its last pre-impact
	// sample and the vacuum series through the drag impact index. Each series
	// reports its last pre-impact sample.
	IndependentReport
)

func (p TruncationPolicy) String() string {
	switch p {
	case UniformTrim:
		return "uniform-trim"
	case IndependentReport:
		return "independent-report"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseTruncationPolicy accepts the names printed by String.
func ParseTruncationPolicy(s string) (TruncationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uniform-trim", "uniform":
		return UniformTrim, nil
	case "independent-report", "independent":
		return IndependentReport, nil
	}
	return 0, &ConfigError{Field: "policy", Value: math.NaN(), Reason: fmt.Sprintf("unknown truncation policy %q", s)}
}

// ImpactRule decides when a position counts as having reached the ground.
type ImpactRule int

const (
	// AtOrBelow treats position <= 0 as impact.
	AtOrBelow ImpactRule = iota
	// Below treats only position < 0 as impact.
	Below
)

func (r ImpactRule) String() string {
	switch r {
	case AtOrBelow:
		return "<="
	case Below:
		return "<"
	default:
		return fmt.Sprintf("rule(%d)", int(r))
	}
}

// Hit reports whether position x has reached the ground under the rule.
func (r ImpactRule) Hit(x float64) bool {
	if r == Below {
		return x < 0
	}
	return x <= 0
}

// ParseImpactRule accepts "<=", "le", "at-or-below", "<", "lt" and "below".
func ParseImpactRule(s string) (ImpactRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "<=", "le", "at-or-below":
		return AtOrBelow, nil
	case "<", "lt", "below":
		return Below, nil
	}
	return 0, &ConfigError{Field: "impact", Value: math.NaN(), Reason: fmt.Sprintf("unknown impact rule %q", s)}
}

// Config holds the immutable inputs of one run.
type Config struct {
	Dt              float64 // seconds per step
	Duration        float64 // seconds
	Mass            float64 // kg
	DragCoefficient float64 // drag force = K v^2
	Gravity         float64 // m/s^2, positive is downward
	InitialHeight   float64 // m
	Policy          TruncationPolicy
	Impact          ImpactRule
}

// DefaultConfig describes a baseball dropped from 550 ft.
func DefaultConfig() Config {
	return Config{
		Dt:              0.01,
		Duration:        10.0,
		Mass:            0.145,
		DragCoefficient: 7.9026e-4,
		Gravity:         9.81,
		InitialHeight:   167.64,
		Policy:          UniformTrim,
		Impact:          AtOrBelow,
	}
}

// maxSamples bounds Duration/Dt so the sample count fits an int everywhere.
const maxSamples = math.MaxInt32

// Validate checks every field and returns a *ConfigError for the first
// invalid one.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"dt", c.Dt},
		{"duration", c.Duration},
		{"mass", c.Mass},
		{"gravity", c.Gravity},
	}
	for _, f := range positive {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) || f.value <= 0 {
			return &ConfigError{Field: f.name, Value: f.value, Reason: "must be finite and positive"}
		}
	}
	if c.Duration/c.Dt > maxSamples {
		return &ConfigError{Field: "duration", Value: c.Duration, Reason: fmt.Sprintf("more than %d steps at dt=%g", maxSamples, c.Dt)}
	}
	if math.IsNaN(c.DragCoefficient) || math.IsInf(c.DragCoefficient, 0) || c.DragCoefficient < 0 {
		return &ConfigError{Field: "drag", Value: c.DragCoefficient, Reason: "must be finite and non-negative"}
	}
	if math.IsNaN(c.InitialHeight) || math.IsInf(c.InitialHeight, 0) || c.InitialHeight < 0 {
		return &ConfigError{Field: "height", Value: c.InitialHeight, Reason: "must be finite and non-negative"}
	}
	if c.Policy != UniformTrim && c.Policy != IndependentReport {
		return &ConfigError{Field: "policy", Value: float64(c.Policy), Reason: "unknown truncation policy"}
	}
	if c.Impact != AtOrBelow && c.Impact != Below {
		return &ConfigError{Field: "impact", Value: float64(c.Impact), Reason: "unknown impact rule"}
	}
	return nil
}

// Samples returns the maximum sample count floor(Duration/Dt), never less
// than one so the initial sample always exists.
func (c Config) Samples() int {
	n := int(math.Floor(c.Duration/c.Dt + 1e-9))
	if n < 1 {
		return 1
	}
	return n
}

// TerminalVelocity is sqrt(m g / K), or +Inf without drag.
func (c Config) TerminalVelocity() float64 {
	if c.DragCoefficient == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(c.Mass * c.Gravity / c.DragCoefficient)
}

// Sample is one (time, velocity, position) triple.
type Sample struct {
	Time     float64 `json:"time"`
	Velocity float64 `json:"velocity"`
	Position float64 `json:"position"`
}

// TimeSeries stores samples as parallel slices. Time[i] == i*Dt.
type TimeSeries struct {
	Name     string    `json:"name"`
	Time     []float64 `json:"time"`
	Velocity []float64 `json:"velocity"`
	Position []float64 `json:"position"`
}

// NewTimeSeries allocates a series with capacity for n samples.
func NewTimeSeries(name string, n int) TimeSeries {
	return TimeSeries{
		Name:     name,
		Time:     make([]float64, 0, n),
		Velocity: make([]float64, 0, n),
		Position: make([]float64, 0, n),
	}
}

func (s *TimeSeries) Append(smp Sample) {
	s.Time = append(s.Time, smp.Time)
	s.Velocity = append(s.Velocity, smp.Velocity)
	s.Position = append(s.Position, smp.Position)
}

// Truncate keeps the first n samples.
func (s *TimeSeries) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n >= s.Len() {
		return
	}
	s.Time = s.Time[:n:n]
	s.Velocity = s.Velocity[:n:n]
	s.Position = s.Position[:n:n]
}

func (s TimeSeries) Len() int { return len(s.Time) }

func (s TimeSeries) At(i int) Sample {
	return Sample{Time: s.Time[i], Velocity: s.Velocity[i], Position: s.Position[i]}
}

// Last returns the final stored sample. It panics on an empty series.
func (s TimeSeries) Last() Sample { return s.At(s.Len() - 1) }

// Stepper advances a downward velocity by one fixed step.
type Stepper interface {
	Name() string
	Step(v, dt float64) (float64, error)
}

// Metric accumulates a scalar over the retained steps of a run.
type Metric interface {
	Name() string
	Observe(step int, drag, vacuum Sample)
	Value() float64
	Reset()
}

// Observer sees every index retained in both series, in order, once the run
// has been truncated.
type Observer interface {
	OnStep(step int, drag, vacuum Sample)
}

// Result is the output of one run.
type Result struct {
	Config Config
	Drag   TimeSeries
	Vacuum TimeSeries

	// DragFinal and VacuumFinal are the reported samples chosen by the
	// truncation policy. They are not always the last array element.
	DragFinal        Sample
	VacuumFinal      Sample
	DragFinalIndex   int
	VacuumFinalIndex int

	// Impacted is false when the drag series never met the impact rule
	// within the configured duration.
	Impacted   bool
	StepsTaken int
	Metrics    map[string]float64
}
