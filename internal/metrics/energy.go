package metrics

import (
	"github.com/san-kum/freefall/internal/dynamo"
)

// EnergyLoss tracks the mechanical energy the drag model has lost relative to
// its starting point, measured at the latest observed drag sample.
type EnergyLoss struct {
	name    string
	mass    float64
	gravity float64
	initial float64
	current float64
	samples int
}

func NewEnergyLoss(mass, gravity float64) *EnergyLoss {
	return &EnergyLoss{
		name:    "drag_energy_loss",
		mass:    mass,
		gravity: gravity,
	}
}

func (e *EnergyLoss) Name() string { return e.name }

// Mechanical returns kinetic plus potential energy of s.
func (e *EnergyLoss) Mechanical(s dynamo.Sample) float64 {
	return 0.5*e.mass*s.Velocity*s.Velocity + e.mass*e.gravity*s.Position
}

func (e *EnergyLoss) Observe(step int, drag, vacuum dynamo.Sample) {
	energy := e.Mechanical(drag)
	if e.samples == 0 {
		e.initial = energy
	}
	e.current = energy
	e.samples++
}

func (e *EnergyLoss) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.initial - e.current
}

func (e *EnergyLoss) Reset() {
	e.initial = 0
	e.current = 0
	e.samples = 0
}

// Defaults returns the metrics attached to every CLI run.
func Defaults(cfg dynamo.Config) []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergyLoss(cfg.Mass, cfg.Gravity),
		NewPeakVelocity(),
		NewTerminalRatio(cfg.TerminalVelocity()),
	}
}
