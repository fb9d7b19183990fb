package metrics

import (
	"math"

	"github.com/san-kum/freefall/internal/dynamo"
)

type PeakVelocity struct {
	name string
	peak float64
}

func NewPeakVelocity() *PeakVelocity {
	return &PeakVelocity{name: "peak_drag_velocity"}
}

func (p *PeakVelocity) Name() string { return p.name }

func (p *PeakVelocity) Observe(step int, drag, vacuum dynamo.Sample) {
	p.peak = math.Max(p.peak, drag.Velocity)
}

func (p *PeakVelocity) Value() float64 { return p.peak }

func (p *PeakVelocity) Reset() { p.peak = 0 }

// TerminalRatio is the peak drag velocity as a fraction of terminal
// velocity. It stays 0 when there is no drag.
type TerminalRatio struct {
	name     string
	terminal float64
	peak     float64
}

func NewTerminalRatio(terminal float64) *TerminalRatio {
	return &TerminalRatio{
		name:     "terminal_ratio",
		terminal: terminal,
	}
}

func (r *TerminalRatio) Name() string { return r.name }

func (r *TerminalRatio) Observe(step int, drag, vacuum dynamo.Sample) {
	r.peak = math.Max(r.peak, drag.Velocity)
}

func (r *TerminalRatio) Value() float64 {
	if r.terminal <= 0 || math.IsInf(r.terminal, 1) {
		return 0
	}
	return r.peak / r.terminal
}

func (r *TerminalRatio) Reset() { r.peak = 0 }
