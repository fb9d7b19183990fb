package integrators

import (
	"math"

	"github.com/san-kum/freefall/internal/dynamo"
)

// QuadraticDrag advances the velocity of a body falling under
// y'' = g - (K/M) y'^2 by solving, at every step, the quadratic
//
//	a v^2 + b v + c = 0
//	a = -K/(2M), b = -1/dt, c = g + a v0^2 + v0/dt
//
// for the new velocity v. The root taken is (-b - sqrt(b^2-4ac)) / (2a),
// evaluated in the equivalent form 2c / (-b + sqrt(b^2-4ac)) so that K = 0
// reduces to the vacuum update instead of dividing by zero.
type QuadraticDrag struct {
	Gravity float64
	Mass    float64
	Drag    float64
}

func NewQuadraticDrag(gravity, mass, drag float64) *QuadraticDrag {
	return &QuadraticDrag{Gravity: gravity, Mass: mass, Drag: drag}
}

func (q *QuadraticDrag) Name() string { return "drag" }

// Coefficients returns a, b and c for a step from velocity v.
func (q *QuadraticDrag) Coefficients(v, dt float64) (a, b, c float64) {
	a = -q.Drag / (2 * q.Mass)
	b = -1 / dt
	c = q.Gravity + a*v*v + v/dt
	return a, b, c
}

func (q *QuadraticDrag) Step(v, dt float64) (float64, error) {
	a, b, c := q.Coefficients(v, dt)

	disc := b*b - 4*a*c
	if disc < 0 || math.IsNaN(disc) {
		return 0, &dynamo.NumericDomainError{Velocity: v, Discriminant: disc}
	}

	return 2 * c / (-b + math.Sqrt(disc)), nil
}
