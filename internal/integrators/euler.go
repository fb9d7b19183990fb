package integrators

// Euler is the explicit constant-acceleration update used for the vacuum
// model: v[i] = v[i-1] + g*dt.
type Euler struct {
	Gravity float64
}

func NewEuler(gravity float64) *Euler {
	return &Euler{Gravity: gravity}
}

func (e *Euler) Name() string { return "vacuum" }

func (e *Euler) Step(v, dt float64) (float64, error) {
	return v + e.Gravity*dt, nil
}
