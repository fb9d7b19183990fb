package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/freefall/internal/dynamo"
)

func TestQuadraticDrag_RootSatisfiesStepEquation(t *testing.T) {
	q := NewQuadraticDrag(9.81, 0.145, 7.9026e-4)
	dt := 0.01

	for _, v0 := range []float64{0, 1, 10, 30, 42} {
		v, err := q.Step(v0, dt)
		if err != nil {
			t.Fatalf("step from %v failed: %v", v0, err)
		}

		a, b, c := q.Coefficients(v0, dt)
		residual := a*v*v + b*v + c
		if math.Abs(residual) > 1e-9 {
			t.Errorf("v0=%v: residual %e too large", v0, residual)
		}

		textbook := (-b - math.Sqrt(b*b-4*a*c)) / (2 * a)
		if math.Abs(v-textbook) > 1e-9 {
			t.Errorf("v0=%v: got %.12f, textbook root %.12f", v0, v, textbook)
		}
	}
}

func TestQuadraticDrag_ApproachesTerminalVelocity(t *testing.T) {
	mass, gravity, drag := 0.145, 9.81, 7.9026e-4
	q := NewQuadraticDrag(gravity, mass, drag)
	vt := math.Sqrt(mass * gravity / drag)
	dt := 0.01

	v := 0.0
	for i := 0; i < 5000; i++ {
		next, err := q.Step(v, dt)
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		if next < v {
			t.Fatalf("velocity decreased at step %d: %v -> %v", i, v, next)
		}
		if next > vt+gravity*dt {
			t.Fatalf("velocity %v exceeds terminal %v by more than one step", next, vt)
		}
		v = next
	}

	if math.Abs(v-vt) > 1e-6 {
		t.Errorf("expected convergence to %.6f, got %.6f", vt, v)
	}
}

func TestQuadraticDrag_ZeroDragMatchesEuler(t *testing.T) {
	q := NewQuadraticDrag(9.81, 0.145, 0)
	e := NewEuler(9.81)
	dt := 0.001

	vq, ve := 0.0, 0.0
	for i := 0; i < 10000; i++ {
		var err error
		vq, err = q.Step(vq, dt)
		if err != nil {
			t.Fatalf("step %d failed: %v", i, err)
		}
		ve, _ = e.Step(ve, dt)
	}

	if math.Abs(vq-ve) > 1e-8 {
		t.Errorf("zero drag diverged from vacuum: %.12f vs %.12f", vq, ve)
	}
}

func TestQuadraticDrag_NegativeDiscriminant(t *testing.T) {
	q := NewQuadraticDrag(9.81, 1, 2)

	_, err := q.Step(10, 1)
	if !errors.Is(err, dynamo.ErrNumericDomain) {
		t.Fatalf("expected ErrNumericDomain, got %v", err)
	}

	var nde *dynamo.NumericDomainError
	if !errors.As(err, &nde) {
		t.Fatalf("expected *NumericDomainError, got %T", err)
	}
	if nde.Discriminant >= 0 {
		t.Errorf("expected negative discriminant, got %v", nde.Discriminant)
	}
}

func TestEuler_ClosedForm(t *testing.T) {
	e := NewEuler(9.81)
	v := 0.0
	for i := 1; i <= 100; i++ {
		v, _ = e.Step(v, 0.5)
		if math.Abs(v-float64(i)*9.81*0.5) > 1e-9 {
			t.Fatalf("step %d: got %v", i, v)
		}
	}
}
