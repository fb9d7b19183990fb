package dynamo

import (
	"errors"
	"fmt"
	"math"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a static parameter outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrNumericDomain indicates a drag step with a negative discriminant.
	ErrNumericDomain = errors.New("dynamo: drag step outside real domain")
)

// ConfigError reports an invalid configuration field. It is returned before
// any stepping occurs. Value is NaN for fields that are not numbers.
type ConfigError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ConfigError) Error() string {
	if math.IsNaN(e.Value) {
		return fmt.Sprintf("dynamo: invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("dynamo: invalid %s (%g): %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// NumericDomainError reports a quadratic step whose discriminant went
// negative. The configuration produced a non-physical drag magnitude.
type NumericDomainError struct {
	Velocity     float64
	Discriminant float64
}

func (e *NumericDomainError) Error() string {
	return fmt.Sprintf("dynamo: negative discriminant %g at velocity %g", e.Discriminant, e.Velocity)
}

func (e *NumericDomainError) Unwrap() error {
	return ErrNumericDomain
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
