// Package dynamo provides core primitives for the falling-body simulation.
//
// The package defines the value types passed between the integrator and its
// consumers:
//
//   - [Config]: immutable physical parameters and stepping configuration
//   - [TimeSeries]: equally spaced (time, velocity, position) samples
//   - [Result]: the drag and vacuum series plus their reported final samples
//   - [Stepper]: per-step velocity solver interface
//   - [Metric], [Observer]: hooks driven once per retained step
//
// Position is height above ground and decreases over time. Velocity is the
// downward speed and is never negative for a body released from rest.
//
// # Truncation
//
// A run stops once the drag series meets the configured [ImpactRule]. How the
// two series are trimmed and which samples are reported as "final" is set by
// the [TruncationPolicy].
//
// # Thread Safety
//
// All types are plain values. A [Result] is read-only once returned.
package dynamo
