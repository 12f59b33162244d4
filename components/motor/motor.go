// Package motor defines the drive motor capability consumed by the chassis core.
// A Motor is the hardware abstraction for one tacho motor: open-loop runs, bounded runs,
// ramped runs, braking and shaft angle feedback.
package motor

import (
	"context"
	"math"
)

// MaxPowerPct is the magnitude of full power, in percent.
const MaxPowerPct = 100.0

// MoveUnit is the unit of a bounded run.
type MoveUnit int

// Units a bounded run can be expressed in.
const (
	Rotations MoveUnit = iota
	Degrees
	Seconds
	MilliSeconds
)

func (u MoveUnit) String() string {
	switch u {
	case Rotations:
		return "rotations"
	case Degrees:
		return "degrees"
	case Seconds:
		return "seconds"
	case MilliSeconds:
		return "milliseconds"
	}
	return "unknown"
}

// IsAngular reports whether the unit measures shaft rotation rather than time.
func (u MoveUnit) IsAngular() bool {
	return u == Rotations || u == Degrees
}

// ToDegrees converts an angular amount in this unit to degrees.
func (u MoveUnit) ToDegrees(value float64) (float64, error) {
	switch u {
	case Degrees:
		return value, nil
	case Rotations:
		return value * 360, nil
	case Seconds, MilliSeconds:
	}
	return 0, NewUnsupportedUnitError(u)
}

// A Motor represents one drive motor.
//
// When pause-on-run is enabled (the default), RunFor and Ramp block until the command
// completes and Stop waits for a pending bounded command first. Callers that need to command
// several motors at once disable it, issue every command, then call PauseUntilReady on each.
type Motor interface {
	// Name returns the port or name the motor is known by.
	Name() string

	// Run sets the motor running at powerPct (-100..100) until told otherwise.
	Run(ctx context.Context, powerPct float64) error

	// RunFor runs the motor at powerPct for value units. The sign of powerPct times the sign
	// of value gives the direction.
	RunFor(ctx context.Context, powerPct, value float64, unit MoveUnit) error

	// Ramp runs a trapezoidal profile: accelerate over accel, hold powerPct for value,
	// decelerate over decel. All three amounts are in unit.
	Ramp(ctx context.Context, powerPct, value float64, unit MoveUnit, accel, decel float64) error

	// Stop stops the motor, holding position if braking is enabled, coasting otherwise.
	Stop(ctx context.Context) error

	// SetBrake selects whether a stop actively holds the shaft.
	SetBrake(ctx context.Context, brake bool) error

	// SetPauseOnRun selects whether bounded commands block until they complete.
	SetPauseOnRun(ctx context.Context, pause bool) error

	// Angle returns the shaft angle in degrees.
	Angle(ctx context.Context) (float64, error)

	// PauseUntilReady blocks until the current bounded command has completed.
	PauseUntilReady(ctx context.Context) error
}

// CheckPower returns an error if powerPct is outside -100..100.
func CheckPower(powerPct float64) error {
	if math.IsNaN(powerPct) || math.Abs(powerPct) > MaxPowerPct {
		return NewPowerOutOfRangeError(powerPct)
	}
	return nil
}
