package motor

import "github.com/pkg/errors"

// NewPowerOutOfRangeError returns an error for a power outside of -100..100 percent.
func NewPowerOutOfRangeError(powerPct float64) error {
	return errors.Errorf("motor power %.2f%% is outside of [-100, 100]", powerPct)
}

// NewZeroPowerError returns an error representing a request to move a motor at zero power
// (i.e., moving the motor without moving the motor).
func NewZeroPowerError() error {
	return errors.New("cannot run a bounded motor command at 0 power")
}

// NewUnsupportedUnitError returns an error for a unit that cannot be used where it was given.
func NewUnsupportedUnitError(unit MoveUnit) error {
	return errors.Errorf("move unit %s is not supported here", unit)
}

// NewNegativeRampSegmentError returns an error for a ramp with a negative acceleration or
// deceleration amount.
func NewNegativeRampSegmentError(accel, decel float64) error {
	return errors.Errorf("ramp segments must not be negative, got accel %.2f and decel %.2f", accel, decel)
}
