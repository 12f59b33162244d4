package differential

import "github.com/pkg/errors"

// ErrInvalidArgument is the class of errors returned for arguments a chassis cannot act on.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrUnknownAfterMotion is returned when an after-motion action has no behavior.
var ErrUnknownAfterMotion = errors.Wrap(ErrInvalidArgument, "unknown after-motion action")

// NewUnknownAfterMotionError returns an error for an action value outside of the known set.
func NewUnknownAfterMotionError(action AfterMotion) error {
	return errors.Wrapf(ErrUnknownAfterMotion, "%d", int(action))
}

// NewInvalidRampError returns an error for a ramp whose segments do not fit in its distance.
func NewInvalidRampError(totalMm, accelMm, decelMm float64) error {
	if accelMm < 0 || decelMm < 0 {
		return errors.Wrapf(ErrInvalidArgument,
			"ramp segments cannot be negative, got accel %.2fmm and decel %.2fmm", accelMm, decelMm)
	}
	return errors.Wrapf(ErrInvalidArgument,
		"accel %.2fmm plus decel %.2fmm is longer than the total distance %.2fmm", accelMm, decelMm, totalMm)
}
