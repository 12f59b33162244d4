package differential

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/diffdrive/components/motor"
	rdkutils "go.viam.com/diffdrive/utils"
)

// Side names one drive side of the chassis.
type Side int

// The two drive sides.
const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// EncoderSnapshot holds both shaft angles at one moment. It is used only as a baseline for
// measuring how far each side has turned since.
type EncoderSnapshot struct {
	LeftDeg  float64
	RightDeg float64
}

// Displacement returns how far each side has turned from the snapshot, as magnitudes.
func (s EncoderSnapshot) Displacement(now EncoderSnapshot) (float64, float64) {
	return math.Abs(now.LeftDeg - s.LeftDeg), math.Abs(now.RightDeg - s.RightDeg)
}

// driveSides issues one logical command to both sides of the chassis. Commands go to the left
// side and then the right, and the right side is commanded even if the left one failed.
type driveSides struct {
	left  motor.Motor
	right motor.Motor
}

func (d driveSides) side(s Side) motor.Motor {
	if s == Left {
		return d.left
	}
	return d.right
}

// each runs f on the left side then the right side and combines the errors.
func (d driveSides) each(f func(s Side, m motor.Motor) error) error {
	var err error
	for _, s := range []Side{Left, Right} {
		if sideErr := f(s, d.side(s)); sideErr != nil {
			err = multierr.Combine(err, errors.Wrapf(sideErr, "%s motor %s", s, d.side(s).Name()))
		}
	}
	return err
}

func (d driveSides) setBrake(ctx context.Context, brake bool) error {
	return d.each(func(_ Side, m motor.Motor) error { return m.SetBrake(ctx, brake) })
}

func (d driveSides) setPauseOnRun(ctx context.Context, pause bool) error {
	return d.each(func(_ Side, m motor.Motor) error { return m.SetPauseOnRun(ctx, pause) })
}

func (d driveSides) stop(ctx context.Context) error {
	return d.each(func(_ Side, m motor.Motor) error { return m.Stop(ctx) })
}

func (d driveSides) run(ctx context.Context, leftPct, rightPct float64) error {
	return d.each(func(s Side, m motor.Motor) error {
		if s == Left {
			return m.Run(ctx, leftPct)
		}
		return m.Run(ctx, rightPct)
	})
}

// waitUntilReady waits for both sides' pending commands at the same time.
func (d driveSides) waitUntilReady(ctx context.Context) error {
	return rdkutils.RunInParallel(ctx,
		func(ctx context.Context) error {
			return errors.Wrapf(d.left.PauseUntilReady(ctx), "%s motor %s", Left, d.left.Name())
		},
		func(ctx context.Context) error {
			return errors.Wrapf(d.right.PauseUntilReady(ctx), "%s motor %s", Right, d.right.Name())
		},
	)
}

func (d driveSides) snapshot(ctx context.Context) (EncoderSnapshot, error) {
	var snap EncoderSnapshot
	err := d.each(func(s Side, m motor.Motor) error {
		angle, err := m.Angle(ctx)
		if err != nil {
			return err
		}
		if s == Left {
			snap.LeftDeg = angle
		} else {
			snap.RightDeg = angle
		}
		return nil
	})
	return snap, err
}
