// Package differential implements the motion core of a two-wheeled differential-drive chassis:
// steering mix, distance travel by shaft angle, ramped travel, rolling exits and stops.
package differential

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/diffdrive/components/motor"
	"go.viam.com/diffdrive/logging"
	"go.viam.com/diffdrive/operation"
	"go.viam.com/diffdrive/scheduler"
	rdkutils "go.viam.com/diffdrive/utils"
)

// Controller drives a pair of motors as one chassis. Every motion call blocks until its
// segment has ended; starting a new one cancels whatever is in progress.
type Controller struct {
	sides  driveSides
	sched  *scheduler.Scheduler
	cfg    Config
	logger logging.Logger

	opMgr operation.SingleOperationManager
	// mu serializes motor command sequences so a cancelled operation finishes restoring
	// its motors before the next one starts commanding them.
	mu sync.Mutex
}

// NewController returns a controller for the given motors. cfg is validated and copied.
func NewController(
	left, right motor.Motor,
	sched *scheduler.Scheduler,
	cfg Config,
	logger logging.Logger,
) (*Controller, error) {
	if err := cfg.Validate("chassis"); err != nil {
		return nil, err
	}
	if sched == nil {
		sched = scheduler.New(nil)
	}
	return &Controller{
		sides:  driveSides{left: left, right: right},
		sched:  sched,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Config returns the configuration the controller was built with.
func (c *Controller) Config() Config {
	return c.cfg
}

// Steer runs both motors open loop with the powers given by Mix. The motors keep running
// until the next command.
func (c *Controller) Steer(ctx context.Context, direction, speedPct float64) error {
	c.opMgr.CancelRunning(ctx)
	c.logger.Debugf("received a Steer with direction:%.2f, speedPct:%.2f", direction, speedPct)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.steer(ctx, direction, speedPct)
}

func (c *Controller) steer(ctx context.Context, direction, speedPct float64) error {
	l, r := Mix(direction, speedPct)
	return c.sides.run(ctx, l, r)
}

// Stop stops both motors, holding position when brakeHard is set and coasting otherwise.
// Pause-on-run is turned off for the stop itself so neither motor waits on its own pending
// command, then turned back on.
func (c *Controller) Stop(ctx context.Context, brakeHard bool) error {
	c.opMgr.CancelRunning(ctx)
	c.logger.Debugf("received a Stop with brakeHard:%t", brakeHard)

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop(ctx, brakeHard)
}

func (c *Controller) stop(ctx context.Context, brakeHard bool) error {
	return multierr.Combine(
		c.sides.setPauseOnRun(ctx, false),
		c.sides.setBrake(ctx, brakeHard),
		c.sides.stop(ctx),
		c.sides.setPauseOnRun(ctx, true),
	)
}

// MoveDistance drives both wheels distanceMm at speedPct and returns once both have finished.
// A zero distance or speed is a hard stop.
func (c *Controller) MoveDistance(ctx context.Context, distanceMm, speedPct float64, brakeHard bool) error {
	ctx, done := c.opMgr.New(ctx)
	defer done()
	c.logger.Debugf("received a MoveDistance with distanceMm:%.2f, speedPct:%.2f, brakeHard:%t",
		distanceMm, speedPct, brakeHard)

	if distanceMm == 0 || speedPct == 0 {
		return c.Stop(ctx, true)
	}

	degrees := ToDegrees(distanceMm, c.cfg.WheelDiameterMM)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sides.setBrake(ctx, brakeHard); err != nil {
		return err
	}
	return c.runBoth(ctx, func(_ Side, m motor.Motor) error {
		return m.RunFor(ctx, speedPct, degrees, motor.Degrees)
	})
}

// MoveRamped drives both wheels totalMm along a trapezoid: accelerating over accelMm,
// cruising at speedPct, then decelerating over decelMm, and holds position at the end.
// Segment lengths are rounded to whole degrees and the cruise takes up the rest of the
// rounded total, so the three pieces always add up to the rounded total.
func (c *Controller) MoveRamped(ctx context.Context, totalMm, accelMm, decelMm, speedPct float64) error {
	ctx, done := c.opMgr.New(ctx)
	defer done()
	c.logger.Debugf("received a MoveRamped with totalMm:%.2f, accelMm:%.2f, decelMm:%.2f, speedPct:%.2f",
		totalMm, accelMm, decelMm, speedPct)

	if accelMm < 0 || decelMm < 0 || accelMm+decelMm > math.Abs(totalMm) {
		return NewInvalidRampError(totalMm, accelMm, decelMm)
	}
	if totalMm == 0 || speedPct == 0 {
		return c.Stop(ctx, true)
	}

	cruiseDeg, accelDeg, decelDeg := c.rampDegrees(totalMm, accelMm, decelMm)
	c.logger.Debugf("ramp segments in degrees accel:%.0f, cruise:%.0f, decel:%.0f", accelDeg, cruiseDeg, decelDeg)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.sides.setBrake(ctx, true); err != nil {
		return err
	}
	return c.runBoth(ctx, func(_ Side, m motor.Motor) error {
		return m.Ramp(ctx, speedPct, cruiseDeg, motor.Degrees, accelDeg, decelDeg)
	})
}

// rampDegrees returns the signed cruise rotation and the accel and decel magnitudes.
func (c *Controller) rampDegrees(totalMm, accelMm, decelMm float64) (float64, float64, float64) {
	segment := func(mm float64) float64 {
		if mm == 0 {
			return 0
		}
		return rdkutils.RoundHalfUp(ToDegrees(mm, c.cfg.WheelDiameterMM))
	}
	accelDeg := segment(accelMm)
	decelDeg := segment(decelMm)
	cruiseDeg := segment(math.Abs(totalMm)) - accelDeg - decelDeg
	// Two segments that both round up can overrun the rounded total by a degree. The motor
	// cannot cruise backwards inside a forward ramp, so that degree comes off decel and the
	// pieces still add up to the rounded total, within a degree of the exact distance.
	if cruiseDeg < 0 {
		decelDeg += cruiseDeg
		cruiseDeg = 0
	}
	if totalMm < 0 {
		cruiseDeg = -cruiseDeg
	}
	return cruiseDeg, accelDeg, decelDeg
}

// runBoth issues a bounded command to both sides without waiting between them, then waits
// for both to finish. Pause-on-run is restored on the way out whatever happened.
func (c *Controller) runBoth(ctx context.Context, issue func(s Side, m motor.Motor) error) (err error) {
	if err := c.sides.setPauseOnRun(ctx, false); err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, c.sides.setPauseOnRun(context.WithoutCancel(ctx), true))
	}()

	if err := c.sides.each(issue); err != nil {
		return c.abort(ctx, err)
	}
	if err := c.sides.waitUntilReady(ctx); err != nil {
		return c.abort(ctx, err)
	}
	return nil
}

// abort stops the motors after a failed command. A cancelled operation leaves them to
// whichever operation replaced it.
func (c *Controller) abort(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return multierr.Combine(err, c.stop(context.WithoutCancel(ctx), true))
}

// RollOut drives straight at speedPct until either wheel has turned the rotation for
// distanceMm, then returns with the motors still running. No stop is issued, so a following
// line follower is not disturbed by a braking event. The wait is bounded by the configured
// poll limits; hitting one returns an error wrapping operation.ErrStalled.
func (c *Controller) RollOut(ctx context.Context, distanceMm, speedPct float64) error {
	ctx, done := c.opMgr.New(ctx)
	defer done()
	c.logger.Debugf("received a RollOut with distanceMm:%.2f, speedPct:%.2f", distanceMm, speedPct)

	if distanceMm == 0 || speedPct == 0 {
		return c.Stop(ctx, true)
	}

	target := math.Abs(ToDegrees(distanceMm, c.cfg.WheelDiameterMM))

	c.mu.Lock()
	baseline, err := c.sides.snapshot(ctx)
	if err == nil {
		err = c.steer(ctx, 0, speedPct)
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}

	var iterations int
	var traveled float64
	err = c.opMgr.PollUntil(ctx, c.sched, c.cfg.rollOutLimits(), func(ctx context.Context, dt time.Duration) (bool, error) {
		iterations++
		now, err := c.sides.snapshot(ctx)
		if err != nil {
			return false, err
		}
		l, r := baseline.Displacement(now)
		traveled = math.Max(l, r)
		return l >= target || r >= target, nil
	})
	if errors.Is(err, operation.ErrStalled) {
		c.logger.Warnw("rolling exit stalled", "target_deg", target, "traveled_deg", traveled,
			"traveled_mm", FromDegrees(traveled, c.cfg.WheelDiameterMM), "iterations", iterations)
	}
	return err
}
