package cli

import (
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/diffdrive/components/base/differential"
	"go.viam.com/diffdrive/components/motor/fake"
	"go.viam.com/diffdrive/config"
	"go.viam.com/diffdrive/logging"
	"go.viam.com/diffdrive/scheduler"
)

const defaultSteerDuration = time.Second

// defaultConfig is used for every field the config file and flags leave out.
var defaultConfig = differential.Config{
	WheelDiameterMM:            56,
	RollingAfterIntersectionMM: 60,
	RollingMoveOutMM:           50,
}

type chassis struct {
	ctrl   *differential.Controller
	sched  *scheduler.Scheduler
	left   *fake.Motor
	right  *fake.Motor
	logger logging.Logger
}

// readConfig returns the default config overlaid with the --config file and flags.
func readConfig(c *cli.Context) (differential.Config, error) {
	cfg := defaultConfig
	if path := c.String(generalFlagConfig); path != "" {
		attrs, err := config.Read(path)
		if err != nil {
			return differential.Config{}, err
		}
		if _, err := config.TransformAttributeMapToStruct(&cfg, attrs); err != nil {
			return differential.Config{}, errors.Wrapf(err, "invalid chassis config in %q", path)
		}
	}
	if c.IsSet(generalFlagWheelDiameter) {
		cfg.WheelDiameterMM = c.Float64(generalFlagWheelDiameter)
	}
	return cfg, nil
}

func newChassis(c *cli.Context) (*chassis, error) {
	var logger logging.Logger
	if c.Bool(generalFlagDebug) {
		logger = logging.NewDebugLogger("chassisctl")
	} else {
		level, err := logging.LevelFromString(c.String(generalFlagLogLevel))
		if err != nil {
			return nil, err
		}
		logger = logging.NewLogger("chassisctl")
		logger.SetLevel(level)
	}

	cfg, err := readConfig(c)
	if err != nil {
		return nil, err
	}

	sched := scheduler.New(nil)
	maxRPM := c.Float64(generalFlagMaxRPM)
	left := fake.NewMotor("left", maxRPM, sched.Clock(), logger.Sublogger("left"))
	right := fake.NewMotor("right", maxRPM, sched.Clock(), logger.Sublogger("right"))
	ctrl, err := differential.NewController(left, right, sched, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &chassis{ctrl: ctrl, sched: sched, left: left, right: right, logger: logger}, nil
}

// run builds a chassis, runs f on it and prints what the motors did, even if f failed.
func run(c *cli.Context, f func(ch *chassis) error) error {
	ch, err := newChassis(c)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(ch.logger.Sync)

	start := time.Now()
	runErr := f(ch)
	if ch.logger.GetLevel() == logging.DEBUG {
		ch.logger.Debugf("operation finished in %s", time.Since(start))
	}
	return multierr.Combine(runErr, printReport(c.Context, c.App.Writer, ch))
}

// SteerAction runs both motors open loop for --duration.
func SteerAction(c *cli.Context) error {
	return run(c, func(ch *chassis) error {
		if err := ch.ctrl.Steer(c.Context, c.Float64(moveFlagDirection), c.Float64(moveFlagSpeed)); err != nil {
			return err
		}
		return ch.sched.PauseFor(c.Context, c.Duration(moveFlagDuration))
	})
}

// StopAction stops the chassis.
func StopAction(c *cli.Context) error {
	return run(c, func(ch *chassis) error {
		return ch.ctrl.Stop(c.Context, !c.Bool(moveFlagCoast))
	})
}

// MoveAction travels --distance at --speed.
func MoveAction(c *cli.Context) error {
	return run(c, func(ch *chassis) error {
		return ch.ctrl.MoveDistance(c.Context, c.Float64(moveFlagDistance), c.Float64(moveFlagSpeed), !c.Bool(moveFlagCoast))
	})
}

// RampAction travels --distance with a trapezoidal profile.
func RampAction(c *cli.Context) error {
	return run(c, func(ch *chassis) error {
		return ch.ctrl.MoveRamped(c.Context,
			c.Float64(moveFlagDistance), c.Float64(rampFlagAccel), c.Float64(rampFlagDecel), c.Float64(moveFlagSpeed))
	})
}

// RollAction rolls --distance without stopping.
func RollAction(c *cli.Context) error {
	return run(c, func(ch *chassis) error {
		return ch.ctrl.RollOut(c.Context, c.Float64(moveFlagDistance), c.Float64(moveFlagSpeed))
	})
}

// AfterMotionAction runs the after-motion action named by the first argument.
func AfterMotionAction(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return errors.New("expected exactly one after-motion action")
	}
	action, err := differential.ParseAfterMotion(c.Args().First())
	if err != nil {
		return err
	}
	return run(c, func(ch *chassis) error {
		return ch.ctrl.AfterMotion(c.Context, c.Float64(moveFlagSpeed), action)
	})
}
