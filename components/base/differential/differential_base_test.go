package differential

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/diffdrive/components/motor/fake"
	"go.viam.com/diffdrive/logging"
	"go.viam.com/diffdrive/operation"
	"go.viam.com/diffdrive/scheduler"
)

func TestNewController(t *testing.T) {
	rec := newRecorder()
	_, err := NewController(rec.motor("left"), rec.motor("right"), nil, Config{}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "wheel_diameter_mm")

	c, err := NewController(rec.motor("left"), rec.motor("right"), nil, testConfig, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Config(), test.ShouldResemble, testConfig)
	test.That(t, rec.Calls(), test.ShouldBeEmpty)
}

func TestSteer(t *testing.T) {
	ctx := context.Background()
	c, rec := newTestController(t, testConfig)

	test.That(t, c.Steer(ctx, 50, 50), test.ShouldBeNil)
	test.That(t, c.Steer(ctx, 0, 0), test.ShouldBeNil)
	test.That(t, rec.Calls(), test.ShouldResemble, []string{
		"left.Run(50.00)", "right.Run(0.00)",
		"left.Run(0.00)", "right.Run(0.00)",
	})
}

func TestStop(t *testing.T) {
	ctx := context.Background()

	t.Run("hard", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		test.That(t, c.Stop(ctx, true), test.ShouldBeNil)
		test.That(t, rec.Calls(), test.ShouldResemble, stopCalls(true))
	})

	t.Run("coast", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		test.That(t, c.Stop(ctx, false), test.ShouldBeNil)
		test.That(t, rec.Calls(), test.ShouldResemble, stopCalls(false))
	})

	t.Run("every step is attempted", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		rec.errs["left.Stop"] = errors.New("stall")
		err := c.Stop(ctx, true)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "left motor left: stall")
		test.That(t, rec.Calls(), test.ShouldResemble, stopCalls(true))
	})
}

func TestMoveDistance(t *testing.T) {
	ctx := context.Background()

	t.Run("both wheels are commanded before either is awaited", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		rec.release = make(chan struct{})

		done := make(chan error, 1)
		go func() {
			done <- c.MoveDistance(ctx, 300, 60, true)
		}()

		<-rec.waitStarted
		select {
		case <-done:
			t.Fatal("MoveDistance returned before the motors finished")
		case <-time.After(20 * time.Millisecond):
		}
		close(rec.release)
		test.That(t, <-done, test.ShouldBeNil)

		// (300 / (pi * 56)) * 360
		test.That(t, rec.Calls(), test.ShouldResemble, sequence(
			both("SetBrake(true)"),
			both("SetPauseOnRun(false)"),
			both("RunFor(60.00, 613.88, degrees)"),
			both("SetPauseOnRun(true)"),
		))
		test.That(t, rec.Waits(), test.ShouldResemble, []int{6, 6})
	})

	t.Run("coast", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		test.That(t, c.MoveDistance(ctx, -100, 40, false), test.ShouldBeNil)
		test.That(t, rec.Calls(), test.ShouldResemble, sequence(
			both("SetBrake(false)"),
			both("SetPauseOnRun(false)"),
			both("RunFor(40.00, -204.63, degrees)"),
			both("SetPauseOnRun(true)"),
		))
	})

	t.Run("zero distance or speed is a hard stop", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		test.That(t, c.MoveDistance(ctx, 0, 60, false), test.ShouldBeNil)
		test.That(t, rec.Calls(), test.ShouldResemble, stopCalls(true))

		c, rec = newTestController(t, testConfig)
		test.That(t, c.MoveDistance(ctx, 300, 0, false), test.ShouldBeNil)
		test.That(t, rec.Calls(), test.ShouldResemble, stopCalls(true))
	})

	t.Run("a failed command stops the chassis", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		rec.errs["left.RunFor"] = errors.New("port disconnected")

		err := c.MoveDistance(ctx, 300, 60, true)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "port disconnected")
		test.That(t, rec.Calls(), test.ShouldResemble, sequence(
			both("SetBrake(true)"),
			both("SetPauseOnRun(false)"),
			both("RunFor(60.00, 613.88, degrees)"),
			stopCalls(true),
			both("SetPauseOnRun(true)"),
		))
		test.That(t, rec.Waits(), test.ShouldBeEmpty)
	})

	t.Run("a new command takes over without a stop", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		rec.release = make(chan struct{})

		done := make(chan error, 1)
		go func() {
			done <- c.MoveDistance(ctx, 300, 60, true)
		}()
		<-rec.waitStarted

		test.That(t, c.Steer(ctx, 0, 30), test.ShouldBeNil)
		test.That(t, errors.Is(<-done, context.Canceled), test.ShouldBeTrue)
		test.That(t, rec.Calls(), test.ShouldResemble, sequence(
			both("SetBrake(true)"),
			both("SetPauseOnRun(false)"),
			both("RunFor(60.00, 613.88, degrees)"),
			both("SetPauseOnRun(true)"),
			both("Run(30.00)"),
		))
	})
}

func TestMoveRamped(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name                   string
		total, accel, decel, s float64
		ramp                   string
	}{
		// 100mm is 204.63 degrees and 300mm is 613.88 degrees
		{"rounded segments", 300, 100, 100, 60, "Ramp(60.00, 204.00, degrees, 205.00, 205.00)"},
		{"no acceleration", 60, 0, 30, 50, "Ramp(50.00, 62.00, degrees, 0.00, 61.00)"},
		{"backwards", -300, 100, 100, 60, "Ramp(60.00, -204.00, degrees, 205.00, 205.00)"},
		// 15mm rounds up to 31 degrees twice while 30mm rounds to 61
		{"segments fill the distance", 30, 15, 15, 60, "Ramp(60.00, 0.00, degrees, 31.00, 30.00)"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestController(t, testConfig)
			test.That(t, c.MoveRamped(ctx, tc.total, tc.accel, tc.decel, tc.s), test.ShouldBeNil)
			test.That(t, rec.Calls(), test.ShouldResemble, sequence(
				both("SetBrake(true)"),
				both("SetPauseOnRun(false)"),
				both(tc.ramp),
				both("SetPauseOnRun(true)"),
			))
			test.That(t, rec.Waits(), test.ShouldResemble, []int{6, 6})
		})
	}

	t.Run("segments add up to the rounded total", func(t *testing.T) {
		c, _ := newTestController(t, testConfig)
		for total := 10.0; total <= 500; total += 7 {
			for _, frac := range []float64{0, 0.1, 0.25, 0.5} {
				cruise, accel, decel := c.rampDegrees(total, total*frac, total*frac)
				rounded := float64(int(ToDegrees(total, testConfig.WheelDiameterMM) + 0.5))
				test.That(t, cruise+accel+decel, test.ShouldEqual, rounded)
				test.That(t, cruise, test.ShouldBeGreaterThanOrEqualTo, 0)
				test.That(t, decel, test.ShouldBeGreaterThanOrEqualTo, 0)
			}
		}
	})

	t.Run("segments longer than the distance", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		err := c.MoveRamped(ctx, 100, 60, 60, 50)
		test.That(t, errors.Is(err, ErrInvalidArgument), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "longer than the total distance")

		err = c.MoveRamped(ctx, 100, -10, 0, 50)
		test.That(t, errors.Is(err, ErrInvalidArgument), test.ShouldBeTrue)
		test.That(t, rec.Calls(), test.ShouldBeEmpty)
	})

	t.Run("zero distance or speed is a hard stop", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		test.That(t, c.MoveRamped(ctx, 0, 0, 0, 60), test.ShouldBeNil)
		test.That(t, c.MoveRamped(ctx, 100, 20, 20, 0), test.ShouldBeNil)
		test.That(t, rec.Calls(), test.ShouldResemble, sequence(stopCalls(true), stopCalls(true)))
	})
}

func TestRollOut(t *testing.T) {
	ctx := context.Background()

	t.Run("ends when either wheel reaches the distance", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		// 50mm is 102.31 degrees; the left wheel passes it on the third poll
		rec.angle["left"] = 1000
		rec.step["left"] = -50
		rec.step["right"] = 10

		test.That(t, c.RollOut(ctx, 50, 50), test.ShouldBeNil)
		test.That(t, rec.Calls(), test.ShouldResemble, both("Run(50.00)"))
		test.That(t, rec.angle["left"], test.ShouldEqual, 800.0)
	})

	t.Run("zero distance or speed is a hard stop", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		test.That(t, c.RollOut(ctx, 0, 50), test.ShouldBeNil)
		test.That(t, rec.Calls(), test.ShouldResemble, stopCalls(true))
	})

	t.Run("stalled wheels", func(t *testing.T) {
		cfg := testConfig
		cfg.RollOutMaxIterations = 3
		c, rec := newTestController(t, cfg)

		err := c.RollOut(ctx, 50, 50)
		test.That(t, errors.Is(err, operation.ErrStalled), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "3 iterations")
		test.That(t, rec.Calls(), test.ShouldResemble, both("Run(50.00)"))
	})

	t.Run("stall after max duration", func(t *testing.T) {
		cfg := testConfig
		cfg.RollOutMaxDurationMS = 30
		logger, logs := logging.NewObservedTestLogger(t)
		rec := newRecorder()
		c, err := NewController(rec.motor("left"), rec.motor("right"), nil, cfg, logger)
		test.That(t, err, test.ShouldBeNil)

		err = c.RollOut(ctx, 50, 50)
		test.That(t, errors.Is(err, operation.ErrStalled), test.ShouldBeTrue)
		test.That(t, logs.FilterMessage("rolling exit stalled").Len(), test.ShouldEqual, 1)
	})

	t.Run("cancelled", func(t *testing.T) {
		c, rec := newTestController(t, testConfig)
		cancelCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()

		err := c.RollOut(cancelCtx, 50, 50)
		test.That(t, errors.Is(err, context.DeadlineExceeded), test.ShouldBeTrue)
		test.That(t, rec.Calls(), test.ShouldResemble, both("Run(50.00)"))
	})
}

func TestChassisOnFakeMotors(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewTestLogger(t)
	left := fake.NewMotor("left", 0, nil, logger)
	right := fake.NewMotor("right", 0, nil, logger)
	c, err := NewController(left, right, scheduler.New(nil), testConfig, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, c.MoveDistance(ctx, 30, 100, true), test.ShouldBeNil)
	for _, m := range []*fake.Motor{left, right} {
		angle, err := m.Angle(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, angle, test.ShouldAlmostEqual, ToDegrees(30, 56), 0.001)
		test.That(t, m.PauseOnRun(), test.ShouldBeTrue)
		test.That(t, m.Brake(), test.ShouldBeTrue)
	}

	test.That(t, c.RollOut(ctx, 50, 100), test.ShouldBeNil)
	angle, err := left.Angle(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, angle, test.ShouldBeGreaterThanOrEqualTo, ToDegrees(80, 56))
	test.That(t, left.PowerPct(), test.ShouldEqual, 100.0)
	test.That(t, right.PowerPct(), test.ShouldEqual, 100.0)

	test.That(t, c.Stop(ctx, false), test.ShouldBeNil)
	test.That(t, left.PowerPct(), test.ShouldEqual, 0.0)
	cmds := right.Commands()
	test.That(t, cmds[len(cmds)-1].Kind, test.ShouldEqual, fake.KindStop)
	test.That(t, cmds[len(cmds)-1].Brake, test.ShouldBeFalse)
}
