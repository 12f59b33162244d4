package differential

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"go.viam.com/test"

	"go.viam.com/diffdrive/components/motor"
	"go.viam.com/diffdrive/logging"
	"go.viam.com/diffdrive/scheduler"
	"go.viam.com/diffdrive/testutils/inject"
)

var testConfig = Config{
	WheelDiameterMM:            56,
	RollingAfterIntersectionMM: 60,
	RollingMoveOutMM:           50,
}

// recorder collects the commands both injected motors receive, in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
	// waits holds len(calls) at the moment each PauseUntilReady started.
	waits []int
	// angle is what the next Angle read returns; step is added after every read.
	angle map[string]float64
	step  map[string]float64
	errs  map[string]error

	waitStarted chan struct{}
	release     chan struct{}
}

func newRecorder() *recorder {
	return &recorder{
		angle:       map[string]float64{},
		step:        map[string]float64{},
		errs:        map[string]error{},
		waitStarted: make(chan struct{}, 2),
	}
}

func (r *recorder) add(name, method string, args ...interface{}) error {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case float64:
			parts = append(parts, strconv.FormatFloat(v, 'f', 2, 64))
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	call := fmt.Sprintf("%s.%s(%s)", name, method, strings.Join(parts, ", "))

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return r.errs[name+"."+method]
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.calls...)
}

func (r *recorder) Waits() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int{}, r.waits...)
}

func (r *recorder) motor(name string) *inject.Motor {
	m := inject.NewMotor(name)
	m.RunFunc = func(ctx context.Context, powerPct float64) error {
		return r.add(name, "Run", powerPct)
	}
	m.RunForFunc = func(ctx context.Context, powerPct, value float64, unit motor.MoveUnit) error {
		return r.add(name, "RunFor", powerPct, value, unit)
	}
	m.RampFunc = func(ctx context.Context, powerPct, value float64, unit motor.MoveUnit, accel, decel float64) error {
		return r.add(name, "Ramp", powerPct, value, unit, accel, decel)
	}
	m.StopFunc = func(ctx context.Context) error {
		return r.add(name, "Stop")
	}
	m.SetBrakeFunc = func(ctx context.Context, brake bool) error {
		return r.add(name, "SetBrake", brake)
	}
	m.SetPauseOnRunFunc = func(ctx context.Context, pause bool) error {
		return r.add(name, "SetPauseOnRun", pause)
	}
	m.AngleFunc = func(ctx context.Context) (float64, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		a := r.angle[name]
		r.angle[name] += r.step[name]
		return a, nil
	}
	m.PauseUntilReadyFunc = func(ctx context.Context) error {
		r.mu.Lock()
		r.waits = append(r.waits, len(r.calls))
		release := r.release
		r.mu.Unlock()

		select {
		case r.waitStarted <- struct{}{}:
		default:
		}
		if release == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-release:
			return nil
		}
	}
	return m
}

func newTestController(t *testing.T, cfg Config) (*Controller, *recorder) {
	t.Helper()
	rec := newRecorder()
	c, err := NewController(rec.motor("left"), rec.motor("right"), scheduler.New(nil), cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return c, rec
}

func both(call string) []string {
	return []string{"left." + call, "right." + call}
}

func sequence(groups ...[]string) []string {
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func stopCalls(brake bool) []string {
	return sequence(
		both("SetPauseOnRun(false)"),
		both(fmt.Sprintf("SetBrake(%t)", brake)),
		both("Stop()"),
		both("SetPauseOnRun(true)"),
	)
}
