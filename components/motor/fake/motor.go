// Package fake implements a simulated drive motor.
package fake

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"go.viam.com/diffdrive/components/motor"
	"go.viam.com/diffdrive/logging"
	rdkutils "go.viam.com/diffdrive/utils"
)

// DefaultMaxRPM is the no-load speed of a fake motor at full power.
const DefaultMaxRPM = 170

// degrees per second for one revolution per minute.
const degPerSecPerRPM = 6

// Command kinds recorded by a fake motor.
const (
	KindRun    = "Run"
	KindRunFor = "RunFor"
	KindRamp   = "Ramp"
	KindStop   = "Stop"
)

// Command is one motion command a fake motor received.
type Command struct {
	Motor    string
	Kind     string
	PowerPct float64
	Value    float64
	Unit     motor.MoveUnit
	Accel    float64
	Decel    float64
	Brake    bool
}

var _ motor.Motor = &Motor{}

// A Motor pretends to be a tacho motor. Its angle advances in clock time according to the
// last command, so it can be driven by a mock clock in tests.
type Motor struct {
	name   string
	maxRPM float64
	clock  clock.Clock
	logger logging.Logger

	mu         sync.Mutex
	angle      float64
	since      time.Time
	powerPct   float64
	brake      bool
	pauseOnRun bool
	active     *move
	history    []Command
}

type move struct {
	profile profile
	timer   *clock.Timer
	done    chan struct{}
}

// NewMotor returns a stopped fake motor with pause-on-run enabled and braking disabled.
func NewMotor(name string, maxRPM float64, clk clock.Clock, logger logging.Logger) *Motor {
	if maxRPM <= 0 {
		logger.Infof("Max RPM not provided to a fake motor, defaulting to %v", DefaultMaxRPM)
		maxRPM = DefaultMaxRPM
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Motor{
		name:       name,
		maxRPM:     maxRPM,
		clock:      clk,
		logger:     logger,
		since:      clk.Now(),
		pauseOnRun: true,
	}
}

// Name returns the motor's name.
func (m *Motor) Name() string {
	return m.name
}

// Run sets the motor running open loop.
func (m *Motor) Run(ctx context.Context, powerPct float64) error {
	if err := motor.CheckPower(powerPct); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger.Debugf("Motor %s Run %.2f", m.name, powerPct)
	m.haltLocked(m.clock.Now())
	m.powerPct = powerPct
	m.record(Command{Kind: KindRun, PowerPct: powerPct})
	return nil
}

// RunFor runs the motor at powerPct for value units.
func (m *Motor) RunFor(ctx context.Context, powerPct, value float64, unit motor.MoveUnit) error {
	return m.runProfile(ctx, Command{Kind: KindRunFor, PowerPct: powerPct, Value: value, Unit: unit})
}

// Ramp runs a trapezoidal profile.
func (m *Motor) Ramp(ctx context.Context, powerPct, value float64, unit motor.MoveUnit, accel, decel float64) error {
	if accel < 0 || decel < 0 {
		return motor.NewNegativeRampSegmentError(accel, decel)
	}
	return m.runProfile(ctx, Command{
		Kind: KindRamp, PowerPct: powerPct, Value: value, Unit: unit, Accel: accel, Decel: decel,
	})
}

func (m *Motor) runProfile(ctx context.Context, cmd Command) error {
	if err := motor.CheckPower(cmd.PowerPct); err != nil {
		return err
	}
	if cmd.PowerPct == 0 {
		return motor.NewZeroPowerError()
	}
	p, err := newProfile(m.maxRPM, cmd)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.logger.Debugf("Motor %s %s power:%.2f value:%.2f %s accel:%.2f decel:%.2f",
		m.name, cmd.Kind, cmd.PowerPct, cmd.Value, cmd.Unit, cmd.Accel, cmd.Decel)
	now := m.clock.Now()
	m.haltLocked(now)
	m.record(cmd)
	if p.duration() > 0 {
		mv := &move{profile: p, done: make(chan struct{})}
		m.active = mv
		m.powerPct = cmd.PowerPct
		mv.timer = m.clock.AfterFunc(p.duration(), func() { m.finish(mv) })
	}
	pause := m.pauseOnRun
	m.mu.Unlock()

	if pause {
		return m.PauseUntilReady(ctx)
	}
	return nil
}

func (m *Motor) finish(mv *move) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != mv {
		return
	}
	m.angle += mv.profile.total()
	m.since = m.clock.Now()
	m.powerPct = 0
	m.active = nil
	close(mv.done)
}

// haltLocked freezes the angle where it is now and drops any bounded command.
func (m *Motor) haltLocked(now time.Time) {
	m.angle = m.angleLocked(now)
	m.since = now
	m.powerPct = 0
	if m.active != nil {
		m.active.timer.Stop()
		close(m.active.done)
		m.active = nil
	}
}

func (m *Motor) angleLocked(now time.Time) float64 {
	elapsed := now.Sub(m.since)
	if m.active != nil {
		return m.angle + m.active.profile.displacement(elapsed)
	}
	return m.angle + m.powerPct/motor.MaxPowerPct*m.maxRPM*degPerSecPerRPM*elapsed.Seconds()
}

func (m *Motor) record(cmd Command) {
	cmd.Motor = m.name
	cmd.Brake = m.brake
	m.history = append(m.history, cmd)
}

// Stop stops the motor. With pause-on-run enabled it first waits for a pending bounded command.
func (m *Motor) Stop(ctx context.Context) error {
	m.mu.Lock()
	pause := m.pauseOnRun
	m.mu.Unlock()
	if pause {
		if err := m.PauseUntilReady(ctx); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger.Debugf("Motor %s Stopped, brake:%t", m.name, m.brake)
	m.haltLocked(m.clock.Now())
	m.record(Command{Kind: KindStop})
	return nil
}

// SetBrake sets the brake mode.
func (m *Motor) SetBrake(ctx context.Context, brake bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.brake = brake
	return nil
}

// SetPauseOnRun sets whether bounded commands block.
func (m *Motor) SetPauseOnRun(ctx context.Context, pause bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseOnRun = pause
	return nil
}

// Angle returns the simulated shaft angle in degrees.
func (m *Motor) Angle(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.angleLocked(m.clock.Now()), nil
}

// PauseUntilReady waits for the current bounded command, if any.
func (m *Motor) PauseUntilReady(ctx context.Context) error {
	m.mu.Lock()
	active := m.active
	m.mu.Unlock()
	if active == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-active.done:
		return nil
	}
}

// PowerPct returns the power the motor is running at.
func (m *Motor) PowerPct() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.powerPct
}

// Brake returns the brake mode.
func (m *Motor) Brake() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.brake
}

// PauseOnRun returns whether bounded commands block.
func (m *Motor) PauseOnRun() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseOnRun
}

// Commands returns the motion commands received so far.
func (m *Motor) Commands() []Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Command(nil), m.history...)
}

// profile is a trapezoidal displacement profile. Segment lengths are magnitudes in degrees.
type profile struct {
	dir                  float64
	rate                 float64
	accel, cruise, decel float64
	ta, tc, td           time.Duration
}

func newProfile(maxRPM float64, cmd Command) (profile, error) {
	p := profile{rate: math.Abs(cmd.PowerPct) / motor.MaxPowerPct * maxRPM * degPerSecPerRPM}
	p.dir = rdkutils.Sign(cmd.PowerPct)
	if math.Signbit(cmd.Value) {
		p.dir = -p.dir
	}

	if cmd.Unit.IsAngular() {
		perUnit, err := cmd.Unit.ToDegrees(1)
		if err != nil {
			return profile{}, err
		}
		p.accel = math.Abs(cmd.Accel) * perUnit
		p.cruise = math.Abs(cmd.Value) * perUnit
		p.decel = math.Abs(cmd.Decel) * perUnit
		p.ta = secondsToDuration(2 * p.accel / p.rate)
		p.tc = secondsToDuration(p.cruise / p.rate)
		p.td = secondsToDuration(2 * p.decel / p.rate)
		return p, nil
	}

	scale := time.Second
	if cmd.Unit == motor.MilliSeconds {
		scale = time.Millisecond
	}
	p.ta = time.Duration(math.Abs(cmd.Accel) * float64(scale))
	p.tc = time.Duration(math.Abs(cmd.Value) * float64(scale))
	p.td = time.Duration(math.Abs(cmd.Decel) * float64(scale))
	p.accel = p.rate * p.ta.Seconds() / 2
	p.cruise = p.rate * p.tc.Seconds()
	p.decel = p.rate * p.td.Seconds() / 2
	return p, nil
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func (p profile) duration() time.Duration {
	return p.ta + p.tc + p.td
}

func (p profile) total() float64 {
	return p.dir * (p.accel + p.cruise + p.decel)
}

// displacement returns the signed degrees covered after elapsed.
func (p profile) displacement(elapsed time.Duration) float64 {
	t := elapsed.Seconds()
	ta, tc, td := p.ta.Seconds(), p.tc.Seconds(), p.td.Seconds()

	var d float64
	switch {
	case t <= 0:
		d = 0
	case t < ta:
		d = 0.5 * p.rate / ta * t * t
	case t < ta+tc:
		d = p.accel + p.rate*(t-ta)
	case t < ta+tc+td:
		tt := t - ta - tc
		d = p.accel + p.cruise + p.rate*tt - 0.5*p.rate/td*tt*tt
	default:
		d = p.accel + p.cruise + p.decel
	}
	return p.dir * d
}
