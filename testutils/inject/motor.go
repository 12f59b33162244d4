// Package inject provides test doubles whose behavior is set per method with function fields.
package inject

import (
	"context"

	"go.viam.com/diffdrive/components/motor"
)

// Motor is an injected motor. Methods without a Func fall through to the embedded Motor.
type Motor struct {
	motor.Motor
	name                string
	RunFunc             func(ctx context.Context, powerPct float64) error
	RunForFunc          func(ctx context.Context, powerPct, value float64, unit motor.MoveUnit) error
	RampFunc            func(ctx context.Context, powerPct, value float64, unit motor.MoveUnit, accel, decel float64) error
	StopFunc            func(ctx context.Context) error
	SetBrakeFunc        func(ctx context.Context, brake bool) error
	SetPauseOnRunFunc   func(ctx context.Context, pause bool) error
	AngleFunc           func(ctx context.Context) (float64, error)
	PauseUntilReadyFunc func(ctx context.Context) error
}

// NewMotor returns a new injected motor.
func NewMotor(name string) *Motor {
	return &Motor{name: name}
}

// Name returns the name of the motor.
func (m *Motor) Name() string {
	return m.name
}

// Run calls the injected Run or the real version.
func (m *Motor) Run(ctx context.Context, powerPct float64) error {
	if m.RunFunc == nil {
		return m.Motor.Run(ctx, powerPct)
	}
	return m.RunFunc(ctx, powerPct)
}

// RunFor calls the injected RunFor or the real version.
func (m *Motor) RunFor(ctx context.Context, powerPct, value float64, unit motor.MoveUnit) error {
	if m.RunForFunc == nil {
		return m.Motor.RunFor(ctx, powerPct, value, unit)
	}
	return m.RunForFunc(ctx, powerPct, value, unit)
}

// Ramp calls the injected Ramp or the real version.
func (m *Motor) Ramp(ctx context.Context, powerPct, value float64, unit motor.MoveUnit, accel, decel float64) error {
	if m.RampFunc == nil {
		return m.Motor.Ramp(ctx, powerPct, value, unit, accel, decel)
	}
	return m.RampFunc(ctx, powerPct, value, unit, accel, decel)
}

// Stop calls the injected Stop or the real version.
func (m *Motor) Stop(ctx context.Context) error {
	if m.StopFunc == nil {
		return m.Motor.Stop(ctx)
	}
	return m.StopFunc(ctx)
}

// SetBrake calls the injected SetBrake or the real version.
func (m *Motor) SetBrake(ctx context.Context, brake bool) error {
	if m.SetBrakeFunc == nil {
		return m.Motor.SetBrake(ctx, brake)
	}
	return m.SetBrakeFunc(ctx, brake)
}

// SetPauseOnRun calls the injected SetPauseOnRun or the real version.
func (m *Motor) SetPauseOnRun(ctx context.Context, pause bool) error {
	if m.SetPauseOnRunFunc == nil {
		return m.Motor.SetPauseOnRun(ctx, pause)
	}
	return m.SetPauseOnRunFunc(ctx, pause)
}

// Angle calls the injected Angle or the real version.
func (m *Motor) Angle(ctx context.Context) (float64, error) {
	if m.AngleFunc == nil {
		return m.Motor.Angle(ctx)
	}
	return m.AngleFunc(ctx)
}

// PauseUntilReady calls the injected PauseUntilReady or the real version.
func (m *Motor) PauseUntilReady(ctx context.Context) error {
	if m.PauseUntilReadyFunc == nil {
		return m.Motor.PauseUntilReady(ctx)
	}
	return m.PauseUntilReadyFunc(ctx)
}
