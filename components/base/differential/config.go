package differential

import (
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/diffdrive/operation"
)

const (
	defaultPollPeriod           = 10 * time.Millisecond
	defaultRollOutMaxDuration   = 10 * time.Second
	defaultRollOutMaxIterations = 5000
)

// Config is how you configure a differential chassis. It is copied into the controller when
// the controller is built and never changes afterwards.
type Config struct {
	WheelDiameterMM            float64 `json:"wheel_diameter_mm"`
	RollingAfterIntersectionMM float64 `json:"rolling_after_intersection_mm"`
	RollingMoveOutMM           float64 `json:"rolling_move_out_mm"`

	PollPeriodMS         int `json:"poll_period_ms,omitempty"`
	RollOutMaxDurationMS int `json:"roll_out_max_duration_ms,omitempty"`
	RollOutMaxIterations int `json:"roll_out_max_iterations,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.WheelDiameterMM == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "wheel_diameter_mm")
	}
	if cfg.WheelDiameterMM < 0 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("wheel_diameter_mm must be positive, got %.2f", cfg.WheelDiameterMM))
	}

	nonNegative := []struct {
		name  string
		value float64
	}{
		{"rolling_after_intersection_mm", cfg.RollingAfterIntersectionMM},
		{"rolling_move_out_mm", cfg.RollingMoveOutMM},
		{"poll_period_ms", float64(cfg.PollPeriodMS)},
		{"roll_out_max_duration_ms", float64(cfg.RollOutMaxDurationMS)},
		{"roll_out_max_iterations", float64(cfg.RollOutMaxIterations)},
	}
	for _, field := range nonNegative {
		if field.value < 0 {
			return utils.NewConfigValidationError(path,
				errors.Errorf("%s cannot be negative, got %v", field.name, field.value))
		}
	}
	return nil
}

// rollOutLimits returns the bounds of the rolling exit loop, filling in defaults for unset fields.
func (cfg Config) rollOutLimits() operation.PollLimits {
	limits := operation.PollLimits{
		Period:        time.Duration(cfg.PollPeriodMS) * time.Millisecond,
		MaxDuration:   time.Duration(cfg.RollOutMaxDurationMS) * time.Millisecond,
		MaxIterations: cfg.RollOutMaxIterations,
	}
	if limits.Period == 0 {
		limits.Period = defaultPollPeriod
	}
	if limits.MaxDuration == 0 {
		limits.MaxDuration = defaultRollOutMaxDuration
	}
	if limits.MaxIterations == 0 {
		limits.MaxIterations = defaultRollOutMaxIterations
	}
	return limits
}
