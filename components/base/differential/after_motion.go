package differential

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// AfterMotion selects what the chassis does once a travel segment has ended.
type AfterMotion int

// After-motion actions.
const (
	// Rolling travels the post-intersection rolling distance and brakes hard.
	Rolling AfterMotion = iota
	// DecelRolling travels the post-intersection rolling distance, decelerating over its second half.
	DecelRolling
	// RollingNoStop rolls the exit distance and leaves the motors running.
	RollingNoStop
	// BreakStop stops and holds position.
	BreakStop
	// NoBreakStop stops and coasts.
	NoBreakStop
	// NoStop keeps driving straight so the next controller can take over.
	NoStop
)

var afterMotionNames = map[AfterMotion]string{
	Rolling:       "rolling",
	DecelRolling:  "decel_rolling",
	RollingNoStop: "rolling_no_stop",
	BreakStop:     "break_stop",
	NoBreakStop:   "no_break_stop",
	NoStop:        "no_stop",
}

// AllAfterMotions returns every known action in declaration order.
func AllAfterMotions() []AfterMotion {
	return []AfterMotion{Rolling, DecelRolling, RollingNoStop, BreakStop, NoBreakStop, NoStop}
}

func (a AfterMotion) String() string {
	if name, ok := afterMotionNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAfterMotion returns the action with the given name. Matching ignores case and
// accepts dashes in place of underscores.
func ParseAfterMotion(name string) (AfterMotion, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	action, ok := lo.FindKey(afterMotionNames, normalized)
	if !ok {
		return 0, errors.Wrapf(ErrUnknownAfterMotion, "%q, expected one of %s", name,
			strings.Join(lo.Map(AllAfterMotions(), func(a AfterMotion, _ int) string { return a.String() }), ", "))
	}
	return action, nil
}

// AfterMotion runs the terminal behavior selected by action at the given speed. Exactly one
// behavior runs per call; an unknown action returns an error wrapping ErrUnknownAfterMotion
// without touching the motors.
func (c *Controller) AfterMotion(ctx context.Context, speedPct float64, action AfterMotion) error {
	ctx, done := c.opMgr.New(ctx)
	defer done()
	c.logger.Debugf("received an AfterMotion with speedPct:%.2f, action:%s", speedPct, action)

	switch action {
	case Rolling:
		return c.MoveDistance(ctx, c.cfg.RollingAfterIntersectionMM, speedPct, true)
	case DecelRolling:
		return c.MoveRamped(ctx, c.cfg.RollingAfterIntersectionMM, 0, c.cfg.RollingAfterIntersectionMM/2, speedPct)
	case RollingNoStop:
		return c.RollOut(ctx, c.cfg.RollingMoveOutMM, speedPct)
	case BreakStop:
		return c.Stop(ctx, true)
	case NoBreakStop:
		return c.Stop(ctx, false)
	case NoStop:
		return c.Steer(ctx, 0, speedPct)
	default:
		return NewUnknownAfterMotionError(action)
	}
}
