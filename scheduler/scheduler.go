// Package scheduler provides the cooperative time primitives used by control loops:
// a millisecond clock and pauses that yield to other goroutines.
package scheduler

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// MinTick is the smallest pause the scheduler will perform.
const MinTick = 10 * time.Millisecond

// Scheduler wraps a clock so loops can be paced in real time or, in tests, against a mock clock.
type Scheduler struct {
	clock clock.Clock
	epoch time.Time
}

// New returns a scheduler on the given clock. A nil clock means the wall clock.
func New(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{clock: clk, epoch: clk.Now()}
}

// Clock returns the underlying clock.
func (s *Scheduler) Clock() clock.Clock {
	return s.clock
}

// Now returns the current time.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Millis returns the number of milliseconds elapsed since the scheduler was created.
func (s *Scheduler) Millis() int64 {
	return s.clock.Since(s.epoch).Milliseconds()
}

// PauseFor yields for at least d, rounded up to MinTick.
func (s *Scheduler) PauseFor(ctx context.Context, d time.Duration) error {
	if d < MinTick {
		d = MinTick
	}
	return s.wait(ctx, d)
}

// PauseUntilTime waits until start+d has passed. A zero start means now. It returns
// immediately if that moment is already behind us, which keeps a loop with a fixed
// period from drifting when an iteration runs long.
func (s *Scheduler) PauseUntilTime(ctx context.Context, start time.Time, d time.Duration) error {
	if start.IsZero() {
		start = s.clock.Now()
	}
	remaining := start.Add(d).Sub(s.clock.Now())
	if remaining <= 0 {
		return ctx.Err()
	}
	return s.wait(ctx, remaining)
}

func (s *Scheduler) wait(ctx context.Context, d time.Duration) error {
	timer := s.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
