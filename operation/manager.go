// Package operation manages the single motion operation a chassis runs at a time.
package operation

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// ErrStalled is returned when a polling loop hits one of its limits before its condition held.
var ErrStalled = errors.New("operation stalled")

// SingleOperationManager ensures only 1 operation is happening a time
// An operation can be nested, so if there is already an operation in progress,
// it can have sub-operations without an issue.
type SingleOperationManager struct {
	mu        sync.Mutex
	currentOp *anOp
}

// CancelRunning cancel's a current operation unless it's mine.
func (sm *SingleOperationManager) CancelRunning(ctx context.Context) {
	if ctx.Value(somCtxKeySingleOp) != nil {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.cancelInLock(ctx)
}

type somCtxKey byte

const somCtxKeySingleOp = somCtxKey(iota)

// New creates a new operation, cancels previous, returns a new context and function to call when done.
func (sm *SingleOperationManager) New(ctx context.Context) (context.Context, func()) {
	// handle nested ops
	if ctx.Value(somCtxKeySingleOp) != nil {
		return ctx, func() {}
	}

	sm.mu.Lock()

	// first cancel any old operation
	sm.cancelInLock(ctx)

	theOp := &anOp{}

	ctx = context.WithValue(ctx, somCtxKeySingleOp, theOp)

	theOp.ctx, theOp.cancelFunc = context.WithCancel(ctx)
	sm.currentOp = theOp
	sm.mu.Unlock()

	return theOp.ctx, func() {
		theOp.cancelFunc()
		sm.mu.Lock()
		if theOp == sm.currentOp {
			sm.currentOp = nil
		}
		sm.mu.Unlock()
	}
}

// Pacer is the time source a polling loop runs on.
type Pacer interface {
	Now() time.Time
	PauseUntilTime(ctx context.Context, start time.Time, d time.Duration) error
}

// PollLimits bounds a polling loop. A zero MaxDuration or MaxIterations disables that guard.
type PollLimits struct {
	Period        time.Duration
	MaxDuration   time.Duration
	MaxIterations int
}

// PollFunc is evaluated once per iteration. dt is the time since the previous iteration
// started (zero on the first one).
type PollFunc func(ctx context.Context, dt time.Duration) (bool, error)

// PollUntil calls testFunc once per period until it returns true or an error. Each iteration
// is paced from its own start, so a slow testFunc shortens the following pause. If a limit is
// reached first, an error wrapping ErrStalled is returned.
func (sm *SingleOperationManager) PollUntil(ctx context.Context, pacer Pacer, limits PollLimits, testFunc PollFunc) error {
	ctx, finish := sm.New(ctx)
	defer finish()

	var start, prev time.Time
	for iteration := 1; ; iteration++ {
		now := pacer.Now()
		if iteration == 1 {
			start, prev = now, now
		}
		dt := now.Sub(prev)
		prev = now

		res, err := testFunc(ctx, dt)
		if err != nil {
			return err
		}
		if res {
			return nil
		}

		if limits.MaxIterations > 0 && iteration >= limits.MaxIterations {
			return errors.Wrapf(ErrStalled, "condition not met after %d iterations", iteration)
		}
		if elapsed := now.Sub(start); limits.MaxDuration > 0 && elapsed >= limits.MaxDuration {
			return errors.Wrapf(ErrStalled, "condition not met after %s", elapsed)
		}

		if err := pacer.PauseUntilTime(ctx, now, limits.Period); err != nil {
			return err
		}
	}
}

func (sm *SingleOperationManager) cancelInLock(ctx context.Context) {
	myOp := ctx.Value(somCtxKeySingleOp)
	op := sm.currentOp

	if op == nil || myOp == op {
		return
	}

	op.cancelFunc()

	sm.currentOp = nil
}

type anOp struct {
	ctx        context.Context
	cancelFunc context.CancelFunc
}
