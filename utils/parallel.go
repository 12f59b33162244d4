package utils

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel starts every function at once and returns when all of them have returned.
// The first failure cancels the context the others were handed, and the cancellations that
// follow are not reported on top of it. A panic comes back as an error.
func RunInParallel(ctx context.Context, fs ...SimpleFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		err   error
	)
	fail := func(fErr error) {
		errMu.Lock()
		if err == nil || !errors.Is(fErr, context.Canceled) {
			err = multierr.Combine(err, fErr)
		}
		errMu.Unlock()
		cancel()
	}

	wg.Add(len(fs))
	for _, f := range fs {
		f := f
		// wg.Done is not deferred so a panicking f is only marked done once its error is stored
		utils.PanicCapturingGoWithCallback(func() {
			if fErr := f(ctx); fErr != nil {
				fail(fErr)
			}
			wg.Done()
		}, func(thePanic interface{}) {
			fail(errors.Errorf("panic while running in parallel: %v", thePanic))
			wg.Done()
		})
	}

	wg.Wait()
	return err
}
