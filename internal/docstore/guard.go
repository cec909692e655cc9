package docstore

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/semaphore"
)

// guard serializes read-modify-write cycles over the store file. Every
// operation, including pure lookups, acquires full exclusivity so a
// reader never observes a mid-write document. In-process callers are
// serialized by a weighted semaphore (acquirable with a context);
// cooperating processes are excluded by an OS advisory lock on a
// sibling .lock file. The OS releases the lock when the holding process
// dies, so a crash mid-cycle cannot wedge future acquisitions.
type guard struct {
	flk     *flock.Flock
	sem     *semaphore.Weighted
	timeout time.Duration
	poll    time.Duration
}

func newGuard(lockPath string, timeout, poll time.Duration) *guard {
	return &guard{
		flk:     flock.New(lockPath),
		sem:     semaphore.NewWeighted(1),
		timeout: timeout,
		poll:    poll,
	}
}

// acquire obtains exclusive access, waiting at most the configured
// timeout. It returns a release function that must run in a deferred
// cleanup phase so a failed operation cannot wedge the lock.
func (g *guard) acquire(ctx context.Context) (func(), error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	if err := g.sem.Acquire(ctx, 1); err != nil {
		cancel()
		return nil, lockErr(err)
	}
	ok, err := g.flk.TryLockContext(ctx, g.poll)
	if err != nil || !ok {
		g.sem.Release(1)
		cancel()
		if err == nil {
			err = context.DeadlineExceeded
		}
		return nil, lockErr(err)
	}
	return func() {
		// Ignore unlock errors: the lock file may already be gone.
		_ = g.flk.Unlock()
		g.sem.Release(1)
		cancel()
	}, nil
}

func lockErr(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	return LockTimeout(err)
}
