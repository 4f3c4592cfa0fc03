// Package lock provides the exclusive advisory lock taken around every
// operation that reads and rewrites a sheet.
package lock

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned when the lock could not be taken within the wait.
// Callers drop the invocation instead of queuing it.
var ErrBusy = errors.New("sheet is busy")

// Default waits taken from the sheet triggers: edits give up quickly,
// full passes wait a little longer.
const (
	EditWait = time.Second
	BulkWait = 3 * time.Second
)

// Lock is an exclusive lock with a bounded wait.
type Lock struct {
	sem *semaphore.Weighted
}

// New returns an unlocked Lock.
func New() *Lock {
	return &Lock{sem: semaphore.NewWeighted(1)}
}

// Acquire waits up to wait for the lock. On success it returns a release
// function that must be called exactly once. A wait of zero or less tries
// once without blocking.
func (l *Lock) Acquire(ctx context.Context, wait time.Duration) (func(), error) {
	if wait <= 0 {
		if !l.sem.TryAcquire(1) {
			return nil, ErrBusy
		}
		return l.releaser(), nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()
	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrBusy
	}
	return l.releaser(), nil
}

// Do runs fn while holding the lock. fn's error is returned as is; when the
// lock is busy Do returns ErrBusy without calling fn.
func (l *Lock) Do(ctx context.Context, wait time.Duration, fn func() error) error {
	release, err := l.Acquire(ctx, wait)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

func (l *Lock) releaser() func() {
	released := false
	return func() {
		if released {
			return
		}
		released = true
		l.sem.Release(1)
	}
}
