// Package lock provides the distributed mutual exclusion used to serialize
// balance mutations per account.
package lock

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotAcquired wraps every acquisition failure: contention, timeout and
	// provider errors alike. Callers must never proceed without the lock.
	ErrNotAcquired = errors.New("lock not acquired")

	// ErrNotHeld is returned by Release when the lock expired or was taken over.
	ErrNotHeld = errors.New("lock not held")
)

// Provider acquires named locks. wait bounds how long Acquire blocks; hold is
// the lease after which the provider frees the lock on its own.
type Provider interface {
	Acquire(ctx context.Context, key string, wait, hold time.Duration) (Handle, error)
}

// Handle is a held lock.
type Handle interface {
	Release(ctx context.Context) error
}
