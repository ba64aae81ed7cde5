package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes work on a key, typically a plan key, across goroutines
// or across processes sharing a work directory.
type Locker interface {
	// Lock blocks until the lock for key is held or ctx is done. ttl bounds
	// how long a lock outlives a crashed holder, for implementations that
	// support expiry. The returned UnlockFunc must be called exactly once.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
