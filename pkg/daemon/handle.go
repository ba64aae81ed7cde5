package daemon

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Handle is the pending outcome of one submitted request.
type Handle struct {
	id      int32
	args    []string
	started time.Time
	// sent is set once the request is committed to the wire.
	sent atomic.Bool

	once sync.Once
	done chan struct{}
	err  error
}

func newHandle(id int32, args []string) *Handle {
	return &Handle{
		id:      id,
		args:    args,
		started: time.Now(),
		done:    make(chan struct{}),
	}
}

// ID returns the request id assigned at submission.
func (h *Handle) ID() int32 { return h.id }

// Done is closed once the request has an outcome.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the outcome: nil for success, a *RemoteTaskError for a task
// the worker reported as failed, or the session error. It is nil until
// Done is closed.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Wait blocks until the request completes or ctx is done. Giving up on
// ctx does not cancel the request on the worker.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolve records the outcome. Only the first call has an effect.
func (h *Handle) resolve(err error) bool {
	resolved := false
	h.once.Do(func() {
		h.err = err
		close(h.done)
		resolved = true
	})
	return resolved
}
