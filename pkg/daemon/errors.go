package daemon

import (
	"errors"
	"fmt"
)

var (
	// ErrProcessLaunch means the worker could not be started or never
	// announced its port.
	ErrProcessLaunch = errors.New("daemon process launch failed")
	// ErrProtocol is a malformed or truncated record, or a stream in an
	// unexpected state.
	ErrProtocol = errors.New("daemon protocol error")
	// ErrListenerClosed is returned by Submit once shutdown has begun or the
	// session has failed.
	ErrListenerClosed = errors.New("daemon listener closed")
	// ErrShuttingDown fails the handles still pending when Close is called.
	ErrShuttingDown = errors.New("daemon shutting down")
	// ErrRemoteTask is matched by every RemoteTaskError.
	ErrRemoteTask = errors.New("remote task failed")
)

// RemoteTaskError reports that the worker completed a request
// unsuccessfully. The protocol carries no further detail.
type RemoteTaskError struct {
	ID int32
}

func (e *RemoteTaskError) Error() string {
	return fmt.Sprintf("remote task %d failed", e.ID)
}

func (e *RemoteTaskError) Is(target error) bool {
	return target == ErrRemoteTask
}
