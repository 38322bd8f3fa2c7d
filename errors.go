package multiping

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyDestinations is returned when a batch does not fit in the
	// 16 bits echo id space.
	ErrTooManyDestinations = errors.New("cannot send echo requests to more than 65535 addresses at the same time")
	// ErrPermissionDenied is returned when the raw socket cannot be opened
	// because of missing privileges.
	ErrPermissionDenied = errors.New("root privileges required for sending ICMP")
	// ErrNoRequestsSent is returned by Receive before any Send.
	ErrNoRequestsSent = errors.New("no requests have been sent, yet")
	// ErrNoResponsesPending is returned by Receive when every request was
	// already answered.
	ErrNoResponsesPending = errors.New("no responses pending")
	// ErrInvalidTimeout is returned by MultiPing for timeouts below 100ms.
	ErrInvalidTimeout = errors.New("timeout < 0.1 seconds not allowed")
	// ErrRetryTimeoutTooSmall is returned by MultiPing when the time left for
	// each attempt is below 100ms.
	ErrRetryTimeoutTooSmall = errors.New("time between ping retries < 0.1 seconds")

	// ErrTimeout is returned by Transport.ReadFrom when the deadline passed.
	ErrTimeout = errors.New("read deadline exceeded")
	// ErrWouldBlock is returned by Transport.TryReadFrom when nothing is queued.
	ErrWouldBlock = errors.New("no data available")
)

// LookupError is returned when a destination name cannot be resolved.
type LookupError struct {
	Name string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("cannot lookup '%s': %v", e.Name, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}
