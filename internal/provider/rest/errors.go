package rest

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for classification via errors.Is. Every *Error unwraps to
// exactly one of these.
var (
	// ErrTransient marks failures worth retrying: 5xx, network errors,
	// timeouts, and 429 rate limiting.
	ErrTransient = errors.New("transient provider error")

	// ErrPermanent marks failures that will not succeed on retry: 4xx other
	// than 429, and malformed response bodies.
	ErrPermanent = errors.New("permanent provider error")
)

// Kind classifies a provider failure.
type Kind int

const (
	// Transient failures are retried with backoff.
	Transient Kind = iota
	// Permanent failures are surfaced immediately.
	Permanent
)

func (k Kind) String() string {
	if k == Permanent {
		return "permanent"
	}
	return "transient"
}

// Error is a classified failure from a provider API call.
type Error struct {
	Kind       Kind
	Status     int           // HTTP status, 0 for network-level failures
	RetryAfter time.Duration // from the Retry-After header on 429, else 0
	Message    string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap maps the error onto its classification sentinel.
func (e *Error) Unwrap() error {
	if e.Kind == Permanent {
		return ErrPermanent
	}
	return ErrTransient
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

func transientf(status int, retryAfter time.Duration, format string, args ...interface{}) *Error {
	return &Error{Kind: Transient, Status: status, RetryAfter: retryAfter, Message: fmt.Sprintf(format, args...)}
}

func permanentf(status int, format string, args ...interface{}) *Error {
	return &Error{Kind: Permanent, Status: status, Message: fmt.Sprintf(format, args...)}
}
