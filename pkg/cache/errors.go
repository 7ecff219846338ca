package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork marks a failure talking to a remote backend.
var ErrNetwork = errors.New("network error")

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as worth another attempt under a [Backoff].
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err was marked with [Retryable].
func IsRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// Backoff retries an operation with doubling delays.
type Backoff struct {
	Attempts int
	Base     time.Duration
}

// DefaultBackoff is used by caches configured with a zero Backoff.
var DefaultBackoff = Backoff{Attempts: 3, Base: 100 * time.Millisecond}

func (b Backoff) orDefault() Backoff {
	if b.Attempts <= 0 {
		return DefaultBackoff
	}
	return b
}

// Do runs fn until it succeeds, returns an error not marked [Retryable], or
// the attempts run out. The last error is returned.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	b = b.orDefault()
	delay := b.Base
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsRetryable(err) || attempt >= b.Attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
