// Package retry runs an operation with a bounded number of attempts and
// exponential backoff between them.
package retry

import (
	"context"
	"errors"
	"time"
)

// ErrPermanent marks an error that retrying cannot fix. Do returns such
// errors immediately without consuming further attempts.
var ErrPermanent = errors.New("permanent failure")

// A Delayer is an error that knows how long to wait before the next attempt,
// like a rate-limit response carrying a Retry-After header. Its delay
// replaces the backoff schedule for that one wait.
type Delayer interface {
	RetryAfter() time.Duration
}

// A Policy bounds how persistently an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of tries, including the first.
	// Values below 1 mean one attempt.
	MaxAttempts int

	// Delay is the wait after the first failure. Each later wait doubles,
	// capped at MaxDelay when MaxDelay is set.
	Delay    time.Duration
	MaxDelay time.Duration
}

// Default matches the catalog client's needs: a request that fails three
// times in a row is not going to succeed on the fourth.
var Default = Policy{
	MaxAttempts: 3,
	Delay:       time.Second,
	MaxDelay:    time.Minute,
}

// Permanent wraps err so that Do gives up on it immediately. The wrapped
// error still matches its own chain through errors.Is and errors.As.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func (e *permanentError) Is(target error) bool { return target == ErrPermanent }

// Do calls fn until it succeeds, the policy's attempts are spent, or ctx is
// done. Context errors and errors marked Permanent pass through unretried.
func (p Policy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := p.Delay

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			wait := delay
			var d Delayer
			if errors.As(lastErr, &d) {
				wait = d.RetryAfter()
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			delay *= 2
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if errors.Is(err, ErrPermanent) {
			return err
		}
		lastErr = err
	}
	return lastErr
}
