package spotify

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httputil"
	"strconv"
	"time"

	"github.com/amonks/sixdegrees/retry"
)

// ErrNotFound means the catalog has no record of the requested artist or
// album. It is never retried; callers surface it.
var ErrNotFound = errors.New("not found")

// ErrRateLimited means the catalog told us to slow down. The client's retry
// policy handles it internally; callers only see it once retries are
// exhausted.
var ErrRateLimited = errors.New("rate limited")

// A RateLimitError carries the wait the catalog asked for, so the retry
// policy can honor Retry-After instead of its own backoff schedule.
type RateLimitError struct {
	Wait time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited; retry in %s", e.Wait)
}

func (e *RateLimitError) RetryAfter() time.Duration { return e.Wait }

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }

// responseError checks the given http response for an error code, and, if
// one is present, returns the error the caller should see: a RateLimitError
// for 429, ErrNotFound for 404, a permanent error for other client
// mistakes, and a friendly body dump for everything else so server trouble
// stays retryable.
func responseError(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil

	case resp.StatusCode == http.StatusTooManyRequests:
		wait := time.Minute
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
				wait = time.Duration(seconds)*time.Second + time.Second
			}
		}
		return &RateLimitError{Wait: wait}

	case resp.StatusCode == http.StatusNotFound:
		return retry.Permanent(ErrNotFound)

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return retry.Permanent(fmt.Errorf("http status code %d", resp.StatusCode))

	default:
		bs, err := httputil.DumpResponse(resp, true)
		if err != nil {
			return fmt.Errorf("http status code %d; error decoding body: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("http status code %d:\n%s", resp.StatusCode, string(bs))
	}
}
