package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amonks/sixdegrees/retry"
	"github.com/stretchr/testify/assert"
)

func TestDoSucceedsImmediately(t *testing.T) {
	calls := 0
	err := retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoSpendsAllAttempts(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := retry.Policy{MaxAttempts: 3, Delay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	notFound := errors.New("not found")
	err := retry.Policy{MaxAttempts: 5, Delay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		return retry.Permanent(notFound)
	})
	assert.ErrorIs(t, err, notFound)
	assert.ErrorIs(t, err, retry.ErrPermanent)
	assert.Equal(t, 1, calls)
}

func TestDoStopsWhenContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry.Policy{MaxAttempts: 5, Delay: time.Hour}.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

type rateLimited struct{ wait time.Duration }

func (e *rateLimited) Error() string             { return "rate limited" }
func (e *rateLimited) RetryAfter() time.Duration { return e.wait }

func TestDoHonorsRetryAfter(t *testing.T) {
	calls := 0
	start := time.Now()
	err := retry.Policy{MaxAttempts: 2, Delay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return &rateLimited{wait: 50 * time.Millisecond}
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.GreaterOrEqual(t, time.Since(start), 45*time.Millisecond)
}
