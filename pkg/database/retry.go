package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// retryPolicy retries start-up connection attempts with exponential backoff
// and symmetric jitter.
type retryPolicy struct {
	attempts uint
	initial  time.Duration
	jitter   float64
}

// connectRetry is used for postgres, redis and migrations: 1s, 2s ±25%.
var connectRetry = retryPolicy{attempts: 3, initial: time.Second, jitter: 0.25}

// newBackOff returns a doubling backoff starting at the policy's initial
// interval.
func (p retryPolicy) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initial
	b.RandomizationFactor = p.jitter
	b.Multiplier = 2
	b.Reset()
	return b
}

// do calls fn until it succeeds, retryable reports false, attempts are
// exhausted or ctx is done. A nil retryable retries every error; an error it
// rejects is returned unwrapped.
func (p retryPolicy) do(ctx context.Context, logger *slog.Logger, what string, retryable func(error) bool, fn func(context.Context) error) error {
	var (
		attempt   uint
		permanent error
	)
	op := func() (struct{}, error) {
		attempt++
		err := fn(ctx)
		if err != nil && retryable != nil && !retryable(err) {
			permanent = err
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}
	notify := func(err error, wait time.Duration) {
		if logger == nil {
			return
		}
		logger.WarnContext(ctx, what+" failed, retrying",
			slog.Uint64("attempt", uint64(attempt)),
			slog.Uint64("max_attempts", uint64(p.attempts)),
			slog.Duration("backoff", wait),
			slog.String("error", err.Error()),
		)
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(p.newBackOff()),
		backoff.WithMaxTries(p.attempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify),
	)
	switch {
	case err == nil:
		return nil
	case permanent != nil:
		return permanent
	case attempt >= p.attempts:
		return fmt.Errorf("%s after %d attempts: %w", what, attempt, err)
	default:
		return fmt.Errorf("%s: context done during retry: %w", what, err)
	}
}
