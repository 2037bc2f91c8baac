// ABOUTME: Retry policy for Mattermost requests built on cenkalti/backoff
// ABOUTME: Retries rate limits and 5xx errors with capped exponential waits or server-directed delays

package mattermost

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

const maxBackoffWait = 10 * time.Second

// RetryPolicy decides whether a failed attempt is repeated and how long to wait first.
type RetryPolicy struct {
	// MaxRetries is the number of attempts allowed after the first one.
	MaxRetries int
	// Retryable reports whether an attempt's error may be retried.
	Retryable func(error) bool
	// Wait returns the delay before retry number attempt (1-indexed).
	Wait func(attempt int, err error) time.Duration
	// Notify is called before each wait. Optional.
	Notify func(attempt int, err error, wait time.Duration)
	// NewTimer overrides the sleep timer. Optional; tests use it to avoid real waits.
	NewTimer func() backoff.Timer
}

// DefaultRetryPolicy retries rate-limit and server errors up to maxRetries times.
func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries: maxRetries,
		Retryable:  IsRetryable,
		Wait:       WaitDuration,
	}
}

// WaitDuration honours a rate limit's Retry-After when known and otherwise
// falls back to ExponentialWait.
func WaitDuration(attempt int, err error) time.Duration {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Kind == KindRateLimit && apiErr.RetryAfter != nil {
		return *apiErr.RetryAfter
	}
	return ExponentialWait(attempt)
}

// ExponentialWait returns min(10s, 2^(attempt-1) seconds): 1s, 2s, 4s, 8s, 10s, 10s...
func ExponentialWait(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 4 {
		return maxBackoffWait
	}
	return min(time.Second<<(attempt-1), maxBackoffWait)
}

// policyBackOff adapts a RetryPolicy's wait function to backoff.BackOff.
type policyBackOff struct {
	wait    func(int, error) time.Duration
	retries int
	lastErr error
}

func (b *policyBackOff) NextBackOff() time.Duration {
	b.retries++
	return b.wait(b.retries, b.lastErr)
}

func (b *policyBackOff) Reset() {
	b.retries = 0
	b.lastErr = nil
}

// Retry runs attempt until it succeeds, fails with a non-retryable error, the
// policy's retry budget is spent, or ctx is done. The last error is returned
// unchanged when retries run out.
func Retry[T any](ctx context.Context, p RetryPolicy, attempt func(context.Context) (T, error)) (T, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	wait := p.Wait
	if wait == nil {
		wait = WaitDuration
	}
	maxRetries := max(p.MaxRetries, 0)

	pb := &policyBackOff{wait: wait}
	b := backoff.WithContext(backoff.WithMaxRetries(pb, uint64(maxRetries)), ctx)

	var (
		result   T
		attempts int
	)
	operation := func() error {
		attempts++
		res, err := attempt(ctx)
		if err == nil {
			result = res
			return nil
		}
		if ctx.Err() != nil || !retryable(err) {
			return backoff.Permanent(err)
		}
		pb.lastErr = err
		return err
	}

	notify := func(err error, d time.Duration) {
		if p.Notify != nil {
			p.Notify(attempts, err, d)
		}
	}

	var timer backoff.Timer
	if p.NewTimer != nil {
		timer = p.NewTimer()
	}

	if err := backoff.RetryNotifyWithTimer(operation, b, notify, timer); err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
