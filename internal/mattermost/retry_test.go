// ABOUTME: Tests for the retry policy
// ABOUTME: Uses a recording timer so no test sleeps on the backoff schedule

package mattermost

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialWait(t *testing.T) {
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second}
	for i, w := range want {
		assert.Equal(t, w, ExponentialWait(i+1), "attempt %d", i+1)
	}
	assert.Equal(t, time.Second, ExponentialWait(0))
	assert.Equal(t, 10*time.Second, ExponentialWait(64))
}

func TestWaitDuration_HonoursRetryAfter(t *testing.T) {
	d := 7 * time.Second
	assert.Equal(t, 7*time.Second, WaitDuration(3, newRateLimitError(&d)))
	assert.Equal(t, 4*time.Second, WaitDuration(3, newRateLimitError(nil)))
	assert.Equal(t, 2*time.Second, WaitDuration(2, &APIError{Kind: KindServer, StatusCode: 500}))

	zero := time.Duration(0)
	assert.Equal(t, time.Duration(0), WaitDuration(1, newRateLimitError(&zero)))
}

func policyWithTimer(maxRetries int, timer *fakeTimer) RetryPolicy {
	p := DefaultRetryPolicy(maxRetries)
	p.NewTimer = timer.factory()
	return p
}

func TestRetry_ServerErrorsExhaustBudget(t *testing.T) {
	for _, maxRetries := range []int{0, 1, 3, 10} {
		timer := newFakeTimer()
		attempts := 0
		lastErr := &APIError{Kind: KindServer, StatusCode: 503, Message: "Server error: last"}

		_, err := Retry(context.Background(), policyWithTimer(maxRetries, timer), func(context.Context) (int, error) {
			attempts++
			if attempts == maxRetries+1 {
				return 0, lastErr
			}
			return 0, &APIError{Kind: KindServer, StatusCode: 500}
		})

		assert.Equal(t, maxRetries+1, attempts, "max_retries=%d", maxRetries)
		assert.Same(t, lastErr, err)
		assert.Len(t, timer.Waits(), maxRetries)
	}
}

func TestRetry_WaitSchedule(t *testing.T) {
	timer := newFakeTimer()
	_, _ = Retry(context.Background(), policyWithTimer(6, timer), func(context.Context) (struct{}, error) {
		return struct{}{}, &APIError{Kind: KindServer, StatusCode: 500}
	})

	assert.Equal(t, []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second,
	}, timer.Waits())
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	nonRetryable := []error{
		newAuthenticationError(),
		newNotFoundError("gone", ""),
		&APIError{Kind: KindClient, StatusCode: 400},
		&APIError{Kind: KindClient, StatusCode: 403},
		&ValidationError{Message: "bad"},
		errors.New("dial tcp: connection refused"),
	}

	for _, want := range nonRetryable {
		timer := newFakeTimer()
		attempts := 0
		_, err := Retry(context.Background(), policyWithTimer(5, timer), func(context.Context) (string, error) {
			attempts++
			return "", want
		})
		assert.Equal(t, 1, attempts, "%v", want)
		assert.Same(t, want, err)
		assert.Empty(t, timer.Waits())
	}
}

func TestRetry_RateLimitUsesRetryAfterThenSucceeds(t *testing.T) {
	timer := newFakeTimer()
	retryAfter := 3 * time.Second
	attempts := 0

	var notified []int
	p := policyWithTimer(3, timer)
	p.Notify = func(attempt int, err error, wait time.Duration) {
		notified = append(notified, attempt)
		assert.Equal(t, KindRateLimit, KindOf(err))
	}

	got, err := Retry(context.Background(), p, func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", newRateLimitError(&retryAfter)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, timer.Waits())
	assert.Equal(t, []int{1, 2}, notified)
}

func TestRetry_CancelledContextStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	timer := newFakeTimer()
	attempts := 0

	_, err := Retry(ctx, policyWithTimer(5, timer), func(context.Context) (int, error) {
		attempts++
		cancel()
		return 0, &APIError{Kind: KindServer, StatusCode: 500}
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetry_BlockedWaitAbandonedOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	p := DefaultRetryPolicy(3)
	p.Wait = func(int, error) time.Duration { return time.Hour }

	done := make(chan error, 1)
	go func() {
		_, err := Retry(ctx, p, func(context.Context) (int, error) {
			attempts++
			return 0, &APIError{Kind: KindServer, StatusCode: 500}
		})
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	case <-time.After(5 * time.Second):
		t.Fatal("Retry did not return after cancellation")
	}
}
