// ABOUTME: Tests for the Mattermost-backed token verifier
// ABOUTME: Covers acceptance, fail-closed rejection, caching with TTL, and single-flight lookups

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/mcp-server-mattermost/internal/cache"
	"github.com/2389/mcp-server-mattermost/internal/config"
)

const (
	goodToken = "good-token-0123456789"
	goodUser  = "u1aaaaaaaaaaaaaaaaaaaaaaaa"
)

type fakeMattermost struct {
	srv   *httptest.Server
	calls atomic.Int32
	delay time.Duration
	code  atomic.Int32 // forced status; 0 means normal behaviour
}

func newFakeMattermost(t *testing.T) *fakeMattermost {
	t.Helper()
	f := &fakeMattermost{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v4/users/me" {
			http.NotFound(w, r)
			return
		}
		f.calls.Add(1)
		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		w.Header().Set("Content-Type", "application/json")
		if code := f.code.Load(); code != 0 {
			w.WriteHeader(int(code))
			_, _ = w.Write([]byte(`{"message":"forced"}`))
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+goodToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"id":"api.context.session_expired.app_error","message":"Invalid or expired session"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"` + goodUser + `","username":"alice"}`))
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func verifierSettings(url string) config.Settings {
	return config.Settings{
		URL:                   url,
		AllowHTTPClientTokens: true,
		Timeout:               5,
		MaxRetries:            3,
		VerifySSL:             true,
		APIVersion:            "v4",
	}
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestVerifier(t *testing.T, f *fakeMattermost) (*MattermostVerifier, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	v := NewMattermostVerifier(verifierSettings(f.srv.URL),
		WithCache(DefaultCacheTTL, DefaultCacheSize, cache.WithClock(clock.Now), cache.WithCleanupInterval(0)))
	t.Cleanup(v.Close)
	return v, clock
}

func TestVerify_ValidToken(t *testing.T) {
	f := newFakeMattermost(t)
	v, _ := newTestVerifier(t, f)

	userID, err := v.Verify(context.Background(), goodToken)
	require.NoError(t, err)
	assert.Equal(t, goodUser, userID)
}

func TestVerify_RejectedToken(t *testing.T) {
	f := newFakeMattermost(t)
	v, _ := newTestVerifier(t, f)

	_, err := v.Verify(context.Background(), "bad-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(context.Background(), "bad-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, int32(2), f.calls.Load(), "rejections are not cached")
}

func TestVerify_EmptyToken(t *testing.T) {
	f := newFakeMattermost(t)
	v, _ := newTestVerifier(t, f)

	_, err := v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Zero(t, f.calls.Load())
}

func TestVerify_ServerErrorFailsClosedWithoutRetry(t *testing.T) {
	f := newFakeMattermost(t)
	f.code.Store(http.StatusServiceUnavailable)
	v, _ := newTestVerifier(t, f)

	_, err := v.Verify(context.Background(), goodToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestVerify_UnreachableServerFailsClosed(t *testing.T) {
	f := newFakeMattermost(t)
	url := f.srv.URL
	f.srv.Close()

	v := NewMattermostVerifier(verifierSettings(url))
	defer v.Close()

	_, err := v.Verify(context.Background(), goodToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_CachesAcceptedTokens(t *testing.T) {
	f := newFakeMattermost(t)
	v, clock := newTestVerifier(t, f)
	ctx := context.Background()

	for range 3 {
		_, err := v.Verify(ctx, goodToken)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.calls.Load())

	clock.Advance(DefaultCacheTTL)
	_, err := v.Verify(ctx, goodToken)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load(), "expired entry triggers a new lookup")
}

func TestVerify_ConcurrentCallsShareLookup(t *testing.T) {
	f := newFakeMattermost(t)
	f.delay = 100 * time.Millisecond
	v, _ := newTestVerifier(t, f)

	var wg sync.WaitGroup
	results := make([]string, 10)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID, err := v.Verify(context.Background(), goodToken)
			assert.NoError(t, err)
			results[i] = userID
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for _, r := range results {
		assert.Equal(t, goodUser, r)
	}
}

func TestVerify_CancelledCallerDoesNotPoisonOthers(t *testing.T) {
	f := newFakeMattermost(t)
	f.delay = 100 * time.Millisecond
	v, _ := newTestVerifier(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := v.Verify(ctx, goodToken)
		errCh <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	userID, err := v.Verify(context.Background(), goodToken)
	require.NoError(t, err)
	assert.Equal(t, goodUser, userID)
	assert.ErrorIs(t, <-errCh, ErrInvalidToken)
}

func TestVerifier_CloseWithoutUse(t *testing.T) {
	v := NewMattermostVerifier(verifierSettings("http://127.0.0.1:1"))
	v.Close()
	v.Close()
}
