// ABOUTME: Shared test helpers for the mattermost package
// ABOUTME: httptest-backed clients, a recording retry timer, and request capture

package mattermost

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/2389/mcp-server-mattermost/internal/config"
)

const testToken = "test-token-5f2c9a"

// fakeTimer records requested waits and fires immediately.
type fakeTimer struct {
	mu    sync.Mutex
	waits []time.Duration
	ch    chan time.Time
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{ch: make(chan time.Time, 1)}
}

func (t *fakeTimer) Start(d time.Duration) {
	t.mu.Lock()
	t.waits = append(t.waits, d)
	t.mu.Unlock()
	t.ch <- time.Now()
}

func (t *fakeTimer) Stop() {}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Waits() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.waits...)
}

func (t *fakeTimer) factory() func() backoff.Timer {
	return func() backoff.Timer { return t }
}

// recordedRequest is what the fake server saw for one request.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// recorder collects requests across handler invocations.
type recorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (r *recorder) record(req *http.Request) recordedRequest {
	body, _ := io.ReadAll(req.Body)
	rec := recordedRequest{
		Method: req.Method,
		Path:   req.URL.EscapedPath(),
		Query:  req.URL.RawQuery,
		Header: req.Header.Clone(),
		Body:   body,
	}
	r.mu.Lock()
	r.requests = append(r.requests, rec)
	r.mu.Unlock()
	return rec
}

func (r *recorder) All() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.requests...)
}

func (r *recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func testSettings(url string, maxRetries int) config.Settings {
	return config.Settings{
		URL:        url,
		Token:      testToken,
		Timeout:    5,
		MaxRetries: maxRetries,
		VerifySSL:  true,
		APIVersion: "v4",
	}
}

// newTestServer serves handler under /api/v4 and records every request.
func newTestServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, rec recordedRequest)) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen := rec.record(r)
		handler(w, r, seen)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

// newConnectedClient returns a connected client against srv using a fake retry timer.
func newConnectedClient(t *testing.T, srv *httptest.Server, maxRetries int, opts ...Option) (*Client, *fakeTimer) {
	t.Helper()
	timer := newFakeTimer()
	opts = append([]Option{WithTimer(timer.factory())}, opts...)
	c, err := New(testSettings(srv.URL, maxRetries), opts...)
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c, timer
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
