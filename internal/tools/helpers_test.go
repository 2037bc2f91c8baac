// ABOUTME: Shared test helpers for the tools package
// ABOUTME: A routed fake Mattermost server and helpers to call tools through a Dispatcher

package tools

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/2389/mcp-server-mattermost/internal/config"
	"github.com/2389/mcp-server-mattermost/internal/mattermost"
)

const testToken = "tools-test-token"

var (
	teamID    = strings.Repeat("t", 26)
	channelID = strings.Repeat("c", 26)
	userID    = strings.Repeat("u", 26)
	otherID   = strings.Repeat("o", 26)
	postID    = strings.Repeat("p", 26)
	fileID    = strings.Repeat("f", 26)
	bmID      = strings.Repeat("b", 26)
)

type seenRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   string
}

type route struct {
	status int
	body   string
	header map[string]string
}

// fakeMattermost answers "METHOD /api/v4/path" routes and 404s the rest.
type fakeMattermost struct {
	srv    *httptest.Server
	mu     sync.Mutex
	routes map[string]route
	seen   []seenRequest
}

func newFakeMattermost(t *testing.T) *fakeMattermost {
	t.Helper()
	f := &fakeMattermost{routes: make(map[string]route)}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeMattermost) on(method, path string, status int, body string) *fakeMattermost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" /api/v4"+path] = route{status: status, body: body}
	return f
}

func (f *fakeMattermost) onWithHeader(method, path string, status int, body string, header map[string]string) *fakeMattermost {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" /api/v4"+path] = route{status: status, body: body, header: header}
	return f
}

func (f *fakeMattermost) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.seen = append(f.seen, seenRequest{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	rt, ok := f.routes[r.Method+" "+r.URL.EscapedPath()]
	f.mu.Unlock()

	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"no route","id":"test.missing"}`)
		return
	}
	for k, v := range rt.header {
		w.Header().Set(k, v)
	}
	if rt.body != "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(rt.status)
	_, _ = io.WriteString(w, rt.body)
}

func (f *fakeMattermost) requests() []seenRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]seenRequest(nil), f.seen...)
}

func (f *fakeMattermost) settings() config.Settings {
	return config.Settings{
		URL:        f.srv.URL,
		Token:      testToken,
		Timeout:    5,
		MaxRetries: 0,
		VerifySSL:  true,
		APIVersion: "v4",
	}
}

// sessions opens one client session per call against the fake server.
func (f *fakeMattermost) sessions() SessionFunc {
	settings := f.settings()
	return func(ctx context.Context, fn func(context.Context, *mattermost.Client) error) error {
		return mattermost.Session(ctx, settings, fn)
	}
}

func mustTool(t *testing.T, name string) *Tool {
	t.Helper()
	tool, ok := NewRegistry(config.ToolsConfig{}).Get(name)
	require.True(t, ok, "tool %s not registered", name)
	return tool
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// callTool runs a tool through d and returns the result and its text.
func callTool(t *testing.T, d *Dispatcher, name string, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	return callToolRequest(t, context.Background(), d, callRequest(name, args))
}

func callToolRequest(t *testing.T, ctx context.Context, d *Dispatcher, req mcp.CallToolRequest) (*mcp.CallToolResult, string) {
	t.Helper()
	res, err := d.Handler(mustTool(t, req.Params.Name))(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return res, text.Text
}
