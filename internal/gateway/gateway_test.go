// ABOUTME: Tests for the HTTP gateway: health, readiness, the MCP endpoint, auth, metrics and shutdown
// ABOUTME: Mattermost is an httptest server; MCP traffic is plain JSON-RPC over the streamable HTTP transport

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/mcp-server-mattermost/internal/config"
	"github.com/2389/mcp-server-mattermost/internal/store"
)

const (
	staticToken = "static-token"
	clientToken = "client-token"
)

var botID = strings.Repeat("b", 26)

// fakeMattermost accepts the static and client tokens on /users/me and answers /system/ping.
type fakeMattermost struct {
	srv *httptest.Server

	mu      sync.Mutex
	down    bool
	bearers []string
}

func newFakeMattermost(t *testing.T) *fakeMattermost {
	t.Helper()
	f := &fakeMattermost{}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeMattermost) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	down := f.down
	f.bearers = append(f.bearers, r.Header.Get("Authorization"))
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case down:
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, `{"message":"upstream down"}`)
	case r.URL.Path == "/api/v4/system/ping":
		_, _ = io.WriteString(w, `{"status":"OK"}`)
	case r.URL.Path == "/api/v4/users/me":
		auth := r.Header.Get("Authorization")
		if auth != "Bearer "+staticToken && auth != "Bearer "+clientToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"message":"invalid session"}`)
			return
		}
		_, _ = io.WriteString(w, `{"id":"`+botID+`","username":"bot"}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"no route"}`)
	}
}

func (f *fakeMattermost) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeMattermost) lastBearer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bearers) == 0 {
		return ""
	}
	return f.bearers[len(f.bearers)-1]
}

func testConfig(f *fakeMattermost) *config.Config {
	cfg := config.Default()
	cfg.Mattermost.URL = f.srv.URL
	cfg.Mattermost.Token = staticToken
	cfg.Mattermost.MaxRetries = 0
	cfg.Server.Transport = config.TransportHTTP
	cfg.Server.Port = 18000
	return cfg
}

// testLogger creates a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGateway(t *testing.T, cfg *config.Config) (*Gateway, *httptest.Server) {
	t.Helper()
	gw, err := New(cfg, "test", testLogger())
	require.NoError(t, err)
	srv := httptest.NewServer(gw.Handler())
	t.Cleanup(func() {
		srv.Close()
		_ = gw.Shutdown(context.Background())
	})
	return gw, srv
}

// mcpClient speaks JSON-RPC to the /mcp endpoint, carrying the session id.
type mcpClient struct {
	t       *testing.T
	url     string
	token   string
	session string
	nextID  int
}

func (c *mcpClient) post(method string, params any) *http.Response {
	c.t.Helper()
	c.nextID++
	body := map[string]any{"jsonrpc": "2.0", "id": c.nextID, "method": method}
	if params != nil {
		body["params"] = params
	}
	raw, err := json.Marshal(body)
	require.NoError(c.t, err)

	req, err := http.NewRequest(http.MethodPost, c.url+MCPPath, bytes.NewReader(raw))
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.session != "" {
		req.Header.Set("Mcp-Session-Id", c.session)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// call sends a request and returns its decoded result.
func (c *mcpClient) call(method string, params any) map[string]any {
	c.t.Helper()
	resp := c.post(method, params)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	if id := resp.Header.Get("Mcp-Session-Id"); id != "" {
		c.session = id
	}

	var msg struct {
		Result map[string]any `json:"result"`
		Error  map[string]any `json:"error"`
	}
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&msg))
	require.Nil(c.t, msg.Error)
	return msg.Result
}

func (c *mcpClient) initialize() map[string]any {
	return c.call("initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "gateway-test", "version": "0"},
	})
}

func TestHealth(t *testing.T) {
	fake := newFakeMattermost(t)
	_, srv := newTestGateway(t, testConfig(fake))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "healthy", "service": "mcp-server-mattermost"}, body)
}

func TestReady(t *testing.T) {
	fake := newFakeMattermost(t)
	_, srv := newTestGateway(t, testConfig(fake))

	resp, err := http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer "+staticToken, fake.lastBearer())

	fake.setDown(true)
	resp, err = http.Get(srv.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMCP_InitializeAndCallTool(t *testing.T) {
	fake := newFakeMattermost(t)
	_, srv := newTestGateway(t, testConfig(fake))

	client := &mcpClient{t: t, url: srv.URL}
	initResult := client.initialize()
	info := initResult["serverInfo"].(map[string]any)
	assert.Equal(t, "Mattermost", info["name"])
	assert.Equal(t, "test", info["version"])
	require.NotEmpty(t, client.session)

	tools := client.call("tools/list", nil)
	assert.Len(t, tools["tools"], 36)

	result := client.call("tools/call", map[string]any{"name": "get_me", "arguments": map[string]any{}})
	content := result["content"].([]any)
	assert.Contains(t, content[0].(map[string]any)["text"], `"username":"bot"`)
	assert.Equal(t, "Bearer "+staticToken, fake.lastBearer())
}

func TestMCP_ClientTokens(t *testing.T) {
	fake := newFakeMattermost(t)
	cfg := testConfig(fake)
	cfg.Mattermost.Token = ""
	cfg.Mattermost.AllowHTTPClientTokens = true
	_, srv := newTestGateway(t, cfg)

	// No token and no static fallback.
	anonymous := &mcpClient{t: t, url: srv.URL}
	resp := anonymous.post("initialize", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("WWW-Authenticate"), "Bearer")

	// A token Mattermost rejects.
	bad := &mcpClient{t: t, url: srv.URL, token: "stolen"}
	resp = bad.post("initialize", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid token", body["error"])

	// A verified token is the one the tool call uses.
	good := &mcpClient{t: t, url: srv.URL, token: clientToken}
	good.initialize()
	good.call("tools/call", map[string]any{"name": "get_me", "arguments": map[string]any{}})
	assert.Equal(t, "Bearer "+clientToken, fake.lastBearer())
}

func TestMetricsEndpoint(t *testing.T) {
	fake := newFakeMattermost(t)
	cfg := testConfig(fake)
	cfg.Metrics.Enabled = true
	_, srv := newTestGateway(t, cfg)

	client := &mcpClient{t: t, url: srv.URL}
	client.initialize()
	client.call("tools/call", map[string]any{"name": "get_me", "arguments": map[string]any{}})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, `mcp_mattermost_tools_calls_total{outcome="success",tool="get_me"} 1`)
	assert.Contains(t, text, `mcp_mattermost_mattermost_requests_total{method="GET",status_class="2xx"}`)
	assert.Contains(t, text, `mcp_mattermost_build_info{version="test"} 1`)
}

func TestMetricsDisabled(t *testing.T) {
	fake := newFakeMattermost(t)
	_, srv := newTestGateway(t, testConfig(fake))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServe_AuditAndShutdown(t *testing.T) {
	fake := newFakeMattermost(t)
	cfg := testConfig(fake)
	cfg.Audit.Enabled = true
	cfg.Audit.Path = filepath.Join(t.TempDir(), "audit.db")

	gw, err := New(cfg, "test", testLogger())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gw.Serve(ctx, ln) }()

	client := &mcpClient{t: t, url: "http://" + ln.Addr().String()}
	client.initialize()
	client.call("tools/call", map[string]any{"name": "get_me", "arguments": map[string]any{}})

	calls, err := gw.store.ListToolCalls(context.Background(), store.ToolCallFilter{})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "get_me", calls[0].Tool)
	assert.Equal(t, store.OutcomeSuccess, calls[0].Outcome)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("gateway did not shut down")
	}
	assert.Nil(t, gw.store, "audit store is closed on shutdown")
}

func TestDetermineMCPEndpoint(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "http://127.0.0.1:8000/mcp", determineMCPEndpoint(cfg))

	cfg.Tailscale.Enabled = true
	cfg.Tailscale.Hostname = "mattermost-mcp"
	assert.Equal(t, "http://mattermost-mcp/mcp", determineMCPEndpoint(cfg))

	cfg.Tailscale.HTTPS = true
	assert.Equal(t, "https://mattermost-mcp/mcp", determineMCPEndpoint(cfg))
}

func TestResolveTailscaleAuthKey(t *testing.T) {
	t.Setenv("TS_AUTHKEY", "")
	_, err := resolveTailscaleAuthKey("")
	assert.Error(t, err)

	key, err := resolveTailscaleAuthKey("tskey-config")
	require.NoError(t, err)
	assert.Equal(t, "tskey-config", key)

	t.Setenv("TS_AUTHKEY", "tskey-env")
	key, err = resolveTailscaleAuthKey("")
	require.NoError(t, err)
	assert.Equal(t, "tskey-env", key)
}

func TestResolveTailscaleStateDir(t *testing.T) {
	dir, err := resolveTailscaleStateDir("/var/lib/mcp")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/mcp", dir)

	dir, err = resolveTailscaleStateDir("")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(dir, filepath.Join("mcp-server-mattermost", "tailscale")), dir)
}
