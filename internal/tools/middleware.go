// ABOUTME: Runs tool calls inside a Mattermost session with logging, metrics and audit
// ABOUTME: Emits tool_call_start/success/error events carrying only whitelisted parameters

package tools

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mattermost/mattermost/server/public/model"

	"github.com/2389/mcp-server-mattermost/internal/auth"
	"github.com/2389/mcp-server-mattermost/internal/mattermost"
	"github.com/2389/mcp-server-mattermost/internal/store"
)

// SessionFunc runs fn inside one Mattermost session opened for the calling request.
type SessionFunc func(ctx context.Context, fn func(context.Context, *mattermost.Client) error) error

// CallObserver receives one observation per finished tool call.
type CallObserver interface {
	ObserveToolCall(tool, outcome string, d time.Duration)
}

// AuditRecorder persists tool call records.
type AuditRecorder interface {
	RecordToolCall(ctx context.Context, c *store.ToolCall) error
}

// loggedParams are the only argument names that appear in logs.
var loggedParams = map[string]struct{}{
	"team_id":         {},
	"channel_id":      {},
	"user_id":         {},
	"post_id":         {},
	"file_id":         {},
	"bookmark_id":     {},
	"root_id":         {},
	"page":            {},
	"per_page":        {},
	"limit":           {},
	"offset":          {},
	"include_deleted": {},
	"exclude_bots":    {},
	"is_or_search":    {},
	"bookmarks_since": {},
	"new_sort_order":  {},
	"bookmark_type":   {},
}

// Dispatcher turns tools into MCP handlers.
type Dispatcher struct {
	sessions SessionFunc
	logger   *slog.Logger
	observer CallObserver
	audit    AuditRecorder
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithObserver(o CallObserver) DispatcherOption {
	return func(d *Dispatcher) { d.observer = o }
}

// WithAudit records every call. A nil recorder disables auditing.
func WithAudit(r AuditRecorder) DispatcherOption {
	return func(d *Dispatcher) { d.audit = r }
}

func NewDispatcher(sessions SessionFunc, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = d.logger.With("component", "tools")
	return d
}

// Handler returns the MCP handler for t. Failures become tool-error results,
// never protocol errors.
func (d *Dispatcher) Handler(t *Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		requestID := requestIDFor(req)
		ctx = mattermost.WithRequestID(ctx, requestID)
		args := req.GetRawArguments()

		d.logger.Info("tool_call_start",
			"event", "tool_call_start",
			"request_id", requestID,
			"tool", t.Name,
			"params", redactParams(args),
		)

		start := time.Now()
		result, err := d.run(ctx, t, args)
		elapsed := time.Since(start)

		outcome := store.OutcomeSuccess
		kind := ""
		if err != nil {
			outcome = store.OutcomeError
			kind = errorKind(err)
			d.logger.Error("tool_call_error",
				"event", "tool_call_error",
				"request_id", requestID,
				"tool", t.Name,
				"duration_ms", durationMs(elapsed),
				"error_type", kind,
				"error_message", err.Error(),
			)
			result = mcp.NewToolResultError(userMessage(err))
		} else {
			d.logger.Info("tool_call_success",
				"event", "tool_call_success",
				"request_id", requestID,
				"tool", t.Name,
				"duration_ms", durationMs(elapsed),
			)
		}

		if d.observer != nil {
			d.observer.ObserveToolCall(t.Name, outcome, elapsed)
		}
		d.record(ctx, t, requestID, outcome, kind, elapsed)
		return result, nil
	}
}

// run binds the arguments, then executes the tool in a fresh session.
// Invalid arguments never open a session.
func (d *Dispatcher) run(ctx context.Context, t *Tool, args any) (*mcp.CallToolResult, error) {
	fn, err := t.bind(args)
	if err != nil {
		return nil, err
	}

	var out any
	err = d.sessions(ctx, func(ctx context.Context, c *mattermost.Client) error {
		res, callErr := fn(ctx, c)
		out = res
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return formatResult(out)
}

func (d *Dispatcher) record(ctx context.Context, t *Tool, requestID, outcome, kind string, elapsed time.Duration) {
	if d.audit == nil {
		return
	}
	entry := &store.ToolCall{
		RequestID:  requestID,
		Tool:       t.Name,
		Capability: string(t.Capability),
		Outcome:    outcome,
		ErrorKind:  kind,
		DurationMs: elapsed.Milliseconds(),
	}
	if id := auth.FromContext(ctx); id != nil {
		entry.UserID = id.UserID
	}
	// The row is written even when the caller has gone away.
	if err := d.audit.RecordToolCall(context.WithoutCancel(ctx), entry); err != nil {
		d.logger.Warn("failed to record tool call", "request_id", requestID, "tool", t.Name, "error", err)
	}
}

// requestIDFor prefers the client's X-Request-ID header (HTTP transport) and
// otherwise generates one.
func requestIDFor(req mcp.CallToolRequest) string {
	if req.Header != nil {
		if id := req.Header.Get(model.HeaderRequestId); id != "" {
			return id
		}
	}
	return uuid.New().String()
}

// redactParams keeps only whitelisted argument names.
func redactParams(args any) map[string]any {
	m, _ := args.(map[string]any)
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, ok := loggedParams[k]; ok {
			out[k] = v
		}
	}
	return out
}

func durationMs(d time.Duration) float64 {
	return math.Round(float64(d.Microseconds())/10) / 100
}
