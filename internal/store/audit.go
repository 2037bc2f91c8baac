// ABOUTME: Audit records for MCP tool calls
// ABOUTME: One row per call: which tool ran, for whom, how it ended and how long it took

package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Tool call outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// ToolCall is one audited tool invocation. Arguments are never stored.
type ToolCall struct {
	ID         string    `db:"id"`
	RequestID  string    `db:"request_id"`
	Tool       string    `db:"tool"`
	Capability string    `db:"capability"`
	UserID     string    `db:"user_id"`    // empty when the static token was used
	Outcome    string    `db:"outcome"`    // OutcomeSuccess or OutcomeError
	ErrorKind  string    `db:"error_kind"` // mattermost error kind, "validation", or "internal"
	DurationMs int64     `db:"duration_ms"`
	CreatedAt  time.Time `db:"-"`
}

// ToolCallFilter narrows ListToolCalls.
type ToolCallFilter struct {
	Tool    string
	Outcome string
	Since   *time.Time
	Limit   int // default 100, max 1000
}

// RecordToolCall appends a tool call. ID and CreatedAt are generated when unset.
func (s *SQLiteStore) RecordToolCall(ctx context.Context, c *ToolCall) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	insert := s.builder.Insert("tool_calls").
		Columns("id", "request_id", "tool", "capability", "user_id", "outcome", "error_kind", "duration_ms", "created_at").
		Values(c.ID, c.RequestID, c.Tool, c.Capability, c.UserID, c.Outcome, c.ErrorKind, c.DurationMs, c.CreatedAt.UTC().Format(timeFormat))

	if _, err := s.execBuilder(ctx, insert); err != nil {
		return fmt.Errorf("inserting tool call: %w", err)
	}

	s.logger.Debug("recorded tool call", "id", c.ID, "tool", c.Tool, "outcome", c.Outcome)
	return nil
}

// normalizeLimit applies default (100) and cap (1000).
func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

type toolCallRow struct {
	ToolCall
	CreatedAtStr string `db:"created_at"`
}

// ListToolCalls returns matching calls, newest first.
func (s *SQLiteStore) ListToolCalls(ctx context.Context, f ToolCallFilter) ([]ToolCall, error) {
	query := s.builder.
		Select("id", "request_id", "tool", "capability", "user_id", "outcome", "error_kind", "duration_ms", "created_at").
		From("tool_calls").
		OrderBy("created_at DESC").
		Limit(uint64(normalizeLimit(f.Limit)))

	if f.Tool != "" {
		query = query.Where(sq.Eq{"tool": f.Tool})
	}
	if f.Outcome != "" {
		query = query.Where(sq.Eq{"outcome": f.Outcome})
	}
	if f.Since != nil {
		query = query.Where(sq.GtOrEq{"created_at": f.Since.UTC().Format(timeFormat)})
	}

	var rows []toolCallRow
	if err := s.doQuery(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("listing tool calls: %w", err)
	}

	calls := make([]ToolCall, 0, len(rows))
	for _, r := range rows {
		ts, err := time.Parse(timeFormat, r.CreatedAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		c := r.ToolCall
		c.CreatedAt = ts
		calls = append(calls, c)
	}
	return calls, nil
}

// CountToolCalls returns the number of calls per outcome.
func (s *SQLiteStore) CountToolCalls(ctx context.Context) (map[string]int, error) {
	query := s.builder.Select("outcome", "COUNT(*) AS n").From("tool_calls").GroupBy("outcome")

	var rows []struct {
		Outcome string `db:"outcome"`
		N       int    `db:"n"`
	}
	if err := s.doQuery(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("counting tool calls: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Outcome] = r.N
	}
	return counts, nil
}
