// Package store keeps an optional audit trail of MCP tool calls in SQLite.
//
// The database is opened with the pure-Go modernc.org/sqlite driver through
// sqlx; queries are composed with squirrel. The single table is
//
//	tool_calls(id, request_id, tool, capability, user_id, outcome, error_kind, duration_ms, created_at)
//
// Tool arguments and results are never written, only what ran and how it
// ended. Enable it with audit.enabled and audit.path.
package store
