// ABOUTME: SQLite-backed audit store using modernc.org/sqlite through sqlx
// ABOUTME: Creates the schema on open and builds queries with squirrel

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type builder interface {
	ToSql() (string, []any, error)
}

// SQLiteStore persists tool call records in a single SQLite file.
type SQLiteStore struct {
	db      *sqlx.DB
	builder sq.StatementBuilderType
	logger  *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at path.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger:  logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS tool_calls (
			id          TEXT PRIMARY KEY,
			request_id  TEXT NOT NULL,
			tool        TEXT NOT NULL,
			capability  TEXT NOT NULL,
			user_id     TEXT NOT NULL DEFAULT '',
			outcome     TEXT NOT NULL,
			error_kind  TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL,
			created_at  TEXT NOT NULL,

			CHECK (outcome IN ('success', 'error'))
		);

		CREATE INDEX IF NOT EXISTS idx_tool_calls_created ON tool_calls(created_at);
		CREATE INDEX IF NOT EXISTS idx_tool_calls_tool ON tool_calls(tool, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) execBuilder(ctx context.Context, b builder) (sql.Result, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building sql: %w", err)
	}
	return s.db.ExecContext(ctx, query, args...)
}

func (s *SQLiteStore) doQuery(ctx context.Context, dest any, b builder) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("building sql: %w", err)
	}
	return s.db.SelectContext(ctx, dest, query, args...)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
