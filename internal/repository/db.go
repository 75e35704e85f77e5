package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// DBConfig is the connection setup for Open. The pool limits only apply to
// postgres; SQLite is pinned to a single connection.
type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open connects to the configured database. A postgres:// or postgresql://
// DSN goes through pgx; anything else (a file: URL or a plain path) is treated
// as SQLite, which is the zero-setup default for a single-user install.
func Open(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	driver := "sqlite"
	if isPostgres(cfg.DSN) {
		driver = "pgx"
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database (%s): %w", driver, err)
	}
	if driver == "sqlite" {
		// SQLite serializes writers; more connections only add lock contention.
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// EnsureSchema creates the tables if they do not exist. The DDL sticks to
// types both backends accept; timestamps are stored as RFC 3339 text.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id            TEXT PRIMARY KEY,
			filename      TEXT NOT NULL,
			media_type    TEXT NOT NULL,
			status        TEXT NOT NULL,
			content       TEXT NOT NULL DEFAULT '',
			category      TEXT,
			issuer        TEXT,
			doc_date      TEXT,
			amount        TEXT,
			summary       TEXT,
			sources       TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL,
			updated_at    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_status ON documents (status)`,
		`CREATE TABLE IF NOT EXISTS classification_rules (
			id              TEXT PRIMARY KEY,
			name            TEXT NOT NULL,
			priority        INTEGER NOT NULL DEFAULT 0,
			enabled         INTEGER NOT NULL DEFAULT 1,
			target_category TEXT NOT NULL,
			created_at      TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rule_conditions (
			rule_id  TEXT NOT NULL REFERENCES classification_rules (id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			field    TEXT NOT NULL,
			value    TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (rule_id, position)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// joinSources / splitSources flatten the provenance tags into one column.
// Tags are fixed identifiers and never contain the separator.
func joinSources(sources []string) string {
	return strings.Join(sources, ",")
}

func splitSources(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
