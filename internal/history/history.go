// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history keeps a searchable log of past exchanges across all
// planning sessions, backing the /history command.
package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("history store is closed")

// =============================================================================
// EXCHANGE TYPE
// =============================================================================

// Exchange is one user turn and the assistant's reply.
type Exchange struct {
	ID        int64
	SessionID string
	Mode      string
	Module    string
	Agent     string
	Model     string
	Prompt    string
	Reply     string
	CreatedAt time.Time
}

// =============================================================================
// STORE
// =============================================================================

// Store records exchanges in a local SQLite database.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	mode        TEXT NOT NULL DEFAULT '',
	module      TEXT NOT NULL DEFAULT '',
	agent       TEXT NOT NULL DEFAULT '',
	model       TEXT NOT NULL DEFAULT '',
	prompt      TEXT NOT NULL,
	reply       TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_exchanges_session ON exchanges(session_id);
CREATE INDEX IF NOT EXISTS idx_exchanges_created ON exchanges(created_at);
`

// Open opens (or creates) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite handles one writer; serialize through a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// OpenDefault opens the database at ~/.venture/history.db.
func OpenDefault() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return Open(filepath.Join(home, ".venture", "history.db"))
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Record appends one exchange to the log.
func (s *Store) Record(ctx context.Context, ex Exchange) error {
	if s.db == nil {
		return ErrClosed
	}
	created := ex.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exchanges (session_id, mode, module, agent, model, prompt, reply, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.SessionID, ex.Mode, ex.Module, ex.Agent, ex.Model,
		normalize(ex.Prompt), normalize(ex.Reply), created,
	)
	return err
}

// Recent returns the newest exchanges, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Exchange, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, mode, module, agent, model, prompt, reply, created_at
		FROM exchanges ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExchanges(rows)
}

// Search returns exchanges whose prompt or reply contains the query,
// newest first. Matching is case-insensitive on NFC-normalized text.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Exchange, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(normalize(query)) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, mode, module, agent, model, prompt, reply, created_at
		FROM exchanges
		WHERE prompt LIKE ? ESCAPE '\' OR reply LIKE ? ESCAPE '\'
		ORDER BY id DESC LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanExchanges(rows)
}

// Count returns the number of recorded exchanges.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges`).Scan(&n)
	return n, err
}

// Clear drops all recorded exchanges.
func (s *Store) Clear(ctx context.Context) error {
	if s.db == nil {
		return ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM exchanges`)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func scanExchanges(rows *sql.Rows) ([]Exchange, error) {
	var out []Exchange
	for rows.Next() {
		var ex Exchange
		if err := rows.Scan(&ex.ID, &ex.SessionID, &ex.Mode, &ex.Module,
			&ex.Agent, &ex.Model, &ex.Prompt, &ex.Reply, &ex.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// normalize puts text into NFC so composed and decomposed forms of the
// same characters match each other.
func normalize(s string) string {
	return norm.NFC.String(s)
}

// escapeLike escapes SQL LIKE wildcards in user queries.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
