// Package sqlitestore provides a SQLite session storage implementation using
// the pure Go modernc.org/sqlite driver, so it builds without cgo.
//
// Expiry times are stored as unix milliseconds to keep comparisons exact.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bluescreen10/voxara/session"
)

var _ session.CtxStore = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database file at path and returns a store on it.
func Open(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New returns a store on an already opened database, creating the sessions
// table if needed.
func New(db *sql.DB) (*SQLiteStore, error) {
	if err := createTable(context.Background(), db); err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, logger: slog.Default()}, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Get(token string) ([]byte, bool, error) {
	return s.GetCtx(context.Background(), token)
}

func (s *SQLiteStore) Set(token string, data []byte, expiresAt time.Time) error {
	return s.SetCtx(context.Background(), token, data, expiresAt)
}

func (s *SQLiteStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

func (s *SQLiteStore) GetCtx(ctx context.Context, token string) ([]byte, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT data FROM sessions WHERE token = ? AND expires_at > ?",
		token, toMillis(time.Now()))

	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (s *SQLiteStore) SetCtx(ctx context.Context, token string, data []byte, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, data, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		token, data, toMillis(expiresAt))
	return err
}

func (s *SQLiteStore) DeleteCtx(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// PeriodicCleanUp runs a loop that periodically deletes expired sessions
// until a value is received on stop.
func (s *SQLiteStore) PeriodicCleanUp(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.deleteExpired()
		case <-stop:
			return
		}
	}
}

func (s *SQLiteStore) deleteExpired() {
	if _, err := s.db.Exec("DELETE FROM sessions WHERE expires_at <= ?", toMillis(time.Now())); err != nil {
		s.logger.Error("sqlitestore: delete expired sessions", "error", err)
	}
}

func createTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON sessions (expires_at)`)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}
