// Package mysqlstore provides a MySQL/MariaDB session storage implementation.
//
// MySQLStore allows storing, retrieving, and deleting session-like
// data keyed by a string token. Each record has an expiration time,
// and the store supports periodic cleanup of expired sessions.
//
// The caller owns the *sql.DB and must import a driver, typically
// github.com/go-sql-driver/mysql with parseTime=true.
package mysqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bluescreen10/voxara/session"
)

var _ session.CtxStore = (*MySQLStore)(nil)

type MySQLStore struct {
	db     *sql.DB
	logger *slog.Logger
}

type config func(*MySQLStore)

// WithLogger sets the logger cleanup failures are reported to.
// (default slog.Default())
func WithLogger(logger *slog.Logger) config {
	return config(func(s *MySQLStore) {
		s.logger = logger
	})
}

// New returns a store backed by db, creating the sessions table if needed.
func New(db *sql.DB, cfgs ...config) (*MySQLStore, error) {
	s := &MySQLStore{db: db, logger: slog.Default()}
	for _, cfg := range cfgs {
		cfg(s)
	}
	return s, createTable(context.Background(), db)
}

// Get retrieves the data associated with the given token. Returns
// the data, a boolean indicating whether the token was found and
// not expired, and an error.
func (s *MySQLStore) Get(token string) ([]byte, bool, error) {
	return s.GetCtx(context.Background(), token)
}

// Set stores the data under the given token with an expiration time. If
// a record with the same token already exists, it is overwritten.
func (s *MySQLStore) Set(token string, data []byte, expiresAt time.Time) error {
	return s.SetCtx(context.Background(), token, data, expiresAt)
}

// Delete removes the data associated with the given token.
func (s *MySQLStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

func (s *MySQLStore) GetCtx(ctx context.Context, token string) ([]byte, bool, error) {
	stmt := "SELECT data FROM sessions WHERE token = ? AND UTC_TIMESTAMP(6) < expires_at"
	row := s.db.QueryRowContext(ctx, stmt, token)

	var data []byte
	err := row.Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (s *MySQLStore) SetCtx(ctx context.Context, token string, data []byte, expiresAt time.Time) error {
	stmt := "INSERT INTO sessions(token, data, expires_at) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE data = VALUES(data), expires_at = VALUES(expires_at)"
	_, err := s.db.ExecContext(ctx, stmt, token, data, expiresAt.UTC())
	return err
}

func (s *MySQLStore) DeleteCtx(ctx context.Context, token string) error {
	stmt := "DELETE FROM sessions WHERE token = ?"
	_, err := s.db.ExecContext(ctx, stmt, token)
	return err
}

// PeriodicCleanUp runs a loop that periodically deletes expired sessions.
// The cleanup runs every interval duration until a value is received on
// the stop channel, at which point the loop returns.
func (s *MySQLStore) PeriodicCleanUp(interval time.Duration, stop <-chan struct{}) {
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

func (s *MySQLStore) deleteExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stmt := "DELETE FROM sessions WHERE UTC_TIMESTAMP(6) >= expires_at"
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		s.logger.Error("mysqlstore: delete expired sessions", "error", err)
	}
}

func createTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS sessions (
			token CHAR(64) COLLATE utf8mb4_bin PRIMARY KEY,
			data BLOB NOT NULL,
			expires_at TIMESTAMP(6) NOT NULL
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
