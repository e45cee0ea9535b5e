// Package pgxstore provides a PostgreSQL session storage implementation
// on top of a pgx connection pool.
//
// PgxStore allows storing, retrieving, and deleting session-like
// data keyed by a string token. Each record has an expiration time,
// and the store supports periodic cleanup of expired sessions.
package pgxstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bluescreen10/voxara/session"
)

var _ session.CtxStore = (*PgxStore)(nil)

// PgxStore is a PostgreSQL backed storage for session-like data.
type PgxStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New returns a store backed by pool, creating the sessions table if needed.
func New(ctx context.Context, pool *pgxpool.Pool) (*PgxStore, error) {
	s := &PgxStore{pool: pool, logger: slog.Default()}
	return s, createTable(ctx, pool)
}

// Get retrieves the data associated with the given token. Returns
// the data, a boolean indicating whether the token was found and
// not expired, and an error.
func (s *PgxStore) Get(token string) ([]byte, bool, error) {
	return s.GetCtx(context.Background(), token)
}

// Set stores the data under the given token with an expiration time. If
// a record with the same token already exists, it is overwritten.
func (s *PgxStore) Set(token string, data []byte, expiresAt time.Time) error {
	return s.SetCtx(context.Background(), token, data, expiresAt)
}

// Delete removes the data associated with the given token.
func (s *PgxStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

func (s *PgxStore) GetCtx(ctx context.Context, token string) ([]byte, bool, error) {
	stmt := "SELECT data FROM sessions WHERE token = $1 AND expires_at > NOW()"

	var data []byte
	err := s.pool.QueryRow(ctx, stmt, token).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (s *PgxStore) SetCtx(ctx context.Context, token string, data []byte, expiresAt time.Time) error {
	stmt := `INSERT INTO sessions (token, data, expires_at) VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`
	_, err := s.pool.Exec(ctx, stmt, token, data, expiresAt.UTC())
	return err
}

func (s *PgxStore) DeleteCtx(ctx context.Context, token string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM sessions WHERE token = $1", token)
	return err
}

// PeriodicCleanUp runs a loop that periodically deletes expired sessions.
// The cleanup runs every interval duration until a value is received on
// the stop channel, at which point the loop returns.
func (s *PgxStore) PeriodicCleanUp(interval time.Duration, stop <-chan struct{}) {
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

func (s *PgxStore) deleteExpired() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.pool.Exec(ctx, "DELETE FROM sessions WHERE expires_at <= NOW()"); err != nil {
		s.logger.Error("pgxstore: delete expired sessions", "error", err)
	}
}

func createTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS sessions (
			token TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	_, err = pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON sessions (expires_at)`)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}
