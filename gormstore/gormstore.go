// Package gormstore provides a gorm session storage implementation.
//
// GORMStore allows storing, retrieving, and deleting session-like
// data keyed by a string token. Each record has an expiration time,
// and the store supports periodic cleanup of expired sessions.
package gormstore

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bluescreen10/voxara/session"
)

var _ session.CtxStore = (*GORMStore)(nil)

// GORMStore is a gorm backed storage for session-like data.
type GORMStore struct {
	db     *gorm.DB
	logger *slog.Logger
}

// record represents a single stored session, containing the data
// and its expiration time.
type record struct {
	Token     string `gorm:"primaryKey;type:char(64)"`
	Data      []byte
	ExpiresAt time.Time `gorm:"index"`
}

func (record) TableName() string {
	return "sessions"
}

// New creates and returns a new GORMStore instance.
// If the sessions table doesn't exist it is created.
func New(db *gorm.DB) (*GORMStore, error) {
	s := &GORMStore{db: db, logger: slog.Default()}
	return s, db.AutoMigrate(&record{})
}

// Get retrieves the data associated with the given token. Returns
// the data, a boolean indicating whether the token was found and
// not expired, and an error.
func (s *GORMStore) Get(token string) ([]byte, bool, error) {
	return s.GetCtx(context.Background(), token)
}

// Set stores the data under the given token with an expiration time. If
// a record with the same token already exists, it is overwritten.
func (s *GORMStore) Set(token string, data []byte, expiresAt time.Time) error {
	return s.SetCtx(context.Background(), token, data, expiresAt)
}

// Delete removes the data associated with the given token.
func (s *GORMStore) Delete(token string) error {
	return s.DeleteCtx(context.Background(), token)
}

func (s *GORMStore) GetCtx(ctx context.Context, token string) ([]byte, bool, error) {
	rec := &record{}
	tx := s.db.WithContext(ctx).
		Where("token = ? AND expires_at >= ?", token, time.Now().UTC()).
		Limit(1).
		Find(rec)
	if tx.Error != nil || tx.RowsAffected == 0 {
		return nil, false, tx.Error
	}

	return rec.Data, true, nil
}

func (s *GORMStore) SetCtx(ctx context.Context, token string, data []byte, expiresAt time.Time) error {
	rec := &record{Token: token, Data: data, ExpiresAt: expiresAt.UTC()}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at"}),
	}).Create(rec)
	return tx.Error
}

func (s *GORMStore) DeleteCtx(ctx context.Context, token string) error {
	tx := s.db.WithContext(ctx).Delete(&record{}, "token = ?", token)
	return tx.Error
}

// PeriodicCleanUp runs a loop that periodically deletes expired sessions.
// The cleanup runs every interval duration until a value is received on
// the stop channel, at which point the loop returns.
//
// Example usage:
//
//	stop := make(chan struct{})
//	go store.PeriodicCleanUp(time.Minute, stop)
//	...
//	close(stop) // stop the cleanup
func (s *GORMStore) PeriodicCleanUp(interval time.Duration, stop <-chan struct{}) {
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

// deleteExpired removes all expired records.
func (s *GORMStore) deleteExpired() {
	tx := s.db.Delete(&record{}, "expires_at < ?", time.Now().UTC())
	if tx.Error != nil {
		s.logger.Error("gormstore: delete expired sessions", "error", tx.Error)
	}
}
