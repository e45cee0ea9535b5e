package session

import (
	"context"
	"time"
)

// Store defines the interface for session storage backends.
// A Store is responsible for persisting and retrieving session data
// by a unique session token. Implementations may store sessions in
// memory, databases, caches, or any other durable storage system.
type Store interface {
	// Get retrieves the session data associated with the given token.
	// It returns the raw session data, a boolean indicating whether
	// the session was found, and an error if the lookup failed.
	// Expired sessions must be reported as not found.
	Get(token string) (data []byte, found bool, err error)

	// Set stores the session data for the given token until the
	// specified expiration time. If a session with the same token
	// already exists, it should be overwritten.
	Set(token string, data []byte, expiresAt time.Time) error

	// Delete removes the session associated with the given token.
	// It returns an error if the deletion fails, but should not
	// return an error if the session does not exist.
	Delete(token string) error
}

// CtxStore is implemented by stores whose operations honour a context
// deadline or cancellation. The Manager prefers these methods when present.
type CtxStore interface {
	Store

	GetCtx(ctx context.Context, token string) (data []byte, found bool, err error)
	SetCtx(ctx context.Context, token string, data []byte, expiresAt time.Time) error
	DeleteCtx(ctx context.Context, token string) error
}

func storeGet(ctx context.Context, s Store, token string) ([]byte, bool, error) {
	if cs, ok := s.(CtxStore); ok {
		return cs.GetCtx(ctx, token)
	}
	return s.Get(token)
}

func storeSet(ctx context.Context, s Store, token string, data []byte, expiresAt time.Time) error {
	if cs, ok := s.(CtxStore); ok {
		return cs.SetCtx(ctx, token, data, expiresAt)
	}
	return s.Set(token, data, expiresAt)
}

func storeDelete(ctx context.Context, s Store, token string) error {
	if cs, ok := s.(CtxStore); ok {
		return cs.DeleteCtx(ctx, token)
	}
	return s.Delete(token)
}
