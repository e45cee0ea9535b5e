package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bluescreen10/voxara/session"
)

// Keys under which the signed-in identity is kept in the cookie session.
const (
	userIDKey = "auth.user_id"
	emailKey  = "auth.email"
	nameKey   = "auth.name"
)

// SessionLookup resolves a cookie session from request headers without
// creating one. *session.Manager implements it.
type SessionLookup interface {
	Lookup(ctx context.Context, header http.Header) (*session.Session, bool, error)
}

// CookieService is a Service backed by the cookie session manager. A cookie
// session counts only once SignIn stored an identity in it.
type CookieService struct {
	sessions SessionLookup
	lifetime time.Duration
}

var _ Service = (*CookieService)(nil)

// NewCookieService returns a CookieService. lifetime must match the
// manager's so ExpiresAt is reported correctly.
func NewCookieService(sessions SessionLookup, lifetime time.Duration) *CookieService {
	return &CookieService{sessions: sessions, lifetime: lifetime}
}

func (s *CookieService) GetSession(ctx context.Context, header http.Header) (*Session, error) {
	sess, found, err := s.sessions.Lookup(ctx, header)
	if err != nil {
		return nil, fmt.Errorf("lookup cookie session: %w", err)
	}
	if !found {
		return nil, nil
	}

	userID := sess.GetString(userIDKey)
	if userID == "" {
		return nil, nil
	}

	out := &Session{
		ID:     sess.GetID(),
		UserID: userID,
		Email:  sess.GetString(emailKey),
		Name:   sess.GetString(nameKey),
	}
	if s.lifetime > 0 {
		out.ExpiresAt = sess.GetCreatedAt().Add(s.lifetime)
	}
	return out, nil
}

// SignIn stores id in sess under a fresh token so a token issued before
// authentication cannot be reused afterwards.
func SignIn(sess *session.Session, id Identity) {
	sess.Renew()
	sess.Set(userIDKey, id.UserID)
	sess.Set(emailKey, id.Email)
	sess.Set(nameKey, id.Name)
}

// SignOut destroys sess, expiring its cookie and store record.
func SignOut(sess *session.Session) {
	sess.Destroy()
}
