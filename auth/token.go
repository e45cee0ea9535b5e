package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrWeakSigningKey is returned by NewTokenService for keys shorter than 32 bytes.
var ErrWeakSigningKey = errors.New("auth: signing key must be at least 32 bytes")

type claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenService is a Service for API clients. It resolves
// "Authorization: Bearer <jwt>" headers signed with HS256.
type TokenService struct {
	key    []byte
	issuer string
	logger *slog.Logger
	now    func() time.Time
}

var _ Service = (*TokenService)(nil)

func NewTokenService(key []byte, issuer string, logger *slog.Logger) (*TokenService, error) {
	if len(key) < 32 {
		return nil, ErrWeakSigningKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TokenService{key: key, issuer: issuer, logger: logger, now: time.Now}, nil
}

// Issue mints a token for id valid for ttl.
func (s *TokenService) Issue(id Identity, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// GetSession treats a missing, malformed or expired token as no session.
func (s *TokenService) GetSession(ctx context.Context, header http.Header) (*Session, error) {
	raw, ok := bearerToken(header)
	if !ok {
		return nil, nil
	}

	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.DebugContext(ctx, "rejected bearer token", "error", err)
		return nil, nil
	}

	if c.Subject == "" {
		return nil, nil
	}

	return &Session{
		ID:        c.ID,
		UserID:    c.Subject,
		Email:     c.Email,
		Name:      c.Name,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

func bearerToken(header http.Header) (string, bool) {
	value := strings.TrimSpace(header.Get("Authorization"))
	scheme, token, ok := strings.Cut(value, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
