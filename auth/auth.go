// Package auth decides whether a request belongs to an authenticated
// identity and gates pages on that answer.
//
// A Service resolves a Session from request headers. Absence is reported
// as a nil Session with a nil error; an error always means the lookup
// itself failed. Require turns a Service into middleware that redirects
// anonymous requests to the sign-in page before anything is rendered.
package auth

import (
	"context"
	"net/http"
	"time"
)

// Session asserts that a request belongs to an authenticated identity.
type Session struct {
	ID        string
	UserID    string
	Email     string
	Name      string
	ExpiresAt time.Time
}

// Identity is the authenticated principal a Session is issued for.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// Service resolves the session carried by a request. It returns (nil, nil)
// when there is none. GetSession must not modify any session state.
type Service interface {
	GetSession(ctx context.Context, header http.Header) (*Session, error)
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc func(ctx context.Context, header http.Header) (*Session, error)

func (f ServiceFunc) GetSession(ctx context.Context, header http.Header) (*Session, error) {
	return f(ctx, header)
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the session stored by Require, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}

// Chain returns a Service that asks each service in order and returns the
// first session found. The first error stops the walk.
func Chain(services ...Service) Service {
	return ServiceFunc(func(ctx context.Context, header http.Header) (*Session, error) {
		for _, svc := range services {
			sess, err := svc.GetSession(ctx, header)
			if err != nil {
				return nil, err
			}
			if sess != nil {
				return sess, nil
			}
		}
		return nil, nil
	})
}
