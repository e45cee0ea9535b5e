// Package session provides a middleware-based session management system
// for HTTP servers in Go. It supports cookie-based sessions, idle timeouts,
// configurable persistence, and pluggable serialization codecs.
//
// Usage:
//
//	store := memstore.New()
//	mgr := session.NewManager(store,
//	    session.WithName("voxara_session"),
//	    session.WithLifetime(2*time.Hour),
//	)
//
//	mux := http.NewServeMux()
//	mux.Handle("/", mgr.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	    sess := mgr.Get(r)
//	    count := sess.GetInt("count")
//	    count++
//	    sess.Set("count", count)
//	    fmt.Fprintf(w, "You have visited %d times\n", count)
//	})))
//
// designed heavily inspired by: https://github.com/alexedwards/scs
package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// responseWriter wraps http.ResponseWriter to intercept writes
// and ensure the session is saved before any headers or body are written.
type responseWriter struct {
	http.ResponseWriter
	ctx       context.Context
	mngr      *Manager
	sess      *Session
	isWritten bool
}

// Write saves the session before writing the response body if it hasn't
// already been saved.
func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.isWritten {
		w.isWritten = true
		w.saveOrLog()
	}
	return w.ResponseWriter.Write(b)
}

// WriteHeader saves the session before writing the response headers
// if it hasn't already been saved.
func (w *responseWriter) WriteHeader(statusCode int) {
	if !w.isWritten {
		w.isWritten = true
		w.saveOrLog()
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// saveOrLog is used once the handler has started writing: the response can
// no longer be replaced by an error page.
func (w *responseWriter) saveOrLog() {
	if err := w.mngr.save(w.ctx, w.ResponseWriter, w.sess); err != nil {
		w.mngr.logger.ErrorContext(w.ctx, "session: save failed", "error", err)
	}
}

type contextKey struct{ name string }

// ErrorFunc handles failures to load or save a session before the response
// has been written.
type ErrorFunc func(w http.ResponseWriter, r *http.Request, err error)

func defaultErrorFunc(w http.ResponseWriter, r *http.Request, err error) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// Manager manages HTTP sessions using a Store backend and session options.
type Manager struct {
	store             Store
	lifetime          time.Duration
	idleTimeout       time.Duration
	codec             Codec
	cookieName        string
	cookiePath        string
	cookieDomain      string
	cookieSecure      bool
	cookieHttpOnly    bool
	cookiePartitioned bool
	cookieSameSite    http.SameSite
	cookiePersisted   bool
	errorFunc         ErrorFunc
	logger            *slog.Logger
	key               *contextKey
}

type config func(*Manager)

// WithLifetime sets the lifetime of the session. (default 24hr.)
func WithLifetime(lifetime time.Duration) config {
	return config(func(m *Manager) {
		m.lifetime = lifetime
	})
}

// WithIdleTimeout sets the idle timeout for the session. (default no timeout.)
// A stored session not seen for longer than timeout is treated as missing.
func WithIdleTimeout(timeout time.Duration) config {
	return config(func(m *Manager) {
		m.idleTimeout = timeout
	})
}

// WithName sets the cookie name for the session. (default "session_id".)
func WithName(name string) config {
	return config(func(m *Manager) {
		m.cookieName = name
	})
}

// WithPath sets the cookie path. (default "/".)
func WithPath(path string) config {
	return config(func(m *Manager) {
		m.cookiePath = path
	})
}

// WithDomain sets the cookie domain. (default "".)
func WithDomain(domain string) config {
	return config(func(m *Manager) {
		m.cookieDomain = domain
	})
}

// WithSecure sets the Secure flag on the cookie. (default false)
func WithSecure(secure bool) config {
	return config(func(m *Manager) {
		m.cookieSecure = secure
	})
}

// WithHttpOnly sets the HttpOnly flag on the cookie. (default true)
func WithHttpOnly(httpOnly bool) config {
	return config(func(m *Manager) {
		m.cookieHttpOnly = httpOnly
	})
}

// WithPartitioned sets the Partitioned flag on the cookie. (default false)
func WithPartitioned(partitioned bool) config {
	return config(func(m *Manager) {
		m.cookiePartitioned = partitioned
	})
}

// WithSameSite sets the SameSite policy for the cookie. (default Lax)
func WithSameSite(sameSite http.SameSite) config {
	return config(func(m *Manager) {
		m.cookieSameSite = sameSite
	})
}

// WithPersisted sets whether the cookie is persisted. (default true)
func WithPersisted(persisted bool) config {
	return config(func(m *Manager) {
		m.cookiePersisted = persisted
	})
}

// WithCodec sets the codec used to serialize sessions. (default GobCodec)
func WithCodec(codec Codec) config {
	return config(func(m *Manager) {
		m.codec = codec
	})
}

// WithErrorFunc sets the handler invoked when a session cannot be loaded
// or saved. (default plain 500)
func WithErrorFunc(fn ErrorFunc) config {
	return config(func(m *Manager) {
		m.errorFunc = fn
	})
}

// WithLogger sets the logger for save failures that happen after the
// response started. (default slog.Default())
func WithLogger(logger *slog.Logger) config {
	return config(func(m *Manager) {
		m.logger = logger
	})
}

// Handler wraps an http.Handler and provides load-and-save session functionality.
// It ensures that the session is loaded from the store and saved after the request.
func (m *Manager) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Cookie")

		var token string
		cookie, err := r.Cookie(m.cookieName)
		if err == nil {
			token = cookie.Value
		}

		ctx := r.Context()
		sess, _, err := m.load(ctx, token)
		if err != nil {
			m.errorFunc(w, r, err)
			return
		}

		sr := r.WithContext(context.WithValue(ctx, m.key, sess))
		sw := &responseWriter{ResponseWriter: w, ctx: ctx, mngr: m, sess: sess}
		next.ServeHTTP(sw, sr)

		if !sw.isWritten {
			if err := m.save(ctx, w, sess); err != nil {
				m.errorFunc(w, r, err)
			}
		}
	})
}

// Get retrieves the current session from the request context. It always
// returns a valid session object, never nil.
func (m *Manager) Get(r *http.Request) *Session {
	sess, ok := r.Context().Value(m.key).(*Session)
	if !ok {
		return newSession()
	}
	return sess
}

// Lookup resolves the session referenced by the cookie in header without
// creating one. The boolean is false when there is no cookie or the store
// holds no live record for it. The lookup is read-only.
func (m *Manager) Lookup(ctx context.Context, header http.Header) (*Session, bool, error) {
	r := http.Request{Header: header}
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return nil, false, nil
	}

	sess, found, err := m.load(ctx, cookie.Value)
	if err != nil || !found {
		return nil, false, err
	}
	return sess, true, nil
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// load retrieves a session from the store by token. If the token is empty
// or the session is not found, a new session is created and found is false.
func (m *Manager) load(ctx context.Context, token string) (*Session, bool, error) {
	if token == "" {
		return newSession(), false, nil
	}

	data, found, err := storeGet(ctx, m.store, token)
	if err != nil {
		return nil, false, err
	}

	if !found {
		return newSession(), false, nil
	}

	createdAt, values, err := m.codec.Decode(data)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	if m.lifetime > 0 && now.After(createdAt.Add(m.lifetime)) {
		return newSession(), false, nil
	}

	if m.idleTimeout > 0 {
		if seen, ok := lastSeen(values); ok && now.After(seen.Add(m.idleTimeout)) {
			return newSession(), false, nil
		}
	}

	return &Session{id: token, createdAt: createdAt, values: values, isStored: true}, true, nil
}

// save persists the session to the store and updates the HTTP cookie.
// Destroyed sessions are deleted from the store and expired cookies are set.
func (m *Manager) save(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess.previousID != "" {
		if err := storeDelete(ctx, m.store, sess.previousID); err != nil {
			return err
		}
		sess.previousID = ""
	}

	if sess.isDestroyed {
		err := storeDelete(ctx, m.store, sess.id)
		if err != nil {
			return err
		}
		m.writeCookie(w, sess.id, time.Time{})
		return nil
	}

	expiresAt := sess.createdAt.Add(m.lifetime)

	if m.idleTimeout > 0 && (sess.isStored || sess.isModified) {
		sess.values[lastSeenKey] = time.Now().Unix()
		sess.isModified = true
	}

	if sess.isModified {
		data, err := m.codec.Encode(sess.createdAt, sess.values)
		if err != nil {
			return err
		}
		err = storeSet(ctx, m.store, sess.id, data, expiresAt)
		if err != nil {
			return err
		}
		sess.isModified = false
		sess.isStored = true
	}

	if m.idleTimeout > 0 {
		idleExpires := time.Now().Add(m.idleTimeout)
		if idleExpires.Before(expiresAt) {
			expiresAt = idleExpires
		}
	}
	m.writeCookie(w, sess.id, expiresAt)
	return nil
}

// writeCookie sets or expires the session cookie on the HTTP response.
func (m *Manager) writeCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	cookie := &http.Cookie{
		Value:       token,
		Name:        m.cookieName,
		Domain:      m.cookieDomain,
		HttpOnly:    m.cookieHttpOnly,
		Path:        m.cookiePath,
		SameSite:    m.cookieSameSite,
		Secure:      m.cookieSecure,
		Partitioned: m.cookiePartitioned,
	}

	if expiresAt.IsZero() {
		cookie.Expires = time.Unix(1, 0)
		cookie.MaxAge = -1
	} else if m.cookiePersisted {
		cookie.Expires = time.Unix(expiresAt.Unix()+1, 0)
		cookie.MaxAge = int(time.Until(expiresAt).Seconds() + 1)
	}

	http.SetCookie(w, cookie)
}

// NewManager creates a new session Manager with a Store and optional configuration.
func NewManager(store Store, cfgs ...config) *Manager {
	mngr := &Manager{
		lifetime:        24 * time.Hour,
		codec:           GobCodec{},
		cookieName:      "session_id",
		cookiePath:      "/",
		cookieHttpOnly:  true,
		cookieSameSite:  http.SameSiteLaxMode,
		cookiePersisted: true,
		errorFunc:       defaultErrorFunc,
		logger:          slog.Default(),
		store:           store,
		key:             &contextKey{"session"},
	}

	for _, cfg := range cfgs {
		cfg(mngr)
	}

	return mngr
}

// lastSeenKey holds the unix time of the last request that saved the
// session. Only written when an idle timeout is configured.
const lastSeenKey = "_last_seen"

func lastSeen(values map[string]any) (time.Time, bool) {
	switch v := values[lastSeenKey].(type) {
	case int64:
		return time.Unix(v, 0), true
	case float64:
		return time.Unix(int64(v), 0), true
	}
	return time.Time{}, false
}
