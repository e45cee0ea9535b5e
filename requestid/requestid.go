// Package requestid provides an HTTP middleware that tags every request
// with an identifier, reusing the one sent by the client or a proxy when
// present, and echoes it in the response.
//
// Usage:
//
//	rid := requestid.New()
//	handler := rid.Handler(mux)
//
//	// inside a handler
//	id := requestid.FromContext(r.Context())
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const DefaultHeader = "X-Request-ID"

// maxLength bounds identifiers accepted from the client.
const maxLength = 128

type contextKey struct{}

// RequestID is the middleware. Create it with New.
type RequestID struct {
	header    string
	generator func() string
}

type config func(*RequestID)

// WithHeader sets the header read from requests and written on responses.
func WithHeader(header string) config {
	return config(func(rid *RequestID) {
		rid.header = header
	})
}

// WithGenerator replaces the default UUIDv7 generator.
func WithGenerator(gen func() string) config {
	return config(func(rid *RequestID) {
		rid.generator = gen
	})
}

func New(cfgs ...config) *RequestID {
	rid := &RequestID{
		header:    DefaultHeader,
		generator: newID,
	}

	for _, cfg := range cfgs {
		cfg(rid)
	}

	return rid
}

func (rid *RequestID) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(rid.header)
		if id == "" || len(id) > maxLength {
			id = rid.generator()
		}

		w.Header().Set(rid.header, id)
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
	})
}

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the request id stored in ctx, or "" if there is none.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
