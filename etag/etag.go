// Package etag provides an HTTP middleware that calculates and sets
// ETag headers for GET and HEAD requests. It can optionally remember the
// tag of every URI so a matching conditional request is answered without
// running the wrapped handler, which suits immutable embedded assets.
//
// The tag is the CRC64 (ECMA) checksum of the body, quoted as RFC 9110
// requires and prefixed with W/ when weak tags are configured.
//
// Usage:
//
//	et := etag.New(etag.WithWeak(true), etag.WithCache(true))
//	mux.Static("/static/", assets, et.Handler)
//
// Responses for other HTTP methods, non-200 responses and responses whose
// handler already set an ETag are passed through unmodified.
package etag

import (
	"bytes"
	"fmt"
	"hash/crc64"
	"net/http"
	"strings"
	"sync"
)

var table = crc64.MakeTable(crc64.ECMA)

// responseWriter captures the response body and status so the tag can be
// computed before anything reaches the client.
type responseWriter struct {
	http.ResponseWriter
	buffer     bytes.Buffer
	checksum   uint64
	statusCode int
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.checksum = crc64.Update(w.checksum, table, b)
	return w.buffer.Write(b)
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if w.statusCode == 0 {
		w.statusCode = statusCode
	}
}

// ETag is a middleware that calculates ETag headers.
type ETag struct {
	cache    sync.Map
	useCache bool
	isWeak   bool
}

type config func(*ETag)

// WithWeak configures whether the ETag should be weak (prefixed with W/).
func WithWeak(isWeak bool) config {
	return config(func(e *ETag) {
		e.isWeak = isWeak
	})
}

// WithCache enables or disables caching of ETags per request URI.
// Only enable it for content that never changes while the process runs.
func WithCache(useCache bool) config {
	return config(func(e *ETag) {
		e.useCache = useCache
	})
}

// Handler wraps the given http.Handler with ETag functionality.
// If the client sends an If-None-Match matching the ETag, 304 Not Modified
// is returned without a body.
func (e *ETag) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		uri := r.URL.RequestURI()
		clientEtag := r.Header.Get("If-None-Match")

		if e.useCache && clientEtag != "" {
			if cached, ok := e.cache.Load(uri); ok && matches(clientEtag, cached.(string)) {
				w.Header().Set("Etag", cached.(string))
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		// HEAD runs the handler as a GET so the tag covers the real body.
		isHead := r.Method == http.MethodHead
		req := r
		if isHead {
			req = r.Clone(r.Context())
			req.Method = http.MethodGet
		}

		rw := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, req)

		if (rw.statusCode == 0 || rw.statusCode == http.StatusOK) && w.Header().Get("Etag") == "" {
			etag := e.format(rw.checksum)
			if e.useCache {
				e.cache.Store(uri, etag)
			}

			w.Header().Set("Etag", etag)
			if matches(clientEtag, etag) {
				w.Header().Del("Content-Length")
				w.Header().Del("Content-Type")
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}

		if rw.statusCode != 0 {
			w.WriteHeader(rw.statusCode)
		}

		if !isHead {
			w.Write(rw.buffer.Bytes())
		}
	})
}

func (e *ETag) format(checksum uint64) string {
	if e.isWeak {
		return fmt.Sprintf(`W/"%x"`, checksum)
	}
	return fmt.Sprintf(`"%x"`, checksum)
}

// matches implements the weak comparison If-None-Match requires.
func matches(header, etag string) bool {
	if header == "" {
		return false
	}

	etag = strings.TrimPrefix(etag, "W/")
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// New creates a new ETag middleware instance, optionally applying
// configuration options such as WithWeak or WithCache.
func New(cfgs ...config) *ETag {
	etag := &ETag{}

	for _, cfg := range cfgs {
		cfg(etag)
	}

	return etag
}
