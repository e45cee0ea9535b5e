package httpx

import (
	"io/fs"
	"net/http"
	"strings"
)

// ServeMux is a wrapper around http.ServeMux that adds support for
// route grouping and applying middlewares with syntax sugar.
//
// Usage:
//
//	mux := httpx.NewServeMux()
//
//	// Global middleware for all routes
//	mux.Use(accessLog.Handler)
//
//	// Route group with prefix "/app" and additional middleware
//	app := mux.Group("/app", gate)
//
//	// Register handlers on the group
//	app.HandleFunc("GET /create", createHandler)
//
//	http.ListenAndServe(":8080", mux)
type ServeMux struct {
	*http.ServeMux
	middlewares []Middleware
}

// NewServeMux creates a new ServeMux instance.
func NewServeMux() *ServeMux {
	return &ServeMux{
		ServeMux: http.NewServeMux(),
	}
}

// Group creates a sub-router with the given prefix and optional middlewares.
// The returned sub-router can register its own handlers, which will inherit
// the parent middlewares automatically. An empty prefix mounts the group at
// the root, catching every path no other pattern claims.
func (mux *ServeMux) Group(prefix string, middlewares ...Middleware) *ServeMux {
	prefix = strings.TrimSuffix(prefix, "/")
	subMux := NewServeMux()

	wrapped := Chain(subMux, middlewares...)

	if prefix == "" {
		mux.Handle("/", wrapped)
	} else {
		mux.Handle(prefix+"/", http.StripPrefix(prefix, wrapped))
	}
	return subMux
}

// Static serves files from fsys under prefix, e.g. Static("/static/", assets).
func (mux *ServeMux) Static(prefix string, fsys fs.FS, middlewares ...Middleware) {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	files := http.StripPrefix(strings.TrimSuffix(prefix, "/"), http.FileServerFS(fsys))
	mux.Handle("GET "+prefix, Chain(files, middlewares...))
}

// Use adds a global middleware to the ServeMux. These middlewares are applied
// to all routes registered on this mux.
func (mux *ServeMux) Use(mw Middleware) {
	mux.middlewares = append(mux.middlewares, mw)
}

// ServeHTTP implements http.Handler and applies global middlewares
// before dispatching to the underlying http.ServeMux.
func (mux *ServeMux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	Chain(mux.ServeMux, mux.middlewares...).ServeHTTP(w, r)
}
