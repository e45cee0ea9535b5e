// Package logger provides an HTTP middleware that writes one structured
// access-log record per request through log/slog.
//
// Each record carries the HTTP method, path, status, latency, client IP,
// response size and, when the requestid middleware ran first, the request id.
//
// Usage:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
//		w.Write([]byte("Hello, world!"))
//	})
//
//	l := logger.New(
//	    logger.WithLogger(slog.Default()),
//	    logger.WithSkipper(func(r *http.Request) bool { return r.URL.Path == "/healthz" }),
//	)
//
//	handler := requestid.New().Handler(l.Handler(mux))
//
//	http.ListenAndServe(":8080", handler)
//
// Responses with a 5xx status are logged at error level, 4xx at warn level
// and everything else at info level.
package logger

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/bluescreen10/voxara/httpx"
	"github.com/bluescreen10/voxara/requestid"
)

const defaultMessage = "http request"

// Logger is a middleware that captures request details and writes
// a log record to the configured slog.Logger.
type Logger struct {
	logger  *slog.Logger
	message string
	skip    func(*http.Request) bool
}

type config func(*Logger)

// WithLogger sets the destination logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) config {
	return config(func(l *Logger) {
		l.logger = logger
	})
}

// WithMessage sets the record message.
func WithMessage(msg string) config {
	return config(func(l *Logger) {
		l.message = msg
	})
}

// WithSkipper sets a predicate; requests for which it returns true are not logged.
func WithSkipper(skip func(*http.Request) bool) config {
	return config(func(l *Logger) {
		l.skip = skip
	})
}

// Handler wraps an http.Handler and logs every request once it completes.
func (l *Logger) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.skip != nil && l.skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rw := httpx.NewStatusRecorder(w)
		next.ServeHTTP(rw, r)

		status := rw.Status()
		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", clientIP(r)),
			slog.Int("bytes", rw.Size()),
		}
		if id := requestid.FromContext(r.Context()); id != "" {
			attrs = append(attrs, slog.String("request_id", id))
		}

		l.logger.LogAttrs(r.Context(), levelFor(status), l.message, attrs...)
	})
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// New creates a new Logger middleware with optional configuration.
func New(cfgs ...config) *Logger {
	lgr := &Logger{
		logger:  slog.Default(),
		message: defaultMessage,
	}

	for _, cfg := range cfgs {
		cfg(lgr)
	}

	return lgr
}
