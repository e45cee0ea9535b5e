package auth

import (
	"log/slog"
	"net/http"

	"github.com/bluescreen10/voxara/httpx"
)

// DefaultSignInPath is where Require sends anonymous requests.
const DefaultSignInPath = "/auth/sign-in"

// Require returns middleware that lets a request through only when svc
// finds a session for it. The session is available to the next handler
// through FromContext.
//
// Anonymous requests get a 302 to signInPath with an empty body and the
// next handler never runs. A failing svc is logged and answered with 500,
// again without running the next handler.
func Require(svc Service, signInPath string, logger *slog.Logger) httpx.Middleware {
	if signInPath == "" {
		signInPath = DefaultSignInPath
	}
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := svc.GetSession(r.Context(), r.Header)
			if err != nil {
				logger.ErrorContext(r.Context(), "resolve session", "path", r.URL.Path, "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}

			if sess == nil {
				redirect(w, signInPath)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
		})
	}
}

// RedirectIfAuthenticated sends requests that already carry a session to
// `to`. It is meant for the sign-in page. Lookup errors fall through to
// next so the sign-in page stays reachable.
func RedirectIfAuthenticated(svc Service, to string, logger *slog.Logger) httpx.Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := svc.GetSession(r.Context(), r.Header)
			if err != nil {
				logger.WarnContext(r.Context(), "resolve session", "path", r.URL.Path, "error", err)
			}

			if sess != nil {
				redirect(w, to)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// redirect answers 302 with no body, unlike http.Redirect.
func redirect(w http.ResponseWriter, location string) {
	w.Header().Set("Location", location)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusFound)
}
