package httpx

import "net/http"

// Middleware wraps an http.Handler. Method values such as
// (*session.Manager).Handler or (*logger.Logger).Handler satisfy it directly.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares to h so that the first one listed is the
// outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
