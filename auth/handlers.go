package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/bluescreen10/voxara/httpx"
)

// DefaultTokenTTL is the lifetime of tokens minted by TokenHandler.
const DefaultTokenTTL = time.Hour

type tokenRequest struct {
	Email    string `json:"email" form:"email,required"`
	Password string `json:"password" form:"password,required"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// TokenHandler exchanges credentials for a bearer token understood by
// tokens. The body may be JSON or a form.
func TokenHandler(accounts Accounts, tokens *TokenService, ttl time.Duration, logger *slog.Logger) http.Handler {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := httpx.ParseBody(r, &req); err != nil || req.Email == "" || req.Password == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "email and password are required"})
			return
		}

		id, err := accounts.Authenticate(r.Context(), req.Email, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
			return
		}
		if err != nil {
			logger.ErrorContext(r.Context(), "authenticate", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		token, expiresAt, err := tokens.Issue(id, ttl)
		if err != nil {
			logger.ErrorContext(r.Context(), "issue token", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		logger.InfoContext(r.Context(), "token issued", "user_id", id.UserID)
		writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresAt:   expiresAt.UTC(),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
