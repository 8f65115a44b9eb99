package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/accountd/accountd/internal/auth"
	"github.com/accountd/accountd/internal/model"
	"github.com/accountd/accountd/internal/service"
)

// Authenticator resolves a raw bearer token to an identity.
// Implemented by *service.AccountService.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (*model.Identity, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger *slog.Logger
	Gate   Authenticator
}

// Auth returns a middleware that authenticates requests via the
// Authorization: Bearer header. On success the Identity is injected
// into the request context; downstream handlers read it from there.
//
// A missing or empty header is rejected before the gate runs. All
// authentication failures answer 401 with the same generic message,
// except a revoked token which is a deliberate security signal worth
// surfacing. A valid token whose account no longer exists answers 404.
// Store unavailability answers 503: infrastructure faults are never
// reported as authentication failures.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", "missing_token"),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "could not validate credentials")
				return
			}

			identity, err := cfg.Gate.Authenticate(r.Context(), token)
			if err != nil {
				handleAuthError(cfg.Logger, w, r, err)
				return
			}

			cfg.Logger.Info("authentication successful",
				slog.String("user_id", identity.User.ID),
				slog.String("token_id", identity.TokenID),
				slog.String("ip", r.RemoteAddr),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// handleAuthError maps gate errors to HTTP responses. Cause detail is
// logged server-side; the response bodies stay deliberately generic.
func handleAuthError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	attrs := []any{
		slog.String("error", err.Error()),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method + " " + r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	}

	switch {
	case errors.Is(err, service.ErrTokenRevoked):
		logger.Warn("authentication failed", append(attrs, slog.String("reason", "revoked"))...)
		writeAuthError(w, http.StatusUnauthorized, "TOKEN_REVOKED", "Token has been revoked")
	case errors.Is(err, service.ErrInvalidToken):
		logger.Warn("authentication failed", append(attrs, slog.String("reason", "invalid_token"))...)
		writeAuthError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "could not validate credentials")
	case errors.Is(err, service.ErrUserNotFound):
		logger.Warn("authentication failed", append(attrs, slog.String("reason", "user_gone"))...)
		writeAuthError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	default:
		logger.Error("authentication infrastructure error", attrs...)
		writeAuthError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Authentication temporarily unavailable")
	}
}

// extractBearerToken extracts the token from the Authorization header.
// Only the Bearer scheme is accepted.
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// writeAuthError writes a JSON error response.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `","code":"` + code + `"}`))
}
