package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	id "stow/pkg/domain"
	"stow/pkg/requestcontext"
)

// JWTValidator defines the interface for validating bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator. Subject is
// the caller's ledger identity.
type JWTClaims struct {
	Subject string
}

// GetCaller retrieves the authenticated caller identity from the context.
// Returns the zero identity when the request was not authenticated.
func GetCaller(ctx context.Context) id.Identity {
	return requestcontext.Caller(ctx)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + errCode + `","error_description":"` + errDesc + `"}`))
}

// RequireAuth validates the bearer token and stores the caller identity in the
// request context. Requests without a valid token never reach the handler.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			caller, err := id.ParseIdentity(claims.Subject)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed subject",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Token subject is not a valid identity")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, caller)))
		})
	}
}

// RequireAdminToken guards operational endpoints (pause, audit listing) with a
// shared secret. Constant-time comparison prevents timing probes.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Admin-Token")
			if expectedToken == "" ||
				subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
				logger.WarnContext(r.Context(), "admin token mismatch",
					"request_id", GetRequestID(r.Context()),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "admin token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
