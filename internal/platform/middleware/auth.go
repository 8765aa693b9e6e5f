package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"tripgate/internal/domain"
)

// JWTValidator validates bearer tokens and extracts the claims the service
// cares about. Session issuance lives elsewhere; this layer only verifies.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims are the claims expected from the validator.
type JWTClaims struct {
	UserID    domain.UserID
	SessionID string
}

type contextKeyUserID struct{}

// GetUserID retrieves the authenticated user ID from the context. Zero value
// when unauthenticated.
func GetUserID(ctx context.Context) domain.UserID {
	userID, ok := ctx.Value(contextKeyUserID{}).(domain.UserID)
	if !ok {
		return domain.UserID{}
	}
	return userID
}

// WithUserID injects a user ID into a context. Useful for service tests that
// skip the HTTP middleware chain.
func WithUserID(ctx context.Context, userID domain.UserID) context.Context {
	return context.WithValue(ctx, contextKeyUserID{}, userID)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated user ID in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx))
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx))
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(ctx, claims.UserID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
