package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"custos/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns the actor claims.
// Authorization decisions are made upstream; the engine only needs a trusted
// actor identity to thread through custody and disposal records.
type TokenValidator interface {
	ValidateToken(token string) (*ActorClaims, error)
}

// ActorClaims are the claims the engine consumes from a validated token.
type ActorClaims struct {
	Actor string
	Role  string
}

// RequireAuth rejects requests without a valid bearer token and injects the
// actor identity into the request context.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), bearerPrefix)
			if !ok || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized: invalid token",
					"error", err.Error(),
					"request_id", requestcontext.RequestID(r.Context()),
				)
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := requestcontext.WithActor(r.Context(), claims.Actor)
			ctx = requestcontext.WithActorRole(ctx, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
