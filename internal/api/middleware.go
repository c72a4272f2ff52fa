package api

import (
	"context"
	"net/http"
	"strings"

	"droply-server/internal/auth"
)

type contextKey string

const identityContextKey = contextKey("identity")

func (s *Server) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondError(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			respondError(w, http.StatusUnauthorized, "Invalid Authorization header format")
			return
		}

		identity, err := auth.VerifyToken(headerParts[1], s.config.Auth.Secret)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetIdentityFromContext(ctx context.Context) *auth.Identity {
	if identity, ok := ctx.Value(identityContextKey).(*auth.Identity); ok {
		return identity
	}
	return nil
}
