package server

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
	"github.com/jrsteele09/livee-admin-console/token/jwt"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated user ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyClaims stores parsed token claims
	ContextKeyClaims ContextKey = "claims"
)

// RequireAuth is middleware that validates a Bearer access token
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				s.writeError(w, http.StatusUnauthorized, "Missing Authorization header", nil)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				s.writeError(w, http.StatusUnauthorized, "Invalid Authorization header format", nil)
				return
			}

			claims, err := s.tokens.VerifyAccessToken(parts[1])
			if err != nil {
				message := "Invalid token"
				if apperrors.Is(err, apperrors.ErrTokenExpired) {
					message = "Token expired"
				}
				s.writeError(w, http.StatusUnauthorized, message, nil)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUserID, claims.Subject)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireAdmin is middleware that validates the admin claim
// Should be chained after RequireAuth to ensure claims are present
func (s *Server) RequireAdmin() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(ContextKeyClaims).(*jwt.AccessClaims)
			if !ok {
				s.writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
				return
			}
			if !claims.Admin {
				s.writeError(w, http.StatusForbidden, "Admin access required", nil)
				return
			}
			next(w, r)
		}
	}
}
