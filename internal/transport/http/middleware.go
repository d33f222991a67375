package http

import (
	"context"
	"net/http"
	"strings"

	"tapcard/internal/auth"
	"tapcard/internal/model"
)

type contextKey string

const claimsKey contextKey = "claims"

// ClaimsFrom returns the verified token claims placed by the authenticate
// middleware, or nil outside an authenticated route.
func ClaimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

func (h *Handler) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "message": "authentication token is required"})
			return
		}

		claims, err := h.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "message": "invalid token"})
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	}
}

// authorize restricts a route to the given roles. Must run inside
// authenticate.
func (h *Handler) authorize(roles ...model.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return h.authenticate(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFrom(r.Context())
			for _, role := range roles {
				if claims.Role == role {
					next(w, r)
					return
				}
			}
			respondJSON(w, http.StatusForbidden, map[string]string{
				"error":   "forbidden",
				"message": "user role " + string(claims.Role) + " is not authorized to access this route",
			})
		})
	}
}
