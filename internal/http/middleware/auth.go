package middleware

import (
	"context"
	"net/http"
	"strings"

	"luckydraw/backend/internal/auth"
)

type contextKey string

const adminKey contextKey = "admin"

func IsAdminFromContext(ctx context.Context) bool {
	val, ok := ctx.Value(adminKey).(bool)
	return ok && val
}

// AdminAuth guards the admin surface with a bearer JWT signed by the
// login endpoint.
func AdminAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing Authorization", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				http.Error(w, "invalid Authorization", http.StatusUnauthorized)
				return
			}
			claims, err := auth.ParseAdminToken(secret, parts[1])
			if err != nil || !claims.IsAdmin {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), adminKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
