package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

const TenantContextKey contextKey = "tenant"

const AdminTokenHeader = "X-Admin-Token"

type Middleware struct {
	jwtSecret  string
	adminToken string
}

func NewMiddleware(jwtSecret, adminToken string) *Middleware {
	return &Middleware{jwtSecret: jwtSecret, adminToken: adminToken}
}

func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		claims, err := ValidateToken(parts[1], m.jwtSecret)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), TenantContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin guards the tenant management routes. An empty admin token
// disables them entirely.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.adminToken == "" {
			http.Error(w, "Admin API disabled", http.StatusForbidden)
			return
		}

		got := r.Header.Get(AdminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(m.adminToken)) != 1 {
			http.Error(w, "Invalid admin token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func GetTenantFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(TenantContextKey).(*Claims)
	return claims, ok
}
