package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/kleverbot/kleverbot-api/internal/user"
	"github.com/kleverbot/kleverbot-api/internal/utils"
)

type ctxKey string

const userCtxKey ctxKey = "currentUser"

// Middleware authenticates requests and enforces role checks.
type Middleware struct {
	tokens *TokenManager
	users  user.Repository
}

func NewMiddleware(tokens *TokenManager, users user.Repository) *Middleware {
	return &Middleware{tokens: tokens, users: users}
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func (m *Middleware) resolveUser(r *http.Request) (*user.User, bool) {
	raw := extractBearer(r)
	if raw == "" {
		return nil, false
	}
	claims, err := m.tokens.VerifyAccess(raw)
	if err != nil {
		return nil, false
	}
	u, err := m.users.FindByIDWithRoles(claims.UserID)
	if err != nil {
		return nil, false
	}
	return sanitize(u), true
}

// Authenticate gates protected routes: 401 on missing/invalid token or
// unknown account, 403 when the account is not active.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		u, ok := m.resolveUser(r)
		if !ok {
			utils.RespondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		if !u.IsActive() {
			utils.RespondError(w, http.StatusForbidden, "Account is not active")
			return
		}
		next.ServeHTTP(w, r.WithContext(
			context.WithValue(r.Context(), userCtxKey, u)))
	})
}

// OptionalAuth attaches the identity when a valid token is present and
// otherwise passes the request through unauthenticated.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := m.resolveUser(r); ok && u.IsActive() {
			r = r.WithContext(context.WithValue(r.Context(), userCtxKey, u))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles allows the request only when the caller holds at least one of
// the named roles. Must run after Authenticate.
func (m *Middleware) RequireRoles(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok || !u.HasRole(names...) {
				utils.RespondError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CurrentUser returns the sanitized identity attached by Authenticate.
func CurrentUser(r *http.Request) (*user.User, bool) {
	u, ok := r.Context().Value(userCtxKey).(*user.User)
	return u, ok && u != nil
}
