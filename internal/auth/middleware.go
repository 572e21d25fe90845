package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/krailo/recipe-api/internal/httputil"
	"github.com/krailo/recipe-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const (
	UserIDContextKey    ContextKey = "user_id"
	UserEmailContextKey ContextKey = "user_email"
)

// TokenResolver resolves a bearer key to its user.
type TokenResolver interface {
	ResolveToken(ctx context.Context, key string) (*user.User, error)
}

// Middleware handles authentication for protected routes
type Middleware struct {
	resolver TokenResolver
}

func NewMiddleware(resolver TokenResolver) *Middleware {
	return &Middleware{resolver: resolver}
}

// RequireAuth validates the bearer token and puts the caller's identity
// into the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		u, err := m.resolver.ResolveToken(r.Context(), parts[1])
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				httputil.RespondErrorWithCode(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
				return
			}
			httputil.RespondErrorWithCode(w, "failed to authenticate", httputil.CodeInternalError, http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, u.ID)
		ctx = context.WithValue(ctx, UserEmailContextKey, u.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext extracts the caller's user ID from the request context
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(int64)
	return userID, ok
}

// GetUserEmailFromContext extracts the caller's email from the request context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailContextKey).(string)
	return email, ok
}
