package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/gamepoints/internal/api/apierr"
	"github.com/mcoot/gamepoints/internal/model"
	"github.com/mcoot/gamepoints/internal/services/auth"
)

type contextKey string

const (
	callerContextKey  contextKey = "caller"
	sessionContextKey contextKey = "session"
)

// Auth creates authentication middleware. It resolves the session token to
// the caller identity; whether that identity may act is decided downstream.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			session, err := authService.ValidateSession(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, sessionContextKey, session)
			ctx = context.WithValue(ctx, callerContextKey, session.Identity)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the session token from the request
func extractToken(r *http.Request) string {
	// Check Authorization header first
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	// Fall back to cookie
	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetCaller returns the authenticated identity from the request context
func GetCaller(ctx context.Context) (model.Identity, bool) {
	caller, ok := ctx.Value(callerContextKey).(model.Identity)
	return caller, ok
}

// GetSession returns the session from the request context
func GetSession(ctx context.Context) *auth.Session {
	session, _ := ctx.Value(sessionContextKey).(*auth.Session)
	return session
}

// MustGetCaller returns the authenticated identity or panics
func MustGetCaller(ctx context.Context) model.Identity {
	caller, ok := GetCaller(ctx)
	if !ok {
		panic("no caller in context - auth middleware not applied?")
	}
	return caller
}
