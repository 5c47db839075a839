package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"trainerdash/internal/domain/session"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "session"

// SessionCookieName is the dashboard session cookie.
const SessionCookieName = "trainerdash_session"

// SecureCookies marks session cookies Secure; set in production.
var SecureCookies bool

// SessionRestorer loads the session behind a cookie value.
type SessionRestorer func(ctx context.Context, id string) (session.Session, error)

// Auth returns middleware that restores the session from the cookie and puts it in context.
// It does NOT block unauthenticated requests; use RequireAuth or RequireAdmin for that.
// POST: an expired or unknown cookie is cleared
func Auth(restore SessionRestorer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err == nil && cookie.Value != "" {
				sess, err := restore(r.Context(), cookie.Value)
				switch {
				case err == nil:
					r = r.WithContext(ContextWithSession(r.Context(), sess))
				case errors.Is(err, session.ErrNotFound), errors.Is(err, session.ErrExpired):
					ClearSessionCookie(w)
				default:
					slog.Error("session_restore_failed", "error", err)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isAPI reports whether the request expects JSON instead of a redirect.
func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// Unauthorized answers 401 JSON for API calls and redirects pages to /login.
func Unauthorized(w http.ResponseWriter, r *http.Request) {
	if isAPI(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// RequireAuth returns middleware that blocks unauthenticated requests.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSessionFromContext(r.Context()); !ok {
			slog.Warn("auth_denied", "path", r.URL.Path, "reason", "no session")
			Unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns middleware that only lets admins through.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := GetSessionFromContext(r.Context())
		if !sess.IsAdmin() {
			slog.Warn("auth_denied", "path", r.URL.Path, "user_id", sess.User.ID, "role", sess.User.Role, "required", session.RoleAdmin)
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// GetSessionFromContext extracts the session from the request context.
func GetSessionFromContext(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(session.Session)
	return sess, ok
}

// ContextWithSession returns a context with the given session set.
func ContextWithSession(ctx context.Context, sess session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// SetSessionCookie sets the session cookie, expiring with the session.
func SetSessionCookie(w http.ResponseWriter, sess session.Session, now time.Time) {
	maxAge := int(sess.ExpiresAt.Sub(now).Seconds())
	if maxAge <= 0 {
		maxAge = int(session.Lifetime.Seconds())
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   maxAge,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
