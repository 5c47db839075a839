package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Lifetime caps a dashboard session when the upstream token carries no expiry.
const Lifetime = 24 * time.Hour

// Roles allowed to use the dashboard.
const (
	RoleTrainer = "trainer"
	RoleAdmin   = "admin"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrExpired      = errors.New("session expired")
	ErrMissingToken = errors.New("login response carried no token")
	ErrInvalidRole  = errors.New("only trainers and admins can use the dashboard")
)

// User is the profile returned by POST /auth/login.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is an authenticated dashboard session. ID is the dashboard cookie value;
// Token is the upstream bearer token and never leaves the server.
type Session struct {
	ID        string
	Token     string
	User      User
	CreatedAt time.Time
	ExpiresAt time.Time
}

// New builds a session for a successful login.
// PRE: token is non-empty
// POST: ExpiresAt is the token's exp claim, capped at now+Lifetime
func New(id, token string, user User, now time.Time) (Session, error) {
	if strings.TrimSpace(token) == "" {
		return Session{}, ErrMissingToken
	}
	expires := now.Add(Lifetime)
	if exp, ok := ExpiryFromToken(token); ok && exp.Before(expires) {
		expires = exp
	}
	return Session{ID: id, Token: token, User: user, CreatedAt: now, ExpiresAt: expires}, nil
}

// Expired reports whether the session is no longer usable at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// IsAdmin reports whether the user has the admin role.
func (s Session) IsAdmin() bool {
	return strings.EqualFold(s.User.Role, RoleAdmin)
}

// ExpiryFromToken reads the exp claim of a JWT without verifying its signature.
// The dashboard cannot verify upstream tokens; the claim only shortens local sessions.
// POST: ok is false for opaque tokens or tokens without exp
func ExpiryFromToken(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
