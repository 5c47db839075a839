package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"trainerdash/internal/domain/audit"
	"trainerdash/internal/domain/session"
)

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
	IP       string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	API        AuthAPI
	Sessions   SessionStoreForOrchestrator
	Audit      AuditRecorder
	GenerateID func() string
	Now        func() time.Time
}

var ErrInvalidCredentials = errors.New("invalid email or password")

// ExecuteLogin exchanges credentials for an upstream token and opens a dashboard session.
// PRE: none
// POST: on success the session is persisted with the token sealed; on failure nothing is stored
// INVARIANT: only trainers and admins get a session
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (session.Session, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return session.Session{}, ErrInvalidCredentials
	}
	now := deps.Now()
	failed := func(reason string, err error) (session.Session, error) {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", reason)
		e := audit.NewEvent(0, email, audit.CategoryAuth, audit.ActionLogin, now).WithIP(input.IP).WithFailure(reason)
		recordAudit(ctx, deps.Audit, e)
		return session.Session{}, err
	}

	resp, err := deps.API.Login(ctx, email, input.Password)
	if err != nil {
		return failed("upstream_rejected", err)
	}
	role := strings.ToLower(resp.User.Role)
	if role != session.RoleTrainer && role != session.RoleAdmin {
		return failed("role_"+role, session.ErrInvalidRole)
	}
	resp.User.Role = role
	if resp.User.Email == "" {
		resp.User.Email = email
	}

	s, err := session.New(deps.GenerateID(), resp.Token, resp.User, now)
	if err != nil {
		return failed("no_token", err)
	}
	if s.Expired(now) {
		return failed("token_expired", session.ErrExpired)
	}
	if err := deps.Sessions.Save(ctx, s); err != nil {
		return session.Session{}, err
	}

	slog.Info("auth_event", "event", "login_success", "email", email, "role", role, "expires_at", s.ExpiresAt)
	actor := Actor{Session: s, IP: input.IP}
	recordAudit(ctx, deps.Audit, actor.event(audit.CategoryAuth, audit.ActionLogin, now))
	return s, nil
}

// WorkspaceDropper discards the in-memory drafts of a session.
type WorkspaceDropper interface {
	Drop(sessionID string)
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Sessions   SessionStoreForOrchestrator
	Workspaces WorkspaceDropper
	Audit      AuditRecorder
	Now        func() time.Time
}

// ExecuteLogout destroys the session and its workspace.
// POST: the stored token is gone; unsaved drafts are discarded
func ExecuteLogout(ctx context.Context, actor Actor, deps LogoutDeps) error {
	if err := deps.Sessions.Delete(ctx, actor.Session.ID); err != nil {
		return err
	}
	if deps.Workspaces != nil {
		deps.Workspaces.Drop(actor.Session.ID)
	}
	slog.Info("auth_event", "event", "logout", "email", actor.Session.User.Email)
	recordAudit(ctx, deps.Audit, actor.event(audit.CategoryAuth, audit.ActionLogout, deps.Now()))
	return nil
}

// RestoreSessionDeps holds dependencies for RestoreSession.
type RestoreSessionDeps struct {
	Sessions SessionStoreForOrchestrator
	Now      func() time.Time
}

// ExecuteRestoreSession loads the session behind a cookie or the CLI key.
// POST: returns session.ErrNotFound or session.ErrExpired when the caller is unauthenticated
func ExecuteRestoreSession(ctx context.Context, id string, deps RestoreSessionDeps) (session.Session, error) {
	if id == "" {
		return session.Session{}, session.ErrNotFound
	}
	return deps.Sessions.Get(ctx, id, deps.Now())
}
