package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"

	"trainerdash/internal/adapters/api"
	"trainerdash/internal/adapters/email"
	"trainerdash/internal/adapters/http/middleware"
	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/application/orchestrators"
	"trainerdash/internal/application/projections"
	"trainerdash/internal/domain/assignment"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/dietplan"
	"trainerdash/internal/domain/feedback"
	"trainerdash/internal/domain/routine"
	"trainerdash/internal/domain/session"
	"trainerdash/internal/domain/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

// generateID returns a fresh dashboard session id.
func generateID() string {
	return uuid.NewString()
}

// internalError logs the real error and sends a generic 500 to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from r into v, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeJSON sends v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err)
	}
}

// requirePost answers 405 for anything but POST.
func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// decodeBody reads a POST body into v, answering 400 on malformed JSON.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if !requirePost(w, r) {
		return false
	}
	if err := strictDecode(r, v); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

// requestScope is what a handler needs about the caller.
type requestScope struct {
	Session   session.Session
	Actor     orchestrators.Actor
	Workspace *workspace.Workspace
	// API authenticates as the session's upstream token.
	API *api.Client
}

// scope builds the request scope from the session put in context by middleware.Auth.
// PRE: the route is wrapped in RequireAuth
func scope(r *http.Request) requestScope {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	return requestScope{
		Session:   sess,
		Actor:     orchestrators.Actor{Session: sess, IP: middleware.ClientIP(r)},
		Workspace: deps.Workspaces.Get(sess.ID),
		API:       deps.API.WithToken(sess.Token),
	}
}

// listDeps wires the list queries to the session's workspace and upstream client.
// Foods go through the diet builder so its draft stays in step with refetched data.
func (s requestScope) listDeps() projections.ListDeps {
	dd := s.draftDeps()
	return projections.ListDeps{
		API:       s.API,
		Workspace: s.Workspace,
		Now:       timeNow,
		LoadFoods: func(ctx context.Context, refresh bool) ([]catalog.Food, error) {
			return orchestrators.LoadFoods(ctx, refresh, dd)
		},
	}
}

func (s requestScope) draftDeps() orchestrators.DraftDeps {
	return orchestrators.DraftDeps{
		Foods:     s.API,
		Exercises: s.API,
		Routines:  s.API,
		Workspace: s.Workspace,
		Now:       timeNow,
	}
}

func (s requestScope) assignmentDeps() orchestrators.AssignmentDeps {
	d := orchestrators.AssignmentDeps{
		API:       s.API,
		Workspace: s.Workspace,
		Audit:     deps.Audit,
		Now:       timeNow,
	}
	if deps.Email != nil {
		d.Notify = &orchestrators.NotifyAssignmentDeps{Sender: deps.Email, ReplyTo: deps.ReplyTo}
	}
	return d
}

// restoreSession is the middleware.Auth hook.
func restoreSession(ctx context.Context, id string) (session.Session, error) {
	return orchestrators.ExecuteRestoreSession(ctx, id, orchestrators.RestoreSessionDeps{
		Sessions: deps.Sessions,
		Now:      timeNow,
	})
}

// endSession logs the caller out locally after the upstream rejected their token.
func endSession(w http.ResponseWriter, r *http.Request, s requestScope) {
	slog.Warn("auth_event", "event", "token_rejected", "email", s.Session.User.Email)
	if err := deps.Sessions.Delete(r.Context(), s.Session.ID); err != nil {
		slog.Error("session_delete_failed", "error", err)
	}
	deps.Workspaces.Drop(s.Session.ID)
	middleware.ClearSessionCookie(w)
}

// conflictErrors are answered with 409.
var conflictErrors = []error{
	workspace.ErrSaveInProgress,
	assignment.ErrSubmitInProgress,
	assignment.ErrNotReady,
	dietplan.ErrConfirmationRequired,
}

// notFoundErrors are answered with 404.
var notFoundErrors = []error{
	orchestrators.ErrFoodNotFound,
	orchestrators.ErrExerciseNotFound,
	orchestrators.ErrRoutineNotFound,
	projections.ErrTargetNotFound,
	routine.ErrEntryNotFound,
}

// badRequestErrors are answered with 400.
var badRequestErrors = []error{
	dietplan.ErrInvalidDay,
	dietplan.ErrInvalidMealType,
	routine.ErrInvalidLevel,
	routine.ErrUnknownField,
	assignment.ErrInvalidKind,
	assignment.ErrInvalidMode,
	assignment.ErrMissingTarget,
	assignment.ErrUnknownRecipient,
	catalog.ErrInvalidGoal,
	catalog.ErrInvalidTier,
	catalog.ErrInvalidPrice,
	api.ErrUnknownResource,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// errorStatus maps an operation error to its HTTP status. 0 means internal.
func errorStatus(err error) int {
	var netErr *api.NetworkError
	var srvErr *api.ServerError
	switch {
	case isAny(err, conflictErrors):
		return http.StatusConflict
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case isAny(err, badRequestErrors):
		return http.StatusBadRequest
	case errors.As(err, &netErr):
		return http.StatusBadGateway
	case errors.As(err, &srvErr):
		if srvErr.Status >= 400 && srvErr.Status < 500 {
			return srvErr.Status
		}
		return http.StatusBadGateway
	}
	return 0
}

// respondError answers a failed operation.
// POST: validation failures are 422 {"field_errors":...}; an upstream 401 ends the session;
// everything the operator can act on carries a feedback notice
func respondError(w http.ResponseWriter, r *http.Request, s requestScope, action feedback.Action, err error) {
	var srvErr *api.ServerError
	if errors.As(err, &srvErr) && srvErr.IsUnauthorized() {
		endSession(w, r, s)
		middleware.Unauthorized(w, r)
		return
	}
	fb := feedback.FromError(action, err)
	if fields, ok := validation.FieldErrors(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"field_errors": fields, "feedback": fb})
		return
	}
	status := errorStatus(err)
	if status == 0 {
		internalError(w, err)
		return
	}
	writeJSON(w, status, map[string]any{"error": err.Error(), "feedback": fb})
}

// renderTemplate renders a page inside layout.html.
func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	renderTemplateStatus(w, r, http.StatusOK, templateName, data)
}

// renderTemplateStatus renders the whole page before writing, so a template failure
// still produces a clean 500.
func renderTemplateStatus(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	sess, loggedIn := middleware.GetSessionFromContext(r.Context())

	funcMap := template.FuncMap{
		"isLoggedIn":   func() bool { return loggedIn },
		"isAdmin":      func() bool { return loggedIn && sess.IsAdmin() },
		"currentName":  func() string { return sess.User.Name },
		"currentEmail": func() string { return sess.User.Email },
		"csrfField":    func() template.HTML { return csrf.TemplateField(r) },
		"renderMarkdown": func(md string) template.HTML {
			html, err := email.RenderMarkdown(md)
			if err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(html)
		},
		"title": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+templateName)
	if err != nil {
		internalError(w, fmt.Errorf("parse %s: %w", templateName, err))
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", templateName, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// handleRoot sends visitors to the dashboard or the login page.
func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func loginDeps() orchestrators.LoginDeps {
	return orchestrators.LoginDeps{
		API:        deps.API,
		Sessions:   deps.Sessions,
		Audit:      deps.Audit,
		GenerateID: generateID,
		Now:        timeNow,
	}
}

// loginMessage turns a failed login into what the form shows.
func loginMessage(err error) string {
	if errors.Is(err, session.ErrInvalidRole) {
		return session.ErrInvalidRole.Error()
	}
	return feedback.FromError(feedback.ActionLogin, err).Message
}

// handleLogin handles GET (form) and POST (authenticate) for /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, "login.html", map[string]any{})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input := orchestrators.LoginInput{
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
			IP:       middleware.ClientIP(r),
		}
		sess, err := orchestrators.ExecuteLogin(r.Context(), input, loginDeps())
		if err != nil {
			renderTemplateStatus(w, r, http.StatusUnauthorized, "login.html", map[string]any{
				"Email": input.Email,
				"Error": loginMessage(err),
			})
			return
		}
		middleware.SetSessionCookie(w, sess, timeNow())
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// logout ends the caller's session and discards its drafts.
func logout(w http.ResponseWriter, r *http.Request) error {
	s := scope(r)
	err := orchestrators.ExecuteLogout(r.Context(), s.Actor, orchestrators.LogoutDeps{
		Sessions:   deps.Sessions,
		Workspaces: deps.Workspaces,
		Audit:      deps.Audit,
		Now:        timeNow,
	})
	middleware.ClearSessionCookie(w)
	return err
}

// handleLogout handles POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := logout(w, r); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type meResponse struct {
	User      session.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// handleAPILogin handles POST /api/auth/login
// POST: sets the session cookie; the upstream token never leaves the server
func handleAPILogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	sess, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		IP:       middleware.ClientIP(r),
	}, loginDeps())
	if err != nil {
		status := http.StatusUnauthorized
		if errorStatus(err) == http.StatusBadGateway {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, map[string]any{
			"error":    loginMessage(err),
			"feedback": feedback.FromError(feedback.ActionLogin, err),
		})
		return
	}
	middleware.SetSessionCookie(w, sess, timeNow())
	writeJSON(w, http.StatusOK, meResponse{User: sess.User, ExpiresAt: sess.ExpiresAt})
}

// handleAPILogout handles POST /api/auth/logout
func handleAPILogout(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if err := logout(w, r); err != nil {
		internalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMe handles GET /api/me
func handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, meResponse{User: sess.User, ExpiresAt: sess.ExpiresAt})
}

// handleDashboard handles GET /dashboard
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s := scope(r)
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	result, err := projections.QueryGetDashboard(r.Context(), projections.GetDashboardQuery{
		User:    s.Session.User,
		Refresh: refresh,
	}, s.listDeps())
	if err != nil {
		respondError(w, r, s, feedback.ActionLoad, err)
		return
	}
	renderTemplate(w, r, "dashboard.html", result)
}

// handleDietPreview handles GET /diet-plans/draft/preview: the diet draft as a printable
// week with its description rendered from markdown.
func handleDietPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var draft dietplan.WeeklyPlan
	scope(r).Workspace.Update(func(st *workspace.State) error {
		draft = st.Diet
		return nil
	})

	type dayRow struct {
		Day      dietplan.Day
		Slots    []dietplan.Slot
		Calories int
	}
	days := make([]dayRow, 0, len(dietplan.Days))
	for _, d := range dietplan.Days {
		days = append(days, dayRow{Day: d, Slots: draft.Slots(d), Calories: draft.DailyCalories(d)})
	}
	renderTemplate(w, r, "diet_preview.html", map[string]any{
		"Meta":    draft.Meta,
		"Days":    days,
		"Weekly":  draft.WeeklyCalories(),
		"Entries": draft.EntryCount(),
		"Target":  dietplan.DailyCalorieTarget,
	})
}
