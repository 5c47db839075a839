package web

import (
	"net/http"
	"time"

	"trainerdash/internal/adapters/api"
	"trainerdash/internal/adapters/email"
	"trainerdash/internal/adapters/http/middleware"
	"trainerdash/internal/adapters/http/perf"
	auditStore "trainerdash/internal/adapters/storage/audit"
	sessionStore "trainerdash/internal/adapters/storage/session"
	"trainerdash/internal/adapters/storage/workspace"
)

// Deps holds everything the handlers reach outside the request.
type Deps struct {
	// API is the unauthenticated upstream client; handlers derive per-session clients from it.
	API        *api.Client
	Sessions   sessionStore.Store
	Workspaces *workspace.Store
	Audit      auditStore.Store
	// Email delivers assignment notifications. Nil disables them.
	Email     email.Sender
	ReplyTo   string
	Collector *perf.Collector
}

// Options tunes the middleware stack.
type Options struct {
	StaticDir     string
	CSRFKey       []byte
	SlowRequestMs int
	SecureCookies bool
}

// Global dependencies (set by NewMux)
var deps *Deps

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// timeNow is the handler clock. Tests replace it.
var timeNow = time.Now

// NewMux wires HTTP handlers for the dashboard.
// PRE: d.API, d.Sessions and d.Workspaces are set; opts.CSRFKey is 32 bytes
func NewMux(d *Deps, opts Options) http.Handler {
	deps = d
	middleware.SecureCookies = opts.SecureCookies

	mux := http.NewServeMux()
	if opts.StaticDir != "" {
		mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir))))
	}
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)

	// Outermost last: Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey),
		middleware.Auth(restoreSession),
		middleware.RateLimit(limiter),
		middleware.Timing(d.Collector, opts.SlowRequestMs),
	)
}

// registerRoutes maps every dashboard path to its handler.
func registerRoutes(mux *http.ServeMux) {
	auth := middleware.RequireAuth
	authFunc := func(h http.HandlerFunc) http.Handler { return auth(h) }

	// Pages
	mux.HandleFunc("/", handleRoot)
	mux.HandleFunc("/login", handleLogin)
	mux.Handle("/logout", authFunc(handleLogout))
	mux.Handle("/dashboard", authFunc(handleDashboard))
	mux.Handle("/diet-plans/draft/preview", authFunc(handleDietPreview))

	// Session
	mux.HandleFunc("/api/auth/login", handleAPILogin)
	mux.Handle("/api/auth/logout", authFunc(handleAPILogout))
	mux.Handle("/api/me", authFunc(handleMe))

	// Lists
	mux.Handle("/api/clients", authFunc(handleClients))
	mux.Handle("/api/plans", authFunc(handlePlans))
	mux.Handle("/api/foods", authFunc(handleFoods))
	mux.Handle("/api/foods/picker", authFunc(handleFoodPicker))
	mux.Handle("/api/exercises", authFunc(handleExercises))
	mux.Handle("/api/routines", authFunc(handleRoutines))
	mux.Handle("/api/diet-plans", authFunc(handleDietPlans))
	mux.Handle("/api/subscriptions", authFunc(handleSubscriptions))

	// Mutations
	mux.Handle("/api/clients/register", authFunc(handleRegisterClient))
	mux.Handle("/api/plans/update", authFunc(handleUpdatePlan))
	mux.Handle("/api/foods/save", authFunc(handleSaveFood))
	mux.Handle("/api/exercises/save", authFunc(handleSaveExercise))
	mux.Handle("/api/delete", authFunc(handleDelete))

	// Diet plan builder
	mux.Handle("/api/diet-plans/draft", authFunc(handleDietDraft))
	mux.Handle("/api/diet-plans/draft/meta", authFunc(handleDietDraftMeta))
	mux.Handle("/api/diet-plans/draft/add", authFunc(handleDietDraftAdd))
	mux.Handle("/api/diet-plans/draft/remove", authFunc(handleDietDraftRemove))
	mux.Handle("/api/diet-plans/draft/copy-day", authFunc(handleDietDraftCopyDay))
	mux.Handle("/api/diet-plans/draft/time", authFunc(handleDietDraftTime))
	mux.Handle("/api/diet-plans/draft/save", authFunc(handleDietDraftSave))
	mux.Handle("/api/diet-plans/draft/reset", authFunc(handleDietDraftReset))

	// Routine builder
	mux.Handle("/api/routines/draft", authFunc(handleRoutineDraft))
	mux.Handle("/api/routines/draft/meta", authFunc(handleRoutineDraftMeta))
	mux.Handle("/api/routines/draft/add", authFunc(handleRoutineDraftAdd))
	mux.Handle("/api/routines/draft/remove", authFunc(handleRoutineDraftRemove))
	mux.Handle("/api/routines/draft/field", authFunc(handleRoutineDraftField))
	mux.Handle("/api/routines/draft/edit", authFunc(handleRoutineDraftEdit))
	mux.Handle("/api/routines/draft/save", authFunc(handleRoutineDraftSave))
	mux.Handle("/api/routines/draft/reset", authFunc(handleRoutineDraftReset))

	// Assignment modal
	mux.Handle("/api/assignments/modal", authFunc(handleModal))
	mux.Handle("/api/assignments/modal/open", authFunc(handleModalOpen))
	mux.Handle("/api/assignments/modal/search", authFunc(handleModalSearch))
	mux.Handle("/api/assignments/modal/toggle", authFunc(handleModalToggle))
	mux.Handle("/api/assignments/modal/submit", authFunc(handleModalSubmit))
	mux.Handle("/api/assignments/modal/close", authFunc(handleModalClose))

	// Admin
	mux.Handle("/api/admin/audit", middleware.RequireAdmin(http.HandlerFunc(handleAdminAudit)))
	mux.Handle("/api/admin/perf", middleware.RequireAdmin(http.HandlerFunc(handleAdminPerf)))
}
