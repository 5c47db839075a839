package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"trainerdash/internal/adapters/api"
	emailPkg "trainerdash/internal/adapters/email"
	web "trainerdash/internal/adapters/http"
	"trainerdash/internal/adapters/http/perf"
	"trainerdash/internal/adapters/storage"
	auditStore "trainerdash/internal/adapters/storage/audit"
	sessionStore "trainerdash/internal/adapters/storage/session"
	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/application/orchestrators"
	"trainerdash/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	// WAL mode, foreign keys and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		fatal("failed to open database", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		fatal("database unreachable", err)
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		fatal("failed to migrate database", err)
	}

	// Performance instrumentation: wrap DB with timing, create collector
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)

	sessions := sessionStore.NewSQLiteStore(timedDB, sessionStore.NewSealer(cfg.SessionSecret()))
	trail := auditStore.NewSQLiteStore(timedDB)
	workspaces := workspace.NewStore()

	deps := &web.Deps{
		API:        api.NewClient(cfg.APIBaseURL, &http.Client{}, collector),
		Sessions:   sessions,
		Workspaces: workspaces,
		Audit:      trail,
		ReplyTo:    cfg.ReplyTo,
		Collector:  collector,
	}
	if cfg.ResendKey != "" {
		deps.Email = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		slog.Info("email_sender_configured", "provider", "resend")
	} else {
		deps.Email = emailPkg.NewNoopSender()
		if cfg.IsProduction() {
			slog.Warn("email_delivery_disabled", "hint", "set "+config.EnvPrefix+"RESEND_KEY")
		}
	}

	// Expired sessions, orphaned workspaces and old audit events
	stopCh := make(chan struct{})
	orchestrators.StartBackgroundWorker("housekeeping", 10*time.Minute, stopCh, func(ctx context.Context) error {
		_, err := orchestrators.ExecuteHousekeeping(ctx, orchestrators.HousekeepingDeps{
			Sessions:   sessions,
			Workspaces: workspaces,
			Audit:      trail,
			Now:        time.Now,
		})
		return err
	})
	defer close(stopCh)

	handler := web.NewMux(deps, web.Options{
		StaticDir:     "static",
		CSRFKey:       cfg.CSRFKeyBytes(),
		SlowRequestMs: cfg.SlowRequestMs,
		SecureCookies: cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env,
			"api", cfg.APIBaseURL, "schema", storage.LatestSchemaVersion())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	}()

	<-ctx.Done()
	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err)
	}
}

// setupLogger installs text logs in development and JSON logs in production.
func setupLogger(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.IsProduction() {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
