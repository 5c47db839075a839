package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	_ "modernc.org/sqlite"

	"trainerdash/internal/adapters/api"
	"trainerdash/internal/adapters/storage"
	auditStore "trainerdash/internal/adapters/storage/audit"
	sessionStore "trainerdash/internal/adapters/storage/session"
	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/application/orchestrators"
	"trainerdash/internal/config"
	"trainerdash/internal/domain/session"
)

// cliSessionID is the key the CLI session is stored under.
const cliSessionID = "trainerctl"

var ErrNotLoggedIn = errors.New("not logged in: run `trainerctl login` first")

// app holds what every command shares. Stores open lazily so --help never touches the disk.
type app struct {
	cfg        config.Config
	out        io.Writer
	now        func() time.Time
	httpClient *http.Client

	db         *sql.DB
	sessions   sessionStore.Store
	audit      auditStore.Store
	client     *api.Client
	workspaces *workspace.Store
}

func newApp(cfg config.Config, out io.Writer) *app {
	return &app{
		cfg:        cfg,
		out:        out,
		now:        time.Now,
		httpClient: &http.Client{},
		workspaces: workspace.NewStore(),
	}
}

// open connects the stores and the API client once.
func (a *app) open() error {
	if a.sessions != nil {
		return nil
	}
	if a.db == nil {
		dsn := a.cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		if err := storage.MigrateDB(db, a.cfg.DBPath); err != nil {
			db.Close()
			return fmt.Errorf("migrate database: %w", err)
		}
		a.db = db
	}
	if a.cfg.SessionKey == "" {
		return errors.New("set " + config.EnvPrefix + "SESSION_KEY so the CLI session can be stored")
	}
	a.sessions = sessionStore.NewSQLiteStore(a.db, sessionStore.NewSealer(a.cfg.SessionKey))
	a.audit = auditStore.NewSQLiteStore(a.db)
	a.client = api.NewClient(a.cfg.APIBaseURL, a.httpClient, nil)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

// actor restores the CLI session.
// POST: returns ErrNotLoggedIn when there is no live session
func (a *app) actor(ctx context.Context) (orchestrators.Actor, *api.Client, error) {
	if err := a.open(); err != nil {
		return orchestrators.Actor{}, nil, err
	}
	sess, err := orchestrators.ExecuteRestoreSession(ctx, cliSessionID, orchestrators.RestoreSessionDeps{
		Sessions: a.sessions,
		Now:      a.now,
	})
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
		return orchestrators.Actor{}, nil, ErrNotLoggedIn
	}
	if err != nil {
		return orchestrators.Actor{}, nil, err
	}
	return orchestrators.Actor{Session: sess, IP: "cli"}, a.client.WithToken(sess.Token), nil
}

// upstreamError forgets the stored session when the API no longer accepts its token.
func (a *app) upstreamError(ctx context.Context, err error) error {
	var srvErr *api.ServerError
	if errors.As(err, &srvErr) && srvErr.IsUnauthorized() {
		if delErr := a.sessions.Delete(ctx, cliSessionID); delErr != nil {
			return errors.Join(err, delErr)
		}
		return fmt.Errorf("the API rejected the stored session, log in again: %w", err)
	}
	return err
}
