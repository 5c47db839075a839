package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/domain/session"
)

// DefaultAuditRetention is how long audit events are kept.
const DefaultAuditRetention = 90 * 24 * time.Hour

// ExpiredSessionPruner deletes expired sessions.
type ExpiredSessionPruner interface {
	SessionStoreForOrchestrator
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuditPruner deletes old audit events.
type AuditPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// HousekeepingDeps provides the dependencies for ExecuteHousekeeping.
type HousekeepingDeps struct {
	Sessions   ExpiredSessionPruner
	Workspaces *workspace.Store
	Audit      AuditPruner
	Now        func() time.Time
	// AuditRetention defaults to DefaultAuditRetention when zero.
	AuditRetention time.Duration
}

// HousekeepingResult counts what one pass removed.
type HousekeepingResult struct {
	Sessions   int64
	Workspaces int
	Events     int64
}

// ExecuteHousekeeping removes expired sessions, the workspaces they leave behind and
// audit events past retention.
// PRE: Deps are valid and stores are connected
// POST: every remaining workspace belongs to a live session, unless the session lookup failed
func ExecuteHousekeeping(ctx context.Context, deps HousekeepingDeps) (HousekeepingResult, error) {
	now := deps.Now()
	var res HousekeepingResult
	var errs []error

	n, err := deps.Sessions.DeleteExpired(ctx, now)
	if err != nil {
		errs = append(errs, fmt.Errorf("delete expired sessions: %w", err))
	}
	res.Sessions = n

	if deps.Workspaces != nil {
		res.Workspaces = deps.Workspaces.Retain(func(id string) bool {
			_, err := deps.Sessions.Get(ctx, id, now)
			if err == nil {
				return true
			}
			// A failing store keeps drafts rather than discarding them.
			return !errors.Is(err, session.ErrNotFound) && !errors.Is(err, session.ErrExpired)
		})
	}

	if deps.Audit != nil {
		retention := deps.AuditRetention
		if retention <= 0 {
			retention = DefaultAuditRetention
		}
		pruned, err := deps.Audit.Prune(ctx, now.Add(-retention))
		if err != nil {
			errs = append(errs, fmt.Errorf("prune audit events: %w", err))
		}
		res.Events = pruned
	}

	if res.Sessions+int64(res.Workspaces)+res.Events > 0 {
		slog.Info("housekeeping_done", "sessions", res.Sessions, "workspaces", res.Workspaces, "events", res.Events)
	}
	return res, errors.Join(errs...)
}

// --- Background Worker ---

// StartBackgroundWorker runs task every interval until stopCh is closed.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(name string, interval time.Duration, stopCh <-chan struct{}, task func(ctx context.Context) error) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if err := task(ctx); err != nil {
					slog.Error("background_task_failed", "task", name, "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("background_worker_stopped", "task", name)
				return
			}
		}
	}()
}
