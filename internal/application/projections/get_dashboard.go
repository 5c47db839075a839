package projections

import (
	"context"
	"log/slog"

	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/domain/routine"
	"trainerdash/internal/domain/session"
)

// GetDashboardQuery carries input for the dashboard projection.
type GetDashboardQuery struct {
	User    session.User
	Refresh bool
}

// DashboardResult carries the counters shown on the dashboard home.
type DashboardResult struct {
	User session.User `json:"user"`

	Clients        int `json:"clients"`
	ActiveClients  int `json:"active_clients"`
	PremiumClients int `json:"premium_clients"`

	Routines          int `json:"routines"`
	PublishedRoutines int `json:"published_routines"`
	DraftRoutines     int `json:"draft_routines"`

	DietPlans   int `json:"diet_plans"`
	ActivePlans int `json:"active_plans"`

	// Failed names the collections that could not be loaded; their counters stay 0.
	Failed []workspace.Collection `json:"failed,omitempty"`
}

// QueryGetDashboard aggregates the summary counters.
// PRE: none
// POST: a collection that fails to load is reported in Failed; the others still count
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps ListDeps) (DashboardResult, error) {
	result := DashboardResult{User: query.User}
	failed := func(c workspace.Collection, err error) {
		slog.Warn("dashboard_section_failed", "collection", c, "error", err)
		result.Failed = append(result.Failed, c)
	}

	if clients, err := deps.clients(ctx, query.Refresh); err != nil {
		failed(workspace.Clients, err)
	} else {
		result.Clients = len(clients)
		for _, c := range clients {
			if c.IsActive() {
				result.ActiveClients++
			}
			if c.IsPremium {
				result.PremiumClients++
			}
		}
	}

	if routines, err := deps.routines(ctx, query.Refresh); err != nil {
		failed(workspace.Routines, err)
	} else {
		result.Routines = len(routines)
		for _, r := range routines {
			if r.Status() == routine.StatusPublished {
				result.PublishedRoutines++
			} else {
				result.DraftRoutines++
			}
		}
	}

	if plans, err := deps.dietPlans(ctx, query.Refresh); err != nil {
		failed(workspace.DietPlans, err)
	} else {
		result.DietPlans = len(plans)
	}

	if plans, err := deps.plans(ctx, query.Refresh); err != nil {
		failed(workspace.Plans, err)
	} else {
		for _, p := range plans {
			if p.IsActive {
				result.ActivePlans++
			}
		}
	}

	return result, nil
}
