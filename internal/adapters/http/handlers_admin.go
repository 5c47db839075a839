package web

import (
	"net/http"
	"strconv"
	"time"

	auditStore "trainerdash/internal/adapters/storage/audit"
	auditDomain "trainerdash/internal/domain/audit"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// handleAdminAudit serves the audit trail (GET /api/admin/audit)
// PRE: User must be authenticated as admin
// POST: Returns newest events first, narrowed by category, action, outcome, actor_id, from and to
func handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()

	filter := auditStore.Filter{
		Category: auditDomain.Category(q.Get("category")),
		Action:   auditDomain.Action(q.Get("action")),
		Outcome:  auditDomain.Outcome(q.Get("outcome")),
		ActorID:  q.Get("actor_id"),
	}
	for key, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := parseAuditTime(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": key + " must be a date or RFC 3339 time"})
			return
		}
		*dst = t
	}

	limit := defaultAuditLimit
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 && l <= maxAuditLimit {
		limit = l
	}

	events, err := deps.Audit.List(r.Context(), filter, limit)
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "limit": limit})
}

// parseAuditTime accepts a bare date or a full timestamp.
func parseAuditTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

// handleAdminPerf serves request, query and upstream latency (GET /api/admin/perf?minutes=&top=)
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if deps.Collector == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "performance collection is disabled"})
		return
	}
	minutes := 60
	if m, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && m > 0 {
		minutes = m
	}
	top := 10
	if n, err := strconv.Atoi(r.URL.Query().Get("top")); err == nil && n > 0 {
		top = n
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, deps.Collector.Snapshot(since, top))
}
