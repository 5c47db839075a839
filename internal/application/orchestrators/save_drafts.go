package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/domain/audit"
	"trainerdash/internal/domain/dietplan"
	"trainerdash/internal/domain/feedback"
	"trainerdash/internal/domain/routine"
)

// SaveResult is the outcome of a successful save.
type SaveResult struct {
	ID       int64             `json:"id"`
	Feedback feedback.Feedback `json:"feedback"`
}

// SaveDietPlanDeps holds dependencies for SaveDietPlan.
type SaveDietPlanDeps struct {
	API       DietPlanSaver
	Workspace *workspace.Workspace
	Audit     AuditRecorder
	Now       func() time.Time
}

// ExecuteSaveDietPlan validates the diet draft and sends it as one POST /diet-plans.
// PRE: none
// POST: on success the draft is reset and the diet plan list refetches on next read
// POST: on failure the draft is kept so the operator can retry
// INVARIANT: at most one save of the diet draft is in flight per session
func ExecuteSaveDietPlan(ctx context.Context, actor Actor, deps SaveDietPlanDeps) (SaveResult, error) {
	ws := deps.Workspace
	if err := ws.BeginSave(workspace.DraftDietPlan); err != nil {
		return SaveResult{}, err
	}
	defer ws.EndSave(workspace.DraftDietPlan)

	var draft dietplan.WeeklyPlan
	ws.Update(func(s *workspace.State) error {
		draft = s.Diet
		return nil
	})
	req, err := draft.Save()
	if err != nil {
		return SaveResult{}, err
	}

	event := actor.event(audit.CategoryDietPlan, audit.ActionCreate, deps.Now()).WithDescription(req.Name)
	id, err := deps.API.CreateDietPlan(ctx, req)
	if err != nil {
		slog.Warn("draft_save_failed", "draft", workspace.DraftDietPlan, "error", err)
		recordAudit(ctx, deps.Audit, event.WithFailure(err.Error()))
		return SaveResult{}, err
	}

	ws.Update(func(s *workspace.State) error {
		s.Diet = workspace.NewDietDraft()
		s.Invalidate(workspace.DietPlans)
		return nil
	})
	slog.Info("draft_saved", "draft", workspace.DraftDietPlan, "id", id, "entries", draft.EntryCount())
	recordAudit(ctx, deps.Audit, event.WithResource(string(audit.CategoryDietPlan), id))
	return SaveResult{ID: id, Feedback: feedback.Success(feedback.ActionSaveDietPlan, "")}, nil
}

// SaveRoutineDeps holds dependencies for SaveRoutine.
type SaveRoutineDeps struct {
	API       RoutineSaver
	Workspace *workspace.Workspace
	Audit     AuditRecorder
	Now       func() time.Time
}

// ExecuteSaveRoutine validates the routine draft and creates or updates it upstream.
// PRE: none
// POST: a draft without an id is created, one rehydrated from a stored routine is updated
// POST: on success the draft is reset and the routine list refetches on next read
func ExecuteSaveRoutine(ctx context.Context, actor Actor, deps SaveRoutineDeps) (SaveResult, error) {
	ws := deps.Workspace
	if err := ws.BeginSave(workspace.DraftRoutine); err != nil {
		return SaveResult{}, err
	}
	defer ws.EndSave(workspace.DraftRoutine)

	var draft routine.Routine
	ws.Update(func(s *workspace.State) error {
		draft = s.Routine
		return nil
	})
	req, err := draft.Save()
	if err != nil {
		return SaveResult{}, err
	}

	action := audit.ActionUpdate
	if draft.IsNew() {
		action = audit.ActionCreate
	}
	event := actor.event(audit.CategoryRoutine, action, deps.Now()).WithDescription(req.Name)
	id, err := deps.API.SaveRoutine(ctx, draft.ID, req)
	if err != nil {
		slog.Warn("draft_save_failed", "draft", workspace.DraftRoutine, "error", err)
		recordAudit(ctx, deps.Audit, event.WithResource(string(audit.CategoryRoutine), draft.ID).WithFailure(err.Error()))
		return SaveResult{}, err
	}

	ws.Update(func(s *workspace.State) error {
		s.Routine = workspace.NewRoutineDraft()
		s.Invalidate(workspace.Routines)
		return nil
	})
	slog.Info("draft_saved", "draft", workspace.DraftRoutine, "id", id, "entries", len(req.Exercises))
	recordAudit(ctx, deps.Audit, event.WithResource(string(audit.CategoryRoutine), id))
	return SaveResult{ID: id, Feedback: feedback.Success(feedback.ActionSaveRoutine, "")}, nil
}
