package orchestrators

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"trainerdash/internal/adapters/api"
	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/domain/audit"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/feedback"
	"trainerdash/internal/domain/validation"
)

// resourceCollections maps a deletable resource to the cached list it belongs to.
var resourceCollections = map[api.Resource]workspace.Collection{
	api.ResourceRoutine:  workspace.Routines,
	api.ResourceDietPlan: workspace.DietPlans,
	api.ResourceFood:     workspace.Foods,
	api.ResourceExercise: workspace.Exercises,
}

var resourceCategories = map[api.Resource]audit.Category{
	api.ResourceRoutine:  audit.CategoryRoutine,
	api.ResourceDietPlan: audit.CategoryDietPlan,
	api.ResourceFood:     audit.CategoryCatalog,
	api.ResourceExercise: audit.CategoryCatalog,
}

// DeleteResourceInput carries input for DeleteResource.
type DeleteResourceInput struct {
	Resource api.Resource
	ID       int64
}

// DeleteResourceDeps holds dependencies for DeleteResource.
type DeleteResourceDeps struct {
	API       ResourceDeleter
	Workspace *workspace.Workspace
	Audit     AuditRecorder
	Now       func() time.Time
}

// ExecuteDeleteResource deletes a routine, diet plan, food or exercise upstream.
// PRE: the operator confirmed the deletion
// POST: on success the owning list refetches on next read; a routine draft editing the
// deleted routine is reset and a modal targeting it is closed
func ExecuteDeleteResource(ctx context.Context, actor Actor, input DeleteResourceInput, deps DeleteResourceDeps) (feedback.Feedback, error) {
	coll, ok := resourceCollections[input.Resource]
	if !ok {
		return feedback.Feedback{}, api.ErrUnknownResource
	}
	if input.ID <= 0 {
		return feedback.Feedback{}, validation.New("id", "required")
	}

	event := actor.event(resourceCategories[input.Resource], audit.ActionDelete, deps.Now()).
		WithResource(string(input.Resource), input.ID)
	if err := deps.API.DeleteResource(ctx, input.Resource, input.ID); err != nil {
		recordAudit(ctx, deps.Audit, event.WithFailure(err.Error()))
		return feedback.FromError(feedback.ActionDelete, err), err
	}

	deps.Workspace.Update(func(s *workspace.State) error {
		s.Invalidate(coll)
		if input.Resource == api.ResourceRoutine && s.Routine.ID == input.ID {
			s.Routine = workspace.NewRoutineDraft()
		}
		t := s.Modal.Target
		if s.Modal.IsOpen() && t.ID == input.ID && string(t.Kind) == string(input.Resource) {
			s.Modal.Close()
		}
		return nil
	})
	slog.Info("resource_deleted", "resource", input.Resource, "id", input.ID)
	recordAudit(ctx, deps.Audit, event)
	return feedback.Success(feedback.ActionDelete, ""), nil
}

// RegisterClientDeps holds dependencies for RegisterClient.
type RegisterClientDeps struct {
	API       ClientRegistrar
	Workspace *workspace.Workspace
	Audit     AuditRecorder
	Now       func() time.Time
}

// ExecuteRegisterClient creates a student account with the client role.
// PRE: none
// POST: every invalid field is reported at once and nothing is sent
// POST: on success the client list refetches on next read
func ExecuteRegisterClient(ctx context.Context, actor Actor, reg catalog.Registration, deps RegisterClientDeps) (feedback.Feedback, error) {
	reg.Email = strings.TrimSpace(reg.Email)
	if err := reg.Validate(); err != nil {
		return feedback.FromError(feedback.ActionRegisterClient, err), err
	}

	event := actor.event(audit.CategoryClient, audit.ActionCreate, deps.Now()).WithDescription(reg.Email)
	if err := deps.API.Register(ctx, reg.Prepared()); err != nil {
		recordAudit(ctx, deps.Audit, event.WithFailure(err.Error()))
		return feedback.FromError(feedback.ActionRegisterClient, err), err
	}

	deps.Workspace.Update(func(s *workspace.State) error {
		s.Invalidate(workspace.Clients)
		return nil
	})
	slog.Info("client_registered", "email", reg.Email, "plan_id", reg.PlanID)
	recordAudit(ctx, deps.Audit, event)
	return feedback.Success(feedback.ActionRegisterClient, ""), nil
}

// UpdatePlanDeps holds dependencies for UpdatePlan.
type UpdatePlanDeps struct {
	API       PlanUpdater
	Workspace *workspace.Workspace
	Audit     AuditRecorder
	Now       func() time.Time
}

// ExecuteUpdatePlan changes the price, description or active flag of a subscription plan.
// PRE: none
// POST: on success the plan list refetches on next read
func ExecuteUpdatePlan(ctx context.Context, actor Actor, id int64, upd catalog.PlanUpdate, deps UpdatePlanDeps) (feedback.Feedback, error) {
	if id <= 0 {
		err := validation.New("id", "required")
		return feedback.FromError(feedback.ActionUpdatePlan, err), err
	}
	if err := upd.Validate(); err != nil {
		return feedback.FromError(feedback.ActionUpdatePlan, err), err
	}

	event := actor.event(audit.CategoryPlan, audit.ActionUpdate, deps.Now()).WithResource(string(audit.CategoryPlan), id)
	if err := deps.API.UpdatePlan(ctx, id, upd); err != nil {
		recordAudit(ctx, deps.Audit, event.WithFailure(err.Error()))
		return feedback.FromError(feedback.ActionUpdatePlan, err), err
	}

	deps.Workspace.Update(func(s *workspace.State) error {
		s.Invalidate(workspace.Plans)
		return nil
	})
	slog.Info("plan_updated", "id", id)
	recordAudit(ctx, deps.Audit, event)
	return feedback.Success(feedback.ActionUpdatePlan, ""), nil
}
