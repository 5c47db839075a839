package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/domain/audit"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/feedback"
	"trainerdash/internal/domain/validation"
)

// CatalogSaveResult is the outcome of a food or exercise save.
type CatalogSaveResult struct {
	ID       int64             `json:"id"`
	Feedback feedback.Feedback `json:"feedback"`
}

// SaveFoodDeps holds dependencies for SaveFood.
type SaveFoodDeps struct {
	API       FoodSaver
	Workspace *workspace.Workspace
	Audit     AuditRecorder
	Now       func() time.Time
}

// ExecuteSaveFood creates a food (id 0) or edits food id.
// PRE: none
// POST: invalid forms are reported field by field and nothing is sent
// POST: on success the food catalog refetches on next read
func ExecuteSaveFood(ctx context.Context, actor Actor, id int64, in catalog.FoodInput, deps SaveFoodDeps) (CatalogSaveResult, error) {
	if id < 0 {
		err := validation.New("id", "must not be negative")
		return CatalogSaveResult{Feedback: feedback.FromError(feedback.ActionSaveFood, err)}, err
	}
	if err := in.Validate(); err != nil {
		return CatalogSaveResult{Feedback: feedback.FromError(feedback.ActionSaveFood, err)}, err
	}

	event := actor.event(audit.CategoryCatalog, createOrUpdate(id), deps.Now()).WithDescription(in.Name)
	saved, err := deps.API.SaveFood(ctx, id, in)
	if err != nil {
		recordAudit(ctx, deps.Audit, event.WithFailure(err.Error()))
		return CatalogSaveResult{Feedback: feedback.FromError(feedback.ActionSaveFood, err)}, err
	}

	deps.Workspace.Update(func(s *workspace.State) error {
		s.Invalidate(workspace.Foods)
		return nil
	})
	slog.Info("food_saved", "id", saved, "edit", id != 0)
	recordAudit(ctx, deps.Audit, event.WithResource("food", saved))
	return CatalogSaveResult{ID: saved, Feedback: feedback.Success(feedback.ActionSaveFood, "")}, nil
}

// SaveExerciseDeps holds dependencies for SaveExercise.
type SaveExerciseDeps struct {
	API       ExerciseSaver
	Workspace *workspace.Workspace
	Audit     AuditRecorder
	Now       func() time.Time
}

// ExecuteSaveExercise creates an exercise (id 0) or replaces exercise id.
// PRE: none
// POST: on success the exercise catalog refetches on next read
func ExecuteSaveExercise(ctx context.Context, actor Actor, id int64, in catalog.ExerciseInput, deps SaveExerciseDeps) (CatalogSaveResult, error) {
	if id < 0 {
		err := validation.New("id", "must not be negative")
		return CatalogSaveResult{Feedback: feedback.FromError(feedback.ActionSaveExercise, err)}, err
	}
	if err := in.Validate(); err != nil {
		return CatalogSaveResult{Feedback: feedback.FromError(feedback.ActionSaveExercise, err)}, err
	}
	in = in.Prepared()

	event := actor.event(audit.CategoryCatalog, createOrUpdate(id), deps.Now()).WithDescription(in.Name)
	saved, err := deps.API.SaveExercise(ctx, id, in)
	if err != nil {
		recordAudit(ctx, deps.Audit, event.WithFailure(err.Error()))
		return CatalogSaveResult{Feedback: feedback.FromError(feedback.ActionSaveExercise, err)}, err
	}

	deps.Workspace.Update(func(s *workspace.State) error {
		s.Invalidate(workspace.Exercises)
		return nil
	})
	slog.Info("exercise_saved", "id", saved, "edit", id != 0)
	recordAudit(ctx, deps.Audit, event.WithResource("exercise", saved))
	return CatalogSaveResult{ID: saved, Feedback: feedback.Success(feedback.ActionSaveExercise, "")}, nil
}

func createOrUpdate(id int64) audit.Action {
	if id == 0 {
		return audit.ActionCreate
	}
	return audit.ActionUpdate
}
