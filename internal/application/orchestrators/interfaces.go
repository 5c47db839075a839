package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"trainerdash/internal/adapters/api"
	"trainerdash/internal/domain/audit"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/dietplan"
	"trainerdash/internal/domain/routine"
	"trainerdash/internal/domain/session"
)

// AuthAPI is the part of the API client used to sign in.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
}

// SessionStoreForOrchestrator persists dashboard sessions.
type SessionStoreForOrchestrator interface {
	Save(ctx context.Context, s session.Session) error
	Get(ctx context.Context, id string, now time.Time) (session.Session, error)
	Delete(ctx context.Context, id string) error
}

// AuditRecorder stores audit events.
type AuditRecorder interface {
	Save(ctx context.Context, e audit.Event) error
}

// FoodLister loads the food catalog.
type FoodLister interface {
	ListFoods(ctx context.Context) ([]catalog.Food, error)
}

// ExerciseLister loads the exercise catalog.
type ExerciseLister interface {
	ListExercises(ctx context.Context) ([]catalog.Exercise, error)
}

// RoutineLister loads persisted routines.
type RoutineLister interface {
	ListRoutines(ctx context.Context) ([]routine.Remote, error)
}

// DietPlanSaver persists a diet plan.
type DietPlanSaver interface {
	CreateDietPlan(ctx context.Context, req dietplan.SaveRequest) (int64, error)
}

// RoutineSaver persists a routine.
type RoutineSaver interface {
	SaveRoutine(ctx context.Context, id int64, req routine.SaveRequest) (int64, error)
}

// CandidateLoader fetches what the assignment modal needs.
type CandidateLoader interface {
	ListUsersByGoal(ctx context.Context, goal string) ([]catalog.Client, error)
	ListMyStudents(ctx context.Context) ([]catalog.Client, error)
	ListPlans(ctx context.Context) ([]catalog.Plan, error)
}

// Assigner posts an assignment.
type Assigner interface {
	Assign(ctx context.Context, endpoint string, payload any) error
}

// ResourceDeleter removes routines, diet plans, foods and exercises.
type ResourceDeleter interface {
	DeleteResource(ctx context.Context, r api.Resource, id int64) error
}

// ClientRegistrar creates student accounts.
type ClientRegistrar interface {
	Register(ctx context.Context, reg catalog.Registration) error
}

// PlanUpdater edits subscription plans.
type PlanUpdater interface {
	UpdatePlan(ctx context.Context, id int64, upd catalog.PlanUpdate) error
}

// FoodSaver creates and edits catalog foods.
type FoodSaver interface {
	SaveFood(ctx context.Context, id int64, in catalog.FoodInput) (int64, error)
}

// ExerciseSaver creates and edits catalog exercises.
type ExerciseSaver interface {
	SaveExercise(ctx context.Context, id int64, in catalog.ExerciseInput) (int64, error)
}

// Actor is who performed an operation, for the audit trail.
type Actor struct {
	Session session.Session
	IP      string
}

// recordAudit stores e. A failing audit store is logged and never fails the operation.
func recordAudit(ctx context.Context, store AuditRecorder, e audit.Event) {
	if store == nil {
		return
	}
	if err := store.Save(ctx, e); err != nil {
		slog.Error("audit_save_failed", "error", err, "category", e.Category, "action", e.Action)
	}
}

// event starts an audit event for actor.
func (a Actor) event(category audit.Category, action audit.Action, now time.Time) audit.Event {
	return audit.NewEvent(a.Session.User.ID, a.Session.User.Email, category, action, now).WithIP(a.IP)
}
