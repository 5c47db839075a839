package projections

import (
	"context"
	"time"

	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/dietplan"
	"trainerdash/internal/domain/routine"
)

// ListDeps holds dependencies for the list queries. Collections are read through the
// session workspace, so repeated reads within a session do not refetch.
type ListDeps struct {
	API       CatalogAPI
	Workspace *workspace.Workspace
	Now       func() time.Time
	// LoadFoods overrides the food source; the diet builder uses it to keep its draft in
	// step with refetched food data.
	LoadFoods FoodLoader
}

func (d ListDeps) clients(ctx context.Context, refresh bool) ([]catalog.Client, error) {
	return workspace.Load(ctx, d.Workspace, workspace.Clients, refresh, d.Now(), d.API.ListMyStudents,
		func(s *workspace.State) *[]catalog.Client { return &s.Clients })
}

func (d ListDeps) plans(ctx context.Context, refresh bool) ([]catalog.Plan, error) {
	return workspace.Load(ctx, d.Workspace, workspace.Plans, refresh, d.Now(), d.API.ListPlans,
		func(s *workspace.State) *[]catalog.Plan { return &s.Plans })
}

func (d ListDeps) foods(ctx context.Context, refresh bool) ([]catalog.Food, error) {
	if d.LoadFoods != nil {
		return d.LoadFoods(ctx, refresh)
	}
	return workspace.Load(ctx, d.Workspace, workspace.Foods, refresh, d.Now(), d.API.ListFoods,
		func(s *workspace.State) *[]catalog.Food { return &s.Foods })
}

func (d ListDeps) exercises(ctx context.Context, refresh bool) ([]catalog.Exercise, error) {
	return workspace.Load(ctx, d.Workspace, workspace.Exercises, refresh, d.Now(), d.API.ListExercises,
		func(s *workspace.State) *[]catalog.Exercise { return &s.Exercises })
}

func (d ListDeps) routines(ctx context.Context, refresh bool) ([]routine.Remote, error) {
	return workspace.Load(ctx, d.Workspace, workspace.Routines, refresh, d.Now(), d.API.ListRoutines,
		func(s *workspace.State) *[]routine.Remote { return &s.Routines })
}

func (d ListDeps) dietPlans(ctx context.Context, refresh bool) ([]dietplan.Remote, error) {
	return workspace.Load(ctx, d.Workspace, workspace.DietPlans, refresh, d.Now(), d.API.ListDietPlans,
		func(s *workspace.State) *[]dietplan.Remote { return &s.DietPlans })
}
