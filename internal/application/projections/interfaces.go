package projections

import (
	"context"

	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/dietplan"
	"trainerdash/internal/domain/routine"
)

// CatalogAPI is the read side of the upstream API used by list screens.
type CatalogAPI interface {
	ListMyStudents(ctx context.Context) ([]catalog.Client, error)
	ListPlans(ctx context.Context) ([]catalog.Plan, error)
	ListFoods(ctx context.Context) ([]catalog.Food, error)
	ListExercises(ctx context.Context) ([]catalog.Exercise, error)
	ListRoutines(ctx context.Context) ([]routine.Remote, error)
	ListDietPlans(ctx context.Context) ([]dietplan.Remote, error)
}

// FoodLoader loads the food catalog, refetching when refresh is set.
type FoodLoader func(ctx context.Context, refresh bool) ([]catalog.Food, error)
