package orchestrators

import (
	"context"
	"errors"
	"time"

	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/dietplan"
	"trainerdash/internal/domain/routine"
)

var (
	ErrFoodNotFound     = errors.New("food is not in the catalog")
	ErrExerciseNotFound = errors.New("exercise is not in the catalog")
	ErrRoutineNotFound  = errors.New("routine not found")
)

// DraftDeps holds the catalog sources the draft builders read through the workspace cache.
type DraftDeps struct {
	Foods     FoodLister
	Exercises ExerciseLister
	Routines  RoutineLister
	Workspace *workspace.Workspace
	Now       func() time.Time
}

// EditDietDraft applies fn to the diet draft and stores the result.
// POST: when fn fails the draft is unchanged
// POST: while the draft is being saved, returns workspace.ErrSaveInProgress and a zero plan
func EditDietDraft(ws *workspace.Workspace, fn func(dietplan.WeeklyPlan) (dietplan.WeeklyPlan, error)) (dietplan.WeeklyPlan, error) {
	var out dietplan.WeeklyPlan
	err := ws.UpdateDraft(workspace.DraftDietPlan, func(s *workspace.State) error {
		next, err := fn(s.Diet)
		if err != nil {
			out = s.Diet
			return err
		}
		s.Diet = next
		out = next
		return nil
	})
	return out, err
}

// EditRoutineDraft applies fn to the routine draft and stores the result.
// POST: when fn fails the draft is unchanged
// POST: while the draft is being saved, returns workspace.ErrSaveInProgress
func EditRoutineDraft(ws *workspace.Workspace, fn func(routine.Routine) (routine.Routine, error)) (routine.Routine, error) {
	var out routine.Routine
	err := ws.UpdateDraft(workspace.DraftRoutine, func(s *workspace.State) error {
		next, err := fn(s.Routine)
		if err != nil {
			out = s.Routine
			return err
		}
		s.Routine = next
		out = next
		return nil
	})
	return out, err
}

// LoadFoods returns the food catalog through the workspace cache.
// POST: after a refetch the diet draft entries point at the current food data
func LoadFoods(ctx context.Context, refresh bool, deps DraftDeps) ([]catalog.Food, error) {
	fetched := false
	fetch := func(ctx context.Context) ([]catalog.Food, error) {
		fetched = true
		return deps.Foods.ListFoods(ctx)
	}
	foods, err := workspace.Load(ctx, deps.Workspace, workspace.Foods, refresh, deps.Now(), fetch,
		func(s *workspace.State) *[]catalog.Food { return &s.Foods })
	if err != nil || !fetched {
		return foods, err
	}
	deps.Workspace.Update(func(s *workspace.State) error {
		s.Diet = s.Diet.RefreshFoods(catalog.IndexFoods(foods))
		return nil
	})
	return foods, nil
}

// LoadExercises returns the exercise catalog through the workspace cache.
func LoadExercises(ctx context.Context, refresh bool, deps DraftDeps) ([]catalog.Exercise, error) {
	return workspace.Load(ctx, deps.Workspace, workspace.Exercises, refresh, deps.Now(), deps.Exercises.ListExercises,
		func(s *workspace.State) *[]catalog.Exercise { return &s.Exercises })
}

// AddFoodEntryInput carries input for AddFoodEntry.
type AddFoodEntryInput struct {
	Day      dietplan.Day
	Meal     dietplan.MealType
	FoodID   int64
	Quantity string
}

// ExecuteAddFoodEntry adds a catalog food to one meal slot of the diet draft.
// PRE: the food id is in the catalog
// POST: returns ErrFoodNotFound or a quantity validation error without touching the draft
func ExecuteAddFoodEntry(ctx context.Context, input AddFoodEntryInput, deps DraftDeps) (dietplan.WeeklyPlan, error) {
	foods, err := LoadFoods(ctx, false, deps)
	if err != nil {
		return dietplan.WeeklyPlan{}, err
	}
	food, ok := catalog.IndexFoods(foods)[input.FoodID]
	if !ok {
		return dietplan.WeeklyPlan{}, ErrFoodNotFound
	}
	return EditDietDraft(deps.Workspace, func(p dietplan.WeeklyPlan) (dietplan.WeeklyPlan, error) {
		return p.AddFoodEntry(input.Day, input.Meal, food, input.Quantity)
	})
}

// ExecuteAddExercise appends a catalog exercise to the routine draft with the default prescription.
func ExecuteAddExercise(ctx context.Context, exerciseID int64, deps DraftDeps) (routine.Routine, error) {
	exercises, err := LoadExercises(ctx, false, deps)
	if err != nil {
		return routine.Routine{}, err
	}
	for _, ex := range exercises {
		if ex.ID == exerciseID {
			return EditRoutineDraft(deps.Workspace, func(r routine.Routine) (routine.Routine, error) {
				return r.AddExercise(ex), nil
			})
		}
	}
	return routine.Routine{}, ErrExerciseNotFound
}

// ExecuteEditRoutine replaces the routine draft with a stored routine so it can be changed.
// POST: the next save updates routineID instead of creating a new routine
func ExecuteEditRoutine(ctx context.Context, routineID int64, deps DraftDeps) (routine.Routine, error) {
	routines, err := workspace.Load(ctx, deps.Workspace, workspace.Routines, false, deps.Now(), deps.Routines.ListRoutines,
		func(s *workspace.State) *[]routine.Remote { return &s.Routines })
	if err != nil {
		return routine.Routine{}, err
	}
	for _, r := range routines {
		if r.ID == routineID {
			draft := routine.Rehydrate(r)
			return EditRoutineDraft(deps.Workspace, func(routine.Routine) (routine.Routine, error) {
				return draft, nil
			})
		}
	}
	return routine.Routine{}, ErrRoutineNotFound
}

// ResetDietDraft discards the diet draft.
func ResetDietDraft(ws *workspace.Workspace) (dietplan.WeeklyPlan, error) {
	return EditDietDraft(ws, func(dietplan.WeeklyPlan) (dietplan.WeeklyPlan, error) {
		return workspace.NewDietDraft(), nil
	})
}

// ResetRoutineDraft discards the routine draft.
func ResetRoutineDraft(ws *workspace.Workspace) (routine.Routine, error) {
	return EditRoutineDraft(ws, func(routine.Routine) (routine.Routine, error) {
		return workspace.NewRoutineDraft(), nil
	})
}
