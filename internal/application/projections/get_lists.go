package projections

import (
	"context"

	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/application/listutil"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/dietplan"
	"trainerdash/internal/domain/routine"
)

// Filter keys accepted by each list.
var (
	ClientFilterKeys   = []string{"status", "goal", "tier"}
	RoutineFilterKeys  = []string{"level"}
	DietPlanFilterKeys = []string{"goal"}
	ExerciseFilterKeys = []string{"muscle_group"}
	FoodFilterKeys     = []string{"category"}
	PlanFilterKeys     = []string{"status"}
)

// ListResult is one page of a list screen plus the choices its filters offer.
type ListResult[R any] struct {
	Items   []R                 `json:"items"`
	Page    listutil.PageInfo   `json:"page"`
	View    listutil.View       `json:"view"`
	Options map[string][]string `json:"options,omitempty"`
}

// runList applies the request to the remembered view of c and renders the page.
// INVARIANT: filtering happens here, never upstream
func runList[T, R any](ws *workspace.Workspace, c workspace.Collection, items []T, params listutil.ListParams,
	keys []string, m listutil.Matcher[T], row func(T) R) ListResult[R] {
	var res listutil.Result[T]
	ws.Update(func(s *workspace.State) error {
		v := s.View(c)
		v.Apply(params, keys)
		res = listutil.Run(items, m, v)
		return nil
	})
	rows := make([]R, 0, len(res.Items))
	for _, it := range res.Items {
		rows = append(rows, row(it))
	}
	return ListResult[R]{Items: rows, Page: res.Page, View: res.View}
}

// ClientRow is one line of the client list.
type ClientRow struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Goal    string `json:"goal"`
	Tier    string `json:"tier"`
	Status  string `json:"status"`
	Premium bool   `json:"premium"`
}

var clientMatcher = listutil.Matcher[catalog.Client]{
	Search: []func(catalog.Client) string{
		catalog.Client.FullName,
		func(c catalog.Client) string { return c.Email },
	},
	Filters: map[string]func(catalog.Client) string{
		"status": func(c catalog.Client) string { return c.Status },
		"goal":   func(c catalog.Client) string { return c.Goal },
		"tier": func(c catalog.Client) string {
			if t, err := catalog.ParseTier(c.PlanType); err == nil {
				return string(t)
			}
			return c.PlanType
		},
	},
}

// QueryGetClientList returns the trainer's students, searched by name or e-mail and
// filtered by status, goal and tier.
// PRE: none
// POST: a tier filter accepts the stored label or its English name
func QueryGetClientList(ctx context.Context, params listutil.ListParams, deps ListDeps) (ListResult[ClientRow], error) {
	clients, err := deps.clients(ctx, params.Refresh)
	if err != nil {
		return ListResult[ClientRow]{}, err
	}
	if t, err := catalog.ParseTier(params.Filters["tier"]); err == nil {
		params.Filters["tier"] = string(t)
	}
	res := runList(deps.Workspace, workspace.Clients, clients, params, ClientFilterKeys, clientMatcher, func(c catalog.Client) ClientRow {
		return ClientRow{
			ID: c.ID, Name: c.FullName(), Email: c.Email, Goal: c.Goal,
			Tier: c.PlanType, Status: c.Status, Premium: bool(c.IsPremium),
		}
	})
	res.Options = map[string][]string{
		"status": {catalog.StatusActive, catalog.StatusInactive},
		"goal":   goalOptions(),
		"tier":   tierOptions(),
	}
	return res, nil
}

// RoutineRow is one line of the routine list.
type RoutineRow struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Level      string `json:"level"`
	LevelLabel string `json:"level_label"`
	Duration   int    `json:"estimated_duration"`
	Exercises  int    `json:"exercises"`
	Status     string `json:"status"`
}

var routineMatcher = listutil.Matcher[routine.Remote]{
	Search: []func(routine.Remote) string{
		func(r routine.Remote) string { return r.Name },
		func(r routine.Remote) string { return r.Description },
	},
	Filters: map[string]func(routine.Remote) string{
		"level": func(r routine.Remote) string { return r.Level },
	},
}

// QueryGetRoutineList returns the stored routines, filtered by level.
// POST: a level filter accepts the stored value or its display label
func QueryGetRoutineList(ctx context.Context, params listutil.ListParams, deps ListDeps) (ListResult[RoutineRow], error) {
	routines, err := deps.routines(ctx, params.Refresh)
	if err != nil {
		return ListResult[RoutineRow]{}, err
	}
	if l, err := routine.ParseLevel(params.Filters["level"]); err == nil {
		params.Filters["level"] = string(l)
	}
	res := runList(deps.Workspace, workspace.Routines, routines, params, RoutineFilterKeys, routineMatcher, func(r routine.Remote) RoutineRow {
		return RoutineRow{
			ID: r.ID, Name: r.Name, Level: r.Level, LevelLabel: r.LevelLabel(),
			Duration: int(r.EstimatedDuration), Exercises: len(r.Exercises), Status: r.Status(),
		}
	})
	levels := make([]string, 0, len(routine.Levels))
	for _, l := range routine.Levels {
		levels = append(levels, string(l))
	}
	res.Options = map[string][]string{"level": levels}
	return res, nil
}

var dietPlanMatcher = listutil.Matcher[dietplan.Remote]{
	Search: []func(dietplan.Remote) string{
		func(p dietplan.Remote) string { return p.Name },
		func(p dietplan.Remote) string { return p.Description },
	},
	Filters: map[string]func(dietplan.Remote) string{
		"goal": func(p dietplan.Remote) string { return p.Goal },
	},
}

// QueryGetDietPlanList returns the stored diet plans, filtered by goal.
func QueryGetDietPlanList(ctx context.Context, params listutil.ListParams, deps ListDeps) (ListResult[dietplan.Remote], error) {
	plans, err := deps.dietPlans(ctx, params.Refresh)
	if err != nil {
		return ListResult[dietplan.Remote]{}, err
	}
	res := runList(deps.Workspace, workspace.DietPlans, plans, params, DietPlanFilterKeys, dietPlanMatcher,
		func(p dietplan.Remote) dietplan.Remote { return p })
	res.Options = map[string][]string{"goal": goalOptions()}
	return res, nil
}

// ExerciseRow is one card of the exercise list.
type ExerciseRow struct {
	catalog.Exercise
	Thumbnail string `json:"thumbnail,omitempty"`
}

var exerciseMatcher = listutil.Matcher[catalog.Exercise]{
	Search: []func(catalog.Exercise) string{
		func(e catalog.Exercise) string { return e.Name },
		func(e catalog.Exercise) string { return e.MuscleGroup },
	},
	Filters: map[string]func(catalog.Exercise) string{
		"muscle_group": func(e catalog.Exercise) string { return e.MuscleGroup },
	},
}

// QueryGetExerciseList returns the exercise catalog, filtered by muscle group.
// POST: Options lists the muscle groups present in the whole catalog
func QueryGetExerciseList(ctx context.Context, params listutil.ListParams, deps ListDeps) (ListResult[ExerciseRow], error) {
	exercises, err := deps.exercises(ctx, params.Refresh)
	if err != nil {
		return ListResult[ExerciseRow]{}, err
	}
	res := runList(deps.Workspace, workspace.Exercises, exercises, params, ExerciseFilterKeys, exerciseMatcher, func(e catalog.Exercise) ExerciseRow {
		return ExerciseRow{Exercise: e, Thumbnail: e.Thumbnail()}
	})
	res.Options = map[string][]string{"muscle_group": catalog.MuscleGroups(exercises)}
	return res, nil
}

// FoodRow is one line of the food list.
type FoodRow struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	CaloriesPer100 float64 `json:"calories_per_100g"`
	ImageURL       string  `json:"image_url,omitempty"`
}

func foodRow(f catalog.Food) FoodRow {
	return FoodRow{
		ID: f.ID, Name: f.Name, Category: string(f.NormalizedCategory()),
		CaloriesPer100: float64(f.CaloriesPer100), ImageURL: f.ImageURL,
	}
}

var foodMatcher = listutil.Matcher[catalog.Food]{
	Search: []func(catalog.Food) string{
		func(f catalog.Food) string { return f.Name },
	},
	Filters: map[string]func(catalog.Food) string{
		"category": func(f catalog.Food) string { return string(f.NormalizedCategory()) },
	},
}

// QueryGetFoodList returns the food catalog, filtered by normalized category.
func QueryGetFoodList(ctx context.Context, params listutil.ListParams, deps ListDeps) (ListResult[FoodRow], error) {
	foods, err := deps.foods(ctx, params.Refresh)
	if err != nil {
		return ListResult[FoodRow]{}, err
	}
	if c := params.Filters["category"]; c != "" && !listutil.IsAll(c) {
		params.Filters["category"] = string(catalog.NormalizeCategory(c))
	}
	res := runList(deps.Workspace, workspace.Foods, foods, params, FoodFilterKeys, foodMatcher, foodRow)
	cats := make([]string, 0, len(catalog.Categories))
	for _, c := range catalog.Categories {
		cats = append(cats, string(c))
	}
	res.Options = map[string][]string{"category": cats}
	return res, nil
}

// PlanRow is one line of the subscription plan table.
type PlanRow struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Price       float64 `json:"price"`
	Duration    string  `json:"duration"`
	Description string  `json:"description"`
	IsActive    bool    `json:"is_active"`
}

var planMatcher = listutil.Matcher[catalog.Plan]{
	Search: []func(catalog.Plan) string{
		func(p catalog.Plan) string { return p.Name },
		func(p catalog.Plan) string { return p.Description },
	},
	Filters: map[string]func(catalog.Plan) string{
		"status": func(p catalog.Plan) string {
			if p.IsActive {
				return "active"
			}
			return "inactive"
		},
	},
}

// QueryGetPlanList returns the subscription plans, filtered by active/inactive.
func QueryGetPlanList(ctx context.Context, params listutil.ListParams, deps ListDeps) (ListResult[PlanRow], error) {
	plans, err := deps.plans(ctx, params.Refresh)
	if err != nil {
		return ListResult[PlanRow]{}, err
	}
	res := runList(deps.Workspace, workspace.Plans, plans, params, PlanFilterKeys, planMatcher, func(p catalog.Plan) PlanRow {
		return PlanRow{
			ID: p.ID, Name: p.Name, DisplayName: p.DisplayName(), Price: float64(p.Price),
			Duration: p.DurationLabel(), Description: p.Description, IsActive: bool(p.IsActive),
		}
	})
	res.Options = map[string][]string{"status": {"active", "inactive"}}
	return res, nil
}

func goalOptions() []string {
	out := make([]string, 0, len(catalog.Goals))
	for _, g := range catalog.Goals {
		out = append(out, string(g))
	}
	return out
}

func tierOptions() []string {
	out := make([]string, 0, len(catalog.Tiers))
	for _, t := range catalog.Tiers {
		out = append(out, string(t))
	}
	return out
}
