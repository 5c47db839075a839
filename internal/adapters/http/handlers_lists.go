package web

import (
	"context"
	"net/http"
	"strconv"

	"trainerdash/internal/application/listutil"
	"trainerdash/internal/application/projections"
	"trainerdash/internal/domain/feedback"
)

// serveList handles GET on a list endpoint: ?q=, one param per filter key, page, per_page
// and refresh=true to bypass the session cache.
func serveList[R any](w http.ResponseWriter, r *http.Request, keys []string,
	query func(context.Context, listutil.ListParams, projections.ListDeps) (projections.ListResult[R], error)) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s := scope(r)
	params := listutil.ParseListParams(r.URL.Query(), keys)
	result, err := query(r.Context(), params, s.listDeps())
	if err != nil {
		respondError(w, r, s, feedback.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleClients handles GET /api/clients
func handleClients(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, projections.ClientFilterKeys, projections.QueryGetClientList)
}

// handlePlans handles GET /api/plans
func handlePlans(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, projections.PlanFilterKeys, projections.QueryGetPlanList)
}

// handleFoods handles GET /api/foods
func handleFoods(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, projections.FoodFilterKeys, projections.QueryGetFoodList)
}

// handleExercises handles GET /api/exercises
func handleExercises(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, projections.ExerciseFilterKeys, projections.QueryGetExerciseList)
}

// handleRoutines handles GET /api/routines
func handleRoutines(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, projections.RoutineFilterKeys, projections.QueryGetRoutineList)
}

// handleDietPlans handles GET /api/diet-plans
func handleDietPlans(w http.ResponseWriter, r *http.Request) {
	serveList(w, r, projections.DietPlanFilterKeys, projections.QueryGetDietPlanList)
}

// handleFoodPicker handles GET /api/foods/picker?q=: the catalog grouped by category for
// the add-food dialog of the diet builder.
func handleFoodPicker(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s := scope(r)
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	groups, err := projections.QueryGetFoodPicker(r.Context(), projections.GetFoodPickerQuery{
		Search:  r.URL.Query().Get("q"),
		Refresh: refresh,
	}, s.listDeps())
	if err != nil {
		respondError(w, r, s, feedback.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups})
}

// handleSubscriptions handles GET /api/subscriptions?q=: revenue figures and per-plan rows.
// The report is fetched on every request.
func handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s := scope(r)
	view, err := projections.QueryGetSubscriptionSummary(r.Context(), r.URL.Query().Get("q"),
		projections.SubscriptionsDeps{API: s.API})
	if err != nil {
		respondError(w, r, s, feedback.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
