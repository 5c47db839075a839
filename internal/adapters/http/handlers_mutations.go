package web

import (
	"net/http"

	"trainerdash/internal/adapters/api"
	"trainerdash/internal/application/orchestrators"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/feedback"
)

type deleteRequest struct {
	Resource string `json:"resource"`
	ID       int64  `json:"id"`
}

// handleDelete handles POST /api/delete {resource, id}
// PRE: the page asked the operator to confirm
func handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s := scope(r)
	res, err := api.ParseResource(req.Resource)
	if err != nil {
		respondError(w, r, s, feedback.ActionDelete, err)
		return
	}
	fb, err := orchestrators.ExecuteDeleteResource(r.Context(), s.Actor, orchestrators.DeleteResourceInput{
		Resource: res,
		ID:       req.ID,
	}, orchestrators.DeleteResourceDeps{
		API:       s.API,
		Workspace: s.Workspace,
		Audit:     deps.Audit,
		Now:       timeNow,
	})
	if err != nil {
		respondError(w, r, s, feedback.ActionDelete, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": fb})
}

// handleRegisterClient handles POST /api/clients/register
func handleRegisterClient(w http.ResponseWriter, r *http.Request) {
	var reg catalog.Registration
	if !decodeBody(w, r, &reg) {
		return
	}
	s := scope(r)
	fb, err := orchestrators.ExecuteRegisterClient(r.Context(), s.Actor, reg, orchestrators.RegisterClientDeps{
		API:       s.API,
		Workspace: s.Workspace,
		Audit:     deps.Audit,
		Now:       timeNow,
	})
	if err != nil {
		respondError(w, r, s, feedback.ActionRegisterClient, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"feedback": fb})
}

type updatePlanRequest struct {
	ID int64 `json:"id"`
	catalog.PlanUpdate
}

// handleUpdatePlan handles POST /api/plans/update {id, price, description, is_active}
func handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	var req updatePlanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s := scope(r)
	fb, err := orchestrators.ExecuteUpdatePlan(r.Context(), s.Actor, req.ID, req.PlanUpdate, orchestrators.UpdatePlanDeps{
		API:       s.API,
		Workspace: s.Workspace,
		Audit:     deps.Audit,
		Now:       timeNow,
	})
	if err != nil {
		respondError(w, r, s, feedback.ActionUpdatePlan, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"feedback": fb})
}

type saveFoodRequest struct {
	ID int64 `json:"id"`
	catalog.FoodInput
}

// handleSaveFood handles POST /api/foods/save {id?, name, category, calories_per_100g}.
// A missing id creates the food.
func handleSaveFood(w http.ResponseWriter, r *http.Request) {
	var req saveFoodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s := scope(r)
	res, err := orchestrators.ExecuteSaveFood(r.Context(), s.Actor, req.ID, req.FoodInput, orchestrators.SaveFoodDeps{
		API:       s.API,
		Workspace: s.Workspace,
		Audit:     deps.Audit,
		Now:       timeNow,
	})
	if err != nil {
		respondError(w, r, s, feedback.ActionSaveFood, err)
		return
	}
	writeJSON(w, savedStatus(req.ID), res)
}

type saveExerciseRequest struct {
	ID int64 `json:"id"`
	catalog.ExerciseInput
}

// handleSaveExercise handles POST /api/exercises/save {id?, name, muscle_group, video_url, description}.
func handleSaveExercise(w http.ResponseWriter, r *http.Request) {
	var req saveExerciseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s := scope(r)
	res, err := orchestrators.ExecuteSaveExercise(r.Context(), s.Actor, req.ID, req.ExerciseInput, orchestrators.SaveExerciseDeps{
		API:       s.API,
		Workspace: s.Workspace,
		Audit:     deps.Audit,
		Now:       timeNow,
	})
	if err != nil {
		respondError(w, r, s, feedback.ActionSaveExercise, err)
		return
	}
	writeJSON(w, savedStatus(req.ID), res)
}

func savedStatus(id int64) int {
	if id == 0 {
		return http.StatusCreated
	}
	return http.StatusOK
}
