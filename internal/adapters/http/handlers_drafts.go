package web

import (
	"net/http"
	"strings"

	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/application/orchestrators"
	"trainerdash/internal/domain/dietplan"
	"trainerdash/internal/domain/feedback"
	"trainerdash/internal/domain/routine"
)

// --- Diet plan builder ---

// dietDraftResponse wraps the draft so clients can tell it from an error body.
type dietDraftResponse struct {
	Draft dietplan.WeeklyPlan `json:"draft"`
}

// slotRef names one meal slot of the week.
type slotRef struct {
	Day  string `json:"day"`
	Meal string `json:"meal"`
}

func (ref slotRef) parse() (dietplan.Day, dietplan.MealType, error) {
	d, err := dietplan.ParseDay(ref.Day)
	if err != nil {
		return "", "", err
	}
	m, err := dietplan.ParseMealType(ref.Meal)
	if err != nil {
		return "", "", err
	}
	return d, m, nil
}

// editDiet applies fn to the session's diet draft and answers with the new draft.
func editDiet(w http.ResponseWriter, r *http.Request, fn func(dietplan.WeeklyPlan) (dietplan.WeeklyPlan, error)) {
	s := scope(r)
	plan, err := orchestrators.EditDietDraft(s.Workspace, fn)
	if err != nil {
		respondError(w, r, s, feedback.ActionSaveDietPlan, err)
		return
	}
	writeJSON(w, http.StatusOK, dietDraftResponse{Draft: plan})
}

// handleDietDraft handles GET /api/diet-plans/draft
func handleDietDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var plan dietplan.WeeklyPlan
	scope(r).Workspace.Update(func(st *workspace.State) error {
		plan = st.Diet
		return nil
	})
	writeJSON(w, http.StatusOK, dietDraftResponse{Draft: plan})
}

// handleDietDraftMeta handles POST /api/diet-plans/draft/meta {name, goal, description}
func handleDietDraftMeta(w http.ResponseWriter, r *http.Request) {
	var meta dietplan.Metadata
	if !decodeBody(w, r, &meta) {
		return
	}
	editDiet(w, r, func(p dietplan.WeeklyPlan) (dietplan.WeeklyPlan, error) {
		return p.WithMeta(meta), nil
	})
}

type addFoodRequest struct {
	slotRef
	FoodID   int64  `json:"food_id"`
	Quantity string `json:"quantity"`
}

// handleDietDraftAdd handles POST /api/diet-plans/draft/add {day, meal, food_id, quantity}
func handleDietDraftAdd(w http.ResponseWriter, r *http.Request) {
	var req addFoodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s := scope(r)
	d, m, err := req.parse()
	if err == nil {
		var plan dietplan.WeeklyPlan
		plan, err = orchestrators.ExecuteAddFoodEntry(r.Context(), orchestrators.AddFoodEntryInput{
			Day:      d,
			Meal:     m,
			FoodID:   req.FoodID,
			Quantity: req.Quantity,
		}, s.draftDeps())
		if err == nil {
			writeJSON(w, http.StatusOK, dietDraftResponse{Draft: plan})
			return
		}
	}
	respondError(w, r, s, feedback.ActionSaveDietPlan, err)
}

type removeFoodRequest struct {
	slotRef
	Index int `json:"index"`
}

// handleDietDraftRemove handles POST /api/diet-plans/draft/remove {day, meal, index}
func handleDietDraftRemove(w http.ResponseWriter, r *http.Request) {
	var req removeFoodRequest
	if !decodeBody(w, r, &req) {
		return
	}
	editDiet(w, r, func(p dietplan.WeeklyPlan) (dietplan.WeeklyPlan, error) {
		d, m, err := req.parse()
		if err != nil {
			return p, err
		}
		return p.RemoveFoodEntry(d, m, req.Index)
	})
}

type copyDayRequest struct {
	Day     string `json:"day"`
	Confirm bool   `json:"confirm"`
}

// handleDietDraftCopyDay handles POST /api/diet-plans/draft/copy-day {day, confirm}
// POST: without confirm the week is untouched and the answer is 409
func handleDietDraftCopyDay(w http.ResponseWriter, r *http.Request) {
	var req copyDayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	editDiet(w, r, func(p dietplan.WeeklyPlan) (dietplan.WeeklyPlan, error) {
		d, err := dietplan.ParseDay(req.Day)
		if err != nil {
			return p, err
		}
		return p.CopyDayToWeek(d, req.Confirm)
	})
}

type mealTimeRequest struct {
	slotRef
	Time string `json:"time"`
}

// handleDietDraftTime handles POST /api/diet-plans/draft/time {day, meal, time}
func handleDietDraftTime(w http.ResponseWriter, r *http.Request) {
	var req mealTimeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	editDiet(w, r, func(p dietplan.WeeklyPlan) (dietplan.WeeklyPlan, error) {
		d, m, err := req.parse()
		if err != nil {
			return p, err
		}
		return p.SetMealTime(d, m, req.Time)
	})
}

// handleDietDraftSave handles POST /api/diet-plans/draft/save
func handleDietDraftSave(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := scope(r)
	result, err := orchestrators.ExecuteSaveDietPlan(r.Context(), s.Actor, orchestrators.SaveDietPlanDeps{
		API:       s.API,
		Workspace: s.Workspace,
		Audit:     deps.Audit,
		Now:       timeNow,
	})
	if err != nil {
		respondError(w, r, s, feedback.ActionSaveDietPlan, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// handleDietDraftReset handles POST /api/diet-plans/draft/reset
func handleDietDraftReset(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := scope(r)
	plan, err := orchestrators.ResetDietDraft(s.Workspace)
	if err != nil {
		respondError(w, r, s, feedback.ActionSaveDietPlan, err)
		return
	}
	writeJSON(w, http.StatusOK, dietDraftResponse{Draft: plan})
}

// --- Routine builder ---

type routineDraftResponse struct {
	Draft routine.Routine `json:"draft"`
}

func editRoutine(w http.ResponseWriter, r *http.Request, fn func(routine.Routine) (routine.Routine, error)) {
	s := scope(r)
	rt, err := orchestrators.EditRoutineDraft(s.Workspace, fn)
	if err != nil {
		respondError(w, r, s, feedback.ActionSaveRoutine, err)
		return
	}
	writeJSON(w, http.StatusOK, routineDraftResponse{Draft: rt})
}

// handleRoutineDraft handles GET /api/routines/draft
func handleRoutineDraft(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var rt routine.Routine
	scope(r).Workspace.Update(func(st *workspace.State) error {
		rt = st.Routine
		return nil
	})
	writeJSON(w, http.StatusOK, routineDraftResponse{Draft: rt})
}

type routineMetaRequest struct {
	Name              string `json:"name"`
	Level             string `json:"level"`
	EstimatedDuration int    `json:"estimated_duration"`
	Description       string `json:"description"`
}

// handleRoutineDraftMeta handles POST /api/routines/draft/meta
// POST: a level is stored in its canonical form; a blank level is left for save to reject
func handleRoutineDraftMeta(w http.ResponseWriter, r *http.Request) {
	var req routineMetaRequest
	if !decodeBody(w, r, &req) {
		return
	}
	editRoutine(w, r, func(rt routine.Routine) (routine.Routine, error) {
		meta := routine.Metadata{
			Name:              req.Name,
			EstimatedDuration: req.EstimatedDuration,
			Description:       req.Description,
		}
		if strings.TrimSpace(req.Level) != "" {
			level, err := routine.ParseLevel(req.Level)
			if err != nil {
				return rt, err
			}
			meta.Level = level
		}
		return rt.WithMeta(meta), nil
	})
}

type addExerciseRequest struct {
	ExerciseID int64 `json:"exercise_id"`
}

// handleRoutineDraftAdd handles POST /api/routines/draft/add {exercise_id}
func handleRoutineDraftAdd(w http.ResponseWriter, r *http.Request) {
	var req addExerciseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s := scope(r)
	rt, err := orchestrators.ExecuteAddExercise(r.Context(), req.ExerciseID, s.draftDeps())
	if err != nil {
		respondError(w, r, s, feedback.ActionSaveRoutine, err)
		return
	}
	writeJSON(w, http.StatusOK, routineDraftResponse{Draft: rt})
}

type entryRef struct {
	LocalID string `json:"local_id"`
}

// handleRoutineDraftRemove handles POST /api/routines/draft/remove {local_id}
func handleRoutineDraftRemove(w http.ResponseWriter, r *http.Request) {
	var req entryRef
	if !decodeBody(w, r, &req) {
		return
	}
	editRoutine(w, r, func(rt routine.Routine) (routine.Routine, error) {
		return rt.RemoveExercise(req.LocalID), nil
	})
}

type entryFieldRequest struct {
	entryRef
	Field string `json:"field"`
	Value string `json:"value"`
}

// handleRoutineDraftField handles POST /api/routines/draft/field {local_id, field, value}
func handleRoutineDraftField(w http.ResponseWriter, r *http.Request) {
	var req entryFieldRequest
	if !decodeBody(w, r, &req) {
		return
	}
	editRoutine(w, r, func(rt routine.Routine) (routine.Routine, error) {
		return rt.UpdateEntryField(req.LocalID, routine.Field(req.Field), req.Value)
	})
}

type idRequest struct {
	ID int64 `json:"id"`
}

// handleRoutineDraftEdit handles POST /api/routines/draft/edit {id}: loads a stored
// routine into the builder.
func handleRoutineDraftEdit(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s := scope(r)
	rt, err := orchestrators.ExecuteEditRoutine(r.Context(), req.ID, s.draftDeps())
	if err != nil {
		respondError(w, r, s, feedback.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, routineDraftResponse{Draft: rt})
}

// handleRoutineDraftSave handles POST /api/routines/draft/save
func handleRoutineDraftSave(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := scope(r)
	result, err := orchestrators.ExecuteSaveRoutine(r.Context(), s.Actor, orchestrators.SaveRoutineDeps{
		API:       s.API,
		Workspace: s.Workspace,
		Audit:     deps.Audit,
		Now:       timeNow,
	})
	if err != nil {
		respondError(w, r, s, feedback.ActionSaveRoutine, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleRoutineDraftReset handles POST /api/routines/draft/reset
func handleRoutineDraftReset(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	s := scope(r)
	rt, err := orchestrators.ResetRoutineDraft(s.Workspace)
	if err != nil {
		respondError(w, r, s, feedback.ActionSaveRoutine, err)
		return
	}
	writeJSON(w, http.StatusOK, routineDraftResponse{Draft: rt})
}
