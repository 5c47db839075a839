package orchestrators

import (
	"context"
	"testing"

	"trainerdash/internal/adapters/api"
	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/domain/audit"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/feedback"
	"trainerdash/internal/domain/validation"
)

func loadedWorkspace() *workspace.Workspace {
	ws := newTestWorkspace()
	ws.Update(func(s *workspace.State) error {
		for _, c := range workspace.Collections {
			s.MarkLoaded(c, fixedTime)
		}
		return nil
	})
	return ws
}

// TestExecuteSaveFood verifies create and edit both reach the API and refetch only the food list.
func TestExecuteSaveFood(t *testing.T) {
	m := newMockAPI()
	ws := loadedWorkspace()
	store := &mockAuditForOrch{}
	deps := SaveFoodDeps{API: m, Workspace: ws, Audit: store, Now: fixedNow}
	in := catalog.FoodInput{Name: "Avena", Category: "Cereal/Grano", CaloriesPer100: 389}

	res, err := ExecuteSaveFood(context.Background(), testActor(), 0, in, deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.ID != 41 || res.Feedback.Kind != feedback.KindSuccess {
		t.Errorf("result = %+v", res)
	}
	if e := store.last(); e.Action != audit.ActionCreate || e.ResourceID != "41" {
		t.Errorf("audit = %+v", e)
	}
	ws.Update(func(s *workspace.State) error {
		for _, c := range workspace.Collections {
			if got, want := s.Loaded(c), c != workspace.Foods; got != want {
				t.Errorf("Loaded(%s) = %v, want %v", c, got, want)
			}
		}
		return nil
	})

	if _, err := ExecuteSaveFood(context.Background(), testActor(), 41, in, deps); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(m.savedFoods) != 2 || m.savedFoods[1].id != 41 {
		t.Errorf("saved = %+v", m.savedFoods)
	}
	if store.last().Action != audit.ActionUpdate {
		t.Errorf("edit audit action = %s", store.last().Action)
	}
}

// TestExecuteSaveFood_Errors verifies invalid forms stay local and server refusals surface verbatim.
func TestExecuteSaveFood_Errors(t *testing.T) {
	m := newMockAPI()
	deps := SaveFoodDeps{API: m, Workspace: loadedWorkspace(), Audit: &mockAuditForOrch{}, Now: fixedNow}

	res, err := ExecuteSaveFood(context.Background(), testActor(), 0, catalog.FoodInput{Category: "Fruta"}, deps)
	if _, ok := validation.FieldErrors(err); !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if res.Feedback.Title != feedback.ValidationTitle {
		t.Errorf("feedback = %+v", res.Feedback)
	}
	if m.totalCalls() != 0 {
		t.Errorf("invalid form reached the API %d times", m.totalCalls())
	}

	m.catalogErr = &api.ServerError{Status: 422, Message: "Ya existe un alimento con ese nombre."}
	res, err = ExecuteSaveFood(context.Background(), testActor(), 0,
		catalog.FoodInput{Name: "Manzana", Category: "Fruta", CaloriesPer100: 52}, deps)
	if err == nil {
		t.Fatal("expected upstream error")
	}
	if res.Feedback.Message != "Ya existe un alimento con ese nombre." {
		t.Errorf("message = %q", res.Feedback.Message)
	}
	ws := deps.Workspace
	ws.Update(func(s *workspace.State) error {
		if !s.Loaded(workspace.Foods) {
			t.Error("a failed save must not invalidate the food list")
		}
		return nil
	})
}

// TestExecuteSaveExercise verifies trimmed input is sent and the exercise list refetches.
func TestExecuteSaveExercise(t *testing.T) {
	m := newMockAPI()
	ws := loadedWorkspace()
	deps := SaveExerciseDeps{API: m, Workspace: ws, Audit: &mockAuditForOrch{}, Now: fixedNow}

	res, err := ExecuteSaveExercise(context.Background(), testActor(), 11,
		catalog.ExerciseInput{Name: " Press banca ", MuscleGroup: "Pecho", VideoURL: "https://youtu.be/abc"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ID != 11 {
		t.Errorf("id = %d", res.ID)
	}
	if len(m.savedExercises) != 1 || m.savedExercises[0].in.Name != "Press banca" {
		t.Errorf("saved = %+v", m.savedExercises)
	}
	ws.Update(func(s *workspace.State) error {
		if s.Loaded(workspace.Exercises) || !s.Loaded(workspace.Foods) {
			t.Error("only the exercise list should be invalidated")
		}
		return nil
	})

	_, err = ExecuteSaveExercise(context.Background(), testActor(), 0,
		catalog.ExerciseInput{Name: "Remo", MuscleGroup: "Espalda", VideoURL: "not a link"}, deps)
	if fields, ok := validation.FieldErrors(err); !ok || fields["video_url"] == "" {
		t.Errorf("expected video_url error, got %v", err)
	}
	if m.count("save_exercise") != 1 {
		t.Errorf("save_exercise calls = %d", m.count("save_exercise"))
	}
}
