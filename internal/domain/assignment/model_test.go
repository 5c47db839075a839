package assignment_test

import (
	"encoding/json"
	"sort"
	"testing"
	"time"

	"trainerdash/internal/domain/assignment"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/feedback"
)

var today = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func dietTarget() assignment.Target {
	return assignment.Target{Kind: assignment.KindDietPlan, ID: 3, Name: "Cutting Phase", Goal: "Perder Peso"}
}

func routineTarget() assignment.Target {
	return assignment.Target{Kind: assignment.KindRoutine, ID: 9, Name: "Push"}
}

func keysOf(t *testing.T, payload any) []string {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TestBuild_MassDietPayloadKeys verifies the mass diet body carries only criteria.
func TestBuild_MassDietPayloadKeys(t *testing.T) {
	req := assignment.Request{Target: dietTarget(), Mode: assignment.ModeMass}.Normalize(today)
	endpoint, payload, err := req.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if endpoint != assignment.EndpointDietMass {
		t.Errorf("endpoint = %s", endpoint)
	}
	got := keysOf(t, payload)
	want := []string{"diet_plan_id", "end_date", "goal", "start_date", "target_plan_type"}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keys = %v, want %v", got, want)
		}
	}
	p := payload.(assignment.DietMassPayload)
	if p.TargetPlanType != "Pro" || p.StartDate != "2026-03-02" || p.Goal == nil || *p.Goal != "Perder Peso" {
		t.Errorf("payload = %+v", p)
	}
}

// TestBuild_EmptyRecipients verifies individual mode fails before producing a payload.
func TestBuild_EmptyRecipients(t *testing.T) {
	for _, target := range []assignment.Target{dietTarget(), routineTarget()} {
		req := assignment.Request{Target: target, Mode: assignment.ModeIndividual}.Normalize(today)
		endpoint, payload, err := req.Build()
		if err != assignment.ErrNoRecipients || endpoint != "" || payload != nil {
			t.Errorf("%s: got (%q, %v, %v), want ErrNoRecipients", target.Kind, endpoint, payload, err)
		}
	}
}

// TestBuild_Endpoints covers the remaining three combinations.
func TestBuild_Endpoints(t *testing.T) {
	tests := []struct {
		name     string
		req      assignment.Request
		endpoint string
		keys     []string
	}{
		{
			name:     "individual diet",
			req:      assignment.Request{Target: dietTarget(), Mode: assignment.ModeIndividual, RecipientIDs: []int64{5}, EndDate: "2026-04-01"},
			endpoint: assignment.EndpointDietIndividual,
			keys:     []string{"diet_plan_id", "end_date", "start_date", "user_id"},
		},
		{
			name:     "individual routine",
			req:      assignment.Request{Target: routineTarget(), Mode: assignment.ModeIndividual, RecipientIDs: []int64{5, 6}},
			endpoint: assignment.EndpointRoutineIndividual,
			keys:     []string{"assigned_date", "client_ids", "end_date", "routine_id"},
		},
		{
			name:     "mass routine",
			req:      assignment.Request{Target: routineTarget(), Mode: assignment.ModeMass, PlanID: 2},
			endpoint: assignment.EndpointRoutineMass,
			keys:     []string{"assigned_date", "goal", "plan_id", "routine_id"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint, payload, err := tt.req.Normalize(today).Build()
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if endpoint != tt.endpoint {
				t.Errorf("endpoint = %s, want %s", endpoint, tt.endpoint)
			}
			got := keysOf(t, payload)
			if len(got) != len(tt.keys) {
				t.Fatalf("keys = %v, want %v", got, tt.keys)
			}
			for i := range got {
				if got[i] != tt.keys[i] {
					t.Errorf("keys = %v, want %v", got, tt.keys)
				}
			}
		})
	}
}

// TestValidate_Rules covers field-level checks.
func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name    string
		req     assignment.Request
		wantErr bool
	}{
		{"unsaved target", assignment.Request{Target: assignment.Target{Kind: assignment.KindRoutine}, Mode: assignment.ModeMass, PlanID: 1}, true},
		{"end before start", assignment.Request{Target: routineTarget(), Mode: assignment.ModeIndividual, RecipientIDs: []int64{1}, StartDate: "2026-03-10", EndDate: "2026-03-01"}, true},
		{"two diet recipients", assignment.Request{Target: dietTarget(), Mode: assignment.ModeIndividual, RecipientIDs: []int64{1, 2}}, true},
		{"mass routine without plan", assignment.Request{Target: routineTarget(), Mode: assignment.ModeMass}, true},
		{"unknown goal", assignment.Request{Target: routineTarget(), Mode: assignment.ModeMass, PlanID: 1, Goal: "Fly"}, true},
		{"bad mode", assignment.Request{Target: routineTarget(), Mode: "broadcast"}, true},
		{"valid mass routine with goal", assignment.Request{Target: routineTarget(), Mode: assignment.ModeMass, PlanID: 1, Goal: "aumentar fuerza"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Normalize(today).Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestTarget_Action maps kind and mode to feedback actions.
func TestTarget_Action(t *testing.T) {
	if got := dietTarget().Action(assignment.ModeMass); got != feedback.ActionAssignDietMass {
		t.Errorf("diet mass = %s", got)
	}
	if got := routineTarget().Action(assignment.ModeIndividual); got != feedback.ActionAssignRoutineIndividual {
		t.Errorf("routine individual = %s", got)
	}
}

// TestCandidateFilter verifies goal and tier eligibility.
func TestCandidateFilter(t *testing.T) {
	clients := []catalog.Client{
		{ID: 1, Name: "Ana", Goal: "perder peso", PlanType: "Personalizado"},
		{ID: 2, Name: "Luis", Goal: "Aumentar Fuerza", PlanType: "Pro"},
	}
	diet := assignment.CandidateFilter(dietTarget())
	if !diet(clients[0]) || diet(clients[1]) {
		t.Error("diet filter should keep only matching goals")
	}
	routine := assignment.CandidateFilter(routineTarget())
	if !routine(clients[0]) || routine(clients[1]) {
		t.Error("routine filter should keep only Custom tier clients")
	}
}

// TestBuild_MassRoutineGoalVocabulary verifies older routine goal labels are sent as the canonical goal.
func TestBuild_MassRoutineGoalVocabulary(t *testing.T) {
	req := assignment.Request{Target: routineTarget(), Mode: assignment.ModeMass, PlanID: 2, Goal: "Bajar de peso"}.Normalize(today)
	_, payload, err := req.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p := payload.(assignment.RoutineMassPayload); p.Goal != string(catalog.GoalLoseWeight) {
		t.Errorf("goal = %q, want %q", p.Goal, catalog.GoalLoseWeight)
	}

	bad := assignment.Request{Target: routineTarget(), Mode: assignment.ModeMass, PlanID: 2, Goal: "Flexibilidad y Movilidad"}.Normalize(today)
	if _, _, err := bad.Build(); err == nil {
		t.Error("expected a goal outside the enumeration to be rejected")
	}
}
