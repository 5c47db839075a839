package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"trainerdash/internal/adapters/email"
	"trainerdash/internal/domain/assignment"
	"trainerdash/internal/domain/audit"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/feedback"
)

var (
	dietTarget    = assignment.Target{Kind: assignment.KindDietPlan, ID: 5, Name: "Cutting Phase", Goal: "Perder Peso"}
	routineTarget = assignment.Target{Kind: assignment.KindRoutine, ID: 8, Name: "Full body"}

	lucia = catalog.Client{ID: 1, Name: "Lucía Gómez", Email: "lucia@example.com", Goal: "Perder Peso", PlanType: "Personalizado"}
	luis  = catalog.Client{ID: 2, Name: "Luis Pérez", Email: "luis@example.com", Goal: "Aumentar Fuerza", PlanType: "Pro"}
	marta = catalog.Client{ID: 3, Name: "Marta Ruiz", Email: "", Goal: "Perder Peso", PlanType: "Personalizado"}
)

func assignDeps(m *mockAPIForOrch) AssignmentDeps {
	return AssignmentDeps{API: m, Workspace: newTestWorkspace(), Audit: &mockAuditForOrch{}, Now: fixedNow}
}

// TestExecuteOpenAssignment verifies what each kind and mode loads.
func TestExecuteOpenAssignment(t *testing.T) {
	tests := []struct {
		name           string
		target         assignment.Target
		mode           assignment.Mode
		wantCall       string
		wantCandidates []int64
		wantPlans      int
	}{
		{
			name: "individual diet loads goal-matched students", target: dietTarget, mode: assignment.ModeIndividual,
			wantCall: "users_by_goal:Perder Peso", wantCandidates: []int64{1, 3},
		},
		{
			name: "individual routine loads custom-tier students", target: routineTarget, mode: assignment.ModeIndividual,
			wantCall: "my_students", wantCandidates: []int64{1, 3},
		},
		{
			name: "mass routine loads active plans", target: routineTarget, mode: assignment.ModeMass,
			wantCall: "plans", wantPlans: 1,
		},
		{
			name: "mass diet loads nothing", target: dietTarget, mode: assignment.ModeMass,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockAPI()
			m.byGoal = []catalog.Client{lucia, luis, marta}
			m.students = []catalog.Client{lucia, luis, marta}
			m.plans = []catalog.Plan{{ID: 1, Name: "Pro", IsActive: true}, {ID: 2, Name: "Old", IsActive: false}}

			modal, err := ExecuteOpenAssignment(context.Background(), OpenAssignmentInput{Target: tt.target, Mode: tt.mode}, assignDeps(m))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if modal.State != assignment.StateReady {
				t.Errorf("state = %s, want ready", modal.State)
			}
			if tt.wantCall == "" && m.totalCalls() != 0 {
				t.Errorf("expected no upstream call, got %v", m.calls)
			}
			if tt.wantCall != "" && m.count(tt.wantCall) != 1 {
				t.Errorf("calls = %v, want one %q", m.calls, tt.wantCall)
			}
			var ids []int64
			for _, c := range modal.Candidates {
				ids = append(ids, c.ID)
			}
			if len(ids) != len(tt.wantCandidates) {
				t.Fatalf("candidates = %v, want %v", ids, tt.wantCandidates)
			}
			for i := range ids {
				if ids[i] != tt.wantCandidates[i] {
					t.Errorf("candidates = %v, want %v", ids, tt.wantCandidates)
				}
			}
			if len(modal.Plans) != tt.wantPlans {
				t.Errorf("plans = %d, want %d", len(modal.Plans), tt.wantPlans)
			}
		})
	}
}

// TestExecuteOpenAssignment_LoadFailure verifies the modal stays usable with the error attached.
func TestExecuteOpenAssignment_LoadFailure(t *testing.T) {
	m := newMockAPI()
	m.listErr = errUpstream
	modal, err := ExecuteOpenAssignment(context.Background(), OpenAssignmentInput{Target: routineTarget, Mode: assignment.ModeIndividual}, assignDeps(m))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if modal.State != assignment.StateReady || modal.Error == nil || modal.Error.Kind != feedback.KindError {
		t.Errorf("modal = %+v, want ready with error", modal)
	}
}

// TestExecuteOpenAssignment_StaleLoadDropped verifies a load finishing after close is ignored.
func TestExecuteOpenAssignment_StaleLoadDropped(t *testing.T) {
	m := newMockAPI()
	m.students = []catalog.Client{lucia}
	deps := assignDeps(m)
	m.onList = func() { CloseAssignment(deps.Workspace) }

	modal, err := ExecuteOpenAssignment(context.Background(), OpenAssignmentInput{Target: routineTarget, Mode: assignment.ModeIndividual}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if modal.IsOpen() || len(modal.Candidates) != 0 {
		t.Errorf("modal = %+v, want closed and empty", modal)
	}
}

// TestExecuteOpenAssignment_UnsavedTarget verifies a target without an id is refused.
func TestExecuteOpenAssignment_UnsavedTarget(t *testing.T) {
	m := newMockAPI()
	_, err := ExecuteOpenAssignment(context.Background(), OpenAssignmentInput{Target: assignment.Target{Kind: assignment.KindRoutine}, Mode: assignment.ModeMass}, assignDeps(m))
	if !errors.Is(err, assignment.ErrMissingTarget) {
		t.Errorf("err = %v, want ErrMissingTarget", err)
	}
}

func openReady(t *testing.T, m *mockAPIForOrch, deps AssignmentDeps, target assignment.Target, mode assignment.Mode) {
	t.Helper()
	if _, err := ExecuteOpenAssignment(context.Background(), OpenAssignmentInput{Target: target, Mode: mode}, deps); err != nil {
		t.Fatalf("open: %v", err)
	}
}

// TestExecuteSubmitAssignment_NoRecipients verifies an empty selection never reaches the network.
func TestExecuteSubmitAssignment_NoRecipients(t *testing.T) {
	m := newMockAPI()
	m.students = []catalog.Client{lucia}
	deps := assignDeps(m)
	openReady(t, m, deps, routineTarget, assignment.ModeIndividual)

	res, err := ExecuteSubmitAssignment(context.Background(), testActor(), SubmitAssignmentInput{}, deps)
	if !errors.Is(err, assignment.ErrNoRecipients) {
		t.Fatalf("err = %v, want ErrNoRecipients", err)
	}
	if m.count("assign") != 0 {
		t.Error("expected no assignment call")
	}
	if res.Modal.State != assignment.StateReady || res.Modal.Error == nil {
		t.Errorf("modal = %+v, want ready with error", res.Modal)
	}
}

// TestExecuteSubmitAssignment_IndividualRoutine verifies one call, a closed modal and notifications.
func TestExecuteSubmitAssignment_IndividualRoutine(t *testing.T) {
	m := newMockAPI()
	m.students = []catalog.Client{lucia, marta}
	deps := assignDeps(m)
	sender := email.NewNoopSender()
	deps.Notify = &NotifyAssignmentDeps{Sender: sender, ReplyTo: "coach@example.com"}
	openReady(t, m, deps, routineTarget, assignment.ModeIndividual)
	for _, id := range []int64{1, 3} {
		if _, err := EditAssignment(deps.Workspace, func(m *assignment.Modal) error { return m.Toggle(id) }); err != nil {
			t.Fatalf("toggle %d: %v", id, err)
		}
	}

	res, err := ExecuteSubmitAssignment(context.Background(), testActor(), SubmitAssignmentInput{StartDate: "2026-03-02"}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.assigned) != 1 || m.assigned[0].endpoint != assignment.EndpointRoutineIndividual {
		t.Fatalf("assigned = %+v", m.assigned)
	}
	payload := m.assigned[0].payload.(assignment.RoutineIndividualPayload)
	if len(payload.ClientIDs) != 2 || payload.AssignedDate != "2026-03-02" {
		t.Errorf("payload = %+v", payload)
	}
	if res.Modal.IsOpen() {
		t.Error("expected modal to close on success")
	}
	if res.Feedback.Kind != feedback.KindSuccess {
		t.Errorf("feedback = %+v", res.Feedback)
	}
	if res.Notified != 1 || len(sender.Sent()) != 1 || sender.Sent()[0].To[0] != "lucia@example.com" {
		t.Errorf("notified = %d, sent = %+v", res.Notified, sender.Sent())
	}
	if trail := deps.Audit.(*mockAuditForOrch); trail.last().Action != audit.ActionAssign {
		t.Errorf("audit = %+v", trail.last())
	}
}

// TestExecuteSubmitAssignment_MassDiet verifies defaults and the payload shape.
func TestExecuteSubmitAssignment_MassDiet(t *testing.T) {
	m := newMockAPI()
	deps := assignDeps(m)
	openReady(t, m, deps, dietTarget, assignment.ModeMass)

	if _, err := ExecuteSubmitAssignment(context.Background(), testActor(), SubmitAssignmentInput{}, deps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.assigned) != 1 || m.assigned[0].endpoint != assignment.EndpointDietMass {
		t.Fatalf("assigned = %+v", m.assigned)
	}
	p := m.assigned[0].payload.(assignment.DietMassPayload)
	if p.StartDate != "2026-03-01" || p.TargetPlanType != string(catalog.TierPro) || p.Goal == nil || *p.Goal != "Perder Peso" || p.EndDate != nil {
		t.Errorf("payload = %+v", p)
	}
}

// TestExecuteSubmitAssignment_Failure verifies the modal returns to ready with the server message.
func TestExecuteSubmitAssignment_Failure(t *testing.T) {
	m := newMockAPI()
	m.plans = []catalog.Plan{{ID: 1, Name: "Pro", IsActive: true}}
	deps := assignDeps(m)
	openReady(t, m, deps, routineTarget, assignment.ModeMass)
	m.assignErr = errUpstream

	res, err := ExecuteSubmitAssignment(context.Background(), testActor(), SubmitAssignmentInput{PlanID: 1}, deps)
	if !errors.Is(err, errUpstream) {
		t.Fatalf("err = %v, want upstream error", err)
	}
	if res.Modal.State != assignment.StateReady || res.Modal.Error == nil {
		t.Errorf("modal = %+v, want ready with error", res.Modal)
	}
	if !strings.Contains(res.Feedback.Message, "Could not") {
		t.Errorf("feedback = %+v, want fallback message", res.Feedback)
	}

	m.assignErr = nil
	if _, err := ExecuteSubmitAssignment(context.Background(), testActor(), SubmitAssignmentInput{PlanID: 1}, deps); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

// TestExecuteSubmitAssignment_NotOpen verifies a closed modal cannot submit.
func TestExecuteSubmitAssignment_NotOpen(t *testing.T) {
	m := newMockAPI()
	_, err := ExecuteSubmitAssignment(context.Background(), testActor(), SubmitAssignmentInput{}, assignDeps(m))
	if !errors.Is(err, assignment.ErrNotReady) {
		t.Errorf("err = %v, want ErrNotReady", err)
	}
}
