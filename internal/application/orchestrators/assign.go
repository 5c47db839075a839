package orchestrators

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/domain/assignment"
	"trainerdash/internal/domain/audit"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/feedback"
)

// AssignmentAPI is what the assignment modal needs upstream.
type AssignmentAPI interface {
	CandidateLoader
	Assigner
}

// AssignmentDeps holds dependencies for the assignment orchestrators.
type AssignmentDeps struct {
	API       AssignmentAPI
	Workspace *workspace.Workspace
	Audit     AuditRecorder
	Notify    *NotifyAssignmentDeps
	Now       func() time.Time
}

// OpenAssignmentInput carries input for OpenAssignment.
type OpenAssignmentInput struct {
	Target assignment.Target
	Mode   assignment.Mode
}

// ExecuteOpenAssignment opens the modal and loads what the chosen mode needs:
// goal-matched students for an individual diet, the trainer's students for an individual
// routine, the subscription plans for a mass routine. A mass diet needs nothing.
// PRE: the target is persisted
// POST: the returned modal is Ready, possibly carrying a load error; a stale load is dropped
func ExecuteOpenAssignment(ctx context.Context, input OpenAssignmentInput, deps AssignmentDeps) (assignment.Modal, error) {
	if _, err := assignment.ParseKind(string(input.Target.Kind)); err != nil {
		return assignment.Modal{}, err
	}
	if _, err := assignment.ParseMode(string(input.Mode)); err != nil {
		return assignment.Modal{}, err
	}
	if input.Target.ID <= 0 {
		return assignment.Modal{}, assignment.ErrMissingTarget
	}

	ws := deps.Workspace
	var gen uint64
	ws.Update(func(s *workspace.State) error {
		gen = s.Modal.Open(input.Target, input.Mode)
		return nil
	})

	var (
		candidates []catalog.Client
		plans      []catalog.Plan
		err        error
	)
	switch {
	case input.Mode == assignment.ModeIndividual && input.Target.Kind == assignment.KindDietPlan:
		candidates, err = deps.API.ListUsersByGoal(ctx, input.Target.Goal)
	case input.Mode == assignment.ModeIndividual:
		candidates, err = deps.API.ListMyStudents(ctx)
	case input.Target.Kind == assignment.KindRoutine:
		plans, err = workspace.Load(ctx, ws, workspace.Plans, false, deps.Now(), deps.API.ListPlans,
			func(s *workspace.State) *[]catalog.Plan { return &s.Plans })
	}

	var modal assignment.Modal
	ws.Update(func(s *workspace.State) error {
		var applied bool
		if err != nil {
			applied = s.Modal.LoadFailed(gen, feedback.FromError(feedback.ActionLoad, err))
		} else {
			applied = s.Modal.Loaded(gen, candidates, plans)
		}
		if !applied {
			slog.Debug("assignment_load_stale", "generation", gen, "current", s.Modal.Generation)
		}
		modal = s.Modal
		return nil
	})
	if err != nil {
		slog.Warn("assignment_load_failed", "kind", input.Target.Kind, "mode", input.Mode, "error", err)
	}
	return modal, nil
}

// CloseAssignment dismisses the modal; in-flight loads and submits become stale.
func CloseAssignment(ws *workspace.Workspace) {
	ws.Update(func(s *workspace.State) error {
		s.Modal.Close()
		return nil
	})
}

// EditAssignment applies fn (search or toggle) to the open modal.
func EditAssignment(ws *workspace.Workspace, fn func(*assignment.Modal) error) (assignment.Modal, error) {
	var out assignment.Modal
	err := ws.Update(func(s *workspace.State) error {
		err := fn(&s.Modal)
		out = s.Modal
		return err
	})
	return out, err
}

// SubmitAssignmentInput carries the form fields of the modal.
type SubmitAssignmentInput struct {
	StartDate string
	EndDate   string
	PlanID    int64
	Tier      catalog.Tier
	Goal      string
}

// SubmitAssignmentResult is the outcome of a submit.
type SubmitAssignmentResult struct {
	Feedback feedback.Feedback `json:"feedback"`
	Modal    assignment.Modal  `json:"modal"`
	Notified int               `json:"notified"`
}

// ExecuteSubmitAssignment sends the modal's assignment as exactly one upstream call.
// PRE: the modal is Ready
// POST: an individual submit without recipients fails with no network call
// POST: on success the modal closes; on failure it returns to Ready with the error
// INVARIANT: a modal submits at most once at a time
func ExecuteSubmitAssignment(ctx context.Context, actor Actor, input SubmitAssignmentInput, deps AssignmentDeps) (SubmitAssignmentResult, error) {
	ws := deps.Workspace
	now := deps.Now()

	var (
		req        assignment.Request
		endpoint   string
		payload    any
		gen        uint64
		recipients []catalog.Client
		modal      assignment.Modal
	)
	err := ws.Update(func(s *workspace.State) error {
		m := &s.Modal
		if m.State == assignment.StateSubmitting {
			return assignment.ErrSubmitInProgress
		}
		if m.State != assignment.StateReady {
			return assignment.ErrNotReady
		}
		req = assignment.Request{
			Target:       m.Target,
			Mode:         m.Mode,
			StartDate:    input.StartDate,
			EndDate:      input.EndDate,
			RecipientIDs: slices.Clone(m.Selected),
			PlanID:       input.PlanID,
			Tier:         input.Tier,
			Goal:         input.Goal,
		}.Normalize(now)
		var err error
		endpoint, payload, err = req.Build()
		if err != nil {
			fb := feedback.FromError(req.Target.Action(req.Mode), err)
			m.Error = &fb
			modal = *m
			return err
		}
		for _, c := range m.Candidates {
			if slices.Contains(req.RecipientIDs, c.ID) {
				recipients = append(recipients, c)
			}
		}
		gen, err = m.BeginSubmit()
		return err
	})
	if err != nil {
		return SubmitAssignmentResult{Modal: modal}, err
	}

	action := req.Target.Action(req.Mode)
	event := actor.event(audit.CategoryAssignment, audit.ActionAssign, now).
		WithResource(string(req.Target.Kind), req.Target.ID).
		WithDescription(string(req.Mode) + " " + req.Target.Name)

	callErr := deps.API.Assign(ctx, endpoint, payload)

	var fb feedback.Feedback
	ws.Update(func(s *workspace.State) error {
		if callErr != nil {
			fb = feedback.FromError(action, callErr)
			s.Modal.Failed(gen, fb)
		} else {
			fb = feedback.Success(action, "")
			s.Modal.Succeeded(gen)
		}
		modal = s.Modal
		return nil
	})
	if callErr != nil {
		slog.Warn("assignment_failed", "endpoint", endpoint, "error", callErr)
		recordAudit(ctx, deps.Audit, event.WithFailure(callErr.Error()))
		return SubmitAssignmentResult{Feedback: fb, Modal: modal}, callErr
	}

	slog.Info("assignment_submitted", "endpoint", endpoint, "target_id", req.Target.ID, "recipients", len(req.RecipientIDs))
	recordAudit(ctx, deps.Audit, event)

	result := SubmitAssignmentResult{Feedback: fb, Modal: modal}
	if req.Mode == assignment.ModeIndividual && deps.Notify != nil {
		n, err := ExecuteNotifyAssignment(ctx, NotifyAssignmentInput{
			Target:      req.Target,
			Recipients:  recipients,
			StartDate:   req.StartDate,
			EndDate:     req.EndDate,
			TrainerName: actor.Session.User.Name,
		}, *deps.Notify)
		if err != nil {
			slog.Error("assignment_notify_failed", "error", err, "target_id", req.Target.ID)
		}
		result.Notified = n
	}
	return result, nil
}
