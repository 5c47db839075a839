package web

import (
	"net/http"

	"trainerdash/internal/adapters/storage/workspace"
	"trainerdash/internal/application/orchestrators"
	"trainerdash/internal/application/projections"
	"trainerdash/internal/domain/assignment"
	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/feedback"
)

// modalView is the modal as the page draws it: Visible is the searched candidate list.
type modalView struct {
	assignment.Modal
	Visible []catalog.Client `json:"visible"`
}

func viewOf(m assignment.Modal) modalView {
	return modalView{Modal: m, Visible: m.Visible()}
}

// handleModal handles GET /api/assignments/modal
func handleModal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var m assignment.Modal
	scope(r).Workspace.Update(func(st *workspace.State) error {
		m = st.Modal
		return nil
	})
	writeJSON(w, http.StatusOK, viewOf(m))
}

type openModalRequest struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
	Mode string `json:"mode"`
}

// handleModalOpen handles POST /api/assignments/modal/open {kind, id, mode}
// POST: a failed candidate load still answers 200; the modal carries the error
func handleModalOpen(w http.ResponseWriter, r *http.Request) {
	var req openModalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s := scope(r)
	kind, err := assignment.ParseKind(req.Kind)
	if err != nil {
		respondError(w, r, s, feedback.ActionLoad, err)
		return
	}
	mode, err := assignment.ParseMode(req.Mode)
	if err != nil {
		respondError(w, r, s, feedback.ActionLoad, err)
		return
	}
	target, err := projections.QueryGetAssignmentTarget(r.Context(), kind, req.ID, s.listDeps())
	if err != nil {
		respondError(w, r, s, feedback.ActionLoad, err)
		return
	}
	m, err := orchestrators.ExecuteOpenAssignment(r.Context(), orchestrators.OpenAssignmentInput{
		Target: target,
		Mode:   mode,
	}, s.assignmentDeps())
	if err != nil {
		respondError(w, r, s, feedback.ActionLoad, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(m))
}

type searchRequest struct {
	Q string `json:"q"`
}

// handleModalSearch handles POST /api/assignments/modal/search {q}
func handleModalSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, _ := orchestrators.EditAssignment(scope(r).Workspace, func(m *assignment.Modal) error {
		m.SetSearch(req.Q)
		return nil
	})
	writeJSON(w, http.StatusOK, viewOf(m))
}

// handleModalToggle handles POST /api/assignments/modal/toggle {id}
func handleModalToggle(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s := scope(r)
	m, err := orchestrators.EditAssignment(s.Workspace, func(m *assignment.Modal) error {
		return m.Toggle(req.ID)
	})
	if err != nil {
		respondError(w, r, s, m.Target.Action(m.Mode), err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(m))
}

type submitRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	PlanID    int64  `json:"plan_id"`
	Tier      string `json:"tier"`
	Goal      string `json:"goal"`
}

type submitResponse struct {
	Feedback feedback.Feedback `json:"feedback"`
	Modal    modalView         `json:"modal"`
	Notified int               `json:"notified"`
}

// handleModalSubmit handles POST /api/assignments/modal/submit
// POST: exactly one upstream call per accepted submit; validation failures answer 422
func handleModalSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s := scope(r)
	input := orchestrators.SubmitAssignmentInput{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		PlanID:    req.PlanID,
		Tier:      catalog.Tier(req.Tier),
		Goal:      req.Goal,
	}
	result, err := orchestrators.ExecuteSubmitAssignment(r.Context(), s.Actor, input, s.assignmentDeps())
	if err != nil {
		respondError(w, r, s, result.Modal.Target.Action(result.Modal.Mode), err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Feedback: result.Feedback, Modal: viewOf(result.Modal), Notified: result.Notified})
}

// handleModalClose handles POST /api/assignments/modal/close
func handleModalClose(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	orchestrators.CloseAssignment(scope(r).Workspace)
	w.WriteHeader(http.StatusNoContent)
}
