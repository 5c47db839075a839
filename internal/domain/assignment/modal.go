package assignment

import (
	"errors"
	"slices"
	"strings"

	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/feedback"
)

// State is the lifecycle stage of an assignment modal.
type State string

const (
	StateClosed     State = "closed"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
)

var (
	ErrSubmitInProgress = errors.New("an assignment is already being submitted")
	ErrNotReady         = errors.New("the assignment form is not ready")
	ErrUnknownRecipient = errors.New("recipient is not among the candidates")
)

// Modal is the assignment dialog of one dashboard session.
// Every Open and Close bumps Generation; results tagged with an older generation are stale
// and ignored.
// INVARIANT: Candidates and Plans belong to the current Generation
type Modal struct {
	State      State              `json:"state"`
	Generation uint64             `json:"generation"`
	Target     Target             `json:"target"`
	Mode       Mode               `json:"mode"`
	Candidates []catalog.Client   `json:"candidates"`
	Plans      []catalog.Plan     `json:"plans"`
	Search     string             `json:"search"`
	Selected   []int64            `json:"selected"`
	Error      *feedback.Feedback `json:"error,omitempty"`
}

// Open starts a fresh load for target in mode, discarding any previous form state.
// POST: State is Loading; returns the generation load results must carry
func (m *Modal) Open(t Target, mode Mode) uint64 {
	m.Generation++
	*m = Modal{State: StateLoading, Generation: m.Generation, Target: t, Mode: mode}
	return m.Generation
}

// Close dismisses the modal. In-flight loads and submits become stale.
func (m *Modal) Close() {
	gen := m.Generation + 1
	*m = Modal{State: StateClosed, Generation: gen}
}

// IsOpen reports whether the modal is showing.
func (m *Modal) IsOpen() bool {
	return m.State != StateClosed && m.State != ""
}

// Loaded delivers the candidates (individual) or plans (mass) fetched for generation gen.
// POST: returns false and changes nothing when gen is stale
func (m *Modal) Loaded(gen uint64, candidates []catalog.Client, plans []catalog.Plan) bool {
	if gen != m.Generation || m.State != StateLoading {
		return false
	}
	eligible := CandidateFilter(m.Target)
	m.Candidates = nil
	for _, c := range candidates {
		if eligible(c) {
			m.Candidates = append(m.Candidates, c)
		}
	}
	m.Plans = catalog.ActivePlans(plans)
	m.State = StateReady
	return true
}

// LoadFailed records a load error for generation gen. The form stays usable.
func (m *Modal) LoadFailed(gen uint64, fb feedback.Feedback) bool {
	if gen != m.Generation || m.State != StateLoading {
		return false
	}
	m.Error = &fb
	m.State = StateReady
	return true
}

// SetSearch narrows the visible candidates. No refetch happens.
func (m *Modal) SetSearch(q string) {
	m.Search = q
}

// Visible returns the candidates matching the search over name and email.
func (m *Modal) Visible() []catalog.Client {
	q := strings.ToLower(strings.TrimSpace(m.Search))
	if q == "" {
		return m.Candidates
	}
	var out []catalog.Client
	for _, c := range m.Candidates {
		if strings.Contains(strings.ToLower(c.FullName()), q) || strings.Contains(strings.ToLower(c.Email), q) {
			out = append(out, c)
		}
	}
	return out
}

// Toggle selects or deselects a candidate. Diet plans take a single recipient, so
// selecting one replaces the previous choice.
func (m *Modal) Toggle(id int64) error {
	if m.State != StateReady {
		return ErrNotReady
	}
	if !slices.ContainsFunc(m.Candidates, func(c catalog.Client) bool { return c.ID == id }) {
		return ErrUnknownRecipient
	}
	if i := slices.Index(m.Selected, id); i >= 0 {
		m.Selected = slices.Delete(slices.Clone(m.Selected), i, i+1)
		return nil
	}
	if m.Target.Kind == KindDietPlan {
		m.Selected = []int64{id}
		return nil
	}
	m.Selected = append(slices.Clone(m.Selected), id)
	return nil
}

// BeginSubmit moves a ready modal to Submitting.
// PRE: State is Ready
// POST: returns ErrSubmitInProgress while a submit is in flight
func (m *Modal) BeginSubmit() (uint64, error) {
	switch m.State {
	case StateSubmitting:
		return 0, ErrSubmitInProgress
	case StateReady:
		m.State = StateSubmitting
		m.Error = nil
		return m.Generation, nil
	}
	return 0, ErrNotReady
}

// Succeeded closes the modal after a successful submit of generation gen.
func (m *Modal) Succeeded(gen uint64) bool {
	if gen != m.Generation || m.State != StateSubmitting {
		return false
	}
	m.Close()
	return true
}

// Failed returns the modal to Ready with the error so the operator can retry.
func (m *Modal) Failed(gen uint64, fb feedback.Feedback) bool {
	if gen != m.Generation || m.State != StateSubmitting {
		return false
	}
	m.Error = &fb
	m.State = StateReady
	return true
}

// CandidateFilter returns the local eligibility rule for individual recipients:
// diet plans go to clients with the plan's goal, routines to Custom-tier clients.
func CandidateFilter(t Target) func(catalog.Client) bool {
	switch t.Kind {
	case KindDietPlan:
		g, err := catalog.ParseGoal(t.Goal)
		if err != nil {
			return func(catalog.Client) bool { return true }
		}
		return func(c catalog.Client) bool { return c.HasGoal(g) }
	case KindRoutine:
		return func(c catalog.Client) bool { return c.InTier(catalog.TierCustom) }
	}
	return func(catalog.Client) bool { return false }
}
