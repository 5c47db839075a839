package assignment

import (
	"errors"
	"strings"
	"time"

	"trainerdash/internal/domain/catalog"
	"trainerdash/internal/domain/feedback"
	"trainerdash/internal/domain/validation"
)

// Kind is the type of plan being assigned.
type Kind string

const (
	KindDietPlan Kind = "diet_plan"
	KindRoutine  Kind = "routine"
)

// Mode selects how recipients are chosen.
type Mode string

const (
	// ModeIndividual sends explicit recipient ids.
	ModeIndividual Mode = "individual"
	// ModeMass sends only filter criteria; the server resolves recipients.
	ModeMass Mode = "mass"
)

// DateLayout is the wire format of assignment dates.
const DateLayout = "2006-01-02"

// DefaultMassDietTier is the tier targeted by mass diet assignments when none is chosen.
const DefaultMassDietTier = catalog.TierPro

// Upstream endpoints, one per kind and mode.
const (
	EndpointDietIndividual    = "/assigned-diets"
	EndpointDietMass          = "/assigned-diets/massive"
	EndpointRoutineIndividual = "/assignments/individual-routine"
	EndpointRoutineMass       = "/assignments/mass-routine"
)

var (
	ErrInvalidKind   = errors.New("kind must be diet_plan or routine")
	ErrInvalidMode   = errors.New("mode must be individual or mass")
	ErrMissingTarget = errors.New("the plan must be saved before it can be assigned")

	// ErrNoRecipients blocks individual submissions before any network call.
	ErrNoRecipients = validation.New("recipient_ids", "select at least one student")
)

// ParseKind validates a kind.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.TrimSpace(raw)) {
	case KindDietPlan:
		return KindDietPlan, nil
	case KindRoutine:
		return KindRoutine, nil
	}
	return "", ErrInvalidKind
}

// ParseMode validates a mode.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.TrimSpace(raw)) {
	case ModeIndividual:
		return ModeIndividual, nil
	case ModeMass:
		return ModeMass, nil
	}
	return "", ErrInvalidMode
}

// Target is the persisted plan or routine being assigned.
type Target struct {
	Kind Kind   `json:"kind"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Goal string `json:"goal"`
}

// Action returns the feedback action for assigning this target in mode m.
func (t Target) Action(m Mode) feedback.Action {
	switch {
	case t.Kind == KindDietPlan && m == ModeMass:
		return feedback.ActionAssignDietMass
	case t.Kind == KindDietPlan:
		return feedback.ActionAssignDietIndividual
	case m == ModeMass:
		return feedback.ActionAssignRoutineMass
	}
	return feedback.ActionAssignRoutineIndividual
}

// Request is the operator's assignment choice. PlanID is the subscription plan a mass
// routine assignment targets, Tier the tier a mass diet assignment targets. Goal optionally
// narrows a mass assignment.
type Request struct {
	Target       Target       `json:"target"`
	Mode         Mode         `json:"mode"`
	StartDate    string       `json:"start_date"`
	EndDate      string       `json:"end_date"`
	RecipientIDs []int64      `json:"recipient_ids"`
	PlanID       int64        `json:"plan_id"`
	Tier         catalog.Tier `json:"tier"`
	Goal         string       `json:"goal"`
}

// Normalize fills defaults: start date today, mass diet tier Pro and goal from the plan.
func (r Request) Normalize(today time.Time) Request {
	if strings.TrimSpace(r.StartDate) == "" {
		r.StartDate = today.Format(DateLayout)
	}
	r.StartDate = strings.TrimSpace(r.StartDate)
	r.EndDate = strings.TrimSpace(r.EndDate)
	if r.Mode == ModeMass && r.Target.Kind == KindDietPlan {
		if r.Tier == "" {
			r.Tier = DefaultMassDietTier
		}
		if r.Goal == "" {
			r.Goal = r.Target.Goal
		}
		if t, err := catalog.ParseTier(string(r.Tier)); err == nil {
			r.Tier = t
		}
	}
	if g, err := catalog.ParseGoal(r.Goal); err == nil {
		r.Goal = string(g)
	}
	return r
}

// Validate checks the request before it is sent.
// PRE: Normalize has been applied
// POST: returns ErrNoRecipients for an individual request with no recipients
func (r Request) Validate() error {
	if _, err := ParseKind(string(r.Target.Kind)); err != nil {
		return err
	}
	if _, err := ParseMode(string(r.Mode)); err != nil {
		return err
	}
	if r.Target.ID <= 0 {
		return ErrMissingTarget
	}
	if r.Mode == ModeIndividual && len(r.RecipientIDs) == 0 {
		return ErrNoRecipients
	}

	var errs validation.Errors
	start, err := time.Parse(DateLayout, r.StartDate)
	if err != nil {
		errs = append(errs, validation.New("start_date", "must be a YYYY-MM-DD date"))
	}
	if r.EndDate != "" {
		end, err := time.Parse(DateLayout, r.EndDate)
		switch {
		case err != nil:
			errs = append(errs, validation.New("end_date", "must be a YYYY-MM-DD date"))
		case !start.IsZero() && end.Before(start):
			errs = append(errs, validation.New("end_date", "must not be before the start date"))
		}
	}
	if r.Mode == ModeIndividual && r.Target.Kind == KindDietPlan && len(r.RecipientIDs) > 1 {
		errs = append(errs, validation.New("recipient_ids", "a diet plan is assigned to one student at a time"))
	}
	if r.Mode == ModeMass && r.Target.Kind == KindRoutine && r.PlanID <= 0 {
		errs = append(errs, validation.New("plan_id", "select a subscription plan"))
	}
	if r.Mode == ModeMass && r.Target.Kind == KindDietPlan {
		if _, err := catalog.ParseTier(string(r.Tier)); err != nil {
			errs = append(errs, validation.New("tier", err.Error()))
		}
	}
	if r.Goal != "" {
		if _, err := catalog.ParseGoal(r.Goal); err != nil {
			errs = append(errs, validation.New("goal", err.Error()))
		}
	}
	return errs.OrNil()
}

// DietIndividualPayload is the body of POST /assigned-diets.
type DietIndividualPayload struct {
	UserID     int64   `json:"user_id"`
	DietPlanID int64   `json:"diet_plan_id"`
	StartDate  string  `json:"start_date"`
	EndDate    *string `json:"end_date"`
}

// DietMassPayload is the body of POST /assigned-diets/massive. It never names recipients.
type DietMassPayload struct {
	DietPlanID     int64   `json:"diet_plan_id"`
	StartDate      string  `json:"start_date"`
	EndDate        *string `json:"end_date"`
	TargetPlanType string  `json:"target_plan_type"`
	Goal           *string `json:"goal"`
}

// RoutineIndividualPayload is the body of POST /assignments/individual-routine.
type RoutineIndividualPayload struct {
	RoutineID    int64   `json:"routine_id"`
	ClientIDs    []int64 `json:"client_ids"`
	AssignedDate string  `json:"assigned_date"`
	EndDate      *string `json:"end_date"`
}

// RoutineMassPayload is the body of POST /assignments/mass-routine.
type RoutineMassPayload struct {
	RoutineID    int64  `json:"routine_id"`
	PlanID       int64  `json:"plan_id"`
	Goal         string `json:"goal"`
	AssignedDate string `json:"assigned_date"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Build validates the request and returns the single upstream call it maps to.
// PRE: Normalize has been applied
// POST: exactly one endpoint and payload, or a validation error with no payload
func (r Request) Build() (endpoint string, payload any, err error) {
	if err := r.Validate(); err != nil {
		return "", nil, err
	}
	switch {
	case r.Target.Kind == KindDietPlan && r.Mode == ModeIndividual:
		return EndpointDietIndividual, DietIndividualPayload{
			UserID:     r.RecipientIDs[0],
			DietPlanID: r.Target.ID,
			StartDate:  r.StartDate,
			EndDate:    optional(r.EndDate),
		}, nil
	case r.Target.Kind == KindDietPlan:
		return EndpointDietMass, DietMassPayload{
			DietPlanID:     r.Target.ID,
			StartDate:      r.StartDate,
			EndDate:        optional(r.EndDate),
			TargetPlanType: string(r.Tier),
			Goal:           optional(r.Goal),
		}, nil
	case r.Mode == ModeIndividual:
		return EndpointRoutineIndividual, RoutineIndividualPayload{
			RoutineID:    r.Target.ID,
			ClientIDs:    append([]int64(nil), r.RecipientIDs...),
			AssignedDate: r.StartDate,
			EndDate:      optional(r.EndDate),
		}, nil
	default:
		return EndpointRoutineMass, RoutineMassPayload{
			RoutineID:    r.Target.ID,
			PlanID:       r.PlanID,
			Goal:         r.Goal,
			AssignedDate: r.StartDate,
		}, nil
	}
}
