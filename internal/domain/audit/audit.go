package audit

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Category groups audit events by the resource family they touch.
type Category string

const (
	CategoryAuth       Category = "auth"
	CategoryDietPlan   Category = "diet_plan"
	CategoryRoutine    Category = "routine"
	CategoryAssignment Category = "assignment"
	CategoryCatalog    Category = "catalog"
	CategoryClient     Category = "client"
	CategoryPlan       Category = "plan"
)

// Action is what the operator did.
type Action string

const (
	ActionLogin  Action = "login"
	ActionLogout Action = "logout"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionAssign Action = "assign"
)

// Outcome records whether the upstream call succeeded.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

var ErrMissingActor = errors.New("audit event requires an actor")

// Event is one entry of the dashboard's local audit trail. The upstream API stays the
// system of record; this trail records what was attempted from the dashboard.
type Event struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Category     Category  `json:"category"`
	Action       Action    `json:"action"`
	Outcome      Outcome   `json:"outcome"`
	ActorID      string    `json:"actor_id"`
	ActorEmail   string    `json:"actor_email"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Description  string    `json:"description"`
	IPAddress    string    `json:"ip_address"`
}

// NewEvent starts an event for actor at now.
// PRE: actorEmail is non-empty
// POST: ID is a fresh uuid and Outcome defaults to success
func NewEvent(actorID int64, actorEmail string, category Category, action Action, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Timestamp:  now,
		Category:   category,
		Action:     action,
		Outcome:    OutcomeSuccess,
		ActorID:    strconv.FormatInt(actorID, 10),
		ActorEmail: actorEmail,
	}
}

// WithResource names the upstream resource the event concerns.
func (e Event) WithResource(resourceType string, id int64) Event {
	e.ResourceType = resourceType
	if id > 0 {
		e.ResourceID = strconv.FormatInt(id, 10)
	}
	return e
}

// WithDescription sets the human-readable summary.
func (e Event) WithDescription(desc string) Event {
	e.Description = desc
	return e
}

// WithFailure marks the event as failed and appends the reason.
func (e Event) WithFailure(reason string) Event {
	e.Outcome = OutcomeFailure
	if reason != "" {
		if e.Description != "" {
			e.Description += ": "
		}
		e.Description += reason
	}
	return e
}

// WithIP sets the client address.
func (e Event) WithIP(ip string) Event {
	e.IPAddress = ip
	return e
}

// Validate checks the event before it is stored.
func (e Event) Validate() error {
	if e.ActorEmail == "" {
		return ErrMissingActor
	}
	return nil
}
