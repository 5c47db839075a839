package catalog

import (
	"errors"
	"fmt"
	"strings"

	"trainerdash/internal/domain/validation"
)

// Plan is a subscription plan (tier offering) as returned by /plans.
type Plan struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Price        Number `json:"price"`
	DurationDays int    `json:"duration_days"`
	Description  string `json:"description,omitempty"`
	IsActive     Flag   `json:"is_active"`
}

// ErrInvalidPrice is returned when a plan price is negative.
var ErrInvalidPrice = errors.New("price must not be negative")

// Period returns the billing period name derived from the plan duration.
// PRE: none
// POST: returns Monthly/Quarterly/Biannual/Annual or "<n> days"
func (p Plan) Period() string {
	d := p.DurationDays
	switch {
	case d <= 31:
		return "Monthly"
	case d <= 95:
		return "Quarterly"
	case d <= 190:
		return "Biannual"
	case d >= 360:
		return "Annual"
	}
	return fmt.Sprintf("%d days", d)
}

// DisplayName returns "Plan <name> - <period>" without repeating the word "plan".
func (p Plan) DisplayName() string {
	base := p.Name
	if !strings.Contains(strings.ToLower(p.Name), "plan") {
		base = "Plan " + p.Name
	}
	return base + " - " + p.Period()
}

// DurationLabel returns the short duration label used on the plans table.
func (p Plan) DurationLabel() string {
	switch p.DurationDays {
	case 30:
		return "Monthly"
	case 90:
		return "Quarterly"
	case 365:
		return "Annual"
	}
	return fmt.Sprintf("%d days", p.DurationDays)
}

// ActivePlans returns the plans flagged active, preserving order.
func ActivePlans(plans []Plan) []Plan {
	var out []Plan
	for _, p := range plans {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out
}

// PlaceholderPlanDescription is the text new plans are seeded with upstream.
const PlaceholderPlanDescription = "Coloque aquí los beneficios de este plan..."

// PlanUpdate carries the editable fields of a subscription plan.
type PlanUpdate struct {
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	IsActive    bool    `json:"is_active"`
}

// Validate checks the update before it is sent.
// PRE: none
// POST: returns ErrInvalidPrice for negative prices
// POST: returns a description field error when it is blank or still the placeholder
func (u PlanUpdate) Validate() error {
	if u.Price < 0 {
		return ErrInvalidPrice
	}
	if d := strings.TrimSpace(u.Description); d == "" || d == PlaceholderPlanDescription {
		return validation.New("description", "write a description of the plan's benefits")
	}
	return nil
}
