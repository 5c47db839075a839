package catalog

import (
	"strings"
	"time"

	"trainerdash/internal/domain/validation"
)

// RoleClient is the role forced on every account a trainer registers.
const RoleClient = "client"

// MinClientPasswordLength is the upstream minimum for client passwords.
const MinClientPasswordLength = 6

// Registration is the new-student form sent to /auth/register.
type Registration struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Email        string  `json:"email"`
	PhoneNumber  string  `json:"phone_number,omitempty"`
	Password     string  `json:"password"`
	BirthDate    string  `json:"birth_date"`
	Gender       string  `json:"gender"`
	Weight       float64 `json:"weight"`
	Height       float64 `json:"height"`
	PlanID       int64   `json:"plan_id"`
	Goals        string  `json:"goals"`
	Role         string  `json:"role"`
	ProfilePhoto string  `json:"profile_photo"`
}

// Validate checks every required field and collects all failures.
// PRE: none
// POST: returns validation.Errors keyed by form field, or nil
func (r Registration) Validate() error {
	var errs validation.Errors
	required := map[string]string{
		"first_name": r.FirstName,
		"last_name":  r.LastName,
		"email":      r.Email,
		"birth_date": r.BirthDate,
		"gender":     r.Gender,
		"goals":      r.Goals,
	}
	for _, field := range []string{"first_name", "last_name", "email", "birth_date", "gender", "goals"} {
		if strings.TrimSpace(required[field]) == "" {
			errs = append(errs, validation.New(field, "required"))
		}
	}
	if r.Email != "" && !strings.Contains(r.Email, "@") {
		errs = append(errs, validation.New("email", "must contain '@'"))
	}
	if len(r.Password) < MinClientPasswordLength {
		errs = append(errs, validation.New("password", "must be at least 6 characters"))
	}
	if r.BirthDate != "" {
		if _, err := time.Parse("2006-01-02", r.BirthDate); err != nil {
			errs = append(errs, validation.New("birth_date", "must be a YYYY-MM-DD date"))
		}
	}
	if r.Weight <= 0 {
		errs = append(errs, validation.New("weight", "required"))
	}
	if r.Height <= 0 {
		errs = append(errs, validation.New("height", "required"))
	}
	if r.PlanID <= 0 {
		errs = append(errs, validation.New("plan_id", "a subscription plan is required"))
	}
	return errs.OrNil()
}

// Prepared returns the payload with the fixed client role and default photo applied.
func (r Registration) Prepared() Registration {
	r.Role = RoleClient
	if r.ProfilePhoto == "" {
		r.ProfilePhoto = "default.png"
	}
	return r
}
