package catalog

import (
	"errors"
	"strings"
)

// Goal is a client's training/nutrition objective. Values are the labels the API stores.
type Goal string

const (
	GoalLoseWeight  Goal = "Perder Peso"
	GoalGainMuscle  Goal = "Ganar Masa Muscular"
	GoalStrength    Goal = "Aumentar Fuerza"
	GoalEndurance   Goal = "Resistencia / Cardio"
	GoalMaintenance Goal = "Mantenimiento/Salud General"
)

// DefaultGoal preselects the goal of a new plan.
const DefaultGoal = GoalLoseWeight

// Goals lists the goal enumeration in picker order.
var Goals = []Goal{GoalLoseWeight, GoalGainMuscle, GoalStrength, GoalEndurance, GoalMaintenance}

// ErrInvalidGoal is returned for goals outside the enumeration.
var ErrInvalidGoal = errors.New("goal must be one of the supported goals")

// goalAliases maps the labels of the older routine picker onto the enumeration.
var goalAliases = map[string]Goal{
	"bajar de peso":              GoalLoseWeight,
	"ganar masa muscular":        GoalGainMuscle,
	"mejorar resistencia cardio": GoalEndurance,
	"aumentar fuerza":            GoalStrength,
	"mantenimiento físico":       GoalMaintenance,
}

// ParseGoal matches raw case-insensitively against the enumeration and its aliases.
// PRE: none
// POST: returns ErrInvalidGoal if raw is not a known goal
func ParseGoal(raw string) (Goal, error) {
	raw = strings.TrimSpace(raw)
	for _, g := range Goals {
		if strings.EqualFold(string(g), raw) {
			return g, nil
		}
	}
	if g, ok := goalAliases[strings.ToLower(raw)]; ok {
		return g, nil
	}
	return "", ErrInvalidGoal
}

// Tier is the subscription plan level a client is enrolled in.
type Tier string

const (
	TierBasic  Tier = "Básico"
	TierPro    Tier = "Pro"
	TierCustom Tier = "Personalizado"
)

// Tiers lists the known tiers.
var Tiers = []Tier{TierBasic, TierPro, TierCustom}

// ErrInvalidTier is returned for tiers outside the enumeration.
var ErrInvalidTier = errors.New("tier must be one of: Básico, Pro, Personalizado")

// ParseTier accepts the stored label or its English name (basic, pro, custom).
// PRE: none
// POST: returns ErrInvalidTier for unknown values
func ParseTier(raw string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "básico", "basico", "basic":
		return TierBasic, nil
	case "pro":
		return TierPro, nil
	case "personalizado", "custom":
		return TierCustom, nil
	}
	return "", ErrInvalidTier
}

// Client status labels as stored upstream.
const (
	StatusActive   = "Activo"
	StatusInactive = "Inactivo"
)

// Client is a student as returned by /users and /trainer/my-students.
// /users sends first_name/last_name instead of name.
type Client struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email"`
	Goal      string `json:"goal"`
	PlanType  string `json:"plan_type"`
	Status    string `json:"status"`
	IsPremium Flag   `json:"is_premium"`
}

// FullName returns the display name whichever shape the client arrived in.
func (c Client) FullName() string {
	if c.Name != "" {
		return c.Name
	}
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// HasGoal reports whether the client's goal matches g, ignoring case.
func (c Client) HasGoal(g Goal) bool {
	return strings.EqualFold(strings.TrimSpace(c.Goal), string(g))
}

// InTier reports whether the client is enrolled in tier t.
func (c Client) InTier(t Tier) bool {
	got, err := ParseTier(c.PlanType)
	return err == nil && got == t
}

// IsActive reports whether the client's status is active.
func (c Client) IsActive() bool {
	return strings.EqualFold(c.Status, StatusActive)
}
