package feedback

import (
	"errors"
	"sort"
	"strings"

	"trainerdash/internal/domain/validation"
)

// Kind distinguishes success from error notices.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Feedback is the notice shown to the operator after an action.
type Feedback struct {
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Action identifies a user operation for message selection.
type Action string

const (
	ActionLogin                   Action = "login"
	ActionSaveDietPlan            Action = "save_diet_plan"
	ActionSaveRoutine             Action = "save_routine"
	ActionAssignDietIndividual    Action = "assign_diet_individual"
	ActionAssignDietMass          Action = "assign_diet_mass"
	ActionAssignRoutineIndividual Action = "assign_routine_individual"
	ActionAssignRoutineMass       Action = "assign_routine_mass"
	ActionDelete                  Action = "delete"
	ActionRegisterClient          Action = "register_client"
	ActionUpdatePlan              Action = "update_plan"
	ActionSaveFood                Action = "save_food"
	ActionSaveExercise            Action = "save_exercise"
	ActionLoad                    Action = "load"
)

type messages struct {
	successTitle, successMessage string
	errorTitle, fallback         string
}

var actionMessages = map[Action]messages{
	ActionLogin:                   {"Welcome", "Signed in.", "Sign-in failed", "Invalid credentials."},
	ActionSaveDietPlan:            {"Plan created", "The diet plan was saved.", "Save failed", "Could not save the plan."},
	ActionSaveRoutine:             {"Routine saved", "The routine was saved.", "Server error", "An unexpected error occurred."},
	ActionAssignDietIndividual:    {"Plan assigned", "The plan was assigned.", "Assignment failed", "Could not assign the plan."},
	ActionAssignDietMass:          {"Plan published", "The plan was published to all matching students.", "Assignment failed", "Could not assign the plan."},
	ActionAssignRoutineIndividual: {"Assignment complete", "The routine was assigned.", "Assignment failed", "Could not process the assignment."},
	ActionAssignRoutineMass:       {"Routine published", "The routine was published.", "Publish failed", "Could not process the assignment."},
	ActionDelete:                  {"Deleted", "The item was deleted.", "Delete failed", "Could not delete the item."},
	ActionRegisterClient:          {"Student registered", "The student account was created.", "Registration failed", "Could not register the student."},
	ActionUpdatePlan:              {"Plan updated", "The subscription plan was updated.", "Update failed", "Could not update the plan."},
	ActionSaveFood:                {"Food saved", "The food was saved.", "Save failed", "Could not save the food."},
	ActionSaveExercise:            {"Exercise saved", "The exercise was saved.", "Save failed", "Could not save the exercise."},
	ActionLoad:                    {"Loaded", "", "Load failed", "Could not load data."},
}

// Fixed messages for transport and permission failures.
const (
	ConnectivityMessage = "Could not reach the server. Check your connection and try again."
	PermissionMessage   = "You do not have permission to perform this action."
	ValidationTitle     = "Invalid data"
)

// NetworkFailure is implemented by errors meaning no response was received.
type NetworkFailure interface {
	error
	NoResponse() bool
}

// ServerFailure is implemented by errors carrying an HTTP error response.
type ServerFailure interface {
	error
	StatusCode() int
	ServerMessage() string
	FieldMessages() map[string][]string
}

// Success returns the success notice for action, replacing the message when one is given.
func Success(action Action, message string) Feedback {
	m := lookup(action)
	if message == "" {
		message = m.successMessage
	}
	return Feedback{Kind: KindSuccess, Title: m.successTitle, Message: message}
}

// FromError maps a failed action to the notice shown to the operator.
// PRE: err is non-nil
// POST: the server message is used verbatim when present
// POST: without one, a 422 shows its field messages, a 403 the permission message, else the action's fallback
func FromError(action Action, err error) Feedback {
	m := lookup(action)
	fb := Feedback{Kind: KindError, Title: m.errorTitle, Message: m.fallback}

	var nf NetworkFailure
	if errors.As(err, &nf) && nf.NoResponse() {
		fb.Message = ConnectivityMessage
		return fb
	}

	if fields, ok := validation.FieldErrors(err); ok {
		fb.Title = ValidationTitle
		fb.Message = joinFields(fields)
		return fb
	}

	var srv ServerFailure
	if !errors.As(err, &srv) {
		return fb
	}
	if srv.StatusCode() == 422 {
		fb.Title = ValidationTitle
	}
	if msg := srv.ServerMessage(); msg != "" {
		fb.Message = msg
		return fb
	}
	switch srv.StatusCode() {
	case 422:
		if fm := srv.FieldMessages(); len(fm) > 0 {
			fb.Message = joinFieldLists(fm)
		}
	case 403:
		fb.Message = PermissionMessage
	}
	return fb
}

func lookup(action Action) messages {
	if m, ok := actionMessages[action]; ok {
		return m
	}
	return messages{"Done", "", "Error", "An unexpected error occurred."}
}

func joinFields(fields map[string]string) string {
	keys := sortedKeys(fields)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, " ")
}

func joinFieldLists(fields map[string][]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		parts = append(parts, fields[k]...)
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
