package validation

import (
	"errors"
	"strings"
)

// Error is a field-level validation failure raised before any network call.
type Error struct {
	Field   string
	Message string
}

// New creates a field-level validation error.
func New(field, message string) *Error {
	return &Error{Field: field, Message: message}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Errors collects several field errors from one form.
type Errors []*Error

// Error implements the error interface.
func (es Errors) Error() string {
	parts := make([]string, 0, len(es))
	for _, e := range es {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Fields returns the errors keyed by field name. Later errors for the same field are dropped.
// PRE: none
// POST: returns a non-nil map
func (es Errors) Fields() map[string]string {
	out := make(map[string]string, len(es))
	for _, e := range es {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e.Message
		}
	}
	return out
}

// OrNil returns nil when no errors were collected.
func (es Errors) OrNil() error {
	if len(es) == 0 {
		return nil
	}
	return es
}

// FieldErrors extracts field messages from err if it is a validation failure.
// PRE: none
// POST: ok is false for non-validation errors
func FieldErrors(err error) (map[string]string, bool) {
	var many Errors
	if errors.As(err, &many) {
		return many.Fields(), true
	}
	var one *Error
	if errors.As(err, &one) {
		return map[string]string{one.Field: one.Message}, true
	}
	return nil, false
}
