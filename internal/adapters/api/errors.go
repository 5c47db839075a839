package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"trainerdash/internal/domain/feedback"
)

// NetworkError means the request never got an HTTP response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: no response: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NoResponse implements feedback.NetworkFailure.
func (e *NetworkError) NoResponse() bool { return true }

// ServerError is a 4xx/5xx answer from the API.
type ServerError struct {
	Status      int
	Message     string
	FieldErrors map[string][]string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api status %d", e.Status)
}

// StatusCode implements feedback.ServerFailure.
func (e *ServerError) StatusCode() int { return e.Status }

// ServerMessage implements feedback.ServerFailure.
func (e *ServerError) ServerMessage() string { return e.Message }

// FieldMessages implements feedback.ServerFailure.
func (e *ServerError) FieldMessages() map[string][]string { return e.FieldErrors }

// IsUnauthorized reports whether the API rejected the bearer token.
func (e *ServerError) IsUnauthorized() bool { return e.Status == http.StatusUnauthorized }

var (
	_ feedback.NetworkFailure = (*NetworkError)(nil)
	_ feedback.ServerFailure  = (*ServerError)(nil)
)

// errorBody covers the error shapes the API sends: {message, errors:{field:[..]}} and {error}.
type errorBody struct {
	Message string                     `json:"message"`
	Error   string                     `json:"error"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

// parseServerError builds a ServerError from a non-2xx response body.
// POST: a body that is not JSON leaves Message empty so callers fall back
func parseServerError(status int, body []byte) *ServerError {
	se := &ServerError{Status: status}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return se
	}
	se.Message = strings.TrimSpace(eb.Message)
	if se.Message == "" {
		se.Message = strings.TrimSpace(eb.Error)
	}
	if len(eb.Errors) == 0 {
		return se
	}
	se.FieldErrors = make(map[string][]string, len(eb.Errors))
	for field, raw := range eb.Errors {
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			var one string
			if json.Unmarshal(raw, &one) != nil {
				continue
			}
			list = []string{one}
		}
		se.FieldErrors[field] = list
	}
	return se
}

// fieldNames is used in log lines.
func fieldNames(m map[string][]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
