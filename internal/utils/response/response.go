// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Error responses always look like:
//
//	{ "status": "error", "error": "no student found with id: 42" }
//
// and validation failures add a field → message map:
//
//	{ "status": "error", "error": "validation failed", "fields": { "age": "Age must be between 16 and 40" } }
package response

import (
	"encoding/json"
	"net/http"

	"github.com/aanand-mishra/student-portal/internal/validation"
)

// Response is the standard envelope returned for error cases.
type Response struct {
	Status string            `json:"status"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Status string constants.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes data as JSON with the given HTTP status code.
// Header() → WriteHeader() → body, in that order.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError reports every failing field of a rejected Student.
func ValidationError(errs validation.Errors) Response {
	return Response{
		Status: StatusError,
		Error:  "validation failed",
		Fields: errs,
	}
}
