// Package problems renders RFC 7807 problem-details responses.
package problems

import (
	"encoding/json"
	"net/http"
)

const (
	TypeValidation   = "https://meridianiot.dev/problems/validation-error"
	TypeNotFound     = "https://meridianiot.dev/problems/not-found"
	TypeConflict     = "https://meridianiot.dev/problems/conflict"
	TypePrecondition = "https://meridianiot.dev/problems/precondition-failed"
	TypeInternal     = "https://meridianiot.dev/problems/internal-error"
)

// ProblemDetails is the error payload returned by every API endpoint.
type ProblemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// New builds a problem for the given status.
func New(problemType, title string, status int, detail string) ProblemDetails {
	return ProblemDetails{Type: problemType, Title: title, Status: status, Detail: detail}
}

// Write serializes the problem with the application/problem+json media type.
func Write(w http.ResponseWriter, p ProblemDetails) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}
