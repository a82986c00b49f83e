// Package problem defines the application error taxonomy surfaced at the
// gateway boundary as RFC 7807 problem documents.
package problem

import (
	"errors"
	"fmt"
	"net/http"
)

// DefaultType is the problem type URI used when none is declared.
const DefaultType = "about:blank"

// ErrUnauthorized is the access-denial error. Its message is fixed: API
// Gateway authorizers map an error with exactly this text to a 401 response.
var ErrUnauthorized = errors.New("Unauthorized")

// FieldViolation describes a single failed validation constraint.
type FieldViolation struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Problem is a declared application error carrying the RFC 7807 document
// fields. It is safe to return from business logic; the gateway pipeline
// transforms it into a problem+json envelope instead of failing the
// invocation. Zero fields are filled with defaults at serialization time.
type Problem struct {
	Type       string `json:"type"`
	Status     int    `json:"status"`
	Title      string `json:"title"`
	Detail     string `json:"detail"`
	Extensions any    `json:"extensions"`
}

// New returns a Problem with the given status and detail and defaults for
// everything else.
func New(status int, detail string) *Problem {
	return &Problem{Status: status, Detail: detail}
}

// Newf is New with a formatted detail message.
func Newf(status int, format string, args ...any) *Problem {
	return New(status, fmt.Sprintf(format, args...))
}

// Validation returns the 422 Problem reported when request validation fails.
// The violations become the document's extensions and must be non-empty.
func Validation(violations []FieldViolation) *Problem {
	return &Problem{
		Status:     http.StatusUnprocessableEntity,
		Detail:     "Request validation failed",
		Extensions: violations,
	}
}

// Error implements the error interface.
func (p *Problem) Error() string {
	n := p.Normalized()
	return fmt.Sprintf("%d %s: %s", n.Status, n.Title, n.Detail)
}

// Normalized returns a copy with defaults applied: type about:blank, status
// 400, title derived from the status code, detail "General error".
func (p *Problem) Normalized() *Problem {
	n := *p
	if n.Type == "" {
		n.Type = DefaultType
	}
	if n.Status == 0 {
		n.Status = http.StatusBadRequest
	}
	if n.Title == "" {
		n.Title = http.StatusText(n.Status)
	}
	if n.Detail == "" {
		n.Detail = "General error"
	}
	return &n
}

// IsValidation reports whether err is a Problem produced by request
// validation.
func IsValidation(err error) bool {
	var p *Problem
	return errors.As(err, &p) && p.Status == http.StatusUnprocessableEntity
}
