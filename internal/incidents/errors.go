package incidents

import (
	"errors"
	"strings"

	"github.com/bissquit/incident-tracker/internal/pkg/httputil"
)

// Repository errors.
var (
	ErrIncidentNotFound    = errors.New("incident not found")
	ErrConstraintViolation = errors.New("incident violates a storage constraint")
)

// Validation errors.
var (
	ErrEmptyUpdate = errors.New("at least one field must be provided for update")
	ErrInvalidJSON = errors.New("invalid json")
)

// ValidationError reports one or more invalid request fields.
type ValidationError struct {
	Fields []httputil.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation error"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// FieldErrors returns the per-field details.
func (e *ValidationError) FieldErrors() []httputil.FieldError {
	return e.Fields
}

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, httputil.FieldError{Field: field, Message: message})
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}
