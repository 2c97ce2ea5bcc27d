// Package validation holds the field-level error type shared by the form
// validators of the directory and transaction packages.
package validation

import (
	"errors"
	"strings"
)

const (
	ReasonRequired       = "required"
	ReasonTooLong        = "too_long"
	ReasonInvalidFormat  = "invalid_format"
	ReasonInvalidChoice  = "invalid_choice"
	ReasonNotInHierarchy = "not_in_hierarchy"
	ReasonDuplicate      = "duplicate"
)

// Error is a single rejected field.
type Error struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e Error) Error() string {
	return e.Field + ": " + e.Reason
}

// Errors collects every rejected field of one submission.
type Errors []Error

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}

	return "validation failed: " + strings.Join(parts, ", ")
}

// Add appends a field error.
func (e *Errors) Add(field, reason string) {
	*e = append(*e, Error{Field: field, Reason: reason})
}

// Has reports whether field was rejected.
func (e Errors) Has(field string) bool {
	return e.Reason(field) != ""
}

// Reason returns the first reason recorded for field, or "".
func (e Errors) Reason(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Reason
		}
	}

	return ""
}

// Err returns nil when nothing was rejected.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}

	return e
}

// As extracts Errors from err.
func As(err error) (Errors, bool) {
	var errs Errors
	if errors.As(err, &errs) {
		return errs, true
	}

	return nil, false
}

// Message renders a reason as text shown next to a form field.
func Message(reason string) string {
	switch reason {
	case ReasonRequired:
		return "This field is required."
	case ReasonTooLong:
		return "Ensure this value has at most 100 characters."
	case ReasonInvalidFormat:
		return "Enter a valid value."
	case ReasonInvalidChoice:
		return "Select a valid choice."
	case ReasonNotInHierarchy:
		return "Selected value does not belong to its parent."
	case ReasonDuplicate:
		return "An entry with this name already exists here."
	case "":
		return ""
	}

	return reason
}
