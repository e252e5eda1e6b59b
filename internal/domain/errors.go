// Package domain contains the core business entities and rules.
// These types have no knowledge of databases, HTTP, or any infrastructure concerns.
package domain

import (
	"errors"
	"fmt"
)

// Errors for common domain-level failures.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrNotReady     = errors.New("record is still loading")
)

// ValidationError represents one validation failure.
// Message holds a message key, not rendered text.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// Is lets callers match any validation failure with errors.Is(err, ErrInvalidInput).
func (e ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("%d validation errors", len(e))
}

func (e ValidationErrors) Is(target error) bool {
	return target == ErrInvalidInput
}

// Fields returns the failures keyed by field.
func (e ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(e))
	for _, ve := range e {
		out[ve.Field] = ve.Message
	}
	return out
}
