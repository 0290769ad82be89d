package service

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidCredentials is returned by login when the identifier or password is wrong.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// ErrUnauthorized covers every failure to authenticate a bearer or refresh token.
	ErrUnauthorized = errors.New("could not validate credentials")

	// ErrPermissionDenied is returned when an authenticated user touches data it does not own.
	ErrPermissionDenied = errors.New("not enough permissions")

	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a unique attribute is already taken.
	ErrAlreadyExists = errors.New("already exists")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries field-level input errors.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}
