package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound covers both missing rows and rows owned by someone else
	ErrNotFound = errors.New("not found")
	// ErrUnknownKind is returned for content kinds outside text/video/image/file
	ErrUnknownKind = errors.New("unknown content kind")
	// ErrPermissionDenied is returned when the principal lacks a capability
	ErrPermissionDenied = errors.New("permission denied")
	// ErrAlreadyEnrolled is returned when a student enrolls twice
	ErrAlreadyEnrolled = errors.New("already enrolled in this course")
	// ErrNotEnrolled is returned when a student views a course they did not join
	ErrNotEnrolled = errors.New("not enrolled in this course")
)

// FormError carries field level validation failures together with the
// submitted values so the caller can redisplay the form.
type FormError struct {
	Fields map[string]string      `json:"fields"`
	Values map[string]interface{} `json:"values,omitempty"`
}

// NewFormError returns an empty FormError holding the submitted values
func NewFormError(values map[string]interface{}) *FormError {
	return &FormError{
		Fields: make(map[string]string),
		Values: values,
	}
}

// Add records a message for field
func (e *FormError) Add(field, message string) {
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed
func (e *FormError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *FormError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "invalid form: " + strings.Join(parts, "; ")
}

// AsFormError unwraps a *FormError from err
func AsFormError(err error) (*FormError, bool) {
	var formErr *FormError
	if errors.As(err, &formErr) {
		return formErr, true
	}
	return nil, false
}
