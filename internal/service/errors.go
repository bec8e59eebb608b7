package service

import (
	"errors"
	"sort"
	"strings"

	"pto-tracker/internal/repository"
)

var (
	// ErrNotFound is returned when the requested entry or user does not exist.
	ErrNotFound = errors.New("service: not found")
	// ErrForbidden is returned when the actor neither owns the entry nor is staff.
	ErrForbidden = errors.New("service: insufficient access")
	// ErrInvalidCredentials is returned by Login for a bad username or password.
	ErrInvalidCredentials = errors.New("service: invalid username or password")
)

// ValidationError collects user visible problems with a submission.
// Messages not tied to one field go under NonField.
type ValidationError struct {
	FieldErrors map[string]string
	NonField    []string
}

func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	msgs := append([]string(nil), v.NonField...)
	fields := make([]string, 0, len(v.FieldErrors))
	for f := range v.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		msgs = append(msgs, f+": "+v.FieldErrors[f])
	}
	if len(msgs) == 0 {
		return "validation failed"
	}
	return strings.Join(msgs, "; ")
}

// HasErrors reports whether anything was recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && (len(v.FieldErrors) > 0 || len(v.NonField) > 0)
}

func (v *ValidationError) add(field, message string) {
	if field == "" {
		v.NonField = append(v.NonField, message)
		return
	}
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

func (v *ValidationError) merge(other *ValidationError) {
	if other == nil {
		return
	}
	for f, msg := range other.FieldErrors {
		v.add(f, msg)
	}
	v.NonField = append(v.NonField, other.NonField...)
}

// orNil turns an empty ValidationError into a nil error.
func (v *ValidationError) orNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}

func newValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

func translate(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
