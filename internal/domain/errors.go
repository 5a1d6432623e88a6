package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned by stores when no row matched the given id
var ErrNotFound = errors.New("not found")

// BackendError wraps any failure coming out of the data backend
// (transport, auth, constraint or missing row). It is not further classified.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s failed: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsBackendError reports whether err carries a BackendError
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

// Violations maps a form field to a violation code
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Required records a violation when value is blank
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// ValidationError is returned when a form fails validation
type ValidationError struct {
	Violations Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f := range e.Violations {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e.Violations[f])
	}
	return "invalid form: " + strings.Join(parts, ", ")
}

// ErrDuplicate matches any DuplicateError
var ErrDuplicate = errors.New("duplicate")

// DuplicateError is returned by user stores when a unique column collides
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return e.Field + " already exists"
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicate
}
