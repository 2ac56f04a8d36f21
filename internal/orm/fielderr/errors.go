// Package fielderr defines the error vocabulary surfaced by the field
// type system. Hard errors abort an entity operation; soft issues are
// field-scoped and aggregated into a Report without stopping sibling
// fields.
package fielderr

import (
	"errors"
	"fmt"
)

// Kind names an error category as it appears at the API boundary.
type Kind string

const (
	KindFieldTooLong   Kind = "field_too_long"
	KindFieldTooShort  Kind = "field_too_short"
	KindFieldInvalid   Kind = "field_invalid"
	KindForbidden      Kind = "forbidden"
	KindEntityNotFound Kind = "entity_not_found"
)

// ConfigurationError reports invalid type registration: duplicate names,
// registration after sealing, unknown parents, or inheritance cycles.
// It is fatal at startup and never recovered from.
type ConfigurationError struct {
	Message string
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("type configuration: %s", e.Message)
}

// NewConfigurationError creates a ConfigurationError with a formatted message
func NewConfigurationError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// TypeMismatchError reports a coercion failure during adapt or validate.
// It aborts the owning operation and carries expected versus actual type.
type TypeMismatchError struct {
	Field    string
	Expected string
	Actual   string
}

// Error implements the error interface
func (e *TypeMismatchError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
	}
	return fmt.Sprintf("%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// ConstraintError reports a length, format, modulo, or prefix violation.
// User-facing; carries the field key and the violated limit.
type ConstraintError struct {
	Kind    Kind
	Field   string
	Limit   interface{}
	Message string
}

// Error implements the error interface
func (e *ConstraintError) Error() string {
	if e.Limit != nil {
		return fmt.Sprintf("%s: %s (limit %v)", e.Field, e.Message, e.Limit)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TooLong creates a hard field_too_long constraint error
func TooLong(field string, limit int) *ConstraintError {
	return &ConstraintError{
		Kind:    KindFieldTooLong,
		Field:   field,
		Limit:   limit,
		Message: "exceeds maximum length",
	}
}

// TooShort creates a hard field_too_short constraint error
func TooShort(field string, limit int) *ConstraintError {
	return &ConstraintError{
		Kind:    KindFieldTooShort,
		Field:   field,
		Limit:   limit,
		Message: "below minimum length",
	}
}

// Invalid creates a hard field_invalid constraint error
func Invalid(field, message string) *ConstraintError {
	return &ConstraintError{
		Kind:    KindFieldInvalid,
		Field:   field,
		Message: message,
	}
}

// PermissionError reports an access-control denial. The message is
// deliberately minimal so that policy internals do not leak to callers.
type PermissionError struct {
	Field      string
	Permission string
}

// Error implements the error interface
func (e *PermissionError) Error() string {
	if e.Field == "" {
		return "permission denied"
	}
	return fmt.Sprintf("%s: permission denied", e.Field)
}

// ReferentialError reports a dereference of a nonexistent or malformed
// foreign identifier.
type ReferentialError struct {
	Field   string
	Service string
	ID      interface{}
}

// Error implements the error interface
func (e *ReferentialError) Error() string {
	if e.Service != "" {
		return fmt.Sprintf("%s: no %s entity with identifier %v", e.Field, e.Service, e.ID)
	}
	return fmt.Sprintf("%s: no entity with identifier %v", e.Field, e.ID)
}

// KindOf maps a hard error to its boundary kind. Unrecognized errors map
// to field_invalid.
func KindOf(err error) Kind {
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	var pe *PermissionError
	if errors.As(err, &pe) {
		return KindForbidden
	}
	var re *ReferentialError
	if errors.As(err, &re) {
		return KindEntityNotFound
	}
	return KindFieldInvalid
}

// IsPermission returns true if the error is a PermissionError
func IsPermission(err error) bool {
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsConstraint returns true if the error is a ConstraintError
func IsConstraint(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}

// IsTypeMismatch returns true if the error is a TypeMismatchError
func IsTypeMismatch(err error) bool {
	var te *TypeMismatchError
	return errors.As(err, &te)
}

// IsReferential returns true if the error is a ReferentialError
func IsReferential(err error) bool {
	var re *ReferentialError
	return errors.As(err, &re)
}

// IsConfiguration returns true if the error is a ConfigurationError
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
