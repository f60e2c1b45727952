package forms

import (
	"errors"
	"fmt"
)

// ErrRequired is returned when a required field is empty.
var ErrRequired = errors.New("required")

// RequiredValidator validates that a field is present.
// Presence means a non-empty string; whitespace counts as a value, and a
// number field with an empty string is missing like any other field.
type RequiredValidator struct{}

func (v RequiredValidator) Validate(value string) error {
	if value == "" {
		return ErrRequired
	}
	return nil
}

func (v RequiredValidator) Message() string {
	return "This field is required"
}

// FieldError reports which field failed and why.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Validate checks value against the field. Presence is the only rule.
func (f Field) Validate(value string) error {
	if !f.Required {
		return nil
	}
	v := RequiredValidator{}
	if err := v.Validate(value); err != nil {
		return &FieldError{Field: f.Name, Message: v.Message(), Err: err}
	}
	return nil
}
