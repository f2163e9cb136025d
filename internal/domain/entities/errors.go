package entities

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrProjectProtected  = errors.New("system projects cannot be renamed or deleted")
	ErrSweepInProgress   = errors.New("reminder sweep already in progress")
	ErrSMTPNotConfigured = errors.New("SMTP not configured")
)

// ValidationError reports a malformed or missing request field
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports an unknown id
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// TransportError wraps a mail transport failure
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("smtp %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is, or wraps, a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is, or wraps, a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
