package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("project not found")
	ErrStorageCorrupt    = errors.New("stored project data is malformed")
	ErrInvalidInput      = errors.New("invalid input")
	ErrRequestPending    = fmt.Errorf("%w: a revision request is already in progress", ErrInvalidInput)
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Stage names a client step a caller can be sent back to.
type Stage string

const (
	StageIntake  Stage = "intake"
	StagePreview Stage = "preview"
	StageResults Stage = "results"
	StageHistory Stage = "history"
)

// ValidationError reports rejected intake or request data.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a missing slot or record and where the user should go instead.
type NotFoundError struct {
	What       string
	RedirectTo Stage
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.What)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(what string, redirect Stage) error {
	return &NotFoundError{What: what, RedirectTo: redirect}
}

// RedirectFor extracts the redirect stage from err, if any.
func RedirectFor(err error) (Stage, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) && nf.RedirectTo != "" {
		return nf.RedirectTo, true
	}
	return "", false
}
