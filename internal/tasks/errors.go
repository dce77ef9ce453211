package tasks

import (
	"errors"
	"fmt"
)

// ErrEditing is returned when deleting a task whose editor is open.
var ErrEditing = errors.New("task is being edited")

// ErrSaving is returned when saving an editor whose previous save has not
// resolved yet.
var ErrSaving = errors.New("save already in progress")

// ErrUnknownTask is returned for ids that are not in the current collection.
var ErrUnknownTask = errors.New("unknown task")

// ValidationError is a local precondition failure. It never reaches the store.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

// AuthRequiredError is returned when an operation needs an owner and there is none.
type AuthRequiredError struct {
	Op string
}

func (e *AuthRequiredError) Error() string {
	if e.Op == "" {
		return "authentication required"
	}
	return fmt.Sprintf("%s: authentication required", e.Op)
}

// StoreError wraps any failure reported by the store. Callers treat it as
// "the read or write did not happen".
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsAuthRequired reports whether err is an AuthRequiredError.
func IsAuthRequired(err error) bool {
	var ae *AuthRequiredError
	return errors.As(err, &ae)
}

// IsStore reports whether err is a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
