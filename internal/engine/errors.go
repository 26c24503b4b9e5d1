package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/cadence/internal/task"
)

// Error represents a rejected mutation or failed lookup.
//
// All checks happen synchronously before any state is written, so an
// Error always means "nothing changed". Within a materialization batch, a
// per-occurrence slot conflict is NOT an Error - it is the expected
// already-exists signal and is silently skipped; only storage failures
// propagate.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// InstanceID identifies the affected instance, when known.
	InstanceID string

	// TemplateID identifies the affected template, when known.
	TemplateID string

	// Date is the contested or missing calendar day, when relevant.
	Date task.Date
}

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeDateConflict indicates a reschedule target slot already holds
	// an instance for the same template.
	ErrCodeDateConflict ErrorCode = "DATE_CONFLICT"

	// ErrCodeNotFound indicates an unknown instance or template id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeInvalidTransition indicates a status change the lifecycle
	// state machine forbids.
	ErrCodeInvalidTransition ErrorCode = "INVALID_STATE_TRANSITION"
)

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.InstanceID != "" && !e.Date.IsZero():
		return fmt.Sprintf("%s: %s (instance=%s, date=%s)", e.Code, e.Message, e.InstanceID, e.Date)
	case e.InstanceID != "":
		return fmt.Sprintf("%s: %s (instance=%s)", e.Code, e.Message, e.InstanceID)
	case e.TemplateID != "":
		return fmt.Sprintf("%s: %s (template=%s)", e.Code, e.Message, e.TemplateID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDateConflict returns true if the error is a reschedule date conflict.
// Uses errors.As to handle wrapped errors.
func IsDateConflict(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeDateConflict
}

// IsNotFound returns true if the error is an unknown-id error.
// Uses errors.As to handle wrapped errors.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeNotFound
}

// IsInvalidTransition returns true if the error is a forbidden status change.
// Uses errors.As to handle wrapped errors.
func IsInvalidTransition(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeInvalidTransition
}

// newNotFound creates a NOT_FOUND error for an instance or template id.
func newNotFound(kind, id string) *Error {
	e := &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s does not exist", kind),
	}
	if kind == "template" {
		e.TemplateID = id
	} else {
		e.InstanceID = id
	}
	return e
}

// newDateConflict creates a DATE_CONFLICT error for a reschedule target.
func newDateConflict(instanceID, templateID string, date task.Date) *Error {
	return &Error{
		Code:       ErrCodeDateConflict,
		Message:    "target date already holds an instance for this template",
		InstanceID: instanceID,
		TemplateID: templateID,
		Date:       date,
	}
}

// newInvalidTransition creates an INVALID_STATE_TRANSITION error.
func newInvalidTransition(instanceID string, from task.Status, op string) *Error {
	return &Error{
		Code:       ErrCodeInvalidTransition,
		Message:    fmt.Sprintf("cannot %s a %s instance", op, from),
		InstanceID: instanceID,
	}
}
