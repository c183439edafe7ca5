package utils

import "fmt"

// Error taxonomy for the reconciliation engine. Every public operation
// returns one of these (or succeeds); presentation layers decide retry and
// user messaging. Matched with errors.As.

// ValidationError is malformed input: negative quantities, blank reason on
// reject, unknown shift type. Recoverable locally by the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError is a business-rule violation: the requested action is
// not legal from the record's current status.
type InvalidTransitionError struct {
	Action string
	From   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("action %q is not allowed from status %q", e.Action, e.From)
}

// ConflictError means the caller lost a compare-and-set race. The record must
// be re-read before retrying; the engine never retries on the caller's behalf.
type ConflictError struct {
	RecordId int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("reconciliation %d was modified concurrently; re-read and retry", e.RecordId)
}

// NotFoundError is an unknown record id (or one outside the caller's tenant).
type NotFoundError struct {
	Resource string
	Id       int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.Id)
}
