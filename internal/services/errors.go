package services

import (
	"errors"
	"fmt"

	"deskview/internal/models"
)

// Sentinel errors for lifecycle rule violations. All of them are raised
// before any remote call is dispatched and are never retried.
var (
	// ErrMissingResolution rejects entering RESOLVED or CLOSED without a
	// non-empty resolution summary in the same update.
	ErrMissingResolution = errors.New("resolution summary is required")

	// ErrNotCancellable rejects cancelling an execution that is not running.
	ErrNotCancellable = errors.New("execution is not cancellable")

	// ErrAlreadyTerminal rejects any operation against an execution that
	// has reached a terminal state.
	ErrAlreadyTerminal = errors.New("execution already terminal")
)

// InvalidTransitionError reports a status change not present in the
// ticket transition graph.
type InvalidTransitionError struct {
	From    models.TicketStatus
	To      models.TicketStatus
	Allowed []models.TicketStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid ticket transition %s -> %s (allowed: %v)", e.From, e.To, e.Allowed)
}

// WorkflowNotActiveError reports a trigger attempt against a workflow
// that is not in the active state.
type WorkflowNotActiveError struct {
	WorkflowID string
	Status     models.WorkflowStatus
}

func (e *WorkflowNotActiveError) Error() string {
	return fmt.Sprintf("workflow %s is %s, only active workflows can be triggered", e.WorkflowID, e.Status)
}

// NotCancellableError reports a cancel attempt against a non-running
// execution. Every non-running state is terminal in this model, so the
// error matches both ErrNotCancellable and ErrAlreadyTerminal.
type NotCancellableError struct {
	ExecutionID string
	Status      models.ExecutionStatus
}

func (e *NotCancellableError) Error() string {
	return fmt.Sprintf("execution %s is %s and cannot be cancelled", e.ExecutionID, e.Status)
}

func (e *NotCancellableError) Is(target error) bool {
	if target == ErrNotCancellable {
		return true
	}
	return target == ErrAlreadyTerminal && e.Status.Terminal()
}

// ValidationError reports a create/update payload rejected locally,
// before any remote call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// RemoteError wraps a failed collaborator call. The underlying error is
// surfaced unchanged; the client imposes no retry policy here.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
