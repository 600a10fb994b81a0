package service

import "errors"

// Workflow error taxonomy. Validation-class errors are returned synchronously
// to the caller and never leave stored state changed.
var (
	// ErrInvalidTransition means the request is not in a state where the
	// attempted action exists (terminal request, draft, or an unsupported
	// decision for the current step).
	ErrInvalidTransition = errors.New("invalid transition for current request state")

	// ErrRoleMismatch means the actor's role is not the one the request is
	// waiting on, or the actor is not an active assignee for the step.
	ErrRoleMismatch = errors.New("actor is not the required approver for this request")

	// ErrLockConflict means someone else holds the handling lock and it has
	// not expired.
	ErrLockConflict = errors.New("request is currently locked by another user")

	// ErrApproverUnresolved means no active assignee exists for the role the
	// request should advance to. The request stays in place for manual
	// reassignment.
	ErrApproverUnresolved = errors.New("no active approver resolved for the next step")
)
