package services

import "errors"

// Workflow error taxonomy. Controllers map these onto HTTP status codes;
// services never write HTTP concerns themselves.
var (
	// ErrInvalidTransition: the event is not legal from the current status.
	ErrInvalidTransition = errors.New("invalid transition for current status")

	// ErrForbidden: the actor's role lacks permission for the event.
	ErrForbidden = errors.New("actor not permitted to perform this action")

	// ErrEmptyLogbook: submit attempted with zero qualifying entries.
	ErrEmptyLogbook = errors.New("logbook has no entries to submit")

	// ErrMissingReason: reject/return attempted without a reason.
	ErrMissingReason = errors.New("a reason is required for this decision")

	// ErrConflict: a conflicting record already exists, e.g. a pending or
	// active unlock request, or a second logbook for the same week.
	ErrConflict = errors.New("a conflicting record already exists")

	// ErrStaleState: the optimistic from-status precondition failed; the
	// caller should refetch and retry.
	ErrStaleState = errors.New("logbook was modified concurrently, refetch and retry")

	// ErrLogbookLocked: mutation attempted while the logbook is not editable.
	ErrLogbookLocked = errors.New("logbook is locked")

	// ErrInvalidScope: a comment scope key does not match its thread type.
	ErrInvalidScope = errors.New("invalid comment scope for thread type")

	// ErrEmptyMessage: a comment with no content.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrInvalidDuration: an unlock window that is zero or negative.
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")

	// ErrNotFound: the referenced logbook, entry or request does not exist.
	ErrNotFound = errors.New("record not found")
)
