package domain

import "errors"

var (
	// ErrNoActiveRound is returned when an action needs a live round and the conversation has none.
	ErrNoActiveRound = errors.New("no active round")
	// ErrRoundInProgress is returned when start is requested while the current round is incomplete.
	ErrRoundInProgress = errors.New("round in progress")
	// ErrEmptyBank indicates the question bank has nothing to offer.
	ErrEmptyBank = errors.New("question bank is empty")
	// ErrMalformedCreationSpec indicates a question-creation message could not be parsed.
	ErrMalformedCreationSpec = errors.New("malformed question specification")
	// ErrUnauthorized is returned when a non-admin identity attempts an admin-only action.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrStoreUnavailable wraps read/write failures of the question store.
	ErrStoreUnavailable = errors.New("question store unavailable")
	// ErrUnknownAction is returned for action names outside the supported set.
	ErrUnknownAction = errors.New("unknown action")
	// ErrNoPendingCreation is returned when cancelling a creation that was never requested.
	ErrNoPendingCreation = errors.New("no pending question creation")
)
