package interview

import "errors"

// Common errors
var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidState means the operation is illegal for the current stage,
	// e.g. answering after the interview reached feedback.
	ErrInvalidState = errors.New("operation invalid for current stage")
	// ErrNoPendingQuestion means an answer arrived with no outstanding question.
	ErrNoPendingQuestion = errors.New("no pending question")
	// ErrSessionBusy means a turn is already being processed for this session.
	ErrSessionBusy = errors.New("session has a turn in flight")
	// ErrIncompleteSession means a report was requested before feedback.
	ErrIncompleteSession = errors.New("interview is not complete")
	// ErrCapabilityUnavailable means both the AI path and the deterministic
	// fallback failed. The fallback is designed never to fail, so seeing
	// this indicates a programming defect, not an operational condition.
	ErrCapabilityUnavailable = errors.New("capability provider unavailable")
)
