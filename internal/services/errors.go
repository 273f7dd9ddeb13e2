package services

import "fmt"

// Error messages shared with the HTTP layer.
const (
	MsgUserNotFound         = "User not found."
	MsgInvalidCredentials   = "Invalid username or password."
	MsgUsernameTaken        = "User already exists."
	MsgEmailTaken           = "Email already exists."
	MsgPasswordIncorrect    = "Current password is incorrect."
	MsgPasswordMismatch     = "New password and confirm password do not match."
	MsgExpiredInvalidToken  = "The provided token is either expired or invalid."
	MsgNoteNotFound         = "Note not found."
	MsgEmptyNoteContent     = "Note content cannot be empty."
	MsgNoSummaryAvailable   = "No summary available for this note."
	MsgFlashcardNotFound    = "Flashcard not found."
	MsgNoFlashcards         = "No flashcards found for this note."
	MsgCardPermissionDenied = "You do not have permission to answer this flashcard."
	MsgGradingFallback      = "Could not evaluate answer."
	MsgFieldRequired        = "This field is required."
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

// PermissionError means the resource exists but belongs to another user.
type PermissionError struct{ Message string }

func (e *PermissionError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// ExternalServiceError wraps a failure of a third-party dependency (the LLM,
// YouTube). Fallback is a user-facing message safe to show instead.
type ExternalServiceError struct {
	Service  string
	Fallback string
	Err      error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
