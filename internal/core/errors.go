package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeAuthRejected   = "auth_rejected"
	ErrCodeMuted          = "muted"
	ErrCodeTargetNotFound = "target_not_found"
	ErrCodeUnknownCommand = "unknown_command"
	ErrCodeBadRequest     = "bad_request"
	ErrCodeStorage        = "storage_error"
)

var (
	// ErrAuthRejected is returned when a session bind names an unknown or
	// banned username.
	ErrAuthRejected = errors.New("authentication rejected")
	// ErrTargetNotFound is returned when a moderation action names a user
	// without a live connection.
	ErrTargetNotFound = errors.New("target not connected")
	// ErrNotActive is returned when an operation requires an active session.
	ErrNotActive = errors.New("session not active")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}
