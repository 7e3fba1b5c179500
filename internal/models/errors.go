package models

import "errors"

// Error kinds surfaced by state-mutating operations. Pure queries
// return empty results instead of errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionFull     = errors.New("session is full")
	ErrPlayerNotFound  = errors.New("player not found")
	ErrCodeNotFound    = errors.New("game code not found or expired")
)

// ValidationError reports a mode-specific start precondition that was
// not met.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is a start-precondition failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
